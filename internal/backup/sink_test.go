package backup

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hoplog/brewharvest/internal/pipeline"
	"github.com/hoplog/brewharvest/internal/storage/memory"
)

type failingProvider struct{}

func (failingProvider) Save(context.Context, string, []byte) (string, error) {
	return "", fmt.Errorf("bucket unavailable")
}

func TestWriteRegionSavesUnderRegionFileName(t *testing.T) {
	t.Parallel()

	primary := memory.New()
	sink, err := NewSink(primary, nil, zap.NewNop())
	require.NoError(t, err)

	records := []pipeline.BeerRecord{{Name: "Spruce Tip", RatingCount: 4, BrewerRegion: "North Dakota"}}
	uri, err := sink.WriteRegion(context.Background(), "North Dakota", records)
	require.NoError(t, err)
	require.Equal(t, "memory://NorthDakota_Brewers.csv", uri)

	data, ok := primary.Object("NorthDakota_Brewers.csv")
	require.True(t, ok)

	decoded, err := DecodeCSV(bytes.NewReader(data))
	require.NoError(t, err)
	require.Equal(t, records, decoded)
}

func TestWriteRegionMirrorsToSecondary(t *testing.T) {
	t.Parallel()

	primary := memory.New()
	mirror := memory.New()
	sink, err := NewSink(primary, mirror, zap.NewNop())
	require.NoError(t, err)

	_, err = sink.WriteRegion(context.Background(), "Ohio", []pipeline.BeerRecord{{Name: "Rye Porter"}})
	require.NoError(t, err)

	primaryData, ok := primary.Object("Ohio_Brewers.csv")
	require.True(t, ok)
	mirrorData, ok := mirror.Object("Ohio_Brewers.csv")
	require.True(t, ok)
	require.Equal(t, primaryData, mirrorData)
}

func TestWriteRegionMirrorFailureDoesNotFailWrite(t *testing.T) {
	t.Parallel()

	primary := memory.New()
	sink, err := NewSink(primary, failingProvider{}, zap.NewNop())
	require.NoError(t, err)

	_, err = sink.WriteRegion(context.Background(), "Texas", []pipeline.BeerRecord{{Name: "Bock"}})
	require.NoError(t, err)

	_, ok := primary.Object("Texas_Brewers.csv")
	require.True(t, ok)
}

func TestWriteRegionPrimaryFailureReturnsError(t *testing.T) {
	t.Parallel()

	sink, err := NewSink(failingProvider{}, nil, zap.NewNop())
	require.NoError(t, err)

	_, err = sink.WriteRegion(context.Background(), "Texas", nil)
	require.Error(t, err)
}

func TestNewSinkRequiresPrimary(t *testing.T) {
	t.Parallel()

	_, err := NewSink(nil, nil, nil)
	require.Error(t, err)
}
