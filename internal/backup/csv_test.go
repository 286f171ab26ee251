package backup

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hoplog/brewharvest/internal/pipeline"
)

func floatPtr(v float64) *float64 { return &v }

func TestFileName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		region string
		want   string
	}{
		{"North Dakota", "NorthDakota_Brewers.csv"},
		{"Washington DC", "WashingtonDC_Brewers.csv"},
		{"Ohio", "Ohio_Brewers.csv"},
	}
	for _, tt := range tests {
		if got := FileName(tt.region); got != tt.want {
			t.Errorf("FileName(%q) = %q, want %q", tt.region, got, tt.want)
		}
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	t.Parallel()

	records := []pipeline.BeerRecord{
		{
			Name:          "Velvet Antler",
			Abv:           floatPtr(6.5),
			Ibu:           floatPtr(42),
			Calories:      floatPtr(195),
			IsRetired:     false,
			OverallScore:  floatPtr(87),
			AverageRating: floatPtr(3.43),
			RatingCount:   112,
			StyleName:     "Amber Ale",
			BrewerName:    "Prairie Fire Brewing",
			BrewerRegion:  "North Dakota",
		},
		{
			// Absent numerics and a name with csv-hostile characters.
			Name:        `Dakota "Gold", Reserve`,
			IsRetired:   true,
			RatingCount: 0,
			StyleName:   "Pilsener",
			BrewerName:  "Prairie Fire Brewing",
		},
	}

	data, err := EncodeCSV(records)
	require.NoError(t, err)

	decoded, err := DecodeCSV(bytes.NewReader(data))
	require.NoError(t, err)
	require.Equal(t, records, decoded)
}

func TestEncodeEmptyRecordsWritesHeaderOnly(t *testing.T) {
	t.Parallel()

	data, err := EncodeCSV(nil)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	require.Len(t, lines, 1)
	require.True(t, strings.HasPrefix(lines[0], "name,abv,ibu,"))

	decoded, err := DecodeCSV(bytes.NewReader(data))
	require.NoError(t, err)
	require.Empty(t, decoded)
}

func TestDecodeRejectsForeignHeader(t *testing.T) {
	t.Parallel()

	_, err := DecodeCSV(strings.NewReader("title,price\nfoo,1\n"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "header")
}

func TestDecodeRejectsEmptyFile(t *testing.T) {
	t.Parallel()

	_, err := DecodeCSV(strings.NewReader(""))
	require.Error(t, err)
}

func TestDecodeRejectsBadNumeric(t *testing.T) {
	t.Parallel()

	data, err := EncodeCSV([]pipeline.BeerRecord{{Name: "x", RatingCount: 1}})
	require.NoError(t, err)

	corrupted := strings.Replace(string(data), ",1,", ",not-a-number,", 1)
	_, err = DecodeCSV(strings.NewReader(corrupted))
	require.Error(t, err)
}
