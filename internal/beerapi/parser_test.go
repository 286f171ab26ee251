package beerapi

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hoplog/brewharvest/internal/metrics"
	"github.com/hoplog/brewharvest/internal/pipeline"
)

func TestParseBeersFlattensNestedObjects(t *testing.T) {
	metrics.Init()

	payload := `{"data":{"beersByBrewer":{"totalCount":2,"items":[
		{"name":"Wood Chipper IPA","abv":6.7,"ibu":72,"calories":201,"isRetired":false,
		 "overallScore":89.5,"averageRating":3.62,"ratingCount":412,
		 "style":{"name":"IPA"},
		 "brewer":{"name":"Fargo Brewing Company","stateProvince":{"name":"North Dakota"}}},
		{"name":"Iron Horse","abv":null,"ibu":null,"calories":null,"isRetired":true,
		 "overallScore":null,"averageRating":null,"ratingCount":0,
		 "style":null,"brewer":null}
	]}}}`

	records, err := ParseBeers([]byte(payload))
	require.NoError(t, err)
	require.Len(t, records, 2)

	first := records[0]
	require.Equal(t, "Wood Chipper IPA", first.Name)
	require.NotNil(t, first.Abv)
	require.InDelta(t, 6.7, *first.Abv, 0.001)
	require.NotNil(t, first.OverallScore)
	require.InDelta(t, 89.5, *first.OverallScore, 0.001)
	require.Equal(t, 412, first.RatingCount)
	require.False(t, first.IsRetired)
	require.Equal(t, "IPA", first.StyleName)
	require.Equal(t, "Fargo Brewing Company", first.BrewerName)
	require.Equal(t, "North Dakota", first.BrewerRegion)

	second := records[1]
	require.Equal(t, "Iron Horse", second.Name)
	require.Nil(t, second.Abv)
	require.Nil(t, second.AverageRating)
	require.True(t, second.IsRetired)
	require.Empty(t, second.StyleName)
	require.Empty(t, second.BrewerName)
	require.Empty(t, second.BrewerRegion)
}

func TestParseBeersEmptyCatalog(t *testing.T) {
	metrics.Init()

	for _, payload := range []string{
		`{"data":{"beersByBrewer":{"totalCount":0,"items":[]}}}`,
		`{"data":{"beersByBrewer":{"totalCount":0}}}`,
	} {
		records, err := ParseBeers([]byte(payload))
		require.NoError(t, err)
		require.Empty(t, records)
	}
}

func TestParseBeersInvalidJSON(t *testing.T) {
	metrics.Init()

	_, err := ParseBeers([]byte(`<html>rate limited</html>`))

	var malformed *pipeline.MalformedResponseError
	require.ErrorAs(t, err, &malformed)
	require.Contains(t, err.Error(), "invalid json")
}

func TestParseBeersMissingShape(t *testing.T) {
	metrics.Init()

	tests := []struct {
		name    string
		payload string
	}{
		{"no data object", `{"ok":true}`},
		{"null data", `{"data":null}`},
		{"missing beersByBrewer", `{"data":{"somethingElse":{}}}`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseBeers([]byte(tc.payload))
			var malformed *pipeline.MalformedResponseError
			require.ErrorAs(t, err, &malformed)
		})
	}
}

func TestParseBeersSurfacesAPIErrors(t *testing.T) {
	metrics.Init()

	_, err := ParseBeers([]byte(`{"errors":[{"message":"invalid api key"}],"data":null}`))

	var malformed *pipeline.MalformedResponseError
	require.ErrorAs(t, err, &malformed)
	require.Contains(t, err.Error(), "invalid api key")
}

func TestParseBeersTruncatedCatalogStillParses(t *testing.T) {
	metrics.Init()

	// totalCount past the page size is a documented limitation: the
	// first page parses normally and the overflow is only counted.
	payload := `{"data":{"beersByBrewer":{"totalCount":1500,"items":[{"name":"Only One","ratingCount":3}]}}}`
	records, err := ParseBeers([]byte(payload))
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, "Only One", records[0].Name)
}
