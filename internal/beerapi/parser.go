package beerapi

import (
	"encoding/json"

	"github.com/hoplog/brewharvest/internal/metrics"
	"github.com/hoplog/brewharvest/internal/pipeline"
)

// apiEnvelope mirrors the beersByBrewer response. Pointer fields keep
// "absent" distinguishable from a zero value, which matters for fields
// like abv that the provider frequently omits.
type apiEnvelope struct {
	Data *struct {
		BeersByBrewer *beerCatalog `json:"beersByBrewer"`
	} `json:"data"`
	Errors []apiError `json:"errors"`
}

type apiError struct {
	Message string `json:"message"`
}

type beerCatalog struct {
	TotalCount int       `json:"totalCount"`
	Items      []apiBeer `json:"items"`
}

type apiBeer struct {
	Name          string   `json:"name"`
	Abv           *float64 `json:"abv"`
	Ibu           *float64 `json:"ibu"`
	Calories      *float64 `json:"calories"`
	IsRetired     bool     `json:"isRetired"`
	OverallScore  *float64 `json:"overallScore"`
	AverageRating *float64 `json:"averageRating"`
	RatingCount   int      `json:"ratingCount"`
	Style         *struct {
		Name string `json:"name"`
	} `json:"style"`
	Brewer *struct {
		Name          string `json:"name"`
		StateProvince *struct {
			Name string `json:"name"`
		} `json:"stateProvince"`
	} `json:"brewer"`
}

// ParseBeers decodes one payload and flattens the nested style and
// brewer objects into flat record fields. An empty item list is valid
// and yields an empty slice; a payload that is not JSON or lacks the
// beersByBrewer shape fails with *pipeline.MalformedResponseError.
// ParseBeers satisfies pipeline.ParseFunc.
func ParseBeers(payload []byte) ([]pipeline.BeerRecord, error) {
	var env apiEnvelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return nil, &pipeline.MalformedResponseError{Reason: "invalid json", Err: err}
	}
	if len(env.Errors) > 0 {
		return nil, &pipeline.MalformedResponseError{Reason: "api error: " + env.Errors[0].Message}
	}
	if env.Data == nil {
		return nil, &pipeline.MalformedResponseError{Reason: "missing data object"}
	}
	catalog := env.Data.BeersByBrewer
	if catalog == nil {
		return nil, &pipeline.MalformedResponseError{Reason: "missing beersByBrewer object"}
	}
	if catalog.TotalCount > len(catalog.Items) {
		metrics.ObserveTruncatedCatalog()
	}

	records := make([]pipeline.BeerRecord, 0, len(catalog.Items))
	for _, item := range catalog.Items {
		rec := pipeline.BeerRecord{
			Name:          item.Name,
			Abv:           item.Abv,
			Ibu:           item.Ibu,
			Calories:      item.Calories,
			IsRetired:     item.IsRetired,
			OverallScore:  item.OverallScore,
			AverageRating: item.AverageRating,
			RatingCount:   item.RatingCount,
		}
		if item.Style != nil {
			rec.StyleName = item.Style.Name
		}
		if item.Brewer != nil {
			rec.BrewerName = item.Brewer.Name
			if item.Brewer.StateProvince != nil {
				rec.BrewerRegion = item.Brewer.StateProvince.Name
			}
		}
		records = append(records, rec)
	}
	return records, nil
}
