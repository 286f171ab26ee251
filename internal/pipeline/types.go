// Package pipeline defines the core ingestion types and the sequential
// run loop that drives discovery, scraping, fetching, and persistence.
package pipeline

import "time"

// Region is one top-level geographic grouping discovered from the index
// page. Regions are regenerated every run and never cached.
type Region struct {
	Name string `json:"name"`
	ID   string `json:"id"`
	URL  string `json:"url"`
}

// FetchResult carries the outcome of one brewer's API request. Exactly one
// is produced per brewer ID per run, in input order. Err is set on failed
// fetches and Payload holds the raw response body otherwise.
type FetchResult struct {
	BrewerID string
	Payload  []byte
	Err      error
}

// BeerRecord is one normalized catalog row. Nullable API numerics stay
// pointers so an absent value survives both sinks.
type BeerRecord struct {
	Name          string   `json:"name"`
	Abv           *float64 `json:"abv"`
	Ibu           *float64 `json:"ibu"`
	Calories      *float64 `json:"calories"`
	IsRetired     bool     `json:"isRetired"`
	OverallScore  *float64 `json:"overallScore"`
	AverageRating *float64 `json:"averageRating"`
	RatingCount   int      `json:"ratingCount"`
	StyleName     string   `json:"styleName"`
	BrewerName    string   `json:"brewerName"`
	BrewerRegion  string   `json:"brewerRegion"`
}

// FetchFailure records one absorbed brewer-level failure so a manual
// resume can target the affected brewer.
type FetchFailure struct {
	BrewerID string
	Err      error
}

// RegionReport is the per-region outcome collected by the run loop.
type RegionReport struct {
	Region    Region
	Brewers   int
	Beers     int
	Failures  []FetchFailure
	Err       error
	BackupURI string
	Skipped   bool
	Elapsed   time.Duration
}

// RunSummary aggregates all region reports for one run.
type RunSummary struct {
	RunID          string
	RegionsOK      int
	RegionsFailed  int
	RegionsSkipped int
	Brewers        int
	Beers          int
	FetchFailures  int
	Reports        []RegionReport
	Elapsed        time.Duration
}
