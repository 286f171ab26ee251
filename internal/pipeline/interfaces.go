package pipeline

import (
	"context"
	"iter"
	"time"
)

// RegionDiscoverer produces the ordered region list from the index page.
type RegionDiscoverer interface {
	DiscoverRegions(ctx context.Context) ([]Region, error)
}

// BrewerScraper returns the ordered brewer IDs on one region's listing page.
type BrewerScraper interface {
	ScrapeBrewerIDs(ctx context.Context, region Region) ([]string, error)
}

// BeerFetcher issues one API request per brewer ID, in input order, spaced
// by the provider's minimum interval. The sequence is lazy: each result is
// produced on demand and consumers may stop early.
type BeerFetcher interface {
	FetchAll(ctx context.Context, brewerIDs []string) iter.Seq[FetchResult]
}

// ParseFunc extracts the normalized records from one raw payload.
type ParseFunc func(payload []byte) ([]BeerRecord, error)

// BackupSink serializes one region's records to the flat-file backup and
// returns the destination URI.
type BackupSink interface {
	WriteRegion(ctx context.Context, regionName string, records []BeerRecord) (string, error)
}

// DocumentStore inserts records into the shared document collection.
type DocumentStore interface {
	InsertBeers(ctx context.Context, records []BeerRecord) (int64, error)
}

// Notifier publishes a per-region completion event.
type Notifier interface {
	RegionCompleted(ctx context.Context, runID string, report RegionReport) error
}

// Clock supplies the current time (UTC in production, fixed in tests).
type Clock interface {
	Now() time.Time
}
