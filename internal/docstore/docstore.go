// Package docstore persists beer records as schema-less documents in a
// single shared collection. Inserts carry no uniqueness key: re-running a
// region can duplicate rows, and deduplication is deliberately out of
// scope. The per-region CSV backup is the recovery path when an insert
// fails.
package docstore

import (
	"context"

	"github.com/hoplog/brewharvest/internal/pipeline"
)

// Provider abstracts the document store.
type Provider interface {
	// InsertBeers inserts one document per record and returns how many
	// rows the store accepted.
	InsertBeers(ctx context.Context, records []pipeline.BeerRecord) (int64, error)
	// Ping verifies connectivity at startup.
	Ping(ctx context.Context) error
	// Close releases the underlying resources.
	Close()
}

// NoOpProvider satisfies Provider for store-less (backup-only) runs.
type NoOpProvider struct{}

// InsertBeers for NoOpProvider does nothing.
func (NoOpProvider) InsertBeers(_ context.Context, _ []pipeline.BeerRecord) (int64, error) {
	return 0, nil
}

// Ping for NoOpProvider does nothing and returns nil.
func (NoOpProvider) Ping(_ context.Context) error { return nil }

// Close for NoOpProvider does nothing.
func (NoOpProvider) Close() {}
