// Package beerapi talks to the product GraphQL API: one paginated query
// per brewer, paced to the provider's minimum request interval and hard
// monthly quota. Requests are strictly sequential; concurrency would
// violate the provider contract.
package beerapi

import (
	"context"
	"time"

	"github.com/hoplog/brewharvest/internal/clock"
	"github.com/hoplog/brewharvest/internal/metrics"
)

// Pacer enforces the minimum interval between requests. The interval is
// anchored on request completion, not dispatch: Wait blocks until the
// interval has fully elapsed since Mark was last called. State lives in
// the struct so fetchers in tests never interfere with each other.
//
// Pacer is not safe for concurrent use; the fetch loop is sequential by
// contract.
type Pacer struct {
	clock    clock.Clock
	interval time.Duration
	last     time.Time
}

// NewPacer returns a pacer that keeps at least interval between the
// completion of one request and the dispatch of the next.
func NewPacer(clk clock.Clock, interval time.Duration) *Pacer {
	return &Pacer{clock: clk, interval: interval}
}

// Wait blocks until the interval has elapsed since the previous request
// completed. The first call never waits. Wait returns early with the
// context error when ctx is done.
func (p *Pacer) Wait(ctx context.Context) error {
	if p.last.IsZero() || p.interval <= 0 {
		return nil
	}
	remaining := p.interval - p.clock.Now().Sub(p.last)
	if remaining <= 0 {
		return nil
	}
	metrics.ObservePaceWait(remaining)
	return p.clock.Sleep(ctx, remaining)
}

// Mark records that a request just completed.
func (p *Pacer) Mark() {
	p.last = p.clock.Now()
}
