package beerapi

import (
	"context"
	"iter"

	"go.uber.org/zap"

	"github.com/hoplog/brewharvest/internal/pipeline"
)

// Fetcher produces one FetchResult per brewer ID, strictly in input
// order, with the pacer's interval between consecutive requests.
type Fetcher struct {
	client *Client
	pacer  *Pacer
	logger *zap.Logger
}

// NewFetcher wires a client to a pacer.
func NewFetcher(client *Client, pacer *Pacer, logger *zap.Logger) *Fetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fetcher{client: client, pacer: pacer, logger: logger}
}

// FetchAll returns a lazy sequence over the IDs. Each element is
// produced on demand, so nothing is fetched ahead of the consumer. A
// failed fetch is carried inside its result and never stops the
// sequence; only context cancellation or the consumer breaking out
// ends it early.
func (f *Fetcher) FetchAll(ctx context.Context, brewerIDs []string) iter.Seq[pipeline.FetchResult] {
	return func(yield func(pipeline.FetchResult) bool) {
		for _, id := range brewerIDs {
			if ctx.Err() != nil {
				return
			}
			if err := f.pacer.Wait(ctx); err != nil {
				return
			}

			payload, err := f.client.FetchBeers(ctx, id)
			f.pacer.Mark()
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				f.logger.Warn("brewer fetch failed",
					zap.String("brewer_id", id),
					zap.Error(err),
				)
				if !yield(pipeline.FetchResult{BrewerID: id, Err: err}) {
					return
				}
				continue
			}
			if !yield(pipeline.FetchResult{BrewerID: id, Payload: payload}) {
				return
			}
		}
	}
}
