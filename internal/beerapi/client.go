package beerapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hoplog/brewharvest/internal/metrics"
	"github.com/hoplog/brewharvest/internal/pipeline"
)

// beersQuery requests one brewer's catalog in a single page. Pagination
// past the first page is out of scope; observed catalogs fit well under
// the page size, and the truncation counter tracks the exceptions.
const beersQuery = `{
	beersByBrewer(brewerId: %s, first: %d) {
		totalCount
		items {
			name
			abv
			ibu
			calories
			isRetired
			overallScore
			averageRating
			ratingCount
			style {
				name
			}
			brewer {
				name
				stateProvince {
					name
				}
			}
		}
	}
}`

// graphqlRequest is the provider's expected body shape. Variables is a
// JSON-encoded string, not an object, and operationName must serialize
// as null.
type graphqlRequest struct {
	Query         string  `json:"query"`
	Variables     string  `json:"variables"`
	OperationName *string `json:"operationName"`
}

// Config holds the client settings for the product API.
type Config struct {
	// Endpoint is the GraphQL URL.
	Endpoint string
	// APIKey is sent as x-api-key on every request.
	APIKey string
	// PageSize caps the item count requested per brewer.
	PageSize int
	// Timeout bounds one request end to end.
	Timeout time.Duration
}

// Client issues beersByBrewer queries. It carries no request state; the
// Pacer owns the inter-request spacing.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// NewClient builds a client with a tuned transport.
func NewClient(cfg Config) *Client {
	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        16,
				MaxIdleConnsPerHost: 4,
				IdleConnTimeout:     90 * time.Second,
				TLSHandshakeTimeout: 10 * time.Second,
				ForceAttemptHTTP2:   true,
			},
		},
	}
}

// FetchBeers requests one brewer's catalog and returns the raw response
// body. Transport errors and non-2xx statuses come back as a
// *pipeline.TransportFailure so the fetch loop can record them without
// halting.
func (c *Client) FetchBeers(ctx context.Context, brewerID string) ([]byte, error) {
	body, err := json.Marshal(graphqlRequest{
		Query:     fmt.Sprintf(beersQuery, brewerID, c.cfg.PageSize),
		Variables: "{}",
	})
	if err != nil {
		return nil, fmt.Errorf("marshal query for brewer %s: %w", brewerID, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request for brewer %s: %w", brewerID, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("x-api-key", c.cfg.APIKey)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.ObserveAPIRequest(0, time.Since(start))
		return nil, &pipeline.TransportFailure{BrewerID: brewerID, URL: c.cfg.Endpoint, Err: err}
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	metrics.ObserveAPIRequest(resp.StatusCode, time.Since(start))
	if err != nil {
		return nil, &pipeline.TransportFailure{
			BrewerID: brewerID,
			URL:      c.cfg.Endpoint,
			Status:   resp.StatusCode,
			Err:      fmt.Errorf("read response: %w", err),
		}
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, &pipeline.TransportFailure{
			BrewerID: brewerID,
			URL:      c.cfg.Endpoint,
			Status:   resp.StatusCode,
		}
	}
	return payload, nil
}
