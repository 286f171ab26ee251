// Package scrape extracts regions and brewer IDs from the site's HTML
// listing pages. Selectors live in configuration because listing markup
// drifts; a structural break here is an external failure mode, reported
// through the pipeline error taxonomy rather than patched around.
package scrape

import (
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"
)

// Config holds the shared settings for the listing-page scrapers.
type Config struct {
	// UserAgent is sent on every listing request.
	UserAgent string
	// Timeout bounds a single page fetch.
	Timeout time.Duration

	// IndexURL is the top-level page listing every region.
	IndexURL string
	// ContainerSelector scopes region discovery to one element on the
	// index page.
	ContainerSelector string
	// LinkLimit bounds how many anchors under the container count as
	// region links; the page appends unrelated navigation to the same
	// container.
	LinkLimit int
	// NameOverrides corrects region names that naive title-casing
	// mangles, keyed by the cased form.
	NameOverrides map[string]string

	// TableSelector identifies the brewer table on a region page. The
	// same marker may appear twice (active and closed listings); only
	// the first occurrence is the active table.
	TableSelector string
}

func newCollector(cfg Config) *colly.Collector {
	collector := colly.NewCollector(colly.UserAgent(cfg.UserAgent))
	collector.AllowURLRevisit = false
	collector.WithTransport(&http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          16,
		MaxIdleConnsPerHost:   4,
		IdleConnTimeout:       30 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: cfg.Timeout,
		ForceAttemptHTTP2:     true,
	})
	collector.SetRequestTimeout(cfg.Timeout)
	return collector
}
