package scrape

import (
	"context"
	"fmt"
	"regexp"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"github.com/hoplog/brewharvest/internal/metrics"
	"github.com/hoplog/brewharvest/internal/pipeline"
)

// regionHref matches region links like /breweries/north-dakota/0_39/
// and captures the slug and the id path segment.
var regionHref = regexp.MustCompile(`/breweries/([a-z0-9-]+)/([0-9_]+)/?$`)

// RegionScraper discovers first-level regions from the breweries index
// page. It runs once per ingestion run, before any region work starts.
type RegionScraper struct {
	cfg    Config
	logger *zap.Logger
}

// NewRegionScraper returns a scraper for the configured index page.
func NewRegionScraper(cfg Config, logger *zap.Logger) *RegionScraper {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RegionScraper{cfg: cfg, logger: logger}
}

// DiscoverRegions fetches the index page and extracts the region links
// in document order. Only the first LinkLimit anchors under the
// container are considered; anchors inside that window that do not look
// like region links are skipped with a warning. Zero regions means a
// broken page or selector and fails the run.
func (s *RegionScraper) DiscoverRegions(ctx context.Context) ([]pipeline.Region, error) {
	var (
		regions  []pipeline.Region
		seen     int
		fetchErr error
	)

	collector := newCollector(s.cfg)
	collector.OnHTML(s.cfg.ContainerSelector+" a[href]", func(e *colly.HTMLElement) {
		if seen >= s.cfg.LinkLimit {
			return
		}
		seen++
		href := e.Attr("href")
		m := regionHref.FindStringSubmatch(href)
		if m == nil {
			s.logger.Warn("skipping non-region link on index page",
				zap.String("href", href),
			)
			return
		}
		regions = append(regions, pipeline.Region{
			Name: NormalizeRegionName(m[1], s.cfg.NameOverrides),
			ID:   m[2],
			URL:  e.Request.AbsoluteURL(href),
		})
	})
	collector.OnError(func(r *colly.Response, err error) {
		if err == nil {
			err = fmt.Errorf("request failed with status %d", r.StatusCode)
		}
		fetchErr = err
	})

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := collector.Visit(s.cfg.IndexURL); err != nil {
		metrics.ObserveListingPage("index", "error")
		return nil, &pipeline.DiscoveryError{URL: s.cfg.IndexURL, Err: err}
	}
	if fetchErr != nil {
		metrics.ObserveListingPage("index", "error")
		return nil, &pipeline.DiscoveryError{URL: s.cfg.IndexURL, Err: fetchErr}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(regions) == 0 {
		metrics.ObserveListingPage("index", "error")
		return nil, &pipeline.DiscoveryError{URL: s.cfg.IndexURL}
	}

	metrics.ObserveListingPage("index", "ok")
	s.logger.Info("discovered regions",
		zap.Int("count", len(regions)),
		zap.String("url", s.cfg.IndexURL),
	)
	return regions, nil
}
