package scrape

import (
	"context"
	"fmt"
	"regexp"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"github.com/hoplog/brewharvest/internal/metrics"
	"github.com/hoplog/brewharvest/internal/pipeline"
)

// brewerHref captures the trailing numeric id of a brewer link like
// /brewers/fargo-brewing-company/4062/.
var brewerHref = regexp.MustCompile(`/([0-9]+)/?$`)

// BrewerScraper extracts brewer IDs from one region's listing page.
type BrewerScraper struct {
	cfg    Config
	logger *zap.Logger
}

// NewBrewerScraper returns a scraper for region listing pages.
func NewBrewerScraper(cfg Config, logger *zap.Logger) *BrewerScraper {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BrewerScraper{cfg: cfg, logger: logger}
}

// ScrapeBrewerIDs fetches the region page and returns the brewer IDs in
// document order. The page repeats the table marker for its closed
// listing, so only the first matching table counts, and each row's
// first link is the brewer (the second is its location). An empty table
// yields an empty slice; an unreachable page or a missing table is a
// structural break and aborts the region.
func (s *BrewerScraper) ScrapeBrewerIDs(ctx context.Context, region pipeline.Region) ([]string, error) {
	var (
		ids      []string
		handled  bool
		fetchErr error
	)

	collector := newCollector(s.cfg)
	collector.OnHTML(s.cfg.TableSelector, func(e *colly.HTMLElement) {
		if handled {
			return
		}
		handled = true
		e.DOM.Find("tr").Each(func(_ int, row *goquery.Selection) {
			href, ok := row.Find("a[href]").First().Attr("href")
			if !ok {
				return
			}
			m := brewerHref.FindStringSubmatch(href)
			if m == nil {
				s.logger.Debug("skipping row without brewer id",
					zap.String("region", region.Name),
					zap.String("href", href),
				)
				return
			}
			ids = append(ids, m[1])
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
	if err := collector.Visit(region.URL); err != nil {
		metrics.ObserveListingPage("region", "error")
		return nil, &pipeline.ScrapeError{Region: region.Name, URL: region.URL, Err: err}
	}
	if fetchErr != nil {
		metrics.ObserveListingPage("region", "error")
		return nil, &pipeline.ScrapeError{Region: region.Name, URL: region.URL, Err: fetchErr}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !handled {
		metrics.ObserveListingPage("region", "error")
		return nil, &pipeline.ScrapeError{Region: region.Name, URL: region.URL}
	}

	metrics.ObserveListingPage("region", "ok")
	s.logger.Info("scraped brewer ids",
		zap.String("region", region.Name),
		zap.Int("count", len(ids)),
	)
	return ids, nil
}
