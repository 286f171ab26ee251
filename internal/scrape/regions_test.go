package scrape

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hoplog/brewharvest/internal/metrics"
	"github.com/hoplog/brewharvest/internal/pipeline"
)

const indexFixture = `<html><body>
<div id="default">
  <a href="/breweries/alabama/0_2/">Alabama</a>
  <a href="/breweries/north-dakota/0_39/">North Dakota</a>
  <a href="/about">About RateBeer</a>
  <a href="/breweries/washington-dc/0_49/">Washington, D.C.</a>
  <a href="/breweries/texas/0_45/">Texas</a>
</div>
<div id="footer">
  <a href="/breweries/bogus/0_99/">Not a region</a>
</div>
</body></html>`

func regionTestConfig(indexURL string) Config {
	return Config{
		UserAgent:         "brewharvest-test/1.0",
		Timeout:           5 * time.Second,
		IndexURL:          indexURL,
		ContainerSelector: "#default",
		LinkLimit:         4,
		NameOverrides:     map[string]string{"Washington Dc": "Washington DC"},
	}
}

func serveHTML(t *testing.T, body string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestDiscoverRegionsParsesQualifyingAnchors(t *testing.T) {
	metrics.Init()
	server := serveHTML(t, indexFixture)

	scraper := NewRegionScraper(regionTestConfig(server.URL+"/breweries/"), zap.NewNop())
	regions, err := scraper.DiscoverRegions(context.Background())
	require.NoError(t, err)

	// The anchor window is 4: the non-region link inside it is skipped
	// and Texas sits beyond it.
	require.Len(t, regions, 3)

	require.Equal(t, "Alabama", regions[0].Name)
	require.Equal(t, "0_2", regions[0].ID)
	require.Equal(t, server.URL+"/breweries/alabama/0_2/", regions[0].URL)

	require.Equal(t, "North Dakota", regions[1].Name)
	require.Equal(t, "0_39", regions[1].ID)

	require.Equal(t, "Washington DC", regions[2].Name)
	require.Equal(t, "0_49", regions[2].ID)
}

func TestDiscoverRegionsZeroRegionsFails(t *testing.T) {
	metrics.Init()
	server := serveHTML(t, `<html><body><div id="default"><a href="/about">About</a></div></body></html>`)

	scraper := NewRegionScraper(regionTestConfig(server.URL), zap.NewNop())
	_, err := scraper.DiscoverRegions(context.Background())

	var discErr *pipeline.DiscoveryError
	require.ErrorAs(t, err, &discErr)
	require.Contains(t, err.Error(), "no regions found")
}

func TestDiscoverRegionsMissingContainerFails(t *testing.T) {
	metrics.Init()
	server := serveHTML(t, `<html><body><div id="content"><a href="/breweries/texas/0_45/">Texas</a></div></body></html>`)

	scraper := NewRegionScraper(regionTestConfig(server.URL), zap.NewNop())
	_, err := scraper.DiscoverRegions(context.Background())

	var discErr *pipeline.DiscoveryError
	require.ErrorAs(t, err, &discErr)
}

func TestDiscoverRegionsUnreachablePageFails(t *testing.T) {
	metrics.Init()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(server.Close)

	scraper := NewRegionScraper(regionTestConfig(server.URL), zap.NewNop())
	_, err := scraper.DiscoverRegions(context.Background())

	var discErr *pipeline.DiscoveryError
	require.ErrorAs(t, err, &discErr)
}

func TestDiscoverRegionsCanceledContext(t *testing.T) {
	metrics.Init()
	server := serveHTML(t, indexFixture)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	scraper := NewRegionScraper(regionTestConfig(server.URL), zap.NewNop())
	_, err := scraper.DiscoverRegions(ctx)
	require.True(t, errors.Is(err, context.Canceled))
}
