package scrape

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hoplog/brewharvest/internal/metrics"
	"github.com/hoplog/brewharvest/internal/pipeline"
)

// regionFixture carries the quirk the scraper has to survive: the
// closed-brewery table repeats the active table's marker, and each row
// holds a second link for the brewer's location.
const regionFixture = `<html><body>
<h2>Breweries</h2>
<table id="brewerTable">
  <tr><th>Name</th><th>Location</th></tr>
  <tr>
    <td><a href="/brewers/fargo-brewing-company/4062/">Fargo Brewing Company</a></td>
    <td><a href="/breweries/north-dakota/city/123/">Fargo</a></td>
  </tr>
  <tr>
    <td><a href="/brewers/drekker-brewing-company/9911/">Drekker Brewing Company</a></td>
    <td><a href="/breweries/north-dakota/city/123/">Fargo</a></td>
  </tr>
</table>
<h2>Closed Breweries</h2>
<table id="brewerTable">
  <tr>
    <td><a href="/brewers/dead-brewery/777/">Dead Brewery</a></td>
    <td><a href="/breweries/north-dakota/city/456/">Bismarck</a></td>
  </tr>
</table>
</body></html>`

func brewerTestConfig() Config {
	return Config{
		UserAgent:     "brewharvest-test/1.0",
		Timeout:       5 * time.Second,
		TableSelector: "table#brewerTable",
	}
}

func testRegion(serverURL string) pipeline.Region {
	return pipeline.Region{
		Name: "North Dakota",
		ID:   "0_39",
		URL:  serverURL + "/breweries/north-dakota/0_39/",
	}
}

func TestScrapeBrewerIDsActiveTableOnly(t *testing.T) {
	metrics.Init()
	server := serveHTML(t, regionFixture)

	scraper := NewBrewerScraper(brewerTestConfig(), zap.NewNop())
	ids, err := scraper.ScrapeBrewerIDs(context.Background(), testRegion(server.URL))
	require.NoError(t, err)

	// Closed-table id 777 and the location link ids never appear.
	require.Equal(t, []string{"4062", "9911"}, ids)
}

func TestScrapeBrewerIDsEmptyTable(t *testing.T) {
	metrics.Init()
	server := serveHTML(t, `<html><body>
<table id="brewerTable"><tr><th>Name</th><th>Location</th></tr></table>
</body></html>`)

	scraper := NewBrewerScraper(brewerTestConfig(), zap.NewNop())
	ids, err := scraper.ScrapeBrewerIDs(context.Background(), testRegion(server.URL))
	require.NoError(t, err)
	require.Empty(t, ids)
}

func TestScrapeBrewerIDsMissingTableFails(t *testing.T) {
	metrics.Init()
	server := serveHTML(t, `<html><body><p>Nothing brewing here.</p></body></html>`)

	scraper := NewBrewerScraper(brewerTestConfig(), zap.NewNop())
	_, err := scraper.ScrapeBrewerIDs(context.Background(), testRegion(server.URL))

	var scrapeErr *pipeline.ScrapeError
	require.ErrorAs(t, err, &scrapeErr)
	require.Contains(t, err.Error(), "brewer table not found")
	require.Equal(t, "North Dakota", scrapeErr.Region)
}

func TestScrapeBrewerIDsUnreachablePageFails(t *testing.T) {
	metrics.Init()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(server.Close)

	scraper := NewBrewerScraper(brewerTestConfig(), zap.NewNop())
	_, err := scraper.ScrapeBrewerIDs(context.Background(), testRegion(server.URL))

	var scrapeErr *pipeline.ScrapeError
	require.ErrorAs(t, err, &scrapeErr)
}
