package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestStatusClass(t *testing.T) {
	testCases := []struct {
		name     string
		code     int
		expected string
	}{
		{"ok", 200, "2xx"},
		{"created", 201, "2xx"},
		{"redirect", 301, "3xx"},
		{"not found", 404, "4xx"},
		{"server error", 503, "5xx"},
		{"zero means no response", 0, "none"},
		{"out of range", 999, "none"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := StatusClass(tc.code); got != tc.expected {
				t.Errorf("StatusClass(%d) = %q; want %q", tc.code, got, tc.expected)
			}
		})
	}
}

func TestInit(t *testing.T) {
	// Call Init multiple times to test idempotency.
	Init()
	Init()

	if apiRequestsTotal == nil || apiRequestDurationSeconds == nil ||
		apiPaceWaitSeconds == nil || listingPagesTotal == nil {
		t.Fatal("Init() did not initialize metrics collectors")
	}

	ObserveAPIRequest(200, 120*time.Millisecond)
	if val := testutil.ToFloat64(apiRequestsTotal.WithLabelValues("2xx")); val < 1 {
		t.Errorf("expected api request counter >= 1, got %f", val)
	}

	ObserveListingPage("index", "ok")
	if val := testutil.ToFloat64(listingPagesTotal.WithLabelValues("index", "ok")); val < 1 {
		t.Errorf("expected listing page counter >= 1, got %f", val)
	}

	ObservePaceWait(10 * time.Millisecond)
	ObserveTruncatedCatalog()
	if val := testutil.ToFloat64(apiTruncatedCatalogsTotal); val < 1 {
		t.Errorf("expected truncated catalog counter >= 1, got %f", val)
	}
}
