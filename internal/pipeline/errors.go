package pipeline

import "fmt"

// DiscoveryError signals that the region index yielded zero usable regions,
// which means a broken page or selector rather than absence of data. It is
// fatal to the run.
type DiscoveryError struct {
	URL string
	Err error
}

func (e *DiscoveryError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("discover regions from %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("discover regions from %s: no regions found", e.URL)
}

func (e *DiscoveryError) Unwrap() error { return e.Err }

// ScrapeError signals that one region's listing page is unreachable or its
// brewer table is entirely absent. It aborts that region only; the run
// continues with the next region.
type ScrapeError struct {
	Region string
	URL    string
	Err    error
}

func (e *ScrapeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("scrape brewers for %s (%s): %v", e.Region, e.URL, e.Err)
	}
	return fmt.Sprintf("scrape brewers for %s (%s): brewer table not found", e.Region, e.URL)
}

func (e *ScrapeError) Unwrap() error { return e.Err }

// TransportFailure marks a single brewer fetch that failed at the HTTP
// layer, either a transport error or a non-2xx status. It contributes zero
// records and never halts the fetch sequence.
type TransportFailure struct {
	BrewerID string
	URL      string
	// Status is zero when the request never completed.
	Status int
	Err    error
}

func (e *TransportFailure) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch beers for brewer %s: %v", e.BrewerID, e.Err)
	}
	return fmt.Sprintf("fetch beers for brewer %s: unexpected status %d", e.BrewerID, e.Status)
}

func (e *TransportFailure) Unwrap() error { return e.Err }

// MalformedResponseError marks a fetched payload that is not valid JSON or
// lacks the expected beersByBrewer shape. An empty item list is valid and
// never raises this.
type MalformedResponseError struct {
	Reason string
	Err    error
}

func (e *MalformedResponseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed api response: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("malformed api response: %s", e.Reason)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }
