// Package progress provides the event primitives, non-blocking hub, and
// emitter interface the run loop uses to report ingestion progress. Events
// are batched on a background goroutine and fanned out to pluggable sinks
// such as structured logs or Prometheus metrics.
package progress
