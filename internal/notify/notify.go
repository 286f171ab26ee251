// Package notify publishes region-completion events so downstream
// consumers (dashboards, enrichment jobs) can react without polling the
// store. Notification failures are never allowed to fail a region.
package notify

import (
	"context"

	"github.com/hoplog/brewharvest/internal/pipeline"
)

// RegionDone is the payload published after each region completes.
type RegionDone struct {
	RunID     string `json:"run_id"`
	Region    string `json:"region"`
	RegionID  string `json:"region_id"`
	Brewers   int    `json:"brewers"`
	Beers     int    `json:"beers"`
	Failures  int    `json:"failures"`
	BackupURI string `json:"backup_uri"`
	ElapsedMS int64  `json:"elapsed_ms"`
}

// Publisher sends region-completion events to an external channel.
type Publisher interface {
	Publish(ctx context.Context, done RegionDone) error
	Close() error
}

// NoOpPublisher is the default when notifications are disabled.
type NoOpPublisher struct{}

// Publish for NoOpPublisher does nothing and returns nil.
func (NoOpPublisher) Publish(_ context.Context, _ RegionDone) error { return nil }

// Close for NoOpPublisher does nothing and returns nil.
func (NoOpPublisher) Close() error { return nil }

// Reporter adapts a Publisher to the run loop's Notifier port.
type Reporter struct {
	pub Publisher
}

// NewReporter wraps pub; a nil pub behaves like NoOpPublisher.
func NewReporter(pub Publisher) *Reporter {
	if pub == nil {
		pub = NoOpPublisher{}
	}
	return &Reporter{pub: pub}
}

// RegionCompleted converts the report and publishes it.
func (r *Reporter) RegionCompleted(ctx context.Context, runID string, report pipeline.RegionReport) error {
	return r.pub.Publish(ctx, RegionDone{
		RunID:     runID,
		Region:    report.Region.Name,
		RegionID:  report.Region.ID,
		Brewers:   report.Brewers,
		Beers:     report.Beers,
		Failures:  len(report.Failures),
		BackupURI: report.BackupURI,
		ElapsedMS: report.Elapsed.Milliseconds(),
	})
}
