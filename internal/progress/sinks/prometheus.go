package sinks

import (
	"context"
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hoplog/brewharvest/internal/progress"
)

// PrometheusSink exports pipeline-level progress metrics: runs, regions,
// and ingested record counts. Transport-level API metrics live in the
// metrics package; this sink only aggregates what the run loop reports.
type PrometheusSink struct {
	runsStarted   prometheus.Counter
	runsCompleted *prometheus.CounterVec
	runsRunning   prometheus.Gauge
	runDuration   *prometheus.HistogramVec

	regionsCompleted *prometheus.CounterVec
	regionDuration   *prometheus.HistogramVec

	beersIngested prometheus.Counter
	fetchFailures prometheus.Counter

	tracker *runTracker
}

// NewPrometheusSink registers the collectors against the provided
// registry, or the default registerer when reg is nil.
func NewPrometheusSink(reg prometheus.Registerer) (*PrometheusSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PrometheusSink{
		runsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "brewharvest_runs_started_total",
			Help: "Total ingestion runs started.",
		}),
		runsCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "brewharvest_runs_completed_total",
			Help: "Total ingestion runs completed partitioned by result.",
		}, []string{"result"}),
		runsRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "brewharvest_runs_running",
			Help: "Current number of in-flight ingestion runs.",
		}),
		runDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "brewharvest_run_duration_seconds",
			Help:    "Wall time per completed run.",
			Buckets: []float64{60, 300, 900, 1800, 3600, 7200, 14400},
		}, []string{"result"}),
		regionsCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "brewharvest_regions_completed_total",
			Help: "Regions processed partitioned by result.",
		}, []string{"result"}),
		regionDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "brewharvest_region_duration_seconds",
			Help:    "Wall time per region partitioned by result.",
			Buckets: []float64{1, 5, 15, 60, 300, 900, 1800},
		}, []string{"result"}),
		beersIngested: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "brewharvest_beers_ingested_total",
			Help: "Beer records parsed from successful brewer fetches.",
		}),
		fetchFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "brewharvest_fetch_failures_total",
			Help: "Brewer fetches that produced zero records due to an error.",
		}),
		tracker: newRunTracker(),
	}
	for _, collector := range []prometheus.Collector{
		s.runsStarted,
		s.runsCompleted,
		s.runsRunning,
		s.runDuration,
		s.regionsCompleted,
		s.regionDuration,
		s.beersIngested,
		s.fetchFailures,
	} {
		if err := reg.Register(collector); err != nil {
			return nil, fmt.Errorf("register progress collector: %w", err)
		}
	}
	return s, nil
}

// Consume updates the collectors from the batch. It is safe for
// concurrent use.
func (s *PrometheusSink) Consume(_ context.Context, batch []progress.Event) error {
	for _, evt := range batch {
		s.consumeEvent(evt)
	}
	return nil
}

func (s *PrometheusSink) consumeEvent(evt progress.Event) {
	switch evt.Stage {
	case progress.StageRunStart, progress.StageRunDone, progress.StageRunError:
		s.handleRunEvent(evt)
	case progress.StageRegionDone, progress.StageRegionError:
		s.handleRegionEvent(evt)
	case progress.StageFetchDone:
		s.handleFetchEvent(evt)
	}
}

func (s *PrometheusSink) handleRunEvent(evt progress.Event) {
	switch evt.Stage {
	case progress.StageRunStart:
		s.runsStarted.Inc()
		if s.tracker.start(evt.RunID) {
			s.runsRunning.Inc()
		}
	case progress.StageRunDone:
		s.runsCompleted.WithLabelValues("success").Inc()
		s.observeRunDuration(evt, "success")
	case progress.StageRunError:
		s.runsCompleted.WithLabelValues("error").Inc()
		s.observeRunDuration(evt, "error")
	}
	if evt.Stage != progress.StageRunStart && s.tracker.complete(evt.RunID) {
		s.runsRunning.Dec()
	}
}

func (s *PrometheusSink) observeRunDuration(evt progress.Event, label string) {
	if evt.Dur > 0 {
		s.runDuration.WithLabelValues(label).Observe(evt.Dur.Seconds())
	}
}

func (s *PrometheusSink) handleRegionEvent(evt progress.Event) {
	result := "success"
	if evt.Stage == progress.StageRegionError {
		result = "error"
	}
	s.regionsCompleted.WithLabelValues(result).Inc()
	if evt.Dur > 0 {
		s.regionDuration.WithLabelValues(result).Observe(evt.Dur.Seconds())
	}
}

func (s *PrometheusSink) handleFetchEvent(evt progress.Event) {
	if evt.Records > 0 {
		s.beersIngested.Add(float64(evt.Records))
	}
	if evt.Note != "" {
		s.fetchFailures.Inc()
	}
}

// Close implements the Sink interface; it performs no action.
func (s *PrometheusSink) Close(context.Context) error {
	return nil
}

type runTracker struct {
	mu      sync.Mutex
	running map[[16]byte]struct{}
}

func newRunTracker() *runTracker {
	return &runTracker{running: make(map[[16]byte]struct{})}
}

func (t *runTracker) start(id [16]byte) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.running[id]; ok {
		return false
	}
	t.running[id] = struct{}{}
	return true
}

func (t *runTracker) complete(id [16]byte) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.running[id]; !ok {
		return false
	}
	delete(t.running, id)
	return true
}
