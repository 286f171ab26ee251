package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hoplog/brewharvest/internal/progress"
)

// RunnerConfig controls run-level behavior.
type RunnerConfig struct {
	// SkipRegions names regions to pass over, matched against the
	// normalized region name. Used to resume an interrupted run without
	// re-spending quota on completed regions.
	SkipRegions []string
}

// Runner drives one ingestion run: discover regions once, then for each
// region scrape brewer IDs, fetch and parse every catalog, and persist
// to both sinks. Regions are processed strictly one after another; a
// region-level failure aborts that region only.
type Runner struct {
	discoverer RegionDiscoverer
	scraper    BrewerScraper
	fetcher    BeerFetcher
	parse      ParseFunc
	backup     BackupSink
	store      DocumentStore
	notifier   Notifier
	clock      Clock
	emitter    progress.Emitter
	skip       map[string]struct{}
	logger     *zap.Logger
}

// NewRunner constructs a Runner. The notifier and emitter may be nil;
// everything else is required.
func NewRunner(
	discoverer RegionDiscoverer,
	scraper BrewerScraper,
	fetcher BeerFetcher,
	parse ParseFunc,
	backup BackupSink,
	store DocumentStore,
	notifier Notifier,
	clk Clock,
	emitter progress.Emitter,
	cfg RunnerConfig,
	logger *zap.Logger,
) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	skip := make(map[string]struct{}, len(cfg.SkipRegions))
	for _, name := range cfg.SkipRegions {
		skip[name] = struct{}{}
	}
	return &Runner{
		discoverer: discoverer,
		scraper:    scraper,
		fetcher:    fetcher,
		parse:      parse,
		backup:     backup,
		store:      store,
		notifier:   notifier,
		clock:      clk,
		emitter:    emitter,
		skip:       skip,
		logger:     logger,
	}
}

// Run executes one full ingestion pass. The returned error is non-nil
// only when discovery fails or the context is canceled; per-region and
// per-brewer failures are absorbed into the summary.
func (r *Runner) Run(ctx context.Context, runID uuid.UUID) (RunSummary, error) {
	start := r.clock.Now()
	rid := progress.UUIDToBytes(runID)
	summary := RunSummary{RunID: runID.String()}

	r.emit(progress.Event{RunID: rid, TS: start, Stage: progress.StageRunStart})

	regions, err := r.discoverer.DiscoverRegions(ctx)
	if err != nil {
		summary.Elapsed = r.clock.Now().Sub(start)
		r.emit(progress.Event{
			RunID: rid,
			TS:    r.clock.Now(),
			Stage: progress.StageRunError,
			Dur:   summary.Elapsed,
			Note:  err.Error(),
		})
		return summary, err
	}

	r.logger.Info("starting ingestion run",
		zap.String("run_id", summary.RunID),
		zap.Int("regions", len(regions)),
	)

	for _, region := range regions {
		if ctx.Err() != nil {
			summary.Elapsed = r.clock.Now().Sub(start)
			r.emit(progress.Event{
				RunID: rid,
				TS:    r.clock.Now(),
				Stage: progress.StageRunError,
				Dur:   summary.Elapsed,
				Note:  "run interrupted",
			})
			return summary, ctx.Err()
		}

		if _, ok := r.skip[region.Name]; ok {
			summary.RegionsSkipped++
			summary.Reports = append(summary.Reports, RegionReport{Region: region, Skipped: true})
			r.logger.Info("skipping region", zap.String("region", region.Name))
			continue
		}

		report := r.processRegion(ctx, rid, region)
		summary.Reports = append(summary.Reports, report)
		r.tally(&summary, report)
		r.notifyRegion(ctx, summary.RunID, report)
	}

	summary.Elapsed = r.clock.Now().Sub(start)
	r.emit(progress.Event{
		RunID:   rid,
		TS:      r.clock.Now(),
		Stage:   progress.StageRunDone,
		Dur:     summary.Elapsed,
		Records: int64(summary.Beers),
	})
	r.logger.Info("ingestion run complete",
		zap.String("run_id", summary.RunID),
		zap.Int("regions_ok", summary.RegionsOK),
		zap.Int("regions_failed", summary.RegionsFailed),
		zap.Int("regions_skipped", summary.RegionsSkipped),
		zap.Int("brewers", summary.Brewers),
		zap.Int("beers", summary.Beers),
		zap.Int("fetch_failures", summary.FetchFailures),
		zap.Duration("elapsed", summary.Elapsed),
	)
	return summary, nil
}

func (r *Runner) processRegion(ctx context.Context, rid [16]byte, region Region) RegionReport {
	start := r.clock.Now()
	report := RegionReport{Region: region}

	r.emit(progress.Event{RunID: rid, TS: start, Stage: progress.StageRegionStart, Region: region.Name})

	brewerIDs, err := r.scraper.ScrapeBrewerIDs(ctx, region)
	if err != nil {
		return r.failRegion(rid, report, start, err)
	}
	report.Brewers = len(brewerIDs)

	records, failures := r.fetchRegion(ctx, rid, region, brewerIDs)
	report.Failures = failures
	report.Beers = len(records)

	if err := ctx.Err(); err != nil {
		return r.failRegion(rid, report, start, err)
	}

	backupURI, err := r.persistRegion(ctx, region, records)
	report.BackupURI = backupURI
	if err != nil {
		return r.failRegion(rid, report, start, err)
	}

	report.Elapsed = r.clock.Now().Sub(start)
	r.emit(progress.Event{
		RunID:   rid,
		TS:      r.clock.Now(),
		Stage:   progress.StageRegionDone,
		Region:  region.Name,
		Records: int64(report.Beers),
		Dur:     report.Elapsed,
	})
	r.logger.Info("region complete",
		zap.String("region", region.Name),
		zap.Int("brewers", report.Brewers),
		zap.Int("beers", report.Beers),
		zap.Int("fetch_failures", len(report.Failures)),
		zap.Duration("elapsed", report.Elapsed),
	)
	return report
}

// fetchRegion pulls every brewer catalog for the region. Fetch and parse
// failures are absorbed at brewer granularity: they contribute zero
// records and leave the remaining brewers untouched.
func (r *Runner) fetchRegion(ctx context.Context, rid [16]byte, region Region, brewerIDs []string) ([]BeerRecord, []FetchFailure) {
	var (
		records  []BeerRecord
		failures []FetchFailure
	)
	for res := range r.fetcher.FetchAll(ctx, brewerIDs) {
		if res.Err != nil {
			failures = append(failures, FetchFailure{BrewerID: res.BrewerID, Err: res.Err})
			r.emitFetch(rid, region.Name, res.BrewerID, 0, res.Err)
			continue
		}
		parsed, err := r.parse(res.Payload)
		if err != nil {
			failures = append(failures, FetchFailure{BrewerID: res.BrewerID, Err: err})
			r.logger.Warn("brewer response unparseable",
				zap.String("region", region.Name),
				zap.String("brewer_id", res.BrewerID),
				zap.Error(err),
			)
			r.emitFetch(rid, region.Name, res.BrewerID, 0, err)
			continue
		}
		records = append(records, parsed...)
		r.emitFetch(rid, region.Name, res.BrewerID, len(parsed), nil)
	}
	return records, failures
}

// persistRegion writes both sinks independently. One sink failing is
// logged and tolerated because the other still holds the data; losing
// both means the region's records are gone and fails the region.
func (r *Runner) persistRegion(ctx context.Context, region Region, records []BeerRecord) (string, error) {
	backupURI, backupErr := r.backup.WriteRegion(ctx, region.Name, records)
	if backupErr != nil {
		r.logger.Error("backup write failed",
			zap.String("region", region.Name),
			zap.Error(backupErr),
		)
	}

	inserted, storeErr := r.store.InsertBeers(ctx, records)
	if storeErr != nil {
		r.logger.Error("document store insert failed",
			zap.String("region", region.Name),
			zap.Error(storeErr),
		)
	} else if inserted > 0 {
		r.logger.Debug("documents inserted",
			zap.String("region", region.Name),
			zap.Int64("count", inserted),
		)
	}

	if backupErr != nil && storeErr != nil {
		return backupURI, errors.Join(backupErr, storeErr)
	}
	return backupURI, nil
}

func (r *Runner) failRegion(rid [16]byte, report RegionReport, start time.Time, err error) RegionReport {
	report.Err = err
	report.Elapsed = r.clock.Now().Sub(start)
	r.emit(progress.Event{
		RunID:  rid,
		TS:     r.clock.Now(),
		Stage:  progress.StageRegionError,
		Region: report.Region.Name,
		Dur:    report.Elapsed,
		Note:   err.Error(),
	})
	r.logger.Error("region failed",
		zap.String("region", report.Region.Name),
		zap.Error(err),
	)
	return report
}

func (r *Runner) tally(summary *RunSummary, report RegionReport) {
	if report.Err != nil {
		summary.RegionsFailed++
	} else {
		summary.RegionsOK++
	}
	summary.Brewers += report.Brewers
	summary.Beers += report.Beers
	summary.FetchFailures += len(report.Failures)
}

func (r *Runner) notifyRegion(ctx context.Context, runID string, report RegionReport) {
	if r.notifier == nil || report.Err != nil {
		return
	}
	if err := r.notifier.RegionCompleted(ctx, runID, report); err != nil {
		r.logger.Warn("region notification failed",
			zap.String("region", report.Region.Name),
			zap.Error(err),
		)
	}
}

func (r *Runner) emit(evt progress.Event) {
	if r.emitter == nil {
		return
	}
	r.emitter.Emit(evt)
}

func (r *Runner) emitFetch(rid [16]byte, region, brewerID string, count int, err error) {
	evt := progress.Event{
		RunID:       rid,
		TS:          r.clock.Now(),
		Stage:       progress.StageFetchDone,
		Region:      region,
		BrewerID:    brewerID,
		Records:     int64(count),
		StatusClass: fetchStatusClass(err),
	}
	if err != nil {
		evt.Note = err.Error()
	}
	r.emit(evt)
}

// fetchStatusClass maps a fetch outcome to the coarse HTTP grouping used
// by progress events. Parse failures ride on a successful response.
func fetchStatusClass(err error) progress.StatusClass {
	if err == nil {
		return progress.Status2xx
	}
	var failure *TransportFailure
	if errors.As(err, &failure) {
		if failure.Status != 0 {
			return progress.ClassifyStatus(failure.Status)
		}
		return progress.StatusOther
	}
	return progress.Status2xx
}
