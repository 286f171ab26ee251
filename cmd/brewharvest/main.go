// Command brewharvest runs one full harvest: region discovery, brewer ID
// scraping, paced beer API fetching, and dual-sink persistence (CSV backup
// plus document store). The process exits when the run completes; resume
// after an interruption with run.resume (prior run ID, reads the progress
// trail) or by listing finished regions in run.skip_regions.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	gstorage "cloud.google.com/go/storage"
	"github.com/google/uuid"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/hoplog/brewharvest/internal/api"
	"github.com/hoplog/brewharvest/internal/backup"
	"github.com/hoplog/brewharvest/internal/beerapi"
	"github.com/hoplog/brewharvest/internal/clock/system"
	"github.com/hoplog/brewharvest/internal/config"
	"github.com/hoplog/brewharvest/internal/docstore"
	iduuid "github.com/hoplog/brewharvest/internal/id/uuid"
	"github.com/hoplog/brewharvest/internal/logging"
	"github.com/hoplog/brewharvest/internal/metrics"
	"github.com/hoplog/brewharvest/internal/notify"
	notifypubsub "github.com/hoplog/brewharvest/internal/notify/pubsub"
	"github.com/hoplog/brewharvest/internal/pipeline"
	"github.com/hoplog/brewharvest/internal/progress"
	"github.com/hoplog/brewharvest/internal/progress/sinks"
	"github.com/hoplog/brewharvest/internal/scrape"
	"github.com/hoplog/brewharvest/internal/storage"
	"github.com/hoplog/brewharvest/internal/storage/gcs"
	"github.com/hoplog/brewharvest/internal/storage/local"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfgFile := pflag.String("config", "", "config file (environment variables apply either way)")
	pflag.Parse()

	if err := run(*cfgFile); err != nil {
		fmt.Fprintln(os.Stderr, "brewharvest:", err)
		os.Exit(1)
	}
}

func run(cfgFile string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics.Init()

	runID, err := iduuid.NewGenerator().NewRawID()
	if err != nil {
		return fmt.Errorf("generate run id: %w", err)
	}
	logger = logger.With(zap.String("run_id", runID.String()))

	store, err := buildDocStore(ctx, cfg.Store)
	if err != nil {
		return fmt.Errorf("init document store: %w", err)
	}
	defer store.Close()

	sink, gcsClient, err := buildBackupSink(ctx, cfg.Backup, logger)
	if err != nil {
		return fmt.Errorf("init backup sink: %w", err)
	}
	if gcsClient != nil {
		defer func() { _ = gcsClient.Close() }()
	}

	publisher, err := buildPublisher(ctx, cfg.Notify)
	if err != nil {
		return fmt.Errorf("init notifier: %w", err)
	}
	defer func() {
		if cerr := publisher.Close(); cerr != nil {
			logger.Warn("close notifier", zap.Error(cerr))
		}
	}()
	reporter := notify.NewReporter(publisher)

	promSink, err := sinks.NewPrometheusSink(nil)
	if err != nil {
		return fmt.Errorf("init progress metrics: %w", err)
	}
	hubSinks := []progress.Sink{sinks.NewLogSink(logger), promSink}

	// The durable run trail shares the document store's database; the hub
	// owns the sink and closes its pool on shutdown.
	var trail *sinks.PostgresSink
	if cfg.Store.Provider == "postgres" {
		trail, err = sinks.NewPostgresSink(ctx, sinks.PostgresConfig{
			DSN:      cfg.Store.DSN,
			MaxConns: int32(cfg.Store.MaxConns),
		})
		if err != nil {
			return fmt.Errorf("init progress trail: %w", err)
		}
		hubSinks = append(hubSinks, trail)
	}

	hub := progress.NewHub(progress.Config{
		Buffer:        cfg.Progress.Buffer,
		MaxBatch:      cfg.Progress.Batch,
		FlushInterval: cfg.Progress.FlushInterval,
		Logger:        logger,
	}, hubSinks...)
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if cerr := hub.Close(closeCtx); cerr != nil {
			logger.Warn("close progress hub", zap.Error(cerr))
		}
	}()

	if cfg.Metrics.Addr != "" {
		ops := api.NewServer(cfg.Metrics.Addr, logger, api.ReadyCheck{Name: "docstore", Check: store.Ping})
		go func() {
			if serr := ops.Start(); serr != nil {
				logger.Error("ops server failed", zap.Error(serr))
			}
		}()
		defer func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if cerr := ops.Shutdown(closeCtx); cerr != nil {
				logger.Warn("shutdown ops server", zap.Error(cerr))
			}
		}()
	}

	scrapeCfg := scrape.Config{
		UserAgent:         cfg.Scrape.UserAgent,
		Timeout:           cfg.Scrape.Timeout,
		IndexURL:          cfg.Regions.IndexURL,
		ContainerSelector: cfg.Regions.ContainerSelector,
		LinkLimit:         cfg.Regions.LinkLimit,
		NameOverrides:     cfg.Regions.NameOverrides,
		TableSelector:     cfg.Brewers.TableSelector,
	}

	clk := system.New()
	client := beerapi.NewClient(beerapi.Config{
		Endpoint: cfg.API.Endpoint,
		APIKey:   cfg.API.Key,
		PageSize: cfg.API.PageSize,
		Timeout:  cfg.API.Timeout,
	})
	fetcher := beerapi.NewFetcher(client, beerapi.NewPacer(clk, cfg.API.MinInterval), logger)

	skipRegions, err := resolveSkipRegions(ctx, cfg.Run, trail, logger)
	if err != nil {
		return err
	}

	runner := pipeline.NewRunner(
		scrape.NewRegionScraper(scrapeCfg, logger),
		scrape.NewBrewerScraper(scrapeCfg, logger),
		fetcher,
		beerapi.ParseBeers,
		sink,
		store,
		reporter,
		clk,
		hub,
		pipeline.RunnerConfig{SkipRegions: skipRegions},
		logger,
	)

	summary, err := runner.Run(ctx, runID)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Warn("run interrupted; resume by skipping completed regions",
				zap.Int("regions_ok", summary.RegionsOK),
				zap.Int("regions_failed", summary.RegionsFailed),
			)
			return nil
		}
		return fmt.Errorf("run %s: %w", runID, err)
	}
	return nil
}

// buildDocStore connects the configured document store and verifies it is
// reachable before any scraping starts.
func buildDocStore(ctx context.Context, cfg config.StoreConfig) (docstore.Provider, error) {
	if cfg.Provider == "none" {
		return docstore.NoOpProvider{}, nil
	}
	store, err := docstore.New(ctx, docstore.Config{
		DSN:      cfg.DSN,
		Table:    cfg.Table,
		MaxConns: int32(cfg.MaxConns),
	})
	if err != nil {
		return nil, err
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := store.Ping(pingCtx); err != nil {
		store.Close()
		return nil, err
	}
	return store, nil
}

// buildBackupSink assembles the local CSV store plus an optional GCS
// mirror. The returned client is non-nil only when the mirror is enabled
// and must be closed by the caller after the run.
func buildBackupSink(ctx context.Context, cfg config.BackupConfig, logger *zap.Logger) (*backup.Sink, *gstorage.Client, error) {
	primary, err := local.New(cfg.Dir)
	if err != nil {
		return nil, nil, fmt.Errorf("init local backup dir: %w", err)
	}

	var mirror storage.Provider
	var client *gstorage.Client
	if cfg.Bucket != "" {
		client, err = gstorage.NewClient(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("init gcs client: %w", err)
		}
		mirror, err = gcs.New(ctx, client, cfg.Bucket)
		if err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("init gcs mirror: %w", err)
		}
	}

	sink, err := backup.NewSink(primary, mirror, logger)
	if err != nil {
		return nil, nil, err
	}
	return sink, client, nil
}

func buildPublisher(ctx context.Context, cfg config.NotifyConfig) (notify.Publisher, error) {
	if cfg.Provider == "none" {
		return notify.NoOpPublisher{}, nil
	}
	return notifypubsub.New(ctx, cfg.ProjectID, cfg.Topic)
}

// resolveSkipRegions merges the configured skip list with the regions a
// prior run already finished, read from the progress trail when run.resume
// names that run.
func resolveSkipRegions(ctx context.Context, cfg config.RunConfig, trail *sinks.PostgresSink, logger *zap.Logger) ([]string, error) {
	skip := append([]string(nil), cfg.SkipRegions...)
	if cfg.Resume == "" {
		return skip, nil
	}
	priorID, err := uuid.Parse(cfg.Resume)
	if err != nil {
		return nil, fmt.Errorf("parse run.resume: %w", err)
	}
	completed, err := trail.CompletedRegions(ctx, priorID)
	if err != nil {
		return nil, fmt.Errorf("load completed regions for resume: %w", err)
	}
	logger.Info("resuming prior run",
		zap.String("prior_run_id", cfg.Resume),
		zap.Int("completed_regions", len(completed)),
	)
	return append(skip, completed...), nil
}
