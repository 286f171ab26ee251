package sinks

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hoplog/brewharvest/internal/progress"
)

// Run and region row statuses.
const (
	statusRunning = "running"
	statusOK      = "ok"
	statusError   = "error"
)

// PostgresConfig controls the connection pool behind the Postgres sink.
type PostgresConfig struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type pgxPool interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Query(context.Context, string, ...any) (pgx.Rows, error)
	Close()
}

// PostgresSink persists progress events as run and region rows, giving each
// run a durable, queryable trail. The log sink is the human-readable record
// and the Prometheus sink the live metrics; this sink is what a resumed run
// reads to skip regions that already completed.
//
// Assumed schema:
//
//	CREATE TABLE harvest_runs (
//	    run_id      uuid primary key,
//	    started_at  timestamptz not null,
//	    finished_at timestamptz,
//	    status      text not null,
//	    note        text
//	);
//
//	CREATE TABLE harvest_regions (
//	    run_id      uuid not null,
//	    region      text not null,
//	    started_at  timestamptz,
//	    finished_at timestamptz,
//	    status      text not null default 'running',
//	    beers       bigint not null default 0,
//	    failures    bigint not null default 0,
//	    note        text,
//	    primary key (run_id, region)
//	);
type PostgresSink struct {
	pool pgxPool
}

// NewPostgresSink creates a Postgres-backed sink using the provided config.
func NewPostgresSink(ctx context.Context, cfg PostgresConfig) (*PostgresSink, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("store.dsn is required")
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &PostgresSink{pool: pool}, nil
}

// NewPostgresSinkWithPool constructs a sink from an existing pool (primarily
// for testing).
func NewPostgresSinkWithPool(pool pgxPool) (*PostgresSink, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	return &PostgresSink{pool: pool}, nil
}

// Consume applies one batch of events in order. The first write error aborts
// the batch; the hub logs it and moves on.
func (s *PostgresSink) Consume(ctx context.Context, batch []progress.Event) error {
	if s == nil || s.pool == nil {
		return fmt.Errorf("progress sink is not configured")
	}
	for _, evt := range batch {
		if err := s.apply(ctx, evt); err != nil {
			return err
		}
	}
	return nil
}

func (s *PostgresSink) apply(ctx context.Context, evt progress.Event) error {
	runID := evt.RunUUID()
	switch evt.Stage {
	case progress.StageRunStart:
		_, err := s.pool.Exec(ctx, `
			INSERT INTO harvest_runs (run_id, started_at, status)
			VALUES ($1, $2, $3)
			ON CONFLICT (run_id) DO NOTHING;`,
			runID, evt.TS, statusRunning)
		if err != nil {
			return fmt.Errorf("record run start: %w", err)
		}
	case progress.StageRunDone:
		_, err := s.pool.Exec(ctx, `
			UPDATE harvest_runs
			SET finished_at = $2, status = $3
			WHERE run_id = $1;`,
			runID, evt.TS, statusOK)
		if err != nil {
			return fmt.Errorf("record run done: %w", err)
		}
	case progress.StageRunError:
		_, err := s.pool.Exec(ctx, `
			UPDATE harvest_runs
			SET finished_at = $2, status = $3, note = $4
			WHERE run_id = $1;`,
			runID, evt.TS, statusError, evt.Note)
		if err != nil {
			return fmt.Errorf("record run error: %w", err)
		}
	case progress.StageRegionStart:
		// Re-running a region resets its counters, matching the backup
		// file overwrite on re-scrape.
		_, err := s.pool.Exec(ctx, `
			INSERT INTO harvest_regions (run_id, region, started_at, status)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (run_id, region) DO UPDATE
			SET started_at = EXCLUDED.started_at, status = EXCLUDED.status,
			    beers = 0, failures = 0, note = NULL;`,
			runID, evt.Region, evt.TS, statusRunning)
		if err != nil {
			return fmt.Errorf("record region start: %w", err)
		}
	case progress.StageRegionDone:
		_, err := s.pool.Exec(ctx, `
			UPDATE harvest_regions
			SET finished_at = $3, status = $4
			WHERE run_id = $1 AND region = $2;`,
			runID, evt.Region, evt.TS, statusOK)
		if err != nil {
			return fmt.Errorf("record region done: %w", err)
		}
	case progress.StageRegionError:
		_, err := s.pool.Exec(ctx, `
			UPDATE harvest_regions
			SET finished_at = $3, status = $4, note = $5
			WHERE run_id = $1 AND region = $2;`,
			runID, evt.Region, evt.TS, statusError, evt.Note)
		if err != nil {
			return fmt.Errorf("record region error: %w", err)
		}
	case progress.StageFetchDone:
		return s.accumulateFetch(ctx, runID, evt)
	}
	return nil
}

func (s *PostgresSink) accumulateFetch(ctx context.Context, runID uuid.UUID, evt progress.Event) error {
	var failDelta int64
	if evt.Note != "" {
		failDelta = 1
	}
	tag, err := s.pool.Exec(ctx, `
		UPDATE harvest_regions
		SET beers = beers + $3, failures = failures + $4
		WHERE run_id = $1 AND region = $2;`,
		runID, evt.Region, evt.Records, failDelta)
	if err != nil {
		return fmt.Errorf("accumulate fetch stats: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// The region row can be missing when its start event was dropped
		// under backpressure.
		_, err = s.pool.Exec(ctx, `
			INSERT INTO harvest_regions (run_id, region, started_at, status, beers, failures)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (run_id, region) DO NOTHING;`,
			runID, evt.Region, evt.TS, statusRunning, evt.Records, failDelta)
		if err != nil {
			return fmt.Errorf("insert fetch stats: %w", err)
		}
	}
	return nil
}

// CompletedRegions returns the names of regions that finished cleanly in the
// given run, for seeding skip_regions on a resume.
func (s *PostgresSink) CompletedRegions(ctx context.Context, runID uuid.UUID) ([]string, error) {
	if s == nil || s.pool == nil {
		return nil, fmt.Errorf("progress sink is not configured")
	}
	rows, err := s.pool.Query(ctx, `
		SELECT region FROM harvest_regions
		WHERE run_id = $1 AND status = $2
		ORDER BY region;`,
		runID, statusOK)
	if err != nil {
		return nil, fmt.Errorf("list completed regions: %w", err)
	}
	defer rows.Close()

	var regions []string
	for rows.Next() {
		var region string
		if err := rows.Scan(&region); err != nil {
			return nil, fmt.Errorf("scan region: %w", err)
		}
		regions = append(regions, region)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate regions: %w", err)
	}
	return regions, nil
}

// Close releases the underlying pool resources.
func (s *PostgresSink) Close(context.Context) error {
	if s == nil || s.pool == nil {
		return nil
	}
	s.pool.Close()
	return nil
}
