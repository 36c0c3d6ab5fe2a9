// Package store persists journey results to PostgreSQL so runs can be
// compared over time.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/sauce-e2e/internal/reporting"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// DBPool abstracts *pgxpool.Pool so tests can swap in pgxmock.
type DBPool interface {
	Ping(ctx context.Context) error
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Close()
}

const (
	sqlCreateRuns = `
        CREATE TABLE IF NOT EXISTS test_runs (
            id         UUID PRIMARY KEY,
            browser    TEXT NOT NULL,
            started_at TIMESTAMPTZ NOT NULL
        );`
	sqlCreateResults = `
        CREATE TABLE IF NOT EXISTS journey_results (
            id          UUID PRIMARY KEY,
            run_id      UUID NOT NULL REFERENCES test_runs (id),
            journey     TEXT NOT NULL,
            status      TEXT NOT NULL,
            message     TEXT NOT NULL DEFAULT '',
            page        TEXT NOT NULL DEFAULT '',
            locator     TEXT NOT NULL DEFAULT '',
            url         TEXT NOT NULL DEFAULT '',
            screenshot  TEXT NOT NULL DEFAULT '',
            steps       JSONB NOT NULL DEFAULT '[]',
            started_at  TIMESTAMPTZ NOT NULL,
            duration_ms BIGINT NOT NULL
        );`
	sqlInsertRun = `
        INSERT INTO test_runs (id, browser, started_at)
        VALUES ($1, $2, $3)
        ON CONFLICT (id) DO NOTHING;`
	sqlInsertResult = `
        INSERT INTO journey_results (id, run_id, journey, status, message, page, locator, url, screenshot, steps, started_at, duration_ms)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12);`
	sqlRecentResults = `
        SELECT r.id, r.run_id, r.journey, t.browser, r.status, r.message, r.page, r.url, r.started_at, r.duration_ms
        FROM journey_results r JOIN test_runs t ON t.id = r.run_id
        WHERE r.journey = $1
        ORDER BY r.started_at DESC
        LIMIT $2;`
)

// Store writes results to PostgreSQL. It implements reporting.Sink.
type Store struct {
	pool DBPool
	log  *zap.Logger
}

var _ reporting.Sink = (*Store)(nil)

// Connect opens a pool for url and wraps it in a Store.
func Connect(ctx context.Context, url string, logger *zap.Logger) (*Store, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	s, err := New(ctx, pool, logger)
	if err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// New creates a new store instance and verifies the connection.
func New(ctx context.Context, pool DBPool, logger *zap.Logger) (*Store, error) {
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &Store{
		pool: pool,
		log:  logger.Named("store"),
	}, nil
}

// Migrate creates the result tables if they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range []string{sqlCreateRuns, sqlCreateResults} {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to migrate schema: %w", err)
		}
	}
	return nil
}

// Record stores the run, if new, and the result in one transaction.
func (s *Store) Record(ctx context.Context, r reporting.Result) error {
	steps, err := json.Marshal(stepsOrEmpty(r.Steps))
	if err != nil {
		return fmt.Errorf("failed to encode steps for %s: %w", r.Journey, err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if _, err := tx.Exec(ctx, sqlInsertRun, r.RunID, r.Browser, r.StartedAt.UTC()); err != nil {
		s.rollback(ctx, tx)
		return fmt.Errorf("failed to insert run %s: %w", r.RunID, err)
	}
	if _, err := tx.Exec(ctx, sqlInsertResult,
		r.ID, r.RunID, r.Journey, string(r.Status), r.Message, r.Page, r.Locator, r.URL, r.Screenshot,
		steps, r.StartedAt.UTC(), r.Duration.Milliseconds(),
	); err != nil {
		s.rollback(ctx, tx)
		return fmt.Errorf("failed to insert result for %s: %w", r.Journey, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	s.log.Debug("Result persisted.", zap.String("journey", r.Journey), zap.String("status", string(r.Status)))
	return nil
}

func (s *Store) rollback(ctx context.Context, tx pgx.Tx) {
	if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		s.log.Error("Failed to rollback transaction", zap.Error(err))
	}
}

func stepsOrEmpty(steps []reporting.Step) []reporting.Step {
	if steps == nil {
		return []reporting.Step{}
	}
	return steps
}

// Recent returns the latest results of a journey, newest first.
func (s *Store) Recent(ctx context.Context, journey string, limit int) ([]reporting.Result, error) {
	rows, err := s.pool.Query(ctx, sqlRecentResults, journey, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query results for %s: %w", journey, err)
	}
	defer rows.Close()

	var out []reporting.Result
	for rows.Next() {
		var (
			r          reporting.Result
			status     string
			durationMS int64
		)
		if err := rows.Scan(&r.ID, &r.RunID, &r.Journey, &r.Browser, &status, &r.Message, &r.Page, &r.URL, &r.StartedAt, &durationMS); err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		r.Status = reporting.Status(status)
		r.Duration = time.Duration(durationMS) * time.Millisecond
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read results: %w", err)
	}
	return out, nil
}

// Close releases the pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}
