package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

const postgresSchema = `
	CREATE TABLE IF NOT EXISTS verdicts (
		analysis_id      TEXT PRIMARY KEY,
		target           TEXT NOT NULL,
		target_sha256    TEXT NOT NULL DEFAULT '',
		status           TEXT NOT NULL,
		details          TEXT NOT NULL,
		isolation_method TEXT NOT NULL,
		level            TEXT NOT NULL,
		score            INTEGER NOT NULL,
		confidence       DOUBLE PRECISION NOT NULL,
		indicators       TEXT[] NOT NULL,
		verdict_time     BIGINT NOT NULL,
		recorded_at      TIMESTAMPTZ NOT NULL
	)`

// PostgresStore records verdicts in PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgres creates a connection pool and ensures the schema exists.
func NewPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parsing database DSN: %w", err)
	}

	// One verdict per process; a small pool is plenty.
	config.MaxConns = 2
	config.MinConns = 0
	config.MaxConnLifetime = 5 * time.Minute
	config.MaxConnIdleTime = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("creating verdicts table: %w", err)
	}

	log.Debug().Msg("connected to PostgreSQL")
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// RecordVerdict inserts rec into the audit log.
func (s *PostgresStore) RecordVerdict(ctx context.Context, rec *VerdictRecord) error {
	query := `
		INSERT INTO verdicts (analysis_id, target, target_sha256, status, details,
			isolation_method, level, score, confidence, indicators, verdict_time, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := s.pool.Exec(ctx, query,
		rec.AnalysisID, rec.Target, rec.TargetSHA256, rec.Status, rec.Details,
		rec.IsolationMethod, rec.Level, rec.Score, rec.Confidence,
		rec.Indicators, rec.Timestamp, rec.RecordedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting verdict: %w", err)
	}
	return nil
}

// GetVerdict retrieves a single verdict by analysis id.
func (s *PostgresStore) GetVerdict(ctx context.Context, analysisID string) (*VerdictRecord, error) {
	query := `
		SELECT analysis_id, target, target_sha256, status, details,
			isolation_method, level, score, confidence, indicators, verdict_time, recorded_at
		FROM verdicts WHERE analysis_id = $1`

	var rec VerdictRecord
	err := s.pool.QueryRow(ctx, query, analysisID).Scan(
		&rec.AnalysisID, &rec.Target, &rec.TargetSHA256, &rec.Status, &rec.Details,
		&rec.IsolationMethod, &rec.Level, &rec.Score, &rec.Confidence,
		&rec.Indicators, &rec.Timestamp, &rec.RecordedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("analysis %s: %w", analysisID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying verdict %s: %w", analysisID, err)
	}
	return &rec, nil
}

// Prune keeps the newest keep rows by recorded_at.
func (s *PostgresStore) Prune(ctx context.Context, keep int) (int64, error) {
	query := `
		DELETE FROM verdicts
		WHERE analysis_id NOT IN (
			SELECT analysis_id FROM verdicts ORDER BY recorded_at DESC, analysis_id DESC LIMIT $1)`

	tag, err := s.pool.Exec(ctx, query, keep)
	if err != nil {
		return 0, fmt.Errorf("pruning verdicts: %w", err)
	}
	return tag.RowsAffected(), nil
}
