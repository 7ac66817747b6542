package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore records verdicts in a local SQLite file.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens the database at dsn (a path or ":memory:").
func OpenSQLite(ctx context.Context, dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite: %w", err)
	}
	// SQLite allows a single writer; ":memory:" databases are per connection.
	db.SetMaxOpenConns(1)

	s, err := NewSQLiteStore(ctx, db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func NewSQLiteStore(ctx context.Context, db *sql.DB) (*SQLiteStore, error) {
	s := &SQLiteStore{db: db}
	if err := s.migrate(ctx); err != nil {
		return nil, fmt.Errorf("creating verdicts table: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) migrate(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS verdicts (
		analysis_id TEXT PRIMARY KEY,
		target TEXT NOT NULL,
		target_sha256 TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		details TEXT NOT NULL,
		isolation_method TEXT NOT NULL,
		level TEXT NOT NULL,
		score INTEGER NOT NULL,
		confidence REAL NOT NULL,
		indicators JSON NOT NULL,
		verdict_time INTEGER NOT NULL,
		recorded_at TEXT NOT NULL
	);`
	_, err := s.db.ExecContext(ctx, query)
	return err
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) RecordVerdict(ctx context.Context, rec *VerdictRecord) error {
	indicators, err := json.Marshal(rec.Indicators)
	if err != nil {
		return fmt.Errorf("encoding indicators: %w", err)
	}

	query := `INSERT INTO verdicts (
		analysis_id, target, target_sha256, status, details, isolation_method,
		level, score, confidence, indicators, verdict_time, recorded_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = s.db.ExecContext(ctx, query,
		rec.AnalysisID, rec.Target, rec.TargetSHA256, rec.Status, rec.Details, rec.IsolationMethod,
		rec.Level, rec.Score, rec.Confidence, string(indicators), rec.Timestamp,
		rec.RecordedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("inserting verdict: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetVerdict(ctx context.Context, analysisID string) (*VerdictRecord, error) {
	query := `
		SELECT analysis_id, target, target_sha256, status, details, isolation_method,
			level, score, confidence, indicators, verdict_time, recorded_at
		FROM verdicts
		WHERE analysis_id = ?`

	var (
		rec        VerdictRecord
		indicators string
		recordedAt string
	)
	err := s.db.QueryRowContext(ctx, query, analysisID).Scan(
		&rec.AnalysisID, &rec.Target, &rec.TargetSHA256, &rec.Status, &rec.Details, &rec.IsolationMethod,
		&rec.Level, &rec.Score, &rec.Confidence, &indicators, &rec.Timestamp, &recordedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("analysis %s: %w", analysisID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying verdict %s: %w", analysisID, err)
	}

	if err := json.Unmarshal([]byte(indicators), &rec.Indicators); err != nil {
		return nil, fmt.Errorf("decoding indicators: %w", err)
	}
	if t, err := time.Parse(time.RFC3339Nano, recordedAt); err == nil {
		rec.RecordedAt = t
	}
	return &rec, nil
}

// Prune keeps the newest keep rows by insertion order.
func (s *SQLiteStore) Prune(ctx context.Context, keep int) (int64, error) {
	query := `
		DELETE FROM verdicts
		WHERE rowid NOT IN (SELECT rowid FROM verdicts ORDER BY rowid DESC LIMIT ?)`

	res, err := s.db.ExecContext(ctx, query, keep)
	if err != nil {
		return 0, fmt.Errorf("pruning verdicts: %w", err)
	}
	return res.RowsAffected()
}
