package storage

import (
	"context"
	"errors"
	"fmt"

	"sentinel-sandbox/internal/config"
)

var ErrNotFound = errors.New("verdict not found")

// Store persists audited verdicts.
type Store interface {
	RecordVerdict(ctx context.Context, rec *VerdictRecord) error
	GetVerdict(ctx context.Context, analysisID string) (*VerdictRecord, error)
	// Prune deletes all but the keep most recently recorded verdicts and
	// returns how many were removed.
	Prune(ctx context.Context, keep int) (int64, error)
	Close() error
}

// Open connects to the store selected by cfg.Driver and creates the
// verdicts table if needed.
func Open(ctx context.Context, cfg config.AuditConfig) (Store, error) {
	switch cfg.Driver {
	case "postgres":
		return NewPostgres(ctx, cfg.DSN)
	case "sqlite":
		return OpenSQLite(ctx, cfg.DSN)
	default:
		return nil, fmt.Errorf("unknown audit driver %q", cfg.Driver)
	}
}
