package collection

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/erazemk/najdeno/internal/model"
	"github.com/erazemk/najdeno/internal/store"
)

// SQLite reads the collection from a local SQLite database. Changes are
// detected through the revision counter every write bumps.
type SQLite struct {
	db       *sql.DB
	interval time.Duration
	logger   *slog.Logger
}

// NewSQLite creates a source over an open, migrated database.
func NewSQLite(db *sql.DB, interval time.Duration, logger *slog.Logger) *SQLite {
	if logger == nil {
		logger = slog.Default()
	}
	return &SQLite{db: db, interval: interval, logger: logger}
}

// FetchOnce returns the stored items.
func (s *SQLite) FetchOnce(ctx context.Context) (model.Snapshot, error) {
	snap, skipped, err := store.ListItems(ctx, s.db)
	if err != nil {
		return nil, err
	}
	if len(skipped) > 0 {
		s.logger.Warn("skipped undecodable records", "source", "sqlite", "ids", skipped)
	}
	return snap, nil
}

// Subscribe polls the revision counter and delivers the stored items after
// every change.
func (s *SQLite) Subscribe(ctx context.Context, onChange func(model.Snapshot)) error {
	last := int64(-1)
	check := func(ctx context.Context) (model.Snapshot, bool, error) {
		rev, err := store.GetRevision(ctx, s.db)
		if err != nil {
			return nil, false, err
		}
		if rev == last {
			return nil, false, nil
		}
		snap, err := s.FetchOnce(ctx)
		if err != nil {
			return nil, false, err
		}
		last = rev
		return snap, true, nil
	}
	return watch(ctx, s.interval, check, onChange)
}

// Import stores records, optionally replacing the previous contents.
func (s *SQLite) Import(ctx context.Context, records map[string]json.RawMessage, replace bool) (int, error) {
	n, err := store.ImportRecords(ctx, s.db, records, replace)
	if err != nil {
		return 0, fmt.Errorf("importing into sqlite: %w", err)
	}
	return n, nil
}
