package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
)

// GetRevision returns the collection change counter. Every write to the
// items table increments it.
func GetRevision(ctx context.Context, db *sql.DB) (int64, error) {
	var value string
	err := db.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE key = 'revision'`,
	).Scan(&value)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("querying revision: %w", err)
	}

	rev, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing revision %q: %w", value, err)
	}
	return rev, nil
}

// bumpRevision increments the change counter inside tx.
func bumpRevision(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO settings (key, value) VALUES ('revision', '1')
		 ON CONFLICT (key) DO UPDATE SET value = CAST(CAST(value AS INTEGER) + 1 AS TEXT)`,
	)
	if err != nil {
		return fmt.Errorf("bumping revision: %w", err)
	}
	return nil
}
