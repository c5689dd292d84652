package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/erazemk/najdeno/internal/model"
)

// ListRecords returns every stored record, keyed by ID, as written.
func ListRecords(ctx context.Context, db *sql.DB) (map[string]json.RawMessage, error) {
	rows, err := db.QueryContext(ctx, `SELECT id, record FROM items`)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	defer rows.Close()

	records := make(map[string]json.RawMessage)
	for rows.Next() {
		var id, record string
		if err := rows.Scan(&id, &record); err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		records[id] = json.RawMessage(record)
	}
	return records, rows.Err()
}

// ListItems returns the decoded contents of the collection and the IDs of
// records that could not be decoded.
func ListItems(ctx context.Context, db *sql.DB) (model.Snapshot, []string, error) {
	records, err := ListRecords(ctx, db)
	if err != nil {
		return nil, nil, err
	}
	return model.DecodeRecords(records)
}

// PutItem creates or replaces the record stored under id.
func PutItem(ctx context.Context, db *sql.DB, id string, record json.RawMessage) error {
	if id == "" {
		return fmt.Errorf("item id required")
	}
	if !json.Valid(record) {
		return fmt.Errorf("item %q: record is not valid JSON", id)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := putItem(ctx, tx, id, record); err != nil {
		return err
	}
	if err := bumpRevision(ctx, tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing item: %w", err)
	}
	return nil
}

// DeleteItem removes the record stored under id. Deleting a missing record
// is not an error.
func DeleteItem(ctx context.Context, db *sql.DB, id string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting item: %w", err)
	}
	if n, _ := result.RowsAffected(); n > 0 {
		if err := bumpRevision(ctx, tx); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing item deletion: %w", err)
	}
	return nil
}

// ImportRecords stores all records in one transaction. With replace set, the
// previous contents of the collection are removed first. Returns the number
// of records written.
func ImportRecords(ctx context.Context, db *sql.DB, records map[string]json.RawMessage, replace bool) (int, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if replace {
		if _, err := tx.ExecContext(ctx, `DELETE FROM items`); err != nil {
			return 0, fmt.Errorf("clearing items: %w", err)
		}
	}

	n := 0
	for id, record := range records {
		if id == "" || !json.Valid(record) {
			return 0, fmt.Errorf("item %q: invalid record", id)
		}
		if err := putItem(ctx, tx, id, record); err != nil {
			return 0, err
		}
		n++
	}

	if err := bumpRevision(ctx, tx); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing import: %w", err)
	}
	return n, nil
}

func putItem(ctx context.Context, tx *sql.Tx, id string, record json.RawMessage) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO items (id, record) VALUES (?, ?)
		 ON CONFLICT (id) DO UPDATE SET record = excluded.record, updated_at = CURRENT_TIMESTAMP`,
		id, string(record),
	)
	if err != nil {
		return fmt.Errorf("storing item %q: %w", id, err)
	}
	return nil
}
