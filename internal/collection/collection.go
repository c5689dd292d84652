// Package collection provides the item collection sources a projector can
// subscribe to: Firebase Realtime Database, Redis, SQLite, and memory.
package collection

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/erazemk/najdeno/internal/model"
	"github.com/erazemk/najdeno/internal/projector"
)

// DefaultPath is the name of the tracked collection.
const DefaultPath = "lost_and_found"

// DefaultPollInterval is how often polling sources check for changes.
const DefaultPollInterval = 2 * time.Second

// Source is the capability a projector consumes.
type Source = projector.Source

// Importer loads a collection export into a writable source.
type Importer interface {
	Import(ctx context.Context, records map[string]json.RawMessage, replace bool) (int, error)
}

// decode turns raw records into a snapshot, logging records that are not
// objects.
func decode(logger *slog.Logger, source string, raw map[string]json.RawMessage) model.Snapshot {
	snap, skipped, _ := model.DecodeRecords(raw)
	if len(skipped) > 0 {
		logger.Warn("skipped undecodable records", "source", source, "ids", skipped)
	}
	return snap
}

// checkFunc reports the current contents and whether they changed since the
// previous call. The first call always reports a change.
type checkFunc func(ctx context.Context) (model.Snapshot, bool, error)

// watch calls check every interval and delivers each changed snapshot.
func watch(ctx context.Context, interval time.Duration, check checkFunc, onChange func(model.Snapshot)) error {
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	snap, _, err := check(ctx)
	if err != nil {
		return err
	}
	onChange(snap)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			snap, changed, err := check(ctx)
			if err != nil {
				return fmt.Errorf("polling collection: %w", err)
			}
			if changed {
				onChange(snap)
			}
		}
	}
}
