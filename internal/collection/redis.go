package collection

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/erazemk/najdeno/internal/model"
)

// Redis keeps the collection in a hash (field = item ID, value = record JSON)
// and announces changes on the "<key>:changed" pub/sub channel.
type Redis struct {
	rdb    *redis.Client
	key    string
	logger *slog.Logger
}

// NewRedis creates a source over the hash at key.
func NewRedis(rdb *redis.Client, key string, logger *slog.Logger) *Redis {
	if key == "" {
		key = DefaultPath
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Redis{rdb: rdb, key: key, logger: logger}
}

// ChangeChannel returns the pub/sub channel writers publish to after a
// change.
func (r *Redis) ChangeChannel() string {
	return r.key + ":changed"
}

// FetchOnce reads the whole hash.
func (r *Redis) FetchOnce(ctx context.Context) (model.Snapshot, error) {
	fields, err := r.rdb.HGetAll(ctx, r.key).Result()
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", r.key, err)
	}
	return decode(r.logger, "redis", rawRecords(fields)), nil
}

// Subscribe delivers the whole hash now and after every change
// announcement. Announcements carry no payload; each one triggers a full
// read.
func (r *Redis) Subscribe(ctx context.Context, onChange func(model.Snapshot)) error {
	sub := r.rdb.Subscribe(ctx, r.ChangeChannel())
	defer sub.Close()

	// Wait for the subscription to be confirmed so no change is missed
	// between the first read and the first announcement.
	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribing to %s: %w", r.ChangeChannel(), err)
	}

	snap, err := r.FetchOnce(ctx)
	if err != nil {
		return err
	}
	onChange(snap)

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case _, ok := <-ch:
			if !ok {
				return fmt.Errorf("change channel %s closed", r.ChangeChannel())
			}
			snap, err := r.FetchOnce(ctx)
			if err != nil {
				return err
			}
			onChange(snap)
		}
	}
}

// Import writes records into the hash and announces the change.
func (r *Redis) Import(ctx context.Context, records map[string]json.RawMessage, replace bool) (int, error) {
	values := make(map[string]any, len(records))
	for id, record := range records {
		if id == "" || !json.Valid(record) {
			return 0, fmt.Errorf("item %q: invalid record", id)
		}
		values[id] = string(record)
	}

	_, err := r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if replace {
			pipe.Del(ctx, r.key)
		}
		if len(values) > 0 {
			pipe.HSet(ctx, r.key, values)
		}
		pipe.Publish(ctx, r.ChangeChannel(), "import")
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("importing into %s: %w", r.key, err)
	}
	return len(values), nil
}

// rawRecords converts hash fields to raw records. An empty hash is an empty
// collection.
func rawRecords(fields map[string]string) map[string]json.RawMessage {
	if len(fields) == 0 {
		return nil
	}
	raw := make(map[string]json.RawMessage, len(fields))
	for id, v := range fields {
		raw[id] = json.RawMessage(v)
	}
	return raw
}
