package collection

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	firebase "firebase.google.com/go"
	"firebase.google.com/go/db"
	"google.golang.org/api/option"

	"github.com/erazemk/najdeno/internal/model"
)

// FirebaseConfig locates a collection in a Firebase Realtime Database.
type FirebaseConfig struct {
	DatabaseURL     string
	CredentialsFile string
	Path            string
	PollInterval    time.Duration
}

// Firebase reads the collection from a Firebase Realtime Database. The Admin
// SDK has no listener API, so Subscribe polls with ETags and only delivers
// when the server reports a change.
type Firebase struct {
	ref      *db.Ref
	interval time.Duration
	logger   *slog.Logger
}

// NewFirebase connects to the database described by cfg.
func NewFirebase(ctx context.Context, cfg FirebaseConfig, logger *slog.Logger) (*Firebase, error) {
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("firebase database URL required")
	}
	if cfg.Path == "" {
		cfg.Path = DefaultPath
	}
	if logger == nil {
		logger = slog.Default()
	}

	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{DatabaseURL: cfg.DatabaseURL}, opts...)
	if err != nil {
		return nil, fmt.Errorf("initializing firebase app: %w", err)
	}
	client, err := app.Database(ctx)
	if err != nil {
		return nil, fmt.Errorf("initializing firebase database client: %w", err)
	}

	return &Firebase{
		ref:      client.NewRef(cfg.Path),
		interval: cfg.PollInterval,
		logger:   logger,
	}, nil
}

// FetchOnce reads the whole collection.
func (f *Firebase) FetchOnce(ctx context.Context) (model.Snapshot, error) {
	var raw map[string]json.RawMessage
	if err := f.ref.Get(ctx, &raw); err != nil {
		return nil, fmt.Errorf("reading %s: %w", f.ref.Path, err)
	}
	return decode(f.logger, "firebase", raw), nil
}

// Subscribe delivers the whole collection now and after every change.
func (f *Firebase) Subscribe(ctx context.Context, onChange func(model.Snapshot)) error {
	etag := ""
	check := func(ctx context.Context) (model.Snapshot, bool, error) {
		var raw map[string]json.RawMessage

		if etag == "" {
			tag, err := f.ref.GetWithETag(ctx, &raw)
			if err != nil {
				return nil, false, fmt.Errorf("reading %s: %w", f.ref.Path, err)
			}
			etag = tag
			return decode(f.logger, "firebase", raw), true, nil
		}

		changed, tag, err := f.ref.GetIfChanged(ctx, etag, &raw)
		if err != nil {
			return nil, false, fmt.Errorf("polling %s: %w", f.ref.Path, err)
		}
		if !changed {
			return nil, false, nil
		}
		etag = tag
		return decode(f.logger, "firebase", raw), true, nil
	}
	return watch(ctx, f.interval, check, onChange)
}
