package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"

	"github.com/redis/go-redis/v9"

	"github.com/erazemk/najdeno/internal/collection"
	"github.com/erazemk/najdeno/internal/config"
	"github.com/erazemk/najdeno/internal/db"
	"github.com/erazemk/najdeno/internal/model"
)

// openSource connects the collection selected by cfg. The returned close
// function releases its client.
func openSource(ctx context.Context, cfg *config.Config) (collection.Source, func(), error) {
	logger := slog.Default().With("source", cfg.Source)

	switch cfg.Source {
	case config.SourceFirebase:
		src, err := collection.NewFirebase(ctx, collection.FirebaseConfig{
			DatabaseURL:     cfg.FirebaseURL,
			CredentialsFile: cfg.FirebaseCredentials,
			Path:            cfg.CollectionPath,
			PollInterval:    cfg.PollInterval,
		}, logger)
		if err != nil {
			return nil, nil, err
		}
		return src, func() {}, nil

	case config.SourceRedis:
		rdb, err := openRedis(cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		return collection.NewRedis(rdb, cfg.CollectionPath, logger), func() { rdb.Close() }, nil

	case config.SourceSQLite:
		database, err := openDB(cfg.DBPath)
		if err != nil {
			return nil, nil, err
		}
		return collection.NewSQLite(database, cfg.PollInterval, logger), func() { database.Close() }, nil

	case config.SourceMemory:
		snap, err := loadSeed(cfg.SeedFile)
		if err != nil {
			return nil, nil, err
		}
		return collection.NewMemory(snap), func() {}, nil
	}

	return nil, nil, fmt.Errorf("unknown source %q", cfg.Source)
}

// openImporter connects a writable collection for the import command.
func openImporter(cfg *config.Config) (collection.Importer, func(), error) {
	logger := slog.Default().With("source", cfg.Source)

	switch cfg.Source {
	case config.SourceSQLite:
		database, err := openDB(cfg.DBPath)
		if err != nil {
			return nil, nil, err
		}
		return collection.NewSQLite(database, cfg.PollInterval, logger), func() { database.Close() }, nil

	case config.SourceRedis:
		rdb, err := openRedis(cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		return collection.NewRedis(rdb, cfg.CollectionPath, logger), func() { rdb.Close() }, nil
	}

	return nil, nil, fmt.Errorf("source %q does not support import (want sqlite or redis)", cfg.Source)
}

func openRedis(url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	return redis.NewClient(opts), nil
}

func openDB(path string) (*sql.DB, error) {
	database, err := db.Open(path)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(database); err != nil {
		database.Close()
		return nil, fmt.Errorf("migrating database: %w", err)
	}
	slog.Info("database ready", "path", path)
	return database, nil
}

// loadSeed reads a collection export for the memory source. No path means
// an empty collection.
func loadSeed(path string) (model.Snapshot, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading seed file: %w", err)
	}
	snap, skipped, err := model.DecodeSnapshot(data)
	if err != nil {
		return nil, fmt.Errorf("decoding seed file: %w", err)
	}
	if len(skipped) > 0 {
		slog.Warn("skipped undecodable records", "file", path, "ids", skipped)
	}
	return snap, nil
}
