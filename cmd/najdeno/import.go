package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/erazemk/najdeno/internal/config"
)

const importUsage = `Usage: najdeno import [flags] <export.json>

Loads a collection export ({"<id>": {record}, ...}) into a SQLite database
or a Redis hash. Existing items with the same ids are overwritten.

Flags:
  -s, -source <kind>   sqlite or redis (default: sqlite)
  -d, -db <path>       SQLite database path (default: najdeno.sqlite3)
  -redis-url <url>     Redis URL (default: redis://localhost:6379/0)
  -collection <name>   Redis key (default: lost_and_found)
  -replace             remove items missing from the export
`

func cmdImport(args []string) int {
	cfg, err := config.LoadEnv(".env")
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	// Import defaults to sqlite unless the environment picks a source.
	if os.Getenv("NAJDENO_SOURCE") == "" {
		cfg.Source = config.SourceSQLite
	}

	fs := flag.NewFlagSet("import", flag.ContinueOnError)
	fs.Usage = func() { fmt.Fprint(os.Stdout, importUsage) }
	cfg.RegisterFlags(fs)
	replace := fs.Bool("replace", false, "")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 1
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return 1
	}

	closeLog, err := setupLogger(cfg.LogPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	defer closeLog()

	records, err := readExport(fs.Arg(0))
	if err != nil {
		slog.Error("failed to read export", "file", fs.Arg(0), "error", err)
		return 1
	}

	importer, closeImporter, err := openImporter(cfg)
	if err != nil {
		slog.Error("failed to open collection", "error", err)
		return 1
	}
	defer closeImporter()

	n, err := importer.Import(context.Background(), records, *replace)
	if err != nil {
		slog.Error("import failed", "error", err)
		return 1
	}

	slog.Info("import finished", "source", cfg.Source, "items", n, "replace", *replace)
	return 0
}

// readExport reads a collection export. A JSON null is an empty export.
func readExport(path string) (map[string]json.RawMessage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var records map[string]json.RawMessage
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decoding export: %w", err)
	}
	return records, nil
}
