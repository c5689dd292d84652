package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/justinas/alice"

	"github.com/erazemk/najdeno/internal/api"
	"github.com/erazemk/najdeno/internal/collection"
	"github.com/erazemk/najdeno/internal/config"
	"github.com/erazemk/najdeno/internal/web"
)

const usage = `Usage: najdeno [flags]
       najdeno import [flags] <export.json>

Flags:
  -a, -addr <host:port>        listen address (default: :8080)
  -s, -source <kind>           firebase, redis, sqlite or memory (default: firebase)
  -d, -db <path>               SQLite database path (default: najdeno.sqlite3)
  -l, -log <path>              log file path (default: no file, stdout/stderr only)
  -collection <name>           collection path or key (default: lost_and_found)
  -poll <duration>             change polling interval (default: 2s)
  -firebase-url <url>          Firebase Realtime Database URL
  -firebase-credentials <path> service account key file
  -redis-url <url>             Redis URL (default: redis://localhost:6379/0)
  -seed <path>                 JSON export loaded by the memory source
  -cors-origins <list>         comma-separated origins allowed to call /api
  -thumb-hosts <list>          comma-separated image hosts served as thumbnails
  -h, -help                    show this help and exit

Every flag can also be set with a NAJDENO_* environment variable or a .env file.
`

func main() {
	if len(os.Args) > 1 && os.Args[1] == "import" {
		os.Exit(cmdImport(os.Args[2:]))
	}
	os.Exit(cmdServe(os.Args[1:]))
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.Usage = func() { fmt.Fprint(os.Stdout, usage) }
	return fs
}

func cmdServe(args []string) int {
	cfg, err := config.Load(newFlagSet("najdeno"), args, ".env")
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}

	// INFO/WARN go to stdout, ERROR to stderr, optionally all to a file.
	closeLog, err := setupLogger(cfg.LogPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	source, closeSource, err := openSource(ctx, cfg)
	if err != nil {
		slog.Error("failed to open collection", "source", cfg.Source, "error", err)
		return 1
	}
	defer closeSource()

	// One upstream subscription shared by every live session.
	hub := collection.NewHub(source, collection.WithHubLogger(slog.Default()))
	go hub.Run(ctx)

	apiRouter := api.NewRouter(hub, cfg.CORSOrigins, time.Now)
	webRouter, err := web.NewRouter(hub, web.Options{ThumbHosts: cfg.ThumbHosts})
	if err != nil {
		slog.Error("failed to set up web router", "error", err)
		return 1
	}

	// Combine: API routes take priority, web routes handle the rest.
	mux := http.NewServeMux()
	mux.Handle("/api/", apiRouter)
	mux.Handle("/", webRouter)

	handler := alice.New(web.RecoverPanic, api.LoggingMiddleware, web.SecureHeaders).Then(mux)

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
		// Live sessions end with ctx; Shutdown does not track hijacked
		// connections.
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server forced to shutdown", "error", err)
		}
	}()

	slog.Info("server started", "addr", cfg.Addr, "source", cfg.Source, "collection", cfg.CollectionPath)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		return 1
	}

	slog.Info("server stopped")
	return 0
}
