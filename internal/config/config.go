// Package config loads server settings from defaults, an optional .env file,
// NAJDENO_* environment variables, and command-line flags, in that order.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Source kinds.
const (
	SourceFirebase = "firebase"
	SourceRedis    = "redis"
	SourceSQLite   = "sqlite"
	SourceMemory   = "memory"
)

// Config holds runtime settings for the server.
type Config struct {
	Addr    string `env:"ADDR" envDefault:":8080"`
	LogPath string `env:"LOG"`

	Source         string        `env:"SOURCE" envDefault:"firebase"`
	CollectionPath string        `env:"COLLECTION" envDefault:"lost_and_found"`
	PollInterval   time.Duration `env:"POLL_INTERVAL" envDefault:"2s"`

	FirebaseURL         string `env:"FIREBASE_URL"`
	FirebaseCredentials string `env:"FIREBASE_CREDENTIALS"`

	RedisURL string `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`

	DBPath string `env:"DB" envDefault:"najdeno.sqlite3"`

	// SeedFile is a JSON collection export loaded into the memory source.
	SeedFile string `env:"SEED"`

	CORSOrigins []string `env:"CORS_ORIGINS" envSeparator:","`
	ThumbHosts  []string `env:"THUMB_HOSTS" envSeparator:","`
}

// envPrefix is prepended to every variable name.
const envPrefix = "NAJDENO_"

// Load reads dotenvPath (ignored when missing), then the environment, then
// parses args with flags.
func Load(flags *flag.FlagSet, args []string, dotenvPath string) (*Config, error) {
	cfg, err := LoadEnv(dotenvPath)
	if err != nil {
		return nil, err
	}

	cfg.RegisterFlags(flags)
	if err := flags.Parse(args); err != nil {
		return nil, err
	}
	if flags.NArg() > 0 {
		return nil, fmt.Errorf("unexpected argument: %s", flags.Arg(0))
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadEnv returns the defaults overridden by dotenvPath and the environment.
func LoadEnv(dotenvPath string) (*Config, error) {
	if dotenvPath != "" {
		if err := godotenv.Load(dotenvPath); err != nil && !isNotExist(err) {
			return nil, fmt.Errorf("loading %s: %w", dotenvPath, err)
		}
	}

	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: envPrefix}); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	return cfg, nil
}

// RegisterFlags binds flags to cfg using its current values as defaults.
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.Addr, "addr", c.Addr, "")
	fs.StringVar(&c.Addr, "a", c.Addr, "")

	fs.StringVar(&c.LogPath, "log", c.LogPath, "")
	fs.StringVar(&c.LogPath, "l", c.LogPath, "")

	fs.StringVar(&c.Source, "source", c.Source, "")
	fs.StringVar(&c.Source, "s", c.Source, "")

	fs.StringVar(&c.DBPath, "db", c.DBPath, "")
	fs.StringVar(&c.DBPath, "d", c.DBPath, "")

	fs.StringVar(&c.CollectionPath, "collection", c.CollectionPath, "")
	fs.DurationVar(&c.PollInterval, "poll", c.PollInterval, "")
	fs.StringVar(&c.FirebaseURL, "firebase-url", c.FirebaseURL, "")
	fs.StringVar(&c.FirebaseCredentials, "firebase-credentials", c.FirebaseCredentials, "")
	fs.StringVar(&c.RedisURL, "redis-url", c.RedisURL, "")
	fs.StringVar(&c.SeedFile, "seed", c.SeedFile, "")
	fs.Func("cors-origins", "", func(s string) error {
		c.CORSOrigins = splitList(s)
		return nil
	})
	fs.Func("thumb-hosts", "", func(s string) error {
		c.ThumbHosts = splitList(s)
		return nil
	})
}

// Validate checks the settings the selected source needs.
func (c *Config) Validate() error {
	switch c.Source {
	case SourceFirebase:
		if c.FirebaseURL == "" {
			return errors.New("firebase source requires a database URL (-firebase-url or NAJDENO_FIREBASE_URL)")
		}
	case SourceRedis:
		if c.RedisURL == "" {
			return errors.New("redis source requires a URL (-redis-url or NAJDENO_REDIS_URL)")
		}
	case SourceSQLite:
		if c.DBPath == "" {
			return errors.New("sqlite source requires a database path (-db or NAJDENO_DB)")
		}
	case SourceMemory:
	default:
		return fmt.Errorf("unknown source %q (want firebase, redis, sqlite, or memory)", c.Source)
	}

	if c.CollectionPath == "" {
		return errors.New("collection path must not be empty")
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive, got %s", c.PollInterval)
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func isNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
