package config

import (
	"flag"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFlagSet() *flag.FlagSet {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(newFlagSet(), []string{"-source", "memory"}, "")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, SourceMemory, cfg.Source)
	assert.Equal(t, "lost_and_found", cfg.CollectionPath)
	assert.Equal(t, 2*time.Second, cfg.PollInterval)
	assert.Equal(t, "najdeno.sqlite3", cfg.DBPath)
	assert.Empty(t, cfg.ThumbHosts)
}

func TestLoad_EnvOverridesDefaults(t *testing.T) {
	t.Setenv("NAJDENO_SOURCE", "firebase")
	t.Setenv("NAJDENO_FIREBASE_URL", "https://example.firebaseio.com")
	t.Setenv("NAJDENO_POLL_INTERVAL", "500ms")
	t.Setenv("NAJDENO_THUMB_HOSTS", "cdn.example.com,api.telegram.org")

	cfg, err := Load(newFlagSet(), nil, "")
	require.NoError(t, err)

	assert.Equal(t, SourceFirebase, cfg.Source)
	assert.Equal(t, "https://example.firebaseio.com", cfg.FirebaseURL)
	assert.Equal(t, 500*time.Millisecond, cfg.PollInterval)
	assert.Equal(t, []string{"cdn.example.com", "api.telegram.org"}, cfg.ThumbHosts)
}

func TestLoad_FlagsOverrideEnv(t *testing.T) {
	t.Setenv("NAJDENO_ADDR", ":9000")
	t.Setenv("NAJDENO_SOURCE", "sqlite")

	cfg, err := Load(newFlagSet(), []string{"-a", ":7000", "-s", "memory", "-thumb-hosts", " a.com , ,b.com"}, "")
	require.NoError(t, err)

	assert.Equal(t, ":7000", cfg.Addr)
	assert.Equal(t, SourceMemory, cfg.Source)
	assert.Equal(t, []string{"a.com", "b.com"}, cfg.ThumbHosts)
}

func TestLoad_DotenvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("NAJDENO_SOURCE=sqlite\nNAJDENO_DB=/tmp/items.sqlite3\n"), 0o600))
	t.Cleanup(func() {
		os.Unsetenv("NAJDENO_SOURCE")
		os.Unsetenv("NAJDENO_DB")
	})

	cfg, err := Load(newFlagSet(), nil, path)
	require.NoError(t, err)

	assert.Equal(t, SourceSQLite, cfg.Source)
	assert.Equal(t, "/tmp/items.sqlite3", cfg.DBPath)
}

func TestLoad_MissingDotenvIgnored(t *testing.T) {
	_, err := Load(newFlagSet(), []string{"-source", "memory"}, filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
}

func TestLoad_UnexpectedArgument(t *testing.T) {
	_, err := Load(newFlagSet(), []string{"-source", "memory", "extra"}, "")
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"firebase without url", Config{Source: SourceFirebase, CollectionPath: "c", PollInterval: time.Second}, true},
		{"firebase", Config{Source: SourceFirebase, FirebaseURL: "https://x", CollectionPath: "c", PollInterval: time.Second}, false},
		{"redis without url", Config{Source: SourceRedis, CollectionPath: "c", PollInterval: time.Second}, true},
		{"sqlite without path", Config{Source: SourceSQLite, CollectionPath: "c", PollInterval: time.Second}, true},
		{"memory", Config{Source: SourceMemory, CollectionPath: "c", PollInterval: time.Second}, false},
		{"unknown source", Config{Source: "mongo", CollectionPath: "c", PollInterval: time.Second}, true},
		{"empty collection", Config{Source: SourceMemory, PollInterval: time.Second}, true},
		{"zero poll interval", Config{Source: SourceMemory, CollectionPath: "c"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadEnv(t *testing.T) {
	t.Setenv("NAJDENO_SOURCE", "redis")
	t.Setenv("NAJDENO_COLLECTION", "items")

	cfg, err := LoadEnv("")
	require.NoError(t, err)

	assert.Equal(t, SourceRedis, cfg.Source)
	assert.Equal(t, "items", cfg.CollectionPath)
	assert.Equal(t, "redis://localhost:6379/0", cfg.RedisURL)
}
