package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSON(t *testing.T, dir, name string, data map[string]any) string {
	t.Helper()
	if dir == "" {
		dir = t.TempDir()
	}
	if name == "" {
		name = "cfg.json"
	}
	path := filepath.Join(dir, name)
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func Test_parseJSON_SourcesAndPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := writeTempJSON(t, dir, "flag.json", map[string]any{
		"backend":              "postgres",
		"database_dsn":         "postgres://db",
		"session_ttl":          "10s",
		"assistant_per_minute": 0,
		"breaker_open_timeout": 5000000000,
	})

	t.Run("loads from flags", func(t *testing.T) {
		cfg := &Config{}
		cfg.LoadDefaults()
		require.NoError(t, parseJSON(cfg, []string{"-config", path}))

		assert.Equal(t, "postgres", cfg.Backend)
		assert.Equal(t, "postgres://db", cfg.DatabaseDSN)
		assert.Equal(t, 10*time.Second, cfg.SessionTTL)
		assert.Equal(t, 0, cfg.AssistantPerMinute)
		assert.Equal(t, 5*time.Second, cfg.BreakerOpenTimeout)
		assert.Equal(t, "listings", cfg.S3Bucket, "absent keys keep defaults")
	})

	t.Run("no flags → no changes", func(t *testing.T) {
		cfg := &Config{Backend: "defaults", SessionTTL: 42 * time.Second}
		require.NoError(t, parseJSON(cfg, nil))

		assert.Equal(t, "defaults", cfg.Backend)
		assert.Equal(t, 42*time.Second, cfg.SessionTTL)
	})

	t.Run("invalid JSON → error", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte(`{ this is not valid json`), 0o600))

		assert.Error(t, parseJSON(&Config{}, []string{"-c", bad}))
	})

	t.Run("missing file → error", func(t *testing.T) {
		assert.Error(t, parseJSON(&Config{}, []string{"-c", filepath.Join(dir, "nope.json")}))
	})

	t.Run("flags override json", func(t *testing.T) {
		cfg, err := load([]string{"-c", path, "-b", "memory"})
		require.NoError(t, err)
		assert.Equal(t, BackendMemory, cfg.Backend)
		assert.Equal(t, "postgres://db", cfg.DatabaseDSN)
	})
}
