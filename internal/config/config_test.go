package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rdfa.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv(EnvCacheDir, "")
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "1.1", cfg.RDFa.Version)
	assert.True(t, cfg.RDFa.SpacePreserve)
	assert.Equal(t, BackendFile, cfg.Cache.Backend)
	assert.Equal(t, 24*time.Hour, cfg.Cache.DefaultTTL)
	assert.Equal(t, time.Hour, cfg.Cache.RetryTTL)
	assert.Zero(t, cfg.Fetch.Timeout)

	level, err := cfg.SlogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelInfo, level)
}

func TestLoad_File(t *testing.T) {
	t.Setenv(EnvCacheDir, "")
	path := writeConfig(t, `
rdfa:
  version: "1.0"
  space_preserve: false
  embedded_turtle: true
cache:
  dir: /var/cache/rdfa
  backend: badger
  default_ttl: 48h
fetch:
  timeout: 10s
  max_bytes: 1048576
log:
  level: debug
  json: true
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "1.0", cfg.RDFa.Version)
	assert.False(t, cfg.RDFa.SpacePreserve)
	assert.True(t, cfg.RDFa.EmbeddedTurtle)
	assert.Equal(t, "/var/cache/rdfa", cfg.Cache.Dir)
	assert.Equal(t, BackendBadger, cfg.Cache.Backend)
	assert.Equal(t, 48*time.Hour, cfg.Cache.DefaultTTL)
	assert.Equal(t, time.Hour, cfg.Cache.RetryTTL, "unset keys keep their default")
	assert.Equal(t, 10*time.Second, cfg.Fetch.Timeout)
	assert.Equal(t, int64(1<<20), cfg.Fetch.MaxBytes)
	assert.True(t, cfg.Log.JSON)

	level, err := cfg.SlogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)
}

func TestLoad_EnvironmentOverridesCacheDir(t *testing.T) {
	path := writeConfig(t, "cache:\n  dir: /from/file\n")
	t.Setenv(EnvCacheDir, "/from/env")

	cfg, err := Load(path)
	require.NoError(t, err)
	dir, err := cfg.CacheDir()
	require.NoError(t, err)
	assert.Equal(t, "/from/env", dir)
}

func TestLoad_Errors(t *testing.T) {
	t.Setenv(EnvCacheDir, "")
	tests := []struct {
		name        string
		content     string
		expectedErr error
		errContains string
	}{
		{name: "unknown version", content: "rdfa:\n  version: \"2.0\"\n", expectedErr: ErrInvalidConfig},
		{name: "unknown backend", content: "cache:\n  backend: redis\n", expectedErr: ErrInvalidConfig},
		{name: "zero ttl", content: "cache:\n  default_ttl: 0s\n", expectedErr: ErrInvalidConfig},
		{name: "negative size limit", content: "fetch:\n  max_bytes: -1\n", expectedErr: ErrInvalidConfig},
		{name: "bad level", content: "log:\n  level: loud\n", expectedErr: ErrInvalidConfig},
		{name: "invalid yaml", content: "rdfa: [ broken", errContains: "failed to parse config file"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			require.Error(t, err)
			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
			}
			if tt.errContains != "" {
				assert.Contains(t, err.Error(), tt.errContains)
			}
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestCacheDir_Default(t *testing.T) {
	cfg := Default()
	dir, err := cfg.CacheDir()
	if err != nil {
		t.Skipf("no user cache directory on this platform: %v", err)
	}
	assert.Equal(t, DefaultCacheDirName, filepath.Base(dir))
}

func TestExists(t *testing.T) {
	path := writeConfig(t, "{}")
	assert.True(t, Exists(path))
	assert.False(t, Exists(filepath.Join(t.TempDir(), "nope.yaml")))
}
