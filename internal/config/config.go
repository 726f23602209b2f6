// Package config loads the processor and cache settings of the rdfa command.
package config

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// EnvCacheDir overrides cache.dir when set
const EnvCacheDir = "RDFA_CACHE_DIR"

// DefaultCacheDirName is the directory created under the user cache directory
const DefaultCacheDirName = "rdfa-cache"

// Cache backends
const (
	BackendFile   = "file"
	BackendBadger = "badger"
	BackendNone   = "none"
)

var (
	// ErrInvalidConfig is returned for values that fail validation.
	ErrInvalidConfig = zerr.New("invalid configuration")
)

// Config is the structure of the rdfa.yaml configuration file.
type Config struct {
	RDFa  RDFaConfig  `yaml:"rdfa"`
	Cache CacheConfig `yaml:"cache"`
	Fetch FetchConfig `yaml:"fetch"`
	Log   LogConfig   `yaml:"log"`
}

// RDFaConfig holds processor options.
type RDFaConfig struct {
	Version        string `yaml:"version"`
	HostLanguage   string `yaml:"host_language"`
	SpacePreserve  bool   `yaml:"space_preserve"`
	EmbeddedTurtle bool   `yaml:"embedded_turtle"`
	MetaName       bool   `yaml:"meta_name"`
	Lite           bool   `yaml:"lite"`
}

// CacheConfig holds vocabulary cache settings.
type CacheConfig struct {
	Dir        string        `yaml:"dir"`
	Backend    string        `yaml:"backend"`
	DefaultTTL time.Duration `yaml:"default_ttl"`
	RetryTTL   time.Duration `yaml:"retry_ttl"`
}

// FetchConfig holds vocabulary fetch settings. A zero timeout leaves the
// transport default in place; a zero max_bytes sets no size limit.
type FetchConfig struct {
	Timeout  time.Duration `yaml:"timeout"`
	MaxBytes int64         `yaml:"max_bytes"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		RDFa: RDFaConfig{
			Version:       "1.1",
			SpacePreserve: true,
		},
		Cache: CacheConfig{
			Backend:    BackendFile,
			DefaultTTL: 24 * time.Hour,
			RetryTTL:   time.Hour,
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load reads the configuration file at path on top of the defaults and
// applies environment overrides. An empty path yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path) //nolint:gosec // path is provided by user
		if err != nil {
			return nil, zerr.Wrap(err, "failed to read config file")
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, zerr.Wrap(err, "failed to parse config file")
		}
	}
	cfg.applyEnv(os.Getenv)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(getenv func(string) string) {
	if dir := getenv(EnvCacheDir); dir != "" {
		c.Cache.Dir = dir
	}
}

// invalid reports the offending key along with its value
func invalid(key string, value any) error {
	return zerr.With(zerr.Wrap(ErrInvalidConfig, "invalid "+key), key, value)
}

// Validate checks enumerated values and durations.
func (c *Config) Validate() error {
	switch c.RDFa.Version {
	case "1.0", "1.1":
	default:
		return invalid("rdfa.version", c.RDFa.Version)
	}
	switch c.Cache.Backend {
	case BackendFile, BackendBadger, BackendNone:
	default:
		return invalid("cache.backend", c.Cache.Backend)
	}
	if c.Cache.DefaultTTL <= 0 {
		return invalid("cache.default_ttl", c.Cache.DefaultTTL.String())
	}
	if c.Cache.RetryTTL <= 0 {
		return invalid("cache.retry_ttl", c.Cache.RetryTTL.String())
	}
	if c.Fetch.Timeout < 0 {
		return invalid("fetch.timeout", c.Fetch.Timeout.String())
	}
	if c.Fetch.MaxBytes < 0 {
		return invalid("fetch.max_bytes", c.Fetch.MaxBytes)
	}
	if _, err := c.SlogLevel(); err != nil {
		return invalid("log.level", c.Log.Level)
	}
	return nil
}

// CacheDir returns the configured cache directory, falling back to a
// directory under the per-user cache location.
func (c *Config) CacheDir() (string, error) {
	if c.Cache.Dir != "" {
		return c.Cache.Dir, nil
	}
	base, err := os.UserCacheDir()
	if err != nil {
		return "", zerr.Wrap(err, "failed to locate user cache directory")
	}
	return filepath.Join(base, DefaultCacheDirName), nil
}

// SlogLevel parses log.level
func (c *Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if c.Log.Level == "" {
		return slog.LevelInfo, nil
	}
	err := level.UnmarshalText([]byte(c.Log.Level))
	return level, err
}

// Exists reports whether a configuration file is present at path
func Exists(path string) bool {
	_, err := os.Stat(path)
	return !errors.Is(err, fs.ErrNotExist)
}
