// Package config loads popover's TOML configuration file.
//
// The file lives at $XDG_CONFIG_HOME/popover/config.toml (falling back to
// ~/.config/popover/config.toml) unless a path is given explicitly. Every
// key is optional:
//
//	[engine]
//	padding = 8
//	native = false
//	navigation_classes = ["compact", "medium"]
//
//	[cache]
//	backend = "redis"        # file, redis or none
//	redis_addr = "localhost:6379"
//	ttl = "24h"
//
//	[server]
//	addr = ":8080"
package config

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/popover/pkg/cache"
	"github.com/matzehuels/popover/pkg/errors"
	"github.com/matzehuels/popover/pkg/placement"
)

// appName is the directory name used under the XDG base directories.
const appName = "popover"

// =============================================================================
// Default Values
// =============================================================================

const (
	// DefaultAddr is the API listen address.
	DefaultAddr = ":8080"

	// DefaultRedisAddr is used when the redis backend has no address.
	DefaultRedisAddr = "localhost:6379"

	// DefaultPrefix namespaces keys in shared backends.
	DefaultPrefix = "popover:"

	// DefaultShutdownTimeout bounds graceful server shutdown.
	DefaultShutdownTimeout = 10 * time.Second

	// DefaultReadHeaderTimeout bounds slow clients.
	DefaultReadHeaderTimeout = 5 * time.Second
)

// Cache backends.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendNone  = "none"
)

// =============================================================================
// Config
// =============================================================================

// Config is the decoded configuration file.
type Config struct {
	Engine placement.Options `toml:"engine"`
	Cache  CacheConfig       `toml:"cache"`
	Server ServerConfig      `toml:"server"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// CacheConfig selects and configures the result cache.
type CacheConfig struct {
	Backend       string        `toml:"backend"`
	Dir           string        `toml:"dir"`
	RedisAddr     string        `toml:"redis_addr"`
	RedisPassword string        `toml:"redis_password"`
	RedisDB       int           `toml:"redis_db"`
	RedisRetries  int           `toml:"redis_retries"`
	RedisBackoff  time.Duration `toml:"redis_backoff"`
	Prefix        string        `toml:"prefix"`
	TTL           time.Duration `toml:"ttl"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr              string        `toml:"addr"`
	ReadHeaderTimeout time.Duration `toml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `toml:"shutdown_timeout"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	c := &Config{Engine: placement.DefaultOptions()}
	_ = c.ValidateAndSetDefaults()
	return c
}

// Load reads the configuration at path. An empty path means the default
// location, where a missing file is not an error.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return Default(), nil
		}
		path = p
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		if explicit {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "config file %s not found", path)
		}
		return Default(), nil
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read config %s", path)
	}
	return Parse(data)
}

// Parse decodes TOML configuration data over the defaults and validates it.
func Parse(data []byte) (*Config, error) {
	c := &Config{Engine: placement.DefaultOptions()}
	md, err := toml.Decode(string(data), c)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "decode config")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "unknown config key %q", undecoded[0].String())
	}
	if err := c.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	return c, nil
}

// ValidateAndSetDefaults checks every section and fills in defaults.
// This method is idempotent.
func (c *Config) ValidateAndSetDefaults() error {
	if c.validated {
		return nil
	}
	if err := validateEngine(c.Engine); err != nil {
		return err
	}
	if err := c.Cache.validateAndSetDefaults(); err != nil {
		return err
	}
	if err := c.Server.validateAndSetDefaults(); err != nil {
		return err
	}
	c.validated = true
	return nil
}

// EngineOptions converts the engine section to engine options.
func (c *Config) EngineOptions() []placement.Option {
	return []placement.Option{placement.WithOptions(c.Engine)}
}

// NewEngine builds an engine from the configuration plus extra options.
func (c *Config) NewEngine(extra ...placement.Option) *placement.Engine {
	return placement.New(append(c.EngineOptions(), extra...)...)
}

func validateEngine(o placement.Options) error {
	nonNeg := []struct {
		field string
		v     float64
	}{
		{"engine.padding", o.Padding},
		{"engine.native_correction", o.NativeCorrection},
		{"engine.max_height_inset", o.MaxHeightInset},
		{"engine.content_height_threshold", o.ContentHeightThreshold},
		{"engine.tight_max_height", o.TightMaxHeight},
		{"engine.nav_max_width", o.NavMaxWidth},
	}
	for _, f := range nonNeg {
		if err := errors.ValidateNonNegative(f.field, f.v); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "invalid %s", f.field)
		}
	}
	ratios := []struct {
		field string
		v     float64
	}{
		{"engine.generous_max_height_ratio", o.GenerousMaxHeightRatio},
		{"engine.nav_width_ratio", o.NavWidthRatio},
	}
	for _, f := range ratios {
		if err := errors.ValidateFinite(f.field, f.v); err != nil || f.v < 0 || f.v > 1 {
			return errors.New(errors.ErrCodeInvalidConfig, "%s must be between 0 and 1, got %v", f.field, f.v)
		}
	}
	return nil
}

func (c *CacheConfig) validateAndSetDefaults() error {
	if c.Backend == "" {
		c.Backend = BackendFile
	}
	if c.TTL == 0 {
		c.TTL = cache.DefaultTTL
	}
	if c.TTL < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "cache.ttl cannot be negative")
	}
	if c.Prefix == "" {
		c.Prefix = DefaultPrefix
	}

	switch c.Backend {
	case BackendNone:
	case BackendFile:
		if c.Dir == "" {
			dir, err := CacheDir()
			if err != nil {
				return errors.Wrap(errors.ErrCodeInvalidConfig, err, "resolve cache dir")
			}
			c.Dir = dir
		}
	case BackendRedis:
		if c.RedisAddr == "" {
			c.RedisAddr = DefaultRedisAddr
		}
		if err := errors.ValidateAddr(c.RedisAddr); err != nil {
			return err
		}
		if c.RedisDB < 0 {
			return errors.New(errors.ErrCodeInvalidConfig, "cache.redis_db cannot be negative")
		}
		if c.RedisRetries < 0 || c.RedisBackoff < 0 {
			return errors.New(errors.ErrCodeInvalidConfig, "cache.redis_retries and cache.redis_backoff cannot be negative")
		}
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "unknown cache.backend %q (want file, redis or none)", c.Backend)
	}
	return nil
}

func (s *ServerConfig) validateAndSetDefaults() error {
	if s.Addr == "" {
		s.Addr = DefaultAddr
	}
	if s.ReadHeaderTimeout == 0 {
		s.ReadHeaderTimeout = DefaultReadHeaderTimeout
	}
	if s.ShutdownTimeout == 0 {
		s.ShutdownTimeout = DefaultShutdownTimeout
	}
	return errors.ValidateAddr(s.Addr)
}

// =============================================================================
// Cache Factory
// =============================================================================

// Open creates the configured cache backend. When disabled is true the
// null cache is returned regardless of configuration.
func (c CacheConfig) Open(ctx context.Context, disabled bool) (cache.Cache, error) {
	if disabled {
		return cache.NewNullCache(), nil
	}
	switch c.Backend {
	case BackendFile:
		fc, err := cache.NewFileCache(c.Dir)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeCache, err, "open file cache %s", c.Dir)
		}
		return fc, nil
	case BackendRedis:
		rc, err := cache.NewRedisCache(ctx, cache.RedisConfig{
			Addr:     c.RedisAddr,
			Password: c.RedisPassword,
			DB:       c.RedisDB,
			Prefix:   c.Prefix,
			Backoff:  cache.Backoff{Attempts: c.RedisRetries, Delay: c.RedisBackoff},
		})
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeCache, err, "open redis cache")
		}
		return rc, nil
	}
	return cache.NewNullCache(), nil
}

// =============================================================================
// Paths
// =============================================================================

// DefaultPath returns the config file location (~/.config/popover/config.toml).
func DefaultPath() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, "config.toml"), nil
}

// CacheDir returns the cache directory using XDG standard (~/.cache/popover/).
func CacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}
