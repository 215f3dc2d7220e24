// Package config loads taxotree settings.
//
// Sources are applied in order, later ones winning:
//
//  1. built-in defaults ([Default])
//  2. the TOML file (~/.config/taxotree/config.toml unless overridden)
//  3. a .env file in the working directory
//  4. TAXOTREE_* environment variables
//
// Command-line flags are applied by the CLI on top of the result. The final
// value is checked with [Config.Validate].
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

const appName = "taxotree"

var validate = validator.New()

// Duration is a time.Duration read from strings such as "10s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

// Config is the full taxotree configuration.
type Config struct {
	ServerURL         string      `toml:"server_url" validate:"required,url"`
	IncludeDeprecated bool        `toml:"include_deprecated"`
	Direction         string      `toml:"direction" validate:"oneof=children parents"`
	RateLimit         float64     `toml:"rate_limit" validate:"gte=0"`
	Timeout           Duration    `toml:"timeout"`
	SearchLimit       int         `toml:"search_limit" validate:"gte=1,lte=1000"`
	Labels            bool        `toml:"labels"`
	Cache             CacheConfig `toml:"cache"`
	Serve             ServeConfig `toml:"serve"`
}

// CacheConfig selects the artifact cache backend.
type CacheConfig struct {
	Backend       string `toml:"backend" validate:"oneof=file redis none"`
	Dir           string `toml:"dir"`
	RedisAddr     string `toml:"redis_addr" validate:"required_if=Backend redis"`
	RedisPassword string `toml:"redis_password"`
	RedisDB       int    `toml:"redis_db" validate:"gte=0"`
	Prefix        string `toml:"prefix"`
}

// ServeConfig configures the browser explorer.
type ServeConfig struct {
	Addr    string `toml:"addr" validate:"required"`
	Metrics bool   `toml:"metrics"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		ServerURL:   "http://localhost:8000",
		Direction:   "children",
		RateLimit:   10,
		Timeout:     Duration{10 * time.Second},
		SearchLimit: 25,
		Labels:      true,
		Cache: CacheConfig{
			Backend: "file",
			Prefix:  appName + ":",
		},
		Serve: ServeConfig{
			Addr:    "127.0.0.1:8080",
			Metrics: true,
		},
	}
}

// DefaultPath returns ~/.config/taxotree/config.toml (or the platform
// equivalent).
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, appName, "config.toml"), nil
}

// DefaultCacheDir returns ~/.cache/taxotree, honouring XDG_CACHE_HOME.
func DefaultCacheDir() (string, error) {
	if home := os.Getenv("XDG_CACHE_HOME"); home != "" {
		return filepath.Join(home, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// Load builds the configuration from every source. An empty path uses
// [DefaultPath], which may be absent; an explicit path must exist.
func Load(path string) (Config, error) {
	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err == nil {
			path = p
		}
	}

	// A missing .env is normal.
	_ = godotenv.Load()

	return load(path, explicit, os.LookupEnv)
}

func load(path string, explicit bool, lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			if explicit || !errors.Is(err, fs.ErrNotExist) {
				return Config{}, fmt.Errorf("read config %s: %w", path, err)
			}
		}
	}

	if err := applyEnv(&cfg, lookup); err != nil {
		return Config{}, err
	}
	if cfg.Cache.Dir == "" {
		if dir, err := DefaultCacheDir(); err == nil {
			cfg.Cache.Dir = dir
		}
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok {
			*dst = v
		}
	}
	var errs []error
	parse := func(key string, set func(string) error) {
		if v, ok := lookup(key); ok {
			if err := set(v); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
			}
		}
	}

	str("TAXOTREE_SERVER_URL", &cfg.ServerURL)
	str("TAXOTREE_DIRECTION", &cfg.Direction)
	str("TAXOTREE_CACHE_BACKEND", &cfg.Cache.Backend)
	str("TAXOTREE_CACHE_DIR", &cfg.Cache.Dir)
	str("TAXOTREE_REDIS_ADDR", &cfg.Cache.RedisAddr)
	str("TAXOTREE_REDIS_PASSWORD", &cfg.Cache.RedisPassword)
	str("TAXOTREE_LISTEN_ADDR", &cfg.Serve.Addr)

	parse("TAXOTREE_INCLUDE_DEPRECATED", func(v string) (err error) {
		cfg.IncludeDeprecated, err = strconv.ParseBool(v)
		return err
	})
	parse("TAXOTREE_RATE_LIMIT", func(v string) (err error) {
		cfg.RateLimit, err = strconv.ParseFloat(v, 64)
		return err
	})
	parse("TAXOTREE_TIMEOUT", func(v string) error {
		return cfg.Timeout.UnmarshalText([]byte(v))
	})
	parse("TAXOTREE_SEARCH_LIMIT", func(v string) (err error) {
		cfg.SearchLimit, err = strconv.Atoi(v)
		return err
	})
	parse("TAXOTREE_REDIS_DB", func(v string) (err error) {
		cfg.Cache.RedisDB, err = strconv.Atoi(v)
		return err
	})
	return errors.Join(errs...)
}

// Validate checks field constraints.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]error, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Errorf("%s: failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
			}
			return fmt.Errorf("invalid config: %w", errors.Join(msgs...))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.Timeout.Duration < 0 {
		return errors.New("invalid config: timeout must not be negative")
	}
	return nil
}

// Encode writes c as TOML.
func (c Config) Encode(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}
