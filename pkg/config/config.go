// Package config loads pixelshare server and CLI settings.
//
// Settings come from three layers, each overriding the previous one:
// built-in defaults ([Default]), a TOML file ([Load]) and environment
// variables ([Config.ApplyEnv]). Command-line flags are applied by the CLI on
// top of the result.
//
// An example file:
//
//	[server]
//	addr = ":8080"
//	base_url = "https://pixelshare.example/"
//
//	[mongo]
//	uri = "mongodb://localhost:27017"
//	database = "pixelshare"
//
//	[redis]
//	addr = "localhost:6379"
//
//	[share]
//	compression = "gzip"
//	cache_ttl = "24h"
//
//	[preview]
//	max_size = 200
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/pixelshare/pkg/errors"
	"github.com/matzehuels/pixelshare/pkg/preview"
	"github.com/matzehuels/pixelshare/pkg/transport"
)

// Environment variables that override file settings.
const (
	EnvAddr      = "PIXELSHARE_ADDR"
	EnvBaseURL   = "PIXELSHARE_BASE_URL"
	EnvMongoURI  = "PIXELSHARE_MONGO_URI"
	EnvRedisAddr = "PIXELSHARE_REDIS_ADDR"
)

// MaxPreviewSize bounds preview.max_size.
const MaxPreviewSize = preview.MaxSizeLimit

// Config is the complete settings tree.
type Config struct {
	Server  ServerConfig  `toml:"server"`
	Mongo   MongoConfig   `toml:"mongo"`
	Redis   RedisConfig   `toml:"redis"`
	Share   ShareConfig   `toml:"share"`
	Preview PreviewConfig `toml:"preview"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr         string   `toml:"addr"`
	BaseURL      string   `toml:"base_url"` // front-end URL share links point at
	NoAuth       bool     `toml:"no_auth"`
	ReadTimeout  Duration `toml:"read_timeout"`
	WriteTimeout Duration `toml:"write_timeout"`
}

// MongoConfig selects the drawing store. An empty URI keeps drawings in
// memory.
type MongoConfig struct {
	URI      string `toml:"uri"`
	Database string `toml:"database"`
}

// RedisConfig selects the cache and session backend. An empty address uses
// process-local backends.
type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

// ShareConfig configures share tokens.
type ShareConfig struct {
	Compression string   `toml:"compression"` // gzip or none
	CacheTTL    Duration `toml:"cache_ttl"`
}

// PreviewConfig configures rendered previews.
type PreviewConfig struct {
	MaxSize   float64  `toml:"max_size"`
	GridLines bool     `toml:"grid_lines"`
	CacheTTL  Duration `toml:"cache_ttl"`
}

// Duration is a time.Duration written as a string such as "30s" in TOML.
type Duration struct{ time.Duration }

// UnmarshalText parses a Go duration string.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText formats the duration.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:         ":8080",
			BaseURL:      "http://localhost:8080/",
			ReadTimeout:  Duration{15 * time.Second},
			WriteTimeout: Duration{30 * time.Second},
		},
		Mongo: MongoConfig{Database: "pixelshare"},
		Share: ShareConfig{
			Compression: transport.CompressorGzip,
			CacheTTL:    Duration{24 * time.Hour},
		},
		Preview: PreviewConfig{
			MaxSize:   preview.DefaultMaxSize,
			GridLines: true,
			CacheTTL:  Duration{7 * 24 * time.Hour},
		},
	}
}

// DefaultPath returns ~/.config/pixelshare/config.toml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "pixelshare", "config.toml"), nil
}

// Load reads path over the defaults. A missing file is not an error. Keys the
// file sets that no setting matches are rejected, catching typos early.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	meta, err := toml.DecodeFile(path, cfg)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", path)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "%s: unknown key %q", path, undecoded[0].String())
	}
	return cfg, nil
}

// ApplyEnv overrides settings from the environment via lookup, which is
// normally os.Getenv. Empty values are ignored.
func (c *Config) ApplyEnv(lookup func(string) string) {
	set := func(dst *string, key string) {
		if v := lookup(key); v != "" {
			*dst = v
		}
	}
	set(&c.Server.Addr, EnvAddr)
	set(&c.Server.BaseURL, EnvBaseURL)
	set(&c.Mongo.URI, EnvMongoURI)
	set(&c.Redis.Addr, EnvRedisAddr)
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "server.addr is required")
	}
	if c.Server.BaseURL != "" {
		if err := errors.ValidateURL(c.Server.BaseURL); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "server.base_url")
		}
	}
	if _, err := transport.CompressorByName(c.Share.Compression); err != nil {
		return err
	}
	if c.Preview.MaxSize <= 0 || c.Preview.MaxSize > MaxPreviewSize {
		return errors.New(errors.ErrCodeInvalidConfig, "preview.max_size must be between 1 and %d, got %v", MaxPreviewSize, c.Preview.MaxSize)
	}
	for name, d := range map[string]Duration{
		"server.read_timeout":  c.Server.ReadTimeout,
		"server.write_timeout": c.Server.WriteTimeout,
		"share.cache_ttl":      c.Share.CacheTTL,
		"preview.cache_ttl":    c.Preview.CacheTTL,
	} {
		if d.Duration < 0 {
			return errors.New(errors.ErrCodeInvalidConfig, "%s cannot be negative", name)
		}
	}
	return nil
}

// Resolve loads path, applies the process environment and validates.
func Resolve(path string) (*Config, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv(os.Getenv)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
