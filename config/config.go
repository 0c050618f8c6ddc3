// Package config loads renderer and reliability settings from TOML or YAML
// files and BRAYNS_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"github.com/zoobzio/brayns"
	"github.com/zoobzio/brayns/rockets"
	"gopkg.in/yaml.v3"
)

// Defaults for a renderer running locally.
const (
	DefaultURL     = "ws://localhost:5000/"
	DefaultTimeout = 30 * time.Second
)

// Duration is a time.Duration written as "30s" or "1m30s" in config files.
type Duration struct {
	time.Duration
}

// UnmarshalText parses a duration string. Used by the TOML decoder.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText formats the duration as a string.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalYAML parses a duration string.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	return d.UnmarshalText([]byte(node.Value))
}

// RendererConfig locates the renderer. Timeout applies to requests that do
// not carry their own response timeout.
type RendererConfig struct {
	URL     string   `toml:"url" yaml:"url"`
	Timeout Duration `toml:"timeout" yaml:"timeout"`
}

// ReliabilityConfig selects the explorer options built by Config.Options.
// Zero values leave the matching option out.
type ReliabilityConfig struct {
	RetryAttempts   int      `toml:"retry_attempts" yaml:"retry_attempts"`
	BackoffBase     Duration `toml:"backoff_base" yaml:"backoff_base"`
	RequestTimeout  Duration `toml:"request_timeout" yaml:"request_timeout"`
	RateLimit       float64  `toml:"rate_limit" yaml:"rate_limit"`
	RateBurst       int      `toml:"rate_burst" yaml:"rate_burst"`
	BreakerFailures int      `toml:"breaker_failures" yaml:"breaker_failures"`
	BreakerRecovery Duration `toml:"breaker_recovery" yaml:"breaker_recovery"`
	Validate        bool     `toml:"validate" yaml:"validate"`
}

// Config is the file and environment configuration of a brayns client.
type Config struct {
	Renderer    RendererConfig    `toml:"renderer" yaml:"renderer"`
	Reliability ReliabilityConfig `toml:"reliability" yaml:"reliability"`
}

// Defaults returns a config for a local renderer with no reliability options.
func Defaults() Config {
	return Config{
		Renderer: RendererConfig{
			URL:     DefaultURL,
			Timeout: Duration{DefaultTimeout},
		},
	}
}

// Load reads path over Defaults. The format is chosen by extension:
// .toml, .yaml or .yml.
func Load(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse TOML: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse YAML: %w", err)
		}
	default:
		return cfg, fmt.Errorf("unsupported config format %q", filepath.Ext(path))
	}
	return cfg, nil
}

// FromEnv returns Defaults with environment overrides applied.
// A .env file in the working directory is loaded first when present.
func FromEnv() (Config, error) {
	cfg := Defaults()
	if err := LoadDotEnv(); err != nil {
		return cfg, err
	}
	err := cfg.ApplyEnv()
	return cfg, err
}

// LoadDotEnv loads the given env files, or .env when none are given.
// Missing files are ignored; variables already set are kept.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load env file '%s': %w", p, err)
		}
	}
	return nil
}

// ApplyEnv overrides fields from BRAYNS_* variables.
func (c *Config) ApplyEnv() error {
	if v := env("BRAYNS_URL"); v != "" {
		c.Renderer.URL = v
	}

	durations := []struct {
		key string
		dst *Duration
	}{
		{"BRAYNS_TIMEOUT", &c.Renderer.Timeout},
		{"BRAYNS_BACKOFF_BASE", &c.Reliability.BackoffBase},
		{"BRAYNS_REQUEST_TIMEOUT", &c.Reliability.RequestTimeout},
		{"BRAYNS_BREAKER_RECOVERY", &c.Reliability.BreakerRecovery},
	}
	for _, d := range durations {
		if v := env(d.key); v != "" {
			if err := d.dst.UnmarshalText([]byte(v)); err != nil {
				return fmt.Errorf("%s: %w", d.key, err)
			}
		}
	}

	ints := []struct {
		key string
		dst *int
	}{
		{"BRAYNS_RETRY_ATTEMPTS", &c.Reliability.RetryAttempts},
		{"BRAYNS_RATE_BURST", &c.Reliability.RateBurst},
		{"BRAYNS_BREAKER_FAILURES", &c.Reliability.BreakerFailures},
	}
	for _, i := range ints {
		if v := env(i.key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%s: %w", i.key, err)
			}
			*i.dst = n
		}
	}

	if v := env("BRAYNS_RATE_LIMIT"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("BRAYNS_RATE_LIMIT: %w", err)
		}
		c.Reliability.RateLimit = f
	}
	if v := env("BRAYNS_VALIDATE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("BRAYNS_VALIDATE: %w", err)
		}
		c.Reliability.Validate = b
	}
	return nil
}

// Rockets returns the transport settings.
func (c Config) Rockets() rockets.Config {
	return rockets.Config{
		URL:     c.Renderer.URL,
		Timeout: c.Renderer.Timeout.Duration,
	}
}

// Options translates the reliability settings into explorer options.
// Zero values leave the matching option out. The request timeout wraps
// retries, and validation runs before anything else.
func (c Config) Options() []brayns.Option {
	r := c.Reliability
	var opts []brayns.Option

	switch {
	case r.RetryAttempts > 0 && r.BackoffBase.Duration > 0:
		opts = append(opts, brayns.WithBackoff(r.RetryAttempts, r.BackoffBase.Duration))
	case r.RetryAttempts > 0:
		opts = append(opts, brayns.WithRetry(r.RetryAttempts))
	}
	if r.BreakerFailures > 0 && r.BreakerRecovery.Duration > 0 {
		opts = append(opts, brayns.WithCircuitBreaker(r.BreakerFailures, r.BreakerRecovery.Duration))
	}
	if r.RateLimit > 0 {
		burst := r.RateBurst
		if burst <= 0 {
			burst = 1
		}
		opts = append(opts, brayns.WithRateLimit(r.RateLimit, burst))
	}
	if r.RequestTimeout.Duration > 0 {
		opts = append(opts, brayns.WithTimeout(r.RequestTimeout.Duration))
	}
	if r.Validate {
		opts = append(opts, brayns.WithValidation())
	}
	return opts
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}
