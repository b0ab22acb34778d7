// Package config manages application configuration.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"clipshelf/ratelimit"
	"clipshelf/retry"
)

// Config holds all application configuration for the enrichment and
// import pipelines.
type Config struct {
	// APIKey is the Data API key used for key-scoped requests.
	APIKey string `json:"api_key"`
	// OAuthClientID identifies the OAuth application.
	OAuthClientID string `json:"oauth_client_id"`
	// OAuthClientSecret is the OAuth application secret.
	OAuthClientSecret string `json:"oauth_client_secret"`
	// OAuthRedirectURL is where the provider sends the consent code.
	OAuthRedirectURL string `json:"oauth_redirect_url"`

	// CachePath is where the enrichment cache lives.
	CachePath string `json:"cache_path"`
	// CacheTTL is how long a cache entry stays valid.
	CacheTTL time.Duration `json:"cache_ttl"`
	// ImportedPath is where imported records are persisted.
	ImportedPath string `json:"imported_path"`

	// BatchSize is how many videos are enriched concurrently.
	BatchSize int `json:"batch_size"`
	// BatchPause is the idle time between enrichment batches.
	BatchPause time.Duration `json:"batch_pause"`

	// RequestsPerSecond throttles outgoing API requests (0 = unlimited).
	RequestsPerSecond float64 `json:"requests_per_second"`
	// Burst is the request burst allowance.
	Burst int `json:"burst"`

	// MaxRetries is the maximum number of retries for failed requests.
	MaxRetries int `json:"max_retries"`
	// InitialBackoff is the initial backoff duration for retries.
	InitialBackoff time.Duration `json:"initial_backoff"`
	// MaxBackoff is the maximum backoff duration for retries.
	MaxBackoff time.Duration `json:"max_backoff"`
	// BackoffMultiplier is the multiplier for exponential backoff (must be > 1).
	BackoffMultiplier float64 `json:"backoff_multiplier"`
}

// DefaultConfig returns configuration with safe defaults.
func DefaultConfig() *Config {
	return &Config{
		CachePath:         defaultDataPath("cache.json"),
		CacheTTL:          24 * time.Hour,
		ImportedPath:      defaultDataPath("imported.json"),
		BatchSize:         10,
		BatchPause:        100 * time.Millisecond,
		RequestsPerSecond: 4.0,
		Burst:             2,
		MaxRetries:        3,
		InitialBackoff:    1 * time.Second,
		MaxBackoff:        30 * time.Second,
		BackoffMultiplier: 2.0,
	}
}

// Load loads configuration from environment variables, config file, and applies defaults.
// Priority: env vars > config file > defaults
func Load() (*Config, error) {
	cfg := DefaultConfig()

	if err := cfg.loadFromFile(); err != nil {
		// Config file is optional
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	cfg.loadFromEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// RetryConfig converts the retry knobs into a retry.Config.
func (c *Config) RetryConfig() retry.Config {
	return retry.Config{
		MaxRetries:     c.MaxRetries,
		InitialBackoff: c.InitialBackoff,
		MaxBackoff:     c.MaxBackoff,
		Multiplier:     c.BackoffMultiplier,
		JitterFraction: 0.2,
	}
}

// RateLimitConfig converts the throttle knobs into a ratelimit.Config.
func (c *Config) RateLimitConfig() ratelimit.Config {
	return ratelimit.Config{
		RequestsPerSecond: c.RequestsPerSecond,
		Burst:             c.Burst,
	}
}

// loadFromFile attempts to load config from clipshelf.json in current directory or home directory.
func (c *Config) loadFromFile() error {
	paths := []string{
		"clipshelf.json",
		filepath.Join(os.Getenv("HOME"), ".config", "clipshelf", "clipshelf.json"),
	}

	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return err
		}

		if err := json.Unmarshal(data, c); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
		return nil
	}

	return os.ErrNotExist
}

// loadFromEnv overrides config with environment variables.
func (c *Config) loadFromEnv() {
	if v := os.Getenv("CLIPSHELF_API_KEY"); v != "" {
		c.APIKey = v
	}
	if v := os.Getenv("CLIPSHELF_OAUTH_CLIENT_ID"); v != "" {
		c.OAuthClientID = v
	}
	if v := os.Getenv("CLIPSHELF_OAUTH_CLIENT_SECRET"); v != "" {
		c.OAuthClientSecret = v
	}
	if v := os.Getenv("CLIPSHELF_OAUTH_REDIRECT_URL"); v != "" {
		c.OAuthRedirectURL = v
	}
	if v := os.Getenv("CLIPSHELF_CACHE_PATH"); v != "" {
		c.CachePath = v
	}
	if v := os.Getenv("CLIPSHELF_CACHE_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.CacheTTL = d
		}
	}
	if v := os.Getenv("CLIPSHELF_IMPORTED_PATH"); v != "" {
		c.ImportedPath = v
	}
	if v := os.Getenv("CLIPSHELF_BATCH_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.BatchSize = n
		}
	}
	if v := os.Getenv("CLIPSHELF_BATCH_PAUSE"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.BatchPause = d
		}
	}
	if v := os.Getenv("CLIPSHELF_REQUESTS_PER_SECOND"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.RequestsPerSecond = f
		}
	}
	if v := os.Getenv("CLIPSHELF_MAX_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxRetries = n
		}
	}
	if v := os.Getenv("CLIPSHELF_INITIAL_BACKOFF"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.InitialBackoff = d
		}
	}
	if v := os.Getenv("CLIPSHELF_MAX_BACKOFF"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.MaxBackoff = d
		}
	}
}

// Validate checks that configuration values are valid and consistent.
// It returns an error if any configuration value is invalid.
func (c *Config) Validate() error {
	if c.CacheTTL <= 0 {
		return fmt.Errorf("cache_ttl must be positive")
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch_size must be positive")
	}
	if c.BatchPause < 0 {
		return fmt.Errorf("batch_pause must be non-negative")
	}
	if c.RequestsPerSecond < 0 {
		return fmt.Errorf("requests_per_second must be non-negative")
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max_retries must be non-negative")
	}
	if c.InitialBackoff <= 0 {
		return fmt.Errorf("initial_backoff must be positive")
	}
	if c.MaxBackoff < c.InitialBackoff {
		return fmt.Errorf("max_backoff must be >= initial_backoff")
	}
	if c.BackoffMultiplier <= 1 {
		return fmt.Errorf("backoff_multiplier must be > 1")
	}
	return nil
}

// defaultDataPath places a data file under ~/.config/clipshelf, falling
// back to the working directory when HOME is unset.
func defaultDataPath(name string) string {
	home := os.Getenv("HOME")
	if home == "" {
		return name
	}
	return filepath.Join(home, ".config", "clipshelf", name)
}
