package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfigIsValid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "clipshelf.json")
	contents := `{"api_key": "file-key", "batch_size": 5}`
	if err := os.WriteFile(file, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}

	cwd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	defer os.Chdir(cwd)

	t.Setenv("HOME", dir)
	t.Setenv("CLIPSHELF_API_KEY", "env-key")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.APIKey != "env-key" {
		t.Errorf("APIKey = %q, want env value", cfg.APIKey)
	}
	// File value survives where no env override exists.
	if cfg.BatchSize != 5 {
		t.Errorf("BatchSize = %d, want 5 from file", cfg.BatchSize)
	}
	// Untouched keys keep their defaults.
	if cfg.CacheTTL != 24*time.Hour {
		t.Errorf("CacheTTL = %v, want default", cfg.CacheTTL)
	}
}

func TestEnvDurationAndNumberParsing(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	cwd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	defer os.Chdir(cwd)

	t.Setenv("CLIPSHELF_CACHE_TTL", "1h")
	t.Setenv("CLIPSHELF_BATCH_PAUSE", "250ms")
	t.Setenv("CLIPSHELF_REQUESTS_PER_SECOND", "2.5")
	t.Setenv("CLIPSHELF_MAX_RETRIES", "7")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.CacheTTL != time.Hour {
		t.Errorf("CacheTTL = %v, want 1h", cfg.CacheTTL)
	}
	if cfg.BatchPause != 250*time.Millisecond {
		t.Errorf("BatchPause = %v, want 250ms", cfg.BatchPause)
	}
	if cfg.RequestsPerSecond != 2.5 {
		t.Errorf("RequestsPerSecond = %v, want 2.5", cfg.RequestsPerSecond)
	}
	if cfg.MaxRetries != 7 {
		t.Errorf("MaxRetries = %d, want 7", cfg.MaxRetries)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"zero cache ttl", func(c *Config) { c.CacheTTL = 0 }, true},
		{"zero batch size", func(c *Config) { c.BatchSize = 0 }, true},
		{"negative batch pause", func(c *Config) { c.BatchPause = -time.Second }, true},
		{"negative rate", func(c *Config) { c.RequestsPerSecond = -1 }, true},
		{"negative retries", func(c *Config) { c.MaxRetries = -1 }, true},
		{"backoff inversion", func(c *Config) { c.MaxBackoff = c.InitialBackoff / 2 }, true},
		{"multiplier too small", func(c *Config) { c.BackoffMultiplier = 1.0 }, true},
		{"unlimited rate allowed", func(c *Config) { c.RequestsPerSecond = 0 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestRetryConfigConversion(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxRetries = 5
	cfg.InitialBackoff = 2 * time.Second

	rc := cfg.RetryConfig()
	if rc.MaxRetries != 5 || rc.InitialBackoff != 2*time.Second {
		t.Errorf("RetryConfig = %+v, want knobs carried over", rc)
	}
}
