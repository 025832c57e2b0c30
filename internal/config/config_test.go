package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"WIZ_CONFIG", "WIZ_LIGHTS", "WIZ_UDP_PORT", "WIZ_TIMEOUT", "WIZ_DELAY",
		"WIZ_CONCURRENCY", "WIZ_OPERATION_TIMEOUT", "HTTP_ADDR", "DATABASE_URL", "PG_DSN",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.UDPPort != 38899 || cfg.Timeout != 2*time.Second || cfg.Delay != 100*time.Millisecond {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.Concurrency != 1 || cfg.HTTPAddr != ":8080" || len(cfg.Lights) != 0 {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
}

func TestLoadFileThenEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "wiz.yaml")
	content := []byte("lights:\n  - 192.168.1.10\n  - 192.168.1.11\ntimeout: 500ms\ndelay: 0s\nconcurrency: 4\n")
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("WIZ_CONFIG", path)
	t.Setenv("WIZ_DELAY", "250ms")
	t.Setenv("PG_DSN", "postgres://localhost/wiz")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cfg.Lights) != 2 || cfg.Lights[1] != "192.168.1.11" {
		t.Fatalf("expected lights from file, got %v", cfg.Lights)
	}
	if cfg.Timeout != 500*time.Millisecond || cfg.Concurrency != 4 {
		t.Fatalf("expected file values, got %+v", cfg)
	}
	if cfg.Delay != 250*time.Millisecond {
		t.Fatalf("expected env to override delay, got %s", cfg.Delay)
	}
	if cfg.DatabaseURL != "postgres://localhost/wiz" {
		t.Fatalf("expected PG_DSN fallback, got %q", cfg.DatabaseURL)
	}
}

func TestLoadLightsFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("WIZ_LIGHTS", " 10.0.0.1, 10.0.0.2 ,,")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cfg.Lights) != 2 || cfg.Lights[0] != "10.0.0.1" || cfg.Lights[1] != "10.0.0.2" {
		t.Fatalf("unexpected lights %v", cfg.Lights)
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad light", func(c *Config) { c.Lights = []string{"kitchen"} }},
		{"port zero", func(c *Config) { c.UDPPort = 0 }},
		{"port too high", func(c *Config) { c.UDPPort = 70000 }},
		{"zero timeout", func(c *Config) { c.Timeout = 0 }},
		{"negative delay", func(c *Config) { c.Delay = -time.Second }},
		{"no workers", func(c *Config) { c.Concurrency = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}

	if err := Default().Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("WIZ_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for missing config file")
	}
}
