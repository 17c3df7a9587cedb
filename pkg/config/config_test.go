package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config must validate: %v", err)
	}

	if cfg.Upstream.Timeout != 15*time.Second {
		t.Errorf("upstream timeout = %v, want 15s", cfg.Upstream.Timeout)
	}
	if cfg.Upstream.MaxRedirects != 10 {
		t.Errorf("max redirects = %d, want 10", cfg.Upstream.MaxRedirects)
	}
	if len(cfg.Proxy.AllowedHosts) == 0 {
		t.Error("default allow list must not be empty")
	}
	if cfg.Proxy.PublicPath != "/proxy" {
		t.Errorf("public path = %q, want /proxy", cfg.Proxy.PublicPath)
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Address != ":8080" {
		t.Errorf("address = %q, want :8080", cfg.Server.Address)
	}
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  address: ":9000"
upstream:
  timeout: 5s
proxy:
  allowed_hosts:
    - "example-cdn.net"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Address != ":9000" {
		t.Errorf("address = %q, want :9000", cfg.Server.Address)
	}
	if cfg.Upstream.Timeout != 5*time.Second {
		t.Errorf("timeout = %v, want 5s", cfg.Upstream.Timeout)
	}
	if len(cfg.Proxy.AllowedHosts) != 1 || cfg.Proxy.AllowedHosts[0] != "example-cdn.net" {
		t.Errorf("allowed hosts = %v", cfg.Proxy.AllowedHosts)
	}
	// Untouched sections keep defaults
	if cfg.Relay.UpstreamURL == "" {
		t.Error("relay upstream default lost after partial file load")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("STREAMGATE_SERVER_ADDRESS", ":7777")
	t.Setenv("STREAMGATE_RELAY_UPSTREAM_URL", "wss://transcribe.example.com/v1")

	cfg, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Address != ":7777" {
		t.Errorf("address = %q, want :7777", cfg.Server.Address)
	}
	if cfg.Relay.UpstreamURL != "wss://transcribe.example.com/v1" {
		t.Errorf("relay upstream = %q", cfg.Relay.UpstreamURL)
	}
}

func TestValidate_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty server address", func(c *Config) { c.Server.Address = "" }},
		{"zero upstream timeout", func(c *Config) { c.Upstream.Timeout = 0 }},
		{"zero max redirects", func(c *Config) { c.Upstream.MaxRedirects = 0 }},
		{"empty client id", func(c *Config) { c.Upstream.ClientID = "" }},
		{"empty allow list", func(c *Config) { c.Proxy.AllowedHosts = nil }},
		{"blank allow rule", func(c *Config) { c.Proxy.AllowedHosts = []string{"  "} }},
		{"empty relay upstream", func(c *Config) { c.Relay.UpstreamURL = "" }},
		{"bad sample rate", func(c *Config) {
			c.Tracing.Enabled = true
			c.Tracing.SampleRate = 2.0
		}},
		{"rate limit without rps", func(c *Config) {
			c.RateLimiting.Enabled = true
			c.RateLimiting.HTTP.RequestsPerSecond = 0
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}
