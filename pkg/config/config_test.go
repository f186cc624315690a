package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig_IsValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should be valid, got: %v", err)
	}
	if cfg.Registry.MaxChannels != 100 {
		t.Errorf("Registry.MaxChannels = %d, want 100", cfg.Registry.MaxChannels)
	}
	if cfg.Registry.ChannelTTL != time.Hour {
		t.Errorf("Registry.ChannelTTL = %v, want 1h", cfg.Registry.ChannelTTL)
	}
}

func TestLoad_MissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Address != ":8080" {
		t.Errorf("Server.Address = %q, want :8080", cfg.Server.Address)
	}
}

func TestLoad_YAMLOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
server:
  address: ":9090"
registry:
  max_channels: 10
  channel_ttl: 5m
logging:
  level: debug
`)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Address != ":9090" {
		t.Errorf("Server.Address = %q, want :9090", cfg.Server.Address)
	}
	if cfg.Registry.MaxChannels != 10 {
		t.Errorf("Registry.MaxChannels = %d, want 10", cfg.Registry.MaxChannels)
	}
	if cfg.Registry.ChannelTTL != 5*time.Minute {
		t.Errorf("Registry.ChannelTTL = %v, want 5m", cfg.Registry.ChannelTTL)
	}
	// Untouched sections keep defaults
	if cfg.Signal.PingInterval != 30*time.Second {
		t.Errorf("Signal.PingInterval = %v, want 30s", cfg.Signal.PingInterval)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("BEAMCAST_SERVER_ADDRESS", ":7070")
	t.Setenv("BEAMCAST_CHANNEL_TTL", "90s")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Address != ":7070" {
		t.Errorf("Server.Address = %q, want :7070", cfg.Server.Address)
	}
	if cfg.Registry.ChannelTTL != 90*time.Second {
		t.Errorf("Registry.ChannelTTL = %v, want 90s", cfg.Registry.ChannelTTL)
	}
}

func TestValidate_InvalidValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty server address", func(c *Config) { c.Server.Address = "" }},
		{"zero ping interval", func(c *Config) { c.Signal.PingInterval = 0 }},
		{"zero max channels", func(c *Config) { c.Registry.MaxChannels = 0 }},
		{"negative channel ttl", func(c *Config) { c.Registry.ChannelTTL = -time.Minute }},
		{"empty log level", func(c *Config) { c.Logging.Level = "" }},
		{"tracing enabled without url", func(c *Config) {
			c.Tracing.Enabled = true
			c.Tracing.JaegerURL = ""
		}},
		{"rate limiting enabled with zero rps", func(c *Config) {
			c.RateLimiting.Enabled = true
			c.RateLimiting.HTTP.RequestsPerSecond = 0
		}},
		{"rate limiting enabled with zero ws burst", func(c *Config) {
			c.RateLimiting.Enabled = true
			c.RateLimiting.WebSocket.Burst = 0
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.RateLimiting.Enabled = true
			tc.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}
