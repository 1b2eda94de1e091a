package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "relay.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_Basic(t *testing.T) {
	path := writeConfig(t, `
backend:
  ws_url: wss://backend.example.com/ws
  rest_url: https://backend.example.com
  ping_interval: 15s
server:
  port: 9000
storage:
  path: /tmp/relay-test.db
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Backend.WSURL != "wss://backend.example.com/ws" {
		t.Errorf("WSURL = %q", cfg.Backend.WSURL)
	}
	if cfg.Backend.PingInterval != 15*time.Second {
		t.Errorf("PingInterval = %v, want 15s", cfg.Backend.PingInterval)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("Port = %d, want 9000", cfg.Server.Port)
	}
}

func TestLoad_EnvExpansion(t *testing.T) {
	t.Setenv("RELAY_TEST_KEY", "secret-123")

	path := writeConfig(t, `
backend:
  api_key: ${RELAY_TEST_KEY}
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Backend.APIKey != "secret-123" {
		t.Errorf("APIKey = %q, want secret-123", cfg.Backend.APIKey)
	}
}

func TestLoadWithDefaults(t *testing.T) {
	path := writeConfig(t, `
storage:
  path: /tmp/relay-test.db
`)

	cfg, err := LoadWithDefaults(path)
	if err != nil {
		t.Fatalf("LoadWithDefaults failed: %v", err)
	}

	if cfg.Backend.WSURL != DefaultWSURL {
		t.Errorf("WSURL = %q, want default", cfg.Backend.WSURL)
	}
	if cfg.Backend.MaxReconnectAttempts != 5 {
		t.Errorf("MaxReconnectAttempts = %d, want 5", cfg.Backend.MaxReconnectAttempts)
	}
	if cfg.Backend.ReconnectBaseDelay != time.Second {
		t.Errorf("ReconnectBaseDelay = %v, want 1s", cfg.Backend.ReconnectBaseDelay)
	}
	if cfg.Badge.ClearAfter != 3*time.Second {
		t.Errorf("ClearAfter = %v, want 3s", cfg.Badge.ClearAfter)
	}
	if cfg.Storage.Path != "/tmp/relay-test.db" {
		t.Errorf("Path = %q, explicit value must survive defaults", cfg.Storage.Path)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*RelayConfig)
		wantErr bool
	}{
		{"defaults are valid", func(c *RelayConfig) {}, false},
		{"bad ws scheme", func(c *RelayConfig) { c.Backend.WSURL = "http://x" }, true},
		{"bad rest scheme", func(c *RelayConfig) { c.Backend.RestURL = "ftp://x" }, true},
		{"zero attempts", func(c *RelayConfig) { c.Backend.MaxReconnectAttempts = -1 }, true},
		{"bad port", func(c *RelayConfig) { c.Server.Port = 70000 }, true},
		{"missing storage", func(c *RelayConfig) { c.Storage.Path = "" }, true},
		{"bad level", func(c *RelayConfig) { c.Logging.Level = "verbose" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadAndValidate_MissingFile(t *testing.T) {
	if _, err := LoadAndValidate(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
