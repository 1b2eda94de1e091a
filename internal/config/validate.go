package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate checks that all required fields are set and values are valid.
func (c *RelayConfig) Validate() error {
	if !strings.HasPrefix(c.Backend.WSURL, "ws://") && !strings.HasPrefix(c.Backend.WSURL, "wss://") {
		return fmt.Errorf("backend.ws_url must be a ws:// or wss:// URL, got %q", c.Backend.WSURL)
	}
	if !strings.HasPrefix(c.Backend.RestURL, "http://") && !strings.HasPrefix(c.Backend.RestURL, "https://") {
		return fmt.Errorf("backend.rest_url must be an http:// or https:// URL, got %q", c.Backend.RestURL)
	}
	if c.Backend.ReconnectBaseDelay <= 0 {
		return errors.New("backend.reconnect_base_delay must be > 0")
	}
	if c.Backend.MaxReconnectAttempts < 1 {
		return errors.New("backend.max_reconnect_attempts must be >= 1")
	}
	if c.Backend.PingInterval <= 0 {
		return errors.New("backend.ping_interval must be > 0")
	}
	if c.Backend.BufferSize < 1 {
		return errors.New("backend.buffer_size must be >= 1")
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}

	if c.Storage.Path == "" {
		return errors.New("storage.path is required")
	}

	if c.Badge.ClearAfter <= 0 {
		return errors.New("badge.clear_after must be > 0")
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug/info/warn/error, got %q", c.Logging.Level)
	}

	return nil
}
