package config

import "time"

// RelayConfig is the top-level configuration for the relay daemon.
type RelayConfig struct {
	Backend       BackendConfig `yaml:"backend"`
	Server        ServerConfig  `yaml:"server"`
	Storage       StorageConfig `yaml:"storage"`
	Badge         BadgeConfig   `yaml:"badge"`
	Notifications NotifyConfig  `yaml:"notifications"`
	Logging       LoggingConfig `yaml:"logging"`
}

// BackendConfig describes the remote task-execution backend.
type BackendConfig struct {
	WSURL   string `yaml:"ws_url"`   // Persistent event channel (e.g., ws://localhost:5000/ws)
	RestURL string `yaml:"rest_url"` // Task submission API (e.g., http://localhost:5000)
	APIKey  string `yaml:"api_key"`  // Optional bearer token

	PingInterval         time.Duration `yaml:"ping_interval"`          // Keep-alive ping cadence
	ReconnectBaseDelay   time.Duration `yaml:"reconnect_base_delay"`   // Linear backoff unit
	MaxReconnectAttempts int           `yaml:"max_reconnect_attempts"` // Automatic retry ceiling
	HandshakeTimeout     time.Duration `yaml:"handshake_timeout"`
	WriteTimeout         time.Duration `yaml:"write_timeout"`
	BufferSize           int           `yaml:"buffer_size"` // Inbound event channel capacity
}

// ServerConfig describes the local surface-facing server.
type ServerConfig struct {
	Host       string `yaml:"host"`
	Port       int    `yaml:"port"`
	AuthSecret string `yaml:"auth_secret"` // Empty disables surface auth
}

// StorageConfig describes durable local state.
type StorageConfig struct {
	Path string `yaml:"path"` // SQLite database path
}

// BadgeConfig tunes the status indicator.
type BadgeConfig struct {
	ClearAfter time.Duration `yaml:"clear_after"` // Success indicator auto-clear delay
}

// NotifyConfig tunes system notifications fired on error events.
type NotifyConfig struct {
	Enabled bool   `yaml:"enabled"`
	NtfyURL string `yaml:"ntfy"`
	Webhook string `yaml:"webhook"`
}

// LoggingConfig controls structured log output.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}
