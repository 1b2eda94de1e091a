package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultWSURL                = "ws://127.0.0.1:5000/ws"
	DefaultRestURL              = "http://127.0.0.1:5000"
	DefaultPingInterval         = 30 * time.Second
	DefaultReconnectBaseDelay   = 1 * time.Second
	DefaultMaxReconnectAttempts = 5
	DefaultHandshakeTimeout     = 10 * time.Second
	DefaultWriteTimeout         = 5 * time.Second
	DefaultBufferSize           = 256
	DefaultServerHost           = "127.0.0.1"
	DefaultServerPort           = 8765
	DefaultStoragePath          = "relay.db"
	DefaultBadgeClearAfter      = 3 * time.Second
	DefaultLogLevel             = "info"
)

func (c *RelayConfig) applyDefaults() {
	if c.Backend.WSURL == "" {
		c.Backend.WSURL = DefaultWSURL
	}
	if c.Backend.RestURL == "" {
		c.Backend.RestURL = DefaultRestURL
	}
	if c.Backend.PingInterval == 0 {
		c.Backend.PingInterval = DefaultPingInterval
	}
	if c.Backend.ReconnectBaseDelay == 0 {
		c.Backend.ReconnectBaseDelay = DefaultReconnectBaseDelay
	}
	if c.Backend.MaxReconnectAttempts == 0 {
		c.Backend.MaxReconnectAttempts = DefaultMaxReconnectAttempts
	}
	if c.Backend.HandshakeTimeout == 0 {
		c.Backend.HandshakeTimeout = DefaultHandshakeTimeout
	}
	if c.Backend.WriteTimeout == 0 {
		c.Backend.WriteTimeout = DefaultWriteTimeout
	}
	if c.Backend.BufferSize == 0 {
		c.Backend.BufferSize = DefaultBufferSize
	}

	if c.Server.Host == "" {
		c.Server.Host = DefaultServerHost
	}
	if c.Server.Port == 0 {
		c.Server.Port = DefaultServerPort
	}

	if c.Storage.Path == "" {
		c.Storage.Path = DefaultStoragePath
	}

	if c.Badge.ClearAfter == 0 {
		c.Badge.ClearAfter = DefaultBadgeClearAfter
	}

	if c.Logging.Level == "" {
		c.Logging.Level = DefaultLogLevel
	}
}
