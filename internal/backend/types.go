package backend

import (
	"errors"
	"time"
)

// Errors
var (
	ErrNotConnected  = errors.New("not connected")
	ErrAlreadyClosed = errors.New("already closed")
	ErrStopped       = errors.New("manager stopped")
)

// State is the connection lifecycle state.
type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
)

// ClientConfig configures a single WebSocket connection.
type ClientConfig struct {
	URL              string        // Event channel URL (e.g., ws://127.0.0.1:5000/ws)
	APIKey           string        // Optional bearer token
	PingInterval     time.Duration // Keep-alive ping cadence
	HandshakeTimeout time.Duration
	WriteTimeout     time.Duration
	BufferSize       int // Inbound message channel capacity
}

// ManagerConfig configures the Connection Manager.
type ManagerConfig struct {
	WSURL                string
	APIKey               string
	PingInterval         time.Duration
	ReconnectBaseDelay   time.Duration // Linear backoff unit (attempt N waits N x this)
	MaxReconnectAttempts int           // Automatic retry ceiling
	HandshakeTimeout     time.Duration
	WriteTimeout         time.Duration
	BufferSize           int // Event channel capacity
}

// DefaultManagerConfig returns sensible defaults.
func DefaultManagerConfig() ManagerConfig {
	return ManagerConfig{
		PingInterval:         30 * time.Second,
		ReconnectBaseDelay:   1 * time.Second,
		MaxReconnectAttempts: 5,
		HandshakeTimeout:     10 * time.Second,
		WriteTimeout:         5 * time.Second,
		BufferSize:           256,
	}
}

// Stats provides a snapshot of the manager state.
type Stats struct {
	State             State
	ReconnectAttempts int
	FramesReceived    int64
	FramesDropped     int64 // Malformed frames
}
