package backend

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/dkazakov/browser-relay/internal/event"
)

// Manager owns the singleton backend connection.
type Manager interface {
	// Connect opens a connection to the backend, closing any live one
	// first. Safe to call repeatedly; each call supersedes the previous
	// connection and re-arms automatic reconnection.
	Connect(ctx context.Context) error

	// Stop shuts the manager down and closes the event channel.
	Stop(ctx context.Context) error

	// Events returns the ordered stream of inbound events, including
	// synthesized connection_status events.
	Events() <-chan event.Inbound

	// State returns the current lifecycle state.
	State() State

	// Stats returns a snapshot of manager counters.
	Stats() Stats
}

// DialFunc constructs the transport for one connection attempt. Tests
// substitute a fake transport here.
type DialFunc func(cfg ClientConfig, logger *slog.Logger) Client

// ManagerOption configures a Manager.
type ManagerOption func(*manager)

// WithDialFunc replaces the transport constructor.
func WithDialFunc(dial DialFunc) ManagerOption {
	return func(m *manager) {
		m.dial = dial
	}
}

// manager implements the Manager interface.
type manager struct {
	cfg    ManagerConfig
	logger *slog.Logger
	dial   DialFunc

	events chan event.Inbound

	mu             sync.Mutex
	state          State
	client         Client
	attempts       int
	gen            int // connection generation; stale monitors and timers check it
	reconnectTimer *time.Timer
	dialCtx        context.Context
	stopped        bool

	statsMu        sync.Mutex
	framesReceived int64
	framesDropped  int64

	eventsMu     sync.Mutex
	eventsClosed bool

	wg sync.WaitGroup
}

// NewManager creates a Connection Manager. No connection is opened until
// Connect is called.
func NewManager(cfg ManagerConfig, logger *slog.Logger, opts ...ManagerOption) Manager {
	if logger == nil {
		logger = slog.Default()
	}

	m := &manager{
		cfg:    cfg,
		logger: logger,
		dial:   NewClient,
		events: make(chan event.Inbound, cfg.BufferSize),
		state:  StateDisconnected,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Connect opens a new connection, closing any existing one first.
func (m *manager) Connect(ctx context.Context) error {
	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return ErrStopped
	}

	// Supersede: cancel any pending reconnect and retire the old connection.
	if m.reconnectTimer != nil {
		m.reconnectTimer.Stop()
		m.reconnectTimer = nil
	}
	m.gen++
	gen := m.gen
	old := m.client
	m.client = nil
	m.state = StateConnecting
	m.dialCtx = ctx

	cl := m.dial(ClientConfig{
		URL:              m.cfg.WSURL,
		APIKey:           m.cfg.APIKey,
		PingInterval:     m.cfg.PingInterval,
		HandshakeTimeout: m.cfg.HandshakeTimeout,
		WriteTimeout:     m.cfg.WriteTimeout,
		BufferSize:       m.cfg.BufferSize,
	}, m.logger)
	m.mu.Unlock()

	if old != nil {
		old.Close()
	}

	if err := m.dialOnce(ctx, cl, gen); err != nil {
		return err
	}
	return nil
}

// dialOnce attempts one connection. A dial failure counts as a closure:
// it emits a disconnected status and arms the backoff timer.
func (m *manager) dialOnce(ctx context.Context, cl Client, gen int) error {
	err := cl.Connect(ctx)

	m.mu.Lock()
	if gen != m.gen || m.stopped {
		m.mu.Unlock()
		cl.Close()
		return err
	}

	if err != nil {
		m.state = StateDisconnected
		m.mu.Unlock()

		m.logger.Warn("backend connection failed", "url", m.cfg.WSURL, "error", err)
		m.emit(event.ConnectionStatus(false))
		m.scheduleReconnect()
		return err
	}

	m.state = StateConnected
	m.client = cl
	m.attempts = 0
	m.mu.Unlock()

	m.logger.Info("backend connected", "url", m.cfg.WSURL)
	m.emit(event.ConnectionStatus(true))

	m.wg.Add(1)
	go m.monitor(cl, gen)

	return nil
}

// monitor pumps one connection's frames and errors until it terminates.
func (m *manager) monitor(cl Client, gen int) {
	defer m.wg.Done()

	for {
		select {
		case err := <-cl.Errors():
			// Transport errors are surfaced but do not drive reconnection;
			// only closure does.
			m.logger.Warn("transport error", "error", err)
			m.emit(event.ErrorEvent("connection error: " + err.Error()))

		case data := <-cl.Messages():
			m.handleFrame(data)

		case <-cl.Done():
			// Drain a trailing transport error so it is not lost.
			select {
			case err := <-cl.Errors():
				m.logger.Warn("transport error", "error", err)
				m.emit(event.ErrorEvent("connection error: " + err.Error()))
			default:
			}
			m.handleClose(gen)
			return
		}
	}
}

// handleFrame parses one inbound frame. Malformed frames never reach the
// router: they are logged and dropped here.
func (m *manager) handleFrame(data []byte) {
	m.statsMu.Lock()
	m.framesReceived++
	m.statsMu.Unlock()

	ev, err := event.Parse(data)
	if err != nil {
		m.logger.Warn("dropping malformed frame", "error", err)
		m.statsMu.Lock()
		m.framesDropped++
		m.statsMu.Unlock()
		return
	}

	m.emit(ev)
}

// handleClose reacts to connection termination: emit a disconnected status
// and arm the backoff timer, unless a newer Connect superseded us.
func (m *manager) handleClose(gen int) {
	m.mu.Lock()
	if gen != m.gen || m.stopped {
		m.mu.Unlock()
		return
	}
	m.state = StateDisconnected
	m.client = nil
	m.mu.Unlock()

	m.logger.Info("backend disconnected")
	m.emit(event.ConnectionStatus(false))
	m.scheduleReconnect()
}

// scheduleReconnect arms the linear-backoff timer. Attempt N waits
// N x ReconnectBaseDelay; after the ceiling, automatic retries stop until
// the next manual Connect.
func (m *manager) scheduleReconnect() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.stopped {
		return
	}
	if m.attempts >= m.cfg.MaxReconnectAttempts {
		m.logger.Warn("reconnect ceiling reached, manual connect required",
			"attempts", m.attempts,
		)
		return
	}

	m.attempts++
	delay := time.Duration(m.attempts) * m.cfg.ReconnectBaseDelay
	gen := m.gen
	ctx := m.dialCtx

	m.logger.Info("scheduling reconnect",
		"attempt", m.attempts,
		"delay", delay,
	)

	m.reconnectTimer = time.AfterFunc(delay, func() {
		m.mu.Lock()
		stale := gen != m.gen || m.stopped
		m.mu.Unlock()
		if stale {
			return
		}
		m.reconnect(ctx)
	})
}

// reconnect is one automatic retry. Unlike Connect it preserves the
// attempt counter so the backoff keeps growing across failures.
func (m *manager) reconnect(ctx context.Context) {
	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return
	}
	m.reconnectTimer = nil
	m.gen++
	gen := m.gen
	old := m.client
	m.client = nil
	m.state = StateConnecting

	cl := m.dial(ClientConfig{
		URL:              m.cfg.WSURL,
		APIKey:           m.cfg.APIKey,
		PingInterval:     m.cfg.PingInterval,
		HandshakeTimeout: m.cfg.HandshakeTimeout,
		WriteTimeout:     m.cfg.WriteTimeout,
		BufferSize:       m.cfg.BufferSize,
	}, m.logger)
	m.mu.Unlock()

	if old != nil {
		old.Close()
	}

	m.dialOnce(ctx, cl, gen)
}

// Stop shuts the manager down.
func (m *manager) Stop(ctx context.Context) error {
	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return nil
	}
	m.stopped = true
	m.gen++
	if m.reconnectTimer != nil {
		m.reconnectTimer.Stop()
		m.reconnectTimer = nil
	}
	cl := m.client
	m.client = nil
	m.state = StateDisconnected
	m.mu.Unlock()

	if cl != nil {
		cl.Close()
	}

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		m.logger.Warn("connection manager stop timed out")
	}

	m.eventsMu.Lock()
	m.eventsClosed = true
	close(m.events)
	m.eventsMu.Unlock()
	m.logger.Info("connection manager stopped")
	return nil
}

// Events returns the inbound event channel.
func (m *manager) Events() <-chan event.Inbound {
	return m.events
}

// State returns the current lifecycle state.
func (m *manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Stats returns a snapshot of manager counters.
func (m *manager) Stats() Stats {
	m.mu.Lock()
	state := m.state
	attempts := m.attempts
	m.mu.Unlock()

	m.statsMu.Lock()
	defer m.statsMu.Unlock()
	return Stats{
		State:             state,
		ReconnectAttempts: attempts,
		FramesReceived:    m.framesReceived,
		FramesDropped:     m.framesDropped,
	}
}

// emit forwards an event to the router channel without blocking the
// connection goroutines.
func (m *manager) emit(ev event.Inbound) {
	m.eventsMu.Lock()
	defer m.eventsMu.Unlock()
	if m.eventsClosed {
		return
	}

	select {
	case m.events <- ev:
	default:
		m.logger.Warn("event buffer full, dropping event", "type", ev.Type)
	}
}
