package router

import (
	"context"
	"log/slog"
	"sync"

	"github.com/dkazakov/browser-relay/internal/event"
)

// Broadcaster fans events out to registered surfaces.
type Broadcaster interface {
	Broadcast(ev event.Inbound)
	SetStatus(ev event.Inbound)
}

// Badge is the user-visible status indicator.
type Badge interface {
	SetRunning()
	SetSuccess()
	SetFailure()
}

// StateStore persists the last known browser state.
type StateStore interface {
	SaveBrowserState(state []byte) error
}

// Notifier surfaces user-visible alerts.
type Notifier interface {
	Alert(message string)
}

// Stats contains runtime statistics.
type Stats struct {
	Received         int64
	Published        int64 // Locally-originated events
	SideEffectErrors int64
}

// Router dispatches inbound events to broadcast and side-effect handlers.
type Router interface {
	// Start begins routing events from the input channel.
	Start(ctx context.Context) error

	// Stop gracefully shuts down the router.
	Stop(ctx context.Context) error

	// Publish injects a locally-originated event (e.g., a submission
	// result) into the same routing path as backend events.
	Publish(ev event.Inbound)

	// Stats returns current statistics.
	Stats() Stats
}

// router is the internal implementation.
type router struct {
	logger *slog.Logger

	input <-chan event.Inbound
	local chan event.Inbound

	broadcaster Broadcaster
	badge       Badge
	store       StateStore
	notifier    Notifier

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu               sync.Mutex
	received         int64
	published        int64
	sideEffectErrors int64
}

// NewRouter creates a Message Router consuming the given event stream.
func NewRouter(input <-chan event.Inbound, broadcaster Broadcaster, badge Badge, store StateStore, notifier Notifier, logger *slog.Logger) Router {
	if logger == nil {
		logger = slog.Default()
	}

	return &router{
		logger:      logger,
		input:       input,
		local:       make(chan event.Inbound, 64),
		broadcaster: broadcaster,
		badge:       badge,
		store:       store,
		notifier:    notifier,
	}
}

// Start begins routing events.
func (r *router) Start(ctx context.Context) error {
	r.ctx, r.cancel = context.WithCancel(ctx)

	r.wg.Add(1)
	go r.routeLoop()

	r.logger.Info("message router started")
	return nil
}

// Stop gracefully shuts down the router.
func (r *router) Stop(ctx context.Context) error {
	if r.cancel != nil {
		r.cancel()
	}

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.logger.Info("message router stopped")
	case <-ctx.Done():
		r.logger.Warn("message router stop timed out")
	}

	return nil
}

// Publish injects a locally-originated event into the routing path.
func (r *router) Publish(ev event.Inbound) {
	r.mu.Lock()
	r.published++
	r.mu.Unlock()

	if r.ctx == nil {
		r.local <- ev
		return
	}

	select {
	case r.local <- ev:
	case <-r.ctx.Done():
	}
}

// Stats returns current statistics.
func (r *router) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Stats{
		Received:         r.received,
		Published:        r.published,
		SideEffectErrors: r.sideEffectErrors,
	}
}

// routeLoop is the main routing goroutine. A single consumer preserves
// arrival order end to end.
func (r *router) routeLoop() {
	defer r.wg.Done()

	for {
		select {
		case <-r.ctx.Done():
			return
		case ev, ok := <-r.input:
			if !ok {
				r.logger.Info("input channel closed")
				return
			}
			r.route(ev)
		case ev := <-r.local:
			r.route(ev)
		}
	}
}

// route handles a single event: broadcast first, side effect second.
func (r *router) route(ev event.Inbound) {
	r.mu.Lock()
	r.received++
	r.mu.Unlock()

	// Every surface sees the raw event, whatever its type.
	r.broadcaster.Broadcast(ev)

	switch ev.Type {
	case event.TypeTaskUpdate:
		r.routeTaskUpdate(ev)

	case event.TypeBrowserState:
		if len(ev.State) == 0 {
			r.logger.Warn("browser_state event without state payload")
			return
		}
		if err := r.store.SaveBrowserState(ev.State); err != nil {
			r.logger.Error("failed to persist browser state", "error", err)
			r.mu.Lock()
			r.sideEffectErrors++
			r.mu.Unlock()
		}

	case event.TypeError:
		// An empty message still produces an alert: surfaces already saw
		// the raw event, and suppressing here would hide real failures
		// that arrive without text.
		r.notifier.Alert(ev.Message)

	case event.TypeConnectionStatus:
		r.broadcaster.SetStatus(ev)

	case event.TypePing, event.TypeTaskCreated:
		// Broadcast only.

	default:
		r.logger.Debug("unknown event type, broadcast only", "type", ev.Type)
	}
}

func (r *router) routeTaskUpdate(ev event.Inbound) {
	switch ev.Status {
	case event.StatusRunning:
		r.badge.SetRunning()
	case event.StatusCompleted:
		r.badge.SetSuccess()
	case event.StatusFailed:
		r.badge.SetFailure()
	default:
		r.logger.Debug("task_update with unknown status", "status", ev.Status)
	}
}
