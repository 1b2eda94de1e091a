// Package surface implements the Port Registry: the set of live UI
// surfaces (popups) that receive every broadcast event.
package surface

import (
	"log/slog"
	"sync"

	"github.com/dkazakov/browser-relay/internal/event"
)

// Surface is one live UI connection registered for updates.
type Surface interface {
	// ID uniquely identifies this surface for the registry set.
	ID() string

	// Name is the registration name (e.g., "popup").
	Name() string

	// Send delivers one event. An error means the surface channel is dead
	// and the surface will be unregistered.
	Send(ev event.Inbound) error
}

// Registry tracks registered surfaces and fans events out to them.
// Membership is a set keyed by surface ID; no ordering guarantee.
type Registry struct {
	logger *slog.Logger

	mu       sync.Mutex
	surfaces map[string]Surface
	status   event.Inbound // latest connection_status, sent to new registrants
}

// NewRegistry creates an empty registry. Until the first connection_status
// arrives, new registrants are told the backend is disconnected.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		logger:   logger,
		surfaces: make(map[string]Surface),
		status:   event.ConnectionStatus(false),
	}
}

// Register adds a surface and immediately sends it the current connection
// status so a newly-opened popup never starts blind.
func (r *Registry) Register(s Surface) {
	r.mu.Lock()
	r.surfaces[s.ID()] = s
	status := r.status
	r.mu.Unlock()

	r.logger.Debug("surface registered", "id", s.ID(), "name", s.Name())

	if err := s.Send(status); err != nil {
		r.logger.Warn("initial status delivery failed, dropping surface",
			"id", s.ID(),
			"error", err,
		)
		r.Unregister(s)
	}
}

// Unregister removes a surface from the set. Safe to call for a surface
// that was already removed.
func (r *Registry) Unregister(s Surface) {
	r.mu.Lock()
	_, ok := r.surfaces[s.ID()]
	delete(r.surfaces, s.ID())
	r.mu.Unlock()

	if ok {
		r.logger.Debug("surface unregistered", "id", s.ID(), "name", s.Name())
	}
}

// Broadcast delivers ev to every currently-registered surface. A failed
// delivery unregisters that surface (implicit disconnect) and the
// broadcast continues for the rest.
func (r *Registry) Broadcast(ev event.Inbound) {
	r.mu.Lock()
	targets := make([]Surface, 0, len(r.surfaces))
	for _, s := range r.surfaces {
		targets = append(targets, s)
	}
	r.mu.Unlock()

	for _, s := range targets {
		if err := s.Send(ev); err != nil {
			r.logger.Warn("delivery failed, dropping surface",
				"id", s.ID(),
				"name", s.Name(),
				"type", ev.Type,
				"error", err,
			)
			r.Unregister(s)
		}
	}
}

// SetStatus records the latest connection status for future registrants.
func (r *Registry) SetStatus(ev event.Inbound) {
	r.mu.Lock()
	r.status = ev
	r.mu.Unlock()
}

// Len returns the number of registered surfaces.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.surfaces)
}
