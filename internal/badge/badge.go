// Package badge tracks the user-visible status indicator.
//
// The indicator mirrors a toolbar icon badge: a transient "in-progress"
// marker while a task runs, a success marker that clears itself after a
// short delay, and a failure marker that stays until the next task.
package badge

import (
	"log/slog"
	"sync"
	"time"
)

// State identifies the indicator state.
type State string

const (
	StateIdle    State = "idle"
	StateRunning State = "running"
	StateSuccess State = "success"
	StateFailure State = "failure"
)

// Status is the rendered form of the indicator.
type Status struct {
	State State
	Text  string
	Color string
}

// Rendered badge text and colors per state.
var renderings = map[State]Status{
	StateIdle:    {State: StateIdle, Text: "", Color: ""},
	StateRunning: {State: StateRunning, Text: "...", Color: "#2563EB"},
	StateSuccess: {State: StateSuccess, Text: "✓", Color: "#16A34A"},
	StateFailure: {State: StateFailure, Text: "!", Color: "#DC2626"},
}

// Indicator holds the current badge state. Safe for concurrent use.
type Indicator struct {
	mu         sync.Mutex
	state      State
	clearAfter time.Duration
	logger     *slog.Logger
	onChange   func(Status)

	clearTimer *time.Timer
	gen        int // invalidates stale auto-clear timers
}

// Option configures an Indicator.
type Option func(*Indicator)

// WithOnChange registers a hook invoked on every state transition.
func WithOnChange(fn func(Status)) Option {
	return func(i *Indicator) {
		i.onChange = fn
	}
}

// New creates an Indicator. clearAfter is how long a success marker stays
// visible before reverting to idle.
func New(clearAfter time.Duration, logger *slog.Logger, opts ...Option) *Indicator {
	if logger == nil {
		logger = slog.Default()
	}

	i := &Indicator{
		state:      StateIdle,
		clearAfter: clearAfter,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Status returns the current rendered indicator.
func (i *Indicator) Status() Status {
	i.mu.Lock()
	defer i.mu.Unlock()
	return renderings[i.state]
}

// SetRunning marks a task as in progress.
func (i *Indicator) SetRunning() {
	i.set(StateRunning)
}

// SetSuccess marks the last task as completed. The marker reverts to idle
// after the configured delay unless another transition happens first.
func (i *Indicator) SetSuccess() {
	i.mu.Lock()
	i.transition(StateSuccess)
	gen := i.gen
	i.clearTimer = time.AfterFunc(i.clearAfter, func() {
		i.clearIfCurrent(gen)
	})
	i.mu.Unlock()
	i.notify()
}

// SetFailure marks the last task as failed. Never auto-clears.
func (i *Indicator) SetFailure() {
	i.set(StateFailure)
}

// Clear resets the indicator to idle.
func (i *Indicator) Clear() {
	i.set(StateIdle)
}

func (i *Indicator) set(s State) {
	i.mu.Lock()
	i.transition(s)
	i.mu.Unlock()
	i.notify()
}

// transition updates state and cancels any pending auto-clear. Caller holds mu.
func (i *Indicator) transition(s State) {
	if i.clearTimer != nil {
		i.clearTimer.Stop()
		i.clearTimer = nil
	}
	i.gen++
	i.state = s
	i.logger.Debug("badge state", "state", s)
}

// clearIfCurrent reverts to idle only if no transition happened since the
// success that scheduled it.
func (i *Indicator) clearIfCurrent(gen int) {
	i.mu.Lock()
	if i.gen != gen {
		i.mu.Unlock()
		return
	}
	i.gen++
	i.state = StateIdle
	i.clearTimer = nil
	i.mu.Unlock()
	i.notify()
}

func (i *Indicator) notify() {
	if i.onChange != nil {
		i.onChange(i.Status())
	}
}
