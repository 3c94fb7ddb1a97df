package engine

import (
	"github.com/piwi3910/slackpack/internal/listener"
)

// Options configures a new Engine. Built via functional options,
// grounded on katalvlaran/lvlath/dijkstra's Option func(*Options) style.
type Options struct {
	Listeners            []listener.Listener
	UpdatePlacements     bool
	ReproduceOriginalBug bool
}

// Option mutates an Options value during Engine construction.
type Option func(*Options)

// defaultOptions matches the original tool's constructor defaults:
// update_placed_details defaults to True, no listeners, and the
// corrected (non-buggy) retire behavior.
func defaultOptions() Options {
	return Options{
		UpdatePlacements:     true,
		ReproduceOriginalBug: false,
	}
}

// WithListeners registers statistic listeners to notify as the engine runs.
func WithListeners(listeners ...listener.Listener) Option {
	return func(o *Options) {
		o.Listeners = append(o.Listeners, listeners...)
	}
}

// WithUpdatePlacements controls whether the engine keeps the caller's
// placements slice in sync with the LRP/active-box/endpoint bookkeeping.
// Disabling this speeds up large runs at the cost of listeners and
// callers that depend on reading back the full placement list.
func WithUpdatePlacements(update bool) Option {
	return func(o *Options) {
		o.UpdatePlacements = update
	}
}

// WithReproduceOriginalBug restores the original tool's behavior of
// re-adding a retired active box to storage instead of discarding it.
// See DESIGN.md's Open Question note; default behavior discards.
func WithReproduceOriginalBug() Option {
	return func(o *Options) {
		o.ReproduceOriginalBug = true
	}
}
