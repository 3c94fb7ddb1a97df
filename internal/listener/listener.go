// Package listener provides the Slack-Pack engine's event-dispatch
// registry plus a set of ready-to-use statistic listeners.
package listener

import "github.com/piwi3910/slackpack/internal/event"

// Listener handles one event Tag; Handle is only ever called with
// events whose Tag() matches EventTag().
type Listener interface {
	Handle(e event.Event)
	EventTag() event.Tag
}

// Registry fans an event out to every registered Listener whose
// declared tag matches, synchronously, in registration order.
type Registry struct {
	listeners []Listener
}

// NewRegistry builds a Registry from an initial listener set.
func NewRegistry(listeners ...Listener) *Registry {
	return &Registry{listeners: listeners}
}

// Add appends a listener to the registry.
func (r *Registry) Add(l Listener) {
	r.listeners = append(r.listeners, l)
}

// Notify dispatches e to every listener whose EventTag matches e.Tag().
func (r *Registry) Notify(e event.Event) {
	for _, l := range r.listeners {
		if l.EventTag() == e.Tag() {
			l.Handle(e)
		}
	}
}
