// Package boxstore provides the Slack-Pack engine's box storage: a
// max-priority multiset of retired rectangles ordered by their shorter
// side, with three backends (in-memory, single-table external,
// partitioned external) built over a shared cached-coordinator core.
package boxstore

import "github.com/piwi3910/slackpack/internal/geom"

// Storage is the contract the engine's box selection relies on: add a
// retired box, and peek or pop the one with the largest minimum side.
type Storage interface {
	Add(box geom.Rectangle) error
	PeekMax() (geom.Rectangle, bool, error)
	PopMax() (geom.Rectangle, bool, error)
	// Close releases any resources (open database handles) held by the
	// backend. In-memory backends treat this as a no-op.
	Close() error
}

// less reports whether a has a strictly smaller minimum side than b,
// the single ordering relation every backend in this package is built
// around.
func less(a, b geom.Rectangle) bool {
	return a.MinSide() < b.MinSide()
}
