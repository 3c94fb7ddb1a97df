package engine

import "errors"

// Sentinel errors returned by the Slack-Pack engine. Grounded on
// katalvlaran/lvlath's builder/dijkstra sentinel-error style: declared
// once, checked with errors.Is, wrapped with %w and call-site context.
var (
	// ErrLRPTooSmall is returned by PlaceNext when the remaining LRP
	// cannot yield a new stripe large enough for the current detail plus
	// its required slack gap. This is fatal: the run cannot continue.
	ErrLRPTooSmall = errors.New("engine: LRP is too small to cut a new stripe")

	// ErrInvalidConfiguration is returned by New when gamma or n0 are
	// out of range for the algorithm to be well-defined.
	ErrInvalidConfiguration = errors.New("engine: invalid configuration")

	// ErrStorageBackend wraps any error surfaced by the configured
	// boxstore.Storage backend during a placement step.
	ErrStorageBackend = errors.New("engine: storage backend error")
)
