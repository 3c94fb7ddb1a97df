// Package event defines the closed set of notifications the Slack-Pack
// engine emits while it runs, consumed by internal/listener.
package event

import "github.com/piwi3910/slackpack/internal/geom"

// Tag identifies which of the four event kinds an Event carries.
type Tag string

const (
	TagBeforeLRPCut      Tag = "before_lrp_cut"
	TagAfterLRPCut       Tag = "after_lrp_cut"
	TagAfterDetailPlaced Tag = "after_detail_placed"
	TagEnd               Tag = "end"
)

// Event is satisfied by every event kind the engine can emit.
type Event interface {
	Tag() Tag
}

// Base carries the engine's full state snapshot at the moment an event
// fires; it is embedded by every concrete event below.
type Base struct {
	Gamma                     float64
	N0                        int
	MaxPlaced                 int
	LRP                       geom.Rectangle
	ActiveBox                 *geom.Rectangle
	ActiveBoxFirstDetailIndex int
	IsActiveBoxHorizontal     bool
	LastPlacedIndex           int
	EndpointsPlaced           int
	ActiveBoxFrom             geom.Type
	DetailWidth               float64
	DetailHeight              float64
	Placed                    []geom.Rectangle
}

// BeforeLRPCut fires immediately before a new stripe is cut from the LRP.
type BeforeLRPCut struct {
	Base
}

func (BeforeLRPCut) Tag() Tag { return TagBeforeLRPCut }

// AfterLRPCut fires immediately after a new stripe has been cut from the LRP.
type AfterLRPCut struct {
	Base
}

func (AfterLRPCut) Tag() Tag { return TagAfterLRPCut }

// AfterDetailPlaced fires once a detail has been placed into the active box.
type AfterDetailPlaced struct {
	Base
	PlacedDetail geom.Rectangle
	NormalBox    geom.Rectangle
	Endpoint     geom.Rectangle
}

func (AfterDetailPlaced) Tag() Tag { return TagAfterDetailPlaced }

// End fires once the configured maximum number of details has been placed.
type End struct {
	Base
}

func (End) Tag() Tag { return TagEnd }
