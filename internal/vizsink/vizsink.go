// Package vizsink defines the out-of-scope visualization collaborator's
// interface to the core: a pure consumer of the final placement list,
// plus the display settings it is configured with. No concrete
// renderer lives here; spec.md names interactive visualization as a
// consumer of the event stream and placement list, not part of the
// packing core. Grounded on
// original_source/visualization/settings.py's PlotSettings.
package vizsink

import (
	"errors"
	"fmt"

	"github.com/piwi3910/slackpack/internal/geom"
)

// ErrInvalidPercent is returned when a visibility-percent setting falls
// outside [0, 100].
var ErrInvalidPercent = errors.New("vizsink: percent value must be within [0, 100]")

// Sink renders a finished placement list against its originating
// sheet. Implementations (pan/zoom/hover UIs, static image export, ...)
// live outside this module.
type Sink interface {
	Render(sheet geom.Rectangle, placements []geom.Rectangle) error
}

// Settings controls how a Sink displays placed rectangles: per-type
// colors, visibility thresholds, and label sizing.
type Settings struct {
	DetailColors             map[geom.Type]string
	HoverDetailColor         string
	DetailEdgeColor          string
	TextColor                string
	BaseEdgeColor            string
	BaseFaceColor            string
	DetailVisiblePercent     float64
	TextVisiblePercent       float64
	NameFontSize             float64
	SizeFontSize             float64
	ConvertDigitsToSubscript bool
}

// SettingsOption configures a Settings value built by NewSettings.
type SettingsOption func(*Settings)

// WithDetailColors overrides the per-type color map.
func WithDetailColors(colors map[geom.Type]string) SettingsOption {
	return func(s *Settings) { s.DetailColors = colors }
}

// WithVisiblePercents overrides the detail and text visibility
// thresholds, each a percentage in [0, 100].
func WithVisiblePercents(detail, text float64) SettingsOption {
	return func(s *Settings) {
		s.DetailVisiblePercent = detail
		s.TextVisiblePercent = text
	}
}

// WithFontSizes overrides the name and size label font sizes.
func WithFontSizes(name, size float64) SettingsOption {
	return func(s *Settings) {
		s.NameFontSize = name
		s.SizeFontSize = size
	}
}

// NewSettings builds display Settings with the original tool's
// defaults (1% detail visibility, 10% text visibility, black/lightgray
// palette), applies opts, and validates both visibility percentages.
func NewSettings(opts ...SettingsOption) (Settings, error) {
	s := Settings{
		DetailColors:             map[geom.Type]string{},
		HoverDetailColor:         "red",
		DetailEdgeColor:          "black",
		TextColor:                "black",
		BaseEdgeColor:            "black",
		BaseFaceColor:            "lightgray",
		DetailVisiblePercent:     1,
		TextVisiblePercent:       10,
		NameFontSize:             15,
		SizeFontSize:             10,
		ConvertDigitsToSubscript: true,
	}
	for _, opt := range opts {
		opt(&s)
	}
	if err := validatePercent(s.DetailVisiblePercent); err != nil {
		return Settings{}, fmt.Errorf("detail_visible_percent: %w", err)
	}
	if err := validatePercent(s.TextVisiblePercent); err != nil {
		return Settings{}, fmt.Errorf("text_visible_percent: %w", err)
	}
	return s, nil
}

func validatePercent(v float64) error {
	if v < 0 || v > 100 {
		return ErrInvalidPercent
	}
	return nil
}
