// Package serialize converts a placement list to and from the
// placement-list JSON document shape, grounded on
// original_source/detail/detail_functions.py's
// serialize_details_to_json/deserialize_details_from_json.
package serialize

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/samber/lo"

	"github.com/piwi3910/slackpack/internal/geom"
)

// dto is the JSON wire shape for one placed rectangle: two coordinate
// pairs plus its name and type tag, exactly as spec.md's External
// Interfaces section names it.
type dto struct {
	BottomLeft [2]float64 `json:"bottom_left"`
	TopRight   [2]float64 `json:"top_right"`
	Name       string     `json:"name"`
	DetailType string     `json:"detail_type"`
}

func toDTO(r geom.Rectangle) dto {
	return dto{
		BottomLeft: [2]float64{r.BottomLeft.X, r.BottomLeft.Y},
		TopRight:   [2]float64{r.TopRight.X, r.TopRight.Y},
		Name:       r.Name,
		DetailType: string(r.DetailType),
	}
}

func fromDTO(d dto) geom.Rectangle {
	return geom.New(
		geom.Point{X: d.BottomLeft[0], Y: d.BottomLeft[1]},
		geom.Point{X: d.TopRight[0], Y: d.TopRight[1]},
		d.Name,
		geom.Type(d.DetailType),
	)
}

// Marshal encodes a placement list as indented JSON, matching the
// original tool's json.dump(..., indent=4) formatting.
func Marshal(placements []geom.Rectangle) ([]byte, error) {
	dtos := lo.Map(placements, func(r geom.Rectangle, _ int) dto { return toDTO(r) })
	b, err := json.MarshalIndent(dtos, "", "    ")
	if err != nil {
		return nil, fmt.Errorf("serialize: marshal placements: %w", err)
	}
	return b, nil
}

// Unmarshal decodes a placement list previously produced by Marshal.
func Unmarshal(data []byte) ([]geom.Rectangle, error) {
	var dtos []dto
	if err := json.Unmarshal(data, &dtos); err != nil {
		return nil, fmt.Errorf("serialize: unmarshal placements: %w", err)
	}
	return lo.Map(dtos, func(d dto, _ int) geom.Rectangle { return fromDTO(d) }), nil
}

// WriteFile serializes placements and writes them to path.
func WriteFile(path string, placements []geom.Rectangle) error {
	b, err := Marshal(placements)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("serialize: write %s: %w", path, err)
	}
	return nil
}

// ReadFile reads and deserializes a placement list previously written
// by WriteFile.
func ReadFile(path string) ([]geom.Rectangle, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("serialize: read %s: %w", path, err)
	}
	return Unmarshal(b)
}

// Encode writes a placement list as JSON to w, for streaming callers
// that do not want an intermediate byte slice.
func Encode(w io.Writer, placements []geom.Rectangle) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")
	dtos := lo.Map(placements, func(r geom.Rectangle, _ int) dto { return toDTO(r) })
	if err := enc.Encode(dtos); err != nil {
		return fmt.Errorf("serialize: encode placements: %w", err)
	}
	return nil
}
