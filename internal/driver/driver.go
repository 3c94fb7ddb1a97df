// Package driver pulls detail sizes from a generator and feeds them to
// a Slack-Pack engine until a placement quota is reached or a fatal
// error stops the run. Grounded on original_source/core/detail_placer.py.
package driver

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/piwi3910/slackpack/internal/detailgen"
	"github.com/piwi3910/slackpack/internal/engine"
	"github.com/piwi3910/slackpack/internal/geom"
)

// Result is what Run returns: the accumulated placements, how many
// details were successfully placed before stopping, and the error (if
// any) that ended the run early. A nil Err with PlacedCount == maxPlaced
// means the quota was reached cleanly. RunID identifies this run for
// correlating it with sink/listener output across a batch of runs.
type Result struct {
	RunID       string
	Placements  []geom.Rectangle
	PlacedCount int
	Err         error
}

// Run builds the initial placement list from sheet, then repeatedly
// pulls (width, height) pairs from gen and feeds them to eng.PlaceNext,
// up to maxPlaced times. Any error from the engine stops the run; the
// placements accumulated so far are still returned.
func Run(gen detailgen.Generator, sheet geom.Rectangle, eng *engine.Engine, maxPlaced int) Result {
	runID := uuid.NewString()
	placed := []geom.Rectangle{sheet}
	for i := 0; i < maxPlaced; i++ {
		w, h := gen.Next()
		if err := eng.PlaceNext(w, h, &placed); err != nil {
			return Result{
				RunID:       runID,
				Placements:  placed,
				PlacedCount: i,
				Err:         fmt.Errorf("driver: placement %d failed: %w", i, err),
			}
		}
	}
	return Result{RunID: runID, Placements: placed, PlacedCount: maxPlaced}
}
