package listener

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/piwi3910/slackpack/internal/event"
	"github.com/piwi3910/slackpack/internal/geom"
	"github.com/piwi3910/slackpack/internal/sink"
)

// PrintEachN writes a message every time the n-th detail (by placement
// index) is placed.
type PrintEachN struct {
	n    int
	sink sink.Sink
}

// NewPrintEachN returns a PrintEachN listener reporting every n details.
func NewPrintEachN(n int, s sink.Sink) *PrintEachN {
	return &PrintEachN{n: n, sink: s}
}

func (l *PrintEachN) EventTag() event.Tag { return event.TagAfterDetailPlaced }

func (l *PrintEachN) Handle(e event.Event) {
	ev, ok := e.(event.AfterDetailPlaced)
	if !ok || ev.LastPlacedIndex%l.n != 0 {
		return
	}
	l.sink.Write(fmt.Sprintf("Placed detail with index %d", ev.LastPlacedIndex))
}

// PrintInfoAtEnd writes a summary line once the run has finished.
type PrintInfoAtEnd struct {
	sink sink.Sink
}

// NewPrintInfoAtEnd returns an end-of-run summary listener.
func NewPrintInfoAtEnd(s sink.Sink) *PrintInfoAtEnd {
	return &PrintInfoAtEnd{sink: s}
}

func (l *PrintInfoAtEnd) EventTag() event.Tag { return event.TagEnd }

func (l *PrintInfoAtEnd) Handle(e event.Event) {
	ev, ok := e.(event.End)
	if !ok {
		return
	}
	l.sink.Write(fmt.Sprintf("Slack Pack algorithm with n0 = %d and gamma = %v ended", ev.N0, ev.Gamma))
}

// ExecutionTimeTracker reports wall-clock time per block of n placed
// details, plus a running mean block duration and the total time once
// the run ends.
type ExecutionTimeTracker struct {
	n                  int
	sink               sink.Sink
	start              time.Time
	blockStart         time.Time
	blockNum           int
	blockDurationsSecs []float64
}

// NewExecutionTimeTracker reports timing every n placed details.
func NewExecutionTimeTracker(n int, s sink.Sink) *ExecutionTimeTracker {
	return &ExecutionTimeTracker{n: n, sink: s, blockNum: 1}
}

func (l *ExecutionTimeTracker) EventTag() event.Tag { return event.TagAfterDetailPlaced }

func (l *ExecutionTimeTracker) Handle(e event.Event) {
	ev, ok := e.(event.AfterDetailPlaced)
	if !ok {
		return
	}
	now := time.Now()
	if l.start.IsZero() {
		l.start = now
	}
	if l.blockStart.IsZero() {
		l.blockStart = now
	}
	if ev.LastPlacedIndex%l.n == 0 {
		elapsed := time.Since(l.blockStart).Seconds()
		l.blockDurationsSecs = append(l.blockDurationsSecs, elapsed)
		mean := stat.Mean(l.blockDurationsSecs, nil)
		l.sink.Write(fmt.Sprintf("Execution time of block %d of %d details: %.6f seconds (running mean %.6f)",
			l.blockNum, l.n, elapsed, mean))
		l.blockNum++
		l.blockStart = time.Time{}
	}
	if ev.LastPlacedIndex == ev.N0+ev.MaxPlaced-1 {
		l.sink.Write(fmt.Sprintf("Full execution time: %.6f seconds", time.Since(l.start).Seconds()))
	}
}

// NormalBoxMaxRatioTracker tracks runs of increasing min/max^gamma ratio
// among produced normal boxes and reports each run's index and value
// bounds once it breaks.
type NormalBoxMaxRatioTracker struct {
	sink                    sink.Sink
	currentMax              float64
	startIndex, finishIndex int
	hasRun                  bool
	startValue, finishValue float64
}

// NewNormalBoxMaxRatioTracker reports each maximal run of the
// min-side/max-side^gamma ratio among produced normal boxes.
func NewNormalBoxMaxRatioTracker(s sink.Sink) *NormalBoxMaxRatioTracker {
	return &NormalBoxMaxRatioTracker{sink: s, currentMax: math.Inf(-1)}
}

func (l *NormalBoxMaxRatioTracker) EventTag() event.Tag { return event.TagAfterDetailPlaced }

func (l *NormalBoxMaxRatioTracker) Handle(e event.Event) {
	ev, ok := e.(event.AfterDetailPlaced)
	if !ok {
		return
	}
	minSize := math.Min(ev.NormalBox.Height(), ev.NormalBox.Width())
	maxSize := math.Max(ev.NormalBox.Height(), ev.NormalBox.Width())
	value := minSize / math.Pow(maxSize, ev.Gamma)
	if value > l.currentMax {
		l.currentMax = value
		l.finishIndex = ev.LastPlacedIndex
		l.finishValue = value
		if !l.hasRun {
			l.startIndex = ev.LastPlacedIndex
			l.startValue = value
			l.hasRun = true
		}
	} else if l.hasRun {
		l.sink.Write(fmt.Sprintf("%d - %d: %v - %v", l.startIndex, l.finishIndex, l.startValue, l.finishValue))
		l.hasRun = false
	}
}

// NormalBoxFinalMaxRatioTracker reports only the overall maximum
// min/max^gamma ratio, once the run ends.
type NormalBoxFinalMaxRatioTracker struct {
	sink       sink.Sink
	currentMax float64
}

// NewNormalBoxFinalMaxRatioTracker reports the single maximal ratio
// observed across the entire run.
func NewNormalBoxFinalMaxRatioTracker(s sink.Sink) *NormalBoxFinalMaxRatioTracker {
	return &NormalBoxFinalMaxRatioTracker{sink: s, currentMax: math.Inf(-1)}
}

func (l *NormalBoxFinalMaxRatioTracker) EventTag() event.Tag { return event.TagAfterDetailPlaced }

func (l *NormalBoxFinalMaxRatioTracker) Handle(e event.Event) {
	ev, ok := e.(event.AfterDetailPlaced)
	if !ok {
		return
	}
	minSize := math.Min(ev.NormalBox.Height(), ev.NormalBox.Width())
	maxSize := math.Max(ev.NormalBox.Height(), ev.NormalBox.Width())
	value := minSize / math.Pow(maxSize, ev.Gamma)
	if value > l.currentMax {
		l.currentMax = value
	}
	if ev.LastPlacedIndex == ev.N0+ev.MaxPlaced-1 {
		l.sink.Write(fmt.Sprintf("n0 = %d, gamma = %v, max_ratio = %v", ev.N0, ev.Gamma, l.currentMax))
	}
}

// LRPOccupancyRatioTracker reports the LRP's share of total free
// (non-detail) placed area before each stripe cut. Requires the engine
// to be run with update placements enabled.
type LRPOccupancyRatioTracker struct {
	sink sink.Sink
}

// NewLRPOccupancyRatioTracker requires the placements list to be kept
// up to date (engine.WithUpdatePlacements(true)).
func NewLRPOccupancyRatioTracker(s sink.Sink) *LRPOccupancyRatioTracker {
	return &LRPOccupancyRatioTracker{sink: s}
}

func (l *LRPOccupancyRatioTracker) EventTag() event.Tag { return event.TagBeforeLRPCut }

func (l *LRPOccupancyRatioTracker) Handle(e event.Event) {
	ev, ok := e.(event.BeforeLRPCut)
	if !ok {
		return
	}
	lrpArea := ev.LRP.Area()
	var freeArea float64
	for _, d := range ev.Placed {
		if d.DetailType != geom.TypeDetail {
			freeArea += d.Area()
		}
	}
	l.sink.Write(fmt.Sprintf("Placed: %d, lrp: %v", ev.LastPlacedIndex, lrpArea/freeArea))
}

// LRPOccupancyRatioHarmonicRectangleTracker is a cheaper equivalent of
// LRPOccupancyRatioTracker specialized for the harmonic-rectangle
// stream: the free area has a closed form, so it works even when the
// engine is run with update placements disabled.
type LRPOccupancyRatioHarmonicRectangleTracker struct {
	sink sink.Sink
}

// NewLRPOccupancyRatioHarmonicRectangleTracker works without
// update-placements enabled, at the cost of being specific to the
// harmonic rectangle generator's area formula.
func NewLRPOccupancyRatioHarmonicRectangleTracker(s sink.Sink) *LRPOccupancyRatioHarmonicRectangleTracker {
	return &LRPOccupancyRatioHarmonicRectangleTracker{sink: s}
}

func (l *LRPOccupancyRatioHarmonicRectangleTracker) EventTag() event.Tag { return event.TagBeforeLRPCut }

func (l *LRPOccupancyRatioHarmonicRectangleTracker) Handle(e event.Event) {
	ev, ok := e.(event.BeforeLRPCut)
	if !ok {
		return
	}
	lrpArea := ev.LRP.Area()
	freeArea := 1 / float64(ev.LastPlacedIndex+1)
	l.sink.Write(fmt.Sprintf("Placed: %d, lrp: %v", ev.LastPlacedIndex, lrpArea/freeArea))
}
