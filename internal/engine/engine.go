// Package engine implements the Slack-Pack placement algorithm: given a
// stream of shrinking detail sizes, place each one into the sheet,
// reusing retired box space via a boxstore.Storage and cutting fresh
// stripes from the Large Rectangular Piece (LRP) when no box fits.
package engine

import (
	"fmt"
	"math"

	"github.com/piwi3910/slackpack/internal/boxstore"
	"github.com/piwi3910/slackpack/internal/event"
	"github.com/piwi3910/slackpack/internal/geom"
	"github.com/piwi3910/slackpack/internal/listener"
)

// Engine runs the Slack-Pack algorithm against a single sheet. It is
// not safe for concurrent use: PlaceNext must be called from one
// goroutine at a time, in generator order, per spec.
type Engine struct {
	gamma     float64
	n0        int
	maxPlaced int
	storage   boxstore.Storage
	registry  *listener.Registry
	opts      Options

	lrp                       *geom.Rectangle
	activeBox                 *geom.Rectangle
	activeBoxFirstDetailIndex int
	isActiveBoxHorizontal     bool
	lastPlacedIndex           int
	endpointsPlaced           int
	activeBoxFrom             geom.Type
}

// New builds an Engine. gamma controls the slack-gap exponent, n0 is
// the starting detail index, maxPlaced bounds how many details will be
// placed, and storage supplies retired-box reuse.
func New(gamma float64, n0, maxPlaced int, storage boxstore.Storage, opts ...Option) (*Engine, error) {
	if gamma <= 0 {
		return nil, fmt.Errorf("gamma must be positive: %w", ErrInvalidConfiguration)
	}
	if n0 < 1 {
		return nil, fmt.Errorf("n0 must be >= 1: %w", ErrInvalidConfiguration)
	}
	if maxPlaced < 0 {
		return nil, fmt.Errorf("maxPlaced must be >= 0: %w", ErrInvalidConfiguration)
	}
	cfg := defaultOptions()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Engine{
		gamma:                     gamma,
		n0:                        n0,
		maxPlaced:                 maxPlaced,
		storage:                   storage,
		registry:                  listener.NewRegistry(cfg.Listeners...),
		opts:                      cfg,
		activeBoxFirstDetailIndex: n0 - 1,
		lastPlacedIndex:           n0 - 1,
		endpointsPlaced:           1,
	}, nil
}

// PlaceNext places one detail of the given width/height into placed,
// mutating placed in place when WithUpdatePlacements(true) is set
// (the default). placed must already contain exactly the base sheet as
// its first element on the very first call.
func (e *Engine) PlaceNext(width, height float64, placed *[]geom.Rectangle) error {
	if err := e.checkIfLRPNone(placed); err != nil {
		return err
	}
	if err := e.checkActiveBoxSize(width, height); err != nil {
		return err
	}
	if err := e.chooseActiveBox(width, height, placed); err != nil {
		return err
	}
	return e.placeDetailInActiveBox(width, height, placed)
}

func (e *Engine) checkIfLRPNone(placed *[]geom.Rectangle) error {
	if e.lrp == nil {
		if len(*placed) == 0 {
			return fmt.Errorf("engine: placed list must seed the base sheet: %w", ErrInvalidConfiguration)
		}
		lrp := (*placed)[0]
		e.lrp = &lrp
	}
	return nil
}

// checkActiveBoxSize retires the active box once it can no longer fit
// the current detail plus its required slack gap. The retired box is
// discarded by default (see DESIGN.md's Open Question decision); pass
// WithReproduceOriginalBug() to re-add it to storage instead.
func (e *Engine) checkActiveBoxSize(width, _ float64) error {
	if e.activeBox == nil {
		return nil
	}
	requiredGap := math.Pow(1/float64(e.activeBoxFirstDetailIndex), e.gamma)
	totalLength := width + requiredGap
	exceeds := (e.isActiveBoxHorizontal && totalLength > e.activeBox.Width()) ||
		(!e.isActiveBoxHorizontal && totalLength > e.activeBox.Height())
	if !exceeds {
		return nil
	}
	if e.opts.ReproduceOriginalBug {
		if err := e.storage.Add(*e.activeBox); err != nil {
			return fmt.Errorf("%s: %w", err.Error(), ErrStorageBackend)
		}
	}
	e.activeBox = nil
	e.endpointsPlaced++
	return nil
}

func (e *Engine) chooseActiveBox(width, height float64, placed *[]geom.Rectangle) error {
	if e.activeBox != nil {
		return nil
	}
	e.activeBoxFirstDetailIndex = e.lastPlacedIndex + 1
	maxBox, hasMaxBox, err := e.storage.PeekMax()
	if err != nil {
		return fmt.Errorf("%s: %w", err.Error(), ErrStorageBackend)
	}
	maxBoxSize := -1.0
	if hasMaxBox {
		maxBoxSize = maxBox.MinSide()
	}
	requiredGap := math.Pow(1/float64(e.activeBoxFirstDetailIndex), e.gamma)
	totalLength := height + requiredGap
	if totalLength <= maxBoxSize {
		return e.chooseActiveBoxFromStorage()
	}

	e.notify(event.BeforeLRPCut{Base: e.snapshot(width, height, placed)})
	if err := e.cutNewStripe(width, height, placed); err != nil {
		return err
	}
	e.notify(event.AfterLRPCut{Base: e.snapshot(width, height, placed)})
	return nil
}

func (e *Engine) chooseActiveBoxFromStorage() error {
	box, ok, err := e.storage.PopMax()
	if err != nil {
		return fmt.Errorf("%s: %w", err.Error(), ErrStorageBackend)
	}
	if !ok {
		return fmt.Errorf("engine: storage reported a max box that vanished on pop: %w", ErrStorageBackend)
	}
	e.activeBox = &box
	e.activeBoxFrom = box.DetailType
	e.isActiveBoxHorizontal = box.Width() >= box.Height()
	return nil
}

func (e *Engine) cutNewStripe(width, height float64, placed *[]geom.Rectangle) error {
	e.activeBoxFrom = e.lrp.DetailType
	requiredGap := math.Pow(1/float64(e.lastPlacedIndex+1), e.gamma)

	lrpW, lrpH := e.lrp.Width(), e.lrp.Height()
	if height+requiredGap > math.Max(lrpW, lrpH) || width+requiredGap > math.Min(lrpW, lrpH) {
		return ErrLRPTooSmall
	}

	var activeBoxBL, activeBoxTR, newLRPBL, newLRPTR geom.Point
	if lrpW <= lrpH {
		e.isActiveBoxHorizontal = true
		activeBoxBL = e.lrp.BottomLeft
		activeBoxTR = geom.Point{X: e.lrp.TopRight.X, Y: e.lrp.BottomLeft.Y + height + requiredGap}
		newLRPBL = geom.Point{X: e.lrp.BottomLeft.X, Y: e.lrp.BottomLeft.Y + height + requiredGap}
		newLRPTR = e.lrp.TopRight
	} else {
		e.isActiveBoxHorizontal = false
		activeBoxBL = geom.Point{X: e.lrp.TopRight.X - height - requiredGap, Y: e.lrp.BottomLeft.Y}
		activeBoxTR = e.lrp.TopRight
		newLRPBL = e.lrp.BottomLeft
		newLRPTR = geom.Point{X: e.lrp.TopRight.X - height - requiredGap, Y: e.lrp.TopRight.Y}
	}

	activeBox := geom.New(activeBoxBL, activeBoxTR, fmt.Sprintf("%s%d", geom.EndpointPrefix, e.endpointsPlaced), geom.TypeEndpoint1)
	newLRP := geom.New(newLRPBL, newLRPTR, geom.LRPName, geom.TypeLRP)

	if e.opts.UpdatePlacements {
		removeFromPlaced(placed, *e.lrp)
		*placed = append(*placed, activeBox, newLRP)
	}
	e.activeBox = &activeBox
	e.lrp = &newLRP
	return nil
}

func (e *Engine) placeDetailInActiveBox(width, height float64, placed *[]geom.Rectangle) error {
	normalBoxType := e.normalBoxType()
	endpointType := e.endpointType()

	e.lastPlacedIndex++

	var placedBL, placedTR, normalBL, normalTR, endpointBL, endpointTR geom.Point
	if e.isActiveBoxHorizontal {
		placedBL = e.activeBox.BottomLeft
		placedTR = geom.Point{X: e.activeBox.BottomLeft.X + width, Y: e.activeBox.BottomLeft.Y + height}
		normalBL = geom.Point{X: e.activeBox.BottomLeft.X, Y: e.activeBox.BottomLeft.Y + height}
		normalTR = geom.Point{X: e.activeBox.BottomLeft.X + width, Y: e.activeBox.TopRight.Y}
		endpointBL = geom.Point{X: e.activeBox.BottomLeft.X + width, Y: e.activeBox.BottomLeft.Y}
		endpointTR = e.activeBox.TopRight
	} else {
		placedBL = geom.Point{X: e.activeBox.TopRight.X - height, Y: e.activeBox.BottomLeft.Y}
		placedTR = geom.Point{X: e.activeBox.TopRight.X, Y: e.activeBox.BottomLeft.Y + width}
		normalBL = e.activeBox.BottomLeft
		normalTR = geom.Point{X: e.activeBox.TopRight.X - height, Y: e.activeBox.BottomLeft.Y + width}
		endpointBL = geom.Point{X: e.activeBox.BottomLeft.X, Y: e.activeBox.BottomLeft.Y + width}
		endpointTR = e.activeBox.TopRight
	}

	placedDetail := geom.New(placedBL, placedTR, fmt.Sprintf("%s%d", geom.DetailPrefix, e.lastPlacedIndex), geom.TypeDetail)
	normalBox := geom.New(normalBL, normalTR, fmt.Sprintf("%s%d", geom.NormalBoxPrefix, e.lastPlacedIndex), normalBoxType)
	endpoint := geom.New(endpointBL, endpointTR, fmt.Sprintf("%s%d", geom.EndpointPrefix, e.endpointsPlaced), endpointType)

	if e.opts.UpdatePlacements {
		removeFromPlaced(placed, *e.activeBox)
		*placed = append(*placed, placedDetail, normalBox, endpoint)
	}
	e.activeBox = &endpoint
	if err := e.storage.Add(normalBox); err != nil {
		return fmt.Errorf("%s: %w", err.Error(), ErrStorageBackend)
	}

	base := e.snapshot(width, height, placed)
	e.notify(event.AfterDetailPlaced{Base: base, PlacedDetail: placedDetail, NormalBox: normalBox, Endpoint: endpoint})

	if e.lastPlacedIndex == e.n0+e.maxPlaced-1 {
		e.notify(event.End{Base: e.snapshot(width, height, placed)})
	}
	return nil
}

// normalBoxType mirrors _get_normal_box_type: a box cut straight from
// the LRP is type 1, any box split off another box is type 2.
func (e *Engine) normalBoxType() geom.Type {
	if e.activeBoxFrom == geom.TypeLRP {
		return geom.TypeNormalBox1
	}
	return geom.TypeNormalBox2
}

// endpointType mirrors _get_endpoint_type: an endpoint inherits type 1
// from the LRP or from a type-1 endpoint ancestor, otherwise type 2.
func (e *Engine) endpointType() geom.Type {
	if e.activeBoxFrom == geom.TypeLRP || e.activeBoxFrom == geom.TypeEndpoint1 {
		return geom.TypeEndpoint1
	}
	return geom.TypeEndpoint2
}

func (e *Engine) snapshot(width, height float64, placed *[]geom.Rectangle) event.Base {
	return event.Base{
		Gamma:                     e.gamma,
		N0:                        e.n0,
		MaxPlaced:                 e.maxPlaced,
		LRP:                       *e.lrp,
		ActiveBox:                 e.activeBox,
		ActiveBoxFirstDetailIndex: e.activeBoxFirstDetailIndex,
		IsActiveBoxHorizontal:     e.isActiveBoxHorizontal,
		LastPlacedIndex:           e.lastPlacedIndex,
		EndpointsPlaced:           e.endpointsPlaced,
		ActiveBoxFrom:             e.activeBoxFrom,
		DetailWidth:               width,
		DetailHeight:              height,
		Placed:                    *placed,
	}
}

func (e *Engine) notify(ev event.Event) {
	e.registry.Notify(ev)
}

// removeFromPlaced removes the first rectangle in *placed equal to
// target, matching Python list.remove's first-match, exact-equality
// semantics (spec.md §5: no epsilon comparison).
func removeFromPlaced(placed *[]geom.Rectangle, target geom.Rectangle) {
	for i, r := range *placed {
		if r.Equal(target) {
			*placed = append((*placed)[:i], (*placed)[i+1:]...)
			return
		}
	}
}
