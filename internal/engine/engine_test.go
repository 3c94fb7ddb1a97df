package engine_test

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/slackpack/internal/boxstore"
	"github.com/piwi3910/slackpack/internal/detailgen"
	"github.com/piwi3910/slackpack/internal/engine"
	"github.com/piwi3910/slackpack/internal/event"
	"github.com/piwi3910/slackpack/internal/geom"
)

func harmonicSquareSheet(n0 int) geom.Rectangle {
	gen := detailgen.NewHarmonicSquareGenerator(n0)
	w, h := gen.BaseSize()
	return geom.New(geom.Point{}, geom.Point{X: w, Y: h}, "sheet", geom.TypeLRP)
}

// Scenario 1: n0=1, gamma=4/3, max_placed=1 — the very first detail
// already requires more slack than the sheet provides.
func TestScenario1_TinySeedIsLRPTooSmall(t *testing.T) {
	sheet := harmonicSquareSheet(1)
	assert.InDelta(t, math.Sqrt(math.Pi*math.Pi/6), sheet.Width(), 1e-9)

	storage := boxstore.NewMemoryStorage()
	eng, err := engine.New(4.0/3.0, 1, 1, storage)
	require.NoError(t, err)

	placed := []geom.Rectangle{sheet}
	gen := detailgen.NewHarmonicSquareGenerator(1)
	w, h := gen.Next()
	err = eng.PlaceNext(w, h, &placed)
	require.Error(t, err)
	assert.True(t, errors.Is(err, engine.ErrLRPTooSmall))
}

// Scenario 2: n0=10, gamma=4/3, max_placed=5 — expect exactly 5 detail
// rectangles D10..D14, at least one LRP cut, non-empty storage, and
// name uniqueness (I6), containment (I2) and area conservation (I3)
// holding over the final placement list.
func TestScenario2_FiveDetailsPlaced(t *testing.T) {
	const n0, maxPlaced = 10, 5
	sheet := harmonicSquareSheet(n0)
	storage := boxstore.NewMemoryStorage()
	eng, err := engine.New(4.0/3.0, n0, maxPlaced, storage)
	require.NoError(t, err)

	placed := []geom.Rectangle{sheet}
	gen := detailgen.NewHarmonicSquareGenerator(n0)
	for i := 0; i < maxPlaced; i++ {
		w, h := gen.Next()
		require.NoError(t, eng.PlaceNext(w, h, &placed))
	}

	counts := geom.CountTypes(placed)
	assert.Equal(t, maxPlaced, counts[geom.TypeDetail])
	for n := n0; n < n0+maxPlaced; n++ {
		found := false
		for _, r := range placed {
			if r.DetailType == geom.TypeDetail && r.Name == "D"+itoa(n) {
				found = true
			}
		}
		assert.True(t, found, "expected detail D%d in placements", n)
	}

	assertInvariants(t, sheet, placed)

	max, ok, err := storage.PeekMax()
	require.NoError(t, err)
	assert.True(t, ok, "expected storage to hold at least one normal box")
	_ = max
}

// Scenario 3: harmonic rectangles, n0=100, width smaller, gamma=4/3,
// max_placed=100 — LRP occupancy ratio at each before-cut event lies
// in (0, 1].
func TestScenario3_LRPOccupancyRatioStaysInUnitRange(t *testing.T) {
	const n0, maxPlaced = 100, 100
	gen := detailgen.NewHarmonicRectangleGenerator(n0, true)
	w0, h0 := gen.BaseSize()
	sheet := geom.New(geom.Point{}, geom.Point{X: w0, Y: h0}, "sheet", geom.TypeLRP)

	var ratios []float64
	tracker := &funcListener{tag: event.TagBeforeLRPCut, fn: func(e event.Event) {
		b := e.(event.BeforeLRPCut).Base
		free := 0.0
		for _, r := range b.Placed {
			if r.DetailType != geom.TypeDetail {
				free += r.Area()
			}
		}
		if free > 0 {
			ratios = append(ratios, b.LRP.Area()/free)
		}
	}}

	storage := boxstore.NewMemoryStorage()
	eng, err := engine.New(4.0/3.0, n0, maxPlaced, storage, engine.WithListeners(tracker))
	require.NoError(t, err)

	placed := []geom.Rectangle{sheet}
	for i := 0; i < maxPlaced; i++ {
		w, h := gen.Next()
		require.NoError(t, eng.PlaceNext(w, h, &placed))
	}

	for _, ratio := range ratios {
		assert.Greater(t, ratio, 0.0)
		assert.LessOrEqual(t, ratio, 1.0+1e-9)
	}
}

// Scenario 4: n0=100, gamma=4/3, max_placed=10,000, in-memory storage
// vs. cached external (SQLite) storage with cache_size=1000 must
// produce coordinate-identical placement lists.
func TestScenario4_InMemoryMatchesCachedExternal(t *testing.T) {
	if testing.Short() {
		t.Skip("large-scale comparison skipped in -short mode")
	}
	const n0, maxPlaced = 100, 10_000

	runWith := func(storage boxstore.Storage) []geom.Rectangle {
		sheet := harmonicSquareSheet(n0)
		eng, err := engine.New(4.0/3.0, n0, maxPlaced, storage)
		require.NoError(t, err)
		placed := []geom.Rectangle{sheet}
		gen := detailgen.NewHarmonicSquareGenerator(n0)
		for i := 0; i < maxPlaced; i++ {
			w, h := gen.Next()
			require.NoError(t, eng.PlaceNext(w, h, &placed))
		}
		return placed
	}

	memPlaced := runWith(boxstore.NewMemoryStorage())

	sqlStorage, err := boxstore.NewSQLStorage(":memory:", boxstore.WithCacheSize(1000))
	require.NoError(t, err)
	defer sqlStorage.Close()
	sqlPlaced := runWith(sqlStorage)

	require.Equal(t, len(memPlaced), len(sqlPlaced))
	memByName := map[string]geom.Rectangle{}
	for _, r := range memPlaced {
		memByName[r.Name] = r
	}
	for _, r := range sqlPlaced {
		other, ok := memByName[r.Name]
		require.True(t, ok, "missing %s in in-memory run", r.Name)
		assert.True(t, r.Equal(other), "mismatch for %s", r.Name)
	}
}

// Scenario 5: large run with update_placements=false must complete
// without error; last_placed_index reaches n0+max_placed-1, observable
// via the AfterDetailPlaced event on the final call.
func TestScenario5_LargeRunWithoutUpdatingPlacements(t *testing.T) {
	if testing.Short() {
		t.Skip("large-scale run skipped in -short mode")
	}
	const n0, maxPlaced = 100, 100_000
	sheet := harmonicSquareSheet(n0)
	storage := boxstore.NewMemoryStorage()

	var lastIndex int
	tracker := &funcListener{tag: event.TagAfterDetailPlaced, fn: func(e event.Event) {
		lastIndex = e.(event.AfterDetailPlaced).Base.LastPlacedIndex
	}}

	eng, err := engine.New(4.0/3.0, n0, maxPlaced, storage,
		engine.WithUpdatePlacements(false), engine.WithListeners(tracker))
	require.NoError(t, err)

	placed := []geom.Rectangle{sheet}
	gen := detailgen.NewHarmonicSquareGenerator(n0)
	for i := 0; i < maxPlaced; i++ {
		w, h := gen.Next()
		require.NoError(t, eng.PlaceNext(w, h, &placed))
	}

	assert.Equal(t, 1, len(placed), "update_placements=false must leave placements untouched")
	assert.Equal(t, n0+maxPlaced-1, lastIndex)
}

// Scenario 6: box storage fuzz, run against the engine's storage
// interface directly rather than the engine (the engine only ever
// exercises add/peek/pop through the Storage contract).
func TestScenario6_BoxStorageFuzzMatchesReferenceHeap(t *testing.T) {
	storage := boxstore.NewMemoryStorage()
	var reference []geom.Rectangle

	rng := newLCG(12345)
	for i := 0; i < 10_000; i++ {
		minSide := rng.float64() // in [0, 1)
		r := geom.New(geom.Point{}, geom.Point{X: minSide, Y: minSide + 0.01}, "box"+itoa(i), geom.TypeNormalBox1)
		require.NoError(t, storage.Add(r))
		reference = append(reference, r)

		if i%3 == 0 && len(reference) > 0 {
			got, ok, err := storage.PeekMax()
			require.NoError(t, err)
			require.True(t, ok)
			want := maxBySide(reference)
			assert.InDelta(t, want.MinSide(), got.MinSide(), 1e-12)
		}
	}
}

func TestNew_RejectsInvalidConfiguration(t *testing.T) {
	storage := boxstore.NewMemoryStorage()
	_, err := engine.New(0, 1, 1, storage)
	assert.ErrorIs(t, err, engine.ErrInvalidConfiguration)

	_, err = engine.New(1, 0, 1, storage)
	assert.ErrorIs(t, err, engine.ErrInvalidConfiguration)
}

func TestBoundary_MaxPlacedZeroLeavesOnlySheet(t *testing.T) {
	sheet := harmonicSquareSheet(10)
	storage := boxstore.NewMemoryStorage()
	eng, err := engine.New(4.0/3.0, 10, 0, storage)
	require.NoError(t, err)
	placed := []geom.Rectangle{sheet}
	assert.NoError(t, err)
	assert.NotNil(t, eng)
	assert.Equal(t, []geom.Rectangle{sheet}, placed)
}

func TestBoundary_MaxPlacedOneProducesOneStripeAndOnePlacement(t *testing.T) {
	const n0 = 10
	sheet := harmonicSquareSheet(n0)
	storage := boxstore.NewMemoryStorage()
	eng, err := engine.New(4.0/3.0, n0, 1, storage)
	require.NoError(t, err)

	placed := []geom.Rectangle{sheet}
	gen := detailgen.NewHarmonicSquareGenerator(n0)
	w, h := gen.Next()
	require.NoError(t, eng.PlaceNext(w, h, &placed))

	counts := geom.CountTypes(placed)
	assert.Equal(t, 1, counts[geom.TypeDetail])
	assert.Equal(t, 1, counts[geom.TypeLRP], "one stripe cut leaves exactly one new LRP")
}

func TestWithReproduceOriginalBug_ReAddsRetiredActiveBoxToStorage(t *testing.T) {
	const n0 = 50
	sheet := harmonicSquareSheet(n0)
	storage := boxstore.NewMemoryStorage()
	eng, err := engine.New(4.0/3.0, n0, 20, storage, engine.WithReproduceOriginalBug())
	require.NoError(t, err)

	placed := []geom.Rectangle{sheet}
	gen := detailgen.NewHarmonicSquareGenerator(n0)
	for i := 0; i < 20; i++ {
		w, h := gen.Next()
		require.NoError(t, eng.PlaceNext(w, h, &placed))
	}
	// With the original bug reproduced, retired endpoints land in storage
	// alongside normal boxes. The first stripe (width ~0.142) retires its
	// endpoint at D57 with ~0.0099 left, narrower than any later detail
	// plus gap, so at least that endpoint is still stored after 20
	// placements. No specific count is asserted.
	_, _, err = storage.PeekMax()
	assert.NoError(t, err)

	foundEndpoint := false
	for {
		box, ok, err := storage.PopMax()
		require.NoError(t, err)
		if !ok {
			break
		}
		if box.DetailType == geom.TypeEndpoint1 || box.DetailType == geom.TypeEndpoint2 {
			foundEndpoint = true
		}
	}
	assert.True(t, foundEndpoint, "expected a retired endpoint to have been re-added to storage")
}

func assertInvariants(t *testing.T, sheet geom.Rectangle, placed []geom.Rectangle) {
	t.Helper()
	names := map[string]struct{}{}
	totalArea := 0.0
	for _, r := range placed {
		_, dup := names[r.Name]
		assert.False(t, dup, "duplicate name %s", r.Name)
		names[r.Name] = struct{}{}

		assert.GreaterOrEqual(t, r.BottomLeft.X, sheet.BottomLeft.X-1e-9)
		assert.GreaterOrEqual(t, r.BottomLeft.Y, sheet.BottomLeft.Y-1e-9)
		assert.LessOrEqual(t, r.TopRight.X, sheet.TopRight.X+1e-9)
		assert.LessOrEqual(t, r.TopRight.Y, sheet.TopRight.Y+1e-9)

		totalArea += r.Area()
	}
	assert.InDelta(t, sheet.Area(), totalArea, 1e-6, "area conservation (I3)")
}

func maxBySide(rects []geom.Rectangle) geom.Rectangle {
	best := rects[0]
	for _, r := range rects[1:] {
		if r.MinSide() > best.MinSide() {
			best = r
		}
	}
	return best
}

// itoa avoids pulling in strconv just for base-10 non-negative ints in
// test helpers.
func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var digits []byte
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}

// lcg is a tiny deterministic PRNG so the fuzz scenario is reproducible
// without pulling randomness into the engine itself.
type lcg struct{ state uint64 }

func newLCG(seed uint64) *lcg { return &lcg{state: seed} }

func (g *lcg) float64() float64 {
	g.state = g.state*6364136223846793005 + 1442695040888963407
	return float64(g.state>>11) / float64(1<<53)
}

// funcListener adapts a plain func to the listener.Listener interface
// for single-tag event observation in tests.
type funcListener struct {
	tag event.Tag
	fn  func(event.Event)
}

func (l *funcListener) EventTag() event.Tag { return l.tag }
func (l *funcListener) Handle(e event.Event) { l.fn(e) }
