package engine

import (
	"fmt"

	"github.com/piwi3910/slackpack/internal/boxstore"
	"github.com/piwi3910/slackpack/internal/detailgen"
	"github.com/piwi3910/slackpack/internal/geom"
)

// ComparisonScenario names a (gamma, n0, maxPlaced) configuration and the
// storage backend to run it against, for side-by-side comparison of
// parameter choices on the same detail stream.
type ComparisonScenario struct {
	Name       string
	Gamma      float64
	N0         int
	MaxPlaced  int
	NewStorage func() (boxstore.Storage, error)
}

// ComparisonResult holds the outcome of running one ComparisonScenario
// to completion.
type ComparisonResult struct {
	Scenario    ComparisonScenario
	Placed      []geom.Rectangle
	DetailCount int
	NormalBoxes int
	Endpoints   int
	Err         error
}

// CompareScenarios runs each scenario against a fresh harmonic-square
// detail stream of its own and a fresh sheet, returning one result per
// scenario in input order. A scenario whose run fails still gets a
// result, with Err set and Placed reflecting whatever was placed before
// the failure.
func CompareScenarios(sheet geom.Rectangle, scenarios []ComparisonScenario) []ComparisonResult {
	results := make([]ComparisonResult, 0, len(scenarios))
	for _, scenario := range scenarios {
		results = append(results, runScenario(sheet, scenario))
	}
	return results
}

func runScenario(sheet geom.Rectangle, scenario ComparisonScenario) ComparisonResult {
	storage, err := scenario.NewStorage()
	if err != nil {
		return ComparisonResult{Scenario: scenario, Err: fmt.Errorf("engine: build storage for %q: %w", scenario.Name, err)}
	}
	defer storage.Close()

	eng, err := New(scenario.Gamma, scenario.N0, scenario.MaxPlaced, storage)
	if err != nil {
		return ComparisonResult{Scenario: scenario, Err: err}
	}

	gen := detailgen.NewHarmonicSquareGenerator(scenario.N0)
	placed := []geom.Rectangle{sheet}
	for i := 0; i < scenario.MaxPlaced; i++ {
		w, h := gen.Next()
		if err := eng.PlaceNext(w, h, &placed); err != nil {
			return ComparisonResult{Scenario: scenario, Placed: placed, Err: err}
		}
	}

	counts := geom.CountTypes(placed)
	return ComparisonResult{
		Scenario:    scenario,
		Placed:      placed,
		DetailCount: counts[geom.TypeDetail],
		NormalBoxes: counts[geom.TypeNormalBox1] + counts[geom.TypeNormalBox2],
		Endpoints:   counts[geom.TypeEndpoint1] + counts[geom.TypeEndpoint2],
	}
}

// BuildDefaultScenarios generates a standard what-if set around a base
// configuration: the base itself, a tighter gamma, a looser gamma, and
// a later starting index n0, all against in-memory storage.
func BuildDefaultScenarios(baseGamma float64, baseN0, maxPlaced int) []ComparisonScenario {
	memStorage := func() (boxstore.Storage, error) { return boxstore.NewMemoryStorage(), nil }

	return []ComparisonScenario{
		{Name: "base", Gamma: baseGamma, N0: baseN0, MaxPlaced: maxPlaced, NewStorage: memStorage},
		{Name: fmt.Sprintf("gamma=%.3f (tighter)", baseGamma*1.5), Gamma: baseGamma * 1.5, N0: baseN0, MaxPlaced: maxPlaced, NewStorage: memStorage},
		{Name: fmt.Sprintf("gamma=%.3f (looser)", baseGamma*0.5), Gamma: baseGamma * 0.5, N0: baseN0, MaxPlaced: maxPlaced, NewStorage: memStorage},
		{Name: fmt.Sprintf("n0=%d", baseN0*10), Gamma: baseGamma, N0: baseN0 * 10, MaxPlaced: maxPlaced, NewStorage: memStorage},
	}
}
