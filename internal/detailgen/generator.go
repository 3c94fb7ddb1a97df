// Package detailgen provides the lazy detail streams consumed by the
// Slack-Pack engine: a shrinking sequence of (width, height) pairs plus
// the closed-form size of the sheet they were derived for.
package detailgen

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Generator produces a strictly-decreasing stream of detail sizes and
// knows the base sheet size that stream was derived for.
type Generator interface {
	// Next returns the width and height of the next detail. Width is the
	// side the engine will place the detail with, not necessarily the
	// geometrically-longer side.
	Next() (width, height float64)
	// BaseSize returns the sheet dimensions the stream was derived for.
	BaseSize() (width, height float64)
}

// HarmonicSquareGenerator produces square details of side 1/n for
// n = n0, n0+1, n0+2, ...
type HarmonicSquareGenerator struct {
	n0          int
	denominator int
}

// NewHarmonicSquareGenerator returns a generator whose first detail has
// side 1/n0.
func NewHarmonicSquareGenerator(n0 int) *HarmonicSquareGenerator {
	return &HarmonicSquareGenerator{n0: n0, denominator: n0}
}

func (g *HarmonicSquareGenerator) Next() (width, height float64) {
	side := 1 / float64(g.denominator)
	g.denominator++
	return side, side
}

// BaseSize computes sqrt(pi^2/6 - sum_{i=1}^{n0-1} 1/i^2), the side
// length of the smallest square sheet capable of holding every square
// from n0 onward under a zero-gap packing.
func (g *HarmonicSquareGenerator) BaseSize() (width, height float64) {
	remainder := math.Pi * math.Pi / 6
	if g.n0 > 1 {
		terms := make([]float64, g.n0-1)
		for i := 1; i < g.n0; i++ {
			terms[i-1] = 1 / (float64(i) * float64(i))
		}
		remainder -= floats.Sum(terms)
	}
	side := math.Sqrt(remainder)
	return side, side
}

// HarmonicRectangleGenerator produces rectangular details whose sides
// are 1/n and 1/(n+1) for n = n0, n0+1, ..., with WidthIsSmaller fixing
// which of those two values is reported as the width.
type HarmonicRectangleGenerator struct {
	n0             int
	denominator    int
	widthIsSmaller bool
}

// NewHarmonicRectangleGenerator returns a generator whose first detail
// pairs sides 1/n0 and 1/(n0+1); widthIsSmaller selects which side is
// reported as width.
func NewHarmonicRectangleGenerator(n0 int, widthIsSmaller bool) *HarmonicRectangleGenerator {
	return &HarmonicRectangleGenerator{n0: n0, denominator: n0, widthIsSmaller: widthIsSmaller}
}

func (g *HarmonicRectangleGenerator) Next() (width, height float64) {
	if g.widthIsSmaller {
		width, height = 1/float64(g.denominator+1), 1/float64(g.denominator)
	} else {
		width, height = 1/float64(g.denominator), 1/float64(g.denominator+1)
	}
	g.denominator++
	return width, height
}

// BaseSize returns a square sheet of side sqrt(1/n0).
func (g *HarmonicRectangleGenerator) BaseSize() (width, height float64) {
	side := math.Sqrt(1 / float64(g.n0))
	return side, side
}
