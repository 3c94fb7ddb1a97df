package geom

import "testing"

func TestRectangle_WidthHeightArea(t *testing.T) {
	r := New(Point{0, 0}, Point{3, 4}, "R1", TypeDetail)
	if r.Width() != 3 {
		t.Errorf("expected width 3, got %v", r.Width())
	}
	if r.Height() != 4 {
		t.Errorf("expected height 4, got %v", r.Height())
	}
	if r.Area() != 12 {
		t.Errorf("expected area 12, got %v", r.Area())
	}
	if r.MinSide() != 3 {
		t.Errorf("expected min side 3, got %v", r.MinSide())
	}
}

func TestRectangle_Equal(t *testing.T) {
	a := New(Point{0, 0}, Point{1, 1}, "A", TypeLRP)
	b := New(Point{0, 0}, Point{1, 1}, "A", TypeLRP)
	c := New(Point{0, 0}, Point{1, 1}, "A", TypeDetail)
	if !a.Equal(b) {
		t.Error("expected a == b")
	}
	if a.Equal(c) {
		t.Error("expected a != c (different type)")
	}
}

func TestFindAllNeighbours(t *testing.T) {
	target := New(Point{0, 0}, Point{10, 10}, "T", TypeLRP)
	touching := New(Point{10, 0}, Point{20, 10}, "touch", TypeDetail)
	overlapping := New(Point{5, 5}, Point{15, 15}, "overlap", TypeDetail)
	disjoint := New(Point{100, 100}, Point{110, 110}, "far", TypeDetail)

	rects := []Rectangle{target, touching, overlapping, disjoint}
	got := FindAllNeighbours(rects, target)

	names := map[string]bool{}
	for _, r := range got {
		names[r.Name] = true
	}
	if !names["T"] || !names["touch"] || !names["overlap"] {
		t.Errorf("expected T, touch, overlap in result, got %v", names)
	}
	if names["far"] {
		t.Error("did not expect disjoint rectangle in result")
	}
}

func TestFindNeighboursOfDepth_ZeroReturnsTargetOnly(t *testing.T) {
	target := New(Point{0, 0}, Point{1, 1}, "T", TypeLRP)
	other := New(Point{1, 0}, Point{2, 1}, "O", TypeDetail)
	got := FindNeighboursOfDepth([]Rectangle{target, other}, target, 0)
	if len(got) != 1 || got[0].Name != "T" {
		t.Errorf("expected only target at depth 0, got %v", got)
	}
}

func TestCountTypes(t *testing.T) {
	rects := []Rectangle{
		New(Point{}, Point{1, 1}, "a", TypeDetail),
		New(Point{}, Point{1, 1}, "b", TypeDetail),
		New(Point{}, Point{1, 1}, "c", TypeLRP),
	}
	counts := CountTypes(rects)
	if counts[TypeDetail] != 2 || counts[TypeLRP] != 1 {
		t.Errorf("unexpected counts: %v", counts)
	}
}
