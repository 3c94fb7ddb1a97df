// Package geom defines the Rectangle entity placed and tracked by the
// Slack-Pack engine, along with a handful of query helpers over a
// placed-rectangle collection.
package geom

// Point is a 2D coordinate in sheet space.
type Point struct {
	X float64
	Y float64
}

// Type is the closed set of roles a Rectangle can play during a run.
type Type string

const (
	TypeDetail     Type = "detail"
	TypeNormalBox1 Type = "normal_box_1"
	TypeNormalBox2 Type = "normal_box_2"
	TypeEndpoint1  Type = "endpoint_1"
	TypeEndpoint2  Type = "endpoint_2"
	TypeLRP        Type = "lrp"
)

// Naming prefixes used when the engine mints a new Rectangle.
const (
	DetailPrefix    = "D"
	NormalBoxPrefix = "B"
	EndpointPrefix  = "E"
	LRPName         = "LRP"
)

// Rectangle is an immutable axis-aligned rectangle with an identity
// (Name) and a role (Type). Width and Height are derived from the
// corners rather than stored, so a Rectangle can never go out of sync
// with its own corners.
type Rectangle struct {
	BottomLeft Point
	TopRight   Point
	Name       string
	DetailType Type
}

// New builds a Rectangle from explicit corners.
func New(bottomLeft, topRight Point, name string, detailType Type) Rectangle {
	return Rectangle{BottomLeft: bottomLeft, TopRight: topRight, Name: name, DetailType: detailType}
}

// Width returns the rectangle's extent along X.
func (r Rectangle) Width() float64 {
	return r.TopRight.X - r.BottomLeft.X
}

// Height returns the rectangle's extent along Y.
func (r Rectangle) Height() float64 {
	return r.TopRight.Y - r.BottomLeft.Y
}

// MinSide returns the shorter of Width and Height, the key box storage
// orders entries by.
func (r Rectangle) MinSide() float64 {
	w, h := r.Width(), r.Height()
	if w < h {
		return w
	}
	return h
}

// Area returns Width * Height.
func (r Rectangle) Area() float64 {
	return r.Width() * r.Height()
}

// Equal compares two rectangles field by field, using exact (non-epsilon)
// float comparison — placement-list membership is always decided this
// way, never by tolerance.
func (r Rectangle) Equal(other Rectangle) bool {
	return r.BottomLeft == other.BottomLeft &&
		r.TopRight == other.TopRight &&
		r.Name == other.Name &&
		r.DetailType == other.DetailType
}

// FindAllNeighbours returns every rectangle in rects whose bounding box
// overlaps or touches target's, including target itself if present.
func FindAllNeighbours(rects []Rectangle, target Rectangle) []Rectangle {
	var out []Rectangle
	for _, r := range rects {
		if target.BottomLeft.X <= r.TopRight.X && target.TopRight.X >= r.BottomLeft.X &&
			target.BottomLeft.Y <= r.TopRight.Y && target.TopRight.Y >= r.BottomLeft.Y {
			out = append(out, r)
		}
	}
	return out
}

// FindNeighboursOfDepth expands FindAllNeighbours transitively, depth
// times. depth == 0 returns just target; depth == 1 returns target and
// its immediate neighbours; depth == 2 adds neighbours-of-neighbours,
// and so on.
func FindNeighboursOfDepth(rects []Rectangle, target Rectangle, depth int) []Rectangle {
	selected := map[Rectangle]struct{}{target: {}}
	for i := 0; i < depth; i++ {
		current := make([]Rectangle, 0, len(selected))
		for r := range selected {
			current = append(current, r)
		}
		for _, r := range current {
			for _, n := range FindAllNeighbours(rects, r) {
				selected[n] = struct{}{}
			}
		}
	}
	out := make([]Rectangle, 0, len(selected))
	for r := range selected {
		out = append(out, r)
	}
	return out
}

// CountTypes tallies how many rectangles of each Type appear in rects.
func CountTypes(rects []Rectangle) map[Type]int {
	counts := make(map[Type]int)
	for _, r := range rects {
		counts[r.DetailType]++
	}
	return counts
}
