package layout

// Point is a physical coordinate in database units.
type Point [2]int

// Add returns p translated by q.
func (p Point) Add(q Point) Point {
	return Point{p[0] + q[0], p[1] + q[1]}
}

// Sub returns the vector from q to p.
func (p Point) Sub(q Point) Point {
	return Point{p[0] - q[0], p[1] - q[1]}
}

// MN is an abstract grid index: column m and row n.
type MN [2]int

// Add returns m offset by o.
func (m MN) Add(o MN) MN {
	return MN{m[0] + o[0], m[1] + o[1]}
}

// Sub returns the index vector from o to m.
func (m MN) Sub(o MN) MN {
	return MN{m[0] - o[0], m[1] - o[1]}
}

// Box is an axis-aligned region described by its lower-left and upper-right
// corners.
type Box [2]Point

// NewBox returns the normalised box spanning a and b.
func NewBox(a, b Point) Box {
	return Box{
		{min(a[0], b[0]), min(a[1], b[1])},
		{max(a[0], b[0]), max(a[1], b[1])},
	}
}

// Width is the horizontal extent of the box.
func (b Box) Width() int { return b[1][0] - b[0][0] }

// Height is the vertical extent of the box.
func (b Box) Height() int { return b[1][1] - b[0][1] }

// Union returns the smallest box containing b and o.
func (b Box) Union(o Box) Box {
	return Box{
		{min(b[0][0], o[0][0]), min(b[0][1], o[0][1])},
		{max(b[1][0], o[1][0]), max(b[1][1], o[1][1])},
	}
}

// Contains reports whether p lies inside b, edges included.
func (b Box) Contains(p Point) bool {
	return p[0] >= b[0][0] && p[0] <= b[1][0] && p[1] >= b[0][1] && p[1] <= b[1][1]
}

// Translate returns b shifted by offset.
func (b Box) Translate(offset Point) Box {
	return Box{b[0].Add(offset), b[1].Add(offset)}
}

// MNBox is an abstract region on a grid: lower-left and upper-right indices.
type MNBox [2]MN

// NewMNBox returns the normalised index box spanning a and b.
func NewMNBox(a, b MN) MNBox {
	return MNBox{
		{min(a[0], b[0]), min(a[1], b[1])},
		{max(a[0], b[0]), max(a[1], b[1])},
	}
}

// LowerLeft returns the first corner of the box.
func (b MNBox) LowerLeft() MN { return b[0] }

// UpperRight returns the second corner of the box.
func (b MNBox) UpperRight() MN { return b[1] }
