package layout

// Layer pairs a layer name with its purpose, e.g. {"M2", "drawing"}.
type Layer [2]string

// Name returns the layer name.
func (l Layer) Name() string { return l[0] }

// Purpose returns the layer purpose.
func (l Layer) Purpose() string { return l[1] }

// PinPurpose returns the same layer with the "pin" purpose.
func (l Layer) PinPurpose() Layer { return Layer{l[0], "pin"} }

// Rect is a drawn shape. When Width is zero XY holds the corners of a box;
// otherwise XY holds the centerline endpoints of a wire of that width,
// extended past each endpoint by Extension.
type Rect struct {
	Layer     Layer
	XY        [2]Point
	Width     int
	Extension int
	Netname   string
}

// IsWire reports whether the rect is a centerline wire.
func (r Rect) IsWire() bool { return r.Width > 0 }

// Horizontal reports whether the centerline runs along x. Point-like
// segments count as horizontal.
func (r Rect) Horizontal() bool { return r.XY[0][1] == r.XY[1][1] }

// Bounds returns the drawn extent of the shape.
func (r Rect) Bounds() Box {
	box := NewBox(r.XY[0], r.XY[1])
	if !r.IsWire() {
		return box
	}
	half := r.Width / 2
	if r.Horizontal() {
		box[0] = box[0].Add(Point{-r.Extension, -half})
		box[1] = box[1].Add(Point{r.Extension, half})
		return box
	}
	box[0] = box[0].Add(Point{-half, -r.Extension})
	box[1] = box[1].Add(Point{half, r.Extension})
	return box
}

// Covers reports whether the centerline of r contains both endpoints of o on
// the same layer name. Purposes are ignored so pin shapes match their wires.
func (r Rect) Covers(o Rect) bool {
	if r.Layer.Name() != o.Layer.Name() {
		return false
	}
	line := NewBox(r.XY[0], r.XY[1])
	return line.Contains(o.XY[0]) && line.Contains(o.XY[1])
}

func (r Rect) transformed(t Transform, offset Point) Rect {
	out := r
	out.XY = [2]Point{t.Apply(r.XY[0]).Add(offset), t.Apply(r.XY[1]).Add(offset)}
	if !out.IsWire() {
		box := NewBox(out.XY[0], out.XY[1])
		out.XY = [2]Point{box[0], box[1]}
	}
	return out
}

// Via is a via cell placed at a point, referencing a via template by name.
type Via struct {
	Template string
	LibName  string
	XY       Point
}

// Pin is a named terminal. Template pins are expressed in template-local
// coordinates; design pins and instance pins returned by Instance.Pin are
// absolute.
type Pin struct {
	Rect
	Name string
}

// Net returns the pin net name, falling back to the pin name.
func (p Pin) Net() string {
	if p.Netname != "" {
		return p.Netname
	}
	return p.Name
}
