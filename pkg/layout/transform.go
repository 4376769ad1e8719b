package layout

import (
	"fmt"
	"strings"
)

// Transform is an instance orientation. The names follow the usual layout
// database conventions.
type Transform string

const (
	// R0 leaves geometry untouched.
	R0 Transform = "R0"
	// MX mirrors about the x axis (y is negated).
	MX Transform = "MX"
	// MY mirrors about the y axis (x is negated).
	MY Transform = "MY"
	// R180 rotates by 180 degrees.
	R180 Transform = "R180"
)

// ParseTransform resolves a transform name. An empty string yields R0.
func ParseTransform(raw string) (Transform, error) {
	switch Transform(strings.ToUpper(strings.TrimSpace(raw))) {
	case "", R0:
		return R0, nil
	case MX:
		return MX, nil
	case MY:
		return MY, nil
	case R180:
		return R180, nil
	default:
		return "", fmt.Errorf("layout: unknown transform %q", raw)
	}
}

// Apply maps a point from template-local coordinates into the transformed
// frame. Translation is applied separately by the owning instance.
func (t Transform) Apply(p Point) Point {
	switch t {
	case MX:
		return Point{p[0], -p[1]}
	case MY:
		return Point{-p[0], p[1]}
	case R180:
		return Point{-p[0], -p[1]}
	default:
		return p
	}
}

// ApplyBox transforms both corners of b and normalises the result.
func (t Transform) ApplyBox(b Box) Box {
	return NewBox(t.Apply(b[0]), t.Apply(b[1]))
}

// String implements fmt.Stringer, reporting R0 for the zero value.
func (t Transform) String() string {
	if t == "" {
		return string(R0)
	}
	return string(t)
}
