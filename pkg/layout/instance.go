package layout

import (
	"fmt"
	"sort"
)

// Instance is a concrete device generated from a template. Pins and shapes
// are kept in template-local coordinates and transformed on access.
type Instance struct {
	Name      string
	LibName   string
	CellName  string
	Transform Transform
	Params    Params
	XY        Point

	// Virtual instances have no cell of their own in the target library;
	// exporters flatten their shapes into the owning design.
	Virtual bool

	bounds Box
	pins   map[string]Pin
	shapes []Rect
	placed bool
}

// Placed reports whether the instance was placed in a design.
func (i *Instance) Placed() bool { return i.placed }

// LocalBounds returns the untransformed template bounding box.
func (i *Instance) LocalBounds() Box { return i.bounds }

// BBox returns the transformed, translated bounding box.
func (i *Instance) BBox() Box {
	return i.Transform.ApplyBox(i.bounds).Translate(i.XY)
}

// Pin returns the named pin in absolute coordinates. The instance must be
// placed first.
func (i *Instance) Pin(name string) (Pin, error) {
	if !i.placed {
		return Pin{}, fmt.Errorf("layout: pin %s.%s: %w", i.Name, name, ErrNotPlaced)
	}
	pin, ok := i.pins[name]
	if !ok {
		return Pin{}, fmt.Errorf("layout: pin %s.%s: %w", i.Name, name, ErrUnknownPin)
	}
	pin.Rect = pin.Rect.transformed(i.Transform, i.XY)
	return pin, nil
}

// PinNames returns the names of the instance pins, sorted.
func (i *Instance) PinNames() []string {
	names := make([]string, 0, len(i.pins))
	for name := range i.pins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Shapes returns the instance shapes in absolute coordinates.
func (i *Instance) Shapes() []Rect {
	out := make([]Rect, 0, len(i.shapes))
	for _, shape := range i.shapes {
		out = append(out, shape.transformed(i.Transform, i.XY))
	}
	return out
}
