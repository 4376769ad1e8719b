package layout

import (
	"fmt"
	"sort"
)

// OneDimGrid is a periodic coordinate table along one axis. Elements lists
// the physical grid points inside the first period [Scope[0], Scope[1]); the
// pattern repeats every Scope[1]-Scope[0] units in both directions.
type OneDimGrid struct {
	Name     string
	Scope    [2]int
	Elements []int
}

// Validate checks the grid is usable for mapping.
func (g OneDimGrid) Validate() error {
	if g.Scope[1] <= g.Scope[0] {
		return fmt.Errorf("layout: grid %q: scope %v is empty", g.Name, g.Scope)
	}
	if len(g.Elements) == 0 {
		return fmt.Errorf("layout: grid %q: no elements", g.Name)
	}
	if !sort.IntsAreSorted(g.Elements) {
		return fmt.Errorf("layout: grid %q: elements %v are not sorted", g.Name, g.Elements)
	}
	for i, e := range g.Elements {
		if e < g.Scope[0] || e >= g.Scope[1] {
			return fmt.Errorf("layout: grid %q: element %d outside scope %v", g.Name, e, g.Scope)
		}
		if i > 0 && g.Elements[i-1] == e {
			return fmt.Errorf("layout: grid %q: duplicate element %d", g.Name, e)
		}
	}
	return nil
}

func (g OneDimGrid) period() int {
	return g.Scope[1] - g.Scope[0]
}

// Phy maps an abstract index to its physical coordinate.
func (g OneDimGrid) Phy(i int) int {
	q, r := floorDivMod(i, len(g.Elements))
	return q*g.period() + g.Elements[r]
}

// Abs maps a physical coordinate to its abstract index. Coordinates between
// grid points are rejected with ErrOffGrid.
func (g OneDimGrid) Abs(x int) (int, error) {
	q, _ := floorDivMod(x-g.Scope[0], g.period())
	offset := x - q*g.period()
	idx := sort.SearchInts(g.Elements, offset)
	if idx < len(g.Elements) && g.Elements[idx] == offset {
		return q*len(g.Elements) + idx, nil
	}
	return 0, fmt.Errorf("layout: %d on grid %q: %w", x, g.Name, ErrOffGrid)
}

func floorDivMod(a, b int) (int, int) {
	q, r := a/b, a%b
	if r < 0 {
		q--
		r += b
	}
	return q, r
}

// Grid maps abstract (m, n) indices to physical points. X spans columns and Y
// spans rows.
type Grid struct {
	Name string
	X    OneDimGrid
	Y    OneDimGrid
}

// Validate checks both axes.
func (g *Grid) Validate() error {
	if err := g.X.Validate(); err != nil {
		return err
	}
	return g.Y.Validate()
}

// XY returns the physical point of an index.
func (g *Grid) XY(mn MN) Point {
	return Point{g.X.Phy(mn[0]), g.Y.Phy(mn[1])}
}

// MN returns the index of a physical point.
func (g *Grid) MN(p Point) (MN, error) {
	m, err := g.X.Abs(p[0])
	if err != nil {
		return MN{}, fmt.Errorf("layout: grid %q x: %w", g.Name, err)
	}
	n, err := g.Y.Abs(p[1])
	if err != nil {
		return MN{}, fmt.Errorf("layout: grid %q y: %w", g.Name, err)
	}
	return MN{m, n}, nil
}

// MNBox maps both corners of a physical box.
func (g *Grid) MNBox(b Box) (MNBox, error) {
	ll, err := g.MN(b[0])
	if err != nil {
		return MNBox{}, err
	}
	ur, err := g.MN(b[1])
	if err != nil {
		return MNBox{}, err
	}
	return NewMNBox(ll, ur), nil
}

// RectMN maps the endpoints of a rect (centerline for wires, corners for
// boxes) to a normalised index box.
func (g *Grid) RectMN(r *Rect) (MNBox, error) {
	if r == nil {
		return MNBox{}, fmt.Errorf("layout: grid %q: rect is nil", g.Name)
	}
	return g.MNBox(NewBox(r.XY[0], r.XY[1]))
}

// PinMN maps a pin of a placed instance to a normalised index box.
func (g *Grid) PinMN(inst *Instance, name string) (MNBox, error) {
	pin, err := inst.Pin(name)
	if err != nil {
		return MNBox{}, err
	}
	box, err := g.RectMN(&pin.Rect)
	if err != nil {
		return MNBox{}, fmt.Errorf("layout: pin %s.%s: %w", inst.Name, name, err)
	}
	return box, nil
}

// InstanceMN maps the bounding box of a placed instance.
func (g *Grid) InstanceMN(inst *Instance) (MNBox, error) {
	if inst == nil || !inst.Placed() {
		return MNBox{}, fmt.Errorf("layout: grid %q: %w", g.Name, ErrNotPlaced)
	}
	box, err := g.MNBox(inst.BBox())
	if err != nil {
		return MNBox{}, fmt.Errorf("layout: instance %s: %w", inst.Name, err)
	}
	return box, nil
}

// BottomLeft returns the lower-left index of a placed instance.
func (g *Grid) BottomLeft(inst *Instance) (MN, error) {
	box, err := g.InstanceMN(inst)
	if err != nil {
		return MN{}, err
	}
	return box[0], nil
}

// TopLeft returns the upper-left index of a placed instance.
func (g *Grid) TopLeft(inst *Instance) (MN, error) {
	box, err := g.InstanceMN(inst)
	if err != nil {
		return MN{}, err
	}
	return MN{box[0][0], box[1][1]}, nil
}

// BottomRight returns the lower-right index of a placed instance.
func (g *Grid) BottomRight(inst *Instance) (MN, error) {
	box, err := g.InstanceMN(inst)
	if err != nil {
		return MN{}, err
	}
	return MN{box[1][0], box[0][1]}, nil
}

// TopRight returns the upper-right index of a placed instance.
func (g *Grid) TopRight(inst *Instance) (MN, error) {
	box, err := g.InstanceMN(inst)
	if err != nil {
		return MN{}, err
	}
	return box[1], nil
}

// WidthVec returns the instance width as an index vector. The instance does
// not need to be placed.
func (g *Grid) WidthVec(inst *Instance) (MN, error) {
	size, err := g.size(inst)
	if err != nil {
		return MN{}, err
	}
	return MN{size[0], 0}, nil
}

// HeightVec returns the instance height as an index vector. The instance does
// not need to be placed.
func (g *Grid) HeightVec(inst *Instance) (MN, error) {
	size, err := g.size(inst)
	if err != nil {
		return MN{}, err
	}
	return MN{0, size[1]}, nil
}

func (g *Grid) size(inst *Instance) (MN, error) {
	if inst == nil {
		return MN{}, fmt.Errorf("layout: grid %q: instance is nil", g.Name)
	}
	local := inst.LocalBounds()
	origin, err := g.MN(Point{0, 0})
	if err != nil {
		return MN{}, err
	}
	extent, err := g.MN(Point{local.Width(), local.Height()})
	if err != nil {
		return MN{}, fmt.Errorf("layout: instance %s size: %w", inst.Name, err)
	}
	return extent.Sub(origin), nil
}

// RoutingGrid is a grid carrying the wire layers used along each axis and the
// via dropped where they cross.
type RoutingGrid struct {
	Grid

	HLayer     Layer
	VLayer     Layer
	HWidth     int
	VWidth     int
	HExtension int
	VExtension int

	Via        string
	ViaLibName string
}

func (g *RoutingGrid) wire(a, b MN) Rect {
	horizontal := a[1] == b[1]
	r := Rect{XY: [2]Point{g.XY(a), g.XY(b)}}
	if horizontal {
		r.Layer, r.Width, r.Extension = g.HLayer, g.HWidth, g.HExtension
	} else {
		r.Layer, r.Width, r.Extension = g.VLayer, g.VWidth, g.VExtension
	}
	return r
}

func (g *RoutingGrid) via(at MN) *Via {
	return &Via{Template: g.Via, LibName: g.ViaLibName, XY: g.XY(at)}
}

// Grids is the set of grids a technology exposes.
type Grids struct {
	Placement map[string]*Grid
	Routing   map[string]*RoutingGrid
}

// PlacementGrid returns a placement grid by name.
func (g Grids) PlacementGrid(name string) (*Grid, error) {
	if grid, ok := g.Placement[name]; ok {
		return grid, nil
	}
	return nil, fmt.Errorf("layout: placement grid %q: %w", name, ErrUnknownGrid)
}

// RoutingGrid returns a routing grid by name.
func (g Grids) RoutingGrid(name string) (*RoutingGrid, error) {
	if grid, ok := g.Routing[name]; ok {
		return grid, nil
	}
	return nil, fmt.Errorf("layout: routing grid %q: %w", name, ErrUnknownGrid)
}

// Names returns every grid name, sorted.
func (g Grids) Names() []string {
	names := make([]string, 0, len(g.Placement)+len(g.Routing))
	for name := range g.Placement {
		names = append(names, name)
	}
	for name := range g.Routing {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
