package layout

import (
	"fmt"
	"strings"
)

// Design collects the placed instances, wires, vias and pins of one cell.
type Design struct {
	Name    string
	LibName string

	instances []*Instance
	byName    map[string]*Instance
	rects     []*Rect
	vias      []*Via
	pins      []*Pin
	pinByName map[string]*Pin
}

// NewDesign returns an empty design.
func NewDesign(name, libName string) *Design {
	return &Design{
		Name:      name,
		LibName:   libName,
		byName:    make(map[string]*Instance),
		pinByName: make(map[string]*Pin),
	}
}

// Place puts inst on grid with its origin at mn and records it in the design.
func (d *Design) Place(grid *Grid, inst *Instance, mn MN) error {
	if grid == nil {
		return fmt.Errorf("layout: design %s: place: grid is nil", d.Name)
	}
	if inst == nil {
		return fmt.Errorf("layout: design %s: place: instance is nil", d.Name)
	}
	if _, exists := d.byName[inst.Name]; exists {
		return fmt.Errorf("layout: design %s: instance %q: %w", d.Name, inst.Name, ErrDuplicateName)
	}
	inst.XY = grid.XY(mn)
	inst.placed = true
	d.instances = append(d.instances, inst)
	d.byName[inst.Name] = inst
	return nil
}

// Route is a straight wire with optional vias at its endpoints. Via entries
// are nil where no via was requested.
type Route struct {
	Wire *Rect
	Vias [2]*Via
}

// RouteOption customises Route.
type RouteOption func(*routeConfig)

type routeConfig struct {
	vias    [2]bool
	netname string
}

// WithVias requests vias at the start and end points of the route.
func WithVias(start, end bool) RouteOption {
	return func(cfg *routeConfig) {
		cfg.vias = [2]bool{start, end}
	}
}

// WithNetname tags the route wire with a net name.
func WithNetname(net string) RouteOption {
	return func(cfg *routeConfig) {
		cfg.netname = net
	}
}

// Route draws a straight wire between two indices on a routing grid. The
// points must share a row or a column and must differ.
func (d *Design) Route(grid *RoutingGrid, mn [2]MN, options ...RouteOption) (Route, error) {
	if grid == nil {
		return Route{}, fmt.Errorf("layout: design %s: route: grid is nil", d.Name)
	}
	cfg := routeConfig{}
	for _, opt := range options {
		if opt != nil {
			opt(&cfg)
		}
	}
	if err := straight(mn[0], mn[1]); err != nil {
		return Route{}, fmt.Errorf("layout: design %s: route %v-%v: %w", d.Name, mn[0], mn[1], err)
	}

	wire := grid.wire(mn[0], mn[1])
	wire.Netname = cfg.netname
	route := Route{Wire: d.addRect(wire)}
	for idx, tagged := range cfg.vias {
		if tagged {
			route.Vias[idx] = d.addVia(grid.via(mn[idx]))
		}
	}
	return route, nil
}

func straight(a, b MN) error {
	if a == b {
		return ErrNotStraight
	}
	if a[0] != b[0] && a[1] != b[1] {
		return ErrNotStraight
	}
	return nil
}

// Axis selects the orientation of a routing track.
type Axis int

const (
	// Vertical tracks run along a column.
	Vertical Axis = iota
	// Horizontal tracks run along a row.
	Horizontal
)

// Track names one column (Vertical) or row (Horizontal) of a routing grid.
type Track struct {
	Axis  Axis
	Index int
}

// VerticalTrack returns the track running along column m.
func VerticalTrack(m int) Track { return Track{Axis: Vertical, Index: m} }

// HorizontalTrack returns the track running along row n.
func HorizontalTrack(n int) Track { return Track{Axis: Horizontal, Index: n} }

func (t Track) project(p MN) MN {
	if t.Axis == Vertical {
		return MN{t.Index, p[1]}
	}
	return MN{p[0], t.Index}
}

// TrackRoute is the result of RouteViaTrack: one branch per input point, in
// input order, and the wire running along the track.
type TrackRoute struct {
	Branches []Route
	Track    *Rect
}

// RouteViaTrack connects every point to a common track. Each point gets a
// branch wire perpendicular to the track (omitted when the point already
// lies on it) and a via where it meets the track; the track wire spans all
// of those vias.
func (d *Design) RouteViaTrack(grid *RoutingGrid, mn []MN, track Track, options ...RouteOption) (TrackRoute, error) {
	if grid == nil {
		return TrackRoute{}, fmt.Errorf("layout: design %s: route via track: grid is nil", d.Name)
	}
	if len(mn) < 2 {
		return TrackRoute{}, fmt.Errorf("layout: design %s: route via track: need at least two points, got %d", d.Name, len(mn))
	}
	cfg := routeConfig{}
	for _, opt := range options {
		if opt != nil {
			opt(&cfg)
		}
	}

	lo, hi := track.project(mn[0]), track.project(mn[0])
	for _, p := range mn[1:] {
		q := track.project(p)
		if q[0] < lo[0] || q[1] < lo[1] {
			lo = q
		}
		if q[0] > hi[0] || q[1] > hi[1] {
			hi = q
		}
	}
	if err := straight(lo, hi); err != nil {
		return TrackRoute{}, fmt.Errorf("layout: design %s: track %v: %w", d.Name, track, err)
	}

	result := TrackRoute{Branches: make([]Route, 0, len(mn))}
	for _, p := range mn {
		q := track.project(p)
		branch := Route{}
		if p != q {
			wire := grid.wire(p, q)
			wire.Netname = cfg.netname
			branch.Wire = d.addRect(wire)
		}
		branch.Vias[1] = d.addVia(grid.via(q))
		result.Branches = append(result.Branches, branch)
	}
	wire := grid.wire(lo, hi)
	wire.Netname = cfg.netname
	result.Track = d.addRect(wire)
	return result, nil
}

// PinOption customises Pin.
type PinOption func(*Pin)

// WithPinNet sets the pin net name. Net names ending in ':' mark pins that
// share a net and must be connected externally.
func WithPinNet(net string) PinOption {
	return func(p *Pin) {
		p.Netname = net
	}
}

// Pin declares a design pin over the index region box on grid. The region
// must lie on a wire already drawn in the design.
func (d *Design) Pin(name string, grid *RoutingGrid, box MNBox, options ...PinOption) (*Pin, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("layout: design %s: pin name is required", d.Name)
	}
	if grid == nil {
		return nil, fmt.Errorf("layout: design %s: pin %s: grid is nil", d.Name, name)
	}
	if _, exists := d.pinByName[name]; exists {
		return nil, fmt.Errorf("layout: design %s: pin %q: %w", d.Name, name, ErrDuplicateName)
	}

	box = NewMNBox(box[0], box[1])
	shape := grid.wire(box[0], box[1])
	if box[0][0] != box[1][0] && box[0][1] != box[1][1] {
		// Area pins take the horizontal layer and no centerline width.
		shape = Rect{Layer: grid.HLayer, XY: [2]Point{grid.XY(box[0]), grid.XY(box[1])}}
	}
	pin := &Pin{Name: name, Rect: shape}
	pin.Layer = shape.Layer.PinPurpose()
	pin.Netname = name
	for _, opt := range options {
		if opt != nil {
			opt(pin)
		}
	}
	if !d.backed(pin.Rect) {
		return nil, fmt.Errorf("layout: design %s: pin %q at %v: %w", d.Name, name, box, ErrDanglingPin)
	}

	d.pins = append(d.pins, pin)
	d.pinByName[name] = pin
	return pin, nil
}

func (d *Design) backed(shape Rect) bool {
	for _, r := range d.rects {
		if r.Covers(shape) {
			return true
		}
	}
	return false
}

func (d *Design) addRect(r Rect) *Rect {
	out := &r
	d.rects = append(d.rects, out)
	return out
}

func (d *Design) addVia(v *Via) *Via {
	d.vias = append(d.vias, v)
	return v
}

// Instance returns a placed instance by name.
func (d *Design) Instance(name string) (*Instance, bool) {
	inst, ok := d.byName[name]
	return inst, ok
}

// Instances returns the placed instances in placement order.
func (d *Design) Instances() []*Instance {
	return append([]*Instance(nil), d.instances...)
}

// Rects returns the routed wires in creation order.
func (d *Design) Rects() []*Rect {
	return append([]*Rect(nil), d.rects...)
}

// Vias returns the vias in creation order.
func (d *Design) Vias() []*Via {
	return append([]*Via(nil), d.vias...)
}

// Pins returns the declared pins in declaration order.
func (d *Design) Pins() []*Pin {
	return append([]*Pin(nil), d.pins...)
}

// BBox returns the union of the instance bounding boxes. Designs without
// instances report the zero box.
func (d *Design) BBox() Box {
	if len(d.instances) == 0 {
		return Box{}
	}
	box := d.instances[0].BBox()
	for _, inst := range d.instances[1:] {
		box = box.Union(inst.BBox())
	}
	return box
}

// ExportToTemplate converts the design into a native template so other
// designs can instantiate it. The template keeps the design pins and
// bounding box.
func (d *Design) ExportToTemplate() (*NativeTemplate, error) {
	if len(d.instances) == 0 {
		return nil, fmt.Errorf("layout: design %s: export to template: design is empty", d.Name)
	}
	pins := make(map[string]Pin, len(d.pins))
	for _, pin := range d.pins {
		pins[pin.Name] = *pin
	}
	return NewNativeTemplate(d.Name, d.LibName, d.BBox(), pins), nil
}
