package tech

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"

	"github.com/goliatone/go-cellgen/pkg/layout"
)

// MOS pin names.
const (
	PinGate   = "G"
	PinDrain  = "D"
	PinSource = "S"
	PinRail   = "RAIL"
)

// mosDevice draws a flexible-finger transistor. Fingers sit on a fixed pitch
// with nfdmyl/nfdmyr dummy fingers on either side. Source/drain columns
// alternate starting with the source; tie="D" starts with the drain and
// ties the outer columns to the rail instead of the sources.
type mosDevice struct {
	name   string
	device string

	fingerPitch hcl.Expression
	height      hcl.Expression
	sourceY     hcl.Expression
	drainY      hcl.Expression
	gateY       hcl.Expression

	railWidth int
	wireWidth int

	diffusion layout.Layer
	poly      layout.Layer
	contact   layout.Layer
	metal     layout.Layer
	well      *layout.Layer
}

type mosParams struct {
	nf, nfdmyl, nfdmyr, nfin int
	tie                      string
}

func newMOSDevice(block *hclMOSBlock) (*mosDevice, error) {
	d := &mosDevice{
		name:        block.Name,
		device:      block.Device,
		fingerPitch: block.FingerPitch,
		height:      block.Height,
		sourceY:     block.SourceY,
		drainY:      block.DrainY,
		gateY:       block.GateY,
		railWidth:   block.RailWidth,
		wireWidth:   block.WireWidth,
	}
	if d.device != "nmos" && d.device != "pmos" {
		return nil, fmt.Errorf("tech: mos %q: device must be nmos or pmos, got %q", d.name, d.device)
	}
	if d.railWidth <= 0 || d.wireWidth <= 0 {
		return nil, fmt.Errorf("tech: mos %q: rail_width and wire_width must be positive", d.name)
	}

	var err error
	for _, l := range []struct {
		dst *layout.Layer
		raw []string
		key string
	}{
		{&d.diffusion, block.Diffusion, "diffusion"},
		{&d.poly, block.Poly, "poly"},
		{&d.contact, block.Contact, "contact"},
		{&d.metal, block.Metal, "metal"},
	} {
		if *l.dst, err = layer(l.raw, "mos "+d.name+" "+l.key); err != nil {
			return nil, err
		}
	}
	if block.Well != nil {
		well, err := layer(block.Well, "mos "+d.name+" well")
		if err != nil {
			return nil, err
		}
		d.well = &well
	}
	return d, nil
}

func parseMOSParams(params layout.Params) (mosParams, error) {
	var (
		p   mosParams
		err error
	)
	if p.nf, err = params.Int("nf", 1); err != nil {
		return p, err
	}
	if p.nfdmyl, err = params.Int("nfdmyl", 0); err != nil {
		return p, err
	}
	if p.nfdmyr, err = params.Int("nfdmyr", 0); err != nil {
		return p, err
	}
	if p.nfin, err = params.Int("nfin", 4); err != nil {
		return p, err
	}
	if p.tie, err = params.String("tie", ""); err != nil {
		return p, err
	}

	switch {
	case p.nf < 1:
		return p, fmt.Errorf("nf=%d must be at least 1: %w", p.nf, layout.ErrInvalidParam)
	case p.nfdmyl < 0 || p.nfdmyr < 0:
		return p, fmt.Errorf("dummy fingers (%d, %d) must not be negative: %w", p.nfdmyl, p.nfdmyr, layout.ErrInvalidParam)
	case p.nfin < 1:
		return p, fmt.Errorf("nfin=%d must be at least 1: %w", p.nfin, layout.ErrInvalidParam)
	case p.tie != "" && p.tie != PinSource && p.tie != PinDrain:
		return p, fmt.Errorf("tie=%q must be S, D or empty: %w", p.tie, layout.ErrInvalidParam)
	}
	return p, nil
}

func (p mosParams) normalized() layout.Params {
	return layout.Params{
		"nf":     p.nf,
		"nfdmyl": p.nfdmyl,
		"nfdmyr": p.nfdmyr,
		"nfin":   p.nfin,
		"tie":    p.tie,
	}
}

// template wraps the device as a parameterized template.
func (d *mosDevice) template(libName string) *layout.ParameterizedTemplate {
	return layout.NewParameterizedTemplate(d.name, libName, d.build)
}

func (d *mosDevice) build(params layout.Params) (layout.Geometry, error) {
	p, err := parseMOSParams(params)
	if err != nil {
		return layout.Geometry{}, err
	}
	ctx, err := evalContext(p.normalized())
	if err != nil {
		return layout.Geometry{}, err
	}

	var pitch, height, sourceY, drainY, gateY int
	for _, e := range []struct {
		dst  *int
		expr hcl.Expression
		what string
	}{
		{&pitch, d.fingerPitch, "finger_pitch"},
		{&height, d.height, "height"},
		{&sourceY, d.sourceY, "source_y"},
		{&drainY, d.drainY, "drain_y"},
		{&gateY, d.gateY, "gate_y"},
	} {
		if *e.dst, err = evalInt(e.expr, ctx, "mos "+d.name+" "+e.what); err != nil {
			return layout.Geometry{}, err
		}
	}
	if pitch <= 0 || height <= 0 {
		return layout.Geometry{}, fmt.Errorf("pitch %d and height %d must be positive: %w", pitch, height, layout.ErrInvalidParam)
	}
	for _, y := range []int{sourceY, drainY, gateY} {
		if y <= 0 || y >= height {
			return layout.Geometry{}, fmt.Errorf("terminal row %d outside cell height %d: %w", y, height, layout.ErrInvalidParam)
		}
	}

	width := (p.nfdmyl + p.nf + p.nfdmyr) * pitch
	x0 := p.nfdmyl * pitch

	// Even columns carry the source unless the device is drain-tied.
	evenTerm, oddTerm := PinSource, PinDrain
	if p.tie == PinDrain {
		evenTerm, oddTerm = PinDrain, PinSource
	}
	rowOf := map[string]int{PinSource: sourceY, PinDrain: drainY}
	columns := map[string][]int{}
	for k := 0; k <= p.nf; k++ {
		term := evenTerm
		if k%2 == 1 {
			term = oddTerm
		}
		columns[term] = append(columns[term], x0+k*pitch)
	}

	geom := layout.Geometry{
		Bounds: layout.NewBox(layout.Point{0, 0}, layout.Point{width, height}),
		Pins:   make(map[string]layout.Pin, 4),
	}
	if d.well != nil {
		geom.Shapes = append(geom.Shapes, layout.Rect{Layer: *d.well, XY: [2]layout.Point(geom.Bounds)})
	}
	geom.Shapes = append(geom.Shapes, layout.Rect{
		Layer: d.diffusion,
		XY:    [2]layout.Point{{pitch / 2, sourceY / 2}, {width - pitch/2, (drainY + gateY) / 2}},
	})
	for f := 0; f < p.nfdmyl+p.nf+p.nfdmyr; f++ {
		x := f*pitch + pitch/2
		geom.Shapes = append(geom.Shapes, layout.Rect{
			Layer: d.poly,
			XY:    [2]layout.Point{{x, sourceY / 2}, {x, gateY}},
			Width: pitch / 5,
		})
	}

	for _, term := range []string{evenTerm, oddTerm} {
		y := rowOf[term]
		for _, x := range columns[term] {
			bottom := sourceY / 2
			if p.tie == term {
				bottom = 0
			}
			geom.Shapes = append(geom.Shapes, layout.Rect{
				Layer: d.contact,
				XY:    [2]layout.Point{{x, bottom}, {x, y}},
				Width: d.wireWidth,
			})
		}
		cols := columns[term]
		geom.Pins[term] = d.pin(term, layout.Point{cols[0], y}, layout.Point{cols[len(cols)-1], y}, d.wireWidth)
	}

	geom.Pins[PinGate] = d.pin(PinGate, layout.Point{x0, gateY}, layout.Point{x0 + p.nf*pitch, gateY}, d.wireWidth)
	geom.Pins[PinRail] = d.pin(PinRail, layout.Point{0, 0}, layout.Point{width, 0}, d.railWidth)

	for _, name := range []string{PinGate, evenTerm, oddTerm, PinRail} {
		shape := geom.Pins[name].Rect
		shape.Layer = d.metal
		geom.Shapes = append(geom.Shapes, shape)
	}
	return geom, nil
}

func (d *mosDevice) pin(name string, a, b layout.Point, width int) layout.Pin {
	return layout.Pin{
		Name: name,
		Rect: layout.Rect{
			Layer:   d.metal.PinPurpose(),
			XY:      [2]layout.Point{a, b},
			Width:   width,
			Netname: name,
		},
	}
}
