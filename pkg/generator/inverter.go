package generator

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/goliatone/go-cellgen/internal/ctxlog"
	"github.com/goliatone/go-cellgen/pkg/layout"
	"github.com/goliatone/go-cellgen/pkg/tech"
)

// CellType selects how the inverter output is wired.
type CellType string

const (
	// Inverter connects the drains with a single output wire.
	Inverter CellType = "inv"
	// InverterHighStrength connects every other drain finger with its own
	// output wire; the outputs share the O: net.
	InverterHighStrength CellType = "inv_hs"
)

// CellTypes lists the supported cell types.
func CellTypes() []CellType {
	return []CellType{Inverter, InverterHighStrength}
}

// ParseCellType validates a cell type name.
func ParseCellType(raw string) (CellType, error) {
	ct := CellType(strings.TrimSpace(raw))
	for _, known := range CellTypes() {
		if ct == known {
			return ct, nil
		}
	}
	return "", fmt.Errorf("generator: unknown cell type %q", raw)
}

// CellName returns the design name of a cell: <type>_<nf>x.
func CellName(ct CellType, nf int) string {
	return string(ct) + "_" + strconv.Itoa(nf) + "x"
}

// Instance names of the two devices.
const (
	NMOSInstance = "MN0"
	PMOSInstance = "MP0"
)

// Pin names.
const (
	PinIn  = "I"
	PinOut = "O"
	PinVSS = "VSS"
	PinVDD = "VDD"
)

// SharedOutputNet is the net of the inv_hs output pins.
const SharedOutputNet = "O:"

const (
	dummyFingers = 2
	tieTerminal  = "S"
)

// DeviceParams returns the parameters both devices are generated with.
func DeviceParams(nf, nfin int) layout.Params {
	return layout.Params{
		"nf":     nf,
		"tie":    tieTerminal,
		"nfdmyl": dummyFingers,
		"nfdmyr": dummyFingers,
		"nfin":   nfin,
	}
}

type builder struct {
	library string
	nmos    layout.Template
	pmos    layout.Template
	fins    int

	pg  *layout.Grid
	r12 *layout.RoutingGrid
	r23 *layout.RoutingGrid
}

// stageErr wraps err with the cell and the stage it failed in.
func stageErr(cell, stage string, err error) error {
	return fmt.Errorf("generator: %s: %s: %w", cell, stage, err)
}

func (b *builder) build(ctx context.Context, ct CellType, nf int, cellName string) (*layout.Design, error) {
	logger := ctxlog.FromContext(ctx).With("cell", cellName)
	dsn := layout.NewDesign(cellName, b.library)

	logger.Info("create instances")
	params := DeviceParams(nf, b.fins)
	in0, err := b.nmos.Generate(NMOSInstance, layout.WithParams(params))
	if err != nil {
		return nil, stageErr(cellName, "instantiate "+NMOSInstance, err)
	}
	ip0, err := b.pmos.Generate(PMOSInstance, layout.WithTransform(layout.MX), layout.WithParams(params))
	if err != nil {
		return nil, stageErr(cellName, "instantiate "+PMOSInstance, err)
	}

	if err := dsn.Place(b.pg, in0, layout.MN{0, 0}); err != nil {
		return nil, stageErr(cellName, "place "+NMOSInstance, err)
	}
	topLeft, err := b.pg.TopLeft(in0)
	if err != nil {
		return nil, stageErr(cellName, "place "+PMOSInstance, err)
	}
	height, err := b.pg.HeightVec(ip0)
	if err != nil {
		return nil, stageErr(cellName, "place "+PMOSInstance, err)
	}
	if err := dsn.Place(b.pg, ip0, topLeft.Add(height)); err != nil {
		return nil, stageErr(cellName, "place "+PMOSInstance, err)
	}

	logger.Info("create wires")
	w := &wiring{dsn: dsn, nmos: in0, pmos: ip0, b: b}

	input, err := w.routeInput()
	if err != nil {
		return nil, stageErr(cellName, "route IN", err)
	}
	outputs, err := w.routeOutput(ct, nf)
	if err != nil {
		return nil, stageErr(cellName, "route OUT", err)
	}
	vss, err := w.routeRail(in0, PinVSS)
	if err != nil {
		return nil, stageErr(cellName, "route VSS", err)
	}
	vdd, err := w.routeRail(ip0, PinVDD)
	if err != nil {
		return nil, stageErr(cellName, "route VDD", err)
	}
	logger.Debug("wires created", "rects", len(dsn.Rects()), "vias", len(dsn.Vias()))

	if err := w.pin(PinIn, b.r23, input); err != nil {
		return nil, stageErr(cellName, "pin "+PinIn, err)
	}
	if ct == InverterHighStrength {
		for i, out := range outputs {
			name := PinOut + strconv.Itoa(i)
			if err := w.pin(name, b.r23, out, layout.WithPinNet(SharedOutputNet)); err != nil {
				return nil, stageErr(cellName, "pin "+name, err)
			}
		}
	} else {
		if err := w.pin(PinOut, b.r23, outputs[0]); err != nil {
			return nil, stageErr(cellName, "pin "+PinOut, err)
		}
	}
	if err := w.pin(PinVSS, b.r12, vss); err != nil {
		return nil, stageErr(cellName, "pin "+PinVSS, err)
	}
	if err := w.pin(PinVDD, b.r12, vdd); err != nil {
		return nil, stageErr(cellName, "pin "+PinVDD, err)
	}
	return dsn, nil
}

type wiring struct {
	dsn  *layout.Design
	nmos *layout.Instance
	pmos *layout.Instance
	b    *builder
}

// routeInput joins both gates on a vertical track one column left of the
// NMOS gate and returns the track wire.
func (w *wiring) routeInput() (*layout.Rect, error) {
	r23 := w.b.r23
	ng, err := r23.PinMN(w.nmos, tech.PinGate)
	if err != nil {
		return nil, err
	}
	pg, err := r23.PinMN(w.pmos, tech.PinGate)
	if err != nil {
		return nil, err
	}
	route, err := w.dsn.RouteViaTrack(r23, []layout.MN{ng.LowerLeft(), pg.LowerLeft()}, layout.VerticalTrack(ng[0][0]-1), layout.WithNetname(PinIn))
	if err != nil {
		return nil, err
	}
	return route.Track, nil
}

// routeOutput draws the drain connections and returns their wires.
func (w *wiring) routeOutput(ct CellType, nf int) ([]*layout.Rect, error) {
	r23 := w.b.r23
	nd, err := r23.PinMN(w.nmos, tech.PinDrain)
	if err != nil {
		return nil, err
	}
	pd, err := r23.PinMN(w.pmos, tech.PinDrain)
	if err != nil {
		return nil, err
	}

	if ct != InverterHighStrength {
		route, err := w.dsn.Route(r23,
			[2]layout.MN{nd.UpperRight(), pd.UpperRight()},
			layout.WithVias(true, true),
			layout.WithNetname(PinOut),
		)
		if err != nil {
			return nil, err
		}
		return []*layout.Rect{route.Wire}, nil
	}

	wires := make([]*layout.Rect, 0, nf/2)
	for i := 0; i < nf/2; i++ {
		offset := layout.MN{2 * i, 0}
		route, err := w.dsn.Route(r23,
			[2]layout.MN{nd.LowerLeft().Add(offset), pd.LowerLeft().Add(offset)},
			layout.WithVias(true, true),
			layout.WithNetname(SharedOutputNet),
		)
		if err != nil {
			return nil, fmt.Errorf("output %d: %w", i, err)
		}
		wires = append(wires, route.Wire)
	}
	return wires, nil
}

// routeRail covers the RAIL pin of inst with a wire on net, drawn on the
// lower routing grid.
func (w *wiring) routeRail(inst *layout.Instance, net string) (*layout.Rect, error) {
	r12 := w.b.r12
	rail, err := r12.PinMN(inst, tech.PinRail)
	if err != nil {
		return nil, err
	}
	route, err := w.dsn.Route(r12, [2]layout.MN{rail.LowerLeft(), rail.UpperRight()}, layout.WithNetname(net))
	if err != nil {
		return nil, err
	}
	return route.Wire, nil
}

func (w *wiring) pin(name string, grid *layout.RoutingGrid, wire *layout.Rect, options ...layout.PinOption) error {
	box, err := grid.RectMN(wire)
	if err != nil {
		return err
	}
	_, err = w.dsn.Pin(name, grid, box, options...)
	return err
}
