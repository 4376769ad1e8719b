// Package preview draws designs as SVG images for quick visual review.
package preview

import (
	"context"
	"fmt"
	"hash/fnv"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/goliatone/go-cellgen/internal/ctxlog"
	"github.com/goliatone/go-cellgen/pkg/export"
	"github.com/goliatone/go-cellgen/pkg/layout"
)

// Name is the registry key of the exporter.
const Name = "preview"

const subdir = "preview"

// palette is indexed by a hash of the layer name so every layer keeps its
// colour across cells and runs.
var palette = []color.RGBA{
	{R: 0x1f, G: 0x77, B: 0xb4, A: 0x60},
	{R: 0xff, G: 0x7f, B: 0x0e, A: 0x60},
	{R: 0x2c, G: 0xa0, B: 0x2c, A: 0x60},
	{R: 0xd6, G: 0x27, B: 0x28, A: 0x60},
	{R: 0x94, G: 0x67, B: 0xbd, A: 0x60},
	{R: 0x8c, G: 0x56, B: 0x4b, A: 0x60},
	{R: 0xe3, G: 0x77, B: 0xc2, A: 0x60},
	{R: 0x7f, G: 0x7f, B: 0x7f, A: 0x60},
	{R: 0xbc, G: 0xbd, B: 0x22, A: 0x60},
	{R: 0x17, G: 0xbe, B: 0xcf, A: 0x60},
}

// Exporter renders one SVG per design.
type Exporter struct {
	// Width is the image width; the height follows the design aspect ratio.
	Width vg.Length
}

// New returns a preview exporter producing 6 inch wide images.
func New() *Exporter {
	return &Exporter{Width: 6 * vg.Inch}
}

// Name implements export.Exporter.
func (e *Exporter) Name() string { return Name }

// Export implements export.Exporter. Files land at
// <dir>/preview/<libname>_<cellname>.svg.
func (e *Exporter) Export(ctx context.Context, lib *layout.Library, target export.Target) ([]string, error) {
	if err := export.Validate(lib, target); err != nil {
		return nil, err
	}

	files := make([]string, 0, len(lib.Designs()))
	for _, design := range lib.Designs() {
		p, err := Plot(design)
		if err != nil {
			return nil, err
		}
		path := export.CellPath(target.Dir, subdir, lib.Name, design.Name, ".svg")
		if err := export.EnsureDir(path); err != nil {
			return nil, err
		}
		w, h := e.size(design.BBox())
		if err := p.Save(w, h, path); err != nil {
			return nil, fmt.Errorf("preview: save %s: %w", path, err)
		}
		ctxlog.FromContext(ctx).Debug("preview written", "cell", design.Name, "path", path)
		files = append(files, path)
	}
	return files, nil
}

func (e *Exporter) size(box layout.Box) (vg.Length, vg.Length) {
	w := e.Width
	if w <= 0 {
		w = 6 * vg.Inch
	}
	if box.Width() <= 0 || box.Height() <= 0 {
		return w, w
	}
	h := w * vg.Length(box.Height()) / vg.Length(box.Width())
	return w, max(h, 2*vg.Inch)
}

// Plot draws the design: flattened shapes and wires filled by layer, native
// instances and vias outlined, pins labelled with their names.
func Plot(design *layout.Design) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = design.LibName + "/" + design.Name
	p.X.Label.Text = "x"
	p.Y.Label.Text = "y"

	for _, inst := range design.Instances() {
		if inst.Virtual {
			for _, shape := range inst.Shapes() {
				if err := addBox(p, shape.Bounds(), layerColor(shape.Layer.Name()), false); err != nil {
					return nil, err
				}
			}
			continue
		}
		if err := addBox(p, inst.BBox(), color.RGBA{A: 0xff}, true); err != nil {
			return nil, err
		}
	}
	for _, rect := range design.Rects() {
		if err := addBox(p, rect.Bounds(), layerColor(rect.Layer.Name()), false); err != nil {
			return nil, err
		}
	}
	for _, via := range design.Vias() {
		box := layout.NewBox(via.XY.Sub(layout.Point{10, 10}), via.XY.Add(layout.Point{10, 10}))
		if err := addBox(p, box, color.RGBA{A: 0xff}, true); err != nil {
			return nil, err
		}
	}

	pins := design.Pins()
	if len(pins) > 0 {
		labels := plotter.XYLabels{
			XYs:    make(plotter.XYs, 0, len(pins)),
			Labels: make([]string, 0, len(pins)),
		}
		for _, pin := range pins {
			box := pin.Bounds()
			labels.XYs = append(labels.XYs, plotter.XY{
				X: float64(box[0][0]+box[1][0]) / 2,
				Y: float64(box[0][1]+box[1][1]) / 2,
			})
			labels.Labels = append(labels.Labels, pin.Name)
		}
		l, err := plotter.NewLabels(labels)
		if err != nil {
			return nil, fmt.Errorf("preview: %s labels: %w", design.Name, err)
		}
		p.Add(l)
	}
	return p, nil
}

func addBox(p *plot.Plot, box layout.Box, c color.RGBA, outline bool) error {
	ring := plotter.XYs{
		{X: float64(box[0][0]), Y: float64(box[0][1])},
		{X: float64(box[1][0]), Y: float64(box[0][1])},
		{X: float64(box[1][0]), Y: float64(box[1][1])},
		{X: float64(box[0][0]), Y: float64(box[1][1])},
	}
	poly, err := plotter.NewPolygon(ring)
	if err != nil {
		return fmt.Errorf("preview: polygon: %w", err)
	}
	if outline {
		poly.Color = nil
		poly.LineStyle.Color = c
		poly.LineStyle.Width = vg.Points(0.5)
		poly.LineStyle.Dashes = []vg.Length{vg.Points(2), vg.Points(2)}
	} else {
		poly.Color = c
		poly.LineStyle.Width = 0
	}
	p.Add(poly)
	return nil
}

func layerColor(name string) color.RGBA {
	h := fnv.New32a()
	_, _ = h.Write([]byte(name))
	return palette[h.Sum32()%uint32(len(palette))]
}
