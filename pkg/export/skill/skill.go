// Package skill writes designs as Cadence SKILL scripts that recreate the
// layout cellview when loaded in Virtuoso.
package skill

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/goliatone/go-cellgen/internal/ctxlog"
	"github.com/goliatone/go-cellgen/pkg/export"
	"github.com/goliatone/go-cellgen/pkg/layout"
	"github.com/goliatone/go-cellgen/pkg/render/template"
	"github.com/goliatone/go-cellgen/pkg/render/template/gotemplate"
)

// Name is the registry key of the exporter.
const Name = "skill"

const (
	templateName = "skill.il"
	subdir       = "skill"
	labelHeight  = 50
)

//go:embed templates/*.tpl
var embedded embed.FS

// Option configures the exporter.
type Option func(*Exporter)

// WithRenderer swaps the template renderer. The renderer must provide a
// "skill.il" template and the skillstr filter.
func WithRenderer(renderer template.TemplateRenderer) Option {
	return func(e *Exporter) {
		if renderer != nil {
			e.renderer = renderer
		}
	}
}

// Exporter renders one .il file per design.
type Exporter struct {
	renderer template.TemplateRenderer
}

// New returns a SKILL exporter backed by the embedded script template.
func New(options ...Option) (*Exporter, error) {
	e := &Exporter{}
	for _, opt := range options {
		if opt != nil {
			opt(e)
		}
	}
	if e.renderer == nil {
		templatesFS, err := fs.Sub(embedded, "templates")
		if err != nil {
			return nil, fmt.Errorf("skill: templates: %w", err)
		}
		engine, err := gotemplate.New(gotemplate.WithFS(templatesFS))
		if err != nil {
			return nil, fmt.Errorf("skill: %w", err)
		}
		e.renderer = engine
	}
	return e, nil
}

// Name implements export.Exporter.
func (e *Exporter) Name() string { return Name }

// Export implements export.Exporter. Files land at
// <dir>/skill/<libname>_<cellname>.il and are overwritten on every run.
func (e *Exporter) Export(ctx context.Context, lib *layout.Library, target export.Target) ([]string, error) {
	if err := export.Validate(lib, target); err != nil {
		return nil, err
	}

	scale := target.EffectiveScale()
	files := make([]string, 0, len(lib.Designs()))
	for _, design := range lib.Designs() {
		script, err := e.Render(design, target.TechLibrary, scale)
		if err != nil {
			return nil, err
		}
		path := export.CellPath(target.Dir, subdir, lib.Name, design.Name, ".il")
		if err := export.EnsureDir(path); err != nil {
			return nil, err
		}
		if err := os.WriteFile(path, []byte(script), 0o644); err != nil {
			return nil, fmt.Errorf("skill: write %s: %w", path, err)
		}
		ctxlog.FromContext(ctx).Debug("skill script written", "cell", design.Name, "path", path)
		files = append(files, path)
	}
	return files, nil
}

// Render produces the SKILL script of one design.
func (e *Exporter) Render(design *layout.Design, techLibrary string, scale float64) (string, error) {
	if design == nil {
		return "", fmt.Errorf("skill: design is required")
	}
	view := newCellView(design, scale)
	out, err := e.renderer.RenderTemplate(templateName, map[string]any{
		"cell":         view,
		"tech_library": techLibrary,
		"label_height": coord(labelHeight, scale),
	})
	if err != nil {
		return "", fmt.Errorf("skill: render %s: %w", design.Name, err)
	}
	return out, nil
}

type cellView struct {
	LibName   string     `json:"lib_name"`
	CellName  string     `json:"cell_name"`
	Rects     []rectView `json:"rects"`
	Instances []instView `json:"instances"`
	Pins      []pinView  `json:"pins"`
}

type rectView struct {
	Layer     string `json:"layer"`
	Purpose   string `json:"purpose"`
	Path      bool   `json:"path"`
	Points    string `json:"points"`
	Width     string `json:"width,omitempty"`
	Extension string `json:"extension,omitempty"`
	Net       string `json:"net,omitempty"`
}

type instView struct {
	Name     string `json:"name"`
	LibName  string `json:"lib_name"`
	CellName string `json:"cell_name"`
	Origin   string `json:"origin"`
	Orient   string `json:"orient"`
}

type pinView struct {
	Name    string `json:"name"`
	Net     string `json:"net"`
	Layer   string `json:"layer"`
	Purpose string `json:"purpose"`
	Box     string `json:"box"`
	Center  string `json:"center"`
}

// newCellView flattens virtual instances into shapes and keeps native
// instances and vias as cell references. Ordering follows the design.
func newCellView(design *layout.Design, scale float64) cellView {
	view := cellView{LibName: design.LibName, CellName: design.Name}

	for _, inst := range design.Instances() {
		if inst.Virtual {
			for _, shape := range inst.Shapes() {
				// Terminal names of a device are not nets of the cell.
				shape.Netname = ""
				view.Rects = append(view.Rects, newRectView(shape, scale))
			}
			continue
		}
		view.Instances = append(view.Instances, instView{
			Name:     inst.Name,
			LibName:  inst.LibName,
			CellName: inst.CellName,
			Origin:   point(inst.XY, scale),
			Orient:   inst.Transform.String(),
		})
	}
	for _, rect := range design.Rects() {
		view.Rects = append(view.Rects, newRectView(*rect, scale))
	}
	for idx, via := range design.Vias() {
		view.Instances = append(view.Instances, instView{
			Name:     "via" + strconv.Itoa(idx),
			LibName:  via.LibName,
			CellName: via.Template,
			Origin:   point(via.XY, scale),
			Orient:   layout.R0.String(),
		})
	}
	for _, pin := range design.Pins() {
		box := pin.Bounds()
		center := layout.Point{(box[0][0] + box[1][0]) / 2, (box[0][1] + box[1][1]) / 2}
		view.Pins = append(view.Pins, pinView{
			Name:    pin.Name,
			Net:     pin.Net(),
			Layer:   pin.Layer.Name(),
			Purpose: pin.Layer.Purpose(),
			Box:     "list(" + point(box[0], scale) + " " + point(box[1], scale) + ")",
			Center:  point(center, scale),
		})
	}
	return view
}

func newRectView(r layout.Rect, scale float64) rectView {
	view := rectView{Layer: r.Layer.Name(), Purpose: r.Layer.Purpose()}
	if r.IsWire() && r.XY[0] != r.XY[1] {
		view.Path = true
		view.Points = "list(" + point(r.XY[0], scale) + " " + point(r.XY[1], scale) + ")"
		view.Width = coord(r.Width, scale)
		view.Extension = coord(r.Extension, scale)
		view.Net = r.Netname
		return view
	}
	box := r.Bounds()
	view.Points = "list(" + point(box[0], scale) + " " + point(box[1], scale) + ")"
	return view
}

// point formats a point as a SKILL x:y pair.
func point(p layout.Point, scale float64) string {
	return coord(p[0], scale) + ":" + coord(p[1], scale)
}

// coord formats a scaled coordinate with fixed precision, trimming trailing
// zeros.
func coord(v int, scale float64) string {
	s := strconv.FormatFloat(float64(v)*scale, 'f', 6, 64)
	s = strings.TrimRight(s, "0")
	s = strings.TrimSuffix(s, ".")
	if s == "-0" || s == "" {
		return "0"
	}
	return s
}
