package tech

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/goliatone/go-cellgen/pkg/export/templateyaml"
	"github.com/goliatone/go-cellgen/pkg/layout"
)

// Technology supplies the templates and grids a generator builds against.
type Technology interface {
	// Name tags exported cells with the technology library.
	Name() string
	// Scale converts database units to user units on export; zero selects
	// the exporter default.
	Scale() float64
	LoadTemplates() (layout.Templates, error)
	LoadGrids(templates layout.Templates, params layout.Params) (layout.Grids, error)
}

// HCLTechnology is a Technology described by technology.hcl and grids.hcl,
// optionally extended with native templates from templates.yaml.
type HCLTechnology struct {
	name    string
	library string
	scale   float64

	vias    []*hclViaBlock
	devices []*mosDevice
	grids   hcl.Body
	natives layout.Templates
}

var _ Technology = (*HCLTechnology)(nil)

// Load builds a technology from the files in fsys.
func Load(fsys fs.FS) (*HCLTechnology, error) {
	if fsys == nil {
		return nil, fmt.Errorf("tech: filesystem is required")
	}
	parser := hclparse.NewParser()

	techFile, err := parseFile(parser, fsys, technologyFile)
	if err != nil {
		return nil, err
	}
	var parsed hclTechnologyFile
	if diags := gohcl.DecodeBody(techFile.Body, nil, &parsed); diags.HasErrors() {
		return nil, fmt.Errorf("tech: decode %s: %w", technologyFile, diags)
	}

	gridFile, err := parseFile(parser, fsys, gridsFile)
	if err != nil {
		return nil, err
	}

	t := &HCLTechnology{
		name:    parsed.Technology.Name,
		library: parsed.Technology.Library,
		vias:    parsed.Vias,
		grids:   gridFile.Body,
	}
	if t.library == "" {
		t.library = t.name
	}
	if parsed.Technology.Scale != nil {
		t.scale = *parsed.Technology.Scale
	}
	for _, block := range parsed.MOS {
		device, err := newMOSDevice(block)
		if err != nil {
			return nil, err
		}
		t.devices = append(t.devices, device)
	}
	for _, via := range t.vias {
		if _, err := layer(via.Bottom, "via "+via.Name+" bottom"); err != nil {
			return nil, err
		}
		if _, err := layer(via.Top, "via "+via.Name+" top"); err != nil {
			return nil, err
		}
		if via.Size <= 0 {
			return nil, fmt.Errorf("tech: via %q: size must be positive", via.Name)
		}
	}

	natives, err := templateyaml.ImportFile(fsys, templatesFile)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("tech: %w", err)
	default:
		t.natives = natives
	}
	return t, nil
}

// LoadDir builds a technology from a directory on disk.
func LoadDir(dir string) (*HCLTechnology, error) {
	return Load(os.DirFS(dir))
}

// Name implements Technology.
func (t *HCLTechnology) Name() string { return t.name }

// Library is the library holding the technology cells (vias, natives).
func (t *HCLTechnology) Library() string { return t.library }

// Scale implements Technology; zero when technology.hcl sets none.
func (t *HCLTechnology) Scale() float64 { return t.scale }

// LoadTemplates implements Technology. It returns the MOS devices, one
// native template per via and any native templates from templates.yaml.
func (t *HCLTechnology) LoadTemplates() (layout.Templates, error) {
	out := make(layout.Templates, len(t.devices)+len(t.vias)+len(t.natives))
	add := func(tmpl layout.Template) error {
		if _, exists := out[tmpl.Name()]; exists {
			return fmt.Errorf("tech: template %q: %w", tmpl.Name(), layout.ErrDuplicateName)
		}
		out[tmpl.Name()] = tmpl
		return nil
	}

	for _, device := range t.devices {
		if err := add(device.template(t.library)); err != nil {
			return nil, err
		}
	}
	for _, via := range t.vias {
		if err := add(viaTemplate(via, t.library)); err != nil {
			return nil, err
		}
	}
	for _, name := range t.natives.Names() {
		if err := add(t.natives[name]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// LoadGrids implements Technology. Grid expressions are evaluated against
// params; routing grids must name a via present in templates.
func (t *HCLTechnology) LoadGrids(templates layout.Templates, params layout.Params) (layout.Grids, error) {
	ctx, err := evalContext(params)
	if err != nil {
		return layout.Grids{}, err
	}
	var parsed hclGridsFile
	if diags := gohcl.DecodeBody(t.grids, ctx, &parsed); diags.HasErrors() {
		return layout.Grids{}, fmt.Errorf("tech: decode %s: %w", gridsFile, diags)
	}

	grids := layout.Grids{
		Placement: make(map[string]*layout.Grid),
		Routing:   make(map[string]*layout.RoutingGrid),
	}
	for _, block := range parsed.Grids {
		base, err := baseGrid(block)
		if err != nil {
			return layout.Grids{}, err
		}
		if _, exists := grids.Placement[block.Name]; exists {
			return layout.Grids{}, fmt.Errorf("tech: grid %q: %w", block.Name, layout.ErrDuplicateName)
		}
		if _, exists := grids.Routing[block.Name]; exists {
			return layout.Grids{}, fmt.Errorf("tech: grid %q: %w", block.Name, layout.ErrDuplicateName)
		}

		switch block.Type {
		case "placement":
			grids.Placement[block.Name] = base
		case "routing":
			routing, err := t.routingGrid(block, base, templates)
			if err != nil {
				return layout.Grids{}, err
			}
			grids.Routing[block.Name] = routing
		default:
			return layout.Grids{}, fmt.Errorf("tech: grid %q: unknown type %q", block.Name, block.Type)
		}
	}
	return grids, nil
}

func baseGrid(block *hclGridBlock) (*layout.Grid, error) {
	x, err := axis(block.Name+".x", block.X)
	if err != nil {
		return nil, err
	}
	y, err := axis(block.Name+".y", block.Y)
	if err != nil {
		return nil, err
	}
	return &layout.Grid{Name: block.Name, X: x, Y: y}, nil
}

func (t *HCLTechnology) routingGrid(block *hclGridBlock, base *layout.Grid, templates layout.Templates) (*layout.RoutingGrid, error) {
	if block.Vertical == nil || block.Horizontal == nil {
		return nil, fmt.Errorf("tech: routing grid %q: vertical and horizontal blocks are required", block.Name)
	}
	if block.Via == "" {
		return nil, fmt.Errorf("tech: routing grid %q: via is required", block.Name)
	}
	viaTmpl, err := templates.Get(block.Via)
	if err != nil {
		return nil, fmt.Errorf("tech: routing grid %q: %w", block.Name, err)
	}
	viaLib := t.library
	if native, ok := viaTmpl.(*layout.NativeTemplate); ok {
		viaLib = native.LibName()
	}

	vLayer, err := layer(block.Vertical.Layer, "grid "+block.Name+" vertical")
	if err != nil {
		return nil, err
	}
	hLayer, err := layer(block.Horizontal.Layer, "grid "+block.Name+" horizontal")
	if err != nil {
		return nil, err
	}
	return &layout.RoutingGrid{
		Grid:       *base,
		HLayer:     hLayer,
		VLayer:     vLayer,
		HWidth:     block.Horizontal.Width,
		VWidth:     block.Vertical.Width,
		HExtension: block.Horizontal.Extension,
		VExtension: block.Vertical.Extension,
		Via:        block.Via,
		ViaLibName: viaLib,
	}, nil
}

// viaTemplate models a via as a square native template whose pins are the
// landing pads on the two metal layers.
func viaTemplate(via *hclViaBlock, libName string) *layout.NativeTemplate {
	half := via.Size / 2
	box := layout.NewBox(layout.Point{-half, -half}, layout.Point{half, half})
	pad := func(name string, raw []string) layout.Pin {
		return layout.Pin{
			Name: name,
			Rect: layout.Rect{Layer: layout.Layer{raw[0], raw[1]}, XY: [2]layout.Point(box)},
		}
	}
	return layout.NewNativeTemplate(via.Name, libName, box, map[string]layout.Pin{
		"BOTTOM": pad("BOTTOM", via.Bottom),
		"TOP":    pad("TOP", via.Top),
	})
}
