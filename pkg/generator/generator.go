package generator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-cellgen/internal/ctxlog"
	"github.com/goliatone/go-cellgen/pkg/export"
	"github.com/goliatone/go-cellgen/pkg/export/preview"
	"github.com/goliatone/go-cellgen/pkg/export/skill"
	"github.com/goliatone/go-cellgen/pkg/export/templateyaml"
	"github.com/goliatone/go-cellgen/pkg/layout"
	"github.com/goliatone/go-cellgen/pkg/tech"
)

// Defaults applied to empty Request fields.
const (
	DefaultLibrary       = "logic_generated"
	DefaultExportPath    = "./scratch/logic/"
	DefaultFins          = 4
	DefaultPMOSTemplate  = "pmos_flex"
	DefaultNMOSTemplate  = "nmos_flex"
	DefaultPlacementGrid = "placement_basic"
	DefaultRouting12Grid = "routing_12_cmos"
	DefaultRouting23Grid = "routing_23_cmos"
)

// DefaultFingers is the finger sweep used when a request names none.
var DefaultFingers = []int{6}

// DefaultCellTypes is the cell type sweep used when a request names none.
var DefaultCellTypes = []CellType{Inverter}

// DefaultExporters run for every cell, in order.
var DefaultExporters = []string{skill.Name, templateyaml.Name}

// Option customises the generator configuration.
type Option func(*Generator)

// WithTechnology injects the technology templates and grids are loaded from.
func WithTechnology(technology tech.Technology) Option {
	return func(g *Generator) {
		g.technology = technology
	}
}

// WithRegistry injects an exporter registry.
func WithRegistry(registry *export.Registry) Option {
	return func(g *Generator) {
		g.registry = registry
	}
}

// WithExporters overrides the exporters run for every cell, in order.
func WithExporters(names ...string) Option {
	return func(g *Generator) {
		if len(names) == 0 {
			return
		}
		g.exporters = append([]string(nil), names...)
	}
}

// Generator builds inverter cells against a technology and hands each
// finished library to the configured exporters. It applies sensible defaults
// (embedded technology, SKILL and template exporters) while remaining open to
// dependency injection.
type Generator struct {
	technology      tech.Technology
	registry        *export.Registry
	exporters       []string
	initialiseErr   error
	defaultsApplied bool
}

// New constructs a Generator applying any provided options.
func New(options ...Option) *Generator {
	g := &Generator{}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(g)
	}
	g.applyDefaults()
	return g
}

// Request describes one generation run: every cell type is generated for
// every finger count.
type Request struct {
	CellTypes []CellType
	Fingers   []int

	// Fins is the fin count shared by both devices and used to evaluate the
	// technology grids.
	Fins int

	Library    string
	ExportPath string

	PMOSTemplate  string
	NMOSTemplate  string
	PlacementGrid string
	Routing12Grid string
	Routing23Grid string

	// Preview additionally writes an SVG drawing of every cell.
	Preview bool
}

// WithDefaults returns a copy of r with empty fields filled in.
func (r Request) WithDefaults() Request {
	if len(r.CellTypes) == 0 {
		r.CellTypes = append([]CellType(nil), DefaultCellTypes...)
	}
	if len(r.Fingers) == 0 {
		r.Fingers = append([]int(nil), DefaultFingers...)
	}
	if r.Fins == 0 {
		r.Fins = DefaultFins
	}
	r.Library = orDefault(r.Library, DefaultLibrary)
	r.ExportPath = orDefault(r.ExportPath, DefaultExportPath)
	r.PMOSTemplate = orDefault(r.PMOSTemplate, DefaultPMOSTemplate)
	r.NMOSTemplate = orDefault(r.NMOSTemplate, DefaultNMOSTemplate)
	r.PlacementGrid = orDefault(r.PlacementGrid, DefaultPlacementGrid)
	r.Routing12Grid = orDefault(r.Routing12Grid, DefaultRouting12Grid)
	r.Routing23Grid = orDefault(r.Routing23Grid, DefaultRouting23Grid)
	return r
}

// Validate reports the first invalid field of a defaulted request.
func (r Request) Validate() error {
	for _, ct := range r.CellTypes {
		if _, err := ParseCellType(string(ct)); err != nil {
			return err
		}
	}
	for _, nf := range r.Fingers {
		if nf < 1 {
			return fmt.Errorf("generator: finger count %d must be at least 1", nf)
		}
		for _, ct := range r.CellTypes {
			if ct == InverterHighStrength && nf < 2 {
				return fmt.Errorf("generator: %s needs at least 2 fingers, got %d", ct, nf)
			}
		}
	}
	if r.Fins < 1 {
		return fmt.Errorf("generator: fin count %d must be at least 1", r.Fins)
	}
	if strings.ContainsAny(r.Library, `/\`) {
		return fmt.Errorf("generator: library name %q must not contain path separators", r.Library)
	}
	return nil
}

// Cell reports one generated cell.
type Cell struct {
	Name    string
	Type    CellType
	Fingers int
	Design  *layout.Design
	Files   []string
}

// Result lists the generated cells in generation order.
type Result struct {
	Cells []Cell
}

// Generate runs the load → instantiate → place → route → pin → export
// sequence for every requested cell. The first error aborts the run; files
// written for earlier cells are kept.
func (g *Generator) Generate(ctx context.Context, req Request) (Result, error) {
	if ctx == nil {
		return Result{}, errors.New("generator: context is required")
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if err := g.initialiseErr; err != nil {
		return Result{}, err
	}
	if !g.defaultsApplied {
		g.applyDefaults()
		if err := g.initialiseErr; err != nil {
			return Result{}, err
		}
	}

	req = req.WithDefaults()
	if err := req.Validate(); err != nil {
		return Result{}, err
	}
	exporters, err := g.exportersFor(req)
	if err != nil {
		return Result{}, err
	}

	logger := ctxlog.FromContext(ctx)

	logger.Info("load templates", "technology", g.technology.Name())
	templates, err := g.technology.LoadTemplates()
	if err != nil {
		return Result{}, fmt.Errorf("generator: load templates: %w", err)
	}
	nmos, err := templates.Get(req.NMOSTemplate)
	if err != nil {
		return Result{}, fmt.Errorf("generator: load templates: %w", err)
	}
	pmos, err := templates.Get(req.PMOSTemplate)
	if err != nil {
		return Result{}, fmt.Errorf("generator: load templates: %w", err)
	}

	logger.Info("load grids", "nfin", req.Fins)
	grids, err := g.technology.LoadGrids(templates, layout.Params{"nfin": req.Fins})
	if err != nil {
		return Result{}, fmt.Errorf("generator: load grids: %w", err)
	}
	b := &builder{library: req.Library, nmos: nmos, pmos: pmos, fins: req.Fins}
	if b.pg, err = grids.PlacementGrid(req.PlacementGrid); err != nil {
		return Result{}, fmt.Errorf("generator: load grids: %w", err)
	}
	if b.r12, err = grids.RoutingGrid(req.Routing12Grid); err != nil {
		return Result{}, fmt.Errorf("generator: load grids: %w", err)
	}
	if b.r23, err = grids.RoutingGrid(req.Routing23Grid); err != nil {
		return Result{}, fmt.Errorf("generator: load grids: %w", err)
	}

	target := export.Target{
		Dir:         req.ExportPath,
		TechLibrary: g.technology.Name(),
		Scale:       g.technology.Scale(),
	}
	logger.Debug("export target", "dir", target.Dir, "scale", target.EffectiveScale())

	var result Result
	for _, ct := range req.CellTypes {
		for _, nf := range req.Fingers {
			if err := ctx.Err(); err != nil {
				return result, err
			}
			cellName := CellName(ct, nf)
			logger.Info("creating cell", "cell", cellName)

			design, err := b.build(ctx, ct, nf, cellName)
			if err != nil {
				return result, err
			}
			lib := layout.NewLibrary(req.Library)
			if err := lib.Append(design); err != nil {
				return result, fmt.Errorf("generator: %s: library: %w", cellName, err)
			}

			cell := Cell{Name: cellName, Type: ct, Fingers: nf, Design: design}
			logger.Info("export design", "cell", cellName, "exporters", strings.Join(req.exporterNames(g.exporters), ","))
			for _, exporter := range exporters {
				files, err := exporter.Export(ctx, lib, target)
				if err != nil {
					return result, fmt.Errorf("generator: %s: export %s: %w", cellName, exporter.Name(), err)
				}
				cell.Files = append(cell.Files, files...)
			}
			result.Cells = append(result.Cells, cell)
		}
	}
	return result, nil
}

// Technology returns the technology the generator builds against.
func (g *Generator) Technology() tech.Technology {
	return g.technology
}

func (r Request) exporterNames(base []string) []string {
	names := append([]string(nil), base...)
	if r.Preview {
		names = append(names, preview.Name)
	}
	return names
}

func (g *Generator) exportersFor(req Request) ([]export.Exporter, error) {
	if g.registry == nil {
		return nil, errors.New("generator: exporter registry is nil")
	}
	names := req.exporterNames(g.exporters)
	out := make([]export.Exporter, 0, len(names))
	for _, name := range names {
		exporter, err := g.registry.Get(name)
		if err != nil {
			return nil, fmt.Errorf("generator: exporter %q: %w", name, err)
		}
		out = append(out, exporter)
	}
	return out, nil
}

func (g *Generator) applyDefaults() {
	if g.defaultsApplied {
		return
	}

	if g.technology == nil {
		technology, err := tech.Default()
		if err != nil {
			g.initialiseErr = fmt.Errorf("generator: default technology: %w", err)
		} else {
			g.technology = technology
		}
	}
	if g.registry == nil {
		g.registry = export.NewRegistry()
		skillExporter, err := skill.New()
		if err != nil {
			g.initialiseErr = fmt.Errorf("generator: default skill exporter: %w", err)
		} else {
			g.registry.MustRegister(skillExporter)
		}
		g.registry.MustRegister(templateyaml.New())
		g.registry.MustRegister(preview.New())
	}
	if len(g.exporters) == 0 {
		g.exporters = append([]string(nil), DefaultExporters...)
	}

	g.defaultsApplied = true
}

func orDefault(value, def string) string {
	if strings.TrimSpace(value) == "" {
		return def
	}
	return value
}
