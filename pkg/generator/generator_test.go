package generator_test

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-cellgen/pkg/export"
	"github.com/goliatone/go-cellgen/pkg/export/skill"
	"github.com/goliatone/go-cellgen/pkg/export/templateyaml"
	"github.com/goliatone/go-cellgen/pkg/generator"
	"github.com/goliatone/go-cellgen/pkg/layout"
	"github.com/goliatone/go-cellgen/pkg/tech"
	"github.com/goliatone/go-cellgen/pkg/testsupport"
)

// generated records one Generate call made through a stub template.
type generated struct {
	Template  string
	Instance  string
	Transform layout.Transform
	Params    layout.Params
}

type recordingTemplate struct {
	layout.Template
	calls *[]generated
}

func (r recordingTemplate) Generate(name string, options ...layout.GenerateOption) (*layout.Instance, error) {
	inst, err := r.Template.Generate(name, options...)
	if err != nil {
		return nil, err
	}
	*r.calls = append(*r.calls, generated{
		Template:  r.Name(),
		Instance:  inst.Name,
		Transform: inst.Transform,
		Params:    inst.Params.Clone(),
	})
	return inst, nil
}

// stubTechnology wraps the embedded technology and records every device
// generation.
type stubTechnology struct {
	tech.Technology
	calls []generated
}

func (s *stubTechnology) LoadTemplates() (layout.Templates, error) {
	templates, err := s.Technology.LoadTemplates()
	if err != nil {
		return nil, err
	}
	out := make(layout.Templates, len(templates))
	for name, tmpl := range templates {
		if _, native := tmpl.(*layout.NativeTemplate); native {
			out[name] = tmpl
			continue
		}
		out[name] = recordingTemplate{Template: tmpl, calls: &s.calls}
	}
	return out, nil
}

// captureExporter keeps every exported library instead of writing files.
type captureExporter struct {
	libs []*layout.Library
	err  error
}

func (c *captureExporter) Name() string { return "capture" }

func (c *captureExporter) Export(_ context.Context, lib *layout.Library, target export.Target) ([]string, error) {
	if c.err != nil {
		return nil, c.err
	}
	c.libs = append(c.libs, lib)
	return []string{filepath.Join(target.Dir, lib.Name)}, nil
}

func newStubGenerator(t *testing.T) (*generator.Generator, *stubTechnology, *captureExporter) {
	t.Helper()

	stub := &stubTechnology{Technology: testsupport.MustTechnology(t)}
	capture := &captureExporter{}
	registry := export.NewRegistry()
	registry.MustRegister(capture)

	gen := generator.New(
		generator.WithTechnology(stub),
		generator.WithRegistry(registry),
		generator.WithExporters(capture.Name()),
	)
	return gen, stub, capture
}

func pinNames(design *layout.Design) []string {
	var names []string
	for _, pin := range design.Pins() {
		names = append(names, pin.Name)
	}
	return names
}

func TestGenerate_InverterDevices(t *testing.T) {
	gen, stub, capture := newStubGenerator(t)

	result, err := gen.Generate(testsupport.Context(), generator.Request{ExportPath: t.TempDir()})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	want := []generated{
		{Template: "nmos_flex", Instance: "MN0", Transform: layout.R0, Params: generator.DeviceParams(6, 4)},
		{Template: "pmos_flex", Instance: "MP0", Transform: layout.MX, Params: generator.DeviceParams(6, 4)},
	}
	if diff := cmp.Diff(want, stub.calls); diff != "" {
		t.Fatalf("device generation mismatch (-want +got):\n%s", diff)
	}

	if len(result.Cells) != 1 || result.Cells[0].Name != "inv_6x" {
		t.Fatalf("expected a single inv_6x cell, got %+v", result.Cells)
	}
	if len(capture.libs) != 1 || capture.libs[0].Name != generator.DefaultLibrary {
		t.Fatalf("expected one exported %s library, got %d", generator.DefaultLibrary, len(capture.libs))
	}
	if result.Cells[0].Design.LibName != generator.DefaultLibrary {
		t.Fatalf("design library = %q", result.Cells[0].Design.LibName)
	}
}

func TestGenerate_PlacesPMOSAboveNMOS(t *testing.T) {
	gen, _, _ := newStubGenerator(t)

	result, err := gen.Generate(testsupport.Context(), generator.Request{ExportPath: t.TempDir()})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	design := result.Cells[0].Design

	templates, err := gen.Technology().LoadTemplates()
	if err != nil {
		t.Fatalf("load templates: %v", err)
	}
	grids, err := gen.Technology().LoadGrids(templates, layout.Params{"nfin": generator.DefaultFins})
	if err != nil {
		t.Fatalf("load grids: %v", err)
	}
	pg, err := grids.PlacementGrid(generator.DefaultPlacementGrid)
	if err != nil {
		t.Fatalf("placement grid: %v", err)
	}

	nmos, _ := design.Instance(generator.NMOSInstance)
	pmos, _ := design.Instance(generator.PMOSInstance)
	topLeft, err := pg.TopLeft(nmos)
	if err != nil {
		t.Fatalf("top left: %v", err)
	}
	height, err := pg.HeightVec(pmos)
	if err != nil {
		t.Fatalf("height vec: %v", err)
	}

	if got, want := pmos.XY, pg.XY(topLeft.Add(height)); got != want {
		t.Fatalf("PMOS origin = %v, want %v", got, want)
	}
	if got, want := pmos.XY, (layout.Point{0, 1200}); got != want {
		t.Fatalf("PMOS origin = %v, want %v", got, want)
	}
	if nmos.XY != (layout.Point{}) {
		t.Fatalf("NMOS origin = %v, want origin", nmos.XY)
	}
}

func TestGenerate_InverterWiring(t *testing.T) {
	gen, _, _ := newStubGenerator(t)

	result, err := gen.Generate(testsupport.Context(), generator.Request{ExportPath: t.TempDir()})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	design := result.Cells[0].Design

	if diff := cmp.Diff([]string{"I", "O", "VSS", "VDD"}, pinNames(design)); diff != "" {
		t.Fatalf("pins mismatch (-want +got):\n%s", diff)
	}
	// IN: two gate branches plus the track, OUT, VSS, VDD.
	if got := len(design.Rects()); got != 6 {
		t.Fatalf("expected 6 wires, got %d", got)
	}
	var nets []string
	for _, rect := range design.Rects() {
		nets = append(nets, rect.Netname)
	}
	if diff := cmp.Diff([]string{"I", "I", "I", "O", "VSS", "VDD"}, nets); diff != "" {
		t.Fatalf("wire nets mismatch (-want +got):\n%s", diff)
	}
	// Two track vias, one via at each end of the output wire.
	if got := len(design.Vias()); got != 4 {
		t.Fatalf("expected 4 vias, got %d", got)
	}

	pins := design.Pins()
	wantXY := map[string][2]layout.Point{
		"I":   {{100, 500}, {100, 700}},
		"O":   {{700, 200}, {700, 1000}},
		"VSS": {{0, 0}, {1000, 0}},
		"VDD": {{0, 1200}, {1000, 1200}},
	}
	for _, pin := range pins {
		if diff := cmp.Diff(wantXY[pin.Name], pin.XY); diff != "" {
			t.Fatalf("pin %s geometry mismatch (-want +got):\n%s", pin.Name, diff)
		}
		if pin.Net() != pin.Name {
			t.Fatalf("pin %s net = %q", pin.Name, pin.Net())
		}
	}

	out := design.Vias()[2:]
	if out[0].XY != (layout.Point{700, 200}) || out[1].XY != (layout.Point{700, 1000}) {
		t.Fatalf("output vias at %v and %v", out[0].XY, out[1].XY)
	}
}

func TestGenerate_HighStrengthInverter(t *testing.T) {
	gen, _, _ := newStubGenerator(t)

	result, err := gen.Generate(testsupport.Context(), generator.Request{
		CellTypes:  []generator.CellType{generator.InverterHighStrength},
		ExportPath: t.TempDir(),
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	cell := result.Cells[0]
	if cell.Name != "inv_hs_6x" {
		t.Fatalf("cell name = %q", cell.Name)
	}
	design := cell.Design

	if diff := cmp.Diff([]string{"I", "O0", "O1", "O2", "VSS", "VDD"}, pinNames(design)); diff != "" {
		t.Fatalf("pins mismatch (-want +got):\n%s", diff)
	}
	for _, rect := range design.Rects() {
		if rect.Layer.Name() == "M3" && rect.XY[0][1] == 200 && rect.Netname != generator.SharedOutputNet {
			t.Fatalf("output wire %v net = %q, want %q", rect.XY, rect.Netname, generator.SharedOutputNet)
		}
	}
	// Two track vias plus two vias per output wire.
	if got := len(design.Vias()); got != 2+3*2 {
		t.Fatalf("expected 8 vias, got %d", got)
	}

	var outputs [][2]layout.Point
	for _, pin := range design.Pins() {
		if !strings.HasPrefix(pin.Name, "O") {
			continue
		}
		if pin.Net() != generator.SharedOutputNet {
			t.Fatalf("pin %s net = %q, want %q", pin.Name, pin.Net(), generator.SharedOutputNet)
		}
		outputs = append(outputs, pin.XY)
	}
	want := [][2]layout.Point{
		{{300, 200}, {300, 1000}},
		{{500, 200}, {500, 1000}},
		{{700, 200}, {700, 1000}},
	}
	if diff := cmp.Diff(want, outputs); diff != "" {
		t.Fatalf("output wires mismatch (-want +got):\n%s", diff)
	}
}

func TestGenerate_SweepsCellTypesAndFingers(t *testing.T) {
	gen, stub, capture := newStubGenerator(t)

	result, err := gen.Generate(testsupport.Context(), generator.Request{
		CellTypes:  []generator.CellType{generator.Inverter, generator.InverterHighStrength},
		Fingers:    []int{2, 4},
		ExportPath: t.TempDir(),
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	var names []string
	for _, cell := range result.Cells {
		names = append(names, cell.Name)
		if len(cell.Files) != 1 {
			t.Fatalf("cell %s files = %v", cell.Name, cell.Files)
		}
	}
	if diff := cmp.Diff([]string{"inv_2x", "inv_4x", "inv_hs_2x", "inv_hs_4x"}, names); diff != "" {
		t.Fatalf("cells mismatch (-want +got):\n%s", diff)
	}
	if len(stub.calls) != 8 {
		t.Fatalf("expected 8 device generations, got %d", len(stub.calls))
	}
	if len(capture.libs) != 4 {
		t.Fatalf("expected one library per cell, got %d", len(capture.libs))
	}
	for _, lib := range capture.libs {
		if got := len(lib.Designs()); got != 1 {
			t.Fatalf("library holds %d designs, want 1", got)
		}
	}
}

func TestGenerate_RejectsInvalidRequests(t *testing.T) {
	gen, _, _ := newStubGenerator(t)

	cases := map[string]generator.Request{
		"unknown cell type":      {CellTypes: []generator.CellType{"nand"}},
		"zero fingers":           {Fingers: []int{0}},
		"high strength one leg":  {CellTypes: []generator.CellType{generator.InverterHighStrength}, Fingers: []int{1}},
		"negative fins":          {Fins: -1},
		"library with separator": {Library: "a/b"},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			req.ExportPath = t.TempDir()
			if _, err := gen.Generate(testsupport.Context(), req); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestGenerate_UnknownTemplate(t *testing.T) {
	gen, _, _ := newStubGenerator(t)

	_, err := gen.Generate(testsupport.Context(), generator.Request{
		PMOSTemplate: "pmos_missing",
		ExportPath:   t.TempDir(),
	})
	if !errors.Is(err, layout.ErrUnknownTemplate) {
		t.Fatalf("expected ErrUnknownTemplate, got %v", err)
	}
}

func TestGenerate_UnknownGrid(t *testing.T) {
	gen, _, _ := newStubGenerator(t)

	_, err := gen.Generate(testsupport.Context(), generator.Request{
		Routing23Grid: "routing_34_cmos",
		ExportPath:    t.TempDir(),
	})
	if !errors.Is(err, layout.ErrUnknownGrid) {
		t.Fatalf("expected ErrUnknownGrid, got %v", err)
	}
}

func TestGenerate_WrapsExportErrors(t *testing.T) {
	gen, _, capture := newStubGenerator(t)
	sentinel := errors.New("disk full")
	capture.err = sentinel

	_, err := gen.Generate(testsupport.Context(), generator.Request{ExportPath: t.TempDir()})
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected wrapped export error, got %v", err)
	}
	if !strings.Contains(err.Error(), "inv_6x: export capture") {
		t.Fatalf("error lacks cell and stage: %v", err)
	}
}

func TestGenerate_StopsOnCancelledContext(t *testing.T) {
	gen, _, capture := newStubGenerator(t)

	ctx, cancel := context.WithCancel(testsupport.Context())
	cancel()

	if _, err := gen.Generate(ctx, generator.Request{ExportPath: t.TempDir()}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(capture.libs) != 0 {
		t.Fatalf("nothing should be exported after cancellation")
	}
}

func TestGenerate_UnknownExporter(t *testing.T) {
	gen := generator.New(
		generator.WithTechnology(testsupport.MustTechnology(t)),
		generator.WithRegistry(export.NewRegistry()),
	)
	if _, err := gen.Generate(testsupport.Context(), generator.Request{ExportPath: t.TempDir()}); err == nil {
		t.Fatalf("expected error for an empty registry")
	}
}

func TestGenerate_DefaultExportersAppendTemplates(t *testing.T) {
	dir := t.TempDir()
	gen := generator.New()

	result, err := gen.Generate(testsupport.Context(), generator.Request{
		Fingers:    []int{2, 4, 6},
		ExportPath: dir,
		Preview:    true,
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	yamlPath := filepath.Join(dir, templateyaml.FileName(generator.DefaultLibrary))
	content := testsupport.MustReadFile(t, yamlPath)
	if got := strings.Count(content, "---\n"); got != 3 {
		t.Fatalf("expected 3 template records, got %d:\n%s", got, content)
	}

	templates, err := templateyaml.ImportFile(os.DirFS(dir), templateyaml.FileName(generator.DefaultLibrary))
	if err != nil {
		t.Fatalf("import templates: %v", err)
	}
	if diff := cmp.Diff([]string{"inv_2x", "inv_4x", "inv_6x"}, templates.Names()); diff != "" {
		t.Fatalf("templates mismatch (-want +got):\n%s", diff)
	}

	for _, cell := range result.Cells {
		wantFiles := []string{
			export.CellPath(dir, skill.Name, generator.DefaultLibrary, cell.Name, ".il"),
			yamlPath,
			export.CellPath(dir, "preview", generator.DefaultLibrary, cell.Name, ".svg"),
		}
		if diff := cmp.Diff(wantFiles, cell.Files); diff != "" {
			t.Fatalf("cell %s files mismatch (-want +got):\n%s", cell.Name, diff)
		}
		for _, path := range cell.Files {
			if _, err := os.Stat(path); err != nil {
				t.Fatalf("expected %s: %v", path, err)
			}
		}
	}
}

func TestGenerate_ExportsWithTechnologyScale(t *testing.T) {
	files := fstest.MapFS{}
	err := fs.WalkDir(tech.EmbeddedFS(), ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		data, err := fs.ReadFile(tech.EmbeddedFS(), path)
		if err != nil {
			return err
		}
		if path == "technology.hcl" {
			data = []byte(strings.Replace(string(data), "scale   = 0.001", "scale   = 0.0005", 1))
		}
		files[path] = &fstest.MapFile{Data: data}
		return nil
	})
	if err != nil {
		t.Fatalf("copy technology: %v", err)
	}
	technology, err := tech.Load(files)
	if err != nil {
		t.Fatalf("load technology: %v", err)
	}
	if got := technology.Scale(); got != 0.0005 {
		t.Fatalf("technology scale = %v", got)
	}

	result, err := generator.New(generator.WithTechnology(technology)).Generate(testsupport.Context(), generator.Request{
		ExportPath: t.TempDir(),
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	script := testsupport.MustReadFile(t, result.Cells[0].Files[0])

	want := `dbAddFigToNet(dbCreatePath(cv list("M3" "drawing") list(0.35:0.1 0.35:0.5) 0.02 "variableExtend" 0.01 0.01) dbMakeNet(cv "O"))`
	if !strings.Contains(script, want) {
		t.Fatalf("expected %q in script:\n%s", want, script)
	}
	if strings.Contains(script, "list(0.7:0.2 0.7:1)") {
		t.Fatalf("output wire exported at the default scale:\n%s", script)
	}
}

func TestGenerate_RerunsAreByteIdentical(t *testing.T) {
	run := func() map[string]string {
		dir := t.TempDir()
		_, err := generator.New().Generate(testsupport.Context(), generator.Request{
			CellTypes:  []generator.CellType{generator.Inverter, generator.InverterHighStrength},
			ExportPath: dir,
		})
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		files := map[string]string{}
		for _, rel := range []string{
			"skill/logic_generated_inv_6x.il",
			"skill/logic_generated_inv_hs_6x.il",
			"logic_generated_templates.yaml",
		} {
			files[rel] = testsupport.MustReadFile(t, filepath.Join(dir, rel))
		}
		return files
	}

	first, second := run(), run()
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("outputs differ between runs (-first +second):\n%s", diff)
	}
}
