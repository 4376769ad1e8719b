package skill

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-cellgen/pkg/export"
	"github.com/goliatone/go-cellgen/pkg/layout"
	"github.com/goliatone/go-cellgen/pkg/render/template/gotemplate"
	"github.com/goliatone/go-cellgen/pkg/testsupport"
)

func unitGrid() layout.Grid {
	return layout.Grid{
		Name: "unit",
		X:    layout.OneDimGrid{Name: "x", Scope: [2]int{0, 100}, Elements: []int{0}},
		Y:    layout.OneDimGrid{Name: "y", Scope: [2]int{0, 100}, Elements: []int{0}},
	}
}

func sampleLibrary(t *testing.T) *layout.Library {
	t.Helper()

	placement := unitGrid()
	routing := &layout.RoutingGrid{
		Grid:       unitGrid(),
		HLayer:     layout.Layer{"M2", "drawing"},
		VLayer:     layout.Layer{"M3", "drawing"},
		HWidth:     40,
		VWidth:     40,
		HExtension: 20,
		VExtension: 20,
		Via:        "via_M2_M3_0",
		ViaLibName: "tech",
	}

	design := layout.NewDesign("cell", "")

	native := layout.NewNativeTemplate("unit", "logic", layout.NewBox(layout.Point{0, 0}, layout.Point{200, 200}), nil)
	inst, err := native.Generate("U0")
	if err != nil {
		t.Fatalf("generate native: %v", err)
	}
	if err := design.Place(&placement, inst, layout.MN{1, 0}); err != nil {
		t.Fatalf("place native: %v", err)
	}

	device := layout.NewParameterizedTemplate("dev", "tech", func(layout.Params) (layout.Geometry, error) {
		return layout.Geometry{
			Bounds: layout.NewBox(layout.Point{0, 0}, layout.Point{100, 100}),
			Shapes: []layout.Rect{{Layer: layout.Layer{"OD", "drawing"}, XY: [2]layout.Point{{10, 10}, {90, 90}}}},
		}, nil
	})
	virt, err := device.Generate("D0")
	if err != nil {
		t.Fatalf("generate virtual: %v", err)
	}
	if err := design.Place(&placement, virt, layout.MN{3, 0}); err != nil {
		t.Fatalf("place virtual: %v", err)
	}

	if _, err := design.Route(routing, [2]layout.MN{{1, 2}, {1, 5}}, layout.WithVias(true, true)); err != nil {
		t.Fatalf("route: %v", err)
	}
	if _, err := design.Pin("O", routing, layout.NewMNBox(layout.MN{1, 2}, layout.MN{1, 5})); err != nil {
		t.Fatalf("pin: %v", err)
	}

	lib := layout.NewLibrary("logic")
	if err := lib.Append(design); err != nil {
		t.Fatalf("append: %v", err)
	}
	return lib
}

func TestRender_EmitsCellviewStatements(t *testing.T) {
	exporter, err := New()
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	lib := sampleLibrary(t)
	design, _ := lib.Design("cell")

	script, err := exporter.Render(design, "tech", export.DefaultScale)
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	for _, want := range []string{
		`techBindTechFile(ddGetObj("logic") "tech")`,
		`cv = dbOpenCellViewByType("logic" "cell" "layout" "maskLayout" "w")`,
		`dbCreateInst(cv dbOpenCellViewByType("logic" "unit" "layout") "U0" 0.1:0 "R0")`,
		`dbCreateRect(cv list("OD" "drawing") list(0.31:0.01 0.39:0.09))`,
		`dbCreatePath(cv list("M3" "drawing") list(0.1:0.2 0.1:0.5) 0.04 "variableExtend" 0.02 0.02)`,
		`dbCreateInst(cv dbOpenCellViewByType("tech" "via_M2_M3_0" "layout") "via0" 0.1:0.2 "R0")`,
		`dbCreateInst(cv dbOpenCellViewByType("tech" "via_M2_M3_0" "layout") "via1" 0.1:0.5 "R0")`,
		`net = dbMakeNet(cv "O")`,
		`dbCreatePin(net dbCreateRect(cv list("M3" "pin") list(0.08:0.18 0.12:0.52)) "O")`,
		`dbCreateLabel(cv list("M3" "pin") 0.1:0.35 "O" "centerCenter" "R0" "roman" 0.05)`,
		"dbSave(cv)\ndbClose(cv)\n",
	} {
		if !strings.Contains(script, want) {
			t.Fatalf("expected %q in script:\n%s", want, script)
		}
	}
	if strings.Contains(script, "dev") {
		t.Fatalf("virtual instances must be flattened, got:\n%s", script)
	}
	if strings.Contains(script, "{%") || strings.Contains(script, "\n\n") {
		t.Fatalf("template artefacts left in script:\n%s", script)
	}
}

func TestRender_AddsNamedWiresToNets(t *testing.T) {
	exporter, err := New()
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	placement := unitGrid()
	routing := &layout.RoutingGrid{
		Grid:       unitGrid(),
		HLayer:     layout.Layer{"M2", "drawing"},
		VLayer:     layout.Layer{"M3", "drawing"},
		HWidth:     40,
		VWidth:     40,
		HExtension: 20,
		VExtension: 20,
		Via:        "via_M2_M3_0",
		ViaLibName: "tech",
	}
	design := layout.NewDesign("cell", "logic")

	device := layout.NewParameterizedTemplate("dev", "tech", func(layout.Params) (layout.Geometry, error) {
		return layout.Geometry{
			Bounds: layout.NewBox(layout.Point{0, 0}, layout.Point{100, 100}),
			Shapes: []layout.Rect{{
				Layer:   layout.Layer{"M1", "drawing"},
				XY:      [2]layout.Point{{50, 0}, {50, 100}},
				Width:   20,
				Netname: "D",
			}},
		}, nil
	})
	virt, err := device.Generate("D0")
	if err != nil {
		t.Fatalf("generate virtual: %v", err)
	}
	if err := design.Place(&placement, virt, layout.MN{0, 0}); err != nil {
		t.Fatalf("place virtual: %v", err)
	}
	if _, err := design.Route(routing, [2]layout.MN{{1, 2}, {1, 5}}, layout.WithNetname("VDD")); err != nil {
		t.Fatalf("route: %v", err)
	}

	script, err := exporter.Render(design, "tech", export.DefaultScale)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	want := `dbAddFigToNet(dbCreatePath(cv list("M3" "drawing") list(0.1:0.2 0.1:0.5) 0.04 "variableExtend" 0.02 0.02) dbMakeNet(cv "VDD"))`
	if !strings.Contains(script, want) {
		t.Fatalf("expected %q in script:\n%s", want, script)
	}
	if !strings.Contains(script, "\ndbCreatePath(cv list(\"M1\" \"drawing\") list(0.05:0 0.05:0.1) 0.02") {
		t.Fatalf("device shapes must be drawn without a net:\n%s", script)
	}
	if strings.Contains(script, `dbMakeNet(cv "D")`) {
		t.Fatalf("device terminal names must not become nets:\n%s", script)
	}
}

func TestRender_UsesInjectedRenderer(t *testing.T) {
	engine, err := gotemplate.New(gotemplate.WithFS(fstest.MapFS{
		"skill.il.tpl": {Data: []byte("{{ cell.cell_name|skillstr }} {{ tech_library }} {{ label_height }}\n")},
	}))
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	exporter, err := New(WithRenderer(engine))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	design, _ := sampleLibrary(t).Design("cell")

	got, err := exporter.Render(design, "tech", export.DefaultScale)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if want := "\"cell\" tech 0.05\n"; got != want {
		t.Fatalf("render mismatch\nwant: %q\n got: %q", want, got)
	}
}

func TestExport_WritesDeterministicFiles(t *testing.T) {
	exporter, err := New()
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	var outputs []string
	for run := 0; run < 2; run++ {
		dir := t.TempDir()
		files, err := exporter.Export(testsupport.Context(), sampleLibrary(t), export.Target{Dir: dir, TechLibrary: "tech"})
		if err != nil {
			t.Fatalf("export: %v", err)
		}
		want := []string{filepath.Join(dir, "skill", "logic_cell.il")}
		if diff := cmp.Diff(want, files); diff != "" {
			t.Fatalf("files mismatch (-want +got):\n%s", diff)
		}
		outputs = append(outputs, testsupport.MustReadFile(t, files[0]))
	}
	if outputs[0] != outputs[1] {
		t.Fatalf("export is not deterministic:\n%s\n---\n%s", outputs[0], outputs[1])
	}
}

func TestExport_RejectsEmptyTargets(t *testing.T) {
	exporter, err := New()
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if _, err := exporter.Export(testsupport.Context(), layout.NewLibrary("logic"), export.Target{Dir: t.TempDir()}); err == nil {
		t.Fatalf("expected error for an empty library")
	}
	if _, err := exporter.Export(testsupport.Context(), sampleLibrary(t), export.Target{}); err == nil {
		t.Fatalf("expected error for a missing directory")
	}
	if _, err := os.Stat(filepath.Join("skill")); err == nil {
		t.Fatalf("nothing should be written to the working directory")
	}
}

func TestCoord(t *testing.T) {
	cases := map[int]string{0: "0", 100: "0.1", 1200: "1.2", -50: "-0.05", 1: "0.001"}
	for in, want := range cases {
		if got := coord(in, 1e-3); got != want {
			t.Fatalf("coord(%d) = %q, want %q", in, got, want)
		}
	}
}
