package tech

import (
	"fmt"
	"io/fs"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	"github.com/goliatone/go-cellgen/pkg/layout"
)

const (
	technologyFile = "technology.hcl"
	gridsFile      = "grids.hcl"
	templatesFile  = "templates.yaml"
)

// hclTechnologyFile is the top-level structure of technology.hcl.
type hclTechnologyFile struct {
	Technology hclTechnologyBlock `hcl:"technology,block"`
	Vias       []*hclViaBlock     `hcl:"via,block"`
	MOS        []*hclMOSBlock     `hcl:"mos,block"`
}

type hclTechnologyBlock struct {
	Name    string   `hcl:"name,label"`
	Library string   `hcl:"library,optional"`
	Scale   *float64 `hcl:"scale,optional"`
}

type hclViaBlock struct {
	Name   string   `hcl:"name,label"`
	Bottom []string `hcl:"bottom"`
	Top    []string `hcl:"top"`
	Size   int      `hcl:"size"`
}

// hclMOSBlock keeps its geometry as expressions: they are evaluated per
// instance against the generation parameters.
type hclMOSBlock struct {
	Name        string         `hcl:"name,label"`
	Device      string         `hcl:"device"`
	FingerPitch hcl.Expression `hcl:"finger_pitch"`
	Height      hcl.Expression `hcl:"height"`
	SourceY     hcl.Expression `hcl:"source_y"`
	DrainY      hcl.Expression `hcl:"drain_y"`
	GateY       hcl.Expression `hcl:"gate_y"`
	RailWidth   int            `hcl:"rail_width"`
	WireWidth   int            `hcl:"wire_width"`
	Diffusion   []string       `hcl:"diffusion"`
	Poly        []string       `hcl:"poly"`
	Contact     []string       `hcl:"contact"`
	Metal       []string       `hcl:"metal"`
	Well        []string       `hcl:"well,optional"`
}

// hclGridsFile is the top-level structure of grids.hcl.
type hclGridsFile struct {
	Grids []*hclGridBlock `hcl:"grid,block"`
}

type hclGridBlock struct {
	Name       string        `hcl:"name,label"`
	Type       string        `hcl:"type"`
	Via        string        `hcl:"via,optional"`
	X          hclAxisBlock  `hcl:"x,block"`
	Y          hclAxisBlock  `hcl:"y,block"`
	Vertical   *hclWireBlock `hcl:"vertical,block"`
	Horizontal *hclWireBlock `hcl:"horizontal,block"`
}

type hclAxisBlock struct {
	Scope    []int `hcl:"scope"`
	Elements []int `hcl:"elements"`
}

type hclWireBlock struct {
	Layer     []string `hcl:"layer"`
	Width     int      `hcl:"width"`
	Extension int      `hcl:"extension,optional"`
}

// parseFile reads and parses one HCL file from fsys.
func parseFile(parser *hclparse.Parser, fsys fs.FS, name string) (*hcl.File, error) {
	src, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, fmt.Errorf("tech: read %s: %w", name, err)
	}
	file, diags := parser.ParseHCL(src, name)
	if diags.HasErrors() {
		return nil, fmt.Errorf("tech: parse %s: %w", name, diags)
	}
	return file, nil
}

// evalContext exposes the generation parameters to expressions as
// params.<name>.
func evalContext(params layout.Params) (*hcl.EvalContext, error) {
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)

	attrs := make(map[string]cty.Value, len(params))
	for _, name := range names {
		v, err := ctyValue(params[name])
		if err != nil {
			return nil, fmt.Errorf("tech: param %q: %w", name, err)
		}
		attrs[name] = v
	}
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"params": cty.ObjectVal(attrs),
		},
	}, nil
}

func ctyValue(raw any) (cty.Value, error) {
	switch v := raw.(type) {
	case int:
		return cty.NumberIntVal(int64(v)), nil
	case int64:
		return cty.NumberIntVal(v), nil
	case float64:
		return cty.NumberFloatVal(v), nil
	case string:
		return cty.StringVal(v), nil
	case bool:
		return cty.BoolVal(v), nil
	case nil:
		return cty.NullVal(cty.DynamicPseudoType), nil
	default:
		return cty.NilVal, fmt.Errorf("unsupported value %v (%T): %w", raw, raw, layout.ErrInvalidParam)
	}
}

// evalInt evaluates an expression to an integer.
func evalInt(expr hcl.Expression, ctx *hcl.EvalContext, what string) (int, error) {
	var out int
	if diags := gohcl.DecodeExpression(expr, ctx, &out); diags.HasErrors() {
		return 0, fmt.Errorf("tech: evaluate %s: %w", what, diags)
	}
	return out, nil
}

func layer(raw []string, what string) (layout.Layer, error) {
	if len(raw) != 2 {
		return layout.Layer{}, fmt.Errorf("tech: %s: layer must be [name, purpose], got %v", what, raw)
	}
	return layout.Layer{raw[0], raw[1]}, nil
}

func axis(name string, raw hclAxisBlock) (layout.OneDimGrid, error) {
	if len(raw.Scope) != 2 {
		return layout.OneDimGrid{}, fmt.Errorf("tech: grid %q: scope must be [start, stop], got %v", name, raw.Scope)
	}
	g := layout.OneDimGrid{
		Name:     name,
		Scope:    [2]int{raw.Scope[0], raw.Scope[1]},
		Elements: append([]int(nil), raw.Elements...),
	}
	if err := g.Validate(); err != nil {
		return layout.OneDimGrid{}, fmt.Errorf("tech: %w", err)
	}
	return g, nil
}
