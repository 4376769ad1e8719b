package layout

import (
	"fmt"
	"maps"
	"sort"
	"strings"
)

// Params carries template generation parameters such as nf or nfin.
type Params map[string]any

// Clone returns a shallow copy of p.
func (p Params) Clone() Params {
	if p == nil {
		return Params{}
	}
	return maps.Clone(p)
}

// Int reads an integer parameter, returning def when it is absent.
func (p Params) Int(name string, def int) (int, error) {
	raw, ok := p[name]
	if !ok || raw == nil {
		return def, nil
	}
	switch v := raw.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		if v != float64(int(v)) {
			return 0, fmt.Errorf("layout: param %q=%v: %w", name, raw, ErrInvalidParam)
		}
		return int(v), nil
	default:
		return 0, fmt.Errorf("layout: param %q=%v (%T): %w", name, raw, raw, ErrInvalidParam)
	}
}

// String reads a string parameter, returning def when it is absent.
func (p Params) String(name, def string) (string, error) {
	raw, ok := p[name]
	if !ok || raw == nil {
		return def, nil
	}
	s, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("layout: param %q=%v (%T): %w", name, raw, raw, ErrInvalidParam)
	}
	return s, nil
}

// Template is a blueprint instances are generated from.
type Template interface {
	Name() string
	Generate(name string, options ...GenerateOption) (*Instance, error)
}

// GenerateOption customises instance generation.
type GenerateOption func(*generateConfig)

type generateConfig struct {
	transform Transform
	params    Params
}

// WithTransform sets the instance orientation.
func WithTransform(t Transform) GenerateOption {
	return func(cfg *generateConfig) {
		cfg.transform = t
	}
}

// WithParams sets the generation parameters.
func WithParams(params Params) GenerateOption {
	return func(cfg *generateConfig) {
		cfg.params = params.Clone()
	}
}

func newGenerateConfig(options []GenerateOption) generateConfig {
	cfg := generateConfig{transform: R0, params: Params{}}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}
	if cfg.transform == "" {
		cfg.transform = R0
	}
	return cfg
}

// NativeTemplate is a template with fixed geometry, backed by a cell of its
// own in the target library.
type NativeTemplate struct {
	name    string
	libName string
	bbox    Box
	pins    map[string]Pin
}

// NewNativeTemplate builds a fixed-geometry template. Pins are copied.
func NewNativeTemplate(name, libName string, bbox Box, pins map[string]Pin) *NativeTemplate {
	return &NativeTemplate{
		name:    name,
		libName: libName,
		bbox:    bbox,
		pins:    maps.Clone(pins),
	}
}

// Name implements Template.
func (t *NativeTemplate) Name() string { return t.name }

// LibName is the library holding the template cell.
func (t *NativeTemplate) LibName() string { return t.libName }

// BBox is the template bounding box.
func (t *NativeTemplate) BBox() Box { return t.bbox }

// Pins returns a copy of the template pins.
func (t *NativeTemplate) Pins() map[string]Pin { return maps.Clone(t.pins) }

// PinNames returns the template pin names, sorted.
func (t *NativeTemplate) PinNames() []string {
	names := make([]string, 0, len(t.pins))
	for name := range t.pins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Generate implements Template.
func (t *NativeTemplate) Generate(name string, options ...GenerateOption) (*Instance, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("layout: template %q: instance name is required", t.name)
	}
	cfg := newGenerateConfig(options)
	return &Instance{
		Name:      name,
		LibName:   t.libName,
		CellName:  t.name,
		Transform: cfg.transform,
		Params:    cfg.params,
		bounds:    t.bbox,
		pins:      maps.Clone(t.pins),
	}, nil
}

// Geometry is the drawn result of a parameterized template for one parameter
// set, in template-local coordinates.
type Geometry struct {
	Bounds Box
	Pins   map[string]Pin
	Shapes []Rect
}

// BuildFunc computes template geometry from generation parameters.
type BuildFunc func(params Params) (Geometry, error)

// ParameterizedTemplate computes its geometry per instance. Instances it
// generates are virtual: exporters flatten their shapes.
type ParameterizedTemplate struct {
	name    string
	libName string
	build   BuildFunc
}

// NewParameterizedTemplate wraps a build function as a Template.
func NewParameterizedTemplate(name, libName string, build BuildFunc) *ParameterizedTemplate {
	return &ParameterizedTemplate{name: name, libName: libName, build: build}
}

// Name implements Template.
func (t *ParameterizedTemplate) Name() string { return t.name }

// Generate implements Template.
func (t *ParameterizedTemplate) Generate(name string, options ...GenerateOption) (*Instance, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("layout: template %q: instance name is required", t.name)
	}
	if t.build == nil {
		return nil, fmt.Errorf("layout: template %q: build function is nil", t.name)
	}
	cfg := newGenerateConfig(options)
	geom, err := t.build(cfg.params)
	if err != nil {
		return nil, fmt.Errorf("layout: template %q: %w", t.name, err)
	}
	return &Instance{
		Name:      name,
		LibName:   t.libName,
		CellName:  t.name,
		Transform: cfg.transform,
		Params:    cfg.params,
		Virtual:   true,
		bounds:    geom.Bounds,
		pins:      maps.Clone(geom.Pins),
		shapes:    append([]Rect(nil), geom.Shapes...),
	}, nil
}

// Templates indexes templates by name.
type Templates map[string]Template

// Get returns a template by name.
func (t Templates) Get(name string) (Template, error) {
	if tmpl, ok := t[name]; ok && tmpl != nil {
		return tmpl, nil
	}
	return nil, fmt.Errorf("layout: template %q: %w", name, ErrUnknownTemplate)
}

// Names returns the template names, sorted.
func (t Templates) Names() []string {
	names := make([]string, 0, len(t))
	for name := range t {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
