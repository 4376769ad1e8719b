// Package templateyaml appends finished designs to a YAML template database
// and reads that database back as native templates.
//
// Every append writes one YAML document of the form
//
//	<libname>:
//	  <cellname>:
//	    libname: ...
//	    cellname: ...
//	    bbox: [[x0, y0], [x1, y1]]
//	    pins:
//	      <name>: {xy: [[...], [...]], layer: [M3, pin], netname: ..., width: ...}
//
// so the file can grow across runs without rewriting earlier records.
package templateyaml

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-cellgen/internal/ctxlog"
	"github.com/goliatone/go-cellgen/pkg/export"
	"github.com/goliatone/go-cellgen/pkg/layout"
)

// Name is the registry key of the exporter.
const Name = "template"

// FileName returns the database file name for a library.
func FileName(libName string) string {
	return libName + "_templates.yaml"
}

type templateRecord struct {
	LibName  string               `yaml:"libname"`
	CellName string               `yaml:"cellname"`
	BBox     [][]int              `yaml:"bbox,flow"`
	Pins     map[string]pinRecord `yaml:"pins"`
}

type pinRecord struct {
	XY      [][]int  `yaml:"xy,flow"`
	Layer   []string `yaml:"layer,flow"`
	Netname string   `yaml:"netname"`
	Width   int      `yaml:"width,omitempty"`
}

type document map[string]map[string]templateRecord

// Exporter appends every design of a library to <dir>/<lib>_templates.yaml.
type Exporter struct{}

// New returns the template database exporter.
func New() *Exporter { return &Exporter{} }

// Name implements export.Exporter.
func (e *Exporter) Name() string { return Name }

// Export implements export.Exporter. Existing records are never rewritten.
func (e *Exporter) Export(ctx context.Context, lib *layout.Library, target export.Target) ([]string, error) {
	if err := export.Validate(lib, target); err != nil {
		return nil, err
	}

	path := filepath.Join(target.Dir, FileName(lib.Name))
	for _, design := range lib.Designs() {
		tmpl, err := design.ExportToTemplate()
		if err != nil {
			return nil, fmt.Errorf("templateyaml: %s: %w", design.Name, err)
		}
		if err := Append(path, tmpl); err != nil {
			return nil, err
		}
		ctxlog.FromContext(ctx).Debug("template appended", "cell", design.Name, "path", path)
	}
	return []string{path}, nil
}

// Append adds one template record to the database at path, creating the file
// and its directory when missing.
func Append(path string, tmpl *layout.NativeTemplate) error {
	if tmpl == nil {
		return fmt.Errorf("templateyaml: template is required")
	}
	data, err := Encode(tmpl)
	if err != nil {
		return err
	}
	if err := export.EnsureDir(path); err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("templateyaml: open %s: %w", path, err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("templateyaml: write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("templateyaml: close %s: %w", path, err)
	}
	return nil
}

// Encode renders one template as a standalone YAML document.
func Encode(tmpl *layout.NativeTemplate) ([]byte, error) {
	bbox := tmpl.BBox()
	record := templateRecord{
		LibName:  tmpl.LibName(),
		CellName: tmpl.Name(),
		BBox:     pointsToSlice(bbox[0], bbox[1]),
		Pins:     make(map[string]pinRecord),
	}
	for name, pin := range tmpl.Pins() {
		record.Pins[name] = pinRecord{
			XY:      pointsToSlice(pin.XY[0], pin.XY[1]),
			Layer:   []string{pin.Layer.Name(), pin.Layer.Purpose()},
			Netname: pin.Net(),
			Width:   pin.Width,
		}
	}

	var buf bytes.Buffer
	buf.WriteString("---\n")
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(document{tmpl.LibName(): {tmpl.Name(): record}}); err != nil {
		return nil, fmt.Errorf("templateyaml: encode %s: %w", tmpl.Name(), err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("templateyaml: encode %s: %w", tmpl.Name(), err)
	}
	return buf.Bytes(), nil
}

// Import reads every record of a database. When a cell appears more than
// once the latest record wins.
func Import(r io.Reader) (layout.Templates, error) {
	out := make(layout.Templates)
	dec := yaml.NewDecoder(r)
	for {
		var doc document
		err := dec.Decode(&doc)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("templateyaml: decode: %w", err)
		}
		for libName, cells := range doc {
			for cellName, record := range cells {
				tmpl, err := record.template(libName, cellName)
				if err != nil {
					return nil, err
				}
				out[tmpl.Name()] = tmpl
			}
		}
	}
	return out, nil
}

// ImportFile reads a database from a filesystem.
func ImportFile(fsys fs.FS, name string) (layout.Templates, error) {
	f, err := fsys.Open(name)
	if err != nil {
		return nil, fmt.Errorf("templateyaml: open %s: %w", name, err)
	}
	defer f.Close()
	return Import(f)
}

func (r templateRecord) template(libName, cellName string) (*layout.NativeTemplate, error) {
	if r.LibName != "" {
		libName = r.LibName
	}
	if r.CellName != "" {
		cellName = r.CellName
	}
	bbox, err := sliceToPoints(r.BBox)
	if err != nil {
		return nil, fmt.Errorf("templateyaml: %s bbox: %w", cellName, err)
	}

	pins := make(map[string]layout.Pin, len(r.Pins))
	for name, p := range r.Pins {
		xy, err := sliceToPoints(p.XY)
		if err != nil {
			return nil, fmt.Errorf("templateyaml: %s pin %s: %w", cellName, name, err)
		}
		if len(p.Layer) != 2 {
			return nil, fmt.Errorf("templateyaml: %s pin %s: layer must be [name, purpose]", cellName, name)
		}
		pins[name] = layout.Pin{
			Name: name,
			Rect: layout.Rect{
				Layer:   layout.Layer{p.Layer[0], p.Layer[1]},
				XY:      xy,
				Width:   p.Width,
				Netname: p.Netname,
			},
		}
	}
	return layout.NewNativeTemplate(cellName, libName, layout.NewBox(bbox[0], bbox[1]), pins), nil
}

func pointsToSlice(a, b layout.Point) [][]int {
	return [][]int{{a[0], a[1]}, {b[0], b[1]}}
}

func sliceToPoints(raw [][]int) ([2]layout.Point, error) {
	var out [2]layout.Point
	if len(raw) != 2 || len(raw[0]) != 2 || len(raw[1]) != 2 {
		return out, fmt.Errorf("expected [[x0, y0], [x1, y1]], got %v", raw)
	}
	out[0] = layout.Point{raw[0][0], raw[0][1]}
	out[1] = layout.Point{raw[1][0], raw[1][1]}
	return out, nil
}
