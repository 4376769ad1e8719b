// Package cellgen generates parameterized inverter cell layouts and exports
// them as SKILL scripts and reusable template records.
package cellgen

import (
	"context"

	"github.com/goliatone/go-cellgen/pkg/generator"
	"github.com/goliatone/go-cellgen/pkg/layout"
	"github.com/goliatone/go-cellgen/pkg/tech"
)

// Request aliases generator.Request for callers that only import the root
// package.
type Request = generator.Request

// Result aliases generator.Result.
type Result = generator.Result

// CellType aliases generator.CellType.
type CellType = generator.CellType

// Technology aliases tech.Technology.
type Technology = tech.Technology

// NewGenerator exposes the generator constructor from the top-level module.
func NewGenerator(options ...generator.Option) *generator.Generator {
	return generator.New(options...)
}

// Generate builds the requested cells with the embedded technology and the
// default exporters. It is the simplest entry point for callers that just want
// SKILL and template files on disk.
func Generate(ctx context.Context, req Request, options ...generator.Option) (Result, error) {
	return generator.New(options...).Generate(ctx, req)
}

// GenerateFrom builds the requested cells against the technology described by
// the HCL files under dir.
func GenerateFrom(ctx context.Context, dir string, req Request, options ...generator.Option) (Result, error) {
	technology, err := tech.LoadDir(dir)
	if err != nil {
		return Result{}, err
	}
	options = append([]generator.Option{generator.WithTechnology(technology)}, options...)
	return generator.New(options...).Generate(ctx, req)
}

// Design returns the design of a generated cell by name.
func Design(result Result, cellName string) (*layout.Design, bool) {
	for _, cell := range result.Cells {
		if cell.Name == cellName {
			return cell.Design, true
		}
	}
	return nil, false
}
