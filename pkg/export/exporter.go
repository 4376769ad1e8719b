package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goliatone/go-cellgen/pkg/layout"
)

// DefaultScale converts integer database units to user units (nm to um).
const DefaultScale = 1e-3

// Target describes where and how a library is written.
type Target struct {
	// Dir is the export root. Exporters create their own subdirectories.
	Dir string

	// TechLibrary tags exported cells with the technology library they were
	// generated against.
	TechLibrary string

	// Scale multiplies database units on export. Zero means DefaultScale.
	Scale float64
}

// EffectiveScale returns Scale or DefaultScale when unset.
func (t Target) EffectiveScale() float64 {
	if t.Scale == 0 {
		return DefaultScale
	}
	return t.Scale
}

// Exporter serialises a library into one or more files under a target.
type Exporter interface {
	Name() string
	Export(ctx context.Context, lib *layout.Library, target Target) ([]string, error)
}

// CellPath builds "<dir>/<sub>/<libname>_<cellname><ext>", the naming every
// per-cell exporter shares.
func CellPath(dir, sub, libName, cellName, ext string) string {
	return filepath.Join(dir, sub, libName+"_"+cellName+ext)
}

// EnsureDir creates the parent directory of path.
func EnsureDir(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("export: mkdir %s: %w", filepath.Dir(path), err)
	}
	return nil
}

// Validate checks the library and target before any file is written.
func Validate(lib *layout.Library, target Target) error {
	if lib == nil {
		return fmt.Errorf("export: library is required")
	}
	if strings.TrimSpace(target.Dir) == "" {
		return fmt.Errorf("export: target directory is required")
	}
	if len(lib.Designs()) == 0 {
		return fmt.Errorf("export: library %q has no designs", lib.Name)
	}
	return nil
}
