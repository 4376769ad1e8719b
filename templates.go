package cellgen

import (
	"io/fs"

	"github.com/goliatone/go-cellgen/pkg/tech"
)

// EmbeddedTechnology exposes the built-in technology files (technology.hcl and
// grids.hcl) so callers can copy and adjust them for another process.
func EmbeddedTechnology() fs.FS {
	return tech.EmbeddedFS()
}
