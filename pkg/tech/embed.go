package tech

import (
	"embed"
	"io/fs"
)

// DefaultName is the embedded technology.
const DefaultName = "cmos_generic"

//go:embed cmos_generic/*.hcl
var embedded embed.FS

// EmbeddedFS exposes the built-in technology files.
func EmbeddedFS() fs.FS {
	sub, err := fs.Sub(embedded, DefaultName)
	if err != nil {
		panic(err)
	}
	return sub
}

// Default loads the embedded generic CMOS technology.
func Default() (*HCLTechnology, error) {
	return Load(EmbeddedFS())
}
