// Package template defines the renderer-agnostic template interface text
// exporters depend on. The gotemplate subpackage provides the pongo2-backed
// implementation.
package template
