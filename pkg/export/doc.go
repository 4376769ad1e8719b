// Package export defines the Exporter contract the generator hands finished
// libraries to, and a name-keyed Registry for the concrete exporters living
// in its subpackages (skill, templateyaml, preview).
package export
