// Package tech loads process technologies: the primitive templates (MOS
// devices, vias, imported native cells) and the abstract grids designs are
// placed and routed on.
//
// A technology lives in a directory holding technology.hcl and grids.hcl,
// plus an optional templates.yaml in the format written by the template
// exporter. Geometry that depends on generation parameters is written as
// HCL expressions over params.*:
//
//	y {
//	  scope    = [0, 200 + params.nfin * 100]
//	  elements = [0]
//	}
//
// Default returns the generic CMOS technology built into the binary.
package tech
