// Package layout holds the in-memory layout database the cell generators drive:
// templates and the instances they generate, placement and routing grids,
// designs collecting placed instances, wires, vias and pins, and libraries
// grouping designs for export.
//
// Physical coordinates are integer database units. Grids map those
// coordinates to abstract (m, n) indices and back; every mapping is exact, so
// geometry that does not land on a grid point is reported with ErrOffGrid
// rather than snapped. Routing is intentionally simple: straight two-point
// routes and single-track routes. Anything smarter belongs to the generator
// that calls into this package.
package layout
