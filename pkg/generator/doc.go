// Package generator produces inverter cell layouts. For every requested
// (cell type, finger count) pair it loads the technology templates and grids,
// instantiates an NMOS and a mirrored PMOS device, stacks them, routes the
// input, output and supply nets, declares the cell pins and hands the
// resulting library to the configured exporters.
//
// Two cell types are supported: inv, with a single output wire, and inv_hs,
// which wires every other drain finger separately and declares one output
// pin per wire on the shared O: net.
package generator
