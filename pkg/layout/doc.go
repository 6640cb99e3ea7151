// Package layout resolves a GridLookout schema into absolute rectangles.
//
// # Overview
//
// Resolution is direct fractional-to-absolute mapping. For every cell of
// every layer, each fractional field is multiplied by the corresponding
// dimension of the layer's viewport:
//
//	x      = cell.StartX * viewport.Width
//	y      = cell.StartY * viewport.Height
//	width  = cell.Width  * viewport.Width
//	height = cell.Height * viewport.Height
//
// There is no constraint solving, no flow and no dependency tracking between
// cells. A new schema (for example after a viewport resize) is simply
// resolved again from scratch.
//
// # Validation
//
// [Resolve] first runs [Validate], which reports every structural, viewport
// and bounds problem of the schema in a single error. No partial layout is
// ever returned and nothing is clamped or dropped:
//
//   - SCHEMA_STRUCTURE: no layers, empty or duplicate layer names, empty or
//     duplicate cell names within a layer
//   - VIEWPORT: width or height not strictly positive and finite
//   - CELL_BOUNDS: a fraction outside [0,1], or start+size exceeding 1 by
//     more than [DefaultTolerance]
//
// Overlapping cells and zero-area cells are valid. [Lint] reports them as
// advisory findings for authoring tools.
//
// # Units
//
// By default rectangles are in viewport units with no rounding applied, so
// width == fraction * viewport.Width holds exactly under float64 semantics.
// Hosts can request percentages with [WithUnits] or integer snapping with
// [WithPixelSnap].
//
// # Concurrency
//
// Resolve is a pure function of its inputs. It never mutates the schema, and
// concurrent calls need no coordination.
package layout
