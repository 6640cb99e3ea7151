// Package render holds the rendering surfaces for resolved GridLookout
// layouts.
//
// # Overview
//
// Rendering takes a [layout.Layout] produced by the resolver and turns it into
// an artifact a host can display. Sinks for individual formats live in the
// [sink] subpackage. This package provides the format conversion they share.
//
// # Format Conversion
//
// The [ToPDF] and [ToPNG] functions convert any SVG to other formats using
// the external rsvg-convert tool (from librsvg):
//
//	svg := sink.RenderSVG(l)
//	pdf, err := render.ToPDF(ctx, svg)
//	png, err := render.ToPNG(ctx, svg, 2.0)  // 2x scale
//
// [layout.Layout]: github.com/matzehuels/gridlookout/pkg/layout.Layout
// [sink]: github.com/matzehuels/gridlookout/pkg/render/sink
package render
