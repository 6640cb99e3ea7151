// Package sink provides output format renderers for resolved layouts.
//
// # Overview
//
// A "sink" transforms a resolved [layout.Layout] into a final output format.
// This package provides renderers for:
//
//   - SVG: one <g> per layer, one nested <svg> viewport per cell
//   - HTML: absolutely positioned cells with declarative shadow roots
//   - JSON: the resolved layout for external tools
//   - PDF and PNG: converted from SVG (requires rsvg-convert)
//   - Terminal: a character-grid preview drawn with lipgloss
//
// # Content Isolation
//
// Every cell's content is placed inside its own boundary. In SVG a cell is a
// nested viewport with overflow hidden and id-scoped styles; in HTML it is a
// shadow root. Content from one cell cannot restyle or draw over another.
//
// # Content Resolution
//
// Cells carry opaque content references. With [WithContent] a sink resolves
// them through a [content.Registry]:
//
//	svg := sink.RenderSVG(l,
//	    sink.WithContent(reg),
//	    sink.WithWarnings(func(w sink.Warning) { logger.Warn("content", "ref", w.Ref) }),
//	)
//
// Unknown references never fail a render. The cell is drawn with a
// placeholder and the callback from [WithWarnings] is invoked.
//
// # PDF and PNG Output
//
// [RenderPDF] and [RenderPNG] render the layout as SVG first, then convert
// it with rsvg-convert:
//
//	pdf, err := sink.RenderPDF(ctx, l, opts...)
//	png, err := sink.RenderPNG(ctx, l, sink.WithScale(2))
//
// These require librsvg to be installed:
//   - macOS: brew install librsvg
//   - Linux: apt install librsvg2-bin
//
// [layout.Layout]: github.com/matzehuels/gridlookout/pkg/layout.Layout
// [content.Registry]: github.com/matzehuels/gridlookout/pkg/content.Registry
package sink
