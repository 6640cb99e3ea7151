package sink

import (
	"bytes"
	"fmt"
	"html"

	"github.com/matzehuels/gridlookout/pkg/content"
	"github.com/matzehuels/gridlookout/pkg/layout"
)

const htmlBaseCSS = `
    .gl-frame { position: relative; overflow: hidden; }
    .gl-layer { position: absolute; left: 0; top: 0; pointer-events: none; }
    .gl-cell { position: absolute; overflow: hidden; pointer-events: auto; box-sizing: border-box; }
    .gl-cell.outlined { outline: 1px solid #999; outline-offset: -1px; }`

// cellHostCSS is injected into every shadow root. It only reaches the cell's
// own tree.
const cellHostCSS = `:host { display: flex; width: 100%; height: 100%; align-items: center; justify-content: center; font: 14px sans-serif; color: #333; }`

// RenderHTML renders the layout as a standalone HTML page.
//
// Layers are absolutely positioned containers stacked with increasing
// z-index. Every cell is an absolutely positioned <div> holding a declarative
// shadow root, so styles and markup in one cell's content never leak into
// another cell or the page.
func RenderHTML(l layout.Layout, opts ...Option) []byte {
	r := newRenderer(opts...)
	unit := cssUnit(l.Units)
	w, h := r.frame(l)

	var buf bytes.Buffer
	buf.WriteString("<!DOCTYPE html>\n<html>\n<head>\n  <meta charset=\"utf-8\">\n")
	if r.title != "" {
		fmt.Fprintf(&buf, "  <title>%s</title>\n", html.EscapeString(r.title))
	}
	fmt.Fprintf(&buf, "  <style>%s\n  </style>\n</head>\n<body>\n", htmlBaseCSS)

	frameW, frameH := num(w)+unit, num(h)+unit
	if l.Units == layout.UnitsPercent {
		frameW, frameH = "100vw", "100vh"
	}
	fmt.Fprintf(&buf, `<div class="gl-frame" style="width: %s; height: %s;">`+"\n", frameW, frameH)

	for i, layer := range l.Layers {
		if !r.visible(layer) {
			continue
		}
		b := layer.Bounds(l.Units)
		fmt.Fprintf(&buf, `  <div id="%s" class="gl-layer" data-layer="%s" style="z-index: %d; width: %s%s; height: %s%s;">`+"\n",
			layerID(i), html.EscapeString(layer.Name), i+1, num(b.Width), unit, num(b.Height), unit)
		for j, c := range layer.Cells {
			r.renderHTMLCell(&buf, cellID(i, j), layer.Name, c, unit)
		}
		buf.WriteString("  </div>\n")
	}

	buf.WriteString("</div>\n</body>\n</html>\n")
	return buf.Bytes()
}

func (r *renderer) renderHTMLCell(buf *bytes.Buffer, id, layer string, c layout.Cell, unit string) {
	class := "gl-cell"
	if r.outlines {
		class += " outlined"
	}
	fmt.Fprintf(buf, `    <div id="%s" class="%s" data-cell="%s" style="left: %s%s; top: %s%s; width: %s%s; height: %s%s;">`+"\n",
		id, class, html.EscapeString(c.Name),
		num(c.X), unit, num(c.Y), unit, num(c.Width), unit, num(c.Height), unit)

	f := r.fragment(layer, c)
	body := f.Body
	if f.Type == content.TypeText {
		body = html.EscapeString(body)
	}
	fmt.Fprintf(buf, "      <template shadowrootmode=\"open\"><style>%s</style>%s</template>\n", cellHostCSS, body)
	buf.WriteString("    </div>\n")
}

func cssUnit(u layout.Units) string {
	if u == layout.UnitsPercent {
		return "%"
	}
	return "px"
}
