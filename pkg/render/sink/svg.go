package sink

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strconv"

	"github.com/matzehuels/gridlookout/pkg/content"
	"github.com/matzehuels/gridlookout/pkg/layout"
)

const (
	fontHeightRatio = 0.6
	fontWidthRatio  = 0.85
	fontCharWidth   = 0.55
	fontSizeMin     = 4.0
	fontSizeMax     = 24.0
)

// RenderSVG renders the layout as a single SVG document.
//
// Each layer becomes a <g> in stacking order. Each cell becomes a nested
// <svg> viewport positioned at its resolved rectangle, with overflow hidden
// and a <style> whose rules are scoped to the cell's id, so content cannot
// draw outside its cell. Style elements inside SVG and HTML content are
// rewritten the same way.
func RenderSVG(l layout.Layout, opts ...Option) []byte {
	r := newRenderer(opts...)
	w, h := r.frame(l)

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %s %s" width="%s" height="%s">`+"\n",
		num(w), num(h), num(w), num(h))
	if r.title != "" {
		fmt.Fprintf(&buf, "  <title>%s</title>\n", escape(r.title))
	}

	for i, layer := range l.Layers {
		if !r.visible(layer) {
			continue
		}
		fmt.Fprintf(&buf, `  <g id="%s" class="layer" data-layer="%s">`+"\n", layerID(i), escape(layer.Name))
		for j, c := range layer.Cells {
			r.renderSVGCell(&buf, cellID(i, j), layer.Name, c)
		}
		buf.WriteString("  </g>\n")
	}

	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

func (r *renderer) renderSVGCell(buf *bytes.Buffer, id, layer string, c layout.Cell) {
	fmt.Fprintf(buf, `    <svg id="%s" class="cell" data-cell="%s" x="%s" y="%s" width="%s" height="%s" viewBox="0 0 %s %s" overflow="hidden">`+"\n",
		id, escape(c.Name), num(c.X), num(c.Y), num(c.Width), num(c.Height), num(c.Width), num(c.Height))

	f := r.fragment(layer, c)
	size := fontSizeFor(c.Width, c.Height, len([]rune(f.Body)))
	fmt.Fprintf(buf, "      <style>#%s .cell-text { font: %spx sans-serif; fill: #333; } #%s .cell-outline { fill: none; stroke: #999; stroke-width: 1; }</style>\n",
		id, num(size), id)

	if r.outlines {
		fmt.Fprintf(buf, `      <rect class="cell-outline" x="0" y="0" width="%s" height="%s"/>`+"\n", num(c.Width), num(c.Height))
	}

	switch f.Type {
	case content.TypeSVG:
		buf.WriteString("      ")
		buf.WriteString(scopeStyles(id, f.Body))
		buf.WriteString("\n")
	case content.TypeHTML:
		fmt.Fprintf(buf, `      <foreignObject x="0" y="0" width="%s" height="%s"><div xmlns="http://www.w3.org/1999/xhtml">%s</div></foreignObject>`+"\n",
			num(c.Width), num(c.Height), scopeStyles(id, f.Body))
	default:
		if f.Body != "" {
			fmt.Fprintf(buf, `      <text class="cell-text" x="%s" y="%s" text-anchor="middle" dominant-baseline="central">%s</text>`+"\n",
				num(c.Width/2), num(c.Height/2), escape(f.Body))
		}
	}
	buf.WriteString("    </svg>\n")
}

func fontSizeFor(availWidth, availHeight float64, textLen int) float64 {
	n := max(1, textLen)
	byHeight := availHeight * fontHeightRatio
	byWidth := (availWidth * fontWidthRatio) / (float64(n) * fontCharWidth)
	return max(fontSizeMin, min(fontSizeMax, min(byHeight, byWidth)))
}

func layerID(i int) string   { return "gl-" + strconv.Itoa(i) }
func cellID(i, j int) string { return "gl-" + strconv.Itoa(i) + "-" + strconv.Itoa(j) }

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func escape(s string) string {
	var buf bytes.Buffer
	xml.EscapeText(&buf, []byte(s))
	return buf.String()
}
