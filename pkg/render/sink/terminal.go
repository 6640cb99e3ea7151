package sink

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/gridlookout/pkg/layout"
)

var cellPalette = []lipgloss.Color{
	lipgloss.Color("36"),  // teal
	lipgloss.Color("75"),  // light blue
	lipgloss.Color("220"), // amber
	lipgloss.Color("35"),  // green
	lipgloss.Color("167"), // soft red
	lipgloss.Color("141"), // violet
}

type box struct {
	tl, tr, bl, br, h, v rune
}

var (
	boxLight = box{'┌', '┐', '└', '┘', '─', '│'}
	boxHeavy = box{'╔', '╗', '╚', '╝', '═', '║'}
)

// WithFocus draws the cells of the named layer with heavy borders.
func WithFocus(layer string) Option { return func(r *renderer) { r.focus = layer } }

type termGrid struct {
	cols, rows int
	runes      [][]rune
	color      [][]int // index into cellPalette, -1 for none
	bold       [][]bool
}

func newTermGrid(cols, rows int) *termGrid {
	g := &termGrid{cols: cols, rows: rows}
	g.runes = make([][]rune, rows)
	g.color = make([][]int, rows)
	g.bold = make([][]bool, rows)
	for y := 0; y < rows; y++ {
		g.runes[y] = []rune(strings.Repeat(" ", cols))
		g.color[y] = make([]int, cols)
		g.bold[y] = make([]bool, cols)
		for x := 0; x < cols; x++ {
			g.color[y][x] = -1
		}
	}
	return g
}

func (g *termGrid) set(x, y int, ch rune, color int, bold bool) {
	if x < 0 || y < 0 || x >= g.cols || y >= g.rows {
		return
	}
	g.runes[y][x] = ch
	g.color[y][x] = color
	g.bold[y][x] = bold
}

// RenderTerminal draws a character-grid preview of the layout, scaled to the
// size set by [WithTerminalSize] (80x24 by default). Layers are painted in
// stacking order, so upper layers cover lower ones. Each cell is drawn as a
// box labelled with its name.
func RenderTerminal(l layout.Layout, opts ...Option) string {
	r := newRenderer(opts...)
	cols, rows := max(r.cols, 2), max(r.rows, 2)
	w, h := r.frame(l)
	if w <= 0 || h <= 0 {
		return ""
	}
	sx, sy := float64(cols)/w, float64(rows)/h

	g := newTermGrid(cols, rows)
	n := 0
	for _, layer := range l.Layers {
		if !r.visible(layer) {
			continue
		}
		heavy := r.focus != "" && layer.Name == r.focus
		for _, c := range layer.Cells {
			drawCell(g, c, sx, sy, n%len(cellPalette), heavy)
			n++
		}
	}
	return g.String()
}

func drawCell(g *termGrid, c layout.Cell, sx, sy float64, color int, heavy bool) {
	x0 := int(math.Floor(c.X * sx))
	y0 := int(math.Floor(c.Y * sy))
	x1 := int(math.Ceil(c.Right()*sx)) - 1
	y1 := int(math.Ceil(c.Bottom()*sy)) - 1
	if x1 < x0 || y1 < y0 {
		return
	}

	if x1-x0 < 1 || y1-y0 < 1 {
		for y := y0; y <= y1; y++ {
			for x := x0; x <= x1; x++ {
				g.set(x, y, '█', color, heavy)
			}
		}
		return
	}

	b := boxLight
	if heavy {
		b = boxHeavy
	}
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			ch := ' '
			switch {
			case y == y0 && x == x0:
				ch = b.tl
			case y == y0 && x == x1:
				ch = b.tr
			case y == y1 && x == x0:
				ch = b.bl
			case y == y1 && x == x1:
				ch = b.br
			case y == y0 || y == y1:
				ch = b.h
			case x == x0 || x == x1:
				ch = b.v
			}
			g.set(x, y, ch, color, heavy)
		}
	}

	label := []rune(c.Name)
	if avail := x1 - x0 - 1; len(label) > avail {
		label = label[:avail]
	}
	for i, ch := range label {
		g.set(x0+1+i, y0, ch, color, heavy)
	}
}

// String renders the grid row by row, styling runs of equal color.
func (g *termGrid) String() string {
	var sb strings.Builder
	for y := 0; y < g.rows; y++ {
		start := 0
		for x := 1; x <= g.cols; x++ {
			if x < g.cols && g.color[y][x] == g.color[y][start] && g.bold[y][x] == g.bold[y][start] {
				continue
			}
			run := string(g.runes[y][start:x])
			if c := g.color[y][start]; c >= 0 {
				run = lipgloss.NewStyle().Foreground(cellPalette[c]).Bold(g.bold[y][start]).Render(run)
			}
			sb.WriteString(run)
			start = x
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
