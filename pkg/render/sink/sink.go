package sink

import (
	"github.com/matzehuels/gridlookout/pkg/content"
	"github.com/matzehuels/gridlookout/pkg/layout"
)

// Warning reports a cell whose content could not be resolved. The cell is
// still rendered, with a placeholder in place of its content.
type Warning struct {
	Layer string
	Cell  string
	Ref   string
	Err   error
}

// Option configures a sink. Options that do not apply to a format are
// ignored by it.
type Option func(*renderer)

type renderer struct {
	registry content.Registry
	warn     func(Warning)
	title    string
	outlines bool
	focus    string
	layers   map[string]bool
	scale    float64
	cols     int
	rows     int
}

// WithContent resolves cell content references through reg. Without a
// registry, sinks render each reference as its own text.
func WithContent(reg content.Registry) Option {
	return func(r *renderer) { r.registry = reg }
}

// WithWarnings installs a callback invoked once per unresolved content
// reference.
func WithWarnings(fn func(Warning)) Option {
	return func(r *renderer) { r.warn = fn }
}

// WithTitle sets the document title for HTML output and an SVG <title>.
func WithTitle(s string) Option { return func(r *renderer) { r.title = s } }

// WithOutlines draws a thin outline around every cell.
func WithOutlines() Option { return func(r *renderer) { r.outlines = true } }

// WithLayers restricts rendering to the named layers. Unknown names are
// ignored.
func WithLayers(names ...string) Option {
	return func(r *renderer) {
		r.layers = make(map[string]bool, len(names))
		for _, n := range names {
			r.layers[n] = true
		}
	}
}

// WithScale sets the PNG scale factor (default 2.0 for 2x resolution).
func WithScale(s float64) Option { return func(r *renderer) { r.scale = s } }

// WithTerminalSize sets the character grid used by [RenderTerminal].
func WithTerminalSize(cols, rows int) Option {
	return func(r *renderer) { r.cols, r.rows = cols, rows }
}

func newRenderer(opts ...Option) renderer {
	r := renderer{scale: 2.0, cols: 80, rows: 24}
	for _, opt := range opts {
		opt(&r)
	}
	return r
}

func (r *renderer) visible(l layout.Layer) bool {
	return r.layers == nil || r.layers[l.Name]
}

// fragment resolves a cell's content. It never fails: unresolved references
// fall back to a placeholder and are reported through the warning callback.
func (r *renderer) fragment(layer string, c layout.Cell) content.Fragment {
	if c.Content == "" {
		return content.Text("")
	}
	if r.registry == nil {
		return content.Text(c.Content)
	}
	f, err := r.registry.Lookup(c.Content)
	if err != nil {
		if r.warn != nil {
			r.warn(Warning{Layer: layer, Cell: c.Name, Ref: c.Content, Err: err})
		}
		return content.Placeholder(c.Content)
	}
	return f
}

// frame returns the extent covering every visible layer.
func (r *renderer) frame(l layout.Layout) (w, h float64) {
	for _, layer := range l.Layers {
		if !r.visible(layer) {
			continue
		}
		b := layer.Bounds(l.Units)
		w = max(w, b.Width)
		h = max(h, b.Height)
	}
	return w, h
}
