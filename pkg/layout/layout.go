package layout

import "github.com/matzehuels/gridlookout/pkg/schema"

// Units identifies the unit of resolved rectangles.
type Units string

const (
	// UnitsViewport resolves into the unit of each layer's viewport,
	// typically pixels.
	UnitsViewport Units = "px"
	// UnitsPercent resolves into percentages of each layer's viewport.
	UnitsPercent Units = "%"
)

// Layout is the result of resolving a schema. Layers keep the schema's
// stacking order and cells keep authoring order.
type Layout struct {
	Units  Units
	Layers []Layer
}

// Layer holds the resolved cells of one schema layer.
type Layer struct {
	Name     string
	Viewport schema.Viewport
	Cells    []Cell
}

// Cell is a resolved cell: its rectangle plus the opaque content reference
// carried over from the schema.
type Cell struct {
	Name    string
	Content string
	Rect
}

// Rects returns the layout as a mapping from layer name to a mapping from
// cell name to rectangle. A layer with no cells maps to an empty, non-nil map.
func (l Layout) Rects() map[string]map[string]Rect {
	out := make(map[string]map[string]Rect, len(l.Layers))
	for _, layer := range l.Layers {
		cells := make(map[string]Rect, len(layer.Cells))
		for _, c := range layer.Cells {
			cells[c.Name] = c.Rect
		}
		out[layer.Name] = cells
	}
	return out
}

// Layer returns the resolved layer with the given name.
func (l Layout) Layer(name string) (Layer, bool) {
	for _, layer := range l.Layers {
		if layer.Name == name {
			return layer, true
		}
	}
	return Layer{}, false
}

// Rect returns the rectangle of a single cell.
func (l Layout) Rect(layer, cell string) (Rect, bool) {
	ll, ok := l.Layer(layer)
	if !ok {
		return Rect{}, false
	}
	return ll.Rect(cell)
}

// CellCount returns the number of resolved cells across all layers.
func (l Layout) CellCount() int {
	n := 0
	for _, layer := range l.Layers {
		n += len(layer.Cells)
	}
	return n
}

// Rect returns the rectangle of the named cell.
func (l Layer) Rect(cell string) (Rect, bool) {
	for _, c := range l.Cells {
		if c.Name == cell {
			return c.Rect, true
		}
	}
	return Rect{}, false
}

// Bounds returns the layer's full extent in resolved units.
func (l Layer) Bounds(units Units) Rect {
	if units == UnitsPercent {
		return Rect{Width: 100, Height: 100}
	}
	return Rect{Width: l.Viewport.Width, Height: l.Viewport.Height}
}
