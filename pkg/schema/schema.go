// Package schema defines the GridLookout layout description: an ordered
// stack of layers, each with a viewport and a set of named cells positioned
// by fractions of that viewport.
//
// A [Schema] is immutable by contract. Nothing in this module mutates a
// schema in place; the update helpers in this package ([Schema.WithViewport],
// [Schema.WithCell], [Schema.PatchCell] and friends) return a new schema that
// shares every untouched *Layer and *Cell with the original. Hosts can rely on
// pointer equality to skip re-rendering unaffected layers:
//
//	next, err := s.WithViewport("Overlay", schema.Viewport{Width: 1024, Height: 768})
//	if err != nil {
//	    return err
//	}
//	for i := range next.Layers {
//	    if next.Layers[i] == s.Layers[i] {
//	        continue // unchanged, keep the previous render
//	    }
//	    // re-render next.Layers[i]
//	}
//
// Geometry is not validated here. Validation and resolution to absolute
// rectangles live in the layout package.
package schema

// Schema is an ordered sequence of layers. Earlier layers are stacked below
// later ones.
type Schema struct {
	Layers []*Layer
}

// Layer is a named viewport with a set of cells.
type Layer struct {
	Name     string
	Viewport Viewport
	// Cells keeps authoring order. Duplicated names are kept as-is so that
	// validation can report them.
	Cells []*Cell
}

// Viewport holds the dimensions cells are resolved against, in whatever
// unit the host uses (usually pixels).
type Viewport struct {
	Width  float64
	Height float64
}

// Cell is a named rectangle expressed as fractions of its layer's viewport.
type Cell struct {
	Name    string
	StartX  float64
	StartY  float64
	Width   float64
	Height  float64
	Content string // opaque reference, interpreted by a content registry
}

// New creates a schema from the given layers.
func New(layers ...*Layer) *Schema {
	return &Schema{Layers: layers}
}

// NewLayer creates a layer with the given viewport and cells.
func NewLayer(name string, vp Viewport, cells ...*Cell) *Layer {
	return &Layer{Name: name, Viewport: vp, Cells: cells}
}

// Layer returns the first layer with the given name.
func (s *Schema) Layer(name string) (*Layer, bool) {
	if i := s.layerIndex(name); i >= 0 {
		return s.Layers[i], true
	}
	return nil, false
}

// LayerNames returns layer names in stacking order.
func (s *Schema) LayerNames() []string {
	names := make([]string, len(s.Layers))
	for i, l := range s.Layers {
		if l != nil {
			names[i] = l.Name
		}
	}
	return names
}

// CellCount returns the total number of cells across all layers.
func (s *Schema) CellCount() int {
	n := 0
	for _, l := range s.Layers {
		if l != nil {
			n += len(l.Cells)
		}
	}
	return n
}

func (s *Schema) layerIndex(name string) int {
	for i, l := range s.Layers {
		if l != nil && l.Name == name {
			return i
		}
	}
	return -1
}

// Cell returns the first cell with the given name.
func (l *Layer) Cell(name string) (*Cell, bool) {
	if i := l.cellIndex(name); i >= 0 {
		return l.Cells[i], true
	}
	return nil, false
}

// CellNames returns cell names in authoring order.
func (l *Layer) CellNames() []string {
	names := make([]string, 0, len(l.Cells))
	for _, c := range l.Cells {
		if c != nil {
			names = append(names, c.Name)
		}
	}
	return names
}

func (l *Layer) cellIndex(name string) int {
	for i, c := range l.Cells {
		if c != nil && c.Name == name {
			return i
		}
	}
	return -1
}

// Right returns StartX + Width.
func (c *Cell) Right() float64 { return c.StartX + c.Width }

// Bottom returns StartY + Height.
func (c *Cell) Bottom() float64 { return c.StartY + c.Height }

// Area returns the fractional area of the cell.
func (c *Cell) Area() float64 { return c.Width * c.Height }
