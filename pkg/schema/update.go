package schema

import (
	glerr "github.com/matzehuels/gridlookout/pkg/errors"
)

// CellPatch holds optional overrides for a cell. Nil fields keep the current
// value.
type CellPatch struct {
	StartX  *float64
	StartY  *float64
	Width   *float64
	Height  *float64
	Content *string
}

// IsEmpty reports whether the patch changes nothing.
func (p CellPatch) IsEmpty() bool {
	return p.StartX == nil && p.StartY == nil && p.Width == nil && p.Height == nil && p.Content == nil
}

// WithViewport returns a new schema in which only the named layer's viewport
// is replaced. The updated layer keeps its cells slice; every other layer is
// shared with s.
func (s *Schema) WithViewport(layer string, vp Viewport) (*Schema, error) {
	i := s.layerIndex(layer)
	if i < 0 {
		return nil, layerNotFound(layer)
	}
	l := *s.Layers[i]
	l.Viewport = vp
	return s.replaceLayerAt(i, &l), nil
}

// Resize returns a new schema with vp applied to every layer, as a host does
// when its window size changes. Cells are shared with s.
func (s *Schema) Resize(vp Viewport) *Schema {
	layers := make([]*Layer, len(s.Layers))
	for i, l := range s.Layers {
		if l == nil {
			continue
		}
		cp := *l
		cp.Viewport = vp
		layers[i] = &cp
	}
	return &Schema{Layers: layers}
}

// WithLayer returns a new schema with l replacing the layer of the same name,
// or appended on top if no such layer exists. A nil l is a SCHEMA_STRUCTURE
// error.
func (s *Schema) WithLayer(l *Layer) (*Schema, error) {
	if l == nil {
		return nil, glerr.New(glerr.ErrCodeSchemaStructure, "layer is missing")
	}
	if i := s.layerIndex(l.Name); i >= 0 {
		return s.replaceLayerAt(i, l), nil
	}
	layers := make([]*Layer, len(s.Layers), len(s.Layers)+1)
	copy(layers, s.Layers)
	return &Schema{Layers: append(layers, l)}, nil
}

// WithoutLayer returns a new schema without the named layer.
func (s *Schema) WithoutLayer(name string) (*Schema, error) {
	i := s.layerIndex(name)
	if i < 0 {
		return nil, layerNotFound(name)
	}
	layers := make([]*Layer, 0, len(s.Layers)-1)
	layers = append(layers, s.Layers[:i]...)
	layers = append(layers, s.Layers[i+1:]...)
	return &Schema{Layers: layers}, nil
}

// WithCell returns a new schema in which the cell named c.Name inside layer is
// replaced by c, or appended if the layer has no such cell. Sibling cells and
// other layers are shared with s. A nil c is a SCHEMA_STRUCTURE error.
func (s *Schema) WithCell(layer string, c *Cell) (*Schema, error) {
	i := s.layerIndex(layer)
	if i < 0 {
		return nil, layerNotFound(layer)
	}
	if c == nil {
		return nil, glerr.New(glerr.ErrCodeSchemaStructure, "cell is missing").At(layer, "", "")
	}
	src := s.Layers[i]

	var cells []*Cell
	if j := src.cellIndex(c.Name); j >= 0 {
		cells = make([]*Cell, len(src.Cells))
		copy(cells, src.Cells)
		cells[j] = c
	} else {
		cells = make([]*Cell, len(src.Cells), len(src.Cells)+1)
		copy(cells, src.Cells)
		cells = append(cells, c)
	}

	l := *src
	l.Cells = cells
	return s.replaceLayerAt(i, &l), nil
}

// PatchCell returns a new schema with the named cell's fields overridden by
// the non-nil fields of p.
func (s *Schema) PatchCell(layer, cell string, p CellPatch) (*Schema, error) {
	l, ok := s.Layer(layer)
	if !ok {
		return nil, layerNotFound(layer)
	}
	c, ok := l.Cell(cell)
	if !ok {
		return nil, cellNotFound(layer, cell)
	}

	next := *c
	if p.StartX != nil {
		next.StartX = *p.StartX
	}
	if p.StartY != nil {
		next.StartY = *p.StartY
	}
	if p.Width != nil {
		next.Width = *p.Width
	}
	if p.Height != nil {
		next.Height = *p.Height
	}
	if p.Content != nil {
		next.Content = *p.Content
	}
	return s.WithCell(layer, &next)
}

// WithoutCell returns a new schema with the named cell removed from layer.
func (s *Schema) WithoutCell(layer, cell string) (*Schema, error) {
	i := s.layerIndex(layer)
	if i < 0 {
		return nil, layerNotFound(layer)
	}
	src := s.Layers[i]
	j := src.cellIndex(cell)
	if j < 0 {
		return nil, cellNotFound(layer, cell)
	}

	cells := make([]*Cell, 0, len(src.Cells)-1)
	cells = append(cells, src.Cells[:j]...)
	cells = append(cells, src.Cells[j+1:]...)

	l := *src
	l.Cells = cells
	return s.replaceLayerAt(i, &l), nil
}

// replaceLayerAt copies the layer slice and swaps in l at index i.
func (s *Schema) replaceLayerAt(i int, l *Layer) *Schema {
	layers := make([]*Layer, len(s.Layers))
	copy(layers, s.Layers)
	layers[i] = l
	return &Schema{Layers: layers}
}

func layerNotFound(layer string) error {
	return glerr.New(glerr.ErrCodeNotFound, "layer not found").At(layer, "", "")
}

func cellNotFound(layer, cell string) error {
	return glerr.New(glerr.ErrCodeNotFound, "cell not found").At(layer, cell, "")
}
