package io

import (
	"math"

	glerr "github.com/matzehuels/gridlookout/pkg/errors"
	"github.com/matzehuels/gridlookout/pkg/schema"
)

var nan = math.NaN()

// schemaDoc is the on-disk shape shared by the JSON and YAML codecs.
type schemaDoc struct {
	Layers []layerDoc `json:"layers" yaml:"layers"`
}

type layerDoc struct {
	Name     string      `json:"name" yaml:"name"`
	Viewport viewportDoc `json:"viewport" yaml:"viewport"`
	Cells    cellsDoc    `json:"cells" yaml:"cells"`
}

type viewportDoc struct {
	Width  *number `json:"width,omitempty" yaml:"width,omitempty" toml:"width,omitempty"`
	Height *number `json:"height,omitempty" yaml:"height,omitempty" toml:"height,omitempty"`
}

type cellDoc struct {
	StartX  *number `json:"startX,omitempty" yaml:"startX,omitempty" toml:"startX,omitempty"`
	StartY  *number `json:"startY,omitempty" yaml:"startY,omitempty" toml:"startY,omitempty"`
	Width   *number `json:"width,omitempty" yaml:"width,omitempty" toml:"width,omitempty"`
	Height  *number `json:"height,omitempty" yaml:"height,omitempty" toml:"height,omitempty"`
	Content string  `json:"content,omitempty" yaml:"content,omitempty" toml:"content,omitempty"`
}

// namedCell is one entry of an ordered cells mapping.
type namedCell struct {
	Name string
	Cell cellDoc
}

// cellsDoc is an ordered mapping that keeps duplicated keys.
type cellsDoc []namedCell

// toSchema converts the document, reporting every number of the wrong type
// at its layer, cell and field.
func (d schemaDoc) toSchema() (*schema.Schema, error) {
	var errs glerr.List
	s := &schema.Schema{Layers: make([]*schema.Layer, len(d.Layers))}
	for i, ld := range d.Layers {
		s.Layers[i] = ld.toLayer(&errs)
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}
	return s, nil
}

func (ld layerDoc) toLayer(errs *glerr.List) *schema.Layer {
	viewport := func(field string, n *number) float64 {
		if n != nil && n.invalid {
			errs.Add(glerr.New(glerr.ErrCodeViewport, "viewport %s must be a number, got %s", field, n.raw).
				At(ld.Name, "", field))
		}
		return orNaN(n)
	}
	l := &schema.Layer{
		Name: ld.Name,
		Viewport: schema.Viewport{
			Width:  viewport("width", ld.Viewport.Width),
			Height: viewport("height", ld.Viewport.Height),
		},
		Cells: make([]*schema.Cell, len(ld.Cells)),
	}
	for i, nc := range ld.Cells {
		field := func(field string, n *number) float64 {
			if n != nil && n.invalid {
				errs.Add(glerr.New(glerr.ErrCodeCellBounds, "%s must be a number, got %s", field, n.raw).
					At(ld.Name, nc.Name, field))
			}
			return orNaN(n)
		}
		l.Cells[i] = &schema.Cell{
			Name:    nc.Name,
			StartX:  field("startX", nc.Cell.StartX),
			StartY:  field("startY", nc.Cell.StartY),
			Width:   field("width", nc.Cell.Width),
			Height:  field("height", nc.Cell.Height),
			Content: nc.Cell.Content,
		}
	}
	return l
}

func fromSchema(s *schema.Schema) schemaDoc {
	if s == nil {
		return schemaDoc{Layers: []layerDoc{}}
	}
	d := schemaDoc{Layers: make([]layerDoc, 0, len(s.Layers))}
	for _, l := range s.Layers {
		if l != nil {
			d.Layers = append(d.Layers, fromLayer(l))
		}
	}
	return d
}

func fromLayer(l *schema.Layer) layerDoc {
	ld := layerDoc{
		Name: l.Name,
		Viewport: viewportDoc{
			Width:  finiteOrNil(l.Viewport.Width),
			Height: finiteOrNil(l.Viewport.Height),
		},
		Cells: make(cellsDoc, 0, len(l.Cells)),
	}
	for _, c := range l.Cells {
		if c == nil {
			continue
		}
		ld.Cells = append(ld.Cells, namedCell{Name: c.Name, Cell: fromCell(c)})
	}
	return ld
}

// fromCell writes zero values explicitly so every field appears in the
// document; only non-finite values are omitted.
func fromCell(c *schema.Cell) cellDoc {
	return cellDoc{
		StartX:  finiteOrNil(c.StartX),
		StartY:  finiteOrNil(c.StartY),
		Width:   finiteOrNil(c.Width),
		Height:  finiteOrNil(c.Height),
		Content: c.Content,
	}
}

// orNaN maps a missing or mistyped number to NaN so validation reports it.
func orNaN(n *number) float64 {
	if n == nil || n.invalid {
		return nan
	}
	return n.value
}

func finiteOrNil(v float64) *number {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return num(v)
}
