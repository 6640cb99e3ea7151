package io

import (
	"fmt"
	"os"

	json "github.com/goccy/go-json"

	glerr "github.com/matzehuels/gridlookout/pkg/errors"
	"github.com/matzehuels/gridlookout/pkg/layout"
	"github.com/matzehuels/gridlookout/pkg/schema"
)

type layoutDoc struct {
	Units  string           `json:"units"`
	Layers []layoutLayerDoc `json:"layers"`
}

type layoutLayerDoc struct {
	Name     string          `json:"name"`
	Viewport layoutViewport  `json:"viewport"`
	Cells    []layoutCellDoc `json:"cells"`
}

type layoutViewport struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type layoutCellDoc struct {
	Name    string  `json:"name"`
	Content string  `json:"content,omitempty"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
}

// MarshalLayout serializes a resolved layout to pretty-printed JSON.
func MarshalLayout(l layout.Layout) ([]byte, error) {
	doc := layoutDoc{
		Units:  string(l.Units),
		Layers: make([]layoutLayerDoc, len(l.Layers)),
	}
	for i, ll := range l.Layers {
		cells := make([]layoutCellDoc, len(ll.Cells))
		for j, c := range ll.Cells {
			cells[j] = layoutCellDoc{
				Name: c.Name, Content: c.Content,
				X: c.X, Y: c.Y, Width: c.Width, Height: c.Height,
			}
		}
		doc.Layers[i] = layoutLayerDoc{
			Name:     ll.Name,
			Viewport: layoutViewport{Width: ll.Viewport.Width, Height: ll.Viewport.Height},
			Cells:    cells,
		}
	}
	return json.MarshalIndent(doc, "", "  ")
}

// UnmarshalLayout deserializes JSON produced by [MarshalLayout].
func UnmarshalLayout(data []byte) (layout.Layout, error) {
	var doc layoutDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return layout.Layout{}, glerr.Wrap(glerr.ErrCodeInvalidFormat, err, "unmarshal layout")
	}

	units := layout.Units(doc.Units)
	switch units {
	case "":
		units = layout.UnitsViewport
	case layout.UnitsViewport, layout.UnitsPercent:
	default:
		return layout.Layout{}, glerr.New(glerr.ErrCodeInvalidFormat, "unknown layout units %q", doc.Units)
	}

	out := layout.Layout{Units: units, Layers: make([]layout.Layer, len(doc.Layers))}
	for i, ld := range doc.Layers {
		cells := make([]layout.Cell, len(ld.Cells))
		for j, c := range ld.Cells {
			cells[j] = layout.Cell{
				Name:    c.Name,
				Content: c.Content,
				Rect:    layout.Rect{X: c.X, Y: c.Y, Width: c.Width, Height: c.Height},
			}
		}
		out.Layers[i] = layout.Layer{
			Name:     ld.Name,
			Viewport: schema.Viewport{Width: ld.Viewport.Width, Height: ld.Viewport.Height},
			Cells:    cells,
		}
	}
	return out, nil
}

// WriteLayoutFile writes a layout to a JSON file.
func WriteLayoutFile(l layout.Layout, path string) error {
	data, err := MarshalLayout(l)
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0644)
}

// ReadLayoutFile reads a layout from a JSON file.
func ReadLayoutFile(path string) (layout.Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return layout.Layout{}, fmt.Errorf("read %s: %w", path, err)
	}
	return UnmarshalLayout(data)
}
