package io

import (
	"io"
	"slices"

	"github.com/BurntSushi/toml"
)

// TOML documents use arrays of tables for layers and a table per cell:
//
//	[[layers]]
//	name = "MainLayer"
//	viewport = { width = 600, height = 800 }
//
//	[layers.cells.header]
//	startX = 0.0
//	startY = 0.0
//	width = 1.0
//	height = 0.1
//	content = "Header"
type tomlSchemaDoc struct {
	Layers []tomlLayerDoc `toml:"layers"`
}

type tomlLayerDoc struct {
	Name     string             `toml:"name"`
	Viewport viewportDoc        `toml:"viewport"`
	Cells    map[string]cellDoc `toml:"cells,omitempty"`
}

func decodeTOML(r io.Reader) (schemaDoc, error) {
	var td tomlSchemaDoc
	md, err := toml.NewDecoder(r).Decode(&td)
	if err != nil {
		return schemaDoc{}, err
	}

	order := cellOrderFromKeys(md.Keys(), len(td.Layers))
	doc := schemaDoc{Layers: make([]layerDoc, len(td.Layers))}
	for i, tl := range td.Layers {
		doc.Layers[i] = layerDoc{
			Name:     tl.Name,
			Viewport: tl.Viewport,
			Cells:    orderedCells(tl.Cells, order[i]),
		}
	}
	return doc, nil
}

// cellOrderFromKeys recovers per-layer cell order from the key sequence of
// the document. Each [[layers]] header starts a new layer.
func cellOrderFromKeys(keys []toml.Key, layers int) [][]string {
	order := make([][]string, layers)
	idx := -1
	for _, k := range keys {
		switch {
		case len(k) == 1 && k[0] == "layers":
			idx++
		case len(k) == 3 && k[0] == "layers" && k[1] == "cells" && idx >= 0 && idx < layers:
			order[idx] = append(order[idx], k[2])
		}
	}
	return order
}

// orderedCells lists cells in the given order; names the order does not
// mention follow in sorted order.
func orderedCells(m map[string]cellDoc, order []string) cellsDoc {
	out := make(cellsDoc, 0, len(m))
	seen := make(map[string]bool, len(m))
	for _, name := range order {
		cd, ok := m[name]
		if !ok || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, namedCell{Name: name, Cell: cd})
	}

	var rest []string
	for name := range m {
		if !seen[name] {
			rest = append(rest, name)
		}
	}
	slices.Sort(rest)
	for _, name := range rest {
		out = append(out, namedCell{Name: name, Cell: m[name]})
	}
	return out
}

// encodeTOML writes doc as TOML. The encoder sorts table keys, so cell order
// is alphabetical in the output.
func encodeTOML(w io.Writer, doc schemaDoc) error {
	td := tomlSchemaDoc{Layers: make([]tomlLayerDoc, len(doc.Layers))}
	for i, ld := range doc.Layers {
		cells := make(map[string]cellDoc, len(ld.Cells))
		for _, nc := range ld.Cells {
			cells[nc.Name] = nc.Cell
		}
		td.Layers[i] = tomlLayerDoc{Name: ld.Name, Viewport: ld.Viewport, Cells: cells}
	}
	return toml.NewEncoder(w).Encode(td)
}
