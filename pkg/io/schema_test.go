package io

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	glerr "github.com/matzehuels/gridlookout/pkg/errors"
	"github.com/matzehuels/gridlookout/pkg/schema"
)

const mainJSON = `{
  "layers": [
    {
      "name": "MainLayer",
      "viewport": {"width": 600, "height": 800},
      "cells": {
        "main":    {"startX": 0.25, "startY": 0.1, "width": 0.75, "height": 0.9, "content": "Main"},
        "header":  {"startX": 0, "startY": 0, "width": 1, "height": 0.1, "content": "Header"},
        "sidebar": {"startX": 0, "startY": 0.1, "width": 0.25, "height": 0.9}
      }
    }
  ]
}`

const mainYAML = `layers:
  - name: MainLayer
    viewport: {width: 600, height: 800}
    cells:
      main:    {startX: 0.25, startY: 0.1, width: 0.75, height: 0.9, content: Main}
      header:  {startX: 0, startY: 0, width: 1, height: 0.1, content: Header}
      sidebar: {startX: 0, startY: 0.1, width: 0.25, height: 0.9}
`

const mainTOML = `[[layers]]
name = "MainLayer"
viewport = { width = 600, height = 800 }

[layers.cells.main]
startX = 0.25
startY = 0.1
width = 0.75
height = 0.9
content = "Main"

[layers.cells.header]
startX = 0.0
startY = 0.0
width = 1.0
height = 0.1
content = "Header"

[layers.cells.sidebar]
startX = 0.0
startY = 0.1
width = 0.25
height = 0.9
`

func TestReadSchema(t *testing.T) {
	tests := []struct {
		name   string
		format Format
		input  string
	}{
		{"json", FormatJSON, mainJSON},
		{"yaml", FormatYAML, mainYAML},
		{"toml", FormatTOML, mainTOML},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := ReadSchema(strings.NewReader(tt.input), tt.format)
			if err != nil {
				t.Fatalf("ReadSchema() error: %v", err)
			}
			if len(s.Layers) != 1 {
				t.Fatalf("layers = %d, want 1", len(s.Layers))
			}
			l := s.Layers[0]
			if l.Name != "MainLayer" {
				t.Errorf("name = %q, want MainLayer", l.Name)
			}
			if l.Viewport != (schema.Viewport{Width: 600, Height: 800}) {
				t.Errorf("viewport = %+v", l.Viewport)
			}

			got := strings.Join(l.CellNames(), ",")
			if got != "main,header,sidebar" {
				t.Errorf("cell order = %s, want main,header,sidebar", got)
			}

			main, _ := l.Cell("main")
			want := schema.Cell{Name: "main", StartX: 0.25, StartY: 0.1, Width: 0.75, Height: 0.9, Content: "Main"}
			if *main != want {
				t.Errorf("main = %+v, want %+v", *main, want)
			}
			sidebar, _ := l.Cell("sidebar")
			if sidebar.Content != "" {
				t.Errorf("sidebar content = %q, want empty", sidebar.Content)
			}
		})
	}
}

func TestReadSchemaKeepsDuplicateCells(t *testing.T) {
	tests := []struct {
		name   string
		format Format
		input  string
	}{
		{
			name:   "json",
			format: FormatJSON,
			input: `{"layers":[{"name":"L","viewport":{"width":10,"height":10},"cells":{
				"a":{"startX":0,"startY":0,"width":0.5,"height":0.5},
				"a":{"startX":0.5,"startY":0,"width":0.5,"height":0.5}}}]}`,
		},
		{
			name:   "yaml",
			format: FormatYAML,
			input: `layers:
  - name: L
    viewport: {width: 10, height: 10}
    cells:
      a: {startX: 0, startY: 0, width: 0.5, height: 0.5}
      a: {startX: 0.5, startY: 0, width: 0.5, height: 0.5}
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := ReadSchema(strings.NewReader(tt.input), tt.format)
			if err != nil {
				t.Fatalf("ReadSchema() error: %v", err)
			}
			cells := s.Layers[0].Cells
			if len(cells) != 2 {
				t.Fatalf("cells = %d, want 2", len(cells))
			}
			if cells[0].Name != "a" || cells[1].Name != "a" {
				t.Errorf("names = %q, %q", cells[0].Name, cells[1].Name)
			}
			if cells[1].StartX != 0.5 {
				t.Errorf("second a StartX = %v, want 0.5", cells[1].StartX)
			}
		})
	}
}

func TestReadSchemaMissingNumbers(t *testing.T) {
	input := `{"layers":[{"name":"L","viewport":{"width":10},"cells":{"a":{"startX":0,"startY":0,"height":1}}}]}`
	s, err := ReadSchema(strings.NewReader(input), FormatJSON)
	if err != nil {
		t.Fatalf("ReadSchema() error: %v", err)
	}
	l := s.Layers[0]
	if !math.IsNaN(l.Viewport.Height) {
		t.Errorf("viewport height = %v, want NaN", l.Viewport.Height)
	}
	if !math.IsNaN(l.Cells[0].Width) {
		t.Errorf("cell width = %v, want NaN", l.Cells[0].Width)
	}
	if l.Cells[0].StartX != 0 {
		t.Errorf("explicit zero StartX = %v, want 0", l.Cells[0].StartX)
	}
}

func TestReadSchemaErrors(t *testing.T) {
	tests := []struct {
		name   string
		format Format
		input  string
	}{
		{"json syntax", FormatJSON, `{"layers": [`},
		{"json trailing data", FormatJSON, mainJSON + ` {"layers":[]}`},
		{"json trailing garbage", FormatJSON, `{"layers":[]}xyz`},
		{"yaml second document", FormatYAML, "layers: []\n---\nlayers: []\n"},
		{"json cells array", FormatJSON, `{"layers":[{"name":"L","viewport":{"width":1,"height":1},"cells":[]}]}`},
		{"yaml cells sequence", FormatYAML, "layers:\n  - name: L\n    cells: [a, b]\n"},
		{"toml syntax", FormatTOML, "[[layers]\nname = 1"},
		{"unknown format", Format("xml"), `<layers/>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadSchema(strings.NewReader(tt.input), tt.format)
			if err == nil {
				t.Fatal("expected error")
			}
			if !glerr.Is(err, glerr.ErrCodeInvalidFormat) {
				t.Errorf("code = %s, want %s", glerr.GetCode(err), glerr.ErrCodeInvalidFormat)
			}
		})
	}
}

func TestReadSchemaMistypedNumbers(t *testing.T) {
	tests := []struct {
		name   string
		format Format
		input  string
		want   []*glerr.Error
	}{
		{
			name:   "json viewport string",
			format: FormatJSON,
			input:  `{"layers":[{"name":"L","viewport":{"width":"600","height":800},"cells":{}}]}`,
			want:   []*glerr.Error{{Code: glerr.ErrCodeViewport, Layer: "L", Field: "width"}},
		},
		{
			name:   "json cell values",
			format: FormatJSON,
			input:  `{"layers":[{"name":"L","viewport":{"width":1,"height":1},"cells":{"a":{"startX":true,"startY":0,"width":[1],"height":1}}}]}`,
			want: []*glerr.Error{
				{Code: glerr.ErrCodeCellBounds, Layer: "L", Cell: "a", Field: "startX"},
				{Code: glerr.ErrCodeCellBounds, Layer: "L", Cell: "a", Field: "width"},
			},
		},
		{
			name:   "yaml viewport word",
			format: FormatYAML,
			input:  "layers:\n  - name: L\n    viewport: {width: abc, height: 10}\n",
			want:   []*glerr.Error{{Code: glerr.ErrCodeViewport, Layer: "L", Field: "width"}},
		},
		{
			name:   "yaml cell mapping",
			format: FormatYAML,
			input:  "layers:\n  - name: L\n    viewport: {width: 1, height: 1}\n    cells:\n      a: {startX: 0, startY: {x: 1}, width: 1, height: 1}\n",
			want:   []*glerr.Error{{Code: glerr.ErrCodeCellBounds, Layer: "L", Cell: "a", Field: "startY"}},
		},
		{
			name:   "toml strings",
			format: FormatTOML,
			input:  "[[layers]]\nname = \"L\"\nviewport = { width = 1, height = \"tall\" }\n\n[layers.cells.a]\nstartX = 0.0\nstartY = 0.0\nwidth = 1.0\nheight = \"full\"\n",
			want: []*glerr.Error{
				{Code: glerr.ErrCodeViewport, Layer: "L", Field: "height"},
				{Code: glerr.ErrCodeCellBounds, Layer: "L", Cell: "a", Field: "height"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadSchema(strings.NewReader(tt.input), tt.format)
			if err == nil {
				t.Fatal("expected error")
			}
			if glerr.Is(err, glerr.ErrCodeInvalidFormat) {
				t.Fatalf("mistyped number reported as a format error: %v", err)
			}
			got := glerr.Flatten(err)
			if len(got) != len(tt.want) {
				t.Fatalf("errors = %v, want %d", err, len(tt.want))
			}
			for i, w := range tt.want {
				g := got[i]
				if g.Code != w.Code || g.Layer != w.Layer || g.Cell != w.Cell || g.Field != w.Field {
					t.Errorf("error %d = %s at %s, want %s at %s", i, g.Code, g.Location(), w.Code, w.Location())
				}
			}
		})
	}
}

func TestReadSchemaNullNumber(t *testing.T) {
	input := `{"layers":[{"name":"L","viewport":{"width":null,"height":1},"cells":{}}]}`
	s, err := ReadSchema(strings.NewReader(input), FormatJSON)
	if err != nil {
		t.Fatalf("ReadSchema() error: %v", err)
	}
	if !math.IsNaN(s.Layers[0].Viewport.Width) {
		t.Errorf("null width = %v, want NaN", s.Layers[0].Viewport.Width)
	}
}

func TestWriteSchemaRoundTrip(t *testing.T) {
	orig, err := ReadSchema(strings.NewReader(mainJSON), FormatJSON)
	if err != nil {
		t.Fatalf("ReadSchema() error: %v", err)
	}

	for _, f := range []Format{FormatJSON, FormatYAML, FormatTOML} {
		t.Run(string(f), func(t *testing.T) {
			var buf bytes.Buffer
			if err := WriteSchema(&buf, orig, f); err != nil {
				t.Fatalf("WriteSchema() error: %v", err)
			}
			got, err := ReadSchema(&buf, f)
			if err != nil {
				t.Fatalf("ReadSchema() error: %v\n%s", err, buf.String())
			}

			for _, name := range []string{"main", "header", "sidebar"} {
				a, _ := orig.Layers[0].Cell(name)
				b, ok := got.Layers[0].Cell(name)
				if !ok {
					t.Fatalf("cell %q lost", name)
				}
				if *a != *b {
					t.Errorf("cell %q = %+v, want %+v", name, *b, *a)
				}
			}
		})
	}
}

func TestWriteSchemaKeepsOrder(t *testing.T) {
	s := schema.New(schema.NewLayer("L", schema.Viewport{Width: 1, Height: 1},
		&schema.Cell{Name: "zeta", Width: 1, Height: 1},
		&schema.Cell{Name: "alpha", Width: 1, Height: 1},
	))

	for _, f := range []Format{FormatJSON, FormatYAML} {
		var buf bytes.Buffer
		if err := WriteSchema(&buf, s, f); err != nil {
			t.Fatalf("WriteSchema(%s) error: %v", f, err)
		}
		out := buf.String()
		if strings.Index(out, "zeta") > strings.Index(out, "alpha") {
			t.Errorf("%s output reordered cells:\n%s", f, out)
		}
	}
}

func TestWriteSchemaExplicitZero(t *testing.T) {
	s := schema.New(schema.NewLayer("L", schema.Viewport{Width: 1, Height: 1},
		&schema.Cell{Name: "a", Width: 1, Height: 1},
	))
	var buf bytes.Buffer
	if err := WriteSchema(&buf, s, FormatJSON); err != nil {
		t.Fatalf("WriteSchema() error: %v", err)
	}
	if !strings.Contains(strings.ReplaceAll(buf.String(), " ", ""), `"startX":0`) {
		t.Errorf("zero startX omitted:\n%s", buf.String())
	}
}

func TestMarshalSchemaDeterministic(t *testing.T) {
	s, err := ReadSchema(strings.NewReader(mainYAML), FormatYAML)
	if err != nil {
		t.Fatalf("ReadSchema() error: %v", err)
	}
	a, err := MarshalSchema(s)
	if err != nil {
		t.Fatalf("MarshalSchema() error: %v", err)
	}
	b, _ := MarshalSchema(s)
	if !bytes.Equal(a, b) {
		t.Error("MarshalSchema is not deterministic")
	}

	moved, _ := s.WithViewport("MainLayer", schema.Viewport{Width: 1200, Height: 800})
	c, _ := MarshalSchema(moved)
	if bytes.Equal(a, c) {
		t.Error("different schemas marshal to the same bytes")
	}
}

func TestImportExportSchema(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "layout.yaml")
	if err := os.WriteFile(src, []byte(mainYAML), 0644); err != nil {
		t.Fatal(err)
	}

	s, err := ImportSchema(src)
	if err != nil {
		t.Fatalf("ImportSchema() error: %v", err)
	}

	dst := filepath.Join(dir, "layout.toml")
	if err := ExportSchema(s, dst); err != nil {
		t.Fatalf("ExportSchema() error: %v", err)
	}
	back, err := ImportSchema(dst)
	if err != nil {
		t.Fatalf("ImportSchema(toml) error: %v", err)
	}
	if back.CellCount() != 3 {
		t.Errorf("CellCount = %d, want 3", back.CellCount())
	}

	if _, err := ImportSchema(filepath.Join(dir, "layout.txt")); !glerr.Is(err, glerr.ErrCodeInvalidFormat) {
		t.Errorf("unknown extension error = %v, want INVALID_FORMAT", err)
	}
	if _, err := ImportSchema(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		path    string
		want    Format
		wantErr bool
	}{
		{"a.json", FormatJSON, false},
		{"a.YAML", FormatYAML, false},
		{"dir/a.yml", FormatYAML, false},
		{"a.toml", FormatTOML, false},
		{"a.txt", "", true},
		{"noext", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := DetectFormat(tt.path)
			if (err != nil) != tt.wantErr {
				t.Fatalf("DetectFormat(%q) error = %v, wantErr %v", tt.path, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("DetectFormat(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestParseFormat(t *testing.T) {
	for _, s := range []string{"json", "yaml", "yml", "TOML"} {
		if _, err := ParseFormat(s); err != nil {
			t.Errorf("ParseFormat(%q) error: %v", s, err)
		}
	}
	if _, err := ParseFormat("ini"); err == nil {
		t.Error("ParseFormat(ini) should fail")
	}
}
