package sink

import (
	"context"
	"encoding/xml"
	"strings"
	"testing"

	"github.com/matzehuels/gridlookout/pkg/content"
	pkgio "github.com/matzehuels/gridlookout/pkg/io"
	"github.com/matzehuels/gridlookout/pkg/layout"
	"github.com/matzehuels/gridlookout/pkg/render"
	"github.com/matzehuels/gridlookout/pkg/schema"
)

func testLayout() layout.Layout {
	return layout.Layout{
		Units: layout.UnitsViewport,
		Layers: []layout.Layer{
			{
				Name:     "MainLayer",
				Viewport: schema.Viewport{Width: 600, Height: 800},
				Cells: []layout.Cell{
					{Name: "header", Content: "Header", Rect: layout.Rect{X: 0, Y: 0, Width: 600, Height: 80}},
					{Name: "sidebar", Content: "Nav", Rect: layout.Rect{X: 0, Y: 80, Width: 120, Height: 720}},
					{Name: "main", Content: "Main", Rect: layout.Rect{X: 120, Y: 80, Width: 480, Height: 720}},
				},
			},
			{
				Name:     "Overlay",
				Viewport: schema.Viewport{Width: 300, Height: 900},
				Cells: []layout.Cell{
					{Name: "toast", Content: "<b>hi</b>", Rect: layout.Rect{X: 30, Y: 90, Width: 240, Height: 90}},
				},
			},
		},
	}
}

func TestRenderSVGStructure(t *testing.T) {
	svg := RenderSVG(testLayout(), WithTitle("demo & test"), WithOutlines())

	if err := xml.Unmarshal(svg, new(struct{ XMLName xml.Name })); err != nil {
		t.Fatalf("SVG is not well-formed XML: %v\n%s", err, svg)
	}

	s := string(svg)
	checks := []string{
		`viewBox="0 0 600 900"`,
		`<title>demo &amp; test</title>`,
		`<g id="gl-0" class="layer" data-layer="MainLayer">`,
		`<g id="gl-1" class="layer" data-layer="Overlay">`,
		`id="gl-0-2" class="cell" data-cell="main" x="120" y="80" width="480" height="720"`,
		`overflow="hidden"`,
		`<style>#gl-0-2 .cell-text`,
		`class="cell-outline"`,
		`&lt;b&gt;hi&lt;/b&gt;`,
	}
	for _, want := range checks {
		if !strings.Contains(s, want) {
			t.Errorf("SVG missing %q", want)
		}
	}

	if strings.Index(s, `data-layer="MainLayer"`) > strings.Index(s, `data-layer="Overlay"`) {
		t.Error("layers out of stacking order")
	}
}

func TestRenderSVGContentTypes(t *testing.T) {
	reg := content.Map{
		"Header": {Type: content.TypeSVG, Body: `<circle cx="5" cy="5" r="5"/>`},
		"Nav":    {Type: content.TypeHTML, Body: `<ul><li>one</li></ul>`},
		"Main":   content.Text("a < b"),
	}
	l := testLayout()
	l.Layers = l.Layers[:1]

	s := string(RenderSVG(l, WithContent(reg)))
	for _, want := range []string{
		`<circle cx="5" cy="5" r="5"/>`,
		`<foreignObject x="0" y="0" width="120" height="720"><div xmlns="http://www.w3.org/1999/xhtml"><ul><li>one</li></ul></div></foreignObject>`,
		`>a &lt; b</text>`,
	} {
		if !strings.Contains(s, want) {
			t.Errorf("SVG missing %q", want)
		}
	}
}

func TestUnknownContentWarns(t *testing.T) {
	var warnings []Warning
	reg := content.Map{"Header": content.Text("Welcome")}

	s := string(RenderSVG(testLayout(),
		WithContent(reg),
		WithWarnings(func(w Warning) { warnings = append(warnings, w) }),
	))

	if len(warnings) != 3 {
		t.Fatalf("warnings = %d, want 3 (Nav, Main, toast)", len(warnings))
	}
	w := warnings[0]
	if w.Layer != "MainLayer" || w.Cell != "sidebar" || w.Ref != "Nav" {
		t.Errorf("first warning = %+v", w)
	}
	if !content.IsUnknown(w.Err) {
		t.Errorf("warning error = %v", w.Err)
	}
	if !strings.Contains(s, "[Nav]") {
		t.Error("placeholder for Nav not rendered")
	}
	if !strings.Contains(s, "Welcome") {
		t.Error("resolved content missing")
	}
}

func TestRenderHTML(t *testing.T) {
	reg := content.Map{
		"Header": content.Text("Tom & Jerry"),
		"Nav":    {Type: content.TypeHTML, Body: `<nav>links</nav>`},
	}
	s := string(RenderHTML(testLayout(), WithContent(reg), WithTitle("Demo")))

	checks := []string{
		"<!DOCTYPE html>",
		"<title>Demo</title>",
		`class="gl-frame" style="width: 600px; height: 900px;"`,
		`data-layer="Overlay" style="z-index: 2; width: 300px; height: 900px;"`,
		`data-cell="sidebar" style="left: 0px; top: 80px; width: 120px; height: 720px;"`,
		`<template shadowrootmode="open">`,
		"Tom &amp; Jerry",
		"<nav>links</nav>",
		"[Main]",
	}
	for _, want := range checks {
		if !strings.Contains(s, want) {
			t.Errorf("HTML missing %q", want)
		}
	}
	if got := strings.Count(s, "shadowrootmode"); got != 4 {
		t.Errorf("shadow roots = %d, want 4", got)
	}
}

func TestRenderHTMLPercent(t *testing.T) {
	l := layout.Layout{
		Units: layout.UnitsPercent,
		Layers: []layout.Layer{{
			Name:     "L",
			Viewport: schema.Viewport{Width: 600, Height: 800},
			Cells:    []layout.Cell{{Name: "a", Rect: layout.Rect{X: 25, Y: 50, Width: 50, Height: 25}}},
		}},
	}
	s := string(RenderHTML(l))
	if !strings.Contains(s, "left: 25%; top: 50%; width: 50%; height: 25%;") {
		t.Errorf("percent units not applied:\n%s", s)
	}
}

func TestWithLayers(t *testing.T) {
	s := string(RenderSVG(testLayout(), WithLayers("Overlay")))
	if strings.Contains(s, "MainLayer") {
		t.Error("filtered layer rendered")
	}
	if !strings.Contains(s, `viewBox="0 0 300 900"`) {
		t.Error("frame not sized to visible layers")
	}
}

func TestRenderJSON(t *testing.T) {
	data, err := RenderJSON(testLayout())
	if err != nil {
		t.Fatalf("RenderJSON() error: %v", err)
	}

	back, err := pkgio.UnmarshalLayout(data)
	if err != nil {
		t.Fatalf("UnmarshalLayout() error: %v", err)
	}
	if back.CellCount() != 4 {
		t.Errorf("CellCount = %d, want 4", back.CellCount())
	}
	r, _ := back.Rect("MainLayer", "sidebar")
	if r != (layout.Rect{X: 0, Y: 80, Width: 120, Height: 720}) {
		t.Errorf("sidebar = %+v", r)
	}

	again, _ := RenderJSON(testLayout())
	if string(again) != string(data) {
		t.Error("RenderJSON output is not stable")
	}

	filtered, _ := RenderJSON(testLayout(), WithLayers("MainLayer"))
	back, _ = pkgio.UnmarshalLayout(filtered)
	if len(back.Layers) != 1 {
		t.Errorf("filtered layers = %d, want 1", len(back.Layers))
	}
}

func TestRenderTerminal(t *testing.T) {
	out := RenderTerminal(testLayout(), WithLayers("MainLayer"), WithTerminalSize(60, 20))

	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	if len(lines) != 20 {
		t.Fatalf("rows = %d, want 20", len(lines))
	}
	for _, name := range []string{"header", "sidebar", "main"} {
		if !strings.Contains(out, name) {
			t.Errorf("preview missing label %q", name)
		}
	}
	if !strings.Contains(out, "┌") {
		t.Error("preview missing box borders")
	}

	focused := RenderTerminal(testLayout(), WithFocus("MainLayer"), WithTerminalSize(60, 20))
	if !strings.Contains(focused, "╔") {
		t.Error("focused layer not drawn with heavy borders")
	}
}

func TestRenderTerminalEmpty(t *testing.T) {
	if out := RenderTerminal(layout.Layout{}); out != "" {
		t.Errorf("empty layout preview = %q", out)
	}
}

func TestFontSizeFor(t *testing.T) {
	tests := []struct {
		name string
		w, h float64
		n    int
		want float64
	}{
		{"clamped max", 1000, 1000, 4, fontSizeMax},
		{"clamped min", 10, 2, 10, fontSizeMin},
		{"by height", 1000, 20, 1, 12},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := fontSizeFor(tt.w, tt.h, tt.n); got != tt.want {
				t.Errorf("fontSizeFor() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRenderPNGRequiresConverter(t *testing.T) {
	if render.ConverterAvailable() {
		t.Skip("rsvg-convert installed")
	}
	if _, err := RenderPNG(context.Background(), testLayout()); err == nil {
		t.Error("expected error without rsvg-convert")
	}
}
