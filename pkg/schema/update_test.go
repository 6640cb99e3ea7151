package schema

import (
	"testing"

	glerr "github.com/matzehuels/gridlookout/pkg/errors"
)

func fixture() *Schema {
	return New(
		NewLayer("Base", Viewport{Width: 600, Height: 800},
			&Cell{Name: "header", Width: 1, Height: 0.1, Content: "Header"},
			&Cell{Name: "sidebar", StartY: 0.1, Width: 0.2, Height: 0.9, Content: "Nav"},
			&Cell{Name: "main", StartX: 0.2, StartY: 0.1, Width: 0.8, Height: 0.9, Content: "Body"},
		),
		NewLayer("Overlay", Viewport{Width: 600, Height: 800},
			&Cell{Name: "toast", StartX: 0.7, StartY: 0.9, Width: 0.3, Height: 0.1, Content: "Toast"},
		),
	)
}

func float(v float64) *float64 { return &v }

func TestWithViewportSharesOtherLayers(t *testing.T) {
	s := fixture()
	next, err := s.WithViewport("Overlay", Viewport{Width: 1024, Height: 768})
	if err != nil {
		t.Fatalf("WithViewport: %v", err)
	}

	if next == s {
		t.Fatal("WithViewport must return a new schema")
	}
	if next.Layers[0] != s.Layers[0] {
		t.Error("untouched layer should keep its identity")
	}
	if next.Layers[1] == s.Layers[1] {
		t.Error("updated layer should be a new value")
	}
	if got := next.Layers[1].Viewport; got != (Viewport{Width: 1024, Height: 768}) {
		t.Errorf("viewport = %+v", got)
	}
	if next.Layers[1].Cells[0] != s.Layers[1].Cells[0] {
		t.Error("cells of the updated layer should be shared")
	}
	if s.Layers[1].Viewport.Width != 600 {
		t.Error("input schema was mutated")
	}
}

func TestWithViewportUnknownLayer(t *testing.T) {
	_, err := fixture().WithViewport("Missing", Viewport{Width: 1, Height: 1})
	if !glerr.Is(err, glerr.ErrCodeNotFound) {
		t.Errorf("expected NOT_FOUND, got %v", err)
	}
}

func TestResize(t *testing.T) {
	s := fixture()
	next := s.Resize(Viewport{Width: 320, Height: 480})
	for i, l := range next.Layers {
		if l.Viewport.Width != 320 || l.Viewport.Height != 480 {
			t.Errorf("layer %d viewport = %+v", i, l.Viewport)
		}
		if l == s.Layers[i] {
			t.Errorf("layer %d should be copied", i)
		}
		if l.Cells[0] != s.Layers[i].Cells[0] {
			t.Errorf("layer %d cells should be shared", i)
		}
	}
	if s.Layers[0].Viewport.Width != 600 {
		t.Error("input schema was mutated")
	}
}

func TestWithCell(t *testing.T) {
	tests := []struct {
		name      string
		cell      *Cell
		wantCount int
		wantIndex int
	}{
		{"replace existing", &Cell{Name: "sidebar", Width: 0.25, Height: 0.9, Content: "Nav"}, 3, 1},
		{"append new", &Cell{Name: "footer", StartY: 0.95, Width: 1, Height: 0.05}, 4, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := fixture()
			next, err := s.WithCell("Base", tt.cell)
			if err != nil {
				t.Fatalf("WithCell: %v", err)
			}
			cells := next.Layers[0].Cells
			if len(cells) != tt.wantCount {
				t.Fatalf("cell count = %d, want %d", len(cells), tt.wantCount)
			}
			if cells[tt.wantIndex] != tt.cell {
				t.Errorf("cell at %d = %+v, want %+v", tt.wantIndex, cells[tt.wantIndex], tt.cell)
			}
			if cells[0] != s.Layers[0].Cells[0] {
				t.Error("sibling cell identity should be preserved")
			}
			if next.Layers[1] != s.Layers[1] {
				t.Error("other layers should be shared")
			}
			if len(s.Layers[0].Cells) != 3 {
				t.Error("input schema was mutated")
			}
		})
	}
}

func TestWithNilLayerOrCell(t *testing.T) {
	s := fixture()

	if _, err := s.WithLayer(nil); !glerr.Is(err, glerr.ErrCodeSchemaStructure) {
		t.Errorf("WithLayer(nil) = %v, want SCHEMA_STRUCTURE", err)
	}
	_, err := s.WithCell("Base", nil)
	if !glerr.Is(err, glerr.ErrCodeSchemaStructure) {
		t.Fatalf("WithCell(nil) = %v, want SCHEMA_STRUCTURE", err)
	}
	if e := glerr.Flatten(err); len(e) != 1 || e[0].Layer != "Base" {
		t.Errorf("WithCell(nil) location = %v", err)
	}
	if _, err := s.WithCell("Nope", nil); !glerr.Is(err, glerr.ErrCodeNotFound) {
		t.Errorf("unknown layer = %v, want NOT_FOUND", err)
	}
	if len(s.Layers) != 2 || len(s.Layers[0].Cells) != 3 {
		t.Error("input schema was mutated")
	}
}

func TestPatchCell(t *testing.T) {
	s := fixture()
	content := "Search"
	next, err := s.PatchCell("Base", "main", CellPatch{Width: float(0.5), Content: &content})
	if err != nil {
		t.Fatalf("PatchCell: %v", err)
	}

	got, _ := next.Layers[0].Cell("main")
	if got.Width != 0.5 || got.Content != "Search" {
		t.Errorf("patched cell = %+v", got)
	}
	if got.StartX != 0.2 || got.Height != 0.9 {
		t.Errorf("unpatched fields changed: %+v", got)
	}
	orig, _ := s.Layers[0].Cell("main")
	if orig.Width != 0.8 {
		t.Error("input cell was mutated")
	}
	if next.Layers[0].Cells[0] != s.Layers[0].Cells[0] {
		t.Error("sibling cell identity should be preserved")
	}
}

func TestPatchCellNotFound(t *testing.T) {
	s := fixture()
	if _, err := s.PatchCell("Nope", "main", CellPatch{}); !glerr.Is(err, glerr.ErrCodeNotFound) {
		t.Errorf("unknown layer: got %v", err)
	}
	if _, err := s.PatchCell("Base", "nope", CellPatch{}); !glerr.Is(err, glerr.ErrCodeNotFound) {
		t.Errorf("unknown cell: got %v", err)
	}
}

func TestWithoutCell(t *testing.T) {
	s := fixture()
	next, err := s.WithoutCell("Base", "sidebar")
	if err != nil {
		t.Fatalf("WithoutCell: %v", err)
	}
	if names := next.Layers[0].CellNames(); len(names) != 2 || names[0] != "header" || names[1] != "main" {
		t.Errorf("cell names = %v", names)
	}
	if len(s.Layers[0].Cells) != 3 {
		t.Error("input schema was mutated")
	}
	if _, err := s.WithoutCell("Base", "ghost"); !glerr.Is(err, glerr.ErrCodeNotFound) {
		t.Errorf("expected NOT_FOUND, got %v", err)
	}
}

func TestWithLayerAndWithoutLayer(t *testing.T) {
	s := fixture()

	popup := NewLayer("Popup", Viewport{Width: 300, Height: 200})
	next, err := s.WithLayer(popup)
	if err != nil {
		t.Fatalf("WithLayer: %v", err)
	}
	if got := next.LayerNames(); len(got) != 3 || got[2] != "Popup" {
		t.Fatalf("layer names = %v", got)
	}

	replaced, err := next.WithLayer(NewLayer("Base", Viewport{Width: 10, Height: 10}))
	if err != nil {
		t.Fatalf("WithLayer: %v", err)
	}
	if replaced.Layers[0].Viewport.Width != 10 || len(replaced.Layers[0].Cells) != 0 {
		t.Errorf("Base not replaced: %+v", replaced.Layers[0])
	}
	if replaced.Layers[1] != s.Layers[1] {
		t.Error("other layers should be shared")
	}

	removed, err := next.WithoutLayer("Overlay")
	if err != nil {
		t.Fatalf("WithoutLayer: %v", err)
	}
	if got := removed.LayerNames(); len(got) != 2 || got[1] != "Popup" {
		t.Errorf("layer names after removal = %v", got)
	}
	if _, err := s.WithoutLayer("ghost"); !glerr.Is(err, glerr.ErrCodeNotFound) {
		t.Errorf("expected NOT_FOUND, got %v", err)
	}
}

func TestLookups(t *testing.T) {
	s := fixture()
	if s.CellCount() != 4 {
		t.Errorf("CellCount = %d, want 4", s.CellCount())
	}
	l, ok := s.Layer("Base")
	if !ok || l.Name != "Base" {
		t.Fatal("Layer(Base) not found")
	}
	c, ok := l.Cell("main")
	if !ok {
		t.Fatal("Cell(main) not found")
	}
	if c.Right() != 1 {
		t.Errorf("Right() = %v, want 1", c.Right())
	}
	if _, ok := s.Layer("ghost"); ok {
		t.Error("Layer(ghost) should not be found")
	}
	if !(CellPatch{}).IsEmpty() {
		t.Error("zero patch should be empty")
	}
}
