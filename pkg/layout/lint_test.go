package layout

import (
	"testing"

	"github.com/matzehuels/gridlookout/pkg/schema"
)

func TestLint(t *testing.T) {
	vp := schema.Viewport{Width: 100, Height: 100}
	tests := []struct {
		name  string
		layer *schema.Layer
		want  []FindingKind
	}{
		{
			name: "clean grid",
			layer: schema.NewLayer("L", vp,
				&schema.Cell{Name: "left", Width: 0.5, Height: 1, Content: "a"},
				&schema.Cell{Name: "right", StartX: 0.5, Width: 0.5, Height: 1, Content: "b"},
			),
			want: nil,
		},
		{
			name: "overlay overlaps base",
			layer: schema.NewLayer("L", vp,
				&schema.Cell{Name: "base", Width: 1, Height: 1, Content: "a"},
				&schema.Cell{Name: "modal", StartX: 0.25, StartY: 0.25, Width: 0.5, Height: 0.5, Content: "b"},
			),
			want: []FindingKind{FindingOverlap},
		},
		{
			name: "zero area without content",
			layer: schema.NewLayer("L", vp,
				&schema.Cell{Name: "line", StartX: 0.5, Width: 0, Height: 1},
			),
			want: []FindingKind{FindingDegenerate, FindingEmptyContent},
		},
		{
			name: "nil cells are skipped",
			layer: schema.NewLayer("L", vp,
				nil,
				&schema.Cell{Name: "only", Width: 1, Height: 1, Content: "x"},
			),
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Lint(schema.New(tt.layer))
			if len(got) != len(tt.want) {
				t.Fatalf("Lint() = %+v, want kinds %v", got, tt.want)
			}
			for i, f := range got {
				if f.Kind != tt.want[i] {
					t.Errorf("finding %d kind = %s, want %s", i, f.Kind, tt.want[i])
				}
				if f.Layer != "L" {
					t.Errorf("finding %d layer = %q", i, f.Layer)
				}
			}
		})
	}
}

func TestLintOverlapNamesBothCells(t *testing.T) {
	s := schema.New(schema.NewLayer("L", schema.Viewport{Width: 1, Height: 1},
		&schema.Cell{Name: "a", Width: 0.6, Height: 0.6, Content: "a"},
		&schema.Cell{Name: "b", StartX: 0.4, StartY: 0.4, Width: 0.6, Height: 0.6, Content: "b"},
	))
	got := Lint(s)
	if len(got) != 1 {
		t.Fatalf("Lint() = %+v", got)
	}
	if cells := got[0].Cells; len(cells) != 2 || cells[0] != "a" || cells[1] != "b" {
		t.Errorf("cells = %v", cells)
	}
}

func TestLintNil(t *testing.T) {
	if got := Lint(nil); got != nil {
		t.Errorf("Lint(nil) = %v", got)
	}
}
