package layout

import (
	"fmt"

	"github.com/matzehuels/gridlookout/pkg/schema"
)

// FindingKind classifies a lint finding.
type FindingKind string

const (
	FindingOverlap      FindingKind = "overlap"
	FindingDegenerate   FindingKind = "degenerate"
	FindingEmptyContent FindingKind = "empty-content"
)

// Finding is an advisory observation about a schema. Findings never make a
// schema invalid.
type Finding struct {
	Kind    FindingKind
	Layer   string
	Cells   []string
	Message string
}

// Lint inspects s for authoring hazards that resolution deliberately accepts:
// cells overlapping within a layer, zero-area cells and cells without a
// content reference. It works on fractional coordinates and tolerates
// invalid schemas (nil entries are skipped); use [Validate] for errors.
func Lint(s *schema.Schema) []Finding {
	if s == nil {
		return nil
	}
	var out []Finding
	for _, l := range s.Layers {
		if l == nil {
			continue
		}
		out = append(out, lintLayer(l)...)
	}
	return out
}

func lintLayer(l *schema.Layer) []Finding {
	var out []Finding
	cells := make([]*schema.Cell, 0, len(l.Cells))
	for _, c := range l.Cells {
		if c != nil {
			cells = append(cells, c)
		}
	}

	for _, c := range cells {
		if c.Width == 0 || c.Height == 0 {
			out = append(out, Finding{
				Kind:    FindingDegenerate,
				Layer:   l.Name,
				Cells:   []string{c.Name},
				Message: fmt.Sprintf("cell %q has zero area and renders nothing", c.Name),
			})
		}
		if c.Content == "" {
			out = append(out, Finding{
				Kind:    FindingEmptyContent,
				Layer:   l.Name,
				Cells:   []string{c.Name},
				Message: fmt.Sprintf("cell %q has no content reference", c.Name),
			})
		}
	}

	for i := 0; i < len(cells); i++ {
		a := fractionRect(cells[i])
		for j := i + 1; j < len(cells); j++ {
			b := fractionRect(cells[j])
			if over := a.Intersect(b); over.Area() > DefaultTolerance {
				out = append(out, Finding{
					Kind:    FindingOverlap,
					Layer:   l.Name,
					Cells:   []string{cells[i].Name, cells[j].Name},
					Message: fmt.Sprintf("cells %q and %q overlap (%.4g%% of the viewport)", cells[i].Name, cells[j].Name, over.Area()*100),
				})
			}
		}
	}
	return out
}

func fractionRect(c *schema.Cell) Rect {
	return Rect{X: c.StartX, Y: c.StartY, Width: c.Width, Height: c.Height}
}
