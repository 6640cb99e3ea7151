package layout

import (
	"math"

	glerr "github.com/matzehuels/gridlookout/pkg/errors"
	"github.com/matzehuels/gridlookout/pkg/schema"
)

// DefaultTolerance absorbs floating-point error when checking that
// start+size stays within the viewport.
const DefaultTolerance = 1e-9

// Option configures resolution.
type Option func(*config)

type config struct {
	units     Units
	snap      bool
	tolerance float64
}

// WithUnits selects the output units. The default is [UnitsViewport].
func WithUnits(u Units) Option { return func(c *config) { c.units = u } }

// WithPixelSnap rounds every resolved coordinate to the nearest integer unit.
func WithPixelSnap() Option { return func(c *config) { c.snap = true } }

// WithTolerance overrides [DefaultTolerance] for the overflow check.
func WithTolerance(eps float64) Option { return func(c *config) { c.tolerance = eps } }

func newConfig(opts ...Option) (config, error) {
	c := config{units: UnitsViewport, tolerance: DefaultTolerance}
	for _, opt := range opts {
		opt(&c)
	}
	if c.units != UnitsViewport && c.units != UnitsPercent {
		return c, glerr.New(glerr.ErrCodeInvalidInput, "unknown units %q (must be %q or %q)", c.units, UnitsViewport, UnitsPercent)
	}
	if math.IsNaN(c.tolerance) || c.tolerance < 0 {
		return c, glerr.New(glerr.ErrCodeInvalidInput, "tolerance must be a non-negative number, got %v", c.tolerance)
	}
	return c, nil
}

// Resolve validates s and maps every cell to an absolute rectangle.
//
// On failure the returned error carries every problem found (see [Validate])
// and the Layout is zero. The schema is never modified.
func Resolve(s *schema.Schema, opts ...Option) (Layout, error) {
	cfg, err := newConfig(opts...)
	if err != nil {
		return Layout{}, err
	}
	if err := validate(s, cfg.tolerance); err != nil {
		return Layout{}, err
	}

	out := Layout{
		Units:  cfg.units,
		Layers: make([]Layer, len(s.Layers)),
	}
	for i, l := range s.Layers {
		out.Layers[i] = resolveLayer(l, cfg)
	}
	return out, nil
}

func resolveLayer(l *schema.Layer, cfg config) Layer {
	w, h := l.Viewport.Width, l.Viewport.Height
	if cfg.units == UnitsPercent {
		w, h = 100, 100
	}

	cells := make([]Cell, len(l.Cells))
	for i, c := range l.Cells {
		r := Rect{
			X:      c.StartX * w,
			Y:      c.StartY * h,
			Width:  c.Width * w,
			Height: c.Height * h,
		}
		if cfg.snap {
			r = r.Snap()
		}
		cells[i] = Cell{Name: c.Name, Content: c.Content, Rect: r}
	}
	return Layer{Name: l.Name, Viewport: l.Viewport, Cells: cells}
}

// Validate checks the structural, viewport and bounds invariants of s using
// [DefaultTolerance]. It returns nil, a single *errors.Error, or an
// *errors.List when several problems were found.
func Validate(s *schema.Schema) error {
	return validate(s, DefaultTolerance)
}

// ValidateWith is [Validate] using the tolerance configured by opts. The
// options themselves are checked first.
func ValidateWith(s *schema.Schema, opts ...Option) error {
	cfg, err := newConfig(opts...)
	if err != nil {
		return err
	}
	return validate(s, cfg.tolerance)
}

func validate(s *schema.Schema, eps float64) error {
	var errs glerr.List

	if s == nil || len(s.Layers) == 0 {
		errs.Add(glerr.New(glerr.ErrCodeSchemaStructure, "schema has no layers"))
		return errs.Err()
	}

	seen := make(map[string]int, len(s.Layers))
	for i, l := range s.Layers {
		if l == nil {
			errs.Add(glerr.New(glerr.ErrCodeSchemaStructure, "layer %d is missing", i))
			continue
		}
		if l.Name == "" {
			errs.Add(glerr.New(glerr.ErrCodeSchemaStructure, "layer %d has an empty name", i).At("", "", "name"))
		} else if first, dup := seen[l.Name]; dup {
			errs.Add(glerr.New(glerr.ErrCodeSchemaStructure, "duplicate layer name (also at index %d)", first).At(l.Name, "", "name"))
		} else {
			seen[l.Name] = i
		}

		validateViewport(&errs, l)
		validateCells(&errs, l, eps)
	}

	return errs.Err()
}

func validateViewport(errs *glerr.List, l *schema.Layer) {
	check := func(field string, v float64) {
		switch {
		case math.IsNaN(v) || math.IsInf(v, 0):
			errs.Add(glerr.New(glerr.ErrCodeViewport, "viewport %s must be finite, got %v", field, v).At(l.Name, "", field))
		case v <= 0:
			errs.Add(glerr.New(glerr.ErrCodeViewport, "viewport %s must be positive, got %v", field, v).At(l.Name, "", field))
		}
	}
	check("width", l.Viewport.Width)
	check("height", l.Viewport.Height)
}

func validateCells(errs *glerr.List, l *schema.Layer, eps float64) {
	seen := make(map[string]bool, len(l.Cells))
	for i, c := range l.Cells {
		if c == nil {
			errs.Add(glerr.New(glerr.ErrCodeSchemaStructure, "cell %d is missing", i).At(l.Name, "", ""))
			continue
		}
		if c.Name == "" {
			errs.Add(glerr.New(glerr.ErrCodeSchemaStructure, "cell %d has an empty name", i).At(l.Name, "", "name"))
		} else if seen[c.Name] {
			errs.Add(glerr.New(glerr.ErrCodeSchemaStructure, "duplicate cell name").At(l.Name, c.Name, "name"))
		} else {
			seen[c.Name] = true
		}

		xOK := checkFraction(errs, l.Name, c.Name, "startX", c.StartX)
		wOK := checkFraction(errs, l.Name, c.Name, "width", c.Width)
		yOK := checkFraction(errs, l.Name, c.Name, "startY", c.StartY)
		hOK := checkFraction(errs, l.Name, c.Name, "height", c.Height)

		if xOK && wOK && c.StartX+c.Width > 1+eps {
			errs.Add(glerr.New(glerr.ErrCodeCellBounds, "startX + width = %v exceeds 1", c.StartX+c.Width).
				At(l.Name, c.Name, "startX+width"))
		}
		if yOK && hOK && c.StartY+c.Height > 1+eps {
			errs.Add(glerr.New(glerr.ErrCodeCellBounds, "startY + height = %v exceeds 1", c.StartY+c.Height).
				At(l.Name, c.Name, "startY+height"))
		}
	}
}

func checkFraction(errs *glerr.List, layer, cell, field string, v float64) bool {
	switch {
	case math.IsNaN(v) || math.IsInf(v, 0):
		errs.Add(glerr.New(glerr.ErrCodeCellBounds, "%s must be a finite number, got %v", field, v).At(layer, cell, field))
		return false
	case v < 0 || v > 1:
		errs.Add(glerr.New(glerr.ErrCodeCellBounds, "%s must be within [0,1], got %v", field, v).At(layer, cell, field))
		return false
	}
	return true
}
