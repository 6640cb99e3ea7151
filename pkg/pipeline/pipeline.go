// Package pipeline provides the resolve and render pipeline for GridLookout.
//
// This package implements the complete read → resolve → render flow used by
// the CLI and the HTTP server, so both entry points share caching, logging
// and option defaults.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Read: Decode a schema document (JSON, YAML or TOML)
//  2. Resolve: Validate the schema and map every cell to an absolute rectangle
//  3. Render: Generate output in various formats (SVG, HTML, JSON, PNG, PDF)
//
// Each stage can be run independently or as part of the complete pipeline.
//
// # Usage
//
// Create a Runner and execute the pipeline:
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.Options{
//	    SchemaPath:  "layout.yaml",
//	    ContentPath: "content.yaml",
//	    Formats:     []string{"svg", "html"},
//	}
//	result, err := runner.Execute(ctx, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts["svg"]
//
// Run individual stages:
//
//	// Resolve only
//	l, err := runner.Resolve(ctx, s, opts)
//
//	// Render an existing layout
//	artifacts, err := runner.Render(ctx, l, opts)
package pipeline

import (
	"io"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/gridlookout/pkg/cache"
	"github.com/matzehuels/gridlookout/pkg/content"
	glerr "github.com/matzehuels/gridlookout/pkg/errors"
	"github.com/matzehuels/gridlookout/pkg/layout"
	"github.com/matzehuels/gridlookout/pkg/render/sink"
	"github.com/matzehuels/gridlookout/pkg/schema"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and Server
// =============================================================================

const (
	// DefaultUnits is the default output unit system.
	DefaultUnits = string(layout.UnitsViewport)

	// DefaultTolerance is the default overflow tolerance.
	DefaultTolerance = layout.DefaultTolerance

	// DefaultScale is the default PNG scale factor.
	DefaultScale = 2.0
)

// Format constants for output formats.
const (
	FormatSVG  = "svg"
	FormatHTML = "html"
	FormatJSON = "json"
	FormatPNG  = "png"
	FormatPDF  = "pdf"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatSVG:  true,
	FormatHTML: true,
	FormatJSON: true,
	FormatPNG:  true,
	FormatPDF:  true,
}

// ValidUnits is the set of supported output units.
var ValidUnits = map[string]bool{
	string(layout.UnitsViewport): true,
	string(layout.UnitsPercent):  true,
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for the pipeline.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Read options
	SchemaPath string         `json:"schema_path,omitempty"`
	Schema     *schema.Schema `json:"-"`

	// Resolve options
	Units     string   `json:"units,omitempty"`
	PixelSnap bool     `json:"pixel_snap,omitempty"`
	Tolerance *float64 `json:"tolerance,omitempty"` // nil means DefaultTolerance; 0 is exact
	Refresh   bool     `json:"refresh,omitempty"`

	// Render options
	Formats     []string         `json:"formats,omitempty"`
	Layers      []string         `json:"layers,omitempty"`
	Outlines    bool             `json:"outlines,omitempty"`
	Title       string           `json:"title,omitempty"`
	Scale       float64          `json:"scale,omitempty"`
	ContentPath string           `json:"content_path,omitempty"`
	Content     content.Registry `json:"-"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// contentHash identifies Content for artifact cache keys. It is empty
	// when the registry cannot be fingerprinted, which disables artifact
	// caching.
	contentHash string
	hashed      bool

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Schema is the schema that was resolved.
	Schema *schema.Schema

	// SchemaHash is the content hash of the canonical schema document.
	SchemaHash string

	// Layout is the resolved layout.
	Layout layout.Layout

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Warnings lists cells whose content reference could not be resolved.
	Warnings []sink.Warning

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	LayerCount  int
	CellCount   int
	ResolveTime time.Duration
	RenderTime  time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	ResolveHit bool // Whether the layout came from cache
	RenderHit  bool // Whether all artifacts came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return glerr.New(glerr.ErrCodeInvalidInput, "invalid format: %q (must be one of: svg, html, json, png, pdf)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidateUnits checks that a unit system is valid.
func ValidateUnits(units string) error {
	if !ValidUnits[units] {
		return glerr.New(glerr.ErrCodeInvalidInput, "invalid units: %q (must be one of: px, %%)", units)
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks required fields and applies defaults for the full pipeline.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.Schema == nil && o.SchemaPath == "" {
		return glerr.New(glerr.ErrCodeInvalidInput, "schema or schema_path is required")
	}
	if err := o.ValidateForResolve(); err != nil {
		return err
	}
	if err := o.ValidateForRender(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// SetResolveDefaults sets default values for resolution.
func (o *Options) SetResolveDefaults() {
	if o.Units == "" {
		o.Units = DefaultUnits
	}
	if o.Tolerance == nil {
		eps := DefaultTolerance
		o.Tolerance = &eps
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ValidateForResolve validates and sets defaults for resolution.
func (o *Options) ValidateForResolve() error {
	o.SetResolveDefaults()
	if err := ValidateUnits(o.Units); err != nil {
		return err
	}
	if eps := o.tolerance(); math.IsNaN(eps) || eps < 0 {
		return glerr.New(glerr.ErrCodeInvalidInput, "tolerance must be a non-negative number, got %v", eps)
	}
	return nil
}

// SetRenderDefaults sets default values for rendering.
func (o *Options) SetRenderDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	if o.Scale == 0 {
		o.Scale = DefaultScale
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ValidateForRender validates and sets defaults for rendering.
func (o *Options) ValidateForRender() error {
	o.SetRenderDefaults()
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	if math.IsNaN(o.Scale) || o.Scale < 0 {
		return glerr.New(glerr.ErrCodeInvalidInput, "scale must be a positive number, got %v", o.Scale)
	}
	return nil
}

// ResolveOptions converts the resolve settings into layout options.
func (o *Options) ResolveOptions() []layout.Option {
	opts := []layout.Option{
		layout.WithUnits(layout.Units(o.Units)),
		layout.WithTolerance(o.tolerance()),
	}
	if o.PixelSnap {
		opts = append(opts, layout.WithPixelSnap())
	}
	return opts
}

// SinkOptions converts the render settings into sink options. warn may be nil.
func (o *Options) SinkOptions(warn func(sink.Warning)) []sink.Option {
	opts := []sink.Option{sink.WithScale(o.Scale)}
	if o.Content != nil {
		opts = append(opts, sink.WithContent(o.Content))
	}
	if warn != nil {
		opts = append(opts, sink.WithWarnings(warn))
	}
	if o.Title != "" {
		opts = append(opts, sink.WithTitle(o.Title))
	}
	if o.Outlines {
		opts = append(opts, sink.WithOutlines())
	}
	if len(o.Layers) > 0 {
		opts = append(opts, sink.WithLayers(o.Layers...))
	}
	return opts
}

// LayoutKeyOpts returns cache key options for resolution.
func (o *Options) LayoutKeyOpts() cache.LayoutKeyOpts {
	return cache.LayoutKeyOpts{
		Units:     o.Units,
		PixelSnap: o.PixelSnap,
		Tolerance: o.tolerance(),
	}
}

// tolerance returns the overflow tolerance, DefaultTolerance when unset.
func (o *Options) tolerance() float64 {
	if o.Tolerance == nil {
		return DefaultTolerance
	}
	return *o.Tolerance
}

// ArtifactKeyOpts returns cache key options for artifact rendering.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{
		Format:      format,
		ContentHash: o.contentHash,
		Layers:      strings.Join(o.Layers, ","),
		Outlines:    o.Outlines,
		Scale:       o.Scale,
		Title:       o.Title,
	}
}

// artifactsCacheable reports whether rendered output can be cached. Content
// registries that are not plain maps cannot be fingerprinted.
func (o *Options) artifactsCacheable() bool {
	return o.Content == nil || o.contentHash != ""
}
