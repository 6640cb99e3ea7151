package pipeline

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
	json "github.com/goccy/go-json"

	"github.com/matzehuels/gridlookout/pkg/cache"
	"github.com/matzehuels/gridlookout/pkg/content"
	pkgio "github.com/matzehuels/gridlookout/pkg/io"
	"github.com/matzehuels/gridlookout/pkg/layout"
	"github.com/matzehuels/gridlookout/pkg/observability"
	"github.com/matzehuels/gridlookout/pkg/schema"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and server use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete read → resolve → render pipeline with caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	if err := PrepareContent(&opts); err != nil {
		return nil, fmt.Errorf("content: %w", err)
	}

	result := &Result{
		Artifacts: make(map[string][]byte),
	}

	// Stage 1: Read
	s := opts.Schema
	if s == nil {
		var err error
		if s, err = pkgio.ImportSchema(opts.SchemaPath); err != nil {
			return nil, fmt.Errorf("read: %w", err)
		}
	}
	result.Schema = s

	// Stage 2: Resolve
	resolveStart := time.Now()
	l, resolveHit, err := r.ResolveWithCacheInfo(ctx, s, opts)
	if err != nil {
		return nil, fmt.Errorf("resolve: %w", err)
	}
	result.Layout = l
	result.Stats.ResolveTime = time.Since(resolveStart)
	result.Stats.LayerCount = len(l.Layers)
	result.Stats.CellCount = l.CellCount()
	result.CacheInfo.ResolveHit = resolveHit

	// Validated schemas always encode
	if data, err := pkgio.MarshalSchema(s); err == nil {
		result.SchemaHash = cache.Hash(data)
	}

	r.Logger.Info("resolved layout",
		"layers", result.Stats.LayerCount,
		"cells", result.Stats.CellCount,
		"cached", resolveHit,
		"duration", result.Stats.ResolveTime)

	// Stage 3: Render
	renderStart := time.Now()
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, l, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.Warnings = MissingContent(l, opts)
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	hooks := observability.Pipeline()
	for _, w := range result.Warnings {
		hooks.OnContentMissing(ctx, w.Layer, w.Cell, w.Ref)
	}

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"warnings", len(result.Warnings),
		"duration", result.Stats.RenderTime)

	return result, nil
}

// ResolveWithCacheInfo resolves a schema with caching and returns cache hit info.
//
// The schema is always validated before the cache is consulted, so an
// invalid schema fails even when an equivalent document was cached.
func (r *Runner) ResolveWithCacheInfo(ctx context.Context, s *schema.Schema, opts Options) (layout.Layout, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForResolve(); err != nil {
		return layout.Layout{}, false, err
	}

	var layers, cells int
	if s != nil {
		layers, cells = len(s.Layers), s.CellCount()
	}
	hooks := observability.Pipeline()
	hooks.OnResolveStart(ctx, layers, cells)
	start := time.Now()

	l, hit, err := r.resolve(ctx, s, opts)
	hooks.OnResolveComplete(ctx, layers, cells, time.Since(start), err)
	return l, hit, err
}

func (r *Runner) resolve(ctx context.Context, s *schema.Schema, opts Options) (layout.Layout, bool, error) {
	resolveOpts := opts.ResolveOptions()
	if err := layout.ValidateWith(s, resolveOpts...); err != nil {
		return layout.Layout{}, false, err
	}

	// Compute cache key
	schemaData, err := pkgio.MarshalSchema(s)
	if err != nil {
		return layout.Layout{}, false, fmt.Errorf("serialize schema for cache key: %w", err)
	}
	cacheKey := r.Keyer.LayoutKey(cache.Hash(schemaData), opts.LayoutKeyOpts())
	cacheHooks := observability.Cache()

	// Try cache first (unless refresh requested)
	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			cached, err := pkgio.UnmarshalLayout(data)
			if err == nil {
				cacheHooks.OnCacheHit(ctx, "layout")
				return cached, true, nil // Cache hit
			}
			// If deserialization fails, fall through to recompute
		} else if err != nil {
			opts.Logger.Warn("cache read failed", "error", err)
		}
		cacheHooks.OnCacheMiss(ctx, "layout")
	}

	l, err := layout.Resolve(s, resolveOpts...)
	if err != nil {
		return layout.Layout{}, false, err
	}

	// Cache the result
	if data, err := pkgio.MarshalLayout(l); err == nil {
		if err := r.Cache.Set(ctx, cacheKey, data, cache.TTLLayout); err != nil {
			opts.Logger.Warn("cache write failed", "error", err)
		} else {
			cacheHooks.OnCacheSet(ctx, "layout", len(data))
		}
	}

	return l, false, nil // Cache miss
}

// Resolve is a convenience wrapper that calls ResolveWithCacheInfo and discards the cache hit info.
func (r *Runner) Resolve(ctx context.Context, s *schema.Schema, opts Options) (layout.Layout, error) {
	l, _, err := r.ResolveWithCacheInfo(ctx, s, opts)
	return l, err
}

// RenderWithCacheInfo generates artifacts with caching and returns cache hit info.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, l layout.Layout, opts Options) (map[string][]byte, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForRender(); err != nil {
		return nil, false, err
	}
	if err := PrepareContent(&opts); err != nil {
		return nil, false, err
	}

	hooks := observability.Pipeline()
	hooks.OnRenderStart(ctx, opts.Formats)
	start := time.Now()

	artifacts, hit, err := r.render(ctx, l, opts)
	hooks.OnRenderComplete(ctx, opts.Formats, time.Since(start), err)
	return artifacts, hit, err
}

func (r *Runner) render(ctx context.Context, l layout.Layout, opts Options) (map[string][]byte, bool, error) {
	if !opts.artifactsCacheable() {
		opts.Logger.Debug("content registry has no fingerprint, artifact cache bypassed")
		artifacts, err := RenderFromLayout(ctx, l, opts)
		return artifacts, false, err
	}

	// Compute cache key from layout data
	layoutData, err := pkgio.MarshalLayout(l)
	if err != nil {
		return nil, false, fmt.Errorf("serialize layout for cache key: %w", err)
	}
	layoutHash := cache.Hash(layoutData)
	cacheHooks := observability.Cache()

	// Try to get all formats from cache
	if !opts.Refresh {
		artifacts := make(map[string][]byte, len(opts.Formats))
		for _, format := range opts.Formats {
			cacheKey := r.Keyer.ArtifactKey(layoutHash, opts.ArtifactKeyOpts(format))
			data, hit, err := r.Cache.Get(ctx, cacheKey)
			if err != nil || !hit {
				cacheHooks.OnCacheMiss(ctx, "artifact")
				break
			}
			artifacts[format] = data
		}
		if len(artifacts) == len(opts.Formats) {
			cacheHooks.OnCacheHit(ctx, "artifact")
			return artifacts, true, nil // All artifacts from cache
		}
	}

	// Render all formats
	rendered, err := RenderFromLayout(ctx, l, opts)
	if err != nil {
		return nil, false, err
	}

	// Cache each format
	for format, data := range rendered {
		cacheKey := r.Keyer.ArtifactKey(layoutHash, opts.ArtifactKeyOpts(format))
		if err := r.Cache.Set(ctx, cacheKey, data, cache.TTLArtifact); err == nil {
			cacheHooks.OnCacheSet(ctx, "artifact", len(data))
		}
	}

	return rendered, false, nil // Cache miss
}

// Render is a convenience wrapper that calls RenderWithCacheInfo and discards the cache hit info.
func (r *Runner) Render(ctx context.Context, l layout.Layout, opts Options) (map[string][]byte, error) {
	artifacts, _, err := r.RenderWithCacheInfo(ctx, l, opts)
	return artifacts, err
}

// PrepareContent loads opts.ContentPath into opts.Content when no registry
// is set, and fingerprints the registry for artifact cache keys. Calling it
// again is a no-op.
func PrepareContent(opts *Options) error {
	if opts.hashed {
		return nil
	}
	if opts.Content == nil && opts.ContentPath != "" {
		format, err := pkgio.DetectFormat(opts.ContentPath)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(opts.ContentPath)
		if err != nil {
			return fmt.Errorf("read registry: %w", err)
		}
		m, err := content.Parse(data, format)
		if err != nil {
			return fmt.Errorf("%s: %w", opts.ContentPath, err)
		}
		opts.Content = m
	}

	if m, ok := opts.Content.(content.Map); ok {
		data, err := json.Marshal(m)
		if err != nil {
			return fmt.Errorf("fingerprint registry: %w", err)
		}
		opts.contentHash = cache.Hash(data)
	}
	opts.hashed = true
	return nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
