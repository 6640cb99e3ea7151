// Package pkg provides the core libraries for GridLookout layout resolution.
//
// # Overview
//
// GridLookout turns a schema of named layers, each holding cells whose
// geometry is given as fractions of the layer's viewport, into absolute
// rectangles. Hosts update viewports as their windows change and re-resolve.
// The pkg directory is organized into three areas:
//
//  1. Domain: [schema], [layout] and [content]
//  2. Surfaces: [io], [render] and [render/sink]
//  3. Infrastructure: [pipeline], [cache], [store], [server] and [observability]
//
// # Architecture
//
// The typical data flow:
//
//	YAML / JSON / TOML schema
//	         ↓
//	    [io] package (decode into a schema)
//	         ↓
//	    [layout] package (validate and resolve)
//	         ↓
//	    [render/sink] package (SVG, HTML, JSON, PNG, PDF, terminal)
//
// # Quick Start
//
//	s, err := io.ImportSchema("page.yaml")
//	if err != nil {
//	    return err
//	}
//	l, err := layout.Resolve(s)
//	if err != nil {
//	    return err  // every problem found, see errors.Flatten
//	}
//	r, _ := l.Rect("main", "sidebar")
//	svg := sink.RenderSVG(l)
//
// After a window resize only the viewport changes:
//
//	s2, _ := s.WithViewport("main", schema.Viewport{Width: 1280, Height: 720})
//	l2, _ := layout.Resolve(s2)
//
// # Main Packages
//
// [schema] - Immutable layers, cells and viewports, with copy-on-write update
// helpers.
//
// [layout] - The resolver. Validation collects every error before failing;
// resolution is a pure function of the schema and its options. [layout.Lint]
// reports overlaps and degenerate cells that are valid but suspicious.
//
// [errors] - Error codes and located errors shared by every package.
//
// [io] - Schema codecs for YAML, JSON and TOML, and the resolved layout
// file format.
//
// [content] - Content registries mapping cell references to text, markup
// or image fragments.
//
// [pipeline] - Resolve and render orchestration with caching, used by the
// CLI and the HTTP server.
//
// [cache] - File, memory, Redis and null caches for resolved layouts and
// rendered artifacts.
//
// [store] - Named schema snapshots in memory or MongoDB, and the guard that
// falls back to the last valid snapshot.
//
// [server] - The chi HTTP API.
//
// [schema]: https://pkg.go.dev/github.com/matzehuels/gridlookout/pkg/schema
// [layout]: https://pkg.go.dev/github.com/matzehuels/gridlookout/pkg/layout
// [layout.Lint]: https://pkg.go.dev/github.com/matzehuels/gridlookout/pkg/layout#Lint
// [content]: https://pkg.go.dev/github.com/matzehuels/gridlookout/pkg/content
// [errors]: https://pkg.go.dev/github.com/matzehuels/gridlookout/pkg/errors
// [io]: https://pkg.go.dev/github.com/matzehuels/gridlookout/pkg/io
// [render]: https://pkg.go.dev/github.com/matzehuels/gridlookout/pkg/render
// [render/sink]: https://pkg.go.dev/github.com/matzehuels/gridlookout/pkg/render/sink
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/gridlookout/pkg/pipeline
// [cache]: https://pkg.go.dev/github.com/matzehuels/gridlookout/pkg/cache
// [store]: https://pkg.go.dev/github.com/matzehuels/gridlookout/pkg/store
// [server]: https://pkg.go.dev/github.com/matzehuels/gridlookout/pkg/server
// [observability]: https://pkg.go.dev/github.com/matzehuels/gridlookout/pkg/observability
package pkg
