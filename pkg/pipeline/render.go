package pipeline

import (
	"context"
	"fmt"

	"github.com/matzehuels/gridlookout/pkg/layout"
	"github.com/matzehuels/gridlookout/pkg/render/sink"
)

// RenderFromLayout generates output artifacts in the requested formats.
// Unresolved content references are rendered as placeholders; use
// [MissingContent] to list them.
func RenderFromLayout(ctx context.Context, l layout.Layout, opts Options) (map[string][]byte, error) {
	sinkOpts := opts.SinkOptions(nil)
	artifacts := make(map[string][]byte, len(opts.Formats))

	for _, format := range opts.Formats {
		var data []byte
		var err error

		switch format {
		case FormatSVG:
			data = sink.RenderSVG(l, sinkOpts...)
		case FormatHTML:
			data = sink.RenderHTML(l, sinkOpts...)
		case FormatJSON:
			data, err = sink.RenderJSON(l, sinkOpts...)
		case FormatPNG:
			data, err = sink.RenderPNG(ctx, l, sinkOpts...)
		case FormatPDF:
			data, err = sink.RenderPDF(ctx, l, sinkOpts...)
		default:
			return nil, ValidateFormat(format)
		}

		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}

	return artifacts, nil
}

// MissingContent lists the cells of the rendered layers whose content
// reference is not known to opts.Content. It returns nil when no registry
// is configured.
func MissingContent(l layout.Layout, opts Options) []sink.Warning {
	if opts.Content == nil {
		return nil
	}
	var only map[string]bool
	if len(opts.Layers) > 0 {
		only = make(map[string]bool, len(opts.Layers))
		for _, name := range opts.Layers {
			only[name] = true
		}
	}

	var warnings []sink.Warning
	for _, layer := range l.Layers {
		if only != nil && !only[layer.Name] {
			continue
		}
		for _, c := range layer.Cells {
			if c.Content == "" {
				continue
			}
			if _, err := opts.Content.Lookup(c.Content); err != nil {
				warnings = append(warnings, sink.Warning{Layer: layer.Name, Cell: c.Name, Ref: c.Content, Err: err})
			}
		}
	}
	return warnings
}
