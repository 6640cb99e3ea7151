package sink

import (
	"context"

	"github.com/matzehuels/gridlookout/pkg/layout"
	"github.com/matzehuels/gridlookout/pkg/render"
)

// RenderPNG renders the layout as PNG via SVG conversion. See [WithScale].
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPNG(ctx context.Context, l layout.Layout, opts ...Option) ([]byte, error) {
	r := newRenderer(opts...)
	svg := RenderSVG(l, opts...)
	return render.ToPNG(ctx, svg, r.scale)
}
