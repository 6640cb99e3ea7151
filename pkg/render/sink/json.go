package sink

import (
	pkgio "github.com/matzehuels/gridlookout/pkg/io"
	"github.com/matzehuels/gridlookout/pkg/layout"
)

// RenderJSON exports the resolved layout as JSON. Layers and cells keep
// their order, so the output is stable for equal layouts and can be read
// back with io.UnmarshalLayout. Content references are emitted as-is.
func RenderJSON(l layout.Layout, opts ...Option) ([]byte, error) {
	r := newRenderer(opts...)
	if r.layers != nil {
		filtered := layout.Layout{Units: l.Units}
		for _, layer := range l.Layers {
			if r.visible(layer) {
				filtered.Layers = append(filtered.Layers, layer)
			}
		}
		l = filtered
	}
	data, err := pkgio.MarshalLayout(l)
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}
