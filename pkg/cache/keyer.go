package cache

// LayoutKeyOpts holds every resolve option that changes a layout.
type LayoutKeyOpts struct {
	Units     string  `json:"units"`
	PixelSnap bool    `json:"pixel_snap"`
	Tolerance float64 `json:"tolerance"`
}

// ArtifactKeyOpts holds every render option that changes an artifact.
type ArtifactKeyOpts struct {
	Format      string  `json:"format"`
	ContentHash string  `json:"content_hash,omitempty"`
	Layers      string  `json:"layers,omitempty"`
	Outlines    bool    `json:"outlines,omitempty"`
	Scale       float64 `json:"scale,omitempty"`
	Title       string  `json:"title,omitempty"`
}

// Keyer builds cache keys.
type Keyer interface {
	// LayoutKey returns the key for the layout resolved from a schema.
	LayoutKey(schemaHash string, opts LayoutKeyOpts) string
	// ArtifactKey returns the key for an artifact rendered from a layout.
	ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string
}

// DefaultKeyer produces keys of the form "kind:sha256".
type DefaultKeyer struct{}

// NewDefaultKeyer creates the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// LayoutKey implements Keyer.
func (DefaultKeyer) LayoutKey(schemaHash string, opts LayoutKeyOpts) string {
	return newKeyHash("layout").
		str("schema", schemaHash).
		str("units", opts.Units).
		flag("snap", opts.PixelSnap).
		float("tolerance", opts.Tolerance).
		key()
}

// ArtifactKey implements Keyer.
func (DefaultKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return newKeyHash("artifact").
		str("layout", layoutHash).
		str("format", opts.Format).
		str("content", opts.ContentHash).
		str("layers", opts.Layers).
		flag("outlines", opts.Outlines).
		float("scale", opts.Scale).
		str("title", opts.Title).
		key()
}
