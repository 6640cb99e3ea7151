package server

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	pkgio "github.com/matzehuels/gridlookout/pkg/io"
	"github.com/matzehuels/gridlookout/pkg/schema"
	"github.com/matzehuels/gridlookout/pkg/store"
)

// SnapshotHeader carries the id of the snapshot a response was built from.
const SnapshotHeader = "X-Gridlookout-Snapshot"

// SnapshotInfo describes a stored snapshot without its schema.
type SnapshotInfo struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Hash      string    `json:"hash"`
	CreatedAt time.Time `json:"created_at"`
	Layers    []string  `json:"layers"`
}

func snapshotInfo(snap store.Snapshot) SnapshotInfo {
	return SnapshotInfo{
		ID:        snap.ID,
		Name:      snap.Name,
		Hash:      snap.Hash,
		CreatedAt: snap.CreatedAt,
		Layers:    snap.Schema.LayerNames(),
	}
}

// ViewportRequest is the body of a viewport update.
type ViewportRequest struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// CellRequest is the body of a cell update. Omitted fields keep their
// current value.
type CellRequest struct {
	StartX  *float64 `json:"startX,omitempty"`
	StartY  *float64 `json:"startY,omitempty"`
	Width   *float64 `json:"width,omitempty"`
	Height  *float64 `json:"height,omitempty"`
	Content *string  `json:"content,omitempty"`
}

func (c CellRequest) patch() schema.CellPatch {
	return schema.CellPatch{
		StartX:  c.StartX,
		StartY:  c.StartY,
		Width:   c.Width,
		Height:  c.Height,
		Content: c.Content,
	}
}

// handlePutSchema validates the posted schema and stores it as the newest
// snapshot. Invalid schemas are rejected with 422 and leave the stored
// history untouched.
// PUT /v1/schemas/{name}
func (s *Server) handlePutSchema(w http.ResponseWriter, r *http.Request) {
	opts, err := s.requestOptions(r)
	if err != nil {
		writeError(w, err)
		return
	}
	sc, err := readSchema(w, r)
	if err != nil {
		writeError(w, err)
		return
	}
	snap, err := s.store.Save(r.Context(), chi.URLParam(r, "name"), sc,
		store.WithResolveOptions(opts.ResolveOptions()...))
	if err != nil {
		writeError(w, err)
		return
	}
	s.logger.Info("stored schema", "name", snap.Name, "id", snap.ID)
	w.Header().Set(SnapshotHeader, snap.ID)
	writeJSON(w, http.StatusCreated, snapshotInfo(snap))
}

// handleGetSchema returns the latest stored schema, as JSON unless
// ?format=yaml|toml is given.
// GET /v1/schemas/{name}
func (s *Server) handleGetSchema(w http.ResponseWriter, r *http.Request) {
	format := pkgio.FormatJSON
	if v := r.URL.Query().Get("format"); v != "" {
		f, err := pkgio.ParseFormat(v)
		if err != nil {
			writeError(w, err)
			return
		}
		format = f
	}

	snap, err := s.store.Latest(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, err)
		return
	}

	mediaType := map[pkgio.Format]string{
		pkgio.FormatJSON: "application/json",
		pkgio.FormatYAML: "application/yaml",
		pkgio.FormatTOML: "application/toml",
	}[format]
	w.Header().Set("Content-Type", mediaType)
	w.Header().Set(SnapshotHeader, snap.ID)
	w.WriteHeader(http.StatusOK)
	if err := pkgio.WriteSchema(w, snap.Schema, format); err != nil {
		s.logger.Error("write schema", "name", snap.Name, "error", err)
	}
}

// handleListSnapshots lists stored snapshots, newest first.
// GET /v1/schemas/{name}/snapshots?limit=20
func (s *Server) handleListSnapshots(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, badRequest("invalid limit %q", v))
			return
		}
		limit = n
	}

	snaps, err := s.store.List(r.Context(), chi.URLParam(r, "name"), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]SnapshotInfo, len(snaps))
	for i, snap := range snaps {
		out[i] = snapshotInfo(snap)
	}
	writeJSON(w, http.StatusOK, out)
}

// handleSchemaLayout resolves the latest stored schema, or renders it when
// ?format= is given.
// GET /v1/schemas/{name}/layout
func (s *Server) handleSchemaLayout(w http.ResponseWriter, r *http.Request) {
	opts, err := s.requestOptions(r)
	if err != nil {
		writeError(w, err)
		return
	}
	snap, err := s.store.Latest(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, err)
		return
	}
	l, err := s.runner.Resolve(r.Context(), snap.Schema, opts)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set(SnapshotHeader, snap.ID)

	if format := r.URL.Query().Get("format"); format != "" {
		opts.Formats = []string{format}
		if err := opts.ValidateForRender(); err != nil {
			writeError(w, err)
			return
		}
		s.writeArtifact(w, r, l, opts)
		return
	}
	writeLayout(w, http.StatusOK, l)
}

// handlePatchViewport replaces one layer's viewport in the latest snapshot,
// stores the result and returns its layout.
// PATCH /v1/schemas/{name}/layers/{layer}/viewport
func (s *Server) handlePatchViewport(w http.ResponseWriter, r *http.Request) {
	var req ViewportRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	s.update(w, r, func(sc *schema.Schema) (*schema.Schema, error) {
		return sc.WithViewport(chi.URLParam(r, "layer"), schema.Viewport{Width: req.Width, Height: req.Height})
	})
}

// handlePatchCell patches one cell in the latest snapshot, stores the
// result and returns its layout.
// PATCH /v1/schemas/{name}/layers/{layer}/cells/{cell}
func (s *Server) handlePatchCell(w http.ResponseWriter, r *http.Request) {
	var req CellRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	p := req.patch()
	if p.IsEmpty() {
		writeError(w, badRequest("cell update changes nothing"))
		return
	}
	s.update(w, r, func(sc *schema.Schema) (*schema.Schema, error) {
		return sc.PatchCell(chi.URLParam(r, "layer"), chi.URLParam(r, "cell"), p)
	})
}

// update applies fn to the latest snapshot of {name}. The updated schema is
// stored only if it validates, so a rejected update leaves the previous
// snapshot as the latest. Updates to one name are serialized in this
// process; the conditional save turns a race with another process into a
// 409 instead of a lost update.
func (s *Server) update(w http.ResponseWriter, r *http.Request, fn func(*schema.Schema) (*schema.Schema, error)) {
	opts, err := s.requestOptions(r)
	if err != nil {
		writeError(w, err)
		return
	}
	ctx := r.Context()
	name := chi.URLParam(r, "name")

	unlock := s.lockSchema(name)
	defer unlock()

	snap, err := s.store.Latest(ctx, name)
	if err != nil {
		writeError(w, err)
		return
	}
	updated, err := fn(snap.Schema)
	if err != nil {
		writeError(w, err)
		return
	}
	saved, err := s.store.Save(ctx, name, updated,
		store.IfLatest(snap.ID),
		store.WithResolveOptions(opts.ResolveOptions()...))
	if err != nil {
		writeError(w, err)
		return
	}
	l, err := s.runner.Resolve(ctx, saved.Schema, opts)
	if err != nil {
		writeError(w, err)
		return
	}
	s.logger.Info("updated schema", "name", name, "id", saved.ID, "previous", snap.ID)
	w.Header().Set(SnapshotHeader, saved.ID)
	writeLayout(w, http.StatusOK, l)
}

// lockSchema locks the update mutex of name and returns its unlock.
func (s *Server) lockSchema(name string) func() {
	mu, _ := s.locks.LoadOrStore(name, &sync.Mutex{})
	m := mu.(*sync.Mutex)
	m.Lock()
	return m.Unlock
}
