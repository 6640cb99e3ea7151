package server

import (
	"net/http"
	"strconv"

	"github.com/matzehuels/gridlookout/pkg/buildinfo"
	"github.com/matzehuels/gridlookout/pkg/layout"
	"github.com/matzehuels/gridlookout/pkg/pipeline"
)

// WarningsHeader carries the number of unresolved content references in a
// rendered artifact.
const WarningsHeader = "X-Gridlookout-Content-Warnings"

// LintResponse is the body of POST /v1/lint.
type LintResponse struct {
	Valid    bool      `json:"valid"`
	Issues   []Issue   `json:"issues"`
	Findings []Finding `json:"findings"`
}

// Finding is the wire form of a lint finding.
type Finding struct {
	Kind    string   `json:"kind"`
	Layer   string   `json:"layer"`
	Cells   []string `json:"cells"`
	Message string   `json:"message"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleVersion(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, buildinfo.Current())
}

// handleResolve resolves the posted schema.
// POST /v1/resolve
func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
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
	l, err := s.runner.Resolve(r.Context(), sc, opts)
	if err != nil {
		writeError(w, err)
		return
	}
	writeLayout(w, http.StatusOK, l)
}

// handleRender resolves the posted schema and renders one artifact.
// POST /v1/render?format=svg
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	opts, err := s.requestOptions(r)
	if err != nil {
		writeError(w, err)
		return
	}
	format := r.URL.Query().Get("format")
	if format == "" {
		format = pipeline.FormatSVG
	}
	opts.Formats = []string{format}
	if err := opts.ValidateForRender(); err != nil {
		writeError(w, err)
		return
	}

	sc, err := readSchema(w, r)
	if err != nil {
		writeError(w, err)
		return
	}
	l, err := s.runner.Resolve(r.Context(), sc, opts)
	if err != nil {
		writeError(w, err)
		return
	}
	s.writeArtifact(w, r, l, opts)
}

func (s *Server) writeArtifact(w http.ResponseWriter, r *http.Request, l layout.Layout, opts pipeline.Options) {
	artifacts, err := s.runner.Render(r.Context(), l, opts)
	if err != nil {
		writeError(w, err)
		return
	}
	format := opts.Formats[0]
	warnings := pipeline.MissingContent(l, opts)
	for _, warn := range warnings {
		s.logger.Warn("unresolved content", "layer", warn.Layer, "cell", warn.Cell, "ref", warn.Ref)
	}

	w.Header().Set("Content-Type", contentTypes[format])
	w.Header().Set(WarningsHeader, strconv.Itoa(len(warnings)))
	w.WriteHeader(http.StatusOK)
	w.Write(artifacts[format])
}

// handleLint validates the posted schema and reports advisory findings.
// It answers 200 even for invalid schemas.
// POST /v1/lint
func (s *Server) handleLint(w http.ResponseWriter, r *http.Request) {
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

	resp := LintResponse{Issues: []Issue{}, Findings: []Finding{}}
	if verr := layout.ValidateWith(sc, opts.ResolveOptions()...); verr != nil {
		resp.Issues = issuesOf(verr)
	}
	resp.Valid = len(resp.Issues) == 0
	for _, f := range layout.Lint(sc) {
		resp.Findings = append(resp.Findings, Finding{
			Kind:    string(f.Kind),
			Layer:   f.Layer,
			Cells:   f.Cells,
			Message: f.Message,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}
