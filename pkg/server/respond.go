package server

import (
	"fmt"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	json "github.com/goccy/go-json"

	glerr "github.com/matzehuels/gridlookout/pkg/errors"
	pkgio "github.com/matzehuels/gridlookout/pkg/io"
	"github.com/matzehuels/gridlookout/pkg/layout"
	"github.com/matzehuels/gridlookout/pkg/observability"
	"github.com/matzehuels/gridlookout/pkg/pipeline"
	"github.com/matzehuels/gridlookout/pkg/schema"
)

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Code    string  `json:"code"`
	Message string  `json:"message"`
	Issues  []Issue `json:"issues,omitempty"`
}

// Issue is one located problem.
type Issue struct {
	Code    string `json:"code"`
	Layer   string `json:"layer,omitempty"`
	Cell    string `json:"cell,omitempty"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

func issuesOf(err error) []Issue {
	items := glerr.Flatten(err)
	if len(items) == 0 {
		return nil
	}
	out := make([]Issue, len(items))
	for i, e := range items {
		out[i] = Issue{
			Code:    string(e.Code),
			Layer:   e.Layer,
			Cell:    e.Cell,
			Field:   e.Field,
			Message: e.Message,
		}
	}
	return out
}

// statusFor maps an error code to an HTTP status.
func statusFor(code glerr.Code) int {
	switch code {
	case glerr.ErrCodeSchemaStructure, glerr.ErrCodeViewport, glerr.ErrCodeCellBounds:
		return http.StatusUnprocessableEntity
	case glerr.ErrCodeInvalidInput, glerr.ErrCodeInvalidFormat:
		return http.StatusBadRequest
	case glerr.ErrCodeNotFound:
		return http.StatusNotFound
	case glerr.ErrCodeConflict:
		return http.StatusConflict
	case glerr.ErrCodeUnsupported:
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	code := glerr.GetCode(err)
	status := statusFor(code)
	resp := ErrorResponse{Code: string(code), Message: glerr.UserMessage(err)}
	if code == "" {
		resp.Code = string(glerr.ErrCodeInternal)
	}
	if status == http.StatusInternalServerError {
		// Internal details stay in the log.
		resp.Message = "internal error"
	} else if issues := issuesOf(err); len(issues) > 0 {
		resp.Issues = issues
		if len(issues) > 1 {
			resp.Message = fmt.Sprintf("%d problems found", len(issues))
		}
	}
	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "encode response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(append(data, '\n'))
}

func writeLayout(w http.ResponseWriter, status int, l layout.Layout) {
	data, err := pkgio.MarshalLayout(l)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(append(data, '\n'))
}

func notFound(format string, args ...any) error {
	return glerr.New(glerr.ErrCodeNotFound, format, args...)
}

func badRequest(format string, args ...any) error {
	return glerr.New(glerr.ErrCodeInvalidInput, format, args...)
}

// bodyFormat picks the schema codec from the request's Content-Type.
func bodyFormat(r *http.Request) pkgio.Format {
	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mt {
	case "application/yaml", "application/x-yaml", "text/yaml", "text/x-yaml":
		return pkgio.FormatYAML
	case "application/toml", "text/toml":
		return pkgio.FormatTOML
	default:
		return pkgio.FormatJSON
	}
}

func readSchema(w http.ResponseWriter, r *http.Request) (*schema.Schema, error) {
	body := http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	return pkgio.ReadSchema(body, bodyFormat(r))
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	body := http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		return glerr.Wrap(glerr.ErrCodeInvalidFormat, err, "decode request body")
	}
	return nil
}

// requestOptions applies query parameters to the server defaults:
// units=px|percent, snap, tolerance, layers (comma separated), outlines,
// title and scale.
func (s *Server) requestOptions(r *http.Request) (pipeline.Options, error) {
	opts := s.base
	q := r.URL.Query()

	switch u := q.Get("units"); u {
	case "":
	case "px":
		opts.Units = string(layout.UnitsViewport)
	case "percent", "%":
		opts.Units = string(layout.UnitsPercent)
	default:
		return opts, badRequest("invalid units %q (must be px or percent)", u)
	}

	var err error
	if v := q.Get("snap"); v != "" {
		if opts.PixelSnap, err = strconv.ParseBool(v); err != nil {
			return opts, badRequest("invalid snap %q", v)
		}
	}
	if v := q.Get("outlines"); v != "" {
		if opts.Outlines, err = strconv.ParseBool(v); err != nil {
			return opts, badRequest("invalid outlines %q", v)
		}
	}
	if v := q.Get("tolerance"); v != "" {
		eps, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return opts, badRequest("invalid tolerance %q", v)
		}
		opts.Tolerance = &eps
	}
	if v := q.Get("scale"); v != "" {
		if opts.Scale, err = strconv.ParseFloat(v, 64); err != nil {
			return opts, badRequest("invalid scale %q", v)
		}
	}
	if v := q.Get("layers"); v != "" {
		opts.Layers = strings.Split(v, ",")
	}
	if v := q.Get("title"); v != "" {
		opts.Title = v
	}
	if err := opts.ValidateForResolve(); err != nil {
		return opts, err
	}
	return opts, nil
}

var contentTypes = map[string]string{
	pipeline.FormatSVG:  "image/svg+xml",
	pipeline.FormatHTML: "text/html; charset=utf-8",
	pipeline.FormatJSON: "application/json",
	pipeline.FormatPNG:  "image/png",
	pipeline.FormatPDF:  "application/pdf",
}

// observe logs every request and reports it to the HTTP hooks.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		hooks := observability.HTTP()
		hooks.OnRequest(ctx, r.Method, r.URL.Path)

		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		d := time.Since(start)

		route := r.URL.Path
		if rctx := chi.RouteContext(ctx); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		hooks.OnResponse(ctx, r.Method, route, status, d)
		s.logger.Info("request",
			"method", r.Method,
			"route", route,
			"status", status,
			"duration", d,
			"request_id", middleware.GetReqID(ctx))
	})
}
