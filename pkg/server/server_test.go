package server

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	json "github.com/goccy/go-json"

	"github.com/matzehuels/gridlookout/pkg/cache"
	"github.com/matzehuels/gridlookout/pkg/content"
	pkgio "github.com/matzehuels/gridlookout/pkg/io"
	"github.com/matzehuels/gridlookout/pkg/layout"
	"github.com/matzehuels/gridlookout/pkg/observability"
	"github.com/matzehuels/gridlookout/pkg/pipeline"
	"github.com/matzehuels/gridlookout/pkg/store"
)

const mainLayerJSON = `{"layers":[{"name":"MainLayer","viewport":{"width":600,"height":800},"cells":{
  "header":{"startX":0,"startY":0,"width":1,"height":0.1,"content":"Header"},
  "sidebar":{"startX":0,"startY":0.1,"width":0.2,"height":0.9,"content":"Sidebar"},
  "main":{"startX":0.2,"startY":0.1,"width":0.8,"height":0.9,"content":"Main"}}}]}`

const overflowJSON = `{"layers":[{"name":"L","viewport":{"width":100,"height":100},"cells":{
  "c":{"startX":0.5,"startY":0,"width":0.6,"height":1}}}]}`

func newTestServer(t *testing.T, opts ...Option) *Server {
	t.Helper()
	runner := pipeline.NewRunner(cache.NewMemoryCache(), nil, nil)
	s, err := New(runner, opts...)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return s
}

func do(t *testing.T, s *Server, method, target, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func decodeLayout(t *testing.T, rec *httptest.ResponseRecorder) layout.Layout {
	t.Helper()
	l, err := pkgio.UnmarshalLayout(rec.Body.Bytes())
	if err != nil {
		t.Fatalf("decode layout: %v\n%s", err, rec.Body.String())
	}
	return l
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error: %v\n%s", err, rec.Body.String())
	}
	return resp
}

func TestResolve(t *testing.T) {
	s := newTestServer(t)
	rec := do(t, s, http.MethodPost, "/v1/resolve", mainLayerJSON)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	l := decodeLayout(t, rec)
	want := map[string]layout.Rect{
		"header":  {X: 0, Y: 0, Width: 600, Height: 80},
		"sidebar": {X: 0, Y: 80, Width: 120, Height: 720},
		"main":    {X: 120, Y: 80, Width: 480, Height: 720},
	}
	for cell, r := range want {
		if got, _ := l.Rect("MainLayer", cell); got != r {
			t.Errorf("%s = %+v, want %+v", cell, got, r)
		}
	}
}

func TestResolvePercentYAML(t *testing.T) {
	s := newTestServer(t)
	body := "layers:\n  - name: L\n    viewport: {width: 333, height: 999}\n    cells:\n      c: {startX: 0.25, startY: 0.5, width: 0.5, height: 0.25}\n"
	rec := do(t, s, http.MethodPost, "/v1/resolve?units=percent", body, "Content-Type", "application/yaml")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	l := decodeLayout(t, rec)
	if l.Units != layout.UnitsPercent {
		t.Errorf("Units = %q", l.Units)
	}
	if got, _ := l.Rect("L", "c"); got != (layout.Rect{X: 25, Y: 50, Width: 50, Height: 25}) {
		t.Errorf("c = %+v", got)
	}
}

func TestResolveErrors(t *testing.T) {
	tests := []struct {
		name       string
		target     string
		body       string
		wantStatus int
		wantCode   string
	}{
		{"overflow", "/v1/resolve", overflowJSON, http.StatusUnprocessableEntity, "CELL_BOUNDS"},
		{"no layers", "/v1/resolve", `{"layers":[]}`, http.StatusUnprocessableEntity, "SCHEMA_STRUCTURE"},
		{"bad viewport", "/v1/resolve", `{"layers":[{"name":"A","viewport":{"width":0,"height":10},"cells":{}}]}`, http.StatusUnprocessableEntity, "VIEWPORT"},
		{"malformed", "/v1/resolve", `{"layers":`, http.StatusBadRequest, "INVALID_FORMAT"},
		{"string viewport", "/v1/resolve", `{"layers":[{"name":"A","viewport":{"width":"600","height":10},"cells":{}}]}`, http.StatusUnprocessableEntity, "VIEWPORT"},
		{"trailing data", "/v1/resolve", mainLayerJSON + `]`, http.StatusBadRequest, "INVALID_FORMAT"},
		{"bad units", "/v1/resolve?units=em", mainLayerJSON, http.StatusBadRequest, "INVALID_INPUT"},
		{"bad snap", "/v1/resolve?snap=maybe", mainLayerJSON, http.StatusBadRequest, "INVALID_INPUT"},
	}

	s := newTestServer(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, http.MethodPost, tt.target, tt.body)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if resp := decodeError(t, rec); resp.Code != tt.wantCode {
				t.Errorf("code = %q, want %q", resp.Code, tt.wantCode)
			}
		})
	}
}

func TestResolveReportsEveryIssue(t *testing.T) {
	body := `{"layers":[
	  {"name":"A","viewport":{"width":10,"height":10},"cells":{}},
	  {"name":"A","viewport":{"width":-1,"height":10},"cells":{"x":{"startX":0.5,"startY":0,"width":0.6,"height":1}}}]}`
	rec := do(t, newTestServer(t), http.MethodPost, "/v1/resolve", body)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d", rec.Code)
	}
	resp := decodeError(t, rec)
	if len(resp.Issues) != 3 {
		t.Fatalf("issues = %+v, want 3", resp.Issues)
	}
	codes := map[string]bool{}
	for _, is := range resp.Issues {
		codes[is.Code] = true
	}
	for _, c := range []string{"SCHEMA_STRUCTURE", "VIEWPORT", "CELL_BOUNDS"} {
		if !codes[c] {
			t.Errorf("missing issue %s", c)
		}
	}
	if resp.Issues[2].Cell != "x" || resp.Issues[2].Field != "startX+width" {
		t.Errorf("bounds issue = %+v", resp.Issues[2])
	}
}

func TestRender(t *testing.T) {
	reg := content.Map{"Header": content.Text("Welcome")}
	s := newTestServer(t, WithContent(reg))

	tests := []struct {
		format      string
		contentType string
		want        string
	}{
		{"svg", "image/svg+xml", `data-cell="main"`},
		{"html", "text/html; charset=utf-8", "shadowrootmode"},
		{"json", "application/json", `"sidebar"`},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			rec := do(t, s, http.MethodPost, "/v1/render?format="+tt.format, mainLayerJSON)
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
			}
			if ct := rec.Header().Get("Content-Type"); ct != tt.contentType {
				t.Errorf("Content-Type = %q", ct)
			}
			if got := rec.Header().Get(WarningsHeader); got != "2" {
				t.Errorf("warnings = %q, want 2 (Sidebar, Main)", got)
			}
			if !strings.Contains(rec.Body.String(), tt.want) {
				t.Errorf("body missing %q", tt.want)
			}
		})
	}

	rec := do(t, s, http.MethodPost, "/v1/render?format=gif", mainLayerJSON)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown format status = %d", rec.Code)
	}
}

func TestLint(t *testing.T) {
	body := `{"layers":[{"name":"L","viewport":{"width":100,"height":100},"cells":{
	  "a":{"startX":0,"startY":0,"width":0.6,"height":1,"content":"A"},
	  "b":{"startX":0.5,"startY":0,"width":0.6,"height":1,"content":"B"}}}]}`
	rec := do(t, newTestServer(t), http.MethodPost, "/v1/lint", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var resp LintResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Valid {
		t.Error("overflowing schema reported valid")
	}
	if len(resp.Issues) != 1 || resp.Issues[0].Code != "CELL_BOUNDS" {
		t.Errorf("issues = %+v", resp.Issues)
	}
	if len(resp.Findings) != 1 || resp.Findings[0].Kind != "overlap" {
		t.Errorf("findings = %+v", resp.Findings)
	}
}

func TestSchemaLifecycle(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodPut, "/v1/schemas/home", mainLayerJSON)
	if rec.Code != http.StatusCreated {
		t.Fatalf("put status = %d: %s", rec.Code, rec.Body.String())
	}
	var info SnapshotInfo
	if err := json.Unmarshal(rec.Body.Bytes(), &info); err != nil {
		t.Fatal(err)
	}
	if info.ID == "" || info.Name != "home" || len(info.Layers) != 1 {
		t.Errorf("snapshot = %+v", info)
	}

	rec = do(t, s, http.MethodGet, "/v1/schemas/home?format=yaml", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "MainLayer") {
		t.Fatalf("get status = %d: %s", rec.Code, rec.Body.String())
	}
	if rec.Header().Get(SnapshotHeader) != info.ID {
		t.Error("snapshot header not set")
	}

	rec = do(t, s, http.MethodPatch, "/v1/schemas/home/layers/MainLayer/viewport", `{"width":1200,"height":800}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("viewport status = %d: %s", rec.Code, rec.Body.String())
	}
	l := decodeLayout(t, rec)
	if got, _ := l.Rect("MainLayer", "main"); got != (layout.Rect{X: 240, Y: 80, Width: 960, Height: 720}) {
		t.Errorf("main after resize = %+v", got)
	}

	rec = do(t, s, http.MethodPatch, "/v1/schemas/home/layers/MainLayer/cells/sidebar", `{"width":0.1}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("cell status = %d: %s", rec.Code, rec.Body.String())
	}
	l = decodeLayout(t, rec)
	if got, _ := l.Rect("MainLayer", "sidebar"); got.Width != 120 {
		t.Errorf("sidebar width = %v, want 120", got.Width)
	}

	rec = do(t, s, http.MethodGet, "/v1/schemas/home/snapshots", "")
	var history []SnapshotInfo
	if err := json.Unmarshal(rec.Body.Bytes(), &history); err != nil {
		t.Fatal(err)
	}
	if len(history) != 3 {
		t.Errorf("snapshots = %d, want 3", len(history))
	}
}

func TestSchemaRejectedUpdateKeepsLatest(t *testing.T) {
	s := newTestServer(t)
	do(t, s, http.MethodPut, "/v1/schemas/home", mainLayerJSON)

	rec := do(t, s, http.MethodPatch, "/v1/schemas/home/layers/MainLayer/cells/main", `{"startX":0.5}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
	if resp := decodeError(t, rec); resp.Code != "CELL_BOUNDS" {
		t.Errorf("code = %q", resp.Code)
	}

	rec = do(t, s, http.MethodGet, "/v1/schemas/home/layout", "")
	l := decodeLayout(t, rec)
	if got, _ := l.Rect("MainLayer", "main"); got.X != 120 {
		t.Errorf("latest layout changed: main = %+v", got)
	}
}

func TestSchemaConcurrentCellUpdates(t *testing.T) {
	const n = 20
	cells := make([]string, n)
	for i := range cells {
		cells[i] = fmt.Sprintf(`"c%d":{"startX":%g,"startY":0,"width":0.05,"height":0.5}`, i, float64(i)*0.05)
	}
	body := `{"layers":[{"name":"L","viewport":{"width":1000,"height":100},"cells":{` + strings.Join(cells, ",") + `}}]}`

	s := newTestServer(t)
	if rec := do(t, s, http.MethodPut, "/v1/schemas/grid", body); rec.Code != http.StatusCreated {
		t.Fatalf("put status = %d: %s", rec.Code, rec.Body.String())
	}

	start := make(chan struct{})
	codes := make([]int, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			req := httptest.NewRequest(http.MethodPatch, fmt.Sprintf("/v1/schemas/grid/layers/L/cells/c%d", i), strings.NewReader(`{"height":1}`))
			rec := httptest.NewRecorder()
			s.ServeHTTP(rec, req)
			codes[i] = rec.Code
		}(i)
	}
	close(start)
	wg.Wait()

	for i, code := range codes {
		if code != http.StatusOK {
			t.Errorf("patch c%d status = %d", i, code)
		}
	}

	l := decodeLayout(t, do(t, s, http.MethodGet, "/v1/schemas/grid/layout", ""))
	for i := 0; i < n; i++ {
		if r, _ := l.Rect("L", fmt.Sprintf("c%d", i)); r.Height != 100 {
			t.Errorf("c%d height = %v, want 100", i, r.Height)
		}
	}

	var history []SnapshotInfo
	rec := do(t, s, http.MethodGet, "/v1/schemas/grid/snapshots?limit=100", "")
	if err := json.Unmarshal(rec.Body.Bytes(), &history); err != nil {
		t.Fatal(err)
	}
	if len(history) != n+1 {
		t.Errorf("snapshots = %d, want %d", len(history), n+1)
	}
}

// staleStore reports an outdated snapshot as the latest one, as a second
// server writing to the same database would see it.
type staleStore struct {
	store.Store
	stale store.Snapshot
}

func (s *staleStore) Latest(context.Context, string) (store.Snapshot, error) { return s.stale, nil }

func TestSchemaUpdateConflict(t *testing.T) {
	ctx := context.Background()
	sch, err := pkgio.UnmarshalSchema([]byte(mainLayerJSON), pkgio.FormatJSON)
	if err != nil {
		t.Fatal(err)
	}
	mem := store.NewMemoryStore()
	first, err := mem.Save(ctx, "home", sch)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := mem.Save(ctx, "home", sch); err != nil {
		t.Fatal(err)
	}

	s := newTestServer(t, WithStore(&staleStore{Store: mem, stale: first}))
	rec := do(t, s, http.MethodPatch, "/v1/schemas/home/layers/MainLayer/cells/sidebar", `{"width":0.1}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409: %s", rec.Code, rec.Body.String())
	}
	if resp := decodeError(t, rec); resp.Code != "CONFLICT" {
		t.Errorf("code = %q", resp.Code)
	}
	if snaps, _ := mem.List(ctx, "home", 0); len(snaps) != 2 {
		t.Errorf("snapshots = %d, want 2", len(snaps))
	}
}

func TestSchemaNotFound(t *testing.T) {
	s := newTestServer(t)
	tests := []struct {
		method, target, body string
	}{
		{http.MethodGet, "/v1/schemas/nope", ""},
		{http.MethodGet, "/v1/schemas/nope/layout", ""},
		{http.MethodPatch, "/v1/schemas/nope/layers/L/viewport", `{"width":1,"height":1}`},
		{http.MethodGet, "/v2/anything", ""},
	}
	for _, tt := range tests {
		rec := do(t, s, tt.method, tt.target, tt.body)
		if rec.Code != http.StatusNotFound {
			t.Errorf("%s %s: status = %d, want 404", tt.method, tt.target, rec.Code)
		}
	}

	do(t, s, http.MethodPut, "/v1/schemas/home", mainLayerJSON)
	rec := do(t, s, http.MethodPatch, "/v1/schemas/home/layers/Missing/viewport", `{"width":1,"height":1}`)
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown layer: status = %d, want 404", rec.Code)
	}
}

type recordingHTTPHooks struct {
	observability.NoopHTTPHooks
	routes   []string
	statuses []int
}

func (h *recordingHTTPHooks) OnResponse(_ context.Context, _, route string, status int, _ time.Duration) {
	h.routes = append(h.routes, route)
	h.statuses = append(h.statuses, status)
}

func TestHTTPHooks(t *testing.T) {
	hooks := &recordingHTTPHooks{}
	observability.SetHTTPHooks(hooks)
	defer observability.Reset()

	s := newTestServer(t)
	do(t, s, http.MethodGet, "/healthz", "")
	do(t, s, http.MethodGet, "/v1/schemas/x", "")

	if len(hooks.routes) != 2 {
		t.Fatalf("responses = %d, want 2", len(hooks.routes))
	}
	if !strings.HasPrefix(hooks.routes[1], "/v1/schemas/{name}") {
		t.Errorf("route = %q, want pattern", hooks.routes[1])
	}
	if hooks.statuses[0] != http.StatusOK || hooks.statuses[1] != http.StatusNotFound {
		t.Errorf("statuses = %v", hooks.statuses)
	}
}

func TestVersion(t *testing.T) {
	rec := do(t, newTestServer(t), http.MethodGet, "/version", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"version"`) {
		t.Errorf("version: %d %s", rec.Code, rec.Body.String())
	}
}
