package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/medialoom/loom/internal/engine"
	"github.com/medialoom/loom/internal/queue"
	"github.com/medialoom/loom/internal/settings"
	"github.com/medialoom/loom/pkg/models"
)

// fakePipeline lets tests script the resolver the server wraps.
type fakePipeline struct {
	result *models.MediaResult
	err    error
	calls  int
}

func (f *fakePipeline) Resolve(ctx context.Context, url string) (*models.MediaResult, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func (f *fakePipeline) Name() string { return "fake" }

func newTestServer(t *testing.T, p engine.Resolver) (*Server, *queue.Store) {
	t.Helper()
	q := queue.NewStore()
	st := settings.Open(filepath.Join(t.TempDir(), "settings.json"))
	return New("127.0.0.1:0", p, q, st), q
}

func doJSON(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func TestResolve_Success(t *testing.T) {
	p := &fakePipeline{result: &models.MediaResult{
		Success: true,
		Title:   "My Video",
		Formats: []models.MediaFormat{{FormatID: "default", Ext: "mp4", Quality: "HD", URL: "https://cdn/file.mp4"}},
		Origin:  models.OriginExternal,
	}}
	s, q := newTestServer(t, p)

	w := doJSON(t, s, http.MethodPost, "/api/resolve", `{"url":"https://example.com/video"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var result models.MediaResult
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatal(err)
	}
	if result.Title != "My Video" || result.Origin != models.OriginExternal {
		t.Errorf("result = %+v", result)
	}

	items := q.List()
	if len(items) != 1 || items[0].Status != queue.StatusCompleted {
		t.Errorf("queue = %+v, want one completed item", items)
	}
}

func TestResolve_InvalidURL(t *testing.T) {
	p := &fakePipeline{err: engine.NewResolveError(engine.ErrCodeInvalidURL, "Invalid URL format", engine.ErrInvalidURL)}
	s, q := newTestServer(t, p)

	w := doJSON(t, s, http.MethodPost, "/api/resolve", `{"url":"not a url"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Invalid URL format") {
		t.Errorf("body = %s", w.Body.String())
	}

	items := q.List()
	if len(items) != 1 || items[0].Status != queue.StatusFailed {
		t.Errorf("queue = %+v, want one failed item", items)
	}
}

func TestResolve_MissingBody(t *testing.T) {
	p := &fakePipeline{}
	s, _ := newTestServer(t, p)

	w := doJSON(t, s, http.MethodPost, "/api/resolve", `{`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if p.calls != 0 {
		t.Errorf("pipeline called %d times for malformed body", p.calls)
	}
}

func TestResolve_BothStagesFailed(t *testing.T) {
	p := &fakePipeline{err: engine.NewResolveError(engine.ErrCodeFallbackProcess,
		"both external API and internal engine failed: external: timeout; fallback: exit 1: ERROR details", engine.ErrProcessFailed)}
	s, _ := newTestServer(t, p)

	w := doJSON(t, s, http.MethodPost, "/api/resolve", `{"url":"https://example.com/video"}`)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}

	var body struct {
		Success bool   `json:"success"`
		Origin  string `json:"origin"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Success {
		t.Error("success = true on aggregated failure")
	}
	if body.Origin != "internal" {
		t.Errorf("origin = %q, want internal", body.Origin)
	}
	if !strings.Contains(body.Message, "ERROR details") {
		t.Errorf("message missing fallback diagnostics: %q", body.Message)
	}
}

func TestQueueEndpoints(t *testing.T) {
	p := &fakePipeline{result: &models.MediaResult{Success: true, Title: "t"}}
	s, q := newTestServer(t, p)

	doJSON(t, s, http.MethodPost, "/api/resolve", `{"url":"https://example.com/a"}`)
	doJSON(t, s, http.MethodPost, "/api/resolve", `{"url":"https://example.com/b"}`)

	w := doJSON(t, s, http.MethodGet, "/api/queue", "")
	if w.Code != http.StatusOK {
		t.Fatalf("queue list status = %d", w.Code)
	}
	var listing struct {
		Items []queue.Item `json:"items"`
	}
	json.Unmarshal(w.Body.Bytes(), &listing)
	if len(listing.Items) != 2 {
		t.Fatalf("queue items = %d, want 2", len(listing.Items))
	}

	w = doJSON(t, s, http.MethodDelete, "/api/queue/"+listing.Items[0].ID, "")
	if w.Code != http.StatusNoContent {
		t.Errorf("remove status = %d, want 204", w.Code)
	}

	w = doJSON(t, s, http.MethodDelete, "/api/queue/does-not-exist", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("remove missing status = %d, want 404", w.Code)
	}

	w = doJSON(t, s, http.MethodDelete, "/api/queue", "")
	if w.Code != http.StatusOK {
		t.Errorf("clear status = %d", w.Code)
	}
	if q.Len() != 0 {
		t.Errorf("queue length after clear = %d, want 0", q.Len())
	}
}

func TestSettingsEndpoints(t *testing.T) {
	s, _ := newTestServer(t, &fakePipeline{})

	w := doJSON(t, s, http.MethodGet, "/api/settings", "")
	if w.Code != http.StatusOK {
		t.Fatalf("get settings status = %d", w.Code)
	}
	var state settings.State
	json.Unmarshal(w.Body.Bytes(), &state)
	if state.Theme != "dark" {
		t.Errorf("default theme = %q, want dark", state.Theme)
	}

	w = doJSON(t, s, http.MethodPut, "/api/settings", `{"theme":"light","language":"vi","reduced_motion":true,"quick_paste":false}`)
	if w.Code != http.StatusOK {
		t.Fatalf("put settings status = %d: %s", w.Code, w.Body.String())
	}

	w = doJSON(t, s, http.MethodGet, "/api/settings", "")
	json.Unmarshal(w.Body.Bytes(), &state)
	if state.Theme != "light" || state.Language != "vi" {
		t.Errorf("settings after update = %+v", state)
	}

	w = doJSON(t, s, http.MethodPut, "/api/settings", `{"theme":"neon","language":"en"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("invalid settings status = %d, want 400", w.Code)
	}
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t, &fakePipeline{})
	w := doJSON(t, s, http.MethodGet, "/api/health", "")
	if w.Code != http.StatusOK {
		t.Errorf("health status = %d", w.Code)
	}
}
