package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/me-e6/pengine/internal/db"
	"github.com/me-e6/pengine/internal/history"
	"github.com/me-e6/pengine/internal/knowledge"
	"github.com/me-e6/pengine/internal/reasoning"
)

type staticEmbedder struct{}

func (staticEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 0, 0, 0}
	}
	return out, nil
}

func (staticEmbedder) Dimensions() int { return 4 }
func (staticEmbedder) Name() string    { return "static" }

func newTestServer(t *testing.T, cfg Config) (*Server, *history.Store) {
	t.Helper()
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	store, err := knowledge.NewChromemStore(staticEmbedder{})
	if err != nil {
		t.Fatalf("NewChromemStore: %v", err)
	}
	retriever := knowledge.NewRetriever(store, knowledge.RetrieverOptions{}, nil)
	hist := history.NewStore(database)

	srv := New(cfg, Deps{
		Engine:    reasoning.NewEngine(reasoning.Options{Retriever: retriever}),
		History:   hist,
		Store:     store,
		Retriever: retriever,
	}, nil)
	return srv, hist
}

func TestHealthCheck(t *testing.T) {
	srv, _ := newTestServer(t, Config{Port: 0})

	req := httptest.NewRequest("GET", "/healthz", nil)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("expected status 'ok', got %v", body["status"])
	}
	if body["datasets"] != float64(0) {
		t.Errorf("expected 0 datasets, got %v", body["datasets"])
	}
}

func TestCORSHeaders(t *testing.T) {
	srv, _ := newTestServer(t, Config{Port: 0, AllowedOrigins: []string{"*"}})

	req := httptest.NewRequest("OPTIONS", "/healthz", nil)
	req.Header.Set("Origin", "http://example.com")
	req.Header.Set("Access-Control-Request-Method", "GET")
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	if w.Header().Get("Access-Control-Allow-Origin") == "" {
		t.Error("expected CORS Allow-Origin header")
	}
}

func TestCORSRejectsUnlistedOrigin(t *testing.T) {
	srv, _ := newTestServer(t, Config{AllowedOrigins: []string{"https://news.example.org"}})

	req := httptest.NewRequest("OPTIONS", "/healthz", nil)
	req.Header.Set("Origin", "http://evil.example.com")
	req.Header.Set("Access-Control-Request-Method", "GET")
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("unexpected Allow-Origin %q", got)
	}
}

func TestFeatureRoutesMounted(t *testing.T) {
	srv, hist := newTestServer(t, Config{})
	h := srv.Router()

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("POST", "/api/knowledge/datasets",
		strings.NewReader(`{"id":"lit","source":"Census","domain":"education","rows":[{"year":2015,"rate":60},{"year":2019,"rate":70},{"year":2023,"rate":80}]}`)))
	if w.Code != http.StatusCreated {
		t.Fatalf("add dataset = %d: %s", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("POST", "/api/query",
		strings.NewReader(`{"query":"How has the literacy rate changed since 2015?","save":true}`)))
	if w.Code != http.StatusOK {
		t.Fatalf("query = %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		ID     string `json:"id"`
		Render struct {
			Template string `json:"template"`
		} `json:"render"`
		Result struct {
			ContextFound bool `json:"context_found"`
		} `json:"result"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !resp.Result.ContextFound {
		t.Error("expected context to be found")
	}
	if resp.Render.Template == "" {
		t.Error("expected a render spec")
	}
	if resp.ID == "" {
		t.Fatal("expected the answer to be saved")
	}
	if _, err := hist.Get(context.Background(), resp.ID); err != nil {
		t.Errorf("saved entry: %v", err)
	}

	for _, path := range []string{"/api/history", "/api/knowledge/stats", "/api/query/suggestions"} {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest("GET", path, nil))
		if w.Code != http.StatusOK {
			t.Errorf("GET %s = %d", path, w.Code)
		}
	}
}
