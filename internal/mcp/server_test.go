package mcp

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/me-e6/pengine/internal/knowledge"
	"github.com/me-e6/pengine/internal/reasoning"
)

// mockEmbedder implements embeddings.Embedder for testing.
type mockEmbedder struct{}

func (m *mockEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	result := make([][]float32, len(texts))
	for i := range texts {
		result[i] = []float32{0, 1, 0}
	}
	return result, nil
}
func (m *mockEmbedder) Dimensions() int { return 3 }
func (m *mockEmbedder) Name() string    { return "mock" }

type recorder struct{ saved int }

func (r *recorder) Save(context.Context, *reasoning.Result) (string, error) {
	r.saved++
	return "hist-1", nil
}

func literacyDataset() knowledge.Dataset {
	return knowledge.Dataset{
		ID:           "literacy",
		Title:        "Telangana literacy rate",
		Source:       "Census",
		Domain:       "education",
		Region:       "Telangana",
		MetricColumn: "literacy_rate",
		TimeColumn:   "year",
		Rows: []map[string]any{
			{"year": 2015, "literacy_rate": 66.5},
			{"year": 2019, "literacy_rate": 78.0},
			{"year": 2023, "literacy_rate": 89.5},
		},
	}
}

func newTestServer(t *testing.T, withData bool) (*Server, *recorder) {
	t.Helper()
	store, err := knowledge.NewChromemStore(&mockEmbedder{})
	if err != nil {
		t.Fatalf("NewChromemStore: %v", err)
	}
	if withData {
		ds := literacyDataset()
		if err := ds.Validate(); err != nil {
			t.Fatalf("Validate: %v", err)
		}
		if err := store.AddDatasets(context.Background(), []knowledge.Dataset{ds}); err != nil {
			t.Fatalf("AddDatasets: %v", err)
		}
	}
	retriever := knowledge.NewRetriever(store, knowledge.RetrieverOptions{}, nil)
	rec := &recorder{}
	return NewServer(reasoning.NewEngine(reasoning.Options{Retriever: retriever}), retriever, rec, nil), rec
}

func textOf(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) == 0 {
		t.Fatal("empty tool result")
	}
	tc, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content is %T, want TextContent", result.Content[0])
	}
	return tc.Text
}

func call(args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func TestToolDefinitions(t *testing.T) {
	// Verify tool names and required properties.
	tests := []struct {
		name     string
		tool     mcp.Tool
		wantName string
	}{
		{"reason_query", reasonQueryTool, "reason_query"},
		{"analyze_query", analyzeQueryTool, "analyze_query"},
		{"search_knowledge", searchKnowledgeTool, "search_knowledge"},
		{"suggest_queries", suggestQueriesTool, "suggest_queries"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.tool.Name != tt.wantName {
				t.Errorf("tool name = %q, want %q", tt.tool.Name, tt.wantName)
			}
			if tt.tool.Description == "" {
				t.Error("tool description should not be empty")
			}
		})
	}
}

func TestNewServer(t *testing.T) {
	srv, _ := newTestServer(t, false)
	if srv.mcp == nil {
		t.Fatal("MCP server not initialized")
	}
	if srv.engine == nil || srv.retriever == nil {
		t.Error("dependencies not set")
	}
}

func TestHandleReasonQuery(t *testing.T) {
	srv, rec := newTestServer(t, true)
	ctx := context.Background()

	t.Run("story markdown", func(t *testing.T) {
		result, err := srv.handleReasonQuery(ctx, call(map[string]any{
			"query": "How has literacy changed in Telangana from 2015 to 2023?",
			"save":  true,
		}))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.IsError {
			t.Fatalf("unexpected tool error: %v", result.Content)
		}
		text := textOf(t, result)
		for _, want := range []string{"Output mode: story", "Template: story_five_frame", "Saved as: hist-1", "Reasoning:\n- Intent detected: trend"} {
			if !strings.Contains(text, want) {
				t.Errorf("result missing %q:\n%s", want, text)
			}
		}
		if rec.saved != 1 {
			t.Errorf("saved = %d, want 1", rec.saved)
		}
	})

	t.Run("forced data as json", func(t *testing.T) {
		result, err := srv.handleReasonQuery(ctx, call(map[string]any{
			"query":      "How has literacy changed in Telangana from 2015 to 2023?",
			"force_mode": "data",
			"format":     "json",
		}))
		if err != nil || result.IsError {
			t.Fatalf("err = %v, result = %v", err, result)
		}
		var body struct {
			Result struct {
				OutputMode string `json:"output_mode"`
			} `json:"result"`
			Render struct {
				Template string `json:"template"`
			} `json:"render"`
		}
		if err := json.Unmarshal([]byte(textOf(t, result)), &body); err != nil {
			t.Fatalf("not JSON: %v", err)
		}
		if body.Result.OutputMode != "data" {
			t.Errorf("output_mode = %q, want data", body.Result.OutputMode)
		}
		if body.Render.Template == "" {
			t.Error("missing render template")
		}
	})

	t.Run("invalid request", func(t *testing.T) {
		for _, args := range []map[string]any{
			{},
			{"query": "hi"},
			{"query": "literacy trend", "force_mode": "chart"},
		} {
			result, err := srv.handleReasonQuery(ctx, call(args))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !result.IsError {
				t.Errorf("expected tool error for %v", args)
			}
		}
	})
}

func TestHandleAnalyzeQuery(t *testing.T) {
	srv, _ := newTestServer(t, false)

	result, err := srv.handleAnalyzeQuery(context.Background(), call(map[string]any{
		"query": "Which district has the highest literacy rate?",
	}))
	if err != nil || result.IsError {
		t.Fatalf("err = %v, result = %v", err, result)
	}
	var d map[string]any
	if err := json.Unmarshal([]byte(textOf(t, result)), &d); err != nil {
		t.Fatalf("not JSON: %v", err)
	}
	if d["intent"] != "ranking" {
		t.Errorf("intent = %v, want ranking", d["intent"])
	}
}

func TestHandleSearchKnowledge(t *testing.T) {
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		srv, _ := newTestServer(t, true)
		result, err := srv.handleSearchKnowledge(ctx, call(map[string]any{"query": "literacy", "limit": 5}))
		if err != nil || result.IsError {
			t.Fatalf("err = %v, result = %v", err, result)
		}
		text := textOf(t, result)
		if !strings.Contains(text, "Found 1 dataset(s)") || !strings.Contains(text, "Census") {
			t.Errorf("unexpected result:\n%s", text)
		}
	})

	t.Run("empty store", func(t *testing.T) {
		srv, _ := newTestServer(t, false)
		result, err := srv.handleSearchKnowledge(ctx, call(map[string]any{"query": "anything"}))
		if err != nil || result.IsError {
			t.Fatalf("err = %v, result = %v", err, result)
		}
		if !strings.Contains(textOf(t, result), "pengine ingest") {
			t.Error("expected a hint to ingest datasets")
		}
	})

	t.Run("no retriever", func(t *testing.T) {
		srv := NewServer(reasoning.NewEngine(reasoning.Options{}), nil, nil, nil)
		result, err := srv.handleSearchKnowledge(ctx, call(map[string]any{"query": "anything"}))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !result.IsError {
			t.Error("expected tool error without a retriever")
		}
	})

	t.Run("missing query", func(t *testing.T) {
		srv, _ := newTestServer(t, true)
		result, err := srv.handleSearchKnowledge(ctx, call(map[string]any{}))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !result.IsError {
			t.Error("expected error for missing query")
		}
	})
}

func TestHandleSuggestQueries(t *testing.T) {
	srv, _ := newTestServer(t, false)
	result, err := srv.handleSuggestQueries(context.Background(), call(map[string]any{"domain": "health"}))
	if err != nil || result.IsError {
		t.Fatalf("err = %v, result = %v", err, result)
	}
	if !strings.HasPrefix(textOf(t, result), "- ") {
		t.Errorf("unexpected suggestions: %q", textOf(t, result))
	}
}
