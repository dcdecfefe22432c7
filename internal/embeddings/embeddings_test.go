package embeddings

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashingEmbedderDeterministic(t *testing.T) {
	e := NewHashingEmbedder(64)
	a, err := e.Embed(context.Background(), []string{"literacy rate Telangana", "literacy rate telangana"})
	require.NoError(t, err)
	require.Len(t, a, 2)
	assert.Equal(t, a[0], a[1], "case must not matter")

	var norm float64
	for _, v := range a[0] {
		norm += float64(v * v)
	}
	assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-5)
}

func TestHashingEmbedderEmptyText(t *testing.T) {
	vecs, err := NewHashingEmbedder(8).Embed(context.Background(), []string{"   "})
	require.NoError(t, err)
	assert.Equal(t, float32(1), vecs[0][0])
}

func TestToChromemFunc(t *testing.T) {
	f := ToChromemFunc(NewHashingEmbedder(16))
	vec, err := f(context.Background(), "school enrollment")
	require.NoError(t, err)
	assert.Len(t, vec, 16)
}

func TestOllamaEmbedderBatches(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, "/api/embed", r.URL.Path)
		var req struct {
			Model string   `json:"model"`
			Input []string `json:"input"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "nomic-embed-text", req.Model)
		var resp struct {
			Embeddings [][]float32 `json:"embeddings"`
		}
		for range req.Input {
			resp.Embeddings = append(resp.Embeddings, []float32{1, 0})
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	texts := make([]string, maxBatchSize+1)
	for i := range texts {
		texts[i] = "t"
	}
	vecs, err := NewOllamaEmbedder("nomic-embed-text", 2, srv.URL).Embed(context.Background(), texts)
	require.NoError(t, err)
	assert.Len(t, vecs, len(texts))
	assert.Equal(t, 2, calls)
}

func TestOllamaEmbedderShortReply(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"embeddings": [[1, 0]]}`))
	}))
	defer srv.Close()

	_, err := NewOllamaEmbedder("m", 2, srv.URL).Embed(context.Background(), []string{"a", "b"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "got 1 embeddings for 2 texts")
}

func TestToChromemFuncWrapsErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := ToChromemFunc(NewOllamaEmbedder("m", 2, srv.URL))(context.Background(), "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ollama/m")
	assert.Contains(t, err.Error(), "status 500")
}

func TestNewEmbedder(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	_, err := New("openai", "text-embedding-3-small")
	assert.Error(t, err)

	e, err := New("hashing", "")
	require.NoError(t, err)
	assert.Equal(t, "hashing", e.Name())

	_, err = New("google", "x")
	assert.Error(t, err)
}
