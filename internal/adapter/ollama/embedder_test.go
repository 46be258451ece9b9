package ollama_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cloudsec-orchestrator/internal/adapter/ollama"
)

func TestEncode_BatchKeepsOrder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/embed", r.URL.Path)

		var req struct {
			Model string   `json:"model"`
			Input []string `json:"input"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "all-minilm", req.Model)
		assert.Equal(t, []string{"first", "second"}, req.Input)

		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"embeddings": [][]float32{{0.1, 0.2}, {0.3, 0.4}},
		})
	}))
	defer server.Close()

	e := ollama.NewEmbedder(server.URL, "all-minilm", discardLogger(), nil)

	vectors, err := e.Encode(context.Background(), []string{"first", "second"})
	require.NoError(t, err)
	require.Len(t, vectors, 2)
	assert.Equal(t, []float32{0.1, 0.2}, vectors[0])
	assert.Equal(t, []float32{0.3, 0.4}, vectors[1])
}

func TestEncode_CountMismatchFails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"embeddings": [][]float32{{0.1}},
		})
	}))
	defer server.Close()

	e := ollama.NewEmbedder(server.URL, "all-minilm", discardLogger(), nil)

	_, err := e.Encode(context.Background(), []string{"one", "two"})
	assert.Error(t, err)
}

func TestEncode_EmptyInputSkipsCall(t *testing.T) {
	e := ollama.NewEmbedder("http://unreachable.invalid", "all-minilm", discardLogger(), nil)

	vectors, err := e.Encode(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, vectors)
}

func TestVersion_IsModelName(t *testing.T) {
	e := ollama.NewEmbedder("http://unused", "all-minilm", discardLogger(), nil)
	assert.Equal(t, "all-minilm", e.Version())
}
