package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/", "sk-test", WithHTTPClient(srv.Client()))
}

func TestCompleter_Complete(t *testing.T) {
	var got ChatCompletionRequest
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Write([]byte(`{"choices":[{"index":0,"message":{"role":"assistant","content":"standalone?"}}]}`))
	})

	out, err := NewCompleter(client, "gpt-test", 0).Complete(context.Background(), "rewrite this")
	require.NoError(t, err)

	assert.Equal(t, "standalone?", out)
	assert.Equal(t, "gpt-test", got.Model)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "user", got.Messages[0].Role)
	assert.Equal(t, "rewrite this", got.Messages[0].Content)
	require.NotNil(t, got.Temperature, "zero temperature must still be sent")
	assert.Equal(t, 0.0, *got.Temperature)
}

func TestCompleter_NonOKStatus(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"bad key"}`))
	})

	_, err := NewCompleter(client, "m", 0.7).Complete(context.Background(), "p")
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Contains(t, apiErr.Body, "bad key")
}

func TestCompleter_EmptyChoices(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	})

	_, err := NewCompleter(client, "m", 0.7).Complete(context.Background(), "p")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no choices")
}

func TestCompleter_ContextCancelled(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewCompleter(client, "m", 0.7).Complete(ctx, "p")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEmbedder_OrdersByIndex(t *testing.T) {
	var got EmbeddingRequest
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/embeddings", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Write([]byte(`{"data":[{"index":1,"embedding":[0,1]},{"index":0,"embedding":[1,0]}]}`))
	})

	embeddings, err := NewEmbedder(client, "embed-test", 0).EmbedBatch(context.Background(), []string{"a", "b"})
	require.NoError(t, err)

	assert.Equal(t, [][]float32{{1, 0}, {0, 1}}, embeddings)
	assert.Equal(t, "embed-test", got.Model)
	assert.Nil(t, got.Dimensions)
}

func TestEmbedder_SendsDimensions(t *testing.T) {
	var got EmbeddingRequest
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"data":[{"index":0,"embedding":[0.5,0.5,0.5]}]}`))
	})

	vec, err := NewEmbedder(client, "embed-test", 3).Embed(context.Background(), "hello")
	require.NoError(t, err)

	assert.Len(t, vec, 3)
	require.NotNil(t, got.Dimensions)
	assert.Equal(t, 3, *got.Dimensions)
}

func TestEmbedder_CountMismatch(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[{"index":0,"embedding":[1]}]}`))
	})

	_, err := NewEmbedder(client, "m", 0).EmbedBatch(context.Background(), []string{"a", "b"})
	require.Error(t, err)
}

func TestGenerateEmbeddings_NoTexts(t *testing.T) {
	client := NewClient("", "")
	_, err := client.GenerateEmbeddings(context.Background(), "m", nil, nil)
	require.Error(t, err)
}
