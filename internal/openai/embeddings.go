package openai

import (
	"context"
	"fmt"
)

type EmbeddingRequest struct {
	Model      string   `json:"model"`
	Input      []string `json:"input"`
	Dimensions *int     `json:"dimensions,omitempty"`
}

type EmbeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
	Model string `json:"model"`
	Usage struct {
		PromptTokens int `json:"prompt_tokens"`
		TotalTokens  int `json:"total_tokens"`
	} `json:"usage"`
}

func (c *Client) GenerateEmbeddings(ctx context.Context, model string, texts []string, dimensions *int) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("no texts provided for embedding")
	}

	req := EmbeddingRequest{
		Model:      model,
		Input:      texts,
		Dimensions: dimensions,
	}

	var embeddingResp EmbeddingResponse
	if err := c.postJSON(ctx, "/v1/embeddings", req, &embeddingResp); err != nil {
		return nil, fmt.Errorf("embeddings request failed: %w", err)
	}

	if len(embeddingResp.Data) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(embeddingResp.Data))
	}

	// Extract embeddings in order
	embeddings := make([][]float32, len(texts))
	for _, data := range embeddingResp.Data {
		if data.Index < 0 || data.Index >= len(embeddings) {
			return nil, fmt.Errorf("invalid embedding index %d", data.Index)
		}
		embeddings[data.Index] = data.Embedding
	}

	return embeddings, nil
}

// Embedder binds the client to one embedding model
type Embedder struct {
	client     *Client
	model      string
	dimensions int
}

func NewEmbedder(client *Client, model string, dimensions int) *Embedder {
	return &Embedder{
		client:     client,
		model:      model,
		dimensions: dimensions,
	}
}

func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	var dims *int
	if e.dimensions > 0 {
		d := e.dimensions
		dims = &d
	}
	return e.client.GenerateEmbeddings(ctx, e.model, texts, dims)
}

func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	embeddings, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return embeddings[0], nil
}
