package vector

import (
	"context"
	"fmt"

	"persona-chat/internal/logging"
)

// Embedder turns query text into a vector in the same space as the stored chunks
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Retriever answers a text query with the most similar knowledge base chunks
type Retriever struct {
	embedder Embedder
	store    ChunkStore
	topK     int
}

func NewRetriever(embedder Embedder, store ChunkStore, topK int) *Retriever {
	if topK <= 0 {
		topK = 4
	}
	return &Retriever{
		embedder: embedder,
		store:    store,
		topK:     topK,
	}
}

// Retrieve returns chunks in relevance order. An empty index yields no chunks, not an error.
func (r *Retriever) Retrieve(ctx context.Context, query string) ([]ScoredChunk, error) {
	embedding, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	chunks, err := r.store.SearchSimilar(ctx, embedding, r.topK)
	if err != nil {
		return nil, fmt.Errorf("failed to search knowledge base: %w", err)
	}

	for i, c := range chunks {
		logging.Debug("retrieved #%d score=%.3f source=%s", i+1, c.Score, c.Source)
	}

	return chunks, nil
}
