package vector

import (
	"context"
	"time"
)

// ChunkStore is the knowledge base index searched by the retriever
type ChunkStore interface {
	// StoreChunks stores chunks with their embeddings
	StoreChunks(ctx context.Context, chunks []Chunk) error

	// SearchSimilar returns up to topK chunks ordered by descending similarity
	SearchSimilar(ctx context.Context, queryEmbedding []float32, topK int) ([]ScoredChunk, error)

	// CountChunks returns the number of stored chunks
	CountChunks(ctx context.Context) (int, error)

	// DeleteSource removes every chunk ingested from source
	DeleteSource(ctx context.Context, source string) (int, error)

	// Clear removes all chunks
	Clear(ctx context.Context) error

	// Close closes the database connection
	Close() error
}

// Chunk is one embedded piece of a source document
type Chunk struct {
	ID        string
	Source    string
	Index     int
	Text      string
	Embedding []float32
	CreatedAt time.Time
}

// ScoredChunk is a retrieval hit. Only Text feeds the prompt; Score is kept for logging.
type ScoredChunk struct {
	ID     string
	Source string
	Text   string
	Score  float32
}
