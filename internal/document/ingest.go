package document

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"persona-chat/internal/logging"
	"persona-chat/internal/vector"
)

// BatchEmbedder embeds many texts in one request
type BatchEmbedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// IngestResult summarizes one ingestion run
type IngestResult struct {
	Files          int
	Chunks         int
	Replaced       int
	ProcessingTime time.Duration
}

// Ingester chunks, embeds and stores documents in the knowledge base
type Ingester struct {
	loader    *Loader
	chunker   *Chunker
	embedder  BatchEmbedder
	store     vector.ChunkStore
	batchSize int
}

func NewIngester(embedder BatchEmbedder, store vector.ChunkStore, chunker *Chunker, batchSize int) *Ingester {
	if batchSize <= 0 {
		batchSize = 32
	}
	return &Ingester{
		loader:    NewLoader(),
		chunker:   chunker,
		embedder:  embedder,
		store:     store,
		batchSize: batchSize,
	}
}

// IngestPaths loads every supported file under paths and indexes it. Re-ingesting a
// file replaces its previous chunks.
func (in *Ingester) IngestPaths(ctx context.Context, paths []string, progress func(file string, chunks int)) (*IngestResult, error) {
	start := time.Now()

	files, err := in.loader.LoadPaths(ctx, paths)
	if err != nil {
		return nil, err
	}

	result := &IngestResult{}
	for _, f := range files {
		n, replaced, err := in.ingestFile(ctx, f)
		if err != nil {
			return result, fmt.Errorf("failed to ingest %s: %w", f.Path, err)
		}

		result.Files++
		result.Chunks += n
		result.Replaced += replaced
		if progress != nil {
			progress(f.Path, n)
		}
	}

	result.ProcessingTime = time.Since(start)
	logging.Info("ingested %d files into %d chunks in %s", result.Files, result.Chunks, result.ProcessingTime)
	return result, nil
}

// IngestFile indexes a single file, replacing any chunks it already has
func (in *Ingester) IngestFile(ctx context.Context, path string) (int, error) {
	f, err := in.loader.loadFile(path)
	if err != nil {
		return 0, err
	}

	n, _, err := in.ingestFile(ctx, f)
	if err != nil {
		return 0, fmt.Errorf("failed to ingest %s: %w", f.Path, err)
	}
	return n, nil
}

// RemoveSource drops every chunk that came from path
func (in *Ingester) RemoveSource(ctx context.Context, path string) (int, error) {
	return in.store.DeleteSource(ctx, sourcePath(path))
}

func (in *Ingester) ingestFile(ctx context.Context, f SourceFile) (int, int, error) {
	pieces := in.chunker.ChunkDocument(f.Content)
	if len(pieces) == 0 {
		// An emptied file must not keep serving its old chunks
		replaced, err := in.store.DeleteSource(ctx, f.Path)
		if err != nil {
			return 0, 0, err
		}
		logging.Info("skipping %s: no text content (%d old chunks removed)", f.Path, replaced)
		return 0, replaced, nil
	}

	chunks := make([]vector.Chunk, 0, len(pieces))
	now := time.Now()

	for batchStart := 0; batchStart < len(pieces); batchStart += in.batchSize {
		batchEnd := batchStart + in.batchSize
		if batchEnd > len(pieces) {
			batchEnd = len(pieces)
		}

		texts := make([]string, 0, batchEnd-batchStart)
		for _, p := range pieces[batchStart:batchEnd] {
			texts = append(texts, p.Content)
		}

		embeddings, err := in.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return 0, 0, fmt.Errorf("failed to embed chunks %d-%d: %w", batchStart, batchEnd-1, err)
		}
		if len(embeddings) != len(texts) {
			return 0, 0, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(embeddings))
		}

		for i, p := range pieces[batchStart:batchEnd] {
			chunks = append(chunks, vector.Chunk{
				ID:        uuid.NewString(),
				Source:    f.Path,
				Index:     p.Index,
				Text:      p.Content,
				Embedding: embeddings[i],
				CreatedAt: now,
			})
		}
	}

	// Embed everything before touching the index so a failed run leaves old chunks intact
	replaced, err := in.store.DeleteSource(ctx, f.Path)
	if err != nil {
		return 0, 0, err
	}

	if err := in.store.StoreChunks(ctx, chunks); err != nil {
		return 0, 0, err
	}

	logging.Debug("indexed %s: %d chunks (%d replaced)", f.Path, len(chunks), replaced)
	return len(chunks), replaced, nil
}
