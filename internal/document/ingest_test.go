package document

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"persona-chat/internal/vector"
)

// fakeEmbedder maps each text to a vector derived from its first byte
type fakeEmbedder struct {
	batches [][]string
	failOn  int
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	f.batches = append(f.batches, texts)
	if f.failOn > 0 && len(f.batches) == f.failOn {
		return nil, errors.New("quota exceeded")
	}

	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = []float32{float32(t[0]), 1}
	}
	return out, nil
}

func newIngestStore(t *testing.T) *vector.BadgerStore {
	t.Helper()
	store, err := vector.NewInMemoryBadgerStore()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestIngester_IngestPaths(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "bio.md"), "I grew up by the sea.")
	writeFile(t, filepath.Join(dir, "long.txt"), strings.Repeat("Sentence about work. ", 30))

	store := newIngestStore(t)
	embedder := &fakeEmbedder{}
	ingester := NewIngester(embedder, store, NewChunker(200, 20), 2)

	var seen []string
	result, err := ingester.IngestPaths(ctx, []string{dir}, func(file string, chunks int) {
		seen = append(seen, filepath.Base(file))
		assert.Positive(t, chunks)
	})
	require.NoError(t, err)

	assert.Equal(t, 2, result.Files)
	assert.Greater(t, result.Chunks, 2)
	assert.Zero(t, result.Replaced)
	assert.Equal(t, []string{"bio.md", "long.txt"}, seen)

	for _, batch := range embedder.batches {
		assert.LessOrEqual(t, len(batch), 2)
	}

	count, err := store.CountChunks(ctx)
	require.NoError(t, err)
	assert.Equal(t, result.Chunks, count)
}

func TestIngester_ReingestReplacesChunks(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "bio.md")
	writeFile(t, path, "First version.")

	store := newIngestStore(t)
	ingester := NewIngester(&fakeEmbedder{}, store, NewChunker(200, 20), 8)

	_, err := ingester.IngestPaths(ctx, []string{path}, nil)
	require.NoError(t, err)

	writeFile(t, path, "Second version.")
	result, err := ingester.IngestPaths(ctx, []string{path}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Replaced)

	results, err := store.SearchSimilar(ctx, []float32{'S', 1}, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Second version.", results[0].Text)
}

func TestIngester_EmbedFailureKeepsExistingChunks(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "bio.md")
	writeFile(t, path, "Original text.")

	store := newIngestStore(t)
	_, err := NewIngester(&fakeEmbedder{}, store, NewChunker(200, 20), 8).IngestPaths(ctx, []string{path}, nil)
	require.NoError(t, err)

	writeFile(t, path, "Replacement text.")
	_, err = NewIngester(&fakeEmbedder{failOn: 1}, store, NewChunker(200, 20), 8).IngestPaths(ctx, []string{path}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")

	count, err := store.CountChunks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestIngester_SkipsEmptyFiles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blank.txt")
	writeFile(t, path, "   \n\n ")

	embedder := &fakeEmbedder{}
	result, err := NewIngester(embedder, newIngestStore(t), NewChunker(200, 20), 8).
		IngestPaths(context.Background(), []string{path}, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Files)
	assert.Zero(t, result.Chunks)
	assert.Empty(t, embedder.batches)
}

func TestIngester_EmptiedFileDropsOldChunks(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "bio.md")
	writeFile(t, path, "I collect vinyl records.")

	store := newIngestStore(t)
	ingester := NewIngester(&fakeEmbedder{}, store, NewChunker(200, 20), 8)

	n, err := ingester.IngestFile(ctx, path)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	writeFile(t, path, " \n\t\n")
	n, err = ingester.IngestFile(ctx, path)
	require.NoError(t, err)
	assert.Zero(t, n)

	count, err := store.CountChunks(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}
