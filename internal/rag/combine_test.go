package rag

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"persona-chat/internal/vector"
)

func TestCombineDocuments_RoundTrip(t *testing.T) {
	inputs := [][]string{
		{"ctx1", "ctx2"},
		{"only one"},
		{"line one\nline two", "", "third"},
	}

	for _, chunks := range inputs {
		combined := CombineDocuments(chunks)
		assert.Equal(t, chunks, strings.Split(combined, DocumentSeparator))
	}
}

func TestCombineDocuments_Empty(t *testing.T) {
	assert.Equal(t, "", CombineDocuments(nil))
	assert.Equal(t, "", CombineDocuments([]string{}))
	assert.Equal(t, "", CombineChunks(nil))
}

func TestCombineChunks_KeepsRelevanceOrder(t *testing.T) {
	chunks := []vector.ScoredChunk{
		{Text: "best", Score: 0.9},
		{Text: "worse", Score: 0.4},
		{Text: "best", Score: 0.3},
	}
	assert.Equal(t, "best\n\nworse\n\nbest", CombineChunks(chunks))
}
