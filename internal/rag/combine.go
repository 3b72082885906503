package rag

import (
	"strings"

	"persona-chat/internal/vector"
)

// DocumentSeparator separates retrieved chunks in the prompt context
const DocumentSeparator = "\n\n"

// CombineDocuments joins chunk texts in relevance order
func CombineDocuments(texts []string) string {
	return strings.Join(texts, DocumentSeparator)
}

// CombineChunks joins the text of retrieval hits, ignoring their scores
func CombineChunks(chunks []vector.ScoredChunk) string {
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	return CombineDocuments(texts)
}
