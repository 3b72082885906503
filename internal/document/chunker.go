package document

import (
	"strings"
	"unicode"
)

const (
	// DefaultChunkSize is the target size for each chunk in bytes. A chunk may
	// run a few bytes over to end on a rune boundary.
	DefaultChunkSize = 500

	// DefaultChunkOverlap is the number of bytes repeated between neighbouring chunks
	DefaultChunkOverlap = 50
)

// Chunker splits documents into overlapping chunks for embedding
type Chunker struct {
	ChunkSize    int
	ChunkOverlap int
	cleaner      *Cleaner
}

// NewChunker creates a chunker; non-positive values fall back to the defaults
func NewChunker(size, overlap int) *Chunker {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 || overlap >= size {
		overlap = DefaultChunkOverlap
		if overlap >= size {
			overlap = 0
		}
	}
	return &Chunker{
		ChunkSize:    size,
		ChunkOverlap: overlap,
		cleaner:      NewCleaner(),
	}
}

// Chunk represents a single chunk of text
type Chunk struct {
	Content  string
	StartPos int
	EndPos   int
	Index    int
}

// ChunkDocument splits content into overlapping chunks, preferring paragraph,
// line, sentence and word boundaries in that order
func (c *Chunker) ChunkDocument(content string) []Chunk {
	if len(content) <= c.ChunkSize {
		cleaned := c.cleaner.CleanText(content)
		if c.cleaner.IsContentMostlyWhitespace(cleaned) {
			return nil
		}
		return []Chunk{{Content: cleaned, StartPos: 0, EndPos: len(content), Index: 0}}
	}

	var chunks []Chunk
	position := 0
	lastStart := -1

	for position < len(content) {
		endPos := position + c.ChunkSize
		if endPos > len(content) {
			endPos = len(content)
		}

		if endPos < len(content) {
			endPos = c.findBreakPoint(content, position, endPos)
		}
		// Never split inside a UTF-8 sequence
		for endPos < len(content) && !isRuneStart(content[endPos]) {
			endPos++
		}

		chunkContent := c.cleaner.CleanText(content[position:endPos])
		if len(chunkContent) > 0 && !c.cleaner.IsContentMostlyWhitespace(chunkContent) {
			chunks = append(chunks, Chunk{
				Content:  chunkContent,
				StartPos: position,
				EndPos:   endPos,
				Index:    len(chunks),
			})
		}
		lastStart = position

		if endPos == len(content) {
			break
		}

		position = endPos - c.ChunkOverlap
		if position <= lastStart {
			// Ensure we're making progress
			position = endPos
		}
		for position < len(content) && !isRuneStart(content[position]) {
			position++
		}
	}

	return chunks
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}

// findBreakPoint looks back up to 20% of the chunk size for a natural break
func (c *Chunker) findBreakPoint(content string, start, targetEnd int) int {
	searchStart := targetEnd - (c.ChunkSize / 5)
	if searchStart < start {
		searchStart = start
	}

	if pos := c.findLastOccurrence(content, searchStart, targetEnd, "\n\n"); pos != -1 {
		return pos + 2
	}

	if pos := c.findLastOccurrence(content, searchStart, targetEnd, "\n"); pos != -1 {
		return pos + 1
	}

	if pos := c.findLastSentenceEnd(content, searchStart, targetEnd); pos != -1 {
		return pos
	}

	if pos := c.findLastOccurrence(content, searchStart, targetEnd, " "); pos != -1 {
		return pos + 1
	}

	return targetEnd
}

// findLastOccurrence finds the last occurrence of a substring in a range
func (c *Chunker) findLastOccurrence(content string, start, end int, substr string) int {
	lastIdx := strings.LastIndex(content[start:end], substr)
	if lastIdx != -1 && start+lastIdx > start {
		return start + lastIdx
	}
	return -1
}

// findLastSentenceEnd finds the last sentence-ending punctuation in a range
func (c *Chunker) findLastSentenceEnd(content string, start, end int) int {
	for i := end - 1; i > start; i-- {
		if content[i] == '.' || content[i] == '!' || content[i] == '?' {
			if i+1 >= len(content) || unicode.IsSpace(rune(content[i+1])) {
				return i + 1
			}
		}
	}
	return -1
}
