package document

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Cleaner provides text cleaning and normalization functions
type Cleaner struct {
	multipleSpacesRegex   *regexp.Regexp
	multipleNewlinesRegex *regexp.Regexp
}

// NewCleaner creates a new text cleaner
func NewCleaner() *Cleaner {
	return &Cleaner{
		multipleSpacesRegex:   regexp.MustCompile(`[ \t]+`),
		multipleNewlinesRegex: regexp.MustCompile(`\n{3,}`),
	}
}

// CleanText normalizes text before it is chunked and embedded
func (c *Cleaner) CleanText(text string) string {
	// Compose accents so the same word always embeds the same way
	text = norm.NFC.String(text)

	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = c.removeInvisibleCharacters(text)
	text = c.normalizeWhitespace(text)

	// Keep at most one blank line
	text = c.multipleNewlinesRegex.ReplaceAllString(text, "\n\n")

	return strings.TrimSpace(text)
}

// normalizeWhitespace collapses runs of spaces and tabs and trims around newlines
func (c *Cleaner) normalizeWhitespace(text string) string {
	text = c.multipleSpacesRegex.ReplaceAllString(text, " ")
	text = strings.ReplaceAll(text, " \n", "\n")
	text = strings.ReplaceAll(text, "\n ", "\n")
	return text
}

// removeInvisibleCharacters removes zero-width and other invisible unicode characters
func (c *Cleaner) removeInvisibleCharacters(text string) string {
	var builder strings.Builder
	builder.Grow(len(text))

	for _, r := range text {
		switch r {
		case '\u200B', // Zero-width space
			'\u200C', // Zero-width non-joiner
			'\u200D', // Zero-width joiner
			'\uFEFF': // BOM
			continue
		}

		if unicode.IsPrint(r) || r == '\n' || r == '\t' {
			builder.WriteRune(r)
		}
	}

	return builder.String()
}

// IsContentMostlyWhitespace checks if content is mostly whitespace/formatting
func (c *Cleaner) IsContentMostlyWhitespace(text string) bool {
	if len(text) == 0 {
		return true
	}

	nonWhitespaceCount := 0
	total := 0
	for _, r := range text {
		total++
		if !unicode.IsSpace(r) {
			nonWhitespaceCount++
		}
	}

	// If less than 10% is non-whitespace, consider it mostly whitespace
	return float64(nonWhitespaceCount)/float64(total) < 0.1
}
