package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleaner_CleanText(t *testing.T) {
	c := NewCleaner()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"collapses spaces and tabs", "a  \t b", "a b"},
		{"trims around newlines", "line one  \n  line two", "line one\nline two"},
		{"limits blank lines", "a\n\n\n\n\nb", "a\n\nb"},
		{"drops zero width characters", "pi\u200Bano\uFEFF", "piano"},
		{"normalizes windows newlines", "a\r\nb", "a\nb"},
		{"composes accents", "Lisboa e\u0301", "Lisboa \u00e9"},
		{"trims ends", "  \n hello \n ", "hello"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, c.CleanText(tt.input))
		})
	}
}

func TestCleaner_IsContentMostlyWhitespace(t *testing.T) {
	c := NewCleaner()

	assert.True(t, c.IsContentMostlyWhitespace(""))
	assert.True(t, c.IsContentMostlyWhitespace("a                    "))
	assert.False(t, c.IsContentMostlyWhitespace("hello world"))
}
