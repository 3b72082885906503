package rag

import (
	"strings"

	"persona-chat/internal/models"
)

const (
	humanLabel     = "Human: "
	assistantLabel = "AI: "
)

// FormatHistory renders the conversation as "Human:"/"AI:" lines, one blank line between exchanges.
// An empty history renders as the empty string.
func FormatHistory(history []models.Utterance) string {
	var b strings.Builder

	for i, u := range history {
		if i > 0 {
			if u.Speaker == models.Human {
				b.WriteString("\n\n")
			} else {
				b.WriteString("\n")
			}
		}

		if u.Speaker == models.Human {
			b.WriteString(humanLabel)
		} else {
			b.WriteString(assistantLabel)
		}
		b.WriteString(u.Text)
	}

	return b.String()
}
