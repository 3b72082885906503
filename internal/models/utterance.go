package models

// Speaker identifies who produced an utterance
type Speaker int

const (
	Human Speaker = iota
	Assistant
)

func (s Speaker) String() string {
	switch s {
	case Human:
		return "human"
	case Assistant:
		return "assistant"
	default:
		return "unknown"
	}
}

// Utterance is a single turn in the conversation
type Utterance struct {
	Speaker Speaker
	Text    string
}

// History is the ordered conversation log. Entries are only ever appended,
// one question/answer pair at a time.
type History []Utterance

// AppendExchange appends a completed question/answer pair
func (h History) AppendExchange(question, answer string) History {
	return append(h,
		Utterance{Speaker: Human, Text: question},
		Utterance{Speaker: Assistant, Text: answer},
	)
}

// Texts returns the plain utterance texts in order
func (h History) Texts() []string {
	texts := make([]string, len(h))
	for i, u := range h {
		texts[i] = u.Text
	}
	return texts
}

// Clone returns a copy that does not share the backing array
func (h History) Clone() History {
	if h == nil {
		return nil
	}
	out := make(History, len(h))
	copy(out, h)
	return out
}
