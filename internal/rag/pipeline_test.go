package rag

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"persona-chat/internal/vector"
)

// scriptedCompleter returns its responses in order and records every prompt
type scriptedCompleter struct {
	responses []string
	errs      []error
	prompts   []string
}

func (s *scriptedCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	i := len(s.prompts)
	s.prompts = append(s.prompts, prompt)
	if i < len(s.errs) && s.errs[i] != nil {
		return "", s.errs[i]
	}
	if i < len(s.responses) {
		return s.responses[i], nil
	}
	return "", errors.New("unexpected completion call")
}

type stubRetriever struct {
	chunks  []string
	err     error
	queries []string
}

func (s *stubRetriever) Retrieve(ctx context.Context, query string) ([]vector.ScoredChunk, error) {
	s.queries = append(s.queries, query)
	if s.err != nil {
		return nil, s.err
	}
	out := make([]vector.ScoredChunk, len(s.chunks))
	for i, c := range s.chunks {
		out[i] = vector.ScoredChunk{Text: c, Score: 1 - float32(i)*0.1}
	}
	return out, nil
}

func TestPipeline_Invoke(t *testing.T) {
	completer := &scriptedCompleter{responses: []string{"Q2", "ANSWER"}}
	retriever := &stubRetriever{chunks: []string{"ctx1", "ctx2"}}
	p := NewPipeline(completer, retriever)

	answer, err := p.Invoke(context.Background(), Request{Question: "Q1", ConvHistory: "H"})
	require.NoError(t, err)

	assert.Equal(t, "ANSWER", answer)

	// Retrieval is driven by the rewritten question only
	assert.Equal(t, []string{"Q2"}, retriever.queries)

	require.Len(t, completer.prompts, 2)
	assert.Equal(t, StandaloneQuestionPrompt{ConvHistory: "H", Question: "Q1"}.Render(), completer.prompts[0])
	assert.Equal(t, AnswerPrompt{Context: "ctx1\n\nctx2", ConvHistory: "H", Question: "Q1"}.Render(), completer.prompts[1])
	assert.NotContains(t, completer.prompts[1], "Q2")
}

func TestPipeline_StandaloneFailureSkipsRetrieval(t *testing.T) {
	boom := errors.New("service unavailable")
	completer := &scriptedCompleter{errs: []error{boom}}
	retriever := &stubRetriever{chunks: []string{"ctx"}}

	_, err := NewPipeline(completer, retriever).Invoke(context.Background(), Request{Question: "Q1"})

	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "standalone question")
	assert.Empty(t, retriever.queries)
	assert.Len(t, completer.prompts, 1)
}

func TestPipeline_RetrievalFailureSkipsAnswer(t *testing.T) {
	boom := errors.New("index offline")
	completer := &scriptedCompleter{responses: []string{"Q2", "ANSWER"}}
	retriever := &stubRetriever{err: boom}

	answer, err := NewPipeline(completer, retriever).Invoke(context.Background(), Request{Question: "Q1"})

	require.ErrorIs(t, err, boom)
	assert.Empty(t, answer)
	assert.Contains(t, err.Error(), "retrieve context")
	assert.Len(t, completer.prompts, 1)
}

func TestPipeline_AnswerFailure(t *testing.T) {
	boom := errors.New("quota exceeded")
	completer := &scriptedCompleter{responses: []string{"Q2"}, errs: []error{nil, boom}}
	retriever := &stubRetriever{}

	_, err := NewPipeline(completer, retriever).Invoke(context.Background(), Request{Question: "Q1"})

	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "answer")
}

func TestPipeline_EmptyContextAndOutputAcceptedAsIs(t *testing.T) {
	completer := &scriptedCompleter{responses: []string{"", ""}}
	retriever := &stubRetriever{}

	answer, err := NewPipeline(completer, retriever).Invoke(context.Background(), Request{Question: "Q1"})
	require.NoError(t, err)

	assert.Equal(t, "", answer)
	assert.Equal(t, []string{""}, retriever.queries)
	assert.Contains(t, completer.prompts[1], "context: \n")
}
