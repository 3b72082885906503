package rag

import (
	"context"
	"fmt"
	"time"

	"persona-chat/internal/logging"
	"persona-chat/internal/vector"
)

// Completer turns a fully rendered prompt into generated text
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Retriever returns knowledge base chunks relevant to a query, best first
type Retriever interface {
	Retrieve(ctx context.Context, query string) ([]vector.ScoredChunk, error)
}

// Request is the input of one pipeline invocation
type Request struct {
	Question    string
	ConvHistory string
}

// exchange threads the untouched request alongside each stage's output
type exchange struct {
	original   Request
	standalone string
	context    string
}

// Pipeline answers a question in three stages: rewrite it as a standalone question,
// retrieve context for the rewritten question, answer the original question from
// that context and the history.
type Pipeline struct {
	completer Completer
	retriever Retriever
}

func NewPipeline(completer Completer, retriever Retriever) *Pipeline {
	return &Pipeline{
		completer: completer,
		retriever: retriever,
	}
}

// Invoke runs all stages. Any stage failure aborts the invocation; nothing partial is returned.
func (p *Pipeline) Invoke(ctx context.Context, req Request) (string, error) {
	start := time.Now()
	ex := exchange{original: req}

	ex, err := p.rewriteQuestion(ctx, ex)
	if err != nil {
		return "", err
	}

	ex, err = p.retrieveContext(ctx, ex)
	if err != nil {
		return "", err
	}

	answer, err := p.synthesizeAnswer(ctx, ex)
	if err != nil {
		return "", err
	}

	logging.Logger().Info().
		Dur("elapsed", time.Since(start)).
		Int("context_chars", len(ex.context)).
		Msg("pipeline completed")

	return answer, nil
}

func (p *Pipeline) rewriteQuestion(ctx context.Context, ex exchange) (exchange, error) {
	prompt := StandaloneQuestionPrompt{
		ConvHistory: ex.original.ConvHistory,
		Question:    ex.original.Question,
	}.Render()

	standalone, err := p.completer.Complete(ctx, prompt)
	if err != nil {
		return ex, fmt.Errorf("standalone question: %w", err)
	}

	logging.Debug("standalone question: %q", standalone)
	ex.standalone = standalone
	return ex, nil
}

// retrieveContext only ever sees the standalone question
func (p *Pipeline) retrieveContext(ctx context.Context, ex exchange) (exchange, error) {
	chunks, err := p.retriever.Retrieve(ctx, ex.standalone)
	if err != nil {
		return ex, fmt.Errorf("retrieve context: %w", err)
	}

	ex.context = CombineChunks(chunks)
	return ex, nil
}

// synthesizeAnswer uses the original question and history, not the rewritten question
func (p *Pipeline) synthesizeAnswer(ctx context.Context, ex exchange) (string, error) {
	prompt := AnswerPrompt{
		Context:     ex.context,
		ConvHistory: ex.original.ConvHistory,
		Question:    ex.original.Question,
	}.Render()

	answer, err := p.completer.Complete(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("answer: %w", err)
	}
	return answer, nil
}
