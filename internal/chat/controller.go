package chat

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"persona-chat/internal/logging"
	"persona-chat/internal/models"
	"persona-chat/internal/rag"
)

var (
	ErrEmptyQuestion    = errors.New("question is empty")
	ErrExchangeInFlight = errors.New("another question is still being answered")
	ErrExchangeFinished = errors.New("exchange already ran")
)

// Invoker runs the question-answering pipeline
type Invoker interface {
	Invoke(ctx context.Context, req rag.Request) (string, error)
}

// Controller owns the conversation history and allows one exchange at a time.
// History is appended in pairs only after a successful answer, so its length is
// even whenever no exchange is running.
type Controller struct {
	pipeline Invoker
	timeout  time.Duration

	mu      sync.Mutex
	history models.History
	busy    bool
}

// NewController creates a controller. A zero timeout leaves exchanges bounded only
// by the caller's context.
func NewController(pipeline Invoker, timeout time.Duration) *Controller {
	return &Controller{
		pipeline: pipeline,
		timeout:  timeout,
	}
}

// Exchange is a reserved question/answer cycle. Run must be called exactly once.
type Exchange struct {
	controller  *Controller
	Question    string
	convHistory string
	once        sync.Once
}

// Begin reserves the exchange slot and snapshots the history the pipeline will see
func (c *Controller) Begin(question string) (*Exchange, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, ErrEmptyQuestion
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.busy {
		return nil, ErrExchangeInFlight
	}
	c.busy = true

	return &Exchange{
		controller:  c,
		Question:    question,
		convHistory: rag.FormatHistory(c.history),
	}, nil
}

// Run invokes the pipeline and records the exchange on success. The slot is released
// whether or not the pipeline succeeds.
func (e *Exchange) Run(ctx context.Context) (string, error) {
	ran := false
	var answer string
	var err error

	e.once.Do(func() {
		ran = true
		answer, err = e.controller.run(ctx, e)
	})

	if !ran {
		return "", ErrExchangeFinished
	}
	return answer, err
}

func (c *Controller) run(ctx context.Context, e *Exchange) (string, error) {
	defer c.release()

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	answer, err := c.pipeline.Invoke(ctx, rag.Request{
		Question:    e.Question,
		ConvHistory: e.convHistory,
	})
	if err != nil {
		logging.Logger().Error().Err(err).Dur("elapsed", time.Since(start)).Msg("exchange failed")
		return "", err
	}

	c.mu.Lock()
	c.history = c.history.AppendExchange(e.Question, answer)
	turns := len(c.history) / 2
	c.mu.Unlock()

	logging.Logger().Info().Int("turns", turns).Dur("elapsed", time.Since(start)).Msg("exchange completed")
	return answer, nil
}

func (c *Controller) release() {
	c.mu.Lock()
	c.busy = false
	c.mu.Unlock()
}

// Ask runs a full exchange for non-interactive callers
func (c *Controller) Ask(ctx context.Context, question string) (string, error) {
	ex, err := c.Begin(question)
	if err != nil {
		return "", err
	}
	return ex.Run(ctx)
}

// History returns a copy of the conversation so far
func (c *Controller) History() models.History {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.history.Clone()
}

// Busy reports whether an exchange is in flight
func (c *Controller) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.busy
}
