package chat

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"persona-chat/internal/models"
	"persona-chat/internal/rag"
)

type stubPipeline struct {
	mu       sync.Mutex
	answers  map[string]string
	err      error
	requests []rag.Request
	release  chan struct{}
	started  chan struct{}
}

func (s *stubPipeline) Invoke(ctx context.Context, req rag.Request) (string, error) {
	s.mu.Lock()
	s.requests = append(s.requests, req)
	s.mu.Unlock()

	if s.started != nil {
		s.started <- struct{}{}
	}
	if s.release != nil {
		select {
		case <-s.release:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if s.err != nil {
		return "", s.err
	}
	return s.answers[req.Question], nil
}

func TestController_SuccessfulExchangeAppendsPair(t *testing.T) {
	p := &stubPipeline{answers: map[string]string{"hi": "hello"}}
	c := NewController(p, time.Second)

	answer, err := c.Ask(context.Background(), "hi")
	require.NoError(t, err)

	assert.Equal(t, "hello", answer)
	assert.Equal(t, []string{"hi", "hello"}, c.History().Texts())
	assert.False(t, c.Busy())
}

func TestController_PassesFormattedHistory(t *testing.T) {
	p := &stubPipeline{answers: map[string]string{"hi": "hello", "who are you?": "a bot"}}
	c := NewController(p, 0)

	_, err := c.Ask(context.Background(), "hi")
	require.NoError(t, err)
	_, err = c.Ask(context.Background(), "  who are you?  ")
	require.NoError(t, err)

	require.Len(t, p.requests, 2)
	assert.Equal(t, rag.Request{Question: "hi", ConvHistory: ""}, p.requests[0])
	assert.Equal(t, rag.Request{Question: "who are you?", ConvHistory: "Human: hi\nAI: hello"}, p.requests[1])

	h := c.History()
	require.Len(t, h, 4)
	assert.Equal(t, models.Utterance{Speaker: models.Human, Text: "who are you?"}, h[2])
	assert.Equal(t, models.Utterance{Speaker: models.Assistant, Text: "a bot"}, h[3])
}

func TestController_FailureAppendsNothing(t *testing.T) {
	boom := errors.New("standalone question: unauthorized")
	c := NewController(&stubPipeline{err: boom}, time.Second)

	_, err := c.Ask(context.Background(), "hi")

	require.ErrorIs(t, err, boom)
	assert.Empty(t, c.History())
	assert.False(t, c.Busy(), "a failed exchange must release the slot")
}

func TestController_RejectsEmptyQuestion(t *testing.T) {
	p := &stubPipeline{}
	c := NewController(p, time.Second)

	_, err := c.Ask(context.Background(), "   \n")
	require.ErrorIs(t, err, ErrEmptyQuestion)
	assert.Empty(t, p.requests)
	assert.False(t, c.Busy())
}

func TestController_SerializesExchanges(t *testing.T) {
	p := &stubPipeline{
		answers: map[string]string{"first": "one", "second": "two"},
		release: make(chan struct{}),
		started: make(chan struct{}, 1),
	}
	c := NewController(p, 0)

	first, err := c.Begin("first")
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := first.Run(context.Background())
		done <- err
	}()
	<-p.started

	// A second submission while the first is in flight is rejected, so appends
	// can never interleave out of submission order.
	_, err = c.Begin("second")
	require.ErrorIs(t, err, ErrExchangeInFlight)
	assert.True(t, c.Busy())

	close(p.release)
	require.NoError(t, <-done)

	p.started = nil
	_, err = c.Ask(context.Background(), "second")
	require.NoError(t, err)

	assert.Equal(t, []string{"first", "one", "second", "two"}, c.History().Texts())
}

func TestController_TimeoutReleasesSlot(t *testing.T) {
	p := &stubPipeline{release: make(chan struct{})}
	c := NewController(p, 20*time.Millisecond)

	_, err := c.Ask(context.Background(), "slow")

	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Empty(t, c.History())
	assert.False(t, c.Busy())
}

func TestController_CancelReleasesSlot(t *testing.T) {
	p := &stubPipeline{release: make(chan struct{}), started: make(chan struct{}, 1)}
	c := NewController(p, 0)

	ctx, cancel := context.WithCancel(context.Background())
	ex, err := c.Begin("slow")
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := ex.Run(ctx)
		done <- err
	}()
	<-p.started
	cancel()

	require.ErrorIs(t, <-done, context.Canceled)
	assert.False(t, c.Busy())
}

func TestExchange_RunOnlyOnce(t *testing.T) {
	c := NewController(&stubPipeline{answers: map[string]string{"q": "a"}}, 0)

	ex, err := c.Begin("q")
	require.NoError(t, err)

	_, err = ex.Run(context.Background())
	require.NoError(t, err)

	_, err = ex.Run(context.Background())
	require.ErrorIs(t, err, ErrExchangeFinished)
	assert.Len(t, c.History(), 2)
}
