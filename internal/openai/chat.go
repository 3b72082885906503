package openai

import (
	"context"
	"fmt"
)

type ChatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	Temperature *float64      `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatCompletionResponse struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Created int64  `json:"created"`
	Model   string `json:"model"`
	Choices []struct {
		Index        int         `json:"index"`
		Message      ChatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage,omitempty"`
}

func (c *Client) ChatCompletion(ctx context.Context, req ChatCompletionRequest) (*ChatCompletionResponse, error) {
	var completionResp ChatCompletionResponse
	if err := c.postJSON(ctx, "/v1/chat/completions", req, &completionResp); err != nil {
		return nil, fmt.Errorf("chat completion failed: %w", err)
	}

	if len(completionResp.Choices) == 0 {
		return nil, fmt.Errorf("no choices returned in chat completion response")
	}

	return &completionResp, nil
}

// Completer sends single-prompt completions to one model
type Completer struct {
	client      *Client
	model       string
	temperature float64
}

func NewCompleter(client *Client, model string, temperature float64) *Completer {
	return &Completer{
		client:      client,
		model:       model,
		temperature: temperature,
	}
}

// Complete sends prompt as a single user message and returns the generated text as-is
func (c *Completer) Complete(ctx context.Context, prompt string) (string, error) {
	temperature := c.temperature
	resp, err := c.client.ChatCompletion(ctx, ChatCompletionRequest{
		Model: c.model,
		Messages: []ChatMessage{
			{Role: "user", Content: prompt},
		},
		Temperature: &temperature,
	})
	if err != nil {
		return "", err
	}

	return resp.Choices[0].Message.Content, nil
}
