package llm

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"medassist/internal/contextutil"
)

// ErrEmptyCompletion is returned when the model answers with no text.
var ErrEmptyCompletion = errors.New("empty completion")

// Client generates text through the chat completions endpoint of an
// OpenAI-compatible server such as llama.cpp.
type Client struct {
	endpoint
	model string
}

// NewClient creates a new LLM client.
func NewClient(baseURL, apiKey, model string) *Client {
	return &Client{
		endpoint: newEndpoint(baseURL, apiKey),
		model:    model,
	}
}

// ChatRequest represents the request payload for chat completions.
type ChatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

// ChatChoice represents a single choice in the chat response.
type ChatChoice struct {
	Index        int     `json:"index"`
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason"`
}

// ChatResponse represents the response from the chat completions API.
type ChatResponse struct {
	ID      string       `json:"id"`
	Object  string       `json:"object"`
	Choices []ChatChoice `json:"choices"`
}

// Generate sends prompt as a single user message and returns the trimmed reply.
func (c *Client) Generate(ctx context.Context, prompt string, temperature float64, maxOutputTokens int) (string, error) {
	req := ChatRequest{
		Model:       c.model,
		Messages:    []Message{{Role: "user", Content: prompt}},
		Temperature: temperature,
		MaxTokens:   maxOutputTokens,
	}

	var resp ChatResponse
	if err := c.do(ctx, http.MethodPost, "/v1/chat/completions", req, &resp); err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no choices returned")
	}

	choice := resp.Choices[0]
	if choice.FinishReason == "length" {
		contextutil.LoggerFromContext(ctx).WarnContext(ctx, "completion stopped at token limit",
			"model", c.model,
			"max_tokens", maxOutputTokens,
		)
	}

	content := strings.TrimSpace(choice.Message.Content)
	if content == "" {
		return "", ErrEmptyCompletion
	}
	return content, nil
}
