package llm

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
)

// OllamaGenerator generates text through a local Ollama server via langchaingo.
type OllamaGenerator struct {
	llm llms.Model
}

// NewOllamaGenerator connects to the Ollama server at baseURL using model.
func NewOllamaGenerator(baseURL, model string) (*OllamaGenerator, error) {
	opts := []ollama.Option{ollama.WithModel(model)}
	if baseURL != "" {
		opts = append(opts, ollama.WithServerURL(baseURL))
	}

	llm, err := ollama.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize ollama: %w", err)
	}
	return &OllamaGenerator{llm: llm}, nil
}

// Generate completes prompt with the given sampling temperature and output length cap.
func (g *OllamaGenerator) Generate(ctx context.Context, prompt string, temperature float64, maxOutputTokens int) (string, error) {
	opts := []llms.CallOption{llms.WithTemperature(temperature)}
	if maxOutputTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(maxOutputTokens))
	}

	completion, err := llms.GenerateFromSinglePrompt(ctx, g.llm, prompt, opts...)
	if err != nil {
		return "", fmt.Errorf("ollama generate: %w", err)
	}
	return completion, nil
}
