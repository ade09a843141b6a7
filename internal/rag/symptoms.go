package rag

import (
	"context"
	"fmt"
	"strings"
	"time"

	"medassist/internal/contextutil"
)

const (
	// SymptomFailureText is returned in place of an analysis when generation fails.
	SymptomFailureText = "Unable to analyze symptoms right now."

	symptomMaxOutputTokens = 1024
)

// SymptomAnalyzer produces a structured symptom analysis, optionally grounded in retrieved context.
type SymptomAnalyzer struct {
	generator Generator
	timeout   time.Duration
}

// NewSymptomAnalyzer creates a SymptomAnalyzer. timeout bounds each generation call; 0 disables it.
func NewSymptomAnalyzer(generator Generator, timeout time.Duration) *SymptomAnalyzer {
	return &SymptomAnalyzer{
		generator: generator,
		timeout:   timeout,
	}
}

// Analyze returns the model's analysis of query. On any generation failure, including
// timeout, it returns SymptomFailureText instead of an error.
func (a *SymptomAnalyzer) Analyze(ctx context.Context, query, evidenceContext string, temperature float64) string {
	logger := contextutil.LoggerFromContext(ctx)

	prompt := buildSymptomPrompt(query, evidenceContext)

	genCtx, cancel := withOptionalTimeout(ctx, a.timeout)
	defer cancel()

	start := time.Now()
	analysis, err := a.generator.Generate(genCtx, prompt, temperature, symptomMaxOutputTokens)
	if err != nil {
		logger.ErrorContext(ctx, "symptom analysis failed", "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return SymptomFailureText
	}
	if strings.TrimSpace(analysis) == "" {
		logger.WarnContext(ctx, "symptom analysis returned empty text")
		return SymptomFailureText
	}

	logger.InfoContext(ctx, "symptom analysis generated",
		"with_context", evidenceContext != "",
		"analysis_length", len(analysis),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return analysis
}

func buildSymptomPrompt(query, evidenceContext string) string {
	var b strings.Builder

	b.WriteString("You are a medical assistant.\n\n")
	b.WriteString("Analyze the following symptoms or question and write a clear explanation in plain language.\n\n")
	fmt.Fprintf(&b, "Symptoms / question:\n%q\n\n", query)

	if evidenceContext != "" {
		b.WriteString("Context from the user's uploaded documents:\n")
		b.WriteString(evidenceContext)
		b.WriteString("\n\n")
		b.WriteString("If the question refers to an uploaded document, report or test result, prioritize the context above over general knowledge. ")
		b.WriteString("If the requested information is not present in the context, say explicitly that it is not in the provided documents.\n\n")
	}

	b.WriteString("Structure your answer with these sections:\n")
	b.WriteString("1. Possible conditions\n")
	b.WriteString("2. Severity assessment\n")
	b.WriteString("3. Recommended actions\n")
	b.WriteString("4. Warning signs to watch for\n")
	b.WriteString("5. Self-care tips\n")
	b.WriteString("6. When to seek medical help\n\n")
	b.WriteString("Do not return JSON. Write a clean medical explanation.")

	return b.String()
}

// withOptionalTimeout applies timeout to ctx when it is positive.
func withOptionalTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}
