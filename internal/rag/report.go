package rag

import (
	"context"
	"strings"

	"medassist/internal/contextutil"
)

const (
	// EvidencePreviewLimit is the maximum number of characters kept per Report.Evidence entry.
	EvidencePreviewLimit = 500

	// FallbackMessage replaces a report that carries no usable text.
	FallbackMessage = "Unable to generate a meaningful response. Please try rephrasing your question with more specific details."
)

// Assembler runs the full pipeline for one query: route, summarize, optionally analyze, merge.
type Assembler struct {
	router     *Router
	summarizer *Summarizer
	analyzer   *SymptomAnalyzer
}

// NewAssembler creates an Assembler.
func NewAssembler(router *Router, summarizer *Summarizer, analyzer *SymptomAnalyzer) *Assembler {
	return &Assembler{
		router:     router,
		summarizer: summarizer,
		analyzer:   analyzer,
	}
}

// Assemble builds the report for query. It never fails: collaborator failures show up
// as absent fields. Callers apply WithFallback before showing the report.
func (a *Assembler) Assemble(ctx context.Context, query string, temperature float64, topK int) Report {
	logger := contextutil.LoggerFromContext(ctx)

	route := a.router.Classify(query)
	logger.InfoContext(ctx, "query routed", "route", route)

	// The summary always runs: its evidence is the symptom analysis context.
	summary, evidence := a.summarizer.Summarize(ctx, query, topK, temperature)

	report := Report{
		Route:      route,
		RAGSummary: summary,
		Evidence:   evidencePreviews(evidence),
	}

	if route == RouteBoth || route == RouteSymptoms {
		report.SymptomAnalysis = a.analyzer.Analyze(ctx, query, strings.Join(evidence.Texts(), "\n\n"), temperature)
	}

	logger.InfoContext(ctx, "report generated",
		"route", report.Route,
		"has_summary", report.RAGSummary != "",
		"has_analysis", report.SymptomAnalysis != "",
		"evidence", len(report.Evidence),
	)
	return report
}

// HasUsableText reports whether r carries generated text worth showing.
// The symptom failure placeholder does not count.
func HasUsableText(r Report) bool {
	if strings.TrimSpace(r.RAGSummary) != "" {
		return true
	}
	analysis := strings.TrimSpace(r.SymptomAnalysis)
	return analysis != "" && analysis != SymptomFailureText
}

// WithFallback returns r unchanged when it has usable text, otherwise the fixed
// knowledge-route fallback report.
func WithFallback(r Report) Report {
	if HasUsableText(r) {
		return r
	}
	return Report{
		Route:      RouteKnowledge,
		RAGSummary: FallbackMessage,
		Evidence:   []string{},
	}
}

func evidencePreviews(evidence EvidenceSet) []string {
	previews := make([]string, len(evidence))
	for i, chunk := range evidence {
		previews[i] = truncateRunes(chunk.Text, EvidencePreviewLimit)
	}
	return previews
}

// truncateRunes returns the first limit characters of s. The result is always a prefix of s.
func truncateRunes(s string, limit int) string {
	count := 0
	for i := range s {
		if count == limit {
			return s[:i]
		}
		count++
	}
	return s
}
