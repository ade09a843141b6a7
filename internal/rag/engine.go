package rag

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"medassist/internal/contextutil"
)

const summaryMaxOutputTokens = 1500

// Summarizer is the RAG engine: it gathers evidence from the vector store and,
// when configured, the web, then asks the model for a synthesized answer.
type Summarizer struct {
	retriever  *Retriever
	generator  Generator
	timeout    time.Duration
	web        WebSearcher
	webResults int
}

// SummarizerOption configures a Summarizer.
type SummarizerOption func(*Summarizer)

// WithWebSearch enables supplementary web evidence, requesting numResults pages per query.
func WithWebSearch(searcher WebSearcher, numResults int) SummarizerOption {
	return func(s *Summarizer) {
		s.web = searcher
		s.webResults = numResults
	}
}

// NewSummarizer creates a Summarizer. timeout bounds each generation call; 0 disables it.
func NewSummarizer(retriever *Retriever, generator Generator, timeout time.Duration, opts ...SummarizerOption) *Summarizer {
	s := &Summarizer{
		retriever: retriever,
		generator: generator,
		timeout:   timeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Summarize answers query from the composed evidence.
// The returned summary is "" when there was no evidence or generation failed; the
// vector-store evidence is returned in every case so callers can still show it.
func (s *Summarizer) Summarize(ctx context.Context, query string, topK int, temperature float64) (string, EvidenceSet) {
	logger := contextutil.LoggerFromContext(ctx)

	logger.InfoContext(ctx, "RAG query started", "query_length", len(query), "top_k", topK, "web_search", s.web != nil)

	// Retrieval and web search are independent; both degrade to empty evidence on failure.
	var (
		kbEvidence  EvidenceSet
		webEvidence EvidenceSet
		g           errgroup.Group
	)
	g.Go(func() error {
		evidence, err := s.retriever.Retrieve(ctx, query, topK)
		if err != nil {
			logger.WarnContext(ctx, "continuing without knowledge base evidence", "error", err)
			return nil
		}
		kbEvidence = evidence
		return nil
	})
	if s.web != nil && s.webResults > 0 {
		g.Go(func() error {
			results, err := s.web.Search(ctx, query, s.webResults)
			if err != nil {
				logger.WarnContext(ctx, "continuing without web evidence", "error", err)
			}
			webEvidence = webResultsToEvidence(results)
			return nil
		})
	}
	_ = g.Wait()

	if kbEvidence == nil {
		kbEvidence = EvidenceSet{}
	}

	composed := Compose([]Source{
		{Label: LabelKnowledgeBase, Evidence: kbEvidence},
		{Label: LabelWebSearch, Evidence: webEvidence},
	})
	if composed == "" {
		logger.InfoContext(ctx, "no evidence available, skipping generation")
		return "", kbEvidence
	}

	logger.InfoContext(ctx, "evidence composed",
		"kb_chunks", len(kbEvidence),
		"web_pages", len(webEvidence),
		"context_length", len(composed),
	)

	genCtx, cancel := withOptionalTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	summary, err := s.generator.Generate(genCtx, buildSummaryPrompt(query, composed), temperature, summaryMaxOutputTokens)
	if err != nil {
		logger.ErrorContext(ctx, "failed to get LLM response", "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return "", kbEvidence
	}
	if strings.TrimSpace(summary) == "" {
		logger.WarnContext(ctx, "LLM returned empty summary")
		return "", kbEvidence
	}

	logger.InfoContext(ctx, "RAG query completed", "summary_length", len(summary), "elapsed_ms", time.Since(start).Milliseconds())
	return summary, kbEvidence
}

// webResultsToEvidence turns web pages into chunks whose text carries the URL so the model can cite it.
func webResultsToEvidence(results []WebResult) EvidenceSet {
	if len(results) == 0 {
		return nil
	}
	chunks := make([]Chunk, 0, len(results))
	for _, r := range results {
		if strings.TrimSpace(r.Content) == "" {
			continue
		}
		chunks = append(chunks, Chunk{
			Text:        fmt.Sprintf("Source: %s\n%s", r.URL, r.Content),
			SourceLabel: r.URL,
		})
	}
	return Dedup(chunks)
}

func buildSummaryPrompt(query, evidence string) string {
	var b strings.Builder
	b.WriteString("You are a medical knowledge assistant.\n\n")
	b.WriteString("Answer the question below using the evidence that follows. ")
	b.WriteString("Integrate the information from every source section into one coherent answer, ")
	b.WriteString("structure it with short headings or bullet points, and cite the source URL for any statement taken from web search results. ")
	b.WriteString("If the evidence does not answer the question, say so plainly.\n\n")
	fmt.Fprintf(&b, "Question:\n%q\n\n", query)
	b.WriteString("Evidence:\n")
	b.WriteString(evidence)
	return b.String()
}
