package rag

import (
	"context"
	"fmt"

	"medassist/internal/contextutil"
)

// Retriever wraps the vector store's similarity search and deduplicates the result.
type Retriever struct {
	store VectorSearcher
}

// NewRetriever creates a Retriever over store.
func NewRetriever(store VectorSearcher) *Retriever {
	return &Retriever{store: store}
}

// Retrieve returns the deduplicated evidence for query, asking the store for k candidates.
// A store failure is returned as an error; callers treat it as "no evidence" and continue.
func (r *Retriever) Retrieve(ctx context.Context, query string, k int) (EvidenceSet, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if k < 1 {
		return nil, fmt.Errorf("k must be at least 1, got %d", k)
	}

	chunks, err := r.store.SimilaritySearch(ctx, query, k)
	if err != nil {
		logger.WarnContext(ctx, "vector store search failed", "k", k, "error", err)
		return nil, fmt.Errorf("failed to search vector store: %w", err)
	}

	evidence := Dedup(chunks)
	logger.DebugContext(ctx, "evidence retrieved", "k", k, "candidates", len(chunks), "unique", len(evidence))
	return evidence, nil
}
