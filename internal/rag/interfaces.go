package rag

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_collaborators.go -package=mocks medassist/internal/rag VectorSearcher,Generator,WebSearcher

import "context"

// VectorSearcher is the read side of the vector store.
// Implementations embed the query and return the k most similar chunks, most similar first.
type VectorSearcher interface {
	SimilaritySearch(ctx context.Context, query string, k int) ([]Chunk, error)
}

// Generator produces text from a prompt.
type Generator interface {
	// Generate returns the model output for prompt. maxOutputTokens is a hint; 0 means no limit.
	Generate(ctx context.Context, prompt string, temperature float64, maxOutputTokens int) (string, error)
}

// WebSearcher fetches supplementary evidence from the web.
// Implementations skip pages that fail to load and return whatever succeeded.
type WebSearcher interface {
	Search(ctx context.Context, query string, numResults int) ([]WebResult, error)
}
