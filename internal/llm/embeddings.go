package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// DefaultEmbeddingBatchSize caps the number of texts sent in one embeddings request.
const DefaultEmbeddingBatchSize = 32

// EmbeddingsClient embeds texts through the /v1/embeddings endpoint of an
// OpenAI-compatible server such as llama.cpp.
type EmbeddingsClient struct {
	endpoint
	model        string
	expectedSize int

	// BatchSize is the number of texts per request; <= 0 sends everything at once.
	BatchSize int
}

// NewEmbeddingsClient creates a new embeddings client.
// Every vector returned by EmbedTexts must have expectedSize dimensions,
// the size of the vector collection.
func NewEmbeddingsClient(baseURL, apiKey, model string, expectedSize int) *EmbeddingsClient {
	return &EmbeddingsClient{
		endpoint:     newEndpoint(baseURL, apiKey),
		model:        model,
		expectedSize: expectedSize,
		BatchSize:    DefaultEmbeddingBatchSize,
	}
}

// EmbeddingsRequest represents the request payload for embeddings API.
type EmbeddingsRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

// EmbeddingData represents a single embedding in the response.
type EmbeddingData struct {
	Index     int       `json:"index"`
	Embedding []float64 `json:"embedding"`
}

// EmbeddingsResponse represents the response from the embeddings API.
type EmbeddingsResponse struct {
	Data []EmbeddingData `json:"data"`
}

// EmbedTexts returns one vector per text, in input order.
func (c *EmbeddingsClient) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, errors.New("empty input array")
	}

	batchSize := c.BatchSize
	if batchSize <= 0 {
		batchSize = len(texts)
	}

	result := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += batchSize {
		end := min(start+batchSize, len(texts))
		vectors, err := c.embedBatch(ctx, texts[start:end])
		if err != nil {
			return nil, fmt.Errorf("batch %d-%d: %w", start, end, err)
		}
		result = append(result, vectors...)
	}

	return result, nil
}

func (c *EmbeddingsClient) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	var resp EmbeddingsResponse
	req := EmbeddingsRequest{Model: c.model, Input: texts}
	if err := c.do(ctx, http.MethodPost, "/v1/embeddings", req, &resp); err != nil {
		return nil, err
	}

	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(resp.Data))
	}

	// Servers may answer out of order; index says which input each vector belongs to.
	ordered := make([][]float64, len(texts))
	for _, data := range resp.Data {
		if data.Index < 0 || data.Index >= len(texts) || ordered[data.Index] != nil {
			return nil, fmt.Errorf("invalid embedding index %d", data.Index)
		}
		ordered[data.Index] = data.Embedding
	}
	return toFloat32Vectors(ordered, c.expectedSize)
}

// toFloat32Vectors converts API vectors to float32 and validates their size.
func toFloat32Vectors(embeddings [][]float64, expectedSize int) ([][]float32, error) {
	result := make([][]float32, len(embeddings))
	for i, embedding := range embeddings {
		if len(embedding) != expectedSize {
			return nil, fmt.Errorf("embedding %d has size %d, expected %d", i, len(embedding), expectedSize)
		}

		vec := make([]float32, len(embedding))
		for j, v := range embedding {
			vec[j] = float32(v)
		}
		result[i] = vec
	}
	return result, nil
}
