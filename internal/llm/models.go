package llm

import (
	"context"
	"fmt"
	"net/http"
)

// ModelsClient checks that an OpenAI-compatible server is reachable and serves a given model.
type ModelsClient struct {
	endpoint
	model string
}

// NewModelsClient creates a client that checks model is served at baseURL.
func NewModelsClient(baseURL, apiKey, model string) *ModelsClient {
	return &ModelsClient{
		endpoint: newEndpoint(baseURL, apiKey),
		model:    model,
	}
}

// ModelStatus is one entry of the /v1/models listing.
type ModelStatus struct {
	ID string `json:"id"`
}

// ModelsResponse represents the response from the /v1/models endpoint.
type ModelsResponse struct {
	Data []ModelStatus `json:"data"`
}

// Check returns nil when the server lists the configured model.
// An empty model name only requires the listing to succeed.
func (c *ModelsClient) Check(ctx context.Context) error {
	var models ModelsResponse
	if err := c.do(ctx, http.MethodGet, "/v1/models", nil, &models); err != nil {
		return fmt.Errorf("failed to list models: %w", err)
	}

	if c.model == "" {
		return nil
	}
	for _, model := range models.Data {
		if model.ID == c.model {
			return nil
		}
	}
	return fmt.Errorf("model %q not served", c.model)
}
