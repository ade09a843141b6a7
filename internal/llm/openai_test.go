package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestOpenAIGenerator_Generate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("expected /v1/chat/completions, got %s", r.URL.Path)
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		if body["model"] != "gpt-test" {
			t.Errorf("model = %v, want gpt-test", body["model"])
		}
		if body["temperature"] != 0.4 {
			t.Errorf("temperature = %v, want 0.4", body["temperature"])
		}
		if body["max_tokens"] != float64(1500) {
			t.Errorf("max_tokens = %v, want 1500", body["max_tokens"])
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"created": 1,
			"model": "gpt-test",
			"choices": [{"index": 0, "finish_reason": "stop", "message": {"role": "assistant", "content": "summary text"}}]
		}`))
	}))
	defer server.Close()

	gen := NewOpenAIGenerator(server.URL+"/v1/", "test-key", "gpt-test")
	got, err := gen.Generate(context.Background(), "What causes diabetes?", 0.4, 1500)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if got != "summary text" {
		t.Errorf("Generate() = %q, want summary text", got)
	}
}

func TestOpenAIGenerator_Generate_Error(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error": {"message": "bad model", "type": "invalid_request_error"}}`))
	}))
	defer server.Close()

	gen := NewOpenAIGenerator(server.URL+"/v1/", "test-key", "gpt-test")
	if _, err := gen.Generate(context.Background(), "q", 0.2, 0); err == nil {
		t.Fatal("Generate() expected error, got nil")
	}
}

func TestOpenAIEmbedder_EmbedTexts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/embeddings" {
			t.Errorf("expected /v1/embeddings, got %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		// Returned out of order on purpose.
		_, _ = w.Write([]byte(`{
			"object": "list",
			"model": "embed-test",
			"data": [
				{"object": "embedding", "index": 1, "embedding": [0.0, 1.0, 0.0]},
				{"object": "embedding", "index": 0, "embedding": [1.0, 0.0, 0.0]}
			],
			"usage": {"prompt_tokens": 2, "total_tokens": 2}
		}`))
	}))
	defer server.Close()

	embedder := NewOpenAIEmbedder(server.URL+"/v1/", "test-key", "embed-test", 3)
	vectors, err := embedder.EmbedTexts(context.Background(), []string{"first", "second"})
	if err != nil {
		t.Fatalf("EmbedTexts() error = %v", err)
	}
	if len(vectors) != 2 {
		t.Fatalf("EmbedTexts() returned %d vectors, want 2", len(vectors))
	}
	if vectors[0][0] != 1 || vectors[1][1] != 1 {
		t.Errorf("EmbedTexts() vectors not in input order: %v", vectors)
	}
}

func TestOpenAIEmbedder_EmbedTexts_SizeMismatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"object": "list", "model": "m", "data": [{"object": "embedding", "index": 0, "embedding": [1.0]}]}`))
	}))
	defer server.Close()

	embedder := NewOpenAIEmbedder(server.URL+"/v1/", "test-key", "m", 3)
	if _, err := embedder.EmbedTexts(context.Background(), []string{"x"}); err == nil {
		t.Fatal("EmbedTexts() expected size mismatch error")
	}
	if _, err := embedder.EmbedTexts(context.Background(), nil); err == nil {
		t.Fatal("EmbedTexts() expected error for empty input")
	}
}
