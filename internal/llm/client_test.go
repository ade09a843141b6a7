package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func chatReply(w http.ResponseWriter, content, finishReason string) {
	resp := ChatResponse{
		ID:     "test-id",
		Object: "chat.completion",
		Choices: []ChatChoice{
			{Message: Message{Role: "assistant", Content: content}, FinishReason: finishReason},
		},
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func TestClient_Generate(t *testing.T) {
	tests := []struct {
		name       string
		serverResp func(w http.ResponseWriter, r *http.Request)
		wantReply  string
		wantErr    func(error) bool
	}{
		{
			name: "reply is trimmed",
			serverResp: func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost {
					t.Errorf("expected POST, got %s", r.Method)
				}
				if r.URL.Path != "/v1/chat/completions" {
					t.Errorf("expected /v1/chat/completions, got %s", r.URL.Path)
				}
				if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
					t.Errorf("Authorization = %q", got)
				}
				chatReply(w, "\n  Rest and fluids are usually enough.  \n", "stop")
			},
			wantReply: "Rest and fluids are usually enough.",
		},
		{
			name: "truncated reply is still returned",
			serverResp: func(w http.ResponseWriter, r *http.Request) {
				chatReply(w, "Possible causes include", "length")
			},
			wantReply: "Possible causes include",
		},
		{
			name: "no choices returned",
			serverResp: func(w http.ResponseWriter, r *http.Request) {
				_ = json.NewEncoder(w).Encode(ChatResponse{ID: "test-id", Choices: []ChatChoice{}})
			},
			wantErr: func(err error) bool { return err != nil },
		},
		{
			name: "blank reply",
			serverResp: func(w http.ResponseWriter, r *http.Request) {
				chatReply(w, "   ", "stop")
			},
			wantErr: func(err error) bool { return errors.Is(err, ErrEmptyCompletion) },
		},
		{
			name: "server error keeps status and body",
			serverResp: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte("loading model\n"))
			},
			wantErr: func(err error) bool {
				var statusErr *StatusError
				return errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusServiceUnavailable && statusErr.Body == "loading model"
			},
		},
		{
			name: "malformed body",
			serverResp: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte("{"))
			},
			wantErr: func(err error) bool { return err != nil && strings.Contains(err.Error(), "decode") },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(tt.serverResp))
			defer server.Close()

			client := NewClient(server.URL+"/", "test-key", "test-model")
			reply, err := client.Generate(context.Background(), "I have a mild fever", 0.2, 256)

			if tt.wantErr != nil {
				if !tt.wantErr(err) {
					t.Errorf("Generate() error = %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Generate() unexpected error: %v", err)
			}
			if reply != tt.wantReply {
				t.Errorf("Generate() reply = %q, want %q", reply, tt.wantReply)
			}
		})
	}
}

func TestClient_Generate_SendsSamplingParams(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req ChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		if req.Model != "test-model" {
			t.Errorf("model = %q, want test-model", req.Model)
		}
		if req.Temperature != 0.2 {
			t.Errorf("temperature = %v, want 0.2", req.Temperature)
		}
		if req.MaxTokens != 1024 {
			t.Errorf("max_tokens = %d, want 1024", req.MaxTokens)
		}
		if len(req.Messages) != 1 || req.Messages[0].Role != "user" || req.Messages[0].Content != "prompt" {
			t.Errorf("messages = %#v, want single user prompt", req.Messages)
		}
		chatReply(w, "analysis", "stop")
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key", "test-model")
	reply, err := client.Generate(context.Background(), "prompt", 0.2, 1024)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if reply != "analysis" {
		t.Errorf("Generate() reply = %v, want analysis", reply)
	}
}

func TestClient_Generate_RequestShape(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var raw map[string]any
		_ = json.NewDecoder(r.Body).Decode(&raw)
		if _, ok := raw["temperature"]; !ok {
			t.Error("temperature 0 must be sent explicitly")
		}
		if _, ok := raw["max_tokens"]; ok {
			t.Error("max_tokens 0 must be omitted")
		}
		if r.Header.Get("Authorization") != "" {
			t.Error("no Authorization header expected without an API key")
		}
		chatReply(w, "ok", "stop")
	}))
	defer server.Close()

	client := NewClient(server.URL, "", "test-model")
	if _, err := client.Generate(context.Background(), "prompt", 0, 0); err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
}

func TestStatusError_BodyIsCapped(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(strings.Repeat("x", 4*maxErrorBody)))
	}))
	defer server.Close()

	_, err := NewClient(server.URL, "k", "m").Generate(context.Background(), "p", 0, 0)
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("error = %v, want *StatusError", err)
	}
	if len(statusErr.Body) != maxErrorBody {
		t.Errorf("body length = %d, want %d", len(statusErr.Body), maxErrorBody)
	}
}
