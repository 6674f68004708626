package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/assesshub/recommender/internal/domain"
)

// chatAPIResponse mirrors the OpenAI-compatible chat completion response.
type chatAPIResponse struct {
	ID      string          `json:"id"`
	Object  string          `json:"object"`
	Model   string          `json:"model"`
	Choices []chatAPIChoice `json:"choices"`
}

type chatAPIChoice struct {
	Index   int `json:"index"`
	Message struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"message"`
	FinishReason string `json:"finish_reason"`
}

func newTestReranker(url string) *Reranker {
	return NewReranker(&RerankerConfig{
		APIKey:    "test-key",
		BaseURL:   url,
		Model:     "test-chat-model",
		MaxTokens: 512,
	})
}

func TestReranker_Complete(t *testing.T) {
	var gotPrompt string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}

		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Model != "test-chat-model" {
			t.Errorf("model = %q", req.Model)
		}
		if len(req.Messages) == 1 {
			gotPrompt = req.Messages[0].Content
			if req.Messages[0].Role != "user" {
				t.Errorf("role = %q", req.Messages[0].Role)
			}
		} else {
			t.Errorf("expected 1 message, got %d", len(req.Messages))
		}

		resp := chatAPIResponse{ID: "cmpl-1", Object: "chat.completion", Model: req.Model}
		choice := chatAPIChoice{FinishReason: "stop"}
		choice.Message.Role = "assistant"
		choice.Message.Content = `[{"id":"verify-numerical","explanation":"covers arithmetic"}]`
		resp.Choices = []chatAPIChoice{choice}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	out, err := newTestReranker(server.URL).Complete(context.Background(), "rank these assessments")
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if out != `[{"id":"verify-numerical","explanation":"covers arithmetic"}]` {
		t.Errorf("completion text = %q", out)
	}
	if gotPrompt != "rank these assessments" {
		t.Errorf("prompt = %q", gotPrompt)
	}
}

func TestReranker_NoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(chatAPIResponse{ID: "cmpl-2", Object: "chat.completion"})
	}))
	defer server.Close()

	_, err := newTestReranker(server.URL).Complete(context.Background(), "rank")
	if err == nil {
		t.Fatal("expected error for empty choices")
	}
	if !errors.Is(err, domain.ErrRerankUnavailable) {
		t.Errorf("error not wrapped as rerank unavailable: %v", err)
	}
}

func TestReranker_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "overloaded", "type": "server_error"},
		})
	}))
	defer server.Close()

	_, err := newTestReranker(server.URL).Complete(context.Background(), "rank")
	if err == nil {
		t.Fatal("expected error for 503 response")
	}
	if !errors.Is(err, domain.ErrRerankUnavailable) {
		t.Errorf("error not wrapped as rerank unavailable: %v", err)
	}
}
