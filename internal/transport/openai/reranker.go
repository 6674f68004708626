package openai

import (
	"context"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/assesshub/recommender/internal/domain"
	"github.com/assesshub/recommender/internal/metrics"
)

// Reranker calls the chat completion endpoint and returns the raw model text.
// Prompt construction and output parsing live in the rerank usecase; this layer
// only moves bytes.
type Reranker struct {
	client    *openai.Client
	model     string
	temp      float32
	maxTokens int
}

// RerankerConfig holds the chat completion settings.
type RerankerConfig struct {
	APIKey    string
	BaseURL   string
	Model     string
	Temp      float32
	MaxTokens int
}

// NewReranker creates an OpenAI-compatible chat completion client.
func NewReranker(cfg *RerankerConfig) *Reranker {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &Reranker{
		client:    openai.NewClientWithConfig(clientCfg),
		model:     cfg.Model,
		temp:      cfg.Temp,
		maxTokens: cfg.MaxTokens,
	}
}

// Complete sends one user prompt and returns the completion text. Failures are
// wrapped with domain.ErrRerankUnavailable so callers degrade instead of failing.
func (r *Reranker) Complete(ctx context.Context, prompt string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:       r.model,
		Temperature: r.temp,
		MaxTokens:   r.maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	}

	start := time.Now()

	resp, err := r.client.CreateChatCompletion(ctx, req)

	metrics.RerankRequestDuration.WithLabelValues(r.model).Observe(time.Since(start).Seconds())

	if err != nil {
		return "", fmt.Errorf("chat completion: %v: %w", err, domain.ErrRerankUnavailable)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices: %w", domain.ErrRerankUnavailable)
	}

	return resp.Choices[0].Message.Content, nil
}
