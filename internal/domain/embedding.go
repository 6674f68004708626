package domain

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"
)

// Embedder is the shared text vectorization contract between layers.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// BatchEmbedder vectorizes multiple texts in a single API call.
type BatchEmbedder interface {
	BatchEmbed(ctx context.Context, texts []string) (BatchEmbeddingResult, error)
}

// HealthChecker verifies embedding provider availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// EmbeddingResult carries the embedding vector and token usage through the decorator chain.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// BatchEmbeddingResult carries multiple embedding vectors and aggregate token usage.
type BatchEmbeddingResult struct {
	Embeddings   [][]float32
	PromptTokens int
	TotalTokens  int
}

// BatchFallback calls Embed once per text. Safety net for providers without native batch.
func BatchFallback(ctx context.Context, e Embedder, texts []string) (BatchEmbeddingResult, error) {
	embeddings := make([][]float32, len(texts))
	var totalPrompt, totalTokens int

	for i, text := range texts {
		res, err := e.Embed(ctx, text)
		if err != nil {
			return BatchEmbeddingResult{}, fmt.Errorf("fallback embed [%d]: %w", i, err)
		}
		embeddings[i] = res.Embedding
		totalPrompt += res.PromptTokens
		totalTokens += res.TotalTokens
	}

	return BatchEmbeddingResult{
		Embeddings:   embeddings,
		PromptTokens: totalPrompt,
		TotalTokens:  totalTokens,
	}, nil
}

// RetryEmbedder retries transient provider failures with exponential backoff and
// jitter. A query cannot proceed without its vector, so the request budget is spent
// here before the failure becomes fatal.
type RetryEmbedder struct {
	inner       Embedder
	maxAttempts int
	baseDelay   time.Duration
	logger      *zap.Logger
}

// NewRetryEmbedder creates a retrying decorator. maxAttempts counts the initial call.
func NewRetryEmbedder(inner Embedder, maxAttempts int, baseDelay time.Duration, logger *zap.Logger) *RetryEmbedder {
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	if baseDelay <= 0 {
		baseDelay = 200 * time.Millisecond
	}
	return &RetryEmbedder{inner: inner, maxAttempts: maxAttempts, baseDelay: baseDelay, logger: logger}
}

// Embed delegates to the inner embedder, retrying on failure until attempts or the
// context run out.
func (r *RetryEmbedder) Embed(ctx context.Context, text string) (EmbeddingResult, error) {
	var lastErr error

	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		res, err := r.inner.Embed(ctx, text)
		if err == nil {
			return res, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			break
		}
		if attempt == r.maxAttempts {
			break
		}

		delay := r.baseDelay << (attempt - 1)
		delay += time.Duration(rand.Int63n(int64(delay) / 2))
		r.logger.Warn("embedding attempt failed, retrying",
			zap.Int("attempt", attempt),
			zap.Duration("backoff", delay),
			zap.Error(err),
		)

		select {
		case <-ctx.Done():
			return EmbeddingResult{}, fmt.Errorf("embed cancelled: %w", ctx.Err())
		case <-time.After(delay):
		}
	}

	return EmbeddingResult{}, fmt.Errorf("embed after %d attempts: %w", r.maxAttempts, lastErr)
}

// InstructionEmbedder is a domain decorator that prepends instruction text before
// embedding. Retrieval-tuned models expect different prefixes for queries and documents.
type InstructionEmbedder struct {
	inner       Embedder
	instruction string
}

// NewInstructionEmbedder creates a decorator that prepends instruction text.
func NewInstructionEmbedder(inner Embedder, instruction string) *InstructionEmbedder {
	return &InstructionEmbedder{inner: inner, instruction: instruction}
}

// Embed prepends the instruction and delegates to the inner embedder.
func (e *InstructionEmbedder) Embed(ctx context.Context, text string) (EmbeddingResult, error) {
	result, err := e.inner.Embed(ctx, e.instruction+text)
	if err != nil {
		return EmbeddingResult{}, fmt.Errorf("instruction embed: %w", err)
	}
	return result, nil
}

// BatchEmbed prepends the instruction to each text. Falls back to per-text Embed when
// the inner embedder has no native batch support.
func (e *InstructionEmbedder) BatchEmbed(ctx context.Context, texts []string) (BatchEmbeddingResult, error) {
	prefixed := make([]string, len(texts))
	for i, t := range texts {
		prefixed[i] = e.instruction + t
	}

	if be, ok := e.inner.(BatchEmbedder); ok {
		res, err := be.BatchEmbed(ctx, prefixed)
		if err != nil {
			return BatchEmbeddingResult{}, fmt.Errorf("instruction batch embed: %w", err)
		}
		return res, nil
	}

	res, err := BatchFallback(ctx, e.inner, prefixed)
	if err != nil {
		return BatchEmbeddingResult{}, fmt.Errorf("instruction batch embed fallback: %w", err)
	}
	return res, nil
}
