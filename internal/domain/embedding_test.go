package domain

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
)

type mockEmbedder struct {
	embedFn func(ctx context.Context, text string) (EmbeddingResult, error)
	calls   int
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) (EmbeddingResult, error) {
	m.calls++
	if m.embedFn != nil {
		return m.embedFn(ctx, text)
	}
	return EmbeddingResult{Embedding: []float32{0.1, 0.2}}, nil
}

func TestRetryEmbedder_SucceedsAfterFailures(t *testing.T) {
	wantErr := errors.New("transient")
	mock := &mockEmbedder{}
	mock.embedFn = func(context.Context, string) (EmbeddingResult, error) {
		if mock.calls < 3 {
			return EmbeddingResult{}, wantErr
		}
		return EmbeddingResult{Embedding: []float32{1}}, nil
	}

	r := NewRetryEmbedder(mock, 3, time.Millisecond, zap.NewNop())
	res, err := r.Embed(context.Background(), "query")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mock.calls != 3 {
		t.Errorf("expected 3 attempts, got %d", mock.calls)
	}
	if len(res.Embedding) != 1 {
		t.Errorf("result not passed through: %+v", res)
	}
}

func TestRetryEmbedder_Exhausted(t *testing.T) {
	wantErr := errors.New("provider down")
	mock := &mockEmbedder{embedFn: func(context.Context, string) (EmbeddingResult, error) {
		return EmbeddingResult{}, wantErr
	}}

	r := NewRetryEmbedder(mock, 3, time.Millisecond, zap.NewNop())
	_, err := r.Embed(context.Background(), "query")
	if err == nil {
		t.Fatal("expected error after exhausting attempts")
	}
	if !errors.Is(err, wantErr) {
		t.Errorf("error %v does not wrap the last provider error", err)
	}
	if mock.calls != 3 {
		t.Errorf("expected 3 attempts, got %d", mock.calls)
	}
}

func TestRetryEmbedder_StopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	mock := &mockEmbedder{embedFn: func(context.Context, string) (EmbeddingResult, error) {
		cancel()
		return EmbeddingResult{}, errors.New("transient")
	}}

	r := NewRetryEmbedder(mock, 5, time.Millisecond, zap.NewNop())
	_, err := r.Embed(ctx, "query")
	if err == nil {
		t.Fatal("expected error")
	}
	if mock.calls != 1 {
		t.Errorf("expected no retries after cancellation, got %d attempts", mock.calls)
	}
}

func TestInstructionEmbedder_PrependsInstruction(t *testing.T) {
	var seen string
	mock := &mockEmbedder{embedFn: func(_ context.Context, text string) (EmbeddingResult, error) {
		seen = text
		return EmbeddingResult{Embedding: []float32{1}}, nil
	}}

	e := NewInstructionEmbedder(mock, "query: ")
	if _, err := e.Embed(context.Background(), "find java tests"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if seen != "query: find java tests" {
		t.Errorf("inner embedder saw %q", seen)
	}
}

func TestInstructionEmbedder_BatchFallback(t *testing.T) {
	var seen []string
	mock := &mockEmbedder{embedFn: func(_ context.Context, text string) (EmbeddingResult, error) {
		seen = append(seen, text)
		return EmbeddingResult{Embedding: []float32{1}, PromptTokens: 2, TotalTokens: 2}, nil
	}}

	e := NewInstructionEmbedder(mock, "doc: ")
	res, err := e.BatchEmbed(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Embeddings) != 2 {
		t.Fatalf("expected 2 embeddings, got %d", len(res.Embeddings))
	}
	if res.PromptTokens != 4 {
		t.Errorf("token usage not aggregated: %d", res.PromptTokens)
	}
	if seen[0] != "doc: a" || seen[1] != "doc: b" {
		t.Errorf("instruction not applied per text: %v", seen)
	}
}

func TestBatchFallback_PropagatesError(t *testing.T) {
	wantErr := errors.New("boom")
	mock := &mockEmbedder{embedFn: func(_ context.Context, text string) (EmbeddingResult, error) {
		if text == "b" {
			return EmbeddingResult{}, wantErr
		}
		return EmbeddingResult{Embedding: []float32{1}}, nil
	}}

	_, err := BatchFallback(context.Background(), mock, []string{"a", "b", "c"})
	if !errors.Is(err, wantErr) {
		t.Errorf("expected wrapped provider error, got %v", err)
	}
	if mock.calls != 2 {
		t.Errorf("expected fallback to stop at first failure, got %d calls", mock.calls)
	}
}
