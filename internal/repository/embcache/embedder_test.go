package embcache

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/assesshub/recommender/internal/db"
	"github.com/assesshub/recommender/internal/domain"
)

type mockKV struct {
	getFn    func(ctx context.Context, key string) ([]byte, error)
	setFn    func(ctx context.Context, key string, value []byte) error
	setTTLFn func(ctx context.Context, key string, value []byte, ttl time.Duration) error
	sets     int
	ttlSets  int
}

func (m *mockKV) Get(ctx context.Context, key string) ([]byte, error) {
	if m.getFn != nil {
		return m.getFn(ctx, key)
	}
	return nil, db.ErrKeyNotFound
}

func (m *mockKV) Set(ctx context.Context, key string, value []byte) error {
	m.sets++
	if m.setFn != nil {
		return m.setFn(ctx, key, value)
	}
	return nil
}

func (m *mockKV) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.ttlSets++
	if m.setTTLFn != nil {
		return m.setTTLFn(ctx, key, value, ttl)
	}
	return nil
}

type mockEmbedder struct {
	embedFn func(ctx context.Context, text string) (domain.EmbeddingResult, error)
	calls   int
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	m.calls++
	if m.embedFn != nil {
		return m.embedFn(ctx, text)
	}
	return domain.EmbeddingResult{Embedding: []float32{0.1, 0.2}, TotalTokens: 7}, nil
}

func newTestCache(t *testing.T) (*CachedEmbedder, *mockEmbedder, *mockKV) {
	t.Helper()
	inner := &mockEmbedder{}
	kv := &mockKV{}
	c := New(inner, kv, Config{Model: "text-embedding-3-small"}, nil, zap.NewNop())
	return c, inner, kv
}

func TestEmbed_MissCallsInnerAndCaches(t *testing.T) {
	c, inner, kv := newTestCache(t)

	res, err := c.Embed(context.Background(), "java developers")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inner.calls != 1 {
		t.Errorf("expected 1 inner call, got %d", inner.calls)
	}
	if kv.sets != 1 {
		t.Errorf("expected vector cached once, got %d sets", kv.sets)
	}
	if res.TotalTokens != 7 {
		t.Errorf("miss should report real token usage, got %d", res.TotalTokens)
	}
}

func TestEmbed_HitSkipsInner(t *testing.T) {
	c, inner, kv := newTestCache(t)

	kv.getFn = func(context.Context, string) ([]byte, error) {
		return vectorToCacheBytes([]float32{0.5, 0.25}), nil
	}

	res, err := c.Embed(context.Background(), "java developers")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inner.calls != 0 {
		t.Errorf("inner embedder should not be called on a hit, got %d calls", inner.calls)
	}
	if len(res.Embedding) != 2 || res.Embedding[0] != 0.5 {
		t.Errorf("unexpected cached vector: %v", res.Embedding)
	}
	if res.TotalTokens != 0 {
		t.Errorf("hit should report zero token usage, got %d", res.TotalTokens)
	}
}

func TestEmbed_CorruptCacheFallsThrough(t *testing.T) {
	c, inner, kv := newTestCache(t)

	kv.getFn = func(context.Context, string) ([]byte, error) {
		return []byte("abc"), nil // not a multiple of 4
	}

	if _, err := c.Embed(context.Background(), "query"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inner.calls != 1 {
		t.Errorf("corrupt cache entry must fall through to the provider, got %d calls", inner.calls)
	}
}

func TestEmbed_CacheReadErrorFallsThrough(t *testing.T) {
	c, inner, kv := newTestCache(t)

	kv.getFn = func(context.Context, string) ([]byte, error) {
		return nil, errors.New("connection reset")
	}

	if _, err := c.Embed(context.Background(), "query"); err != nil {
		t.Fatalf("cache errors must not fail the request: %v", err)
	}
	if inner.calls != 1 {
		t.Errorf("expected provider call, got %d", inner.calls)
	}
}

func TestEmbed_InnerErrorNotCached(t *testing.T) {
	c, inner, kv := newTestCache(t)

	wantErr := errors.New("provider down")
	inner.embedFn = func(context.Context, string) (domain.EmbeddingResult, error) {
		return domain.EmbeddingResult{}, wantErr
	}

	_, err := c.Embed(context.Background(), "query")
	if !errors.Is(err, wantErr) {
		t.Errorf("expected wrapped provider error, got %v", err)
	}
	if kv.sets != 0 {
		t.Errorf("failed embeds must not be cached, got %d sets", kv.sets)
	}
}

func TestEmbed_TTLBoundsCacheEntries(t *testing.T) {
	inner := &mockEmbedder{}
	kv := &mockKV{}
	c := New(inner, kv, Config{Model: "text-embedding-3-small", TTL: time.Hour}, nil, zap.NewNop())

	var gotTTL time.Duration
	kv.setTTLFn = func(_ context.Context, _ string, _ []byte, ttl time.Duration) error {
		gotTTL = ttl
		return nil
	}

	if _, err := c.Embed(context.Background(), "query"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if kv.ttlSets != 1 || kv.sets != 0 {
		t.Errorf("expected one expiring write, got ttlSets=%d sets=%d", kv.ttlSets, kv.sets)
	}
	if gotTTL != time.Hour {
		t.Errorf("ttl = %v, want 1h", gotTTL)
	}
}

func TestEmbed_ZeroTTLStoresWithoutExpiry(t *testing.T) {
	c, _, kv := newTestCache(t)

	if _, err := c.Embed(context.Background(), "query"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if kv.sets != 1 || kv.ttlSets != 0 {
		t.Errorf("expected plain Set for zero TTL, got sets=%d ttlSets=%d", kv.sets, kv.ttlSets)
	}
}

func TestCacheKey_CoversModel(t *testing.T) {
	kv := &mockKV{}
	a := New(&mockEmbedder{}, kv, Config{Model: "model-a"}, nil, zap.NewNop())
	b := New(&mockEmbedder{}, kv, Config{Model: "model-b"}, nil, zap.NewNop())

	if a.cacheKey("same text") == b.cacheKey("same text") {
		t.Error("cache keys must differ across models")
	}
	if a.cacheKey("text one") == a.cacheKey("text two") {
		t.Error("cache keys must differ across texts")
	}
}

func TestCacheKey_UsesConfiguredPrefix(t *testing.T) {
	kv := &mockKV{}
	c := New(&mockEmbedder{}, kv, Config{Model: "m", KeyPrefix: "staging:"}, nil, zap.NewNop())
	if !strings.HasPrefix(c.cacheKey("text"), "staging:emb_cache:") {
		t.Errorf("cache key not under configured prefix: %q", c.cacheKey("text"))
	}

	d := New(&mockEmbedder{}, kv, Config{Model: "m"}, nil, zap.NewNop())
	if !strings.HasPrefix(d.cacheKey("text"), domain.KeyPrefix+"emb_cache:") {
		t.Errorf("empty prefix should fall back to the default namespace: %q", d.cacheKey("text"))
	}
}
