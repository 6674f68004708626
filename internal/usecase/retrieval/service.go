// Package retrieval turns a validated query into a candidate set: embed the text,
// then run filtered KNN search with an expanded k so the rerank stage has slack.
package retrieval

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/assesshub/recommender/internal/domain"
	"github.com/assesshub/recommender/internal/domain/recommend"
)

// Config holds retrieval tuning knobs.
type Config struct {
	// Multiplier expands topK so integrity filtering and reranking have spare
	// candidates to drop.
	Multiplier int
	// MinExtra guarantees a minimum slack for small topK values.
	MinExtra int
	// EmbedTimeout bounds the embedding call independently of the request deadline.
	EmbedTimeout time.Duration
}

// Service is the retrieval engine.
type Service struct {
	embed   Embedder
	catalog Catalog
	cfg     Config
	logger  *zap.Logger
}

// New creates a retrieval service.
func New(embed Embedder, catalog Catalog, cfg Config, logger *zap.Logger) *Service {
	if cfg.Multiplier <= 0 {
		cfg.Multiplier = 2
	}
	if cfg.MinExtra < 0 {
		cfg.MinExtra = 0
	}
	return &Service{embed: embed, catalog: catalog, cfg: cfg, logger: logger}
}

// Retrieve embeds the query and returns candidates ordered by similarity. An
// embedding failure is fatal for the request; retries already happened inside the
// embedder chain. An empty candidate set is a valid outcome, not an error.
func (s *Service) Retrieve(ctx context.Context, req *recommend.Request) ([]recommend.Candidate, error) {
	embCtx := ctx
	if s.cfg.EmbedTimeout > 0 {
		var cancel context.CancelFunc
		embCtx, cancel = context.WithTimeout(ctx, s.cfg.EmbedTimeout)
		defer cancel()
	}

	embResult, err := s.embed.Embed(embCtx, req.Query())
	if err != nil {
		return nil, fmt.Errorf("vectorize query: %w", err)
	}

	retrievedK := req.TopK() * s.cfg.Multiplier
	if minK := req.TopK() + s.cfg.MinExtra; minK > retrievedK {
		retrievedK = minK
	}

	candidates, err := s.catalog.Search(ctx, embResult.Embedding, req.Filter(), retrievedK)
	if err != nil {
		return nil, fmt.Errorf("search candidates: %w: %w", domain.ErrRetrieval, err)
	}

	s.logger.Debug("retrieved candidates",
		zap.Int("requested_k", retrievedK),
		zap.Int("returned", len(candidates)),
		zap.Int("embed_tokens", embResult.TotalTokens),
	)

	return candidates, nil
}
