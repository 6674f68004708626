// Package recommend orchestrates the recommendation pipeline: validate, retrieve,
// rerank, shape.
package recommend

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	domrec "github.com/assesshub/recommender/internal/domain/recommend"
)

// Result is the shaped pipeline output.
type Result struct {
	Recommendations  []domrec.Candidate
	Degraded         bool
	ProcessingTime   time.Duration
	TotalAssessments int
}

// Config holds orchestrator settings.
type Config struct {
	// MaxTopK is the server-side ceiling on requested result counts.
	MaxTopK int
	// DefaultTopK applies when the request omits top_k entirely.
	DefaultTopK int
	// DefaultMinSimilarity applies when the request leaves min_similarity unset.
	DefaultMinSimilarity float64
}

// Service is the recommendation orchestrator.
type Service struct {
	retriever Retriever
	reranker  Reranker
	catalog   CatalogCounter
	cfg       Config
	logger    *zap.Logger
}

// New creates the orchestrator.
func New(retriever Retriever, reranker Reranker, catalog CatalogCounter, cfg Config, logger *zap.Logger) *Service {
	return &Service{retriever: retriever, reranker: reranker, catalog: catalog, cfg: cfg, logger: logger}
}

// Recommend runs the full pipeline for one query. A nil topK means the caller
// omitted it and gets the configured default; an explicit zero fails validation.
// Validation failures return before any external call. An empty retrieval is a
// valid empty response, not an error. Rerank failures degrade silently into
// similarity ordering.
func (s *Service) Recommend(
	ctx context.Context, query string, topK *int, filter domrec.Filter,
) (Result, error) {
	start := time.Now()

	k := s.cfg.DefaultTopK
	if k <= 0 {
		k = domrec.DefaultTopK
	}
	if topK != nil {
		k = *topK
	}
	if filter.MinSimilarity == 0 && s.cfg.DefaultMinSimilarity > 0 {
		filter.MinSimilarity = s.cfg.DefaultMinSimilarity
	}

	req, err := domrec.NewRequest(query, k, filter, s.cfg.MaxTopK)
	if err != nil {
		return Result{}, fmt.Errorf("validate request: %w", err)
	}

	candidates, err := s.retriever.Retrieve(ctx, &req)
	if err != nil {
		return Result{}, err
	}

	result := Result{TotalAssessments: s.countCatalog(ctx)}

	if len(candidates) == 0 {
		result.ProcessingTime = time.Since(start)
		return result, nil
	}

	result.Recommendations, result.Degraded = s.reranker.Rerank(ctx, req.Query(), candidates, req.TopK())
	result.ProcessingTime = time.Since(start)

	s.logger.Info("recommendation served",
		zap.Int("candidates", len(candidates)),
		zap.Int("recommended", len(result.Recommendations)),
		zap.Bool("degraded", result.Degraded),
		zap.Duration("took", result.ProcessingTime),
	)

	return result, nil
}

// countCatalog is metadata only; a failing count never fails the request.
func (s *Service) countCatalog(ctx context.Context) int {
	n, err := s.catalog.Count(ctx)
	if err != nil {
		s.logger.Warn("catalog count failed", zap.Error(err))
		return 0
	}
	return n
}
