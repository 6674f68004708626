// Package rerank orders retrieved candidates with a generative model and attaches
// per-item explanations. The stage is strictly best-effort: any failure degrades
// to similarity ordering and the request still succeeds.
package rerank

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/assesshub/recommender/internal/domain/recommend"
	"github.com/assesshub/recommender/internal/metrics"
)

// FallbackExplanation is attached to every item when the generative rerank is
// unavailable and ordering falls back to raw similarity.
const FallbackExplanation = "Selected for high semantic relevance to the query"

// Config holds rerank tuning knobs.
type Config struct {
	// Timeout bounds the chat completion call independently of the request deadline.
	Timeout time.Duration
}

// Service is the reranker/explainer.
type Service struct {
	chat   ChatClient
	cfg    Config
	logger *zap.Logger
}

// New creates a rerank service.
func New(chat ChatClient, cfg Config, logger *zap.Logger) *Service {
	return &Service{chat: chat, cfg: cfg, logger: logger}
}

// Rerank returns up to topK candidates in relevance order with explanations.
// Degraded reports whether the result fell back to similarity ordering; callers
// treat that as a warning, never a failure. Model output entries referencing ids
// outside the candidate set are dropped and logged, duplicates keep the first
// occurrence.
func (s *Service) Rerank(
	ctx context.Context, query string, candidates []recommend.Candidate, topK int,
) (ranked []recommend.Candidate, degraded bool) {
	if len(candidates) == 0 {
		metrics.RerankRequestsTotal.WithLabelValues("empty").Inc()
		return nil, false
	}

	limit := topK
	if limit > len(candidates) {
		limit = len(candidates)
	}

	entries, err := s.complete(ctx, query, candidates, limit)
	if err != nil {
		s.logger.Warn("rerank degraded to similarity order", zap.Error(err))
		metrics.RerankRequestsTotal.WithLabelValues("degraded").Inc()
		return fallback(candidates, limit), true
	}

	valid := s.filterEntries(entries, candidates)
	if len(valid) == 0 {
		s.logger.Warn("rerank output had no usable entries, falling back")
		metrics.RerankRequestsTotal.WithLabelValues("degraded").Inc()
		return fallback(candidates, limit), true
	}
	if len(valid) > limit {
		valid = valid[:limit]
	}

	byID := make(map[string]recommend.Candidate, len(candidates))
	for _, c := range candidates {
		byID[c.Record.ID] = c
	}

	n := len(valid)
	ranked = make([]recommend.Candidate, 0, limit)
	used := make(map[string]bool, n)
	for i, entry := range valid {
		c := byID[entry.ID]
		c.Explanation = entry.Explanation
		if c.Explanation == "" {
			c.Explanation = FallbackExplanation
		}
		c.RelevanceRank = i + 1
		score := 1.0 - float64(i)/float64(n)
		c.RelevanceScore = &score
		ranked = append(ranked, c)
		used[entry.ID] = true
	}

	// Integrity filtering may not shrink the result below what similarity
	// ordering would provide: top up from the unused candidates.
	for _, c := range candidates {
		if len(ranked) >= limit {
			break
		}
		if used[c.Record.ID] {
			continue
		}
		c.Explanation = FallbackExplanation
		c.RelevanceRank = len(ranked) + 1
		c.RelevanceScore = nil
		ranked = append(ranked, c)
	}

	metrics.RerankRequestsTotal.WithLabelValues("ok").Inc()
	return ranked, false
}

func (s *Service) complete(
	ctx context.Context, query string, candidates []recommend.Candidate, limit int,
) ([]rankEntry, error) {
	if s.chat == nil {
		return nil, errors.New("no rerank model configured")
	}
	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	raw, err := s.chat.Complete(ctx, buildPrompt(query, candidates, limit))
	if err != nil {
		return nil, err
	}
	return parseRanking(raw)
}

// filterEntries enforces output integrity: every id must come from the candidate
// set, and each id is used at most once.
func (s *Service) filterEntries(entries []rankEntry, candidates []recommend.Candidate) []rankEntry {
	known := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		known[c.Record.ID] = true
	}

	seen := make(map[string]bool, len(entries))
	valid := entries[:0]
	for _, entry := range entries {
		if !known[entry.ID] {
			s.logger.Warn("rerank returned unknown id, dropping entry", zap.String("id", entry.ID))
			metrics.RerankDroppedEntriesTotal.Inc()
			continue
		}
		if seen[entry.ID] {
			s.logger.Warn("rerank returned duplicate id, keeping first", zap.String("id", entry.ID))
			metrics.RerankDroppedEntriesTotal.Inc()
			continue
		}
		seen[entry.ID] = true
		valid = append(valid, entry)
	}
	return valid
}

// fallback keeps the similarity order and attaches the templated explanation.
// RelevanceScore stays nil so callers can tell a degraded response apart.
func fallback(candidates []recommend.Candidate, limit int) []recommend.Candidate {
	out := make([]recommend.Candidate, 0, limit)
	for i := 0; i < limit; i++ {
		c := candidates[i]
		c.Explanation = FallbackExplanation
		c.RelevanceRank = i + 1
		c.RelevanceScore = nil
		out = append(out, c)
	}
	return out
}
