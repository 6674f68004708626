// Package indexer backfills embeddings for catalog records that have none yet,
// so ingestion and vectorization stay decoupled.
package indexer

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/assesshub/recommender/internal/domain"
	"github.com/assesshub/recommender/internal/domain/assessment"
)

// catalog is the consumer interface for the backfill worker (ISP).
type catalog interface {
	ListMissingEmbeddings(ctx context.Context, limit int) ([]assessment.Record, error)
	SetEmbedding(ctx context.Context, id string, vector []float32) error
}

// Config holds worker settings.
type Config struct {
	Interval  time.Duration
	BatchSize int
}

// Worker periodically embeds records that have no stored vector.
type Worker struct {
	catalog catalog
	embed   domain.BatchEmbedder
	cfg     Config
	logger  *zap.Logger
}

// New creates a backfill worker.
func New(c catalog, embed domain.BatchEmbedder, cfg Config, logger *zap.Logger) *Worker {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 32
	}
	return &Worker{catalog: c, embed: embed, cfg: cfg, logger: logger}
}

// Run blocks until ctx is cancelled, processing one batch per tick. An immediate
// first pass runs on start so a fresh catalog becomes searchable without waiting
// a full interval.
func (w *Worker) Run(ctx context.Context) {
	if err := w.RunOnce(ctx); err != nil {
		w.logger.Warn("embedding backfill failed", zap.Error(err))
	}

	ticker := time.NewTicker(w.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("indexer stopped")
			return
		case <-ticker.C:
			if err := w.RunOnce(ctx); err != nil {
				w.logger.Warn("embedding backfill failed", zap.Error(err))
			}
		}
	}
}

// RunOnce embeds and stores vectors for one batch of unindexed records.
func (w *Worker) RunOnce(ctx context.Context) error {
	records, err := w.catalog.ListMissingEmbeddings(ctx, w.cfg.BatchSize)
	if err != nil {
		return fmt.Errorf("list unindexed records: %w", err)
	}
	if len(records) == 0 {
		return nil
	}

	texts := make([]string, len(records))
	for i := range records {
		texts[i] = records[i].EmbeddingText()
	}

	res, err := w.embed.BatchEmbed(ctx, texts)
	if err != nil {
		return fmt.Errorf("batch embed %d records: %w", len(records), err)
	}
	if len(res.Embeddings) != len(records) {
		return fmt.Errorf("batch embed returned %d vectors for %d records", len(res.Embeddings), len(records))
	}

	stored := 0
	for i, rec := range records {
		if err := w.catalog.SetEmbedding(ctx, rec.ID, res.Embeddings[i]); err != nil {
			w.logger.Warn("failed to store embedding", zap.String("id", rec.ID), zap.Error(err))
			continue
		}
		stored++
	}

	w.logger.Info("embedding backfill pass complete",
		zap.Int("embedded", len(records)),
		zap.Int("stored", stored),
		zap.Int("tokens", res.TotalTokens),
	)
	return nil
}
