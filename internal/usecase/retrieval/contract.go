package retrieval

import (
	"context"

	"github.com/assesshub/recommender/internal/domain"
	"github.com/assesshub/recommender/internal/domain/recommend"
)

// Embedder vectorizes query text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// Catalog runs filtered vector search over the assessment catalog.
type Catalog interface {
	Search(ctx context.Context, vector []float32, filter recommend.Filter, k int) ([]recommend.Candidate, error)
}
