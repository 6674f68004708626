package recommend

import (
	"context"

	domrec "github.com/assesshub/recommender/internal/domain/recommend"
)

// Retriever produces the candidate set for a validated request.
type Retriever interface {
	Retrieve(ctx context.Context, req *domrec.Request) ([]domrec.Candidate, error)
}

// Reranker orders candidates and attaches explanations; it never fails a request.
type Reranker interface {
	Rerank(ctx context.Context, query string, candidates []domrec.Candidate, topK int) ([]domrec.Candidate, bool)
}

// CatalogCounter reports the catalog size for response metadata.
type CatalogCounter interface {
	Count(ctx context.Context) (int, error)
}
