package domain

import "errors"

var (
	// ErrNotFound signals a missing assessment record.
	ErrNotFound = errors.New("assessment not found")
	// ErrConflict signals an unresolvable uniqueness violation on upsert.
	ErrConflict = errors.New("assessment name conflict")
	// ErrValidation signals a malformed request; surfaced as 400, never retried.
	ErrValidation = errors.New("validation failed")
	// ErrEmbeddingProvider signals an embedding API failure after bounded retries.
	ErrEmbeddingProvider = errors.New("embedding provider error")
	// ErrRetrieval signals that the catalog store is unreachable or rejected the query.
	ErrRetrieval = errors.New("catalog retrieval error")
	// ErrRerankUnavailable signals a generative rerank failure. Callers degrade to
	// similarity ordering instead of failing the request.
	ErrRerankUnavailable = errors.New("rerank unavailable")
)
