package recommend

import (
	"fmt"
	"strings"

	"github.com/assesshub/recommender/internal/domain"
)

// Request parameter limits and defaults.
const (
	MaxQueryLength       = 4096
	DefaultTopK          = 10
	DefaultMaxTopK       = 50
	DefaultMinSimilarity = 0.7
)

// Request is a validated recommendation query.
type Request struct {
	query  string
	topK   int
	filter Filter
}

// NewRequest validates and normalizes a recommendation request. topK must
// already be resolved: defaulting an omitted top_k is the caller's job, an
// explicit zero is invalid here. maxTopK is the server-side ceiling; zero means
// DefaultMaxTopK. Validation failures wrap domain.ErrValidation and must be
// rejected before any external call is made.
func NewRequest(query string, topK int, filter Filter, maxTopK int) (Request, error) {
	if maxTopK <= 0 {
		maxTopK = DefaultMaxTopK
	}

	query = strings.TrimSpace(query)
	if query == "" {
		return Request{}, fmt.Errorf("%w: query is required", domain.ErrValidation)
	}
	if len(query) > MaxQueryLength {
		return Request{}, fmt.Errorf("%w: query too long (max %d chars)", domain.ErrValidation, MaxQueryLength)
	}
	if topK < 1 || topK > maxTopK {
		return Request{}, fmt.Errorf("%w: top_k must be between 1 and %d", domain.ErrValidation, maxTopK)
	}
	if filter.MinSimilarity == 0 {
		filter.MinSimilarity = DefaultMinSimilarity
	}
	if filter.MinSimilarity < 0 || filter.MinSimilarity > 1 {
		return Request{}, fmt.Errorf("%w: min_similarity must be between 0 and 1", domain.ErrValidation)
	}
	if filter.MaxDurationMinutes != nil && *filter.MaxDurationMinutes < 0 {
		return Request{}, fmt.Errorf("%w: max_duration_minutes must be non-negative", domain.ErrValidation)
	}
	for _, set := range [][]string{filter.JobLevels, filter.TestTypes, filter.Languages} {
		for _, v := range set {
			if strings.TrimSpace(v) == "" {
				return Request{}, fmt.Errorf("%w: filter values must be non-empty strings", domain.ErrValidation)
			}
		}
	}

	return Request{query: query, topK: topK, filter: filter}, nil
}

// Query returns the natural-language query text.
func (r *Request) Query() string { return r.query }

// TopK returns the requested final result count.
func (r *Request) TopK() int { return r.topK }

// Filter returns the structured predicates.
func (r *Request) Filter() Filter { return r.filter }
