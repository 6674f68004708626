package sdk

import "errors"

// RecommendRequest is the POST /api/v1/recommendations body.
type RecommendRequest struct {
	Query   string   `json:"query"`
	TopK    int      `json:"top_k,omitempty"`
	Filters *Filters `json:"filters,omitempty"`
}

// Filters narrows the candidate set before similarity ranking.
type Filters struct {
	JobLevels          []string `json:"job_levels,omitempty"`
	TestTypes          []string `json:"test_types,omitempty"`
	Languages          []string `json:"languages,omitempty"`
	MaxDurationMinutes *int     `json:"max_duration_minutes,omitempty"`
	RemoteTesting      *bool    `json:"remote_testing,omitempty"`
	MinSimilarity      float64  `json:"min_similarity,omitempty"`
}

// RecommendResponse is the recommendation result.
type RecommendResponse struct {
	Recommendations  []Recommendation `json:"recommendations"`
	ProcessingTime   float64          `json:"processing_time"`
	TotalAssessments int              `json:"total_assessments"`
}

// Recommendation is one recommended assessment. RelevanceScore is nil when the
// service degraded to similarity-only ordering.
type Recommendation struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	URL             string   `json:"url"`
	Description     string   `json:"description"`
	SimilarityScore float64  `json:"similarity_score"`
	RelevanceScore  *float64 `json:"relevance_score"`
	Explanation     string   `json:"explanation"`
	JobLevels       []string `json:"job_levels"`
	TestTypes       []string `json:"test_types"`
	RemoteTesting   bool     `json:"remote_testing"`
	Languages       []string `json:"languages"`
	DurationMinutes *int     `json:"duration_minutes"`
}

// HealthReport is the GET /health/ready body.
type HealthReport struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// APIError is a non-2xx response from the service.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return "sdk: api error " + e.Code + ": " + e.Message
}

func asAPIError(err error, target **APIError) bool {
	return errors.As(err, target)
}
