package recommend

import "github.com/assesshub/recommender/internal/domain/assessment"

// Candidate is a retrieved record paired with its cosine similarity. The rerank
// stage fills Explanation, RelevanceRank and RelevanceScore; RelevanceScore stays
// nil when the pipeline degraded to similarity-only ordering.
type Candidate struct {
	Record         assessment.Record
	Similarity     float64
	Explanation    string
	RelevanceRank  int
	RelevanceScore *float64
}
