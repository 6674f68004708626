package chi

import (
	"github.com/assesshub/recommender/internal/domain/recommend"
	recommenduc "github.com/assesshub/recommender/internal/usecase/recommend"
)

// recommendRequest is the POST /recommendations body. TopK is a pointer so an
// omitted field takes the server default while an explicit 0 fails validation.
type recommendRequest struct {
	Query   string          `json:"query"`
	TopK    *int            `json:"top_k"`
	Filters *requestFilters `json:"filters"`
}

type requestFilters struct {
	JobLevels          []string `json:"job_levels"`
	TestTypes          []string `json:"test_types"`
	Languages          []string `json:"languages"`
	MaxDurationMinutes *int     `json:"max_duration_minutes"`
	RemoteTesting      *bool    `json:"remote_testing"`
	MinSimilarity      float64  `json:"min_similarity"`
}

type recommendResponse struct {
	Recommendations  []recommendationItem `json:"recommendations"`
	ProcessingTime   float64              `json:"processing_time"`
	TotalAssessments int                  `json:"total_assessments"`
}

type recommendationItem struct {
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

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes surfaced to clients.
const (
	codeBadRequest     = "bad_request"
	codeValidation     = "validation_failed"
	codeNotFound       = "not_found"
	codeConflict       = "conflict"
	codeEmbeddingError = "embedding_provider_error"
	codeRetrievalError = "retrieval_error"
	codeInternal       = "internal_error"
)

func filterFromRequest(f *requestFilters) recommend.Filter {
	if f == nil {
		return recommend.Filter{}
	}
	return recommend.Filter{
		JobLevels:          f.JobLevels,
		TestTypes:          f.TestTypes,
		Languages:          f.Languages,
		MaxDurationMinutes: f.MaxDurationMinutes,
		RemoteTesting:      f.RemoteTesting,
		MinSimilarity:      f.MinSimilarity,
	}
}

func responseFromResult(res recommenduc.Result) recommendResponse {
	items := make([]recommendationItem, len(res.Recommendations))
	for i, c := range res.Recommendations {
		rec := c.Record
		items[i] = recommendationItem{
			ID:              rec.ID,
			Name:            rec.Name,
			URL:             rec.URL,
			Description:     rec.Description,
			SimilarityScore: c.Similarity,
			RelevanceScore:  c.RelevanceScore,
			Explanation:     c.Explanation,
			JobLevels:       rec.JobLevels,
			TestTypes:       rec.TestTypes,
			RemoteTesting:   rec.RemoteTesting,
			Languages:       rec.Languages,
			DurationMinutes: rec.DurationMinutes,
		}
	}
	return recommendResponse{
		Recommendations:  items,
		ProcessingTime:   res.ProcessingTime.Seconds(),
		TotalAssessments: res.TotalAssessments,
	}
}
