package recommend

import (
	"errors"
	"strings"
	"testing"

	"github.com/assesshub/recommender/internal/domain"
)

func TestNewRequest_DefaultsMinSimilarity(t *testing.T) {
	req, err := NewRequest("java developers who collaborate", 10, Filter{}, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.Filter().MinSimilarity != DefaultMinSimilarity {
		t.Errorf("MinSimilarity = %g, want default %g", req.Filter().MinSimilarity, DefaultMinSimilarity)
	}
}

func TestNewRequest_TrimsQuery(t *testing.T) {
	req, err := NewRequest("  some query  ", 5, Filter{}, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.Query() != "some query" {
		t.Errorf("Query = %q, want trimmed", req.Query())
	}
}

func TestNewRequest_Validation(t *testing.T) {
	negDur := -1
	tests := []struct {
		name   string
		query  string
		topK   int
		filter Filter
	}{
		{"empty query", "", 10, Filter{}},
		{"whitespace query", "   ", 10, Filter{}},
		{"query too long", strings.Repeat("x", MaxQueryLength+1), 10, Filter{}},
		{"topk zero", "q", 0, Filter{}},
		{"topk negative", "q", -1, Filter{}},
		{"topk above max", "q", DefaultMaxTopK + 1, Filter{}},
		{"min similarity above one", "q", 10, Filter{MinSimilarity: 1.5}},
		{"min similarity negative", "q", 10, Filter{MinSimilarity: -0.1}},
		{"negative duration", "q", 10, Filter{MaxDurationMinutes: &negDur}},
		{"blank filter value", "q", 10, Filter{JobLevels: []string{""}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRequest(tt.query, tt.topK, tt.filter, 0)
			if err == nil {
				t.Fatal("expected validation error, got nil")
			}
			if !errors.Is(err, domain.ErrValidation) {
				t.Errorf("error %v does not wrap ErrValidation", err)
			}
		})
	}
}

func TestNewRequest_CustomMaxTopK(t *testing.T) {
	if _, err := NewRequest("q", 20, Filter{}, 15); err == nil {
		t.Error("topK above custom ceiling should fail")
	}
	if _, err := NewRequest("q", 15, Filter{}, 15); err != nil {
		t.Errorf("topK at custom ceiling should pass, got %v", err)
	}
}

func TestFilterIsEmpty(t *testing.T) {
	if !(Filter{MinSimilarity: 0.7}).IsEmpty() {
		t.Error("similarity floor alone should not make the filter non-empty")
	}
	rt := true
	if (Filter{RemoteTesting: &rt}).IsEmpty() {
		t.Error("remote_testing predicate should make the filter non-empty")
	}
}
