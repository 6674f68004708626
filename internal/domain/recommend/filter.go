// Package recommend defines the request-scoped query types of the recommendation
// pipeline.
package recommend

// Filter narrows retrieval with structured predicates. Set fields use
// OR-within-field semantics: a record matches when its own set intersects the
// requested one. MaxDurationMinutes excludes records with no stored duration.
type Filter struct {
	JobLevels          []string
	TestTypes          []string
	Languages          []string
	MaxDurationMinutes *int
	RemoteTesting      *bool
	MinSimilarity      float64
}

// IsEmpty reports whether no structured predicate is set (the similarity floor
// always applies and does not count).
func (f Filter) IsEmpty() bool {
	return len(f.JobLevels) == 0 && len(f.TestTypes) == 0 && len(f.Languages) == 0 &&
		f.MaxDurationMinutes == nil && f.RemoteTesting == nil
}
