package db

// TagClause matches records whose multi-valued tag field intersects Values
// (OR within the clause, AND across clauses).
type TagClause struct {
	Field  string
	Values []string
}

// RangeClause constrains a numeric field. Nil bounds are open; records missing the
// field never match a range clause.
type RangeClause struct {
	Field string
	Min   *float64
	Max   *float64
}

// Filter is the structured pre-filter applied inside the store before KNN scoring.
type Filter struct {
	Tags   []TagClause
	Ranges []RangeClause
}

// IsEmpty reports whether the filter has no clauses.
func (f Filter) IsEmpty() bool {
	return len(f.Tags) == 0 && len(f.Ranges) == 0
}

// KNNQuery is the input for vector similarity search.
type KNNQuery struct {
	IndexName    string
	Filter       Filter
	Vector       []float32
	K            int
	ReturnFields []string
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single document hit from a search.
type SearchEntry struct {
	Key    string
	Score  float64
	Fields map[string]string
}
