// Package assessment defines the catalog record and its invariants.
package assessment

import (
	"fmt"
	"strings"
	"time"
)

// Record is a single assessment product in the catalog.
//
// Name is unique across the catalog and is the upsert key. ID is the canonical string
// identifier derived from the name at ingestion time and never changes afterwards.
// A nil Embedding means "not yet indexed": such records are invisible to retrieval.
// DurationMinutes == nil means untimed or unspecified; any upper-bound duration filter
// excludes these records.
type Record struct {
	ID              string
	Name            string
	Description     string
	URL             string
	Source          string
	RemoteTesting   bool
	AdaptiveIRT     bool
	TestTypes       []string
	JobLevels       []string
	Languages       []string
	KeyFeatures     []string
	DurationMinutes *int
	Embedding       []float32
	Active          bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Validate checks the record invariants before it reaches the store.
func (r *Record) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("name is required")
	}
	if r.DurationMinutes != nil && *r.DurationMinutes < 0 {
		return fmt.Errorf("duration_minutes must be non-negative, got %d", *r.DurationMinutes)
	}
	for _, set := range [][]string{r.TestTypes, r.JobLevels, r.Languages} {
		for _, v := range set {
			if strings.TrimSpace(v) == "" {
				return fmt.Errorf("categorical tags must be non-empty strings")
			}
		}
	}
	return nil
}

// HasEmbedding reports whether the record is visible to similarity search.
func (r *Record) HasEmbedding() bool { return len(r.Embedding) > 0 }

// EmbeddingText is the text-bearing content the embedding is computed from. Changing
// any of these fields invalidates the stored vector.
func (r *Record) EmbeddingText() string {
	var b strings.Builder
	b.WriteString(r.Name)
	if r.Description != "" {
		b.WriteString("\n")
		b.WriteString(r.Description)
	}
	if len(r.TestTypes) > 0 {
		b.WriteString("\nTest types: ")
		b.WriteString(strings.Join(r.TestTypes, ", "))
	}
	if len(r.JobLevels) > 0 {
		b.WriteString("\nJob levels: ")
		b.WriteString(strings.Join(r.JobLevels, ", "))
	}
	if len(r.KeyFeatures) > 0 {
		b.WriteString("\nKey features: ")
		b.WriteString(strings.Join(r.KeyFeatures, ", "))
	}
	return b.String()
}

// ContentEqual reports whether two records carry the same catalog content, ignoring
// embedding and timestamps. Upsert uses this to keep updated_at stable on no-op writes.
func (r *Record) ContentEqual(other *Record) bool {
	return r.Name == other.Name &&
		r.Description == other.Description &&
		r.URL == other.URL &&
		r.Source == other.Source &&
		r.RemoteTesting == other.RemoteTesting &&
		r.AdaptiveIRT == other.AdaptiveIRT &&
		r.Active == other.Active &&
		equalDuration(r.DurationMinutes, other.DurationMinutes) &&
		equalSlice(r.TestTypes, other.TestTypes) &&
		equalSlice(r.JobLevels, other.JobLevels) &&
		equalSlice(r.Languages, other.Languages) &&
		equalSlice(r.KeyFeatures, other.KeyFeatures)
}

func equalDuration(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func equalSlice(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Slug derives the canonical record ID from its unique name: lowercase, alphanumerics
// kept, everything else collapsed to single dashes.
func Slug(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		default:
			if !dash && b.Len() > 0 {
				b.WriteByte('-')
				dash = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
