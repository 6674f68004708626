// Package catalog persists assessment records as Redis hashes behind an FT index
// and serves filtered vector similarity search over them.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/assesshub/recommender/internal/db"
	"github.com/assesshub/recommender/internal/domain"
	"github.com/assesshub/recommender/internal/domain/assessment"
	"github.com/assesshub/recommender/internal/domain/recommend"
)

// store is the consumer interface for the catalog (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	HDel(ctx context.Context, key string, fields ...string) error
	Scan(ctx context.Context, pattern string) ([]string, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	IndexExists(ctx context.Context, name string) (bool, error)
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	SearchCount(ctx context.Context, index, query string) (int, error)
}

// Config holds index construction parameters.
type Config struct {
	KeyPrefix       string
	Dimensions      int
	HNSWM           int
	HNSWEFConstruct int
}

// Repo implements the catalog store over Redis hashes and an FT index.
type Repo struct {
	store store
	cfg   Config
}

// New creates a catalog repository.
func New(s store, cfg Config) *Repo {
	return &Repo{store: s, cfg: cfg}
}

// EnsureIndex creates the FT index if it does not exist yet.
func (r *Repo) EnsureIndex(ctx context.Context) error {
	exists, err := r.store.IndexExists(ctx, r.indexName())
	if err != nil {
		return fmt.Errorf("check index: %w", err)
	}
	if exists {
		return nil
	}

	def, err := db.NewIndex(r.indexName()).
		Prefix(r.keyPrefix()).
		TagWithOpts("job_levels", ",", false).
		TagWithOpts("test_types", ",", false).
		TagWithOpts("languages", ",", false).
		Tag("remote_testing").
		Tag("active").
		Numeric("duration_minutes").
		VectorHNSW("embedding", r.cfg.Dimensions, db.DistanceCosine, r.cfg.HNSWM, r.cfg.HNSWEFConstruct).
		Build()
	if err != nil {
		return fmt.Errorf("build index definition: %w", err)
	}

	if err := r.store.CreateIndex(ctx, def); err != nil && !errors.Is(err, db.ErrIndexExists) {
		return fmt.Errorf("create index: %w", err)
	}
	return nil
}

// Upsert inserts or updates a record keyed by its unique name. Returns true if the
// record was created. A content change refreshes updated_at and drops the stored
// embedding, since the vector no longer matches the text it was computed from.
// Unchanged content is a no-op.
func (r *Repo) Upsert(ctx context.Context, rec *assessment.Record) (bool, error) {
	if err := rec.Validate(); err != nil {
		return false, fmt.Errorf("%w: %s", domain.ErrValidation, err)
	}

	id := assessment.Slug(rec.Name)
	if id == "" {
		return false, fmt.Errorf("%w: name %q yields an empty id", domain.ErrValidation, rec.Name)
	}
	rec.ID = id

	key := r.recordKey(id)
	raw, err := r.store.HGetAll(ctx, key)
	if err != nil {
		return false, fmt.Errorf("read %s: %w", key, err)
	}

	now := time.Now().UTC()

	if len(raw) == 0 {
		rec.CreatedAt = now
		rec.UpdatedAt = now
		if err := r.store.HSet(ctx, key, buildHashFields(rec)); err != nil {
			return false, fmt.Errorf("write %s: %w", key, err)
		}
		return true, nil
	}

	existing := parseHashFields(id, raw)
	if existing.Name != rec.Name {
		return false, fmt.Errorf("%w: %q and %q map to id %s",
			domain.ErrConflict, existing.Name, rec.Name, id)
	}

	if existing.ContentEqual(rec) {
		rec.CreatedAt = existing.CreatedAt
		rec.UpdatedAt = existing.UpdatedAt
		rec.Embedding = existing.Embedding
		return false, nil
	}

	rec.CreatedAt = existing.CreatedAt
	rec.UpdatedAt = now
	rec.Embedding = nil

	if err := r.store.HSet(ctx, key, buildHashFields(rec)); err != nil {
		return false, fmt.Errorf("write %s: %w", key, err)
	}
	// Stale optional fields must go away, not linger from the previous version.
	var stale []string
	if existing.HasEmbedding() {
		stale = append(stale, "embedding")
	}
	if existing.DurationMinutes != nil && rec.DurationMinutes == nil {
		stale = append(stale, "duration_minutes")
	}
	if len(stale) > 0 {
		if err := r.store.HDel(ctx, key, stale...); err != nil {
			return false, fmt.Errorf("clear stale fields %s: %w", key, err)
		}
	}
	return false, nil
}

// SetEmbedding stores the vector for an existing record and refreshes updated_at.
func (r *Repo) SetEmbedding(ctx context.Context, id string, vector []float32) error {
	key := r.recordKey(id)
	raw, err := r.store.HGetAll(ctx, key)
	if err != nil {
		return fmt.Errorf("read %s: %w", key, err)
	}
	if len(raw) == 0 {
		return domain.ErrNotFound
	}

	fields := map[string]string{
		"embedding":  vectorToBytes(vector),
		"updated_at": time.Now().UTC().Format(time.RFC3339Nano),
	}
	if err := r.store.HSet(ctx, key, fields); err != nil {
		return fmt.Errorf("write embedding %s: %w", key, err)
	}
	return nil
}

// Get returns a record by id.
func (r *Repo) Get(ctx context.Context, id string) (assessment.Record, error) {
	raw, err := r.store.HGetAll(ctx, r.recordKey(id))
	if err != nil {
		return assessment.Record{}, fmt.Errorf("read %s: %w", id, err)
	}
	if len(raw) == 0 {
		return assessment.Record{}, domain.ErrNotFound
	}
	return parseHashFields(id, raw), nil
}

// Search runs a filtered KNN query and returns candidates above the similarity
// floor, ordered by descending similarity with ties broken by ascending id.
// Records without a stored vector are invisible to the KNN clause by construction.
func (r *Repo) Search(
	ctx context.Context, vector []float32, filter recommend.Filter, k int,
) ([]recommend.Candidate, error) {
	q := &db.KNNQuery{
		IndexName:    r.indexName(),
		Filter:       buildStoreFilter(filter),
		Vector:       vector,
		K:            k,
		ReturnFields: searchReturnFields,
	}

	result, err := r.store.SearchKNN(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("knn search: %w", err)
	}

	candidates := make([]recommend.Candidate, 0, len(result.Entries))
	for _, entry := range result.Entries {
		if entry.Score < filter.MinSimilarity {
			continue
		}
		id := strings.TrimPrefix(entry.Key, r.keyPrefix())
		candidates = append(candidates, recommend.Candidate{
			Record:     parseHashFields(id, entry.Fields),
			Similarity: entry.Score,
		})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Similarity != candidates[j].Similarity {
			return candidates[i].Similarity > candidates[j].Similarity
		}
		return candidates[i].Record.ID < candidates[j].Record.ID
	})

	return candidates, nil
}

// Count returns the total number of records in the catalog, indexed or not.
func (r *Repo) Count(ctx context.Context) (int, error) {
	n, err := r.store.SearchCount(ctx, r.indexName(), "*")
	if err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	return n, nil
}

// ListMissingEmbeddings returns up to limit active records that have no stored
// vector yet. The backfill worker feeds on this.
func (r *Repo) ListMissingEmbeddings(ctx context.Context, limit int) ([]assessment.Record, error) {
	keys, err := r.store.Scan(ctx, r.keyPrefix()+"*")
	if err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}
	if len(keys) == 0 {
		return nil, nil
	}
	sort.Strings(keys)

	maps, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("read records: %w", err)
	}

	var out []assessment.Record
	for i, m := range maps {
		if len(m) == 0 || m["embedding"] != "" || m["active"] != "1" {
			continue
		}
		out = append(out, parseHashFields(strings.TrimPrefix(keys[i], r.keyPrefix()), m))
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

// searchReturnFields is everything the pipeline needs downstream. The raw vector is
// deliberately not fetched back; __embedding_score carries the KNN distance.
var searchReturnFields = []string{
	"name", "description", "url", "source",
	"remote_testing", "adaptive_irt",
	"test_types", "job_levels", "languages", "key_features",
	"duration_minutes", "active",
	"created_at", "updated_at",
	"__embedding_score",
}

// buildStoreFilter translates the request filter into store predicates. The active
// flag is always enforced so soft-deleted records never surface.
func buildStoreFilter(f recommend.Filter) db.Filter {
	out := db.Filter{
		Tags: []db.TagClause{{Field: "active", Values: []string{"1"}}},
	}

	if len(f.JobLevels) > 0 {
		out.Tags = append(out.Tags, db.TagClause{Field: "job_levels", Values: f.JobLevels})
	}
	if len(f.TestTypes) > 0 {
		out.Tags = append(out.Tags, db.TagClause{Field: "test_types", Values: f.TestTypes})
	}
	if len(f.Languages) > 0 {
		out.Tags = append(out.Tags, db.TagClause{Field: "languages", Values: f.Languages})
	}
	if f.RemoteTesting != nil {
		out.Tags = append(out.Tags, db.TagClause{Field: "remote_testing", Values: []string{boolTag(*f.RemoteTesting)}})
	}
	if f.MaxDurationMinutes != nil {
		maxDur := float64(*f.MaxDurationMinutes)
		out.Ranges = append(out.Ranges, db.RangeClause{Field: "duration_minutes", Max: &maxDur})
	}

	return out
}

func (r *Repo) keyPrefix() string {
	return r.cfg.KeyPrefix + "assessments:"
}

func (r *Repo) recordKey(id string) string {
	return r.keyPrefix() + id
}

func (r *Repo) indexName() string {
	return r.cfg.KeyPrefix + "assessments-idx"
}
