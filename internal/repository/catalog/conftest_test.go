package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/assesshub/recommender/internal/db"
	"github.com/assesshub/recommender/internal/domain/assessment"
)

// mockStore implements the store interface with overridable behavior per test.
type mockStore struct {
	hsetFn         func(ctx context.Context, key string, fields map[string]string) error
	hgetAllFn      func(ctx context.Context, key string) (map[string]string, error)
	hgetAllMultiFn func(ctx context.Context, keys []string) ([]map[string]string, error)
	hdelFn         func(ctx context.Context, key string, fields ...string) error
	scanFn         func(ctx context.Context, pattern string) ([]string, error)
	createIndexFn  func(ctx context.Context, def *db.IndexDefinition) error
	indexExistsFn  func(ctx context.Context, name string) (bool, error)
	searchKNNFn    func(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	searchCountFn  func(ctx context.Context, index, query string) (int, error)
}

func (m *mockStore) HSet(ctx context.Context, key string, fields map[string]string) error {
	if m.hsetFn != nil {
		return m.hsetFn(ctx, key, fields)
	}
	return nil
}

func (m *mockStore) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	if m.hgetAllFn != nil {
		return m.hgetAllFn(ctx, key)
	}
	return map[string]string{}, nil
}

func (m *mockStore) HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error) {
	if m.hgetAllMultiFn != nil {
		return m.hgetAllMultiFn(ctx, keys)
	}
	return nil, nil
}

func (m *mockStore) HDel(ctx context.Context, key string, fields ...string) error {
	if m.hdelFn != nil {
		return m.hdelFn(ctx, key, fields...)
	}
	return nil
}

func (m *mockStore) Scan(ctx context.Context, pattern string) ([]string, error) {
	if m.scanFn != nil {
		return m.scanFn(ctx, pattern)
	}
	return nil, nil
}

func (m *mockStore) CreateIndex(ctx context.Context, def *db.IndexDefinition) error {
	if m.createIndexFn != nil {
		return m.createIndexFn(ctx, def)
	}
	return nil
}

func (m *mockStore) IndexExists(ctx context.Context, name string) (bool, error) {
	if m.indexExistsFn != nil {
		return m.indexExistsFn(ctx, name)
	}
	return false, nil
}

func (m *mockStore) SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
	if m.searchKNNFn != nil {
		return m.searchKNNFn(ctx, q)
	}
	return &db.SearchResult{}, nil
}

func (m *mockStore) SearchCount(ctx context.Context, index, query string) (int, error) {
	if m.searchCountFn != nil {
		return m.searchCountFn(ctx, index, query)
	}
	return 0, nil
}

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	s := &mockStore{}
	r := New(s, Config{
		KeyPrefix:       "assessrec:",
		Dimensions:      8,
		HNSWM:           32,
		HNSWEFConstruct: 400,
	})
	return r, s
}

func testRecord(name string) assessment.Record {
	dur := 30
	return assessment.Record{
		Name:            name,
		Description:     "Measures numerical reasoning ability",
		URL:             "https://example.com/" + assessment.Slug(name),
		Source:          "catalog",
		RemoteTesting:   true,
		TestTypes:       []string{"Ability & Aptitude"},
		JobLevels:       []string{"Graduate", "Professional"},
		Languages:       []string{"English"},
		KeyFeatures:     []string{"Adaptive", "Mobile-friendly"},
		DurationMinutes: &dur,
		Active:          true,
	}
}

func testVector(dim int) []float32 {
	v := make([]float32, dim)
	for i := range v {
		v[i] = float32(i) * 0.1
	}
	return v
}

func storedHash(name string) map[string]string {
	rec := testRecord(name)
	rec.ID = assessment.Slug(name)
	rec.CreatedAt = time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	rec.UpdatedAt = rec.CreatedAt
	return buildHashFields(&rec)
}
