package sdk

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRecommend_Success(t *testing.T) {
	var gotPath, gotAuth string
	var gotReq RecommendRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(RecommendResponse{
			Recommendations: []Recommendation{
				{ID: "verify-numerical", Name: "Verify Numerical", SimilarityScore: 0.91},
			},
			ProcessingTime:   0.12,
			TotalAssessments: 377,
		})
	}))
	defer srv.Close()

	c := New(srv.URL, WithAPIKey("secret-key"))
	resp, err := c.Recommend(context.Background(), RecommendRequest{
		Query: "numerical reasoning",
		TopK:  5,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotPath != "/api/v1/recommendations" {
		t.Errorf("path = %q", gotPath)
	}
	if gotAuth != "Bearer secret-key" {
		t.Errorf("authorization = %q", gotAuth)
	}
	if gotReq.Query != "numerical reasoning" || gotReq.TopK != 5 {
		t.Errorf("request body not carried: %+v", gotReq)
	}
	if len(resp.Recommendations) != 1 || resp.Recommendations[0].ID != "verify-numerical" {
		t.Errorf("unexpected response: %+v", resp)
	}
	if resp.TotalAssessments != 377 {
		t.Errorf("total_assessments = %d", resp.TotalAssessments)
	}
}

func TestRecommend_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"code":    "validation_failed",
			"message": "validation failed: query is required",
		})
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.Recommend(context.Background(), RecommendRequest{})
	if err == nil {
		t.Fatal("expected error")
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T: %v", err, err)
	}
	if apiErr.Status != http.StatusBadRequest || apiErr.Code != "validation_failed" {
		t.Errorf("unexpected error: %+v", apiErr)
	}
}

func TestHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			t.Errorf("path = %q", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}))
	defer srv.Close()

	if err := New(srv.URL).Health(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestReady_NotReadyStillReturnsReport(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(HealthReport{
			Status: "error",
			Checks: map[string]string{"database": "error"},
		})
	}))
	defer srv.Close()

	report, err := New(srv.URL).Ready(context.Background())
	if err == nil {
		t.Fatal("expected error for 503")
	}
	if report == nil || report.Status != "error" {
		t.Fatalf("report lost on 503: %+v", report)
	}
	if report.Checks["database"] != "error" {
		t.Errorf("checks not carried: %v", report.Checks)
	}
}

func TestNew_TrimsTrailingSlash(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}))
	defer srv.Close()

	if err := New(srv.URL + "/").Health(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotPath != "/health" {
		t.Errorf("path = %q, double slash not avoided", gotPath)
	}
}

func TestNoAPIKeyNoHeader(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}))
	defer srv.Close()

	if err := New(srv.URL).Health(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotAuth != "" {
		t.Errorf("unexpected authorization header %q", gotAuth)
	}
}
