package catalog

import (
	"encoding/binary"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/assesshub/recommender/internal/domain/assessment"
)

// buildHashFields converts a record into a flat map[string]string for HSET.
// Optional fields (duration_minutes, embedding) are omitted entirely when unset:
// an absent NUMERIC field never matches a range predicate and an absent vector
// field is invisible to KNN, which is exactly the exclusion semantics wanted.
func buildHashFields(rec *assessment.Record) map[string]string {
	m := map[string]string{
		"name":           rec.Name,
		"description":    rec.Description,
		"url":            rec.URL,
		"source":         rec.Source,
		"remote_testing": boolTag(rec.RemoteTesting),
		"adaptive_irt":   boolTag(rec.AdaptiveIRT),
		"test_types":     strings.Join(rec.TestTypes, ","),
		"job_levels":     strings.Join(rec.JobLevels, ","),
		"languages":      strings.Join(rec.Languages, ","),
		"key_features":   encodeFeatures(rec.KeyFeatures),
		"active":         boolTag(rec.Active),
		"created_at":     rec.CreatedAt.Format(time.RFC3339Nano),
		"updated_at":     rec.UpdatedAt.Format(time.RFC3339Nano),
	}
	if rec.DurationMinutes != nil {
		m["duration_minutes"] = strconv.Itoa(*rec.DurationMinutes)
	}
	if rec.HasEmbedding() {
		m["embedding"] = vectorToBytes(rec.Embedding)
	}
	return m
}

// parseHashFields converts a flat hash map back into a record.
func parseHashFields(id string, m map[string]string) assessment.Record {
	rec := assessment.Record{
		ID:            id,
		Name:          m["name"],
		Description:   m["description"],
		URL:           m["url"],
		Source:        m["source"],
		RemoteTesting: m["remote_testing"] == "1",
		AdaptiveIRT:   m["adaptive_irt"] == "1",
		TestTypes:     splitSet(m["test_types"]),
		JobLevels:     splitSet(m["job_levels"]),
		Languages:     splitSet(m["languages"]),
		KeyFeatures:   decodeFeatures(m["key_features"]),
		Active:        m["active"] == "1",
	}

	if v, ok := m["duration_minutes"]; ok {
		if n, err := strconv.Atoi(v); err == nil {
			rec.DurationMinutes = &n
		}
	}
	if v, ok := m["embedding"]; ok && v != "" {
		rec.Embedding = bytesToVector(v)
	}
	if t, err := time.Parse(time.RFC3339Nano, m["created_at"]); err == nil {
		rec.CreatedAt = t
	}
	if t, err := time.Parse(time.RFC3339Nano, m["updated_at"]); err == nil {
		rec.UpdatedAt = t
	}

	return rec
}

func boolTag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func splitSet(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}

// Key features are free text and may contain commas, so they are stored as a JSON
// array rather than a comma-joined TAG value.
func encodeFeatures(features []string) string {
	if len(features) == 0 {
		return ""
	}
	data, err := json.Marshal(features)
	if err != nil {
		return ""
	}
	return string(data)
}

func decodeFeatures(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil
	}
	return out
}

// vectorToBytes serializes []float32 to a binary string (4 bytes per float, little-endian).
func vectorToBytes(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}

// bytesToVector deserializes a binary string back to []float32.
func bytesToVector(s string) []float32 {
	b := []byte(s)
	if len(b)%4 != 0 {
		return nil
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v
}
