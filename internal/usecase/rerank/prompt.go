package rerank

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/assesshub/recommender/internal/domain/recommend"
)

// buildPrompt enumerates the candidates with their catalog fields and asks the
// model for a strict JSON array. Explanations must be grounded in the listed
// fields only, so the model is given nothing else.
func buildPrompt(query string, candidates []recommend.Candidate, n int) string {
	var b strings.Builder

	b.WriteString("You are an expert in matching hiring requirements to assessment products.\n")
	b.WriteString("A recruiter describes what they need to assess. Rank the candidate assessments below by relevance to that need.\n\n")

	b.WriteString("Requirement:\n")
	b.WriteString(query)
	b.WriteString("\n\nCandidate assessments:\n")

	for i, c := range candidates {
		rec := c.Record
		fmt.Fprintf(&b, "%d. id: %s\n", i+1, rec.ID)
		fmt.Fprintf(&b, "   name: %s\n", rec.Name)
		if rec.Description != "" {
			fmt.Fprintf(&b, "   description: %s\n", rec.Description)
		}
		if len(rec.TestTypes) > 0 {
			fmt.Fprintf(&b, "   test_types: %s\n", strings.Join(rec.TestTypes, ", "))
		}
		if len(rec.JobLevels) > 0 {
			fmt.Fprintf(&b, "   job_levels: %s\n", strings.Join(rec.JobLevels, ", "))
		}
		if len(rec.KeyFeatures) > 0 {
			fmt.Fprintf(&b, "   key_features: %s\n", strings.Join(rec.KeyFeatures, ", "))
		}
		fmt.Fprintf(&b, "   duration_minutes: %s\n", durationText(rec.DurationMinutes))
		fmt.Fprintf(&b, "   remote_testing: %s\n", yesNo(rec.RemoteTesting))
	}

	fmt.Fprintf(&b, "\nSelect the %d most relevant assessments, ordered best first.\n", n)
	b.WriteString("Respond with a JSON array only, no prose, in this exact shape:\n")
	b.WriteString(`[{"id": "<assessment id>", "explanation": "<one sentence, grounded only in the fields above>"}]`)
	b.WriteString("\nUse only ids that appear in the list. Do not repeat an id.\n")

	return b.String()
}

func durationText(minutes *int) string {
	if minutes == nil {
		return "not specified"
	}
	return strconv.Itoa(*minutes)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
