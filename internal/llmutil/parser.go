// Package llmutil contains helpers for coping with the structured-output
// quirks of language models: markdown-wrapped JSON, conversational preambles,
// and near-JSON that needs repair before it can be decoded.
package llmutil

import (
	"fmt"
	"regexp"
	"strings"

	json "github.com/json-iterator/go"
	"github.com/kaptinlin/jsonrepair"
)

// Regex definitions use \x60 (hex representation) for backticks because Go raw
// strings cannot contain backticks.
var (
	// jsonObjectRegex extracts a JSON object wrapped in a markdown code fence.
	jsonObjectRegex = regexp.MustCompile("(?s)\x60\x60\x60(?:json)?\\s*({.*})\\s*\x60\x60\x60")
)

// ExtractJSONObject pulls a single JSON object out of a raw model response.
// It strips markdown fences, falls back to brace-boundary heuristics for
// objects embedded in conversational text, and as a last resort runs the
// candidate through jsonrepair to fix trailing commas, single quotes and
// similar near-JSON defects.
func ExtractJSONObject(response string) (string, error) {
	response = strings.TrimSpace(response)
	candidate := response

	// 1. Markdown wrapping (most common case).
	if strings.HasPrefix(response, "```") {
		if matches := jsonObjectRegex.FindStringSubmatch(response); len(matches) > 1 {
			candidate = matches[1]
		}
	} else if !strings.HasPrefix(response, "{") {
		// 2. Object embedded in surrounding prose.
		fb := strings.Index(response, "{")
		lb := strings.LastIndex(response, "}")
		if fb == -1 || lb <= fb {
			return "", fmt.Errorf("no JSON object found in model response (truncated): %s", truncateString(response, 200))
		}
		candidate = response[fb : lb+1]
	}

	if json.Valid([]byte(candidate)) {
		return candidate, nil
	}

	// 3. Near-JSON: attempt repair before giving up.
	repaired, err := jsonrepair.JSONRepair(candidate)
	if err != nil {
		return "", fmt.Errorf("model response is not valid JSON and could not be repaired: %w. Candidate (truncated): %s",
			err, truncateString(candidate, 200))
	}
	if !json.Valid([]byte(repaired)) {
		return "", fmt.Errorf("model response is not valid JSON after repair (truncated): %s", truncateString(repaired, 200))
	}
	return repaired, nil
}

// ParseJSONResponse parses an LLM response into a target Go type, tolerating
// the formatting issues ExtractJSONObject handles.
func ParseJSONResponse[T any](response string) (*T, error) {
	extracted, err := ExtractJSONObject(response)
	if err != nil {
		return nil, err
	}
	var result T
	if err := json.Unmarshal([]byte(extracted), &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal LLM JSON response: %w. Extracted JSON (truncated): %s",
			err, truncateString(extracted, 500))
	}
	return &result, nil
}

// truncateString shortens s for inclusion in error messages.
func truncateString(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
