package evaluator

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

const judgeSystemPrompt = `You are an impartial evaluator scoring a generated document against a weighted rubric. Respond with strict JSON only, no prose outside the JSON object.`

// buildJudgePrompt assembles the rubric + artifact + source-context
// prompt the judge-call contract requires (spec.md §4.3). strict adds an
// explicit schema reminder, used on the one retry a parse failure earns.
func buildJudgePrompt(criteria []Criterion, content, sourceContext string, strict bool) string {
	var b strings.Builder
	b.WriteString("Score the document below against these criteria:\n")
	for _, c := range criteria {
		fmt.Fprintf(&b, "- %s (range %d-%d)", c.Name, c.MinScore, c.MaxScore)
		if c.Description != "" {
			fmt.Fprintf(&b, ": %s", c.Description)
		}
		b.WriteString("\n")
	}

	if sourceContext != "" {
		b.WriteString("\nSource context:\n")
		b.WriteString(sourceContext)
		b.WriteString("\n")
	}

	b.WriteString("\nDocument:\n")
	b.WriteString(content)

	b.WriteString("\n\nRespond with a JSON object mapping each criterion name to an integer score, e.g. {")
	for i, c := range criteria {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, `"%s": <int>`, c.Name)
	}
	b.WriteString("}.")

	if strict {
		b.WriteString("\nYour previous response could not be parsed as that exact JSON shape. Reply with ONLY the JSON object, no markdown fences, no commentary, and every criterion name spelled exactly as given above.")
	}

	return b.String()
}

var codeFence = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")

// extractJSON pulls a JSON object out of raw, unwrapping a markdown code
// fence if the judge wrapped its response in one, per spec.md §4.3 step 1.
func extractJSON(raw string) string {
	if m := codeFence.FindStringSubmatch(raw); m != nil {
		return strings.TrimSpace(m[1])
	}
	trimmed := strings.TrimSpace(raw)
	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start >= 0 && end > start {
		return trimmed[start : end+1]
	}
	return trimmed
}

// parseRubricResponse implements spec.md §4.3's defensive parse: extract
// JSON (even fenced), validate every criterion is scored, validate
// ranges. A missing criterion or out-of-range score is a parse failure
// that earns the one stricter-schema retry.
func parseRubricResponse(raw string, criteria []Criterion) (map[string]float64, error) {
	candidate := extractJSON(raw)

	var parsed map[string]float64
	if err := json.Unmarshal([]byte(candidate), &parsed); err != nil {
		return nil, fmt.Errorf("evaluator: response is not valid JSON: %w", err)
	}

	scores := make(map[string]float64, len(criteria))
	for _, c := range criteria {
		v, ok := parsed[c.Name]
		if !ok {
			return nil, fmt.Errorf("evaluator: response missing criterion %q", c.Name)
		}
		if v < float64(c.MinScore) || v > float64(c.MaxScore) {
			return nil, fmt.Errorf("evaluator: criterion %q score %v out of range [%d,%d]", c.Name, v, c.MinScore, c.MaxScore)
		}
		scores[c.Name] = v
	}
	return scores, nil
}
