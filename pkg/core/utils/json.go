package utils

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	jsonrepair "github.com/RealAlexandreAI/json-repair"
	hjson "github.com/hjson/hjson-go/v4"
)

// Model responses are free text expected to contain one JSON object, often
// wrapped in prose or markdown fences. Extraction runs an ordered chain of
// strategies and the caller records which one succeeded.
const (
	StrategyFenced = "fenced"
	StrategyBraces = "braces"
	StrategyRaw    = "raw"
)

// Candidate is one possible JSON span pulled out of a raw response.
type Candidate struct {
	Strategy string
	Text     string
}

var fencedBlockPattern = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")

// ExtractCandidates returns the ordered JSON candidates from a raw model
// response: fenced code block first, then the outermost {...} span, then
// the whole text as a last resort.
func ExtractCandidates(raw string) []Candidate {
	var candidates []Candidate

	if matches := fencedBlockPattern.FindStringSubmatch(raw); len(matches) > 1 && strings.TrimSpace(matches[1]) != "" {
		candidates = append(candidates, Candidate{Strategy: StrategyFenced, Text: matches[1]})
	}

	if span := outermostBraceSpan(raw); span != "" {
		candidates = append(candidates, Candidate{Strategy: StrategyBraces, Text: span})
	}

	candidates = append(candidates, Candidate{Strategy: StrategyRaw, Text: strings.TrimSpace(raw)})
	return candidates
}

// outermostBraceSpan returns the substring from the first '{' to the last
// '}' inclusive, or "" when no such span exists.
func outermostBraceSpan(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return ""
	}
	return raw[start : end+1]
}

// RepairJSON attempts to fix common JSON errors from LLM outputs
// (single quotes, trailing commas, unclosed brackets, comments).
func RepairJSON(malformedJSON string) (string, error) {
	repaired, err := jsonrepair.RepairJSON(malformedJSON)
	if err != nil {
		return "", fmt.Errorf("JSON_REPAIR_FAILED: %v", err)
	}
	return repaired, nil
}

// SmartParse tries multiple parsing strategies to extract valid JSON into
// the provided schema. Order of attempts:
// 1. Standard JSON parse
// 2. JSON repair
// 3. Hjson parse (most lenient)
// Returns the normalized JSON string that parsed successfully.
func SmartParse(input string, schema interface{}) (string, error) {
	// Try 1: Standard JSON
	if err := json.Unmarshal([]byte(input), schema); err == nil {
		return input, nil
	}

	// Try 2: JSON Repair
	if repaired, err := RepairJSON(input); err == nil {
		if err := json.Unmarshal([]byte(repaired), schema); err == nil {
			return repaired, nil
		}
	}

	// Try 3: Hjson (most lenient)
	var lenient interface{}
	if err := hjson.Unmarshal([]byte(input), &lenient); err == nil {
		if jsonBytes, err := json.Marshal(lenient); err == nil {
			if err := json.Unmarshal(jsonBytes, schema); err == nil {
				return string(jsonBytes), nil
			}
		}
	}

	return "", fmt.Errorf("SMART_PARSE_FAILED: all parsing strategies failed for input")
}

// ParseResponse runs the full extraction + lenient-parse chain over a raw
// model response. It returns the normalized JSON and the name of the
// extraction strategy that produced it.
func ParseResponse(raw string, schema interface{}) (normalized string, strategy string, err error) {
	for _, candidate := range ExtractCandidates(raw) {
		if parsed, parseErr := SmartParse(candidate.Text, schema); parseErr == nil {
			return parsed, candidate.Strategy, nil
		}
	}
	return "", "", fmt.Errorf("RESPONSE_PARSE_FAILED: no strategy yielded valid JSON")
}
