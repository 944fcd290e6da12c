package utils

import (
	"testing"
)

type sample struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

func TestExtractCandidatesOrder(t *testing.T) {
	raw := "Sure, here it is:\n```json\n{\"name\": \"a\"}\n```\ntrailing text"
	candidates := ExtractCandidates(raw)

	if len(candidates) != 3 {
		t.Fatalf("got %d candidates, want 3", len(candidates))
	}
	if candidates[0].Strategy != StrategyFenced {
		t.Errorf("first strategy = %q, want fenced", candidates[0].Strategy)
	}
	if candidates[0].Text != `{"name": "a"}` {
		t.Errorf("fenced candidate = %q", candidates[0].Text)
	}
	if candidates[1].Strategy != StrategyBraces {
		t.Errorf("second strategy = %q, want braces", candidates[1].Strategy)
	}
	if candidates[2].Strategy != StrategyRaw {
		t.Errorf("third strategy = %q, want raw", candidates[2].Strategy)
	}
}

func TestParseResponseFencedAndUnwrappedAgree(t *testing.T) {
	body := `{"name": "pump", "value": 42.5}`

	var fromFenced, fromBare sample
	fencedJSON, fencedStrategy, err := ParseResponse("```json\n"+body+"\n```", &fromFenced)
	if err != nil {
		t.Fatalf("fenced parse failed: %v", err)
	}
	bareJSON, bareStrategy, err := ParseResponse(body, &fromBare)
	if err != nil {
		t.Fatalf("bare parse failed: %v", err)
	}

	if fromFenced != fromBare {
		t.Errorf("fenced %+v != bare %+v", fromFenced, fromBare)
	}
	if fencedJSON != bareJSON {
		t.Errorf("normalized JSON differs: %q vs %q", fencedJSON, bareJSON)
	}
	if fencedStrategy != StrategyFenced {
		t.Errorf("fenced strategy = %q", fencedStrategy)
	}
	if bareStrategy != StrategyBraces {
		t.Errorf("bare strategy = %q, want braces", bareStrategy)
	}
}

func TestParseResponseIdempotent(t *testing.T) {
	raw := "prefix {\"name\": \"x\", \"value\": 1} suffix"

	var first sample
	normalized, _, err := ParseResponse(raw, &first)
	if err != nil {
		t.Fatalf("first parse failed: %v", err)
	}

	var second sample
	again, _, err := ParseResponse(normalized, &second)
	if err != nil {
		t.Fatalf("re-parse of normalized output failed: %v", err)
	}
	if again != normalized {
		t.Errorf("normalization not idempotent: %q -> %q", normalized, again)
	}
	if first != second {
		t.Errorf("values diverged on re-parse: %+v vs %+v", first, second)
	}
}

func TestSmartParseRepairsCommonDamage(t *testing.T) {
	cases := []struct {
		name  string
		input string
	}{
		{"single quotes", `{'name': 'x', 'value': 1}`},
		{"trailing comma", `{"name": "x", "value": 1,}`},
		{"unquoted keys", `{name: "x", value: 1}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var s sample
			if _, err := SmartParse(tc.input, &s); err != nil {
				t.Fatalf("SmartParse(%q) failed: %v", tc.input, err)
			}
			if s.Name != "x" || s.Value != 1 {
				t.Errorf("parsed %+v, want {x 1}", s)
			}
		})
	}
}

func TestSmartParseRefusesNonJSON(t *testing.T) {
	var s sample
	if _, err := SmartParse("I could not produce a result.", &s); err == nil {
		t.Fatal("expected failure on prose input")
	}
}

func TestParseResponsePrefersFencedOverSurroundingBraces(t *testing.T) {
	// The prose contains a stray brace pair; only the fenced block is valid.
	raw := "notes {bad json\n```json\n{\"name\": \"y\", \"value\": 3}\n```"
	var s sample
	_, strategy, err := ParseResponse(raw, &s)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if strategy != StrategyFenced {
		t.Errorf("strategy = %q, want fenced", strategy)
	}
	if s.Name != "y" {
		t.Errorf("parsed %+v from wrong candidate", s)
	}
}
