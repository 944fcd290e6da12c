package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/blueboyrocks/business-valuation-app-sub003/pkg/core/llm"
	"github.com/blueboyrocks/business-valuation-app-sub003/pkg/core/passes"
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.BaseBackoff = time.Millisecond
	cfg.CallTimeout = time.Second
	return cfg
}

func noSleep(e *Executor) {
	e.sleep = func(ctx context.Context, d time.Duration) error { return nil }
}

func TestExecuteFirstAttemptSuccess(t *testing.T) {
	provider := &mockProvider{generateFunc: func(ctx context.Context, req llm.Request) (*llm.Completion, error) {
		return &llm.Completion{
			Text:         "Here is the result:\n```json\n" + stageResponses[passes.StageSynthesis] + "\n```",
			InputTokens:  1200,
			OutputTokens: 340,
		}, nil
	}}

	e := NewExecutor(provider, testConfig())
	noSleep(e)
	out := e.Execute(context.Background(), passes.StageSynthesis, llm.Request{Prompt: "(pass 11 of 12)"})

	if !out.Success {
		t.Fatalf("expected success, got error: %s", out.Error)
	}
	if out.Retries != 0 {
		t.Errorf("Retries = %d, want 0", out.Retries)
	}
	if out.ParseStrategy != "fenced" {
		t.Errorf("ParseStrategy = %q, want fenced", out.ParseStrategy)
	}
	if out.InputTokens != 1200 || out.OutputTokens != 340 {
		t.Errorf("tokens = %d/%d, want 1200/340", out.InputTokens, out.OutputTokens)
	}
	synthesis, ok := out.Payload.(*passes.Synthesis)
	if !ok {
		t.Fatalf("payload type = %T, want *passes.Synthesis", out.Payload)
	}
	if synthesis.ConcludedValue != 1500000 {
		t.Errorf("ConcludedValue = %v, want 1500000", synthesis.ConcludedValue)
	}
}

func TestExecuteExhaustsAttempts(t *testing.T) {
	calls := 0
	provider := &mockProvider{generateFunc: func(ctx context.Context, req llm.Request) (*llm.Completion, error) {
		calls++
		return nil, errors.New("connection reset")
	}}

	cfg := testConfig()
	e := NewExecutor(provider, cfg)
	noSleep(e)
	out := e.Execute(context.Background(), passes.StageClassification, llm.Request{})

	if out.Success {
		t.Fatal("expected failure after exhausting attempts")
	}
	if calls != cfg.MaxAttempts {
		t.Errorf("provider called %d times, want exactly %d", calls, cfg.MaxAttempts)
	}
	if out.Retries != cfg.MaxAttempts-1 {
		t.Errorf("Retries = %d, want %d", out.Retries, cfg.MaxAttempts-1)
	}
	if !strings.Contains(out.Error, "connection reset") {
		t.Errorf("Error = %q, want it to carry the last attempt's error", out.Error)
	}
}

func TestExecuteBackoffDoubles(t *testing.T) {
	attempts := 0
	provider := &mockProvider{generateFunc: func(ctx context.Context, req llm.Request) (*llm.Completion, error) {
		attempts++
		if attempts < 3 {
			return &llm.Completion{Text: "not json at all", InputTokens: 100, OutputTokens: 10}, nil
		}
		return &llm.Completion{Text: stageResponses[passes.StageQualityReview], InputTokens: 100, OutputTokens: 50}, nil
	}}

	cfg := testConfig()
	cfg.BaseBackoff = 2 * time.Second
	e := NewExecutor(provider, cfg)

	var delays []time.Duration
	e.sleep = func(ctx context.Context, d time.Duration) error {
		delays = append(delays, d)
		return nil
	}

	out := e.Execute(context.Background(), passes.StageQualityReview, llm.Request{})

	if !out.Success {
		t.Fatalf("expected eventual success, got: %s", out.Error)
	}
	if out.Retries != 2 {
		t.Errorf("Retries = %d, want 2", out.Retries)
	}
	want := []time.Duration{2 * time.Second, 4 * time.Second}
	if len(delays) != len(want) {
		t.Fatalf("observed %d backoff sleeps, want %d", len(delays), len(want))
	}
	for i := range want {
		if delays[i] != want[i] {
			t.Errorf("backoff[%d] = %v, want %v", i, delays[i], want[i])
		}
	}
	// Tokens from the failed attempts still count; they were billed.
	if out.InputTokens != 300 {
		t.Errorf("InputTokens = %d, want 300 (accumulated across attempts)", out.InputTokens)
	}
	if out.OutputTokens != 70 {
		t.Errorf("OutputTokens = %d, want 70 (accumulated across attempts)", out.OutputTokens)
	}
}

func TestExecuteSchemaMismatchIsRetried(t *testing.T) {
	// Parses fine as JSON but omits required income-approach fields, so the
	// schema check must reject it and consume the attempt.
	calls := 0
	provider := &mockProvider{generateFunc: func(ctx context.Context, req llm.Request) (*llm.Completion, error) {
		calls++
		return &llm.Completion{Text: `{"method": "capitalization_of_earnings"}`}, nil
	}}

	cfg := testConfig()
	e := NewExecutor(provider, cfg)
	noSleep(e)
	out := e.Execute(context.Background(), passes.StageIncomeApproach, llm.Request{})

	if out.Success {
		t.Fatal("expected schema-invalid responses to fail the stage")
	}
	if calls != cfg.MaxAttempts {
		t.Errorf("provider called %d times, want %d (schema mismatch consumes an attempt)", calls, cfg.MaxAttempts)
	}
	if !strings.Contains(out.Error, "schema") {
		t.Errorf("Error = %q, want schema violation surfaced", out.Error)
	}
}

func TestExecuteMalformedJSONRepaired(t *testing.T) {
	// Trailing comma and single quotes: strict parse fails, repair succeeds.
	raw := `{'years_covered': ['2023', '2024'], 'reliability': 'high',}`
	provider := &mockProvider{generateFunc: func(ctx context.Context, req llm.Request) (*llm.Completion, error) {
		return &llm.Completion{Text: raw}, nil
	}}

	e := NewExecutor(provider, testConfig())
	noSleep(e)
	out := e.Execute(context.Background(), passes.StageQualityReview, llm.Request{})

	if !out.Success {
		t.Fatalf("expected lenient parse to recover, got: %s", out.Error)
	}
	if out.Retries != 0 {
		t.Errorf("Retries = %d, want 0 (repair is not a retry)", out.Retries)
	}
	review, ok := out.Payload.(*passes.QualityReview)
	if !ok {
		t.Fatalf("payload type = %T, want *passes.QualityReview", out.Payload)
	}
	if review.Reliability != "high" {
		t.Errorf("Reliability = %q, want high", review.Reliability)
	}
}
