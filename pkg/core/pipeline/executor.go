package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/blueboyrocks/business-valuation-app-sub003/pkg/core/llm"
	"github.com/blueboyrocks/business-valuation-app-sub003/pkg/core/passes"
	"github.com/blueboyrocks/business-valuation-app-sub003/pkg/core/utils"
)

// Executor wraps a single model call with bounded retries and exponential
// backoff. Transport errors, non-2xx responses, parse failures and schema
// violations are all treated identically: each consumes an attempt.
type Executor struct {
	provider llm.Provider
	config   Config

	// sleep is swappable in tests to observe backoff delays.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewExecutor creates an executor bound to one provider.
func NewExecutor(provider llm.Provider, config Config) *Executor {
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = DefaultConfig().MaxAttempts
	}
	return &Executor{
		provider: provider,
		config:   config,
		sleep:    sleepWithContext,
	}
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// Execute runs one stage's call until it produces a schema-valid payload or
// retries are exhausted. It always returns a StageOutput; exhaustion yields
// a failure output rather than an error so the driver decides fatality.
func (e *Executor) Execute(ctx context.Context, stage int, req llm.Request) *passes.StageOutput {
	out := &passes.StageOutput{
		Stage: stage,
		Name:  passes.Name(stage),
	}

	req.Temperature = e.config.Temperature
	if req.MaxOutputTokens == 0 {
		req.MaxOutputTokens = e.config.MaxOutputTokens
	}

	start := time.Now()
	var lastErr error

	for attempt := 0; attempt < e.config.MaxAttempts; attempt++ {
		if attempt > 0 {
			delay := e.config.BaseBackoff * (1 << uint(attempt-1))
			fmt.Printf("[EXECUTOR] Stage %d attempt %d failed: %v. Retrying in %v...\n", stage, attempt, lastErr, delay)
			if err := e.sleep(ctx, delay); err != nil {
				lastErr = err
				break
			}
		}

		completion, err := e.callOnce(ctx, req)
		if completion != nil {
			out.InputTokens += completion.InputTokens
			out.OutputTokens += completion.OutputTokens
			out.Raw = completion.Text
		}
		if err != nil {
			lastErr = err
			continue
		}

		payload, strategy, err := e.parseResponse(stage, completion.Text)
		if err != nil {
			lastErr = err
			continue
		}

		out.Payload = payload
		out.ParseStrategy = strategy
		out.Retries = attempt
		out.Success = true
		out.DurationMs = time.Since(start).Milliseconds()
		out.CompletedAt = time.Now()
		return out
	}

	out.Retries = e.config.MaxAttempts - 1
	out.DurationMs = time.Since(start).Milliseconds()
	out.CompletedAt = time.Now()
	if lastErr != nil {
		out.Error = lastErr.Error()
	} else {
		out.Error = "all attempts failed"
	}
	return out
}

// callOnce invokes the provider exactly once under the per-call timeout.
func (e *Executor) callOnce(ctx context.Context, req llm.Request) (*llm.Completion, error) {
	callCtx := ctx
	if e.config.CallTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, e.config.CallTimeout)
		defer cancel()
	}
	return e.provider.Generate(callCtx, req)
}

// parseResponse runs the extraction chain (fenced block, brace span, whole
// text), lenient-parses the winning candidate, and validates it against the
// stage's response schema before accepting.
func (e *Executor) parseResponse(stage int, raw string) (passes.StagePayload, string, error) {
	var lastErr error
	for _, candidate := range utils.ExtractCandidates(raw) {
		payload, err := passes.NewPayload(stage)
		if err != nil {
			return nil, "", err
		}

		normalized, parseErr := utils.SmartParse(candidate.Text, payload)
		if parseErr != nil {
			lastErr = parseErr
			continue
		}
		if schemaErr := passes.ValidateResponse(stage, normalized); schemaErr != nil {
			lastErr = schemaErr
			continue
		}
		return payload, candidate.Strategy, nil
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no JSON candidate found in response")
	}
	return nil, "", fmt.Errorf("stage %d response rejected: %w", stage, lastErr)
}
