// Package pipeline contains the pass orchestrator: a strictly sequential
// driver that threads each stage's validated output into the next stage's
// request, a retry executor around the model call, per-stage metrics, and
// the async state persister.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/blueboyrocks/business-valuation-app-sub003/pkg/core/llm"
	"github.com/blueboyrocks/business-valuation-app-sub003/pkg/core/passes"
	"github.com/blueboyrocks/business-valuation-app-sub003/pkg/core/report"
)

// ProgressFunc receives (stage, message, percent) after every transition.
// Percent is monotonically non-decreasing over a run.
type ProgressFunc func(stage int, message string, percent int)

// Job is one valuation run: an opaque report identifier, the company name
// supplied at submission, and the prepared input documents.
type Job struct {
	ReportID    string
	CompanyName string
	Documents   []llm.Document
}

// StageError identifies the failing stage by number and name.
type StageError struct {
	Stage int
	Name  string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %d (%s) failed: %v", e.Stage, e.Name, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Result is what a run produces, complete or not: every StageOutput that
// finished, the failing stage on error, the assembled report on success,
// and aggregate metrics either way.
type Result struct {
	ReportID        string                       `json:"report_id"`
	Completed       bool                         `json:"completed"`
	CompletedPasses int                          `json:"completed_passes"`
	FailedStage     int                          `json:"failed_stage,omitempty"`
	FailedStageName string                       `json:"failed_stage_name,omitempty"`
	Error           string                       `json:"error,omitempty"`
	StageOutputs    map[int]*passes.StageOutput  `json:"stage_outputs"`
	Report          *report.FinalReport          `json:"report,omitempty"`
	Validation      *report.ValidationResult     `json:"validation,omitempty"`
	Metrics         Summary                      `json:"metrics"`
}

// Driver executes the twelve passes in strict order for one job. No stage
// runs out of order or concurrently with another; each stage's request
// depends on the full output of its predecessors.
type Driver struct {
	executor  *Executor
	persister *AsyncPersister
	progress  ProgressFunc
	config    Config
}

// NewDriver creates a driver calling the given provider.
func NewDriver(provider llm.Provider, config Config) *Driver {
	return &Driver{
		executor: NewExecutor(provider, config),
		config:   config,
	}
}

// SetPersister attaches the async status persister. Without one the driver
// runs in-memory only (used by the CLI runner and tests).
func (d *Driver) SetPersister(p *AsyncPersister) { d.persister = p }

// SetProgressFunc attaches the progress notification callback.
func (d *Driver) SetProgressFunc(fn ProgressFunc) { d.progress = fn }

// Run executes the pipeline for one job. It always returns a Result; a
// failed stage aborts the remaining stages and yields a partial result
// carrying whatever completed.
func (d *Driver) Run(ctx context.Context, job *Job) *Result {
	fmt.Printf("[PIPELINE] Starting valuation run %s (%s), %d documents\n",
		job.ReportID, job.CompanyName, len(job.Documents))
	start := time.Now()

	outputs := make(map[int]*passes.StageOutput, passes.NumStages)
	aggregator := NewAggregator(d.config)

	for stage := 1; stage <= passes.NumStages; stage++ {
		// Cancellation is honored between stages, never mid-call: the
		// in-flight call is bounded by its own timeout.
		if err := ctx.Err(); err != nil {
			return d.fail(job, stage, outputs, aggregator, err)
		}

		name := passes.Name(stage)
		d.notify(stage, fmt.Sprintf("Stage %d: %s", stage, name), progressBefore(stage))
		d.persist(StatusUpdate{
			ReportID: job.ReportID,
			Status:   fmt.Sprintf("stage-%d-processing", stage),
			Progress: progressBefore(stage),
			Message:  fmt.Sprintf("Stage %d: %s", stage, name),
		})

		req, err := passes.BuildRequest(stage, job.CompanyName, outputs, job.Documents)
		if err != nil {
			return d.fail(job, stage, outputs, aggregator, err)
		}

		out := d.executor.Execute(ctx, stage, req)
		aggregator.Record(out)

		if !out.Success {
			return d.fail(job, stage, outputs, aggregator, fmt.Errorf("%s", out.Error))
		}

		outputs[stage] = out
		fmt.Printf("[PIPELINE] %s: stage %d/%d complete (%d in / %d out tokens, %d retries, strategy=%s)\n",
			job.ReportID, stage, passes.NumStages, out.InputTokens, out.OutputTokens, out.Retries, out.ParseStrategy)

		d.notify(stage, fmt.Sprintf("Stage %d complete: %s", stage, name), progressAfter(stage))
		d.persist(StatusUpdate{
			ReportID:    job.ReportID,
			Status:      fmt.Sprintf("stage-%d-complete", stage),
			Progress:    progressAfter(stage),
			Message:     fmt.Sprintf("Stage %d complete: %s", stage, name),
			StageOutput: out,
		})
	}

	final := report.Assemble(job.ReportID, outputs)
	validation := report.Validate(final)
	if !validation.Valid() {
		fmt.Printf("[PIPELINE] %s: report assembled with %d validation errors, %d warnings\n",
			job.ReportID, len(validation.Errors), len(validation.Warnings))
	}

	result := &Result{
		ReportID:        job.ReportID,
		Completed:       true,
		CompletedPasses: passes.NumStages,
		StageOutputs:    outputs,
		Report:          final,
		Validation:      validation,
		Metrics:         aggregator.Summarize(),
	}

	d.notify(passes.NumStages, "Valuation report completed", 100)
	d.persist(StatusUpdate{
		ReportID: job.ReportID,
		Status:   "completed",
		Progress: 100,
		Message:  "Valuation report completed",
		Result:   result,
	})

	fmt.Printf("[PIPELINE] Run %s completed in %v (total cost $%.4f)\n",
		job.ReportID, time.Since(start), result.Metrics.TotalCost)
	return result
}

// fail builds the partial-run result and persists the terminal error state.
func (d *Driver) fail(job *Job, stage int, outputs map[int]*passes.StageOutput, aggregator *Aggregator, err error) *Result {
	stageErr := &StageError{Stage: stage, Name: passes.Name(stage), Err: err}
	fmt.Printf("[PIPELINE] %s: %v. Aborting remaining stages.\n", job.ReportID, stageErr)

	result := &Result{
		ReportID:        job.ReportID,
		CompletedPasses: len(outputs),
		FailedStage:     stage,
		FailedStageName: passes.Name(stage),
		Error:           stageErr.Error(),
		StageOutputs:    outputs,
		Metrics:         aggregator.Summarize(),
	}

	d.notify(stage, stageErr.Error(), progressBefore(stage))
	d.persist(StatusUpdate{
		ReportID: job.ReportID,
		Status:   "error",
		Progress: progressBefore(stage),
		Message:  stageErr.Error(),
		Result:   result,
	})
	return result
}

func (d *Driver) notify(stage int, message string, percent int) {
	if d.progress != nil {
		d.progress(stage, message, percent)
	}
}

func (d *Driver) persist(update StatusUpdate) {
	if d.persister != nil {
		d.persister.Submit(update)
	}
}

// progressBefore is the percentage reported when stage N begins; it equals
// the completion percentage of stage N-1, keeping progress non-decreasing.
func progressBefore(stage int) int {
	return (stage - 1) * 100 / passes.NumStages
}

func progressAfter(stage int) int {
	return stage * 100 / passes.NumStages
}
