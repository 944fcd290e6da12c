package pipeline

import (
	"math"

	"github.com/blueboyrocks/business-valuation-app-sub003/pkg/core/passes"
)

// StageMetrics is the per-stage cost/latency record derived from a
// StageOutput's provenance. Never altered once recorded.
type StageMetrics struct {
	Stage        int     `json:"stage"`
	Name         string  `json:"name"`
	DurationMs   int64   `json:"duration_ms"`
	InputTokens  int     `json:"input_tokens"`
	OutputTokens int     `json:"output_tokens"`
	Retries      int     `json:"retries"`
	Cost         float64 `json:"cost"`
}

// Summary is the aggregate view produced at pipeline end (or on demand for
// a partial run).
type Summary struct {
	Stages             []StageMetrics `json:"stages"`
	TotalDurationMs    int64          `json:"total_duration_ms"`
	TotalInputTokens   int            `json:"total_input_tokens"`
	TotalOutputTokens  int            `json:"total_output_tokens"`
	TotalCost          float64        `json:"total_cost"`
	AvgStageDurationMs float64        `json:"avg_stage_duration_ms"`
	SlowestStage       *StageMetrics  `json:"slowest_stage,omitempty"`
	MostExpensiveStage *StageMetrics  `json:"most_expensive_stage,omitempty"`
}

// Aggregator accumulates per-stage metrics incrementally as stages complete.
type Aggregator struct {
	config Config
	stages []StageMetrics
}

// NewAggregator creates an aggregator using the config's price table.
func NewAggregator(config Config) *Aggregator {
	return &Aggregator{config: config}
}

// Record appends one stage's metrics. Failed stages are recorded too: their
// tokens were spent and belong in the partial-run totals.
func (a *Aggregator) Record(out *passes.StageOutput) {
	a.stages = append(a.stages, StageMetrics{
		Stage:        out.Stage,
		Name:         out.Name,
		DurationMs:   out.DurationMs,
		InputTokens:  out.InputTokens,
		OutputTokens: out.OutputTokens,
		Retries:      out.Retries,
		Cost:         StageCost(out.InputTokens, out.OutputTokens, a.config),
	})
}

// StageCost computes the monetary cost of one stage from the price table,
// rounded to 4 decimal places.
func StageCost(inputTokens, outputTokens int, config Config) float64 {
	cost := float64(inputTokens)/1_000_000*config.InputPricePerMTok +
		float64(outputTokens)/1_000_000*config.OutputPricePerMTok
	return roundTo4(cost)
}

func roundTo4(v float64) float64 {
	return math.Round(v*10000) / 10000
}

// Summarize derives the aggregate statistics. Ties for slowest and most
// expensive go to the first-encountered stage.
func (a *Aggregator) Summarize() Summary {
	summary := Summary{Stages: a.stages}
	if len(a.stages) == 0 {
		return summary
	}

	slowest := 0
	costliest := 0
	for i, sm := range a.stages {
		summary.TotalDurationMs += sm.DurationMs
		summary.TotalInputTokens += sm.InputTokens
		summary.TotalOutputTokens += sm.OutputTokens
		summary.TotalCost += sm.Cost
		if sm.DurationMs > a.stages[slowest].DurationMs {
			slowest = i
		}
		if sm.Cost > a.stages[costliest].Cost {
			costliest = i
		}
	}
	summary.TotalCost = roundTo4(summary.TotalCost)
	summary.AvgStageDurationMs = float64(summary.TotalDurationMs) / float64(len(a.stages))
	summary.SlowestStage = &a.stages[slowest]
	summary.MostExpensiveStage = &a.stages[costliest]
	return summary
}
