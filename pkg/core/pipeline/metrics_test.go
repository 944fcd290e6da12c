package pipeline

import (
	"math"
	"testing"

	"github.com/blueboyrocks/business-valuation-app-sub003/pkg/core/passes"
)

func TestStageCostAtPublishedRates(t *testing.T) {
	cfg := DefaultConfig()

	// One million tokens each way at $3/$15 per million.
	got := StageCost(1_000_000, 1_000_000, cfg)
	if got != 18.0 {
		t.Errorf("StageCost(1M, 1M) = %v, want 18.0", got)
	}

	// Rounding to 4 decimal places.
	got = StageCost(1234, 567, cfg)
	want := math.Round((1234.0/1_000_000*3.0+567.0/1_000_000*15.0)*10000) / 10000
	if got != want {
		t.Errorf("StageCost(1234, 567) = %v, want %v", got, want)
	}

	if StageCost(0, 0, cfg) != 0 {
		t.Error("zero tokens must cost nothing")
	}
}

func TestSummarizeTotalsAndExtremes(t *testing.T) {
	a := NewAggregator(DefaultConfig())
	a.Record(&passes.StageOutput{Stage: 1, Name: passes.Name(1), DurationMs: 1000, InputTokens: 10_000, OutputTokens: 2_000, Success: true})
	a.Record(&passes.StageOutput{Stage: 2, Name: passes.Name(2), DurationMs: 9000, InputTokens: 200_000, OutputTokens: 50_000, Success: true})
	a.Record(&passes.StageOutput{Stage: 3, Name: passes.Name(3), DurationMs: 2000, InputTokens: 30_000, OutputTokens: 4_000, Success: true})

	s := a.Summarize()

	if s.TotalDurationMs != 12000 {
		t.Errorf("TotalDurationMs = %d, want 12000", s.TotalDurationMs)
	}
	if s.TotalInputTokens != 240_000 || s.TotalOutputTokens != 56_000 {
		t.Errorf("token totals = %d/%d, want 240000/56000", s.TotalInputTokens, s.TotalOutputTokens)
	}
	if s.AvgStageDurationMs != 4000 {
		t.Errorf("AvgStageDurationMs = %v, want 4000", s.AvgStageDurationMs)
	}
	if s.SlowestStage == nil || s.SlowestStage.Stage != 2 {
		t.Errorf("SlowestStage = %+v, want stage 2", s.SlowestStage)
	}
	if s.MostExpensiveStage == nil || s.MostExpensiveStage.Stage != 2 {
		t.Errorf("MostExpensiveStage = %+v, want stage 2", s.MostExpensiveStage)
	}

	var sum float64
	for _, sm := range s.Stages {
		sum += sm.Cost
	}
	if math.Abs(s.TotalCost-roundTo4(sum)) > 1e-9 {
		t.Errorf("TotalCost = %v, want sum of stage costs %v", s.TotalCost, sum)
	}
}

func TestSummarizeTiesGoToFirstStage(t *testing.T) {
	a := NewAggregator(DefaultConfig())
	a.Record(&passes.StageOutput{Stage: 1, DurationMs: 5000, InputTokens: 1000, OutputTokens: 100})
	a.Record(&passes.StageOutput{Stage: 2, DurationMs: 5000, InputTokens: 1000, OutputTokens: 100})

	s := a.Summarize()
	if s.SlowestStage.Stage != 1 {
		t.Errorf("slowest tie went to stage %d, want 1", s.SlowestStage.Stage)
	}
	if s.MostExpensiveStage.Stage != 1 {
		t.Errorf("cost tie went to stage %d, want 1", s.MostExpensiveStage.Stage)
	}
}

func TestRecordKeepsFailedStages(t *testing.T) {
	a := NewAggregator(DefaultConfig())
	a.Record(&passes.StageOutput{Stage: 7, InputTokens: 50_000, OutputTokens: 0, Success: false, Error: "exhausted"})

	s := a.Summarize()
	if len(s.Stages) != 1 {
		t.Fatalf("failed stage not recorded")
	}
	if s.TotalInputTokens != 50_000 {
		t.Errorf("TotalInputTokens = %d, want 50000 (failed attempts were still billed)", s.TotalInputTokens)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	s := NewAggregator(DefaultConfig()).Summarize()
	if s.TotalCost != 0 || s.SlowestStage != nil || s.MostExpensiveStage != nil {
		t.Errorf("empty summary should be all zero values, got %+v", s)
	}
}
