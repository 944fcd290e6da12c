package report

import (
	"time"

	"github.com/blueboyrocks/business-valuation-app-sub003/pkg/core/passes"
	"github.com/blueboyrocks/business-valuation-app-sub003/pkg/core/utils"
)

// Assemble maps the stage outputs into the FinalReport schema. Every target
// field reads from exactly one (stage, field) source; a missing source gets
// its documented default (zero, empty list, or empty string) and is left
// for the validator to flag. The assembler never invents values.
func Assemble(reportID string, outputs map[int]*passes.StageOutput) *FinalReport {
	r := &FinalReport{
		ReportID:        reportID,
		GeneratedAt:     time.Now(),
		CompletedPasses: countCompleted(outputs),
		Narrative:       map[string]string{},
	}

	if profile, ok := payloadOf[*passes.CompanyProfile](outputs, passes.StageCompanyProfile); ok {
		r.Profile = *profile
	}

	if financials, ok := payloadOf[*passes.FinancialData](outputs, passes.StageExtraction); ok {
		r.IncomeStatements = financials.IncomeStatements
		r.BalanceSheets = financials.BalanceSheets
	}

	if earnings, ok := payloadOf[*passes.NormalizedEarnings](outputs, passes.StageNormalization); ok {
		r.NormalizedEarnings = *earnings
	}

	if risk, ok := payloadOf[*passes.RiskAssessment](outputs, passes.StageRiskAssessment); ok {
		r.Risk = RiskSummary{
			CompositeScore: risk.CompositeScore,
			CapRate:        risk.CapRate,
			DiscountRate:   risk.DiscountRate,
		}
	}

	var weights passes.Synthesis
	if synthesis, ok := payloadOf[*passes.Synthesis](outputs, passes.StageSynthesis); ok {
		weights = *synthesis
		r.ConcludedValue = synthesis.ConcludedValue
		r.ValueLow = synthesis.ValueLow
		r.ValueHigh = synthesis.ValueHigh
		r.DLOM = synthesis.DLOM
		r.DLOC = synthesis.DLOC
	}

	asset := ApproachSummary{Approach: ApproachAsset, Weight: weights.AssetWeight}
	if approach, ok := payloadOf[*passes.AssetApproach](outputs, passes.StageAssetApproach); ok {
		asset.Method = approach.Method
		asset.IndicatedValue = approach.IndicatedValue
		r.FloorValue = approach.IndicatedValue
	}

	income := ApproachSummary{Approach: ApproachIncome, Weight: weights.IncomeWeight}
	if approach, ok := payloadOf[*passes.IncomeApproach](outputs, passes.StageIncomeApproach); ok {
		income.Method = approach.Method
		income.IndicatedValue = approach.IndicatedValue
	}

	market := ApproachSummary{Approach: ApproachMarket, Weight: weights.MarketWeight}
	if approach, ok := payloadOf[*passes.MarketApproach](outputs, passes.StageMarketApproach); ok {
		market.Method = approach.Method
		market.IndicatedValue = approach.IndicatedValue
	}

	r.Approaches = []ApproachSummary{asset, income, market}

	if narrative, ok := payloadOf[*passes.Narrative](outputs, passes.StageNarrative); ok {
		for name, body := range narrative.Sections {
			r.Narrative[name] = utils.CleanMarkdown(body)
		}
		r.ReviewFindings = narrative.ReviewFindings
	}

	return r
}

// payloadOf fetches a successful stage output's payload as a concrete type.
func payloadOf[T passes.StagePayload](outputs map[int]*passes.StageOutput, stage int) (T, bool) {
	var zero T
	out, ok := outputs[stage]
	if !ok || !out.Success || out.Payload == nil {
		return zero, false
	}
	payload, ok := out.Payload.(T)
	if !ok {
		return zero, false
	}
	return payload, true
}

func countCompleted(outputs map[int]*passes.StageOutput) int {
	count := 0
	for _, out := range outputs {
		if out.Success {
			count++
		}
	}
	return count
}
