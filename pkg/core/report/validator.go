package report

import (
	"fmt"
	"math"

	"github.com/blueboyrocks/business-valuation-app-sub003/pkg/core/utils"
)

const (
	// WeightTolerance bounds how far the three approach weights may stray
	// from summing to 1.0.
	WeightTolerance = 0.01
	// EquationTolerance is the rounding tolerance, in dollars, for the
	// accounting equation checks.
	EquationTolerance = 1.0
	// NarrativeLengthRatio is the minimum fraction of a section's target
	// word count before a shortfall warning is raised.
	NarrativeLengthRatio = 0.8
)

// narrativeTargets documents the expected word count per narrative section.
var narrativeTargets = map[string]int{
	"executive_summary":    300,
	"company_overview":     250,
	"industry_analysis":    250,
	"financial_analysis":   400,
	"risk_analysis":        250,
	"valuation_conclusion": 300,
}

// Validate checks the FinalReport's structural and numeric invariants.
// It produces a report and never fails: errors would block delivery in
// principle, warnings are informational, and the caller persists the
// FinalReport either way.
func Validate(r *FinalReport) *ValidationResult {
	result := &ValidationResult{}

	checkStructure(r, result)
	checkWeights(r, result)
	checkValueRange(r, result)
	checkFloorValue(r, result)
	checkIncomeStatements(r, result)
	checkBalanceSheets(r, result)
	checkNarrativeLengths(r, result)

	return result
}

func checkStructure(r *FinalReport, result *ValidationResult) {
	if r.Profile.LegalName == "" {
		result.Errors = append(result.Errors, Issue{
			Code:    "missing_profile",
			Message: "company profile has no legal name",
		})
	}
	if len(r.Approaches) != 3 {
		result.Errors = append(result.Errors, Issue{
			Code:    "missing_approaches",
			Message: fmt.Sprintf("expected 3 valuation approaches, found %d", len(r.Approaches)),
		})
	}
	if r.ConcludedValue == 0 {
		result.Errors = append(result.Errors, Issue{
			Code:    "missing_conclusion",
			Message: "concluded value is absent",
		})
	}
	if len(r.Narrative) == 0 {
		result.Errors = append(result.Errors, Issue{
			Code:    "missing_narrative",
			Message: "report has no narrative sections",
		})
	}
}

func checkWeights(r *FinalReport, result *ValidationResult) {
	sum := 0.0
	for _, approach := range r.Approaches {
		sum += approach.Weight
	}
	if math.Abs(sum-1.0) > WeightTolerance {
		result.Errors = append(result.Errors, Issue{
			Code:    "weights_sum",
			Message: fmt.Sprintf("approach weights sum to %.4f, expected 1.0 ± %.2f", sum, WeightTolerance),
		})
	}
}

func checkValueRange(r *FinalReport, result *ValidationResult) {
	if r.ValueLow == 0 && r.ValueHigh == 0 {
		return // missing range is caught by missing_conclusion or left to the caller
	}
	if !(r.ConcludedValue > r.ValueLow && r.ConcludedValue < r.ValueHigh) {
		result.Errors = append(result.Errors, Issue{
			Code: "value_range",
			Message: fmt.Sprintf("concluded value %.2f does not lie strictly between %.2f and %.2f",
				r.ConcludedValue, r.ValueLow, r.ValueHigh),
		})
	}
}

func checkFloorValue(r *FinalReport, result *ValidationResult) {
	if r.FloorValue > 0 && r.ConcludedValue < r.FloorValue {
		result.Warnings = append(result.Warnings, Issue{
			Code: "floor_value",
			Message: fmt.Sprintf("concluded value %.2f falls below the asset-approach floor value %.2f",
				r.ConcludedValue, r.FloorValue),
		})
	}
}

func checkIncomeStatements(r *FinalReport, result *ValidationResult) {
	for _, is := range r.IncomeStatements {
		diff := math.Abs(is.GrossProfit - (is.Revenue - is.COGS))
		if diff > EquationTolerance {
			result.Errors = append(result.Errors, Issue{
				Code: "gross_profit",
				Message: fmt.Sprintf("period %s: gross profit %.2f != revenue %.2f - COGS %.2f (diff %.2f)",
					is.Period, is.GrossProfit, is.Revenue, is.COGS, diff),
			})
		}
	}
}

func checkBalanceSheets(r *FinalReport, result *ValidationResult) {
	for _, bs := range r.BalanceSheets {
		diff := math.Abs(bs.TotalAssets - (bs.TotalLiabilities + bs.TotalEquity))
		if diff > EquationTolerance {
			result.Errors = append(result.Errors, Issue{
				Code: "balance_sheet",
				Message: fmt.Sprintf("period %s: total assets %.2f != liabilities %.2f + equity %.2f (diff %.2f)",
					bs.Period, bs.TotalAssets, bs.TotalLiabilities, bs.TotalEquity, diff),
			})
		}
	}
}

func checkNarrativeLengths(r *FinalReport, result *ValidationResult) {
	for section, target := range narrativeTargets {
		body, ok := r.Narrative[section]
		if !ok {
			result.Warnings = append(result.Warnings, Issue{
				Code:    "narrative_missing",
				Message: fmt.Sprintf("narrative section %q is absent", section),
			})
			continue
		}
		words := utils.WordCount(body)
		minimum := int(float64(target) * NarrativeLengthRatio)
		if words < minimum {
			result.Warnings = append(result.Warnings, Issue{
				Code: "narrative_length",
				Message: fmt.Sprintf("narrative section %q has %d words, below %d (80%% of %d-word target)",
					section, words, minimum, target),
			})
		}
	}
}
