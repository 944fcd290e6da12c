// Package report assembles the twelve stage outputs into one normalized
// FinalReport schema and checks its structural and numeric invariants.
package report

import (
	"time"

	"github.com/blueboyrocks/business-valuation-app-sub003/pkg/core/passes"
)

// Approach names used in the assembled report.
const (
	ApproachAsset  = "asset"
	ApproachIncome = "income"
	ApproachMarket = "market"
)

// ApproachSummary is one valuation approach's contribution: its indicated
// value and the weight assigned during synthesis.
type ApproachSummary struct {
	Approach       string  `json:"approach"`
	Method         string  `json:"method"`
	IndicatedValue float64 `json:"indicated_value"`
	Weight         float64 `json:"weight"`
}

// RiskSummary carries the risk figures the report surfaces; the full factor
// list stays in the stage output.
type RiskSummary struct {
	CompositeScore float64 `json:"composite_score"`
	CapRate        float64 `json:"cap_rate"`
	DiscountRate   float64 `json:"discount_rate"`
}

// FinalReport is the denormalized artifact delivered to the caller after
// stage 12 succeeds. Built once; immutable.
type FinalReport struct {
	ReportID        string    `json:"report_id"`
	GeneratedAt     time.Time `json:"generated_at"`
	CompletedPasses int       `json:"completed_passes"`

	Profile            passes.CompanyProfile     `json:"profile"`
	IncomeStatements   []passes.IncomeStatement  `json:"income_statements"`
	BalanceSheets      []passes.BalanceSheet     `json:"balance_sheets"`
	NormalizedEarnings passes.NormalizedEarnings `json:"normalized_earnings"`
	Risk               RiskSummary               `json:"risk"`

	Approaches []ApproachSummary `json:"approaches"`
	// FloorValue is the asset-approach indicated value; a concluded value
	// below it draws a validation warning.
	FloorValue     float64 `json:"floor_value"`
	ConcludedValue float64 `json:"concluded_value"`
	ValueLow       float64 `json:"value_low"`
	ValueHigh      float64 `json:"value_high"`
	DLOM           float64 `json:"dlom"`
	DLOC           float64 `json:"dloc"`

	Narrative      map[string]string `json:"narrative"`
	ReviewFindings []string          `json:"review_findings"`
}

// Issue is one validation finding.
type Issue struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ValidationResult lists structural/numeric errors and warnings found in a
// FinalReport. Errors would block delivery in principle; in practice the
// report is persisted regardless with this result attached.
type ValidationResult struct {
	Errors   []Issue `json:"errors"`
	Warnings []Issue `json:"warnings"`
}

// Valid reports whether no errors were found (warnings do not count).
func (v *ValidationResult) Valid() bool {
	return len(v.Errors) == 0
}
