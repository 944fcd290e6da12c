package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/blueboyrocks/business-valuation-app-sub003/pkg/core/llm"
	"github.com/blueboyrocks/business-valuation-app-sub003/pkg/core/passes"
)

// mockProvider lets each test script the model's behavior per call.
type mockProvider struct {
	generateFunc func(ctx context.Context, req llm.Request) (*llm.Completion, error)
}

func (m *mockProvider) Name() string { return "mock" }

func (m *mockProvider) Generate(ctx context.Context, req llm.Request) (*llm.Completion, error) {
	return m.generateFunc(ctx, req)
}

// stageResponses holds one schema-valid response per stage, consistent with
// each other so the assembled report passes validation.
var stageResponses = map[int]string{
	passes.StageClassification: `{
		"entity_name": "Acme Plumbing LLC",
		"entity_type": "LLC",
		"documents": [
			{"filename": "tax_2023.pdf", "doc_type": "tax_return", "periods_covered": ["2023"], "quality": "high"},
			{"filename": "pnl_2024.xlsx", "doc_type": "financial_statement", "periods_covered": ["2024"], "quality": "medium"}
		]
	}`,
	passes.StageExtraction: `{
		"income_statements": [
			{"period": "2023", "revenue": 1800000, "cogs": 700000, "gross_profit": 1100000,
			 "operating_expenses": 800000, "operating_income": 300000, "depreciation_amortization": 40000,
			 "interest_expense": 15000, "officer_compensation": 150000, "net_income": 245000},
			{"period": "2024", "revenue": 2000000, "cogs": 800000, "gross_profit": 1200000,
			 "operating_expenses": 850000, "operating_income": 350000, "depreciation_amortization": 45000,
			 "interest_expense": 12000, "officer_compensation": 160000, "net_income": 293000}
		],
		"balance_sheets": [
			{"period": "2024", "cash_and_equivalents": 150000, "accounts_receivable": 220000,
			 "inventory": 80000, "fixed_assets_net": 450000, "total_assets": 900000,
			 "total_liabilities": 350000, "total_debt": 200000, "total_equity": 550000}
		]
	}`,
	passes.StageQualityReview: `{
		"years_covered": ["2023", "2024"],
		"gaps": [],
		"reliability": "high",
		"notes": "Tax returns reconcile with internal statements."
	}`,
	passes.StageCompanyProfile: `{
		"legal_name": "Acme Plumbing LLC",
		"entity_type": "LLC",
		"industry": "Plumbing Contractors",
		"naics_code": "238220",
		"description": "Residential and light commercial plumbing services.",
		"years_in_operation": 18,
		"location": "Tucson, AZ",
		"employees": 14
	}`,
	passes.StageIndustryResearch: `{
		"industry_outlook": "Stable demand driven by housing stock age.",
		"market_conditions": "Buyer demand for home-services trades remains strong.",
		"expected_growth_rate": 0.04,
		"sde_multiple_low": 2.2,
		"sde_multiple_high": 3.1,
		"revenue_multiple_low": 0.45,
		"revenue_multiple_high": 0.7,
		"competitive_factors": ["licensing barrier", "fragmented local market"]
	}`,
	passes.StageNormalization: `{
		"periods": [
			{"period": "2023", "reported_net_income": 245000,
			 "adjustments": [{"description": "Officer compensation addback", "amount": 150000}],
			 "sde": 435000, "ebitda": 300000},
			{"period": "2024", "reported_net_income": 293000,
			 "adjustments": [{"description": "Officer compensation addback", "amount": 160000}],
			 "sde": 510000, "ebitda": 350000}
		],
		"weighted_sde": 485000,
		"weighted_ebitda": 333000
	}`,
	passes.StageRiskAssessment: `{
		"factors": [
			{"category": "customer_concentration", "description": "Top customer is 9% of revenue", "score": 3},
			{"category": "owner_dependence", "description": "Owner holds master license", "score": 6}
		],
		"composite_score": 4.5,
		"cap_rate": 0.22,
		"discount_rate": 0.26
	}`,
	passes.StageAssetApproach: `{
		"method": "adjusted_net_assets",
		"adjusted_assets": 950000,
		"adjusted_liabilities": 350000,
		"indicated_value": 600000
	}`,
	passes.StageIncomeApproach: `{
		"method": "capitalization_of_earnings",
		"benefit_stream": 485000,
		"cap_rate": 0.22,
		"indicated_value": 2204545
	}`,
	passes.StageMarketApproach: `{
		"method": "guideline_transactions",
		"multiple_type": "SDE",
		"selected_multiple": 2.6,
		"basis_amount": 485000,
		"indicated_value": 1261000
	}`,
	passes.StageSynthesis: `{
		"asset_weight": 0.1,
		"income_weight": 0.5,
		"market_weight": 0.4,
		"dlom": 0.1,
		"dloc": 0.0,
		"concluded_value": 1500000,
		"value_low": 1200000,
		"value_high": 1900000,
		"rationale": "Income approach carries the most weight for an established earnings stream."
	}`,
	passes.StageNarrative: `{
		"sections": {
			"executive_summary": "This report concludes a fair market value of $1,500,000.",
			"valuation_conclusion": "Based on the weighted approaches the concluded value is $1,500,000."
		},
		"review_findings": ["Concluded value sits within the indicated range."]
	}`,
}

// sequentialProvider answers stage N's k-th call via respond. Stages are
// identified by the pass marker the request builder embeds in the prompt.
type sequentialProvider struct {
	calls   map[int]int
	respond func(stage, attempt int) (*llm.Completion, error)
}

func newSequentialProvider(respond func(stage, attempt int) (*llm.Completion, error)) *mockProvider {
	s := &sequentialProvider{calls: map[int]int{}, respond: respond}
	return &mockProvider{generateFunc: func(ctx context.Context, req llm.Request) (*llm.Completion, error) {
		stage := stageFromPrompt(req.Prompt)
		attempt := s.calls[stage]
		s.calls[stage]++
		return s.respond(stage, attempt)
	}}
}

func stageFromPrompt(prompt string) int {
	for stage := 1; stage <= passes.NumStages; stage++ {
		if strings.Contains(prompt, fmt.Sprintf("(pass %d of %d)", stage, passes.NumStages)) {
			return stage
		}
	}
	return 0
}
