// Package passes defines the twelve passes of the valuation methodology:
// their order, the static dependency table between them, the per-pass
// prompts and response schemas, and the request builder that renders prior
// outputs into the next pass's context block.
package passes

import "fmt"

const NumStages = 12

const (
	StageClassification   = 1
	StageExtraction       = 2
	StageQualityReview    = 3
	StageCompanyProfile   = 4
	StageIndustryResearch = 5
	StageNormalization    = 6
	StageRiskAssessment   = 7
	StageAssetApproach    = 8
	StageIncomeApproach   = 9
	StageMarketApproach   = 10
	StageSynthesis        = 11
	StageNarrative        = 12
)

var stageNames = map[int]string{
	StageClassification:   "Document Classification",
	StageExtraction:       "Financial Data Extraction",
	StageQualityReview:    "Document Quality Review",
	StageCompanyProfile:   "Company & Industry Profile",
	StageIndustryResearch: "Industry Research & Market Conditions",
	StageNormalization:    "Earnings Normalization",
	StageRiskAssessment:   "Risk Assessment",
	StageAssetApproach:    "Asset Approach Valuation",
	StageIncomeApproach:   "Income Approach Valuation",
	StageMarketApproach:   "Market Approach Valuation",
	StageSynthesis:        "Valuation Synthesis & Weighting",
	StageNarrative:        "Narrative Generation & Quality Review",
}

// dependencies is the static per-stage dependency table. Each stage's
// request observes only the listed prior outputs, not all twelve.
var dependencies = map[int][]int{
	StageClassification:   {},
	StageExtraction:       {1},
	StageQualityReview:    {1, 2},
	StageCompanyProfile:   {1, 2, 3},
	StageIndustryResearch: {1, 2, 3, 4},
	StageNormalization:    {2, 4},
	StageRiskAssessment:   {2, 4, 5, 6},
	StageAssetApproach:    {2, 6},
	StageIncomeApproach:   {1, 4, 5, 6},
	StageMarketApproach:   {2, 4, 5, 6},
	StageSynthesis:        {7, 8, 9, 10},
	StageNarrative:        {2, 4, 5, 6, 7, 8, 9, 10, 11},
}

// Name returns the human-readable stage name.
func Name(stage int) string {
	if name, ok := stageNames[stage]; ok {
		return name
	}
	return fmt.Sprintf("Stage %d", stage)
}

// Dependencies returns the prior stages whose outputs feed this stage.
func Dependencies(stage int) []int {
	return dependencies[stage]
}

// RequiresDocuments reports whether the stage sends the raw input documents
// to the model. Only the three document-facing passes do.
func RequiresDocuments(stage int) bool {
	return stage >= StageClassification && stage <= StageQualityReview
}
