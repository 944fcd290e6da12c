package passes

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Per-stage response schemas. A response that parses as JSON but fails its
// stage's schema is treated exactly like a parse failure and retried.

var stageSchemas = map[int]string{
	StageClassification: `{
		"type": "object",
		"required": ["entity_name", "documents"],
		"properties": {
			"entity_name": {"type": "string"},
			"entity_type": {"type": "string"},
			"documents": {
				"type": "array",
				"items": {
					"type": "object",
					"required": ["filename", "doc_type"],
					"properties": {
						"filename": {"type": "string"},
						"doc_type": {"type": "string"},
						"periods_covered": {"type": "array", "items": {"type": "string"}},
						"quality": {"type": "string"}
					}
				}
			}
		}
	}`,
	StageExtraction: `{
		"type": "object",
		"required": ["income_statements", "balance_sheets"],
		"properties": {
			"income_statements": {
				"type": "array",
				"items": {
					"type": "object",
					"required": ["period", "revenue", "net_income"],
					"properties": {
						"period": {"type": "string"},
						"revenue": {"type": "number"},
						"cogs": {"type": "number"},
						"gross_profit": {"type": "number"},
						"operating_expenses": {"type": "number"},
						"operating_income": {"type": "number"},
						"depreciation_amortization": {"type": "number"},
						"interest_expense": {"type": "number"},
						"officer_compensation": {"type": "number"},
						"net_income": {"type": "number"}
					}
				}
			},
			"balance_sheets": {
				"type": "array",
				"items": {
					"type": "object",
					"required": ["period", "total_assets", "total_liabilities", "total_equity"],
					"properties": {
						"period": {"type": "string"},
						"total_assets": {"type": "number"},
						"total_liabilities": {"type": "number"},
						"total_equity": {"type": "number"}
					}
				}
			}
		}
	}`,
	StageQualityReview: `{
		"type": "object",
		"required": ["years_covered", "reliability"],
		"properties": {
			"years_covered": {"type": "array", "items": {"type": "string"}},
			"gaps": {"type": "array", "items": {"type": "string"}},
			"reliability": {"type": "string", "enum": ["high", "medium", "low"]},
			"notes": {"type": "string"}
		}
	}`,
	StageCompanyProfile: `{
		"type": "object",
		"required": ["legal_name", "industry"],
		"properties": {
			"legal_name": {"type": "string"},
			"entity_type": {"type": "string"},
			"industry": {"type": "string"},
			"naics_code": {"type": "string"},
			"description": {"type": "string"},
			"years_in_operation": {"type": "number"},
			"location": {"type": "string"},
			"employees": {"type": "number"}
		}
	}`,
	StageIndustryResearch: `{
		"type": "object",
		"required": ["industry_outlook", "sde_multiple_low", "sde_multiple_high"],
		"properties": {
			"industry_outlook": {"type": "string"},
			"market_conditions": {"type": "string"},
			"expected_growth_rate": {"type": "number"},
			"sde_multiple_low": {"type": "number"},
			"sde_multiple_high": {"type": "number"},
			"revenue_multiple_low": {"type": "number"},
			"revenue_multiple_high": {"type": "number"},
			"competitive_factors": {"type": "array", "items": {"type": "string"}}
		}
	}`,
	StageNormalization: `{
		"type": "object",
		"required": ["periods", "weighted_sde"],
		"properties": {
			"periods": {
				"type": "array",
				"items": {
					"type": "object",
					"required": ["period", "sde"],
					"properties": {
						"period": {"type": "string"},
						"reported_net_income": {"type": "number"},
						"adjustments": {
							"type": "array",
							"items": {
								"type": "object",
								"required": ["description", "amount"],
								"properties": {
									"description": {"type": "string"},
									"amount": {"type": "number"}
								}
							}
						},
						"sde": {"type": "number"},
						"ebitda": {"type": "number"}
					}
				}
			},
			"weighted_sde": {"type": "number"},
			"weighted_ebitda": {"type": "number"}
		}
	}`,
	StageRiskAssessment: `{
		"type": "object",
		"required": ["factors", "composite_score", "cap_rate"],
		"properties": {
			"factors": {
				"type": "array",
				"items": {
					"type": "object",
					"required": ["category", "score"],
					"properties": {
						"category": {"type": "string"},
						"description": {"type": "string"},
						"score": {"type": "number"}
					}
				}
			},
			"composite_score": {"type": "number"},
			"cap_rate": {"type": "number"},
			"discount_rate": {"type": "number"}
		}
	}`,
	StageAssetApproach: `{
		"type": "object",
		"required": ["indicated_value"],
		"properties": {
			"method": {"type": "string"},
			"adjusted_assets": {"type": "number"},
			"adjusted_liabilities": {"type": "number"},
			"indicated_value": {"type": "number"}
		}
	}`,
	StageIncomeApproach: `{
		"type": "object",
		"required": ["benefit_stream", "cap_rate", "indicated_value"],
		"properties": {
			"method": {"type": "string"},
			"benefit_stream": {"type": "number"},
			"cap_rate": {"type": "number"},
			"indicated_value": {"type": "number"}
		}
	}`,
	StageMarketApproach: `{
		"type": "object",
		"required": ["selected_multiple", "basis_amount", "indicated_value"],
		"properties": {
			"method": {"type": "string"},
			"multiple_type": {"type": "string"},
			"selected_multiple": {"type": "number"},
			"basis_amount": {"type": "number"},
			"indicated_value": {"type": "number"}
		}
	}`,
	StageSynthesis: `{
		"type": "object",
		"required": ["asset_weight", "income_weight", "market_weight", "concluded_value", "value_low", "value_high"],
		"properties": {
			"asset_weight": {"type": "number"},
			"income_weight": {"type": "number"},
			"market_weight": {"type": "number"},
			"dlom": {"type": "number"},
			"dloc": {"type": "number"},
			"concluded_value": {"type": "number"},
			"value_low": {"type": "number"},
			"value_high": {"type": "number"},
			"rationale": {"type": "string"}
		}
	}`,
	StageNarrative: `{
		"type": "object",
		"required": ["sections"],
		"properties": {
			"sections": {
				"type": "object",
				"required": ["executive_summary", "valuation_conclusion"],
				"additionalProperties": {"type": "string"}
			},
			"review_findings": {"type": "array", "items": {"type": "string"}}
		}
	}`,
}

var (
	compiledSchemas map[int]*jsonschema.Schema
	compileOnce     sync.Once
	compileErr      error
)

func compileSchemas() {
	compiledSchemas = make(map[int]*jsonschema.Schema, len(stageSchemas))
	for stage, raw := range stageSchemas {
		compiler := jsonschema.NewCompiler()
		name := fmt.Sprintf("stage_%d.json", stage)
		if err := compiler.AddResource(name, strings.NewReader(raw)); err != nil {
			compileErr = fmt.Errorf("add schema for stage %d: %w", stage, err)
			return
		}
		schema, err := compiler.Compile(name)
		if err != nil {
			compileErr = fmt.Errorf("compile schema for stage %d: %w", stage, err)
			return
		}
		compiledSchemas[stage] = schema
	}
}

// ValidateResponse checks a normalized JSON document against the stage's
// response schema.
func ValidateResponse(stage int, normalizedJSON string) error {
	compileOnce.Do(compileSchemas)
	if compileErr != nil {
		return compileErr
	}

	schema, ok := compiledSchemas[stage]
	if !ok {
		return fmt.Errorf("no schema registered for stage %d", stage)
	}

	var doc interface{}
	if err := json.Unmarshal([]byte(normalizedJSON), &doc); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("response does not match stage %d schema: %w", stage, err)
	}
	return nil
}
