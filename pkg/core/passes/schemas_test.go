package passes

import (
	"strings"
	"testing"
)

func TestValidateResponseAcceptsValidSynthesis(t *testing.T) {
	valid := `{
		"asset_weight": 0.1, "income_weight": 0.5, "market_weight": 0.4,
		"concluded_value": 1500000, "value_low": 1200000, "value_high": 1900000
	}`
	if err := ValidateResponse(StageSynthesis, valid); err != nil {
		t.Errorf("valid synthesis rejected: %v", err)
	}
}

func TestValidateResponseRejectsMissingRequiredField(t *testing.T) {
	missing := `{"asset_weight": 0.1, "income_weight": 0.5, "market_weight": 0.4}`
	if err := ValidateResponse(StageSynthesis, missing); err == nil {
		t.Error("synthesis without concluded_value must be rejected")
	}
}

func TestValidateResponseRejectsWrongTypes(t *testing.T) {
	wrong := `{"benefit_stream": "a lot", "cap_rate": 0.2, "indicated_value": 100}`
	err := ValidateResponse(StageIncomeApproach, wrong)
	if err == nil {
		t.Fatal("string benefit_stream must be rejected")
	}
	if !strings.Contains(err.Error(), "schema") {
		t.Errorf("error = %v, want schema violation", err)
	}
}

func TestValidateResponseRejectsBadEnum(t *testing.T) {
	bad := `{"years_covered": ["2023"], "reliability": "excellent"}`
	if err := ValidateResponse(StageQualityReview, bad); err == nil {
		t.Error("reliability outside high/medium/low must be rejected")
	}
}

func TestEveryStageHasASchema(t *testing.T) {
	for stage := 1; stage <= NumStages; stage++ {
		if _, ok := stageSchemas[stage]; !ok {
			t.Errorf("stage %d has no response schema", stage)
		}
	}
}

func TestEveryStageHasAPrompt(t *testing.T) {
	for stage := 1; stage <= NumStages; stage++ {
		if SystemPrompt(stage) == "" {
			t.Errorf("stage %d has no system prompt", stage)
		}
	}
}
