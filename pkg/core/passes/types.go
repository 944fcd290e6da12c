package passes

import (
	"encoding/json"
	"fmt"
	"time"
)

// StagePayload is the tagged union over the twelve per-stage result shapes.
// Each pass parses its model response into exactly one of these types; the
// request builder and report assembler pattern-match on the variants they
// depend on instead of passing untyped blobs around.
type StagePayload interface {
	Stage() int
}

// --- Stage 1: Document Classification ---

type ClassificationResult struct {
	EntityName string               `json:"entity_name"`
	EntityType string               `json:"entity_type"`
	Documents  []ClassifiedDocument `json:"documents"`
}

type ClassifiedDocument struct {
	Filename       string   `json:"filename"`
	DocType        string   `json:"doc_type"` // tax_return | financial_statement | bank_statement | other
	PeriodsCovered []string `json:"periods_covered"`
	Quality        string   `json:"quality"` // high | medium | low
}

func (ClassificationResult) Stage() int { return StageClassification }

// --- Stage 2: Financial Data Extraction ---

type FinancialData struct {
	IncomeStatements []IncomeStatement `json:"income_statements"`
	BalanceSheets    []BalanceSheet    `json:"balance_sheets"`
}

type IncomeStatement struct {
	Period                   string  `json:"period"`
	Revenue                  float64 `json:"revenue"`
	COGS                     float64 `json:"cogs"`
	GrossProfit              float64 `json:"gross_profit"`
	OperatingExpenses        float64 `json:"operating_expenses"`
	OperatingIncome          float64 `json:"operating_income"`
	DepreciationAmortization float64 `json:"depreciation_amortization"`
	InterestExpense          float64 `json:"interest_expense"`
	OfficerCompensation      float64 `json:"officer_compensation"`
	NetIncome                float64 `json:"net_income"`
}

type BalanceSheet struct {
	Period             string  `json:"period"`
	CashAndEquivalents float64 `json:"cash_and_equivalents"`
	AccountsReceivable float64 `json:"accounts_receivable"`
	Inventory          float64 `json:"inventory"`
	FixedAssetsNet     float64 `json:"fixed_assets_net"`
	TotalAssets        float64 `json:"total_assets"`
	TotalLiabilities   float64 `json:"total_liabilities"`
	TotalDebt          float64 `json:"total_debt"`
	TotalEquity        float64 `json:"total_equity"`
}

func (FinancialData) Stage() int { return StageExtraction }

// --- Stage 3: Document Quality Review ---

type QualityReview struct {
	YearsCovered []string `json:"years_covered"`
	Gaps         []string `json:"gaps"`
	Reliability  string   `json:"reliability"` // high | medium | low
	Notes        string   `json:"notes"`
}

func (QualityReview) Stage() int { return StageQualityReview }

// --- Stage 4: Company & Industry Profile ---

type CompanyProfile struct {
	LegalName        string  `json:"legal_name"`
	EntityType       string  `json:"entity_type"`
	Industry         string  `json:"industry"`
	NAICSCode        string  `json:"naics_code"`
	Description      string  `json:"description"`
	YearsInOperation float64 `json:"years_in_operation"`
	Location         string  `json:"location"`
	Employees        float64 `json:"employees"`
}

func (CompanyProfile) Stage() int { return StageCompanyProfile }

// --- Stage 5: Industry Research & Market Conditions ---

type IndustryResearch struct {
	IndustryOutlook     string   `json:"industry_outlook"`
	MarketConditions    string   `json:"market_conditions"`
	ExpectedGrowthRate  float64  `json:"expected_growth_rate"` // decimal, e.g. 0.04
	SDEMultipleLow      float64  `json:"sde_multiple_low"`
	SDEMultipleHigh     float64  `json:"sde_multiple_high"`
	RevenueMultipleLow  float64  `json:"revenue_multiple_low"`
	RevenueMultipleHigh float64  `json:"revenue_multiple_high"`
	CompetitiveFactors  []string `json:"competitive_factors"`
}

func (IndustryResearch) Stage() int { return StageIndustryResearch }

// --- Stage 6: Earnings Normalization ---

type NormalizedEarnings struct {
	Periods        []NormalizedPeriod `json:"periods"`
	WeightedSDE    float64            `json:"weighted_sde"`
	WeightedEBITDA float64            `json:"weighted_ebitda"`
}

type NormalizedPeriod struct {
	Period            string       `json:"period"`
	ReportedNetIncome float64      `json:"reported_net_income"`
	Adjustments       []Adjustment `json:"adjustments"`
	SDE               float64      `json:"sde"`
	EBITDA            float64      `json:"ebitda"`
}

type Adjustment struct {
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
}

func (NormalizedEarnings) Stage() int { return StageNormalization }

// --- Stage 7: Risk Assessment ---

type RiskAssessment struct {
	Factors        []RiskFactor `json:"factors"`
	CompositeScore float64      `json:"composite_score"` // 1 (low risk) .. 10 (high risk)
	CapRate        float64      `json:"cap_rate"`        // decimal
	DiscountRate   float64      `json:"discount_rate"`   // decimal
}

type RiskFactor struct {
	Category    string  `json:"category"`
	Description string  `json:"description"`
	Score       float64 `json:"score"`
}

func (RiskAssessment) Stage() int { return StageRiskAssessment }

// --- Stage 8: Asset Approach ---

type AssetApproach struct {
	Method              string  `json:"method"` // adjusted_net_assets
	AdjustedAssets      float64 `json:"adjusted_assets"`
	AdjustedLiabilities float64 `json:"adjusted_liabilities"`
	IndicatedValue      float64 `json:"indicated_value"`
}

func (AssetApproach) Stage() int { return StageAssetApproach }

// --- Stage 9: Income Approach ---

type IncomeApproach struct {
	Method         string  `json:"method"` // capitalization_of_earnings
	BenefitStream  float64 `json:"benefit_stream"`
	CapRate        float64 `json:"cap_rate"` // decimal
	IndicatedValue float64 `json:"indicated_value"`
}

func (IncomeApproach) Stage() int { return StageIncomeApproach }

// --- Stage 10: Market Approach ---

type MarketApproach struct {
	Method           string  `json:"method"` // guideline_transactions
	MultipleType     string  `json:"multiple_type"`
	SelectedMultiple float64 `json:"selected_multiple"`
	BasisAmount      float64 `json:"basis_amount"`
	IndicatedValue   float64 `json:"indicated_value"`
}

func (MarketApproach) Stage() int { return StageMarketApproach }

// --- Stage 11: Valuation Synthesis ---

type Synthesis struct {
	AssetWeight    float64 `json:"asset_weight"`
	IncomeWeight   float64 `json:"income_weight"`
	MarketWeight   float64 `json:"market_weight"`
	DLOM           float64 `json:"dlom"` // decimal discount
	DLOC           float64 `json:"dloc"` // decimal discount
	ConcludedValue float64 `json:"concluded_value"`
	ValueLow       float64 `json:"value_low"`
	ValueHigh      float64 `json:"value_high"`
	Rationale      string  `json:"rationale"`
}

func (Synthesis) Stage() int { return StageSynthesis }

// --- Stage 12: Narrative Generation & Review ---

type Narrative struct {
	Sections       map[string]string `json:"sections"`
	ReviewFindings []string          `json:"review_findings"`
}

func (Narrative) Stage() int { return StageNarrative }

// NewPayload returns an empty payload of the concrete type for a stage.
func NewPayload(stage int) (StagePayload, error) {
	switch stage {
	case StageClassification:
		return &ClassificationResult{}, nil
	case StageExtraction:
		return &FinancialData{}, nil
	case StageQualityReview:
		return &QualityReview{}, nil
	case StageCompanyProfile:
		return &CompanyProfile{}, nil
	case StageIndustryResearch:
		return &IndustryResearch{}, nil
	case StageNormalization:
		return &NormalizedEarnings{}, nil
	case StageRiskAssessment:
		return &RiskAssessment{}, nil
	case StageAssetApproach:
		return &AssetApproach{}, nil
	case StageIncomeApproach:
		return &IncomeApproach{}, nil
	case StageMarketApproach:
		return &MarketApproach{}, nil
	case StageSynthesis:
		return &Synthesis{}, nil
	case StageNarrative:
		return &Narrative{}, nil
	default:
		return nil, fmt.Errorf("unknown stage %d", stage)
	}
}

// StageOutput is the structured result of one pass plus its provenance.
// It is immutable once written: the driver stores it after the executor
// returns and never touches it again.
type StageOutput struct {
	Stage         int          `json:"stage"`
	Name          string       `json:"name"`
	Payload       StagePayload `json:"payload,omitempty"`
	Raw           string       `json:"raw,omitempty"` // raw model text, kept for audit
	InputTokens   int          `json:"input_tokens"`
	OutputTokens  int          `json:"output_tokens"`
	DurationMs    int64        `json:"duration_ms"`
	Retries       int          `json:"retries"`
	ParseStrategy string       `json:"parse_strategy,omitempty"`
	Success       bool         `json:"success"`
	Error         string       `json:"error,omitempty"`
	CompletedAt   time.Time    `json:"completed_at"`
}

// stageOutputAlias avoids recursion in UnmarshalJSON while deferring the
// payload until the stage number is known.
type stageOutputAlias struct {
	Stage         int             `json:"stage"`
	Name          string          `json:"name"`
	Payload       json.RawMessage `json:"payload,omitempty"`
	Raw           string          `json:"raw,omitempty"`
	InputTokens   int             `json:"input_tokens"`
	OutputTokens  int             `json:"output_tokens"`
	DurationMs    int64           `json:"duration_ms"`
	Retries       int             `json:"retries"`
	ParseStrategy string          `json:"parse_strategy,omitempty"`
	Success       bool            `json:"success"`
	Error         string          `json:"error,omitempty"`
	CompletedAt   time.Time       `json:"completed_at"`
}

// UnmarshalJSON restores the concrete payload type from the stage number.
func (s *StageOutput) UnmarshalJSON(data []byte) error {
	var alias stageOutputAlias
	if err := json.Unmarshal(data, &alias); err != nil {
		return err
	}

	s.Stage = alias.Stage
	s.Name = alias.Name
	s.Raw = alias.Raw
	s.InputTokens = alias.InputTokens
	s.OutputTokens = alias.OutputTokens
	s.DurationMs = alias.DurationMs
	s.Retries = alias.Retries
	s.ParseStrategy = alias.ParseStrategy
	s.Success = alias.Success
	s.Error = alias.Error
	s.CompletedAt = alias.CompletedAt

	if len(alias.Payload) == 0 || string(alias.Payload) == "null" {
		s.Payload = nil
		return nil
	}

	payload, err := NewPayload(alias.Stage)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(alias.Payload, payload); err != nil {
		return fmt.Errorf("failed to unmarshal stage %d payload: %w", alias.Stage, err)
	}
	s.Payload = payload
	return nil
}
