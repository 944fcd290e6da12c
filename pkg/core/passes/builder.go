package passes

import (
	"fmt"
	"strings"

	"github.com/blueboyrocks/business-valuation-app-sub003/pkg/core/llm"
)

// NotAvailable marks a prior-stage field the model would otherwise have to
// guess at. The builder substitutes it explicitly instead of dropping the
// field from the context.
const NotAvailable = "[NOT AVAILABLE]"

// BuildRequest renders the request payload for one stage: the stage's fixed
// instruction block plus a context block summarizing the prior outputs it
// depends on. Pure function of its inputs.
func BuildRequest(stage int, companyName string, outputs map[int]*StageOutput, docs []llm.Document) (llm.Request, error) {
	if stage < 1 || stage > NumStages {
		return llm.Request{}, fmt.Errorf("invalid stage %d", stage)
	}

	for _, dep := range Dependencies(stage) {
		if out, ok := outputs[dep]; !ok || !out.Success {
			return llm.Request{}, fmt.Errorf("stage %d requires completed output of stage %d", stage, dep)
		}
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Subject company: %s\n", orNA(companyName)))
	sb.WriteString(fmt.Sprintf("Task: %s (pass %d of %d)\n", Name(stage), stage, NumStages))

	deps := Dependencies(stage)
	if len(deps) > 0 {
		sb.WriteString("\n=== PRIOR ANALYSIS ===\n")
		for _, dep := range deps {
			sb.WriteString(fmt.Sprintf("\n--- Stage %d: %s ---\n", dep, Name(dep)))
			sb.WriteString(renderContext(outputs[dep]))
		}
	}

	req := llm.Request{
		System: SystemPrompt(stage),
		Prompt: sb.String(),
	}
	if RequiresDocuments(stage) {
		req.Documents = docs
	}
	return req, nil
}

// renderContext summarizes one prior output as plain text, keeping only the
// fields downstream passes consume. Early-stage requests must not carry all
// twelve outputs, hence the per-variant summaries rather than dumping JSON.
func renderContext(out *StageOutput) string {
	if out == nil || out.Payload == nil {
		return NotAvailable + "\n"
	}

	switch p := out.Payload.(type) {
	case *ClassificationResult:
		return renderClassification(p)
	case *FinancialData:
		return renderFinancialData(p)
	case *QualityReview:
		return renderQualityReview(p)
	case *CompanyProfile:
		return renderCompanyProfile(p)
	case *IndustryResearch:
		return renderIndustryResearch(p)
	case *NormalizedEarnings:
		return renderNormalizedEarnings(p)
	case *RiskAssessment:
		return renderRiskAssessment(p)
	case *AssetApproach:
		return fmt.Sprintf("Asset approach (%s): adjusted assets %s, adjusted liabilities %s, indicated value %s\n",
			orNA(p.Method), money(p.AdjustedAssets), money(p.AdjustedLiabilities), money(p.IndicatedValue))
	case *IncomeApproach:
		return fmt.Sprintf("Income approach (%s): benefit stream %s, cap rate %.4f, indicated value %s\n",
			orNA(p.Method), money(p.BenefitStream), p.CapRate, money(p.IndicatedValue))
	case *MarketApproach:
		return fmt.Sprintf("Market approach (%s): %s multiple %.2f x basis %s = indicated value %s\n",
			orNA(p.Method), orNA(p.MultipleType), p.SelectedMultiple, money(p.BasisAmount), money(p.IndicatedValue))
	case *Synthesis:
		return renderSynthesis(p)
	case *Narrative:
		return renderNarrative(p)
	default:
		return NotAvailable + "\n"
	}
}

func renderClassification(p *ClassificationResult) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Entity: %s (%s)\n", orNA(p.EntityName), orNA(p.EntityType)))
	if len(p.Documents) == 0 {
		sb.WriteString("Documents: " + NotAvailable + "\n")
		return sb.String()
	}
	for _, doc := range p.Documents {
		periods := NotAvailable
		if len(doc.PeriodsCovered) > 0 {
			periods = strings.Join(doc.PeriodsCovered, ", ")
		}
		sb.WriteString(fmt.Sprintf("- %s: %s, periods %s, quality %s\n",
			orNA(doc.Filename), orNA(doc.DocType), periods, orNA(doc.Quality)))
	}
	return sb.String()
}

func renderFinancialData(p *FinancialData) string {
	var sb strings.Builder
	if len(p.IncomeStatements) == 0 {
		sb.WriteString("Income statements: " + NotAvailable + "\n")
	}
	for _, is := range p.IncomeStatements {
		sb.WriteString(fmt.Sprintf("Income %s: revenue %s, COGS %s, gross profit %s, opex %s, D&A %s, interest %s, officer comp %s, net income %s\n",
			orNA(is.Period), money(is.Revenue), money(is.COGS), money(is.GrossProfit),
			money(is.OperatingExpenses), money(is.DepreciationAmortization),
			money(is.InterestExpense), money(is.OfficerCompensation), money(is.NetIncome)))
	}
	if len(p.BalanceSheets) == 0 {
		sb.WriteString("Balance sheets: " + NotAvailable + "\n")
	}
	for _, bs := range p.BalanceSheets {
		sb.WriteString(fmt.Sprintf("Balance %s: assets %s, liabilities %s, equity %s, cash %s, AR %s, inventory %s, fixed assets %s, debt %s\n",
			orNA(bs.Period), money(bs.TotalAssets), money(bs.TotalLiabilities), money(bs.TotalEquity),
			money(bs.CashAndEquivalents), money(bs.AccountsReceivable), money(bs.Inventory),
			money(bs.FixedAssetsNet), money(bs.TotalDebt)))
	}
	return sb.String()
}

func renderQualityReview(p *QualityReview) string {
	years := NotAvailable
	if len(p.YearsCovered) > 0 {
		years = strings.Join(p.YearsCovered, ", ")
	}
	gaps := "none identified"
	if len(p.Gaps) > 0 {
		gaps = strings.Join(p.Gaps, "; ")
	}
	return fmt.Sprintf("Years covered: %s\nReliability: %s\nGaps: %s\nNotes: %s\n",
		years, orNA(p.Reliability), gaps, orNA(p.Notes))
}

func renderCompanyProfile(p *CompanyProfile) string {
	return fmt.Sprintf("Legal name: %s\nEntity type: %s\nIndustry: %s (NAICS %s)\nLocation: %s\nYears in operation: %.0f\nEmployees: %.0f\nDescription: %s\n",
		orNA(p.LegalName), orNA(p.EntityType), orNA(p.Industry), orNA(p.NAICSCode),
		orNA(p.Location), p.YearsInOperation, p.Employees, orNA(p.Description))
}

func renderIndustryResearch(p *IndustryResearch) string {
	factors := NotAvailable
	if len(p.CompetitiveFactors) > 0 {
		factors = strings.Join(p.CompetitiveFactors, "; ")
	}
	return fmt.Sprintf("Outlook: %s\nMarket conditions: %s\nExpected growth: %.4f\nSDE multiples: %.2f - %.2f\nRevenue multiples: %.2f - %.2f\nCompetitive factors: %s\n",
		orNA(p.IndustryOutlook), orNA(p.MarketConditions), p.ExpectedGrowthRate,
		p.SDEMultipleLow, p.SDEMultipleHigh, p.RevenueMultipleLow, p.RevenueMultipleHigh, factors)
}

func renderNormalizedEarnings(p *NormalizedEarnings) string {
	var sb strings.Builder
	if len(p.Periods) == 0 {
		sb.WriteString("Normalized periods: " + NotAvailable + "\n")
	}
	for _, period := range p.Periods {
		sb.WriteString(fmt.Sprintf("%s: reported net income %s, SDE %s, EBITDA %s",
			orNA(period.Period), money(period.ReportedNetIncome), money(period.SDE), money(period.EBITDA)))
		if len(period.Adjustments) > 0 {
			var adj []string
			for _, a := range period.Adjustments {
				adj = append(adj, fmt.Sprintf("%s %s", a.Description, money(a.Amount)))
			}
			sb.WriteString(" (adjustments: " + strings.Join(adj, ", ") + ")")
		}
		sb.WriteString("\n")
	}
	sb.WriteString(fmt.Sprintf("Weighted SDE: %s\nWeighted EBITDA: %s\n", money(p.WeightedSDE), money(p.WeightedEBITDA)))
	return sb.String()
}

func renderRiskAssessment(p *RiskAssessment) string {
	var sb strings.Builder
	for _, factor := range p.Factors {
		sb.WriteString(fmt.Sprintf("- %s (score %.1f): %s\n", orNA(factor.Category), factor.Score, orNA(factor.Description)))
	}
	sb.WriteString(fmt.Sprintf("Composite risk score: %.1f\nCap rate: %.4f\nDiscount rate: %.4f\n",
		p.CompositeScore, p.CapRate, p.DiscountRate))
	return sb.String()
}

func renderSynthesis(p *Synthesis) string {
	return fmt.Sprintf("Weights: asset %.2f, income %.2f, market %.2f\nDLOM: %.4f, DLOC: %.4f\nConcluded value: %s (range %s - %s)\nRationale: %s\n",
		p.AssetWeight, p.IncomeWeight, p.MarketWeight, p.DLOM, p.DLOC,
		money(p.ConcludedValue), money(p.ValueLow), money(p.ValueHigh), orNA(p.Rationale))
}

func renderNarrative(p *Narrative) string {
	var sb strings.Builder
	for name, body := range p.Sections {
		sb.WriteString(fmt.Sprintf("[%s] %d words\n", name, len(strings.Fields(body))))
	}
	return sb.String()
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return NotAvailable
	}
	return s
}

func money(v float64) string {
	return fmt.Sprintf("$%.2f", v)
}
