package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"loan-eligibility/domain"
)

// Explainer turns a decision into a short plain-language explanation.
type Explainer interface {
	Explain(ctx context.Context, app domain.RawApplication, features domain.FeatureRecord, label domain.Label) string
}

// TextGenerator is the LLM backend, see ai.Generator.
type TextGenerator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
}

type ExplainService struct {
	generator TextGenerator
	enabled   bool
	logger    *zap.Logger
}

// NewExplainService returns an explainer that uses generator when it is not
// nil and falls back to a rule-based explanation otherwise.
func NewExplainService(generator TextGenerator, logger *zap.Logger) *ExplainService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExplainService{
		generator: generator,
		enabled:   generator != nil,
		logger:    logger,
	}
}

func (s *ExplainService) Explain(
	ctx context.Context,
	app domain.RawApplication,
	features domain.FeatureRecord,
	label domain.Label,
) string {
	if !s.enabled {
		return s.fallbackExplanation(features, label)
	}

	explanation, err := s.generator.GenerateContent(ctx, s.prompt(app, features, label))
	if err != nil {
		s.logger.Warn("generating explanation", zap.Error(err))
		return s.fallbackExplanation(features, label)
	}
	return explanation
}

func (s *ExplainService) prompt(
	app domain.RawApplication,
	features domain.FeatureRecord,
	label domain.Label,
) string {
	outcome := "rejected"
	if label.Approved() {
		outcome = "approved"
	}

	return fmt.Sprintf(`A loan eligibility classifier %s the following application.

APPLICATION:
- Gender: %s, married: %s, dependents: %s
- Education: %s, self employed: %s
- Applicant income: $%.2f, co-applicant income: $%.2f (total $%.2f)
- Loan amount: $%.2f over %d months
- Credit history: %s
- Property area: %s
- Debt-to-income ratio: %.4f

INSTRUCTIONS:
1. Explain in 2-3 sentences which factors most likely drove the outcome.
2. Credit history and the debt-to-income ratio are the strongest signals.
3. Do not promise a different outcome and do not invent figures.`,
		outcome,
		app.Gender, app.Married, app.Dependents,
		app.Education, app.SelfEmployed,
		app.ApplicantIncome, app.CoapplicantIncome, features.TotalIncome,
		app.LoanAmount, app.LoanTermMonths,
		app.CreditHistory,
		app.PropertyArea,
		features.DebtIncomeRatio,
	)
}

func (s *ExplainService) fallbackExplanation(features domain.FeatureRecord, label domain.Label) string {
	var reasons []string

	if features.CreditHistory == 1 {
		reasons = append(reasons, "the credit history meets the guidelines")
	} else {
		reasons = append(reasons, "the credit history does not meet the guidelines")
	}

	switch {
	case features.TotalIncome == 0:
		reasons = append(reasons, "no income was declared")
	case features.DebtIncomeRatio > HighDebtIncomeRatio:
		reasons = append(reasons, fmt.Sprintf("the loan is large relative to income (ratio %.3f)", features.DebtIncomeRatio))
	default:
		reasons = append(reasons, fmt.Sprintf("the loan is moderate relative to income (ratio %.3f)", features.DebtIncomeRatio))
	}

	if label.Approved() {
		return "The application was approved: " + strings.Join(reasons, " and ") + "."
	}
	return "The application was flagged as high risk: " + strings.Join(reasons, " and ") + "."
}
