package service

import (
	"loan-eligibility/domain"
)

// Encode maps a form submission to the feature record the classifier was
// trained on. It is pure: the same input always yields the same record.
func Encode(app domain.RawApplication) (domain.FeatureRecord, error) {
	dependents, err := app.Dependents.Count()
	if err != nil {
		return domain.FeatureRecord{}, err
	}

	totalIncome := app.ApplicantIncome + app.CoapplicantIncome

	return domain.FeatureRecord{
		Gender:            boolCode(app.Gender == domain.Male),
		Married:           boolCode(app.Married == domain.Yes),
		Dependents:        float64(dependents),
		Education:         boolCode(app.Education != domain.Graduate),
		SelfEmployed:      boolCode(app.SelfEmployed == domain.Yes),
		ApplicantIncome:   app.ApplicantIncome,
		CoapplicantIncome: app.CoapplicantIncome,
		LoanAmount:        app.LoanAmount,
		LoanAmountTerm:    float64(app.LoanTermMonths),
		CreditHistory:     boolCode(app.CreditHistory == domain.CreditGood),
		PropertyArea:      propertyAreaCode(app.PropertyArea),
		TotalIncome:       totalIncome,
		DebtIncomeRatio:   debtIncomeRatio(app.LoanAmount, totalIncome),
	}, nil
}

// debtIncomeRatio is 0 for applicants without income.
func debtIncomeRatio(loanAmount, totalIncome float64) float64 {
	if totalIncome == 0 {
		return 0
	}
	return loanAmount / totalIncome
}

func propertyAreaCode(area domain.PropertyArea) float64 {
	switch area {
	case domain.Urban:
		return 2
	case domain.Semiurban:
		return 1
	default:
		return 0
	}
}

func boolCode(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
