package domain

// FeatureRecord is the fixed-shape numeric input of the classifier. Field
// order matches the column order the model was trained on.
type FeatureRecord struct {
	Gender            float64 `json:"Gender"`
	Married           float64 `json:"Married"`
	Dependents        float64 `json:"Dependents"`
	Education         float64 `json:"Education"`
	SelfEmployed      float64 `json:"Self_Employed"`
	ApplicantIncome   float64 `json:"ApplicantIncome"`
	CoapplicantIncome float64 `json:"CoapplicantIncome"`
	LoanAmount        float64 `json:"LoanAmount"`
	LoanAmountTerm    float64 `json:"Loan_Amount_Term"`
	CreditHistory     float64 `json:"Credit_History"`
	PropertyArea      float64 `json:"Property_Area"`
	TotalIncome       float64 `json:"TotalIncome"`
	DebtIncomeRatio   float64 `json:"Debt_Income_Ratio"`
}

var featureColumns = [...]string{
	"Gender",
	"Married",
	"Dependents",
	"Education",
	"Self_Employed",
	"ApplicantIncome",
	"CoapplicantIncome",
	"LoanAmount",
	"Loan_Amount_Term",
	"Credit_History",
	"Property_Area",
	"TotalIncome",
	"Debt_Income_Ratio",
}

// FeatureCount is the width of a FeatureRecord.
const FeatureCount = len(featureColumns)

// FeatureColumns returns the column names in model order.
func FeatureColumns() []string {
	cols := make([]string, FeatureCount)
	copy(cols, featureColumns[:])
	return cols
}

// Values returns the record as a vector ordered like FeatureColumns.
func (f FeatureRecord) Values() []float64 {
	return []float64{
		f.Gender,
		f.Married,
		f.Dependents,
		f.Education,
		f.SelfEmployed,
		f.ApplicantIncome,
		f.CoapplicantIncome,
		f.LoanAmount,
		f.LoanAmountTerm,
		f.CreditHistory,
		f.PropertyArea,
		f.TotalIncome,
		f.DebtIncomeRatio,
	}
}
