package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

type Gender string

const (
	Male   Gender = "Male"
	Female Gender = "Female"
)

type YesNo string

const (
	Yes YesNo = "Yes"
	No  YesNo = "No"
)

type Education string

const (
	Graduate    Education = "Graduate"
	NotGraduate Education = "Not Graduate"
)

type CreditHistory string

const (
	CreditGood CreditHistory = "Good"
	CreditBad  CreditHistory = "Bad"
)

type PropertyArea string

const (
	Urban     PropertyArea = "Urban"
	Semiurban PropertyArea = "Semiurban"
	Rural     PropertyArea = "Rural"
)

// Dependents is kept as the raw form value ("0", "1", "2", "3+"); it is only
// interpreted by the encoder.
type Dependents string

const DependentsThreePlus Dependents = "3+"

// Options offered by the front-ends.
var (
	GenderOptions        = []Gender{Male, Female}
	YesNoOptions         = []YesNo{Yes, No}
	DependentsOptions    = []Dependents{"0", "1", "2", DependentsThreePlus}
	EducationOptions     = []Education{Graduate, NotGraduate}
	LoanTermOptions      = []int{360, 180, 120, 60, 480}
	CreditHistoryOptions = []CreditHistory{CreditGood, CreditBad}
	PropertyAreaOptions  = []PropertyArea{Urban, Semiurban, Rural}
)

// RawApplication is the unencoded form data of one submission.
type RawApplication struct {
	Gender            Gender        `json:"gender"`
	Married           YesNo         `json:"married"`
	Dependents        Dependents    `json:"dependents"`
	Education         Education     `json:"education"`
	SelfEmployed      YesNo         `json:"self_employed"`
	ApplicantIncome   float64       `json:"applicant_income"`
	CoapplicantIncome float64       `json:"coapplicant_income"`
	LoanAmount        float64       `json:"loan_amount"`
	LoanTermMonths    int           `json:"loan_term_months"`
	CreditHistory     CreditHistory `json:"credit_history"`
	PropertyArea      PropertyArea  `json:"property_area"`
}

func (g *Gender) UnmarshalText(text []byte) error {
	v := strings.TrimSpace(string(text))
	for _, opt := range GenderOptions {
		if strings.EqualFold(v, string(opt)) {
			*g = opt
			return nil
		}
	}
	return fmt.Errorf("unknown gender %q", v)
}

func (y *YesNo) UnmarshalText(text []byte) error {
	v := strings.TrimSpace(string(text))
	for _, opt := range YesNoOptions {
		if strings.EqualFold(v, string(opt)) {
			*y = opt
			return nil
		}
	}
	return fmt.Errorf("expected Yes or No, got %q", v)
}

// UnmarshalText accepts "Not Graduate", "NotGraduate" and "not_graduate".
func (e *Education) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	v = strings.NewReplacer(" ", "", "_", "", "-", "").Replace(v)
	switch v {
	case "graduate":
		*e = Graduate
	case "notgraduate":
		*e = NotGraduate
	default:
		return fmt.Errorf("unknown education %q", string(text))
	}
	return nil
}

// UnmarshalText accepts the form labels "Good (1.0)" and "Bad (0.0)" as well
// as the bare words and the numeric codes.
func (c *CreditHistory) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	switch {
	case strings.Contains(v, "good"), v == "1", v == "1.0":
		*c = CreditGood
	case strings.Contains(v, "bad"), v == "0", v == "0.0":
		*c = CreditBad
	default:
		return fmt.Errorf("unknown credit history %q", string(text))
	}
	return nil
}

func (p *PropertyArea) UnmarshalText(text []byte) error {
	v := strings.TrimSpace(string(text))
	for _, opt := range PropertyAreaOptions {
		if strings.EqualFold(v, string(opt)) {
			*p = opt
			return nil
		}
	}
	return fmt.Errorf("unknown property area %q", v)
}

// UnmarshalJSON accepts both a JSON string ("3+") and a JSON number (2).
// Interpretation of the value is left to the encoder.
func (d *Dependents) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*d = Dependents(strings.TrimSpace(s))
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("dependents must be a string or a number: %w", err)
	}
	*d = Dependents(n.String())
	return nil
}

// Count returns the number of dependents; "3+" counts as 3.
func (d Dependents) Count() (int, error) {
	v := strings.TrimSpace(string(d))
	if v == string(DependentsThreePlus) {
		return 3, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, &EncodingError{Field: "dependents", Value: string(d)}
	}
	return n, nil
}
