package types

import (
	"github.com/ZanzyTHEbar/credit-risk-o-meter/internal/scoring"
)

type FieldKind string

const (
	KindNumber FieldKind = "number"
	KindSlider FieldKind = "slider"
	KindSelect FieldKind = "select"
)

// Option is one choice of a select field
type Option struct {
	Label string `json:"label"`
	Value int    `json:"value"`
}

// FormField describes one input of the applicant form
type FormField struct {
	Name    string    `json:"name"`
	Label   string    `json:"label"`
	Kind    FieldKind `json:"kind"`
	Default float64   `json:"default"`
	Min     *float64  `json:"min,omitempty"`
	Max     *float64  `json:"max,omitempty"`
	Step    float64   `json:"step,omitempty"`
	Options []Option  `json:"options,omitempty"`
}

// FormSection groups fields under a heading
type FormSection struct {
	Title  string      `json:"title"`
	Fields []FormField `json:"fields"`
}

// FormSpec is the full input form for a feature schema
type FormSpec struct {
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Schema      string        `json:"schema"`
	Sections    []FormSection `json:"sections"`
}

// RegionOptions maps the region labels shown to applicants onto tiers
var RegionOptions = []Option{
	{Label: "Level 1: High-income/Low-risk Region", Value: 1},
	{Label: "Level 2: Average Region", Value: 2},
	{Label: "Level 3: Low-income/High-risk Region", Value: 3},
}

var retiredOptions = []Option{
	{Label: "Yes", Value: 1},
	{Label: "No", Value: 0},
}

func bound(v float64) *float64 { return &v }

// DefaultForm returns the input form for schema. The retirement toggle and
// the age slider are mutually exclusive.
func DefaultForm(schema scoring.FeatureSchema) FormSpec {
	applicant := []FormField{
		{Name: "credit_amount", Label: "Total Credit Amount ($)", Kind: KindNumber, Default: 15000, Min: bound(1), Step: 1000},
		{Name: "annuity", Label: "Annual Loan Installment ($)", Kind: KindNumber, Default: 5000, Min: bound(1), Step: 500},
		{Name: "years_employed", Label: "Years Employed", Kind: KindNumber, Default: 5, Min: bound(0), Step: 1},
		{Name: "num_children", Label: "Number of Children", Kind: KindNumber, Default: 0, Min: bound(0), Step: 1},
		{Name: "annual_income", Label: "Total Annual Income ($)", Kind: KindNumber, Default: 50000, Min: bound(1), Step: 1000},
		{Name: "goods_price", Label: "Goods Price ($)", Kind: KindNumber, Default: 15000, Min: bound(1), Step: 1000},
		{Name: "region_tier", Label: "Region Rating", Kind: KindSelect, Default: 1, Options: RegionOptions},
	}

	switch schema {
	case scoring.SchemaAge:
		applicant = append(applicant, FormField{
			Name: "age_years", Label: "Age", Kind: KindSlider, Default: 30,
			Min: bound(scoring.MinAge), Max: bound(scoring.MaxAge), Step: 1,
		})
	default:
		applicant = append(applicant, FormField{
			Name: "is_retired", Label: "Are you retired?", Kind: KindSelect, Default: 0, Options: retiredOptions,
		})
	}

	external := make([]FormField, 0, 3)
	for i, name := range []string{"ext_score_1", "ext_score_2", "ext_score_3"} {
		external = append(external, FormField{
			Name:    name,
			Label:   "External Source " + string(rune('1'+i)),
			Kind:    KindSlider,
			Default: 0.5,
			Min:     bound(0),
			Max:     bound(1),
			Step:    0.01,
		})
	}

	return FormSpec{
		Title:       "Credit Risk Assessment",
		Description: "Defaulting risk evaluation based on smart features.",
		Schema:      string(schema),
		Sections: []FormSection{
			{Title: "Applicant Information", Fields: applicant},
			{Title: "External Credit Scores", Fields: external},
		},
	}
}

// DefaultRequest fills a ScoreRequest with the form's defaults
func DefaultRequest(schema scoring.FeatureSchema) ScoreRequest {
	years, children := 5, 0
	e1, e2, e3 := 0.5, 0.5, 0.5
	req := ScoreRequest{
		CreditAmount:  15000,
		Annuity:       5000,
		YearsEmployed: &years,
		NumChildren:   &children,
		AnnualIncome:  50000,
		GoodsPrice:    15000,
		RegionTier:    1,
		ExtScore1:     &e1,
		ExtScore2:     &e2,
		ExtScore3:     &e3,
	}
	if schema == scoring.SchemaAge {
		age := 30
		req.AgeYears = &age
	} else {
		retired := false
		req.IsRetired = &retired
	}
	return req
}
