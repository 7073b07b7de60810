package scoring

import (
	"math"

	apperrors "github.com/ZanzyTHEbar/credit-risk-o-meter/internal/errors"
)

const (
	MinAge = 18
	MaxAge = 90
)

// Validate checks the raw input against the invariants the deriver relies
// on. Every offending field is reported in a single InputValidationError.
func (r RawApplicantInput) Validate(schema FeatureSchema) error {
	problems := make(map[string]string)

	positive := func(field string, v float64) {
		if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
			problems[field] = "must be a positive amount"
		}
	}
	positive("credit_amount", r.CreditAmount)
	positive("annuity", r.Annuity)
	positive("annual_income", r.AnnualIncome)
	positive("goods_price", r.GoodsPrice)

	if r.YearsEmployed < 0 {
		problems["years_employed"] = "must not be negative"
	}
	if r.NumChildren < 0 {
		problems["num_children"] = "must not be negative"
	}
	if r.RegionTier < 1 || r.RegionTier > 3 {
		problems["region_tier"] = "must be 1, 2 or 3"
	}

	unit := func(field string, v float64) {
		if math.IsNaN(v) || v < 0 || v > 1 {
			problems[field] = "must be within [0, 1]"
		}
	}
	unit("ext_score_1", r.ExtScore1)
	unit("ext_score_2", r.ExtScore2)
	unit("ext_score_3", r.ExtScore3)

	switch schema {
	case SchemaRetired:
		if r.IsRetired == nil {
			problems["is_retired"] = "required by the retired feature schema"
		}
	case SchemaAge:
		if r.AgeYears == nil {
			problems["age_years"] = "required by the age feature schema"
		} else if *r.AgeYears < MinAge || *r.AgeYears > MaxAge {
			problems["age_years"] = "must be between 18 and 90"
		}
	}

	if len(problems) > 0 {
		return apperrors.NewValidationErrorWithMap(problems)
	}
	return nil
}
