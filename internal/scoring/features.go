package scoring

import (
	"fmt"
	"math"

	apperrors "github.com/ZanzyTHEbar/credit-risk-o-meter/internal/errors"
)

// DerivedRatios are the intermediate values computed from the raw input.
type DerivedRatios struct {
	IncomePerChild    float64
	PaymentRate       float64
	CreditGoodsRatio  float64
	CreditDownpayment float64
}

// DeriveRatios computes the four derived features. Divisors that are zero
// produce a DomainError instead of inf or NaN.
func DeriveRatios(raw RawApplicantInput) (DerivedRatios, error) {
	children := float64(raw.NumChildren) + 1
	if children == 0 {
		return DerivedRatios{}, apperrors.NewDomainError(FeatureIncomePerChild,
			"division by zero: num_children + 1 is zero")
	}
	if raw.AnnualIncome == 0 {
		return DerivedRatios{}, apperrors.NewDomainError(FeaturePaymentRate,
			"division by zero: annual_income is zero")
	}
	if raw.GoodsPrice == 0 {
		return DerivedRatios{}, apperrors.NewDomainError(FeatureCreditGoodsRatio,
			"division by zero: goods_price is zero")
	}

	r := DerivedRatios{
		IncomePerChild:    raw.AnnualIncome / children,
		PaymentRate:       raw.Annuity / raw.AnnualIncome,
		CreditGoodsRatio:  raw.CreditAmount / raw.GoodsPrice,
		CreditDownpayment: raw.GoodsPrice - raw.CreditAmount,
	}
	return r, nil
}

// Derive turns a raw applicant record into the feature vector of schema.
// It is pure: the same input always yields the same vector.
func Derive(schema FeatureSchema, raw RawApplicantInput) (FeatureVector, error) {
	if !schema.Valid() {
		return FeatureVector{}, apperrors.NewConfigurationError(
			fmt.Sprintf("unknown feature schema %q", schema), nil)
	}

	r, err := DeriveRatios(raw)
	if err != nil {
		return FeatureVector{}, err
	}

	cols := schemaColumns[schema]
	values := make([]float64, len(cols))
	for i, col := range cols {
		switch col {
		case FeatureCredit:
			values[i] = raw.CreditAmount
		case FeatureAnnuity:
			values[i] = raw.Annuity
		case FeatureYearsEmployed:
			values[i] = float64(raw.YearsEmployed)
		case FeatureIncomePerChild:
			values[i] = r.IncomePerChild
		case FeaturePaymentRate:
			values[i] = r.PaymentRate
		case FeatureCreditGoodsRatio:
			values[i] = r.CreditGoodsRatio
		case FeatureCreditDownpayment:
			values[i] = r.CreditDownpayment
		case FeatureExtSource1:
			values[i] = raw.ExtScore1
		case FeatureExtSource2:
			values[i] = raw.ExtScore2
		case FeatureExtSource3:
			values[i] = raw.ExtScore3
		case FeatureRegionRating:
			values[i] = float64(raw.RegionTier)
		case FeatureIsRetired:
			if raw.IsRetired == nil {
				return FeatureVector{}, apperrors.NewValidationErrorWithMap(map[string]string{
					"is_retired": "required by the retired feature schema",
				})
			}
			if *raw.IsRetired {
				values[i] = 1
			}
		case FeatureAge:
			if raw.AgeYears == nil {
				return FeatureVector{}, apperrors.NewValidationErrorWithMap(map[string]string{
					"age_years": "required by the age feature schema",
				})
			}
			values[i] = float64(*raw.AgeYears)
		}

		if math.IsInf(values[i], 0) || math.IsNaN(values[i]) {
			return FeatureVector{}, apperrors.NewDomainError(col,
				fmt.Sprintf("%s is not a finite number", col))
		}
	}

	return FeatureVector{Schema: schema, Values: values}, nil
}
