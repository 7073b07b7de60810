package scoring

import (
	"fmt"
	"strings"
)

// FeatureSchema selects which of the two feature layouts the classifier was
// trained on. It is fixed at configuration time.
type FeatureSchema string

const (
	// SchemaRetired carries IS_RETIRED as the last column and no AGE.
	SchemaRetired FeatureSchema = "retired"
	// SchemaAge carries AGE as the third column and no IS_RETIRED.
	SchemaAge FeatureSchema = "age"
)

// Feature column names as the classifier knows them.
const (
	FeatureCredit            = "AMT_CREDIT"
	FeatureAnnuity           = "AMT_ANNUITY"
	FeatureAge               = "AGE"
	FeatureYearsEmployed     = "YEARS_EMPLOYED_CLEAN"
	FeatureIncomePerChild    = "INCOME_PER_CHILD"
	FeaturePaymentRate       = "PAYMENT_RATE"
	FeatureCreditGoodsRatio  = "CREDIT_GOODS_RATIO"
	FeatureCreditDownpayment = "CREDIT_DOWNPAYMENT"
	FeatureExtSource1        = "EXT_SOURCE_1"
	FeatureExtSource2        = "EXT_SOURCE_2"
	FeatureExtSource3        = "EXT_SOURCE_3"
	FeatureRegionRating      = "REGION_RATING_CLIENT"
	FeatureIsRetired         = "IS_RETIRED"
)

var schemaColumns = map[FeatureSchema][]string{
	SchemaRetired: {
		FeatureCredit,
		FeatureAnnuity,
		FeatureYearsEmployed,
		FeatureIncomePerChild,
		FeaturePaymentRate,
		FeatureCreditGoodsRatio,
		FeatureCreditDownpayment,
		FeatureExtSource1,
		FeatureExtSource2,
		FeatureExtSource3,
		FeatureRegionRating,
		FeatureIsRetired,
	},
	SchemaAge: {
		FeatureCredit,
		FeatureAnnuity,
		FeatureAge,
		FeatureYearsEmployed,
		FeatureIncomePerChild,
		FeaturePaymentRate,
		FeatureCreditGoodsRatio,
		FeatureCreditDownpayment,
		FeatureExtSource1,
		FeatureExtSource2,
		FeatureExtSource3,
		FeatureRegionRating,
	},
}

// ParseSchema maps a configuration value onto a FeatureSchema.
func ParseSchema(s string) (FeatureSchema, error) {
	schema := FeatureSchema(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := schemaColumns[schema]; !ok {
		return "", fmt.Errorf("unknown feature schema %q (expected %q or %q)", s, SchemaRetired, SchemaAge)
	}
	return schema, nil
}

func (s FeatureSchema) Valid() bool {
	_, ok := schemaColumns[s]
	return ok
}

// Columns returns a copy of the schema's column order.
func (s FeatureSchema) Columns() []string {
	cols := schemaColumns[s]
	out := make([]string, len(cols))
	copy(out, cols)
	return out
}

// FeatureVector holds values in the column order of its schema.
type FeatureVector struct {
	Schema FeatureSchema
	Values []float64
}

func (v FeatureVector) Names() []string { return v.Schema.Columns() }

// Get returns the value of the named column.
func (v FeatureVector) Get(name string) (float64, bool) {
	for i, col := range schemaColumns[v.Schema] {
		if col == name {
			return v.Values[i], true
		}
	}
	return 0, false
}

// Map returns the vector keyed by column name.
func (v FeatureVector) Map() map[string]float64 {
	cols := schemaColumns[v.Schema]
	m := make(map[string]float64, len(cols))
	for i, col := range cols {
		m[col] = v.Values[i]
	}
	return m
}
