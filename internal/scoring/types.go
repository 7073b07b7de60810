package scoring

// RawApplicantInput is the untransformed record supplied by the input form.
// IsRetired and AgeYears are only read under the schema that uses them.
type RawApplicantInput struct {
	CreditAmount  float64 `json:"credit_amount"`
	Annuity       float64 `json:"annuity"`
	YearsEmployed int     `json:"years_employed"`
	NumChildren   int     `json:"num_children"`
	AnnualIncome  float64 `json:"annual_income"`
	GoodsPrice    float64 `json:"goods_price"`
	RegionTier    int     `json:"region_tier"`
	IsRetired     *bool   `json:"is_retired,omitempty"`
	AgeYears      *int    `json:"age_years,omitempty"`
	ExtScore1     float64 `json:"ext_score_1"`
	ExtScore2     float64 `json:"ext_score_2"`
	ExtScore3     float64 `json:"ext_score_3"`
}

type Decision string

const (
	DecisionApproved     Decision = "APPROVED"
	DecisionManualReview Decision = "MANUAL_REVIEW"
	DecisionRejected     Decision = "REJECTED"
)

type RiskFlag string

const (
	FlagHighDebtToIncome  RiskFlag = "HIGH_DEBT_TO_INCOME"
	FlagLowExternalRating RiskFlag = "LOW_EXTERNAL_RATING"
	FlagSolidProfile      RiskFlag = "SOLID_PROFILE"
)

type FlagNote struct {
	Flag    RiskFlag `json:"flag"`
	Message string   `json:"message"`
}

type ScoreResult struct {
	RawProbability float64    `json:"raw_probability"`
	CreditScore    int        `json:"credit_score"`
	Decision       Decision   `json:"decision"`
	RiskFlags      []FlagNote `json:"risk_flags"`
}

type FeatureImportance struct {
	Feature    string  `json:"feature"`
	Importance float64 `json:"importance"`
}

// Assessment is everything a renderer needs for one scoring request.
type Assessment struct {
	ScoreResult
	Schema      FeatureSchema       `json:"schema"`
	Policy      Policy              `json:"policy"`
	Features    map[string]float64  `json:"features"`
	Importances []FeatureImportance `json:"importances"`
}
