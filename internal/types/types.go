package types

import (
	"github.com/ZanzyTHEbar/credit-risk-o-meter/internal/scoring"
)

// ScoreRequest represents the request structure for the score endpoint.
// Fields where zero is a legitimate value are pointers so that "missing"
// and "zero" stay distinguishable.
type ScoreRequest struct {
	CreditAmount  float64  `json:"credit_amount" binding:"required" example:"15000"`
	Annuity       float64  `json:"annuity" binding:"required" example:"5000"`
	YearsEmployed *int     `json:"years_employed" binding:"required" example:"5"`
	NumChildren   *int     `json:"num_children" binding:"required" example:"0"`
	AnnualIncome  float64  `json:"annual_income" binding:"required" example:"50000"`
	GoodsPrice    float64  `json:"goods_price" binding:"required" example:"15000"`
	RegionTier    int      `json:"region_tier" binding:"required" example:"2"`
	IsRetired     *bool    `json:"is_retired,omitempty" example:"false"`
	AgeYears      *int     `json:"age_years,omitempty" example:"30"`
	ExtScore1     *float64 `json:"ext_score_1" binding:"required" example:"0.5"`
	ExtScore2     *float64 `json:"ext_score_2" binding:"required" example:"0.5"`
	ExtScore3     *float64 `json:"ext_score_3" binding:"required" example:"0.5"`
}

// ToRaw converts the request into the scoring input. Call it only after
// binding succeeded, which guarantees the required pointers are set.
func (r ScoreRequest) ToRaw() scoring.RawApplicantInput {
	return scoring.RawApplicantInput{
		CreditAmount:  r.CreditAmount,
		Annuity:       r.Annuity,
		YearsEmployed: derefInt(r.YearsEmployed),
		NumChildren:   derefInt(r.NumChildren),
		AnnualIncome:  r.AnnualIncome,
		GoodsPrice:    r.GoodsPrice,
		RegionTier:    r.RegionTier,
		IsRetired:     r.IsRetired,
		AgeYears:      r.AgeYears,
		ExtScore1:     derefFloat(r.ExtScore1),
		ExtScore2:     derefFloat(r.ExtScore2),
		ExtScore3:     derefFloat(r.ExtScore3),
	}
}

func derefInt(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

func derefFloat(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

// ScoreResponse is the body returned by a successful score request
type ScoreResponse struct {
	scoring.Assessment
	DecisionLabel string `json:"decision_label"`
	RequestID     string `json:"request_id,omitempty"`
}

// NewScoreResponse wraps an assessment for the wire
func NewScoreResponse(a scoring.Assessment, requestID string) ScoreResponse {
	return ScoreResponse{
		Assessment:    a,
		DecisionLabel: a.Decision.Label(),
		RequestID:     requestID,
	}
}

// StatusResponse describes model availability for the dashboard banner
type StatusResponse struct {
	Status      string  `json:"status"`
	ModelLoaded bool    `json:"model_loaded"`
	ModelPath   string  `json:"model_path"`
	Schema      string  `json:"schema"`
	Policy      string  `json:"policy"`
	PMin        float64 `json:"p_min"`
	PMax        float64 `json:"p_max"`
	Trees       int     `json:"trees,omitempty"`
	Version     string  `json:"version,omitempty"`
	Banner      string  `json:"banner,omitempty"`
}

// ImportancesResponse lists the classifier's global feature importances
type ImportancesResponse struct {
	Schema      string                      `json:"schema"`
	Importances []scoring.FeatureImportance `json:"importances"`
}
