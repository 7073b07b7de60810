package scoring

import (
	"fmt"
	"math"
	"strings"

	apperrors "github.com/ZanzyTHEbar/credit-risk-o-meter/internal/errors"
)

// Policy names the probability-to-score mapping.
type Policy string

const (
	// PolicyClip maps [PMin, PMax] linearly onto [1000, 0] and clips outside it.
	PolicyClip Policy = "clip"
	// PolicyNaive maps [0, 1] linearly onto [1000, 0].
	PolicyNaive Policy = "naive"
)

const (
	MaxScore = 1000
	MinScore = 0

	// DefaultPMin and DefaultPMax are the lowest and highest default
	// probabilities the dashboard's classifier produced on its reference
	// population. A calibration file replaces them.
	DefaultPMin = 0.01
	DefaultPMax = 0.964
)

func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(strings.ToLower(strings.TrimSpace(s))); p {
	case PolicyClip, PolicyNaive:
		return p, nil
	default:
		return "", fmt.Errorf("unknown normalization policy %q (expected %q or %q)", s, PolicyClip, PolicyNaive)
	}
}

// Normalizer converts a default probability into a credit score.
type Normalizer struct {
	policy Policy
	pMin   float64
	pMax   float64
}

// NewNormalizer builds a normalizer from a calibration record.
func NewNormalizer(cal Calibration) (*Normalizer, error) {
	policy, err := ParsePolicy(string(cal.Policy))
	if err != nil {
		return nil, apperrors.NewConfigurationError(err.Error(), err)
	}

	n := &Normalizer{policy: policy, pMin: cal.PMin, pMax: cal.PMax}
	if policy == PolicyClip {
		if !(cal.PMin >= 0 && cal.PMax <= 1 && cal.PMax > cal.PMin) {
			return nil, apperrors.NewConfigurationError(
				fmt.Sprintf("invalid calibration range [%v, %v]", cal.PMin, cal.PMax), nil)
		}
	}
	return n, nil
}

// DefaultNormalizer uses the clip policy with the reference constants.
func DefaultNormalizer() *Normalizer {
	return &Normalizer{policy: PolicyClip, pMin: DefaultPMin, pMax: DefaultPMax}
}

func (n *Normalizer) Policy() Policy { return n.policy }

// Range returns the calibration range; for the naive policy it is [0, 1].
func (n *Normalizer) Range() (float64, float64) {
	if n.policy == PolicyNaive {
		return 0, 1
	}
	return n.pMin, n.pMax
}

// Normalize returns the credit score for probability p. The result is
// non-increasing in p and always within [MinScore, MaxScore]. A p outside
// [0, 1] is a classifier contract violation and is reported, not clamped.
func (n *Normalizer) Normalize(p float64) (int, error) {
	if math.IsNaN(p) || p < 0 || p > 1 {
		return 0, apperrors.NewDomainError("probability",
			fmt.Sprintf("classifier returned probability %v outside [0, 1]", p))
	}

	switch n.policy {
	case PolicyNaive:
		return int(math.Round((1 - p) * MaxScore)), nil
	default:
		adjusted := MaxScore * (1 - (p-n.pMin)/(n.pMax-n.pMin))
		adjusted = math.Max(MinScore, math.Min(MaxScore, adjusted))
		return int(adjusted), nil
	}
}

// Assess normalizes p and attaches the decision and risk flags.
func (n *Normalizer) Assess(p, paymentRate, extScore3 float64) (ScoreResult, error) {
	score, err := n.Normalize(p)
	if err != nil {
		return ScoreResult{}, err
	}

	return ScoreResult{
		RawProbability: p,
		CreditScore:    score,
		Decision:       DecisionFor(score),
		RiskFlags:      RiskFlagsFor(paymentRate, extScore3, score),
	}, nil
}
