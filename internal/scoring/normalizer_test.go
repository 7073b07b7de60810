package scoring

import (
	"math"
	"testing"

	apperrors "github.com/ZanzyTHEbar/credit-risk-o-meter/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func naiveNormalizer(t *testing.T) *Normalizer {
	t.Helper()
	n, err := NewNormalizer(Calibration{Policy: PolicyNaive})
	require.NoError(t, err)
	return n
}

func TestNormalize_NaiveScenarios(t *testing.T) {
	n := naiveNormalizer(t)

	tests := []struct {
		p        float64
		score    int
		decision Decision
	}{
		{p: 0.0, score: 1000, decision: DecisionApproved},
		{p: 1.0, score: 0, decision: DecisionRejected},
		{p: 0.5, score: 500, decision: DecisionManualReview},
	}

	for _, tt := range tests {
		res, err := n.Assess(tt.p, 0.1, 0.5)
		require.NoError(t, err)
		assert.Equal(t, tt.score, res.CreditScore, "p=%v", tt.p)
		assert.Equal(t, tt.decision, res.Decision, "p=%v", tt.p)
		assert.Equal(t, tt.p, res.RawProbability)
	}
}

func TestNormalize_ClipScenarios(t *testing.T) {
	n := DefaultNormalizer()

	score, err := n.Normalize(0.01)
	require.NoError(t, err)
	assert.Equal(t, 1000, score)

	score, err = n.Normalize(0.964)
	require.NoError(t, err)
	assert.Equal(t, 0, score)

	score, err = n.Normalize((DefaultPMin + DefaultPMax) / 2)
	require.NoError(t, err)
	assert.InDelta(t, 500, score, 1)

	score, err = n.Normalize(0.4825)
	require.NoError(t, err)
	assert.InDelta(t, 500, score, 5)
}

func TestNormalize_ClipsOutsideObservedRange(t *testing.T) {
	n := DefaultNormalizer()

	score, err := n.Normalize(0)
	require.NoError(t, err)
	assert.Equal(t, 1000, score)

	score, err = n.Normalize(1)
	require.NoError(t, err)
	assert.Equal(t, 0, score)
}

func TestNormalize_RangeAndMonotonic(t *testing.T) {
	normalizers := map[string]*Normalizer{
		"clip":  DefaultNormalizer(),
		"naive": naiveNormalizer(t),
	}

	for name, n := range normalizers {
		t.Run(name, func(t *testing.T) {
			prev := math.MaxInt
			for i := 0; i <= 10000; i++ {
				p := float64(i) / 10000
				score, err := n.Normalize(p)
				require.NoError(t, err)
				assert.GreaterOrEqual(t, score, MinScore)
				assert.LessOrEqual(t, score, MaxScore)
				assert.LessOrEqual(t, score, prev, "score must not increase at p=%v", p)
				prev = score
			}
		})
	}
}

func TestNormalize_RejectsOutOfRangeProbability(t *testing.T) {
	n := DefaultNormalizer()

	for _, p := range []float64{-0.0001, 1.0001, math.NaN(), math.Inf(1)} {
		_, err := n.Normalize(p)
		require.Error(t, err, "p=%v", p)
		assert.True(t, apperrors.IsDomainError(err))
	}
}

func TestNewNormalizer_InvalidCalibration(t *testing.T) {
	tests := []struct {
		name string
		cal  Calibration
	}{
		{name: "unknown policy", cal: Calibration{Policy: "sigmoid", PMin: 0.01, PMax: 0.9}},
		{name: "inverted range", cal: Calibration{Policy: PolicyClip, PMin: 0.9, PMax: 0.1}},
		{name: "empty range", cal: Calibration{Policy: PolicyClip, PMin: 0.3, PMax: 0.3}},
		{name: "range beyond one", cal: Calibration{Policy: PolicyClip, PMin: 0.1, PMax: 1.5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewNormalizer(tt.cal)
			require.Error(t, err)
			assert.Equal(t, apperrors.CategoryConfiguration, apperrors.CategoryOf(err))
		})
	}
}

func TestNormalizerRange(t *testing.T) {
	lo, hi := DefaultNormalizer().Range()
	assert.Equal(t, DefaultPMin, lo)
	assert.Equal(t, DefaultPMax, hi)

	lo, hi = naiveNormalizer(t).Range()
	assert.Equal(t, 0.0, lo)
	assert.Equal(t, 1.0, hi)
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("CLIP")
	require.NoError(t, err)
	assert.Equal(t, PolicyClip, p)

	_, err = ParsePolicy("")
	assert.Error(t, err)
}
