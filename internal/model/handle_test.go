package model

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"

	apperrors "github.com/ZanzyTHEbar/credit-risk-o-meter/internal/errors"
	"github.com/ZanzyTHEbar/credit-risk-o-meter/internal/monitoring"
	"github.com/ZanzyTHEbar/credit-risk-o-meter/internal/scoring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandle_LoadsLazily(t *testing.T) {
	path := writeArtifact(t, testArtifact())
	var buf bytes.Buffer
	h := NewHandle(path, scoring.SchemaRetired, monitoring.NewLoggerWithOptions(&buf, slog.LevelInfo, "json"))

	st := h.Status()
	assert.False(t, st.Loaded)
	assert.Empty(t, st.Error)
	assert.Zero(t, buf.Len())

	clf, err := h.Classifier()
	require.NoError(t, err)
	require.NotNil(t, clf)

	st = h.Status()
	assert.True(t, st.Loaded)
	assert.Equal(t, 1, st.Trees)
	assert.Equal(t, "test", st.Version)
	assert.Contains(t, buf.String(), "Classifier Artifact Loaded")
}

func TestHandle_CachesLoadFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.json")
	h := NewHandle(path, scoring.SchemaRetired, nil)

	clf, err := h.Classifier()
	require.Error(t, err)
	assert.Nil(t, clf)
	assert.True(t, apperrors.IsArtifactLoadError(err))

	data, err := json.Marshal(testArtifact())
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0644))

	_, err2 := h.Classifier()
	require.Error(t, err2)
	assert.Equal(t, err, err2)

	st := h.Status()
	assert.False(t, st.Loaded)
	assert.Contains(t, st.Error, path)
}

func TestHandle_ConcurrentCallersShareOneClassifier(t *testing.T) {
	h := NewHandle(writeArtifact(t, testArtifact()), scoring.SchemaRetired, nil)

	const workers = 16
	results := make([]scoring.Classifier, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			clf, err := h.Classifier()
			assert.NoError(t, err)
			results[i] = clf
		}(i)
	}
	wg.Wait()

	for _, clf := range results {
		assert.Same(t, results[0], clf)
	}
}

func TestHandle_ServesScorer(t *testing.T) {
	h := NewHandle(writeArtifact(t, testArtifact()), scoring.SchemaRetired, nil)
	s, err := scoring.NewScorer(scoring.SchemaRetired, scoring.DefaultNormalizer(), h)
	require.NoError(t, err)

	retired := false
	assessment, err := s.Score(scoring.RawApplicantInput{
		CreditAmount: 15000, Annuity: 5000, YearsEmployed: 5, AnnualIncome: 50000,
		GoodsPrice: 15000, RegionTier: 2, IsRetired: &retired,
		ExtScore1: 0.5, ExtScore2: 0.5, ExtScore3: 0.1,
	})
	require.NoError(t, err)
	assert.InDelta(t, sigmoid(1), assessment.RawProbability, 1e-12)
	assert.Equal(t, scoring.DecisionRejected, assessment.Decision)
}
