package scoring

import (
	"fmt"
	"sort"

	apperrors "github.com/ZanzyTHEbar/credit-risk-o-meter/internal/errors"
)

// Classifier is the pre-trained model. Implementations must be safe for
// concurrent read-only use.
type Classifier interface {
	PredictProbability(v FeatureVector) (float64, error)
	FeatureImportances() map[string]float64
}

// ClassifierProvider hands out the loaded classifier, or the error that
// prevented loading it.
type ClassifierProvider interface {
	Classifier() (Classifier, error)
}

// Scorer orchestrates the full scoring pipeline
type Scorer struct {
	schema     FeatureSchema
	normalizer *Normalizer
	provider   ClassifierProvider
}

// NewScorer creates a scorer for one feature schema
func NewScorer(schema FeatureSchema, normalizer *Normalizer, provider ClassifierProvider) (*Scorer, error) {
	if !schema.Valid() {
		return nil, apperrors.NewConfigurationError(fmt.Sprintf("unknown feature schema %q", schema), nil)
	}
	if normalizer == nil {
		normalizer = DefaultNormalizer()
	}
	return &Scorer{schema: schema, normalizer: normalizer, provider: provider}, nil
}

func (s *Scorer) Schema() FeatureSchema   { return s.schema }
func (s *Scorer) Normalizer() *Normalizer { return s.normalizer }

// Score validates, derives, predicts and normalizes. Errors keep their kind:
// validation, domain or artifact load.
func (s *Scorer) Score(raw RawApplicantInput) (Assessment, error) {
	if err := raw.Validate(s.schema); err != nil {
		return Assessment{}, err
	}

	vector, err := Derive(s.schema, raw)
	if err != nil {
		return Assessment{}, err
	}

	clf, err := s.provider.Classifier()
	if err != nil {
		return Assessment{}, err
	}

	p, err := clf.PredictProbability(vector)
	if err != nil {
		return Assessment{}, err
	}

	paymentRate, _ := vector.Get(FeaturePaymentRate)
	result, err := s.normalizer.Assess(p, paymentRate, raw.ExtScore3)
	if err != nil {
		return Assessment{}, err
	}

	return Assessment{
		ScoreResult: result,
		Schema:      s.schema,
		Policy:      s.normalizer.Policy(),
		Features:    vector.Map(),
		Importances: SortImportances(clf.FeatureImportances()),
	}, nil
}

// Probability runs the pipeline up to the classifier and returns the raw
// default probability. Calibration uses it to observe a population.
func (s *Scorer) Probability(raw RawApplicantInput) (float64, error) {
	if err := raw.Validate(s.schema); err != nil {
		return 0, err
	}

	vector, err := Derive(s.schema, raw)
	if err != nil {
		return 0, err
	}

	clf, err := s.provider.Classifier()
	if err != nil {
		return 0, err
	}
	return clf.PredictProbability(vector)
}

// Importances returns the classifier's feature importances, largest first.
func (s *Scorer) Importances() ([]FeatureImportance, error) {
	clf, err := s.provider.Classifier()
	if err != nil {
		return nil, err
	}
	return SortImportances(clf.FeatureImportances()), nil
}

// SortImportances orders importances descending, ties broken by name.
func SortImportances(m map[string]float64) []FeatureImportance {
	out := make([]FeatureImportance, 0, len(m))
	for name, w := range m {
		out = append(out, FeatureImportance{Feature: name, Importance: w})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Importance != out[j].Importance {
			return out[i].Importance > out[j].Importance
		}
		return out[i].Feature < out[j].Feature
	})
	return out
}
