package model

import (
	"fmt"
	"math"

	apperrors "github.com/ZanzyTHEbar/credit-risk-o-meter/internal/errors"
	"github.com/ZanzyTHEbar/credit-risk-o-meter/internal/scoring"
)

const maxDepth = 64

type node struct {
	feature   int // -1 marks a leaf
	threshold float64
	yes       int
	no        int
	missing   int
	gain      float64
	value     float64
}

type tree struct {
	nodes []node
}

func (t tree) leaf(values []float64) float64 {
	i := 0
	for {
		n := t.nodes[i]
		if n.feature < 0 {
			return n.value
		}
		x := values[n.feature]
		switch {
		case math.IsNaN(x):
			i = n.missing
		case x < n.threshold:
			i = n.yes
		default:
			i = n.no
		}
	}
}

// Ensemble is a compiled tree ensemble. It is immutable after Compile and
// safe for concurrent use.
type Ensemble struct {
	schema      scoring.FeatureSchema
	version     string
	baseScore   float64
	trees       []tree
	importances map[string]float64
}

// PredictProbability returns the probability of default for v.
func (e *Ensemble) PredictProbability(v scoring.FeatureVector) (float64, error) {
	if v.Schema != e.schema || len(v.Values) != len(e.schema.Columns()) {
		return 0, apperrors.NewDomainError("predict",
			fmt.Sprintf("feature vector for schema %q does not match classifier schema %q", v.Schema, e.schema))
	}

	margin := math.Log(e.baseScore / (1 - e.baseScore))
	for _, t := range e.trees {
		margin += t.leaf(v.Values)
	}
	return 1 / (1 + math.Exp(-margin)), nil
}

// FeatureImportances returns a copy of the per-feature importances.
func (e *Ensemble) FeatureImportances() map[string]float64 {
	out := make(map[string]float64, len(e.importances))
	for k, w := range e.importances {
		out[k] = w
	}
	return out
}

func (e *Ensemble) Schema() scoring.FeatureSchema { return e.schema }
func (e *Ensemble) Version() string               { return e.version }
func (e *Ensemble) TreeCount() int                { return len(e.trees) }
