package model

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"strings"
	"sync"

	apperrors "github.com/ZanzyTHEbar/credit-risk-o-meter/internal/errors"
	"github.com/ZanzyTHEbar/credit-risk-o-meter/internal/scoring"
	"github.com/xeipuuv/gojsonschema"
)

//go:embed artifact.schema.json
var artifactSchemaJSON []byte

var artifactSchema = sync.OnceValues(func() (*gojsonschema.Schema, error) {
	return gojsonschema.NewSchema(gojsonschema.NewBytesLoader(artifactSchemaJSON))
})

// FormatTreeEnsemble is the only artifact format the loader understands: a
// gradient-boosted binary classifier stored as JSON tree dumps.
const FormatTreeEnsemble = "tree_ensemble"

// Artifact is the on-disk representation of a trained classifier.
type Artifact struct {
	Format             string             `json:"format"`
	Version            string             `json:"version,omitempty"`
	Schema             string             `json:"schema"`
	FeatureNames       []string           `json:"feature_names"`
	BaseScore          float64            `json:"base_score"`
	Trees              []*TreeNode        `json:"trees"`
	FeatureImportances map[string]float64 `json:"feature_importances,omitempty"`
}

// TreeNode is a split or leaf in the dump format. Samples with a value
// strictly below SplitCondition follow Yes; NaN follows Missing.
type TreeNode struct {
	NodeID         int         `json:"nodeid"`
	Split          string      `json:"split,omitempty"`
	SplitCondition float64     `json:"split_condition,omitempty"`
	Yes            int         `json:"yes,omitempty"`
	No             int         `json:"no,omitempty"`
	Missing        int         `json:"missing,omitempty"`
	Gain           float64     `json:"gain,omitempty"`
	Leaf           *float64    `json:"leaf,omitempty"`
	Children       []*TreeNode `json:"children,omitempty"`
}

// Load reads the artifact at path and compiles it against schema. Any
// failure, including a feature order that differs from the schema's, is
// returned as an ArtifactLoadError.
func Load(path string, schema scoring.FeatureSchema) (*Ensemble, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.NewArtifactLoadError(path, err)
	}

	if err := validateDocument(data); err != nil {
		return nil, apperrors.NewArtifactLoadError(path, err)
	}

	var art Artifact
	if err := json.Unmarshal(data, &art); err != nil {
		return nil, apperrors.NewArtifactLoadError(path, fmt.Errorf("decode artifact: %w", err))
	}

	ens, err := Compile(art, schema)
	if err != nil {
		return nil, apperrors.NewArtifactLoadError(path, err)
	}
	return ens, nil
}

// validateDocument checks the raw document against the artifact JSON schema.
// Malformed JSON is reported here as well.
func validateDocument(data []byte) error {
	schema, err := artifactSchema()
	if err != nil {
		return fmt.Errorf("artifact schema: %w", err)
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("decode artifact: %w", err)
	}
	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return fmt.Errorf("artifact does not match schema: %s", strings.Join(errs, "; "))
	}
	return nil
}

// Compile checks an artifact against schema and flattens its trees for
// evaluation.
func Compile(art Artifact, schema scoring.FeatureSchema) (*Ensemble, error) {
	if art.Format != "" && art.Format != FormatTreeEnsemble {
		return nil, fmt.Errorf("unsupported artifact format %q", art.Format)
	}
	if !schema.Valid() {
		return nil, fmt.Errorf("unknown feature schema %q", schema)
	}
	if art.Schema != "" && scoring.FeatureSchema(art.Schema) != schema {
		return nil, fmt.Errorf("artifact was trained for schema %q, configured schema is %q", art.Schema, schema)
	}

	columns := schema.Columns()
	if !equalNames(art.FeatureNames, columns) {
		return nil, fmt.Errorf("feature order mismatch: artifact has [%s], schema %q expects [%s]",
			strings.Join(art.FeatureNames, ", "), schema, strings.Join(columns, ", "))
	}
	if len(art.Trees) == 0 {
		return nil, errors.New("artifact contains no trees")
	}

	base := art.BaseScore
	if base == 0 {
		base = 0.5
	}
	if !(base > 0 && base < 1) {
		return nil, fmt.Errorf("base_score %v outside (0, 1)", art.BaseScore)
	}

	index := make(map[string]int, len(columns))
	for i, name := range columns {
		index[name] = i
	}

	ens := &Ensemble{
		schema:    schema,
		version:   art.Version,
		baseScore: base,
		trees:     make([]tree, 0, len(art.Trees)),
	}
	for i, root := range art.Trees {
		t, err := compileTree(root, index)
		if err != nil {
			return nil, fmt.Errorf("tree %d: %w", i, err)
		}
		ens.trees = append(ens.trees, t)
	}

	imps, err := importances(art, ens.trees, columns)
	if err != nil {
		return nil, err
	}
	ens.importances = imps
	return ens, nil
}

func equalNames(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func compileTree(root *TreeNode, index map[string]int) (tree, error) {
	if root == nil {
		return tree{}, errors.New("empty tree")
	}

	var t tree
	var visit func(n *TreeNode, depth int) (int, error)
	visit = func(n *TreeNode, depth int) (int, error) {
		if depth > maxDepth {
			return 0, fmt.Errorf("tree deeper than %d levels", maxDepth)
		}

		pos := len(t.nodes)
		t.nodes = append(t.nodes, node{feature: -1})

		if n.Leaf != nil {
			if len(n.Children) > 0 {
				return 0, fmt.Errorf("node %d is both a leaf and a split", n.NodeID)
			}
			if math.IsNaN(*n.Leaf) || math.IsInf(*n.Leaf, 0) {
				return 0, fmt.Errorf("node %d has a non-finite leaf value", n.NodeID)
			}
			t.nodes[pos].value = *n.Leaf
			return pos, nil
		}

		feature, ok := index[n.Split]
		if !ok {
			return 0, fmt.Errorf("node %d splits on unknown feature %q", n.NodeID, n.Split)
		}
		if len(n.Children) != 2 {
			return 0, fmt.Errorf("split node %d has %d children, want 2", n.NodeID, len(n.Children))
		}

		children := make(map[int]int, 2)
		for _, child := range n.Children {
			if child == nil {
				return 0, fmt.Errorf("split node %d has a nil child", n.NodeID)
			}
			childPos, err := visit(child, depth+1)
			if err != nil {
				return 0, err
			}
			children[child.NodeID] = childPos
		}

		yes, okYes := children[n.Yes]
		no, okNo := children[n.No]
		if !okYes || !okNo {
			return 0, fmt.Errorf("split node %d references children that are not present", n.NodeID)
		}
		missing, ok := children[n.Missing]
		if !ok {
			missing = yes
		}

		t.nodes[pos] = node{
			feature:   feature,
			threshold: n.SplitCondition,
			yes:       yes,
			no:        no,
			missing:   missing,
			gain:      n.Gain,
		}
		return pos, nil
	}

	if _, err := visit(root, 0); err != nil {
		return tree{}, err
	}
	return t, nil
}

// importances prefers the stored importances, then total split gain, then
// split counts. The result covers every column and sums to one unless the
// trees never split.
func importances(art Artifact, trees []tree, columns []string) (map[string]float64, error) {
	raw := make(map[string]float64, len(columns))
	for _, name := range columns {
		raw[name] = 0
	}

	if len(art.FeatureImportances) > 0 {
		for name, w := range art.FeatureImportances {
			if _, ok := raw[name]; !ok {
				return nil, fmt.Errorf("importance given for unknown feature %q", name)
			}
			if math.IsNaN(w) || w < 0 {
				return nil, fmt.Errorf("importance for %q must be a non-negative number", name)
			}
			raw[name] = w
		}
		return normalize(raw), nil
	}

	gains := make(map[string]float64, len(columns))
	counts := make(map[string]float64, len(columns))
	var totalGain float64
	for _, t := range trees {
		for _, n := range t.nodes {
			if n.feature < 0 {
				continue
			}
			name := columns[n.feature]
			gains[name] += n.gain
			counts[name]++
			totalGain += n.gain
		}
	}

	source := counts
	if totalGain > 0 {
		source = gains
	}
	for name, w := range source {
		raw[name] = w
	}
	return normalize(raw), nil
}

func normalize(m map[string]float64) map[string]float64 {
	var total float64
	for _, w := range m {
		total += w
	}
	if total == 0 {
		return m
	}
	for name, w := range m {
		m[name] = w / total
	}
	return m
}
