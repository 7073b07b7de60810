package scoring

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"
)

// Calibration records the normalization policy and where its constants came from.
type Calibration struct {
	Policy     Policy    `json:"policy"`
	PMin       float64   `json:"p_min"`
	PMax       float64   `json:"p_max"`
	Source     string    `json:"source"`
	SampleSize int       `json:"sample_size,omitempty"`
	CreatedAt  time.Time `json:"created_at,omitempty"`
}

// DefaultCalibration is used when no calibration file exists for a schema.
func DefaultCalibration() Calibration {
	return Calibration{
		Policy: PolicyClip,
		PMin:   DefaultPMin,
		PMax:   DefaultPMax,
		Source: "observed range of the dashboard classifier on its reference population",
	}
}

// CalibrationStore manages calibration data by feature schema
type CalibrationStore struct {
	dataDir string
}

// NewCalibrationStore creates a new calibration store
func NewCalibrationStore(dataDir string) *CalibrationStore {
	return &CalibrationStore{dataDir: dataDir}
}

func (c *CalibrationStore) path(schema FeatureSchema) string {
	return filepath.Join(c.dataDir, fmt.Sprintf("%s.json", schema))
}

// LoadCalibration loads the calibration for a schema, falling back to
// DefaultCalibration when the file does not exist.
func (c *CalibrationStore) LoadCalibration(schema FeatureSchema) (Calibration, error) {
	filePath := c.path(schema)

	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return DefaultCalibration(), nil
	}

	file, err := os.Open(filePath)
	if err != nil {
		return Calibration{}, fmt.Errorf("failed to open calibration file: %w", err)
	}
	defer file.Close()

	var data Calibration
	if err := json.NewDecoder(file).Decode(&data); err != nil {
		return Calibration{}, fmt.Errorf("failed to decode calibration data: %w", err)
	}
	if data.Policy == "" {
		data.Policy = PolicyClip
	}

	return data, nil
}

// SaveCalibration saves calibration data for a schema
func (c *CalibrationStore) SaveCalibration(schema FeatureSchema, data Calibration) error {
	if err := os.MkdirAll(c.dataDir, 0755); err != nil {
		return fmt.Errorf("failed to create calibration directory: %w", err)
	}

	file, err := os.Create(c.path(schema))
	if err != nil {
		return fmt.Errorf("failed to create calibration file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("failed to encode calibration data: %w", err)
	}

	return nil
}

// ObserveCalibration derives a clip calibration from the default
// probabilities a classifier produced on a reference population.
func ObserveCalibration(probabilities []float64, source string) (Calibration, error) {
	if len(probabilities) < 2 {
		return Calibration{}, fmt.Errorf("need at least 2 probabilities, got %d", len(probabilities))
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	for _, p := range probabilities {
		if math.IsNaN(p) || p < 0 || p > 1 {
			return Calibration{}, fmt.Errorf("probability %v outside [0, 1]", p)
		}
		lo = math.Min(lo, p)
		hi = math.Max(hi, p)
	}
	if hi <= lo {
		return Calibration{}, fmt.Errorf("degenerate probability range [%v, %v]", lo, hi)
	}

	return Calibration{
		Policy:     PolicyClip,
		PMin:       lo,
		PMax:       hi,
		Source:     source,
		SampleSize: len(probabilities),
		CreatedAt:  time.Now().UTC(),
	}, nil
}
