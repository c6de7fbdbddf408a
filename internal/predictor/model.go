package predictor

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/sustainabot/ecopolicy/internal/metrics"
)

// ErrModelUnavailable reports that the predictive model could not be loaded
// or validated. It is fatal to predictor construction: there is no meaningful
// degraded mode for "no model".
var ErrModelUnavailable = errors.New("predictive model unavailable")

// Model is the serialized form of the predictor's weights.
type Model struct {
	Carbon   CarbonModel   `yaml:"carbon"`
	Refactor RefactorModel `yaml:"refactor"`
}

// CarbonModel scores carbon-intensity risk as a clamped affine combination
// of the feature vector. Feature order matches metrics.Features: complexity,
// carbon, energy, coverage. Weights apply to features normalized to [0,1].
type CarbonModel struct {
	Bias    float64   `yaml:"bias"`
	Weights []float64 `yaml:"weights"`
}

// RefactorModel scores refactor-success probability as a base rate scaled by
// a per-action factor. Actions absent from Factors use Fallback.
type RefactorModel struct {
	Base     float64            `yaml:"base"`
	Factors  map[Action]float64 `yaml:"factors"`
	Fallback float64            `yaml:"fallback"`
}

// DefaultModel returns the stock model: carbon risk tracks the complexity
// feature alone, and refactor success rates mirror field-observed baselines
// per action type.
func DefaultModel() Model {
	return Model{
		Carbon: CarbonModel{
			Bias:    0,
			Weights: []float64{1.0, 0, 0, 0},
		},
		Refactor: RefactorModel{
			Base: 0.7,
			Factors: map[Action]float64{
				ActionExtractMethod:    0.85,
				ActionReduceComplexity: 0.75,
				ActionOptimizeLoop:     0.65,
				ActionAddCaching:       0.80,
			},
			Fallback: 0.7,
		},
	}
}

// LoadModel reads and validates a model file. Any failure is wrapped in
// ErrModelUnavailable.
func LoadModel(path string) (Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Model{}, fmt.Errorf("%w: read model file: %v", ErrModelUnavailable, err)
	}

	var m Model
	if err := yaml.Unmarshal(data, &m); err != nil {
		return Model{}, fmt.Errorf("%w: parse model file: %v", ErrModelUnavailable, err)
	}
	if err := m.validate(); err != nil {
		return Model{}, fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}
	return m, nil
}

// SaveModel writes the model to a YAML file, creating parent directories as
// needed.
func SaveModel(path string, m Model) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal model: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create model directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write model file: %w", err)
	}
	return nil
}

func (m Model) validate() error {
	if len(m.Carbon.Weights) != metrics.FeatureCount {
		return fmt.Errorf("carbon model needs %d weights, got %d", metrics.FeatureCount, len(m.Carbon.Weights))
	}
	// Carbon risk must be monotone non-decreasing in the complexity feature.
	if m.Carbon.Weights[0] < 0 {
		return fmt.Errorf("carbon complexity weight must be non-negative, got %g", m.Carbon.Weights[0])
	}
	if m.Refactor.Base < 0 || m.Refactor.Base > 1 {
		return fmt.Errorf("refactor base rate %g outside [0,1]", m.Refactor.Base)
	}
	if m.Refactor.Fallback < 0 || m.Refactor.Fallback > 1 {
		return fmt.Errorf("refactor fallback factor %g outside [0,1]", m.Refactor.Fallback)
	}
	for action, factor := range m.Refactor.Factors {
		if factor < 0 || factor > 1 {
			return fmt.Errorf("refactor factor for %s is %g, outside [0,1]", action, factor)
		}
	}
	return nil
}
