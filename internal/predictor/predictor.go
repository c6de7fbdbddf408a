// Package predictor provides the probabilistic half of the hybrid reasoner:
// calibrated carbon-intensity risk and refactor-success probabilities over
// fixed-order feature vectors, with an online update path fed by praxis
// observations.
package predictor

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/floats"

	"github.com/sustainabot/ecopolicy/internal/metrics"
)

// ErrInvalidFeatures reports a malformed feature vector: wrong length, a
// non-finite value, or a value outside the metric score range. It is a
// caller error and is never masked by a sentinel probability.
var ErrInvalidFeatures = errors.New("invalid feature vector")

// reinforceRate controls how far a Reinforce step moves an action factor
// toward the observed success rate.
const reinforceRate = 0.3

// Predictor evaluates the predictive model. It is safe for concurrent use;
// Reinforce is the only mutating operation and is serialized against reads.
type Predictor struct {
	mu    sync.RWMutex
	model Model
}

// New loads the model from the given path and constructs a predictor.
// A load or validation failure returns ErrModelUnavailable and no predictor.
func New(modelPath string) (*Predictor, error) {
	m, err := LoadModel(modelPath)
	if err != nil {
		return nil, err
	}
	return &Predictor{model: m}, nil
}

// NewWithModel constructs a predictor from an in-memory model.
func NewWithModel(m Model) (*Predictor, error) {
	if err := m.validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}
	return &Predictor{model: m}, nil
}

// CarbonProbability returns the probability that the entity described by the
// feature vector exhibits problematic carbon intensity. The result is
// monotone non-decreasing in the complexity feature.
func (p *Predictor) CarbonProbability(features []float64) (float64, error) {
	if err := checkFeatures(features); err != nil {
		return 0, err
	}

	p.mu.RLock()
	carbon := p.model.Carbon
	p.mu.RUnlock()

	normalized := make([]float64, len(features))
	for i, f := range features {
		normalized[i] = f / 100
	}
	return clamp01(carbon.Bias + floats.Dot(carbon.Weights, normalized)), nil
}

// RefactorSuccess returns the estimated probability that applying the action
// to this entity yields the expected improvement. Every action tag gets a
// result: unregistered tags use the model's fallback factor as a neutral
// prior.
func (p *Predictor) RefactorSuccess(features []float64, action Action) (float64, error) {
	if err := checkFeatures(features); err != nil {
		return 0, err
	}

	p.mu.RLock()
	refactor := p.model.Refactor
	factor, known := refactor.Factors[action]
	p.mu.RUnlock()

	if !known {
		factor = refactor.Fallback
	}
	return clamp01(refactor.Base * factor), nil
}

// Feedback is one praxis outcome distilled into training signal for an
// action's success factor.
type Feedback struct {
	Action      Action
	Success     bool
	Improvement float64
}

// Reinforce nudges each action's success factor toward the observed success
// rate in the feedback set. It is the sole path by which the model changes
// after construction; a failed call leaves the model untouched.
func (p *Predictor) Reinforce(feedback []Feedback) error {
	if len(feedback) == 0 {
		return nil
	}

	indicators := make(map[Action][]float64)
	improvements := make(map[Action][]float64)
	for _, f := range feedback {
		v := 0.0
		if f.Success {
			v = 1.0
		}
		indicators[f.Action] = append(indicators[f.Action], v)
		improvements[f.Action] = append(improvements[f.Action], f.Improvement)
	}

	// Compute all updates before applying any, so a stats failure cannot
	// leave the model half-updated.
	updated := make(map[Action]float64, len(indicators))
	for action, values := range indicators {
		rate, err := stats.Mean(values)
		if err != nil {
			return fmt.Errorf("aggregate feedback for %s: %w", action, err)
		}
		gain, err := stats.Mean(improvements[action])
		if err != nil {
			return fmt.Errorf("aggregate improvement for %s: %w", action, err)
		}
		updated[action] = rate
		slog.Debug("reinforce signal",
			"action", action,
			"observations", len(values),
			"success_rate", rate,
			"mean_improvement", gain,
		)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.model.Refactor.Factors == nil {
		p.model.Refactor.Factors = make(map[Action]float64)
	}
	for action, rate := range updated {
		old, known := p.model.Refactor.Factors[action]
		if !known {
			old = p.model.Refactor.Fallback
		}
		p.model.Refactor.Factors[action] = clamp01(old + reinforceRate*(rate-old))
	}
	return nil
}

// Snapshot returns a copy of the current model, primarily for persistence
// after a reinforcement pass.
func (p *Predictor) Snapshot() Model {
	p.mu.RLock()
	defer p.mu.RUnlock()

	m := p.model
	m.Carbon.Weights = append([]float64(nil), p.model.Carbon.Weights...)
	m.Refactor.Factors = make(map[Action]float64, len(p.model.Refactor.Factors))
	for a, f := range p.model.Refactor.Factors {
		m.Refactor.Factors[a] = f
	}
	return m
}

func checkFeatures(features []float64) error {
	if len(features) != metrics.FeatureCount {
		return fmt.Errorf("%w: want %d features, got %d", ErrInvalidFeatures, metrics.FeatureCount, len(features))
	}
	for i, f := range features {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Errorf("%w: feature %d is not finite", ErrInvalidFeatures, i)
		}
		if f < 0 || f > 100 {
			return fmt.Errorf("%w: feature %d is %g, outside [0,100]", ErrInvalidFeatures, i, f)
		}
	}
	return nil
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
