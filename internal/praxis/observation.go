// Package praxis implements the learning feedback loop: an append-only log
// of real-world outcomes from applied recommendations, and the trigger
// policy that decides when accumulated evidence justifies a model update.
package praxis

import (
	"fmt"
	"time"

	"github.com/sustainabot/ecopolicy/internal/metrics"
	"github.com/sustainabot/ecopolicy/internal/predictor"
)

// Outcome classifies whether an applied action's measured improvement met
// expectation.
type Outcome string

const (
	OutcomePositive Outcome = "positive"
	OutcomeNegative Outcome = "negative"
	OutcomeNeutral  Outcome = "neutral"
)

// Observation is one logged real-world outcome of an applied recommendation.
// Once appended to the log it is never mutated or removed.
type Observation struct {
	EntityID    string           `json:"entity_id"`
	ActionTaken predictor.Action `json:"action_taken"`
	Before      metrics.Record   `json:"metrics_before"`
	After       metrics.Record   `json:"metrics_after"`
	Outcome     Outcome          `json:"outcome"`
	RecordedAt  time.Time        `json:"timestamp"`
}

// Validate checks the observation is complete enough to append.
func (o Observation) Validate() error {
	if o.EntityID == "" {
		return fmt.Errorf("observation missing entity_id")
	}
	if o.ActionTaken == "" {
		return fmt.Errorf("observation missing action_taken")
	}
	switch o.Outcome {
	case OutcomePositive, OutcomeNegative, OutcomeNeutral:
	default:
		return fmt.Errorf("observation outcome %q is not positive, negative, or neutral", o.Outcome)
	}
	if err := o.Before.Validate(); err != nil {
		return fmt.Errorf("metrics_before: %w", err)
	}
	if err := o.After.Validate(); err != nil {
		return fmt.Errorf("metrics_after: %w", err)
	}
	return nil
}

// Improvement is the mean per-score delta between the after and before
// snapshots, the scalar training signal distilled from one observation.
func (o Observation) Improvement() float64 {
	deltas := []float64{
		o.After.Carbon - o.Before.Carbon,
		o.After.Energy - o.Before.Energy,
		o.After.Complexity - o.Before.Complexity,
		o.After.Coverage - o.Before.Coverage,
		o.After.Debt - o.Before.Debt,
	}
	sum := 0.0
	for _, d := range deltas {
		sum += d
	}
	return sum / float64(len(deltas))
}
