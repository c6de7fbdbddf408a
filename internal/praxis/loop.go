package praxis

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sustainabot/ecopolicy/internal/knowledge"
	"github.com/sustainabot/ecopolicy/internal/predictor"
)

// DefaultUpdateThreshold is the positive-observation count that must be
// exceeded (strictly) before a model update is justified.
const DefaultUpdateThreshold = 10

// Trainer receives distilled praxis feedback. *predictor.Predictor satisfies
// it; tests substitute fakes.
type Trainer interface {
	Reinforce(feedback []predictor.Feedback) error
}

// Loop owns the observation log and the update trigger policy. It stays in
// a collecting state; TriggerUpdate runs a training pass and returns to
// collecting with the log retained, whether or not training succeeded.
type Loop struct {
	log       *Log
	graph     knowledge.Graph
	trainer   Trainer
	threshold int
}

// LoopConfig holds configuration for creating a Loop.
type LoopConfig struct {
	// Log is the observation log. Required.
	Log *Log

	// Graph receives best-effort analysis records on each append. Optional.
	Graph knowledge.Graph

	// Trainer receives feedback on TriggerUpdate. Optional; without one,
	// TriggerUpdate fails.
	Trainer Trainer

	// UpdateThreshold overrides DefaultUpdateThreshold when positive.
	UpdateThreshold int
}

// NewLoop creates a praxis learning loop.
func NewLoop(cfg LoopConfig) (*Loop, error) {
	if cfg.Log == nil {
		return nil, fmt.Errorf("praxis loop requires an observation log")
	}
	threshold := cfg.UpdateThreshold
	if threshold <= 0 {
		threshold = DefaultUpdateThreshold
	}
	return &Loop{
		log:       cfg.Log,
		graph:     cfg.Graph,
		trainer:   cfg.Trainer,
		threshold: threshold,
	}, nil
}

// Record appends an observation to the log and forwards it to the knowledge
// graph as an analysis record. The forward is best-effort: a graph failure
// is logged and never blocks the append.
func (lp *Loop) Record(ctx context.Context, o Observation) error {
	if err := lp.log.Append(o); err != nil {
		return err
	}

	if lp.graph != nil {
		record := knowledge.AnalysisRecord{
			Kind:       "praxis_observation",
			Action:     string(o.ActionTaken),
			Outcome:    string(o.Outcome),
			RecordedAt: o.RecordedAt,
		}
		if err := lp.graph.StoreAnalysis(ctx, o.EntityID, record); err != nil {
			slog.Warn("knowledge graph store failed", "entity", o.EntityID, "error", err)
		}
	}
	return nil
}

// ShouldUpdate reports whether accumulated positive observations exceed the
// trigger threshold. Pure query, no side effects.
func (lp *Loop) ShouldUpdate() bool {
	return lp.log.CountOutcome(OutcomePositive) > lp.threshold
}

// TriggerUpdate selects positive observations as training signal and runs
// one reinforcement pass. A training failure leaves the log untouched and
// the loop collecting; the update can be retried while the threshold
// condition still holds.
func (lp *Loop) TriggerUpdate(ctx context.Context) error {
	if lp.trainer == nil {
		return fmt.Errorf("no trainer configured for praxis update")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	var feedback []predictor.Feedback
	for _, o := range lp.log.Snapshot() {
		if o.Outcome != OutcomePositive {
			continue
		}
		feedback = append(feedback, predictor.Feedback{
			Action:      o.ActionTaken,
			Success:     true,
			Improvement: o.Improvement(),
		})
	}
	if len(feedback) == 0 {
		return nil
	}

	if err := lp.trainer.Reinforce(feedback); err != nil {
		return fmt.Errorf("model update: %w", err)
	}

	slog.Info("praxis update applied", "observations", len(feedback))
	return nil
}

// ObservationCount returns the size of the log.
func (lp *Loop) ObservationCount() int {
	return lp.log.Len()
}
