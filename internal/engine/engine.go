package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sustainabot/ecopolicy/internal/datalog"
	"github.com/sustainabot/ecopolicy/internal/knowledge"
	"github.com/sustainabot/ecopolicy/internal/metrics"
	"github.com/sustainabot/ecopolicy/internal/praxis"
	"github.com/sustainabot/ecopolicy/internal/predictor"
)

// analysisActions are the action tags whose refactor-success probability is
// reported for every entity in an analysis run.
var analysisActions = []predictor.Action{
	predictor.ActionExtractMethod,
	predictor.ActionReduceComplexity,
}

// Engine orchestrates the hybrid reasoning pipeline. The deterministic
// evaluator and knowledge graph are optional collaborators with documented
// degraded modes; the predictor is mandatory, because confidence ranking has
// no meaningful fallback without it.
type Engine struct {
	evaluator *datalog.Evaluator
	predictor *predictor.Predictor
	graph     knowledge.Graph
	loop      *praxis.Loop
	ladder    []ladderRule
}

// Config holds the collaborators and policy options for an Engine.
type Config struct {
	// Evaluator is the deterministic rule backend. Optional: without one,
	// every analysis reports the deterministic signal as degraded.
	Evaluator *datalog.Evaluator

	// Predictor is the probabilistic model. Required.
	Predictor *predictor.Predictor

	// Graph enriches violation suggestions and receives praxis records.
	// Optional.
	Graph knowledge.Graph

	// Loop is the praxis learning loop. Optional: without one,
	// RecordObservation and UpdateFromPractice fail.
	Loop *praxis.Loop

	// EnabledTiers switches on ladder tiers beyond the default two.
	EnabledTiers []Policy
}

// New creates an Engine. A missing predictor is reported as
// ErrModelUnavailable: the engine cannot rank recommendations without one.
func New(cfg Config) (*Engine, error) {
	if cfg.Predictor == nil {
		return nil, fmt.Errorf("%w: engine requires a predictor", predictor.ErrModelUnavailable)
	}

	enabled := make(map[Policy]bool, len(cfg.EnabledTiers))
	for _, tier := range cfg.EnabledTiers {
		enabled[tier] = true
	}

	return &Engine{
		evaluator: cfg.Evaluator,
		predictor: cfg.Predictor,
		graph:     cfg.Graph,
		loop:      cfg.Loop,
		ladder:    defaultLadder(enabled),
	}, nil
}

// Analyze runs both reasoning modes over the batch. The two passes are
// independent; a deterministic failure is recorded as a degraded signal
// instead of aborting, while predictor errors are surfaced because they are
// caller errors once the batch has validated.
func (e *Engine) Analyze(ctx context.Context, records []metrics.Record) (AnalysisResult, error) {
	if err := metrics.ValidateBatch(records); err != nil {
		return AnalysisResult{}, err
	}

	result := AnalysisResult{
		Probabilistic: make(map[string]EntitySignals, len(records)),
	}

	if e.evaluator == nil {
		result.Degraded = append(result.Degraded, SignalDeterministic)
	} else {
		e.evaluator.Load(records)
		relations, err := e.evaluator.Run(ctx)
		switch {
		case errors.Is(err, datalog.ErrEvaluationUnavailable):
			slog.Warn("deterministic evaluation degraded", "error", err)
			result.Degraded = append(result.Degraded, SignalDeterministic)
		case err != nil:
			return AnalysisResult{}, err
		default:
			result.Deterministic = relations
		}
	}

	for _, m := range records {
		features := metrics.Features(m)

		carbonProb, err := e.predictor.CarbonProbability(features)
		if err != nil {
			return AnalysisResult{}, fmt.Errorf("predict carbon for %q: %w", m.EntityID, err)
		}

		success := make(map[predictor.Action]float64, len(analysisActions))
		for _, action := range analysisActions {
			p, err := e.predictor.RefactorSuccess(features, action)
			if err != nil {
				return AnalysisResult{}, fmt.Errorf("predict refactor success for %q: %w", m.EntityID, err)
			}
			success[action] = p
		}

		result.Probabilistic[m.EntityID] = EntitySignals{
			CarbonProbability: carbonProb,
			RefactorSuccess:   success,
		}
	}

	return result, nil
}

// CheckCompliance evaluates each entity against the ladder, most severe
// tier first. The first matching tier wins: an entity yields at most one
// violation, and passing every tier yields none.
func (e *Engine) CheckCompliance(ctx context.Context, records []metrics.Record) ([]Violation, error) {
	if err := metrics.ValidateBatch(records); err != nil {
		return nil, err
	}

	var violations []Violation
	for _, m := range records {
		rule := firstMatch(e.ladder, m)
		if rule == nil {
			continue
		}
		violations = append(violations, Violation{
			EntityID:    m.EntityID,
			Policy:      rule.policy,
			Severity:    rule.severity,
			Message:     rule.message,
			Suggestions: ecoSuggestions(ctx, e.graph, m),
		})
	}
	return violations, nil
}

// GetRecommendations runs a full analysis and returns the globally
// confidence-ranked recommendation list.
func (e *Engine) GetRecommendations(ctx context.Context, records []metrics.Record) ([]Recommendation, error) {
	analysis, err := e.Analyze(ctx, records)
	if err != nil {
		return nil, err
	}
	return rankRecommendations(records, analysis.Probabilistic), nil
}

// RecordObservation appends one praxis observation to the learning loop.
func (e *Engine) RecordObservation(ctx context.Context, o praxis.Observation) error {
	if e.loop == nil {
		return fmt.Errorf("no praxis loop configured")
	}
	return e.loop.Record(ctx, o)
}

// ShouldUpdate reports whether accumulated positive observations justify a
// model update.
func (e *Engine) ShouldUpdate() bool {
	return e.loop != nil && e.loop.ShouldUpdate()
}

// UpdateFromPractice runs a model update when the trigger condition holds.
// When it does not, the call is a no-op.
func (e *Engine) UpdateFromPractice(ctx context.Context) error {
	if e.loop == nil {
		return fmt.Errorf("no praxis loop configured")
	}
	if !e.loop.ShouldUpdate() {
		return nil
	}
	return e.loop.TriggerUpdate(ctx)
}
