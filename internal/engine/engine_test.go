package engine

import (
	"context"
	"reflect"
	"testing"

	"github.com/sustainabot/ecopolicy/internal/datalog"
	"github.com/sustainabot/ecopolicy/internal/metrics"
	"github.com/sustainabot/ecopolicy/internal/praxis"
	"github.com/sustainabot/ecopolicy/internal/predictor"
)

const engineTestRules = `package ecopolicy.rules

import rego.v1

eco_violation contains entry if {
	some fact in input.carbon_score
	fact.value < 50
	entry := [fact.entity_id, "eco_minimum"]
}
`

func engineBatch() []metrics.Record {
	return []metrics.Record{
		{EntityID: "src/a.go", Carbon: 45, Energy: 55, Complexity: 35, Coverage: 70, Debt: 40},
		{EntityID: "src/b.go", Carbon: 80, Energy: 85, Complexity: 75, Coverage: 90, Debt: 80},
	}
}

func TestAnalyze_CombinesBothSignals(t *testing.T) {
	evaluator := datalog.NewEvaluatorWithRules("", []*datalog.RuleFile{
		{Name: "rules", Path: "rules.rego", Content: engineTestRules},
	})
	e := newTestEngine(t, Config{Evaluator: evaluator})

	result, err := e.Analyze(context.Background(), engineBatch())
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	if result.IsDegraded(SignalDeterministic) {
		t.Fatal("deterministic signal reported degraded with a working evaluator")
	}
	if len(result.Deterministic["eco_violation"]) != 1 {
		t.Errorf("eco_violation = %v, want one tuple", result.Deterministic["eco_violation"])
	}

	signals, ok := result.Probabilistic["src/a.go"]
	if !ok {
		t.Fatal("probabilistic signals missing for src/a.go")
	}
	if signals.CarbonProbability < 0 || signals.CarbonProbability > 1 {
		t.Errorf("carbon probability %g outside [0,1]", signals.CarbonProbability)
	}
	for _, action := range []predictor.Action{predictor.ActionExtractMethod, predictor.ActionReduceComplexity} {
		if _, ok := signals.RefactorSuccess[action]; !ok {
			t.Errorf("refactor success missing for %s", action)
		}
	}
}

func TestAnalyze_DegradesWithoutEvaluator(t *testing.T) {
	e := newTestEngine(t, Config{})

	result, err := e.Analyze(context.Background(), engineBatch())
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if !result.IsDegraded(SignalDeterministic) {
		t.Fatal("deterministic signal not reported degraded without an evaluator")
	}
	if result.Deterministic != nil {
		t.Error("degraded deterministic output should be nil, not empty")
	}
	if len(result.Probabilistic) != 2 {
		t.Errorf("probabilistic signals for %d entities, want 2", len(result.Probabilistic))
	}
}

func TestAnalyze_DegradesOnEvaluationFailure(t *testing.T) {
	evaluator := datalog.NewEvaluatorWithRules("", []*datalog.RuleFile{
		{Name: "broken", Path: "broken.rego", Content: "not rego at all"},
	})
	e := newTestEngine(t, Config{Evaluator: evaluator})

	result, err := e.Analyze(context.Background(), engineBatch())
	if err != nil {
		t.Fatalf("Analyze() error = %v, want degraded result", err)
	}
	if !result.IsDegraded(SignalDeterministic) {
		t.Fatal("broken rules must degrade the deterministic signal, not fail the batch")
	}
}

func TestAnalyze_Idempotent(t *testing.T) {
	evaluator := datalog.NewEvaluatorWithRules("", []*datalog.RuleFile{
		{Name: "rules", Path: "rules.rego", Content: engineTestRules},
	})
	e := newTestEngine(t, Config{Evaluator: evaluator})

	first, err := e.Analyze(context.Background(), engineBatch())
	if err != nil {
		t.Fatal(err)
	}
	second, err := e.Analyze(context.Background(), engineBatch())
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Error("Analyze() results differ for identical input with no intervening update")
	}
}

func TestAnalyze_RejectsDuplicateEntityIDs(t *testing.T) {
	e := newTestEngine(t, Config{})
	batch := engineBatch()
	batch[1].EntityID = batch[0].EntityID

	if _, err := e.Analyze(context.Background(), batch); err == nil {
		t.Fatal("Analyze() accepted duplicate entity IDs")
	}
}

func TestRecordObservation_FlowsToLoop(t *testing.T) {
	log, err := praxis.NewLog(nil)
	if err != nil {
		t.Fatal(err)
	}
	loop, err := praxis.NewLoop(praxis.LoopConfig{Log: log})
	if err != nil {
		t.Fatal(err)
	}
	e := newTestEngine(t, Config{Loop: loop})

	obs := praxis.Observation{
		EntityID:    "src/a.go",
		ActionTaken: predictor.ActionReduceComplexity,
		Before:      engineBatch()[0],
		After:       engineBatch()[1],
		Outcome:     praxis.OutcomePositive,
	}
	obs.After.EntityID = obs.EntityID
	obs.Before.EntityID = obs.EntityID

	if err := e.RecordObservation(context.Background(), obs); err != nil {
		t.Fatalf("RecordObservation() error = %v", err)
	}
	if e.ShouldUpdate() {
		t.Error("ShouldUpdate() = true after a single observation")
	}
}

func TestUpdateFromPractice_NoopBelowThreshold(t *testing.T) {
	log, err := praxis.NewLog(nil)
	if err != nil {
		t.Fatal(err)
	}
	pred, err := predictor.NewWithModel(predictor.DefaultModel())
	if err != nil {
		t.Fatal(err)
	}
	loop, err := praxis.NewLoop(praxis.LoopConfig{Log: log, Trainer: pred})
	if err != nil {
		t.Fatal(err)
	}
	e := newTestEngine(t, Config{Predictor: pred, Loop: loop})

	if err := e.UpdateFromPractice(context.Background()); err != nil {
		t.Fatalf("UpdateFromPractice() below threshold error = %v, want noop", err)
	}
}
