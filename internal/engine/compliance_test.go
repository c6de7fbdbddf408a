package engine

import (
	"context"
	"strings"
	"testing"

	"github.com/sustainabot/ecopolicy/internal/knowledge"
	"github.com/sustainabot/ecopolicy/internal/metrics"
	"github.com/sustainabot/ecopolicy/internal/predictor"
)

type stubGraph struct {
	practices []knowledge.BestPractice
	err       error
	stored    []string
}

func (g *stubGraph) QueryBestPractices(ctx context.Context, domain string) ([]knowledge.BestPractice, error) {
	if g.err != nil {
		return nil, g.err
	}
	return g.practices, nil
}

func (g *stubGraph) StoreAnalysis(ctx context.Context, entityID string, record knowledge.AnalysisRecord) error {
	if g.err != nil {
		return g.err
	}
	g.stored = append(g.stored, entityID)
	return nil
}

func (g *stubGraph) QuerySimilar(ctx context.Context, entityID string) ([]string, error) {
	return nil, g.err
}

func newTestEngine(t *testing.T, cfg Config) *Engine {
	t.Helper()
	if cfg.Predictor == nil {
		p, err := predictor.NewWithModel(predictor.DefaultModel())
		if err != nil {
			t.Fatalf("NewWithModel() error = %v", err)
		}
		cfg.Predictor = p
	}
	e, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return e
}

func TestCheckCompliance_EcoMinimum(t *testing.T) {
	e := newTestEngine(t, Config{})
	records := []metrics.Record{
		{EntityID: "src/a.go", Carbon: 45, Energy: 55, Complexity: 35, Coverage: 70, Debt: 40},
	}

	violations, err := e.CheckCompliance(context.Background(), records)
	if err != nil {
		t.Fatalf("CheckCompliance() error = %v", err)
	}
	if len(violations) != 1 {
		t.Fatalf("got %d violations, want exactly 1", len(violations))
	}
	v := violations[0]
	if v.Policy != PolicyEcoMinimum {
		t.Errorf("policy = %s, want %s", v.Policy, PolicyEcoMinimum)
	}
	if v.Severity != SeverityBlocking {
		t.Errorf("severity = %s, want %s", v.Severity, SeverityBlocking)
	}
}

func TestCheckCompliance_EcoStandard(t *testing.T) {
	e := newTestEngine(t, Config{})
	records := []metrics.Record{
		{EntityID: "src/a.go", Carbon: 65, Energy: 72, Complexity: 75, Coverage: 90, Debt: 80},
	}

	violations, err := e.CheckCompliance(context.Background(), records)
	if err != nil {
		t.Fatalf("CheckCompliance() error = %v", err)
	}
	if len(violations) != 1 {
		t.Fatalf("got %d violations, want exactly 1", len(violations))
	}
	if violations[0].Policy != PolicyEcoStandard || violations[0].Severity != SeverityHigh {
		t.Errorf("got %s/%s, want %s/%s",
			violations[0].Policy, violations[0].Severity, PolicyEcoStandard, SeverityHigh)
	}
}

func TestCheckCompliance_CleanEntity(t *testing.T) {
	e := newTestEngine(t, Config{})
	records := []metrics.Record{
		{EntityID: "src/clean.go", Carbon: 80, Energy: 85, Complexity: 75, Coverage: 90, Debt: 80},
	}

	violations, err := e.CheckCompliance(context.Background(), records)
	if err != nil {
		t.Fatalf("CheckCompliance() error = %v", err)
	}
	if len(violations) != 0 {
		t.Fatalf("got %d violations for clean entity, want 0", len(violations))
	}

	recommendations, err := e.GetRecommendations(context.Background(), records)
	if err != nil {
		t.Fatalf("GetRecommendations() error = %v", err)
	}
	if len(recommendations) != 0 {
		t.Fatalf("got %d recommendations for clean entity, want 0", len(recommendations))
	}
}

func TestCheckCompliance_AtMostOneViolationPerEntity(t *testing.T) {
	// An entity failing every tier still yields exactly one violation.
	e := newTestEngine(t, Config{EnabledTiers: []Policy{
		PolicyEcoExcellence, PolicyEconPareto, PolicyQualityBaseline,
	}})
	records := []metrics.Record{
		{EntityID: "src/worst.go", Carbon: 10, Energy: 10, Complexity: 10, Coverage: 10, Debt: 10},
		{EntityID: "src/bad.go", Carbon: 45, Energy: 55, Complexity: 35, Coverage: 70, Debt: 40},
	}

	violations, err := e.CheckCompliance(context.Background(), records)
	if err != nil {
		t.Fatalf("CheckCompliance() error = %v", err)
	}

	perEntity := map[string]int{}
	for _, v := range violations {
		perEntity[v.EntityID]++
	}
	for id, n := range perEntity {
		if n > 1 {
			t.Errorf("entity %s produced %d violations, want at most 1", id, n)
		}
	}
	if violations[0].Policy != PolicyEcoMinimum {
		t.Errorf("worst entity matched %s, want the most severe tier first", violations[0].Policy)
	}
}

func TestCheckCompliance_ExtendedTiers(t *testing.T) {
	e := newTestEngine(t, Config{EnabledTiers: []Policy{
		PolicyEcoExcellence, PolicyEconPareto, PolicyQualityBaseline,
	}})

	tests := []struct {
		name   string
		record metrics.Record
		want   Policy
	}{
		{
			"eco excellence",
			metrics.Record{EntityID: "a", Carbon: 80, Energy: 90, Complexity: 75, Coverage: 90, Debt: 80},
			PolicyEcoExcellence,
		},
		{
			"econ pareto",
			metrics.Record{EntityID: "b", Carbon: 90, Energy: 90, Complexity: 75, Coverage: 90, Debt: 30},
			PolicyEconPareto,
		},
		{
			"quality baseline",
			metrics.Record{EntityID: "c", Carbon: 90, Energy: 90, Complexity: 75, Coverage: 40, Debt: 80},
			PolicyQualityBaseline,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			violations, err := e.CheckCompliance(context.Background(), []metrics.Record{tt.record})
			if err != nil {
				t.Fatalf("CheckCompliance() error = %v", err)
			}
			if len(violations) != 1 {
				t.Fatalf("got %d violations, want 1", len(violations))
			}
			if violations[0].Policy != tt.want {
				t.Errorf("policy = %s, want %s", violations[0].Policy, tt.want)
			}
		})
	}
}

func TestSuggestions_CarbonAndEnergyIndependent(t *testing.T) {
	graph := &stubGraph{practices: []knowledge.BestPractice{
		{Practice: "Implement caching", Description: "Cache expensive computations", Impact: 0.2},
	}}
	e := newTestEngine(t, Config{Graph: graph})

	records := []metrics.Record{
		{EntityID: "src/both.go", Carbon: 40, Energy: 40, Complexity: 75, Coverage: 90, Debt: 80},
	}
	violations, err := e.CheckCompliance(context.Background(), records)
	if err != nil {
		t.Fatalf("CheckCompliance() error = %v", err)
	}
	if len(violations) != 1 {
		t.Fatalf("got %d violations, want 1", len(violations))
	}

	joined := strings.Join(violations[0].Suggestions, "\n")
	if !strings.Contains(joined, "caching for repeated computations") {
		t.Error("carbon-specific suggestions missing")
	}
	if !strings.Contains(joined, "event-driven patterns") {
		t.Error("energy-specific suggestions missing")
	}
	if !strings.Contains(joined, "Implement caching: Cache expensive computations") {
		t.Error("knowledge-graph practice missing or misformatted")
	}
}

func TestSuggestions_GraphFailureDegrades(t *testing.T) {
	graph := &stubGraph{err: knowledge.ErrGraphUnavailable}
	e := newTestEngine(t, Config{Graph: graph})

	records := []metrics.Record{
		{EntityID: "src/a.go", Carbon: 40, Energy: 90, Complexity: 75, Coverage: 90, Debt: 80},
	}
	violations, err := e.CheckCompliance(context.Background(), records)
	if err != nil {
		t.Fatalf("CheckCompliance() error = %v, graph failure must not block violations", err)
	}
	if len(violations) != 1 {
		t.Fatalf("got %d violations, want 1", len(violations))
	}
	if len(violations[0].Suggestions) != len(carbonSuggestions) {
		t.Errorf("got %d suggestions, want deterministic subset of %d",
			len(violations[0].Suggestions), len(carbonSuggestions))
	}
}

func TestSuggestions_GraphCappedAtThree(t *testing.T) {
	graph := &stubGraph{practices: []knowledge.BestPractice{
		{Practice: "P1", Description: "d", Impact: 0.5},
		{Practice: "P2", Description: "d", Impact: 0.4},
		{Practice: "P3", Description: "d", Impact: 0.3},
		{Practice: "P4", Description: "d", Impact: 0.2},
	}}
	e := newTestEngine(t, Config{Graph: graph})

	records := []metrics.Record{
		{EntityID: "src/a.go", Carbon: 40, Energy: 90, Complexity: 75, Coverage: 90, Debt: 80},
	}
	violations, err := e.CheckCompliance(context.Background(), records)
	if err != nil {
		t.Fatal(err)
	}
	want := len(carbonSuggestions) + maxGraphSuggestions
	if len(violations[0].Suggestions) != want {
		t.Errorf("got %d suggestions, want %d (graph capped at %d)",
			len(violations[0].Suggestions), want, maxGraphSuggestions)
	}
}
