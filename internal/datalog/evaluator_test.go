package datalog

import (
	"context"
	"errors"
	"testing"

	"github.com/spf13/afero"

	"github.com/sustainabot/ecopolicy/internal/metrics"
)

const lowScoreRules = `package ecopolicy.rules

import rego.v1

low_carbon contains entry if {
	some fact in input.carbon_score
	fact.value < 50
	entry := [fact.entity_id, "low_carbon"]
}

low_energy contains entry if {
	some fact in input.energy_score
	fact.value < 50
	entry := [fact.entity_id, "low_energy"]
}
`

func testRecords() []metrics.Record {
	return []metrics.Record{
		{EntityID: "src/a.go", Carbon: 45, Energy: 55, Complexity: 35, Coverage: 70, Debt: 40},
		{EntityID: "src/b.go", Carbon: 80, Energy: 40, Complexity: 75, Coverage: 90, Debt: 80},
	}
}

func TestEvaluator_RunDerivesRelations(t *testing.T) {
	e := NewEvaluatorWithRules("", []*RuleFile{
		{Name: "low_scores", Path: "low_scores.rego", Content: lowScoreRules},
	})
	e.Load(testRecords())

	relations, err := e.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	lowCarbon := relations["low_carbon"]
	if len(lowCarbon) != 1 {
		t.Fatalf("low_carbon = %v, want one tuple", lowCarbon)
	}
	if lowCarbon[0][0] != "src/a.go" {
		t.Errorf("low_carbon tuple = %v, want src/a.go first column", lowCarbon[0])
	}

	lowEnergy := relations["low_energy"]
	if len(lowEnergy) != 1 || lowEnergy[0][0] != "src/b.go" {
		t.Errorf("low_energy = %v, want one src/b.go tuple", lowEnergy)
	}
}

func TestEvaluator_LoadReplacesBatch(t *testing.T) {
	e := NewEvaluatorWithRules("", []*RuleFile{
		{Name: "low_scores", Path: "low_scores.rego", Content: lowScoreRules},
	})

	e.Load(testRecords())
	e.Load([]metrics.Record{
		{EntityID: "src/clean.go", Carbon: 90, Energy: 90, Complexity: 90, Coverage: 90, Debt: 90},
	})

	relations, err := e.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(relations["low_carbon"]) != 0 {
		t.Errorf("low_carbon = %v after replacing batch, want empty", relations["low_carbon"])
	}
}

func TestEvaluator_QueryUnknownRelation(t *testing.T) {
	e := NewEvaluatorWithRules("", []*RuleFile{
		{Name: "low_scores", Path: "low_scores.rego", Content: lowScoreRules},
	})
	e.Load(testRecords())

	tuples, err := e.Query(context.Background(), "no_such_relation")
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(tuples) != 0 {
		t.Errorf("Query(unknown) = %v, want empty", tuples)
	}
}

func TestEvaluator_BadRulesUnavailable(t *testing.T) {
	e := NewEvaluatorWithRules("", []*RuleFile{
		{Name: "broken", Path: "broken.rego", Content: "this is not rego"},
	})
	e.Load(testRecords())

	_, err := e.Run(context.Background())
	if !errors.Is(err, ErrEvaluationUnavailable) {
		t.Fatalf("Run() error = %v, want ErrEvaluationUnavailable", err)
	}
}

func TestEvaluator_RunIsIdempotent(t *testing.T) {
	e := NewEvaluatorWithRules("", []*RuleFile{
		{Name: "low_scores", Path: "low_scores.rego", Content: lowScoreRules},
	})
	e.Load(testRecords())

	first, err := e.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	second, err := e.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(first) != len(second) {
		t.Fatalf("relation count differs between runs: %d vs %d", len(first), len(second))
	}
	for name, tuples := range first {
		other := second[name]
		if len(tuples) != len(other) {
			t.Fatalf("relation %s differs between runs", name)
		}
		for i := range tuples {
			for j := range tuples[i] {
				if tuples[i][j] != other[i][j] {
					t.Errorf("relation %s tuple %d differs: %v vs %v", name, i, tuples[i], other[i])
				}
			}
		}
	}
}

func TestLoader_LoadAll(t *testing.T) {
	fs := afero.NewMemMapFs()
	if err := afero.WriteFile(fs, "rules/eco.rego", []byte(lowScoreRules), 0644); err != nil {
		t.Fatal(err)
	}
	if err := afero.WriteFile(fs, "rules/notes.txt", []byte("ignored"), 0644); err != nil {
		t.Fatal(err)
	}

	rules, err := NewLoader(fs, "rules").LoadAll()
	if err != nil {
		t.Fatalf("LoadAll() error = %v", err)
	}
	if len(rules) != 1 {
		t.Fatalf("LoadAll() = %d rules, want 1", len(rules))
	}
	if rules[0].Name != "eco" {
		t.Errorf("rule name = %q, want eco", rules[0].Name)
	}
}

func TestLoader_MissingDirectory(t *testing.T) {
	rules, err := NewLoader(afero.NewMemMapFs(), "nowhere").LoadAll()
	if err != nil {
		t.Fatalf("LoadAll() error = %v", err)
	}
	if len(rules) != 0 {
		t.Errorf("LoadAll() = %d rules for missing dir, want 0", len(rules))
	}
}

func TestNewEvaluator_LoadsFromFs(t *testing.T) {
	fs := afero.NewMemMapFs()
	if err := afero.WriteFile(fs, "rules/eco.rego", []byte(lowScoreRules), 0644); err != nil {
		t.Fatal(err)
	}

	e, err := NewEvaluator(Config{RulesDir: "rules", Fs: fs})
	if err != nil {
		t.Fatalf("NewEvaluator() error = %v", err)
	}
	if e.RuleCount() != 1 {
		t.Errorf("RuleCount() = %d, want 1", e.RuleCount())
	}
}
