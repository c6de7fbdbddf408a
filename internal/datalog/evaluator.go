// Package datalog adapts the embedded Rego engine (OPA) as the deterministic
// half of the hybrid reasoner. Metric records are staged as fact relations,
// rule files derive output relations, and each derived relation comes back
// as an ordered sequence of string tuples. All evaluation happens in-process
// without external network calls.
package datalog

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/open-policy-agent/opa/v1/rego"
	"github.com/spf13/afero"

	"github.com/sustainabot/ecopolicy/internal/metrics"
)

// DefaultRulePackage is the default Rego package queried for derived relations.
const DefaultRulePackage = "ecopolicy.rules"

// ErrEvaluationUnavailable reports that the deterministic backend could not
// produce a result: rules failed to load, failed to compile, or evaluation
// itself errored. Callers may treat it as "no deterministic signal" and
// continue in probabilistic-only mode.
var ErrEvaluationUnavailable = errors.New("deterministic evaluation unavailable")

// Fact is one staged input row: a single named metric for a single entity.
type Fact struct {
	EntityID string  `json:"entity_id"`
	Value    float64 `json:"value"`
}

// factRelations is the fixed staging order for metric fact relations.
var factRelations = []string{
	"carbon_score",
	"energy_score",
	"complexity_score",
	"coverage_score",
	"debt_score",
}

// Evaluator stages metric facts and evaluates Rego rules against them.
// Load replaces the staged batch wholesale; an evaluation run is never
// incremental.
type Evaluator struct {
	mu sync.RWMutex

	rules       []*RuleFile
	rulePackage string
	facts       map[string][]Fact

	// retained for Reload
	fs       afero.Fs
	rulesDir string
}

// Config holds configuration for creating an Evaluator.
type Config struct {
	// RulesDir is the directory containing .rego rule files.
	RulesDir string

	// RulePackage is the Rego package to query for derived relations.
	// If empty, defaults to "ecopolicy.rules".
	RulePackage string

	// Fs is the filesystem to use for loading rules.
	// If nil, uses the OS filesystem.
	Fs afero.Fs
}

// NewEvaluator creates an evaluator and loads rules from the configured
// directory. A load failure is reported as ErrEvaluationUnavailable so the
// caller can decide whether to degrade or abort.
func NewEvaluator(cfg Config) (*Evaluator, error) {
	if cfg.Fs == nil {
		cfg.Fs = afero.NewOsFs()
	}
	if cfg.RulePackage == "" {
		cfg.RulePackage = DefaultRulePackage
	}

	rules, err := NewLoader(cfg.Fs, cfg.RulesDir).LoadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: load rules: %v", ErrEvaluationUnavailable, err)
	}

	return &Evaluator{
		rules:       rules,
		rulePackage: cfg.RulePackage,
		fs:          cfg.Fs,
		rulesDir:    cfg.RulesDir,
	}, nil
}

// NewEvaluatorWithRules creates an evaluator with explicitly provided rules.
// This is useful for testing or when rules come from sources other than files.
func NewEvaluatorWithRules(rulePackage string, rules []*RuleFile) *Evaluator {
	if rulePackage == "" {
		rulePackage = DefaultRulePackage
	}
	return &Evaluator{rules: rules, rulePackage: rulePackage}
}

// RuleCount returns the number of loaded rule files.
func (e *Evaluator) RuleCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.rules)
}

// Load stages one fact per score per entity, replacing any previously
// staged batch. Staging is the only externally observable side effect of
// the evaluator.
func (e *Evaluator) Load(records []metrics.Record) {
	facts := make(map[string][]Fact, len(factRelations))
	for _, rel := range factRelations {
		facts[rel] = make([]Fact, 0, len(records))
	}
	for _, r := range records {
		facts["carbon_score"] = append(facts["carbon_score"], Fact{r.EntityID, r.Carbon})
		facts["energy_score"] = append(facts["energy_score"], Fact{r.EntityID, r.Energy})
		facts["complexity_score"] = append(facts["complexity_score"], Fact{r.EntityID, r.Complexity})
		facts["coverage_score"] = append(facts["coverage_score"], Fact{r.EntityID, r.Coverage})
		facts["debt_score"] = append(facts["debt_score"], Fact{r.EntityID, r.Debt})
	}

	e.mu.Lock()
	e.facts = facts
	e.mu.Unlock()
}

// Run evaluates the loaded rules against the staged facts and returns every
// derived relation in the rule package as an ordered sequence of string
// tuples. With no rules loaded the result is empty, which is valid: rules
// that derive nothing and rules that do not exist look the same to Query.
func (e *Evaluator) Run(ctx context.Context) (map[string][][]string, error) {
	e.mu.RLock()
	rules := e.rules
	facts := e.facts
	rulePackage := e.rulePackage
	e.mu.RUnlock()

	if len(rules) == 0 {
		return map[string][][]string{}, nil
	}

	opts := []func(*rego.Rego){
		rego.Query("data." + rulePackage),
		rego.Input(facts),
	}
	for _, r := range rules {
		opts = append(opts, rego.Module(r.Path, r.Content))
	}

	rs, err := rego.New(opts...).Eval(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: eval rules: %v", ErrEvaluationUnavailable, err)
	}

	relations := map[string][][]string{}
	for _, result := range rs {
		for _, expr := range result.Expressions {
			pkg, ok := expr.Value.(map[string]any)
			if !ok {
				continue
			}
			for name, value := range pkg {
				relations[name] = append(relations[name], toTuples(value)...)
			}
		}
	}

	// Rego sets come back in set order; sort defensively so identical input
	// always yields identical output.
	for _, tuples := range relations {
		sort.Slice(tuples, func(i, j int) bool { return lessTuple(tuples[i], tuples[j]) })
	}

	return relations, nil
}

// Query is Run followed by a lookup of one relation. An unknown relation
// name yields an empty sequence, never an error.
func (e *Evaluator) Query(ctx context.Context, relation string) ([][]string, error) {
	relations, err := e.Run(ctx)
	if err != nil {
		return nil, err
	}
	return relations[relation], nil
}

// Reload re-reads rule files from disk and swaps them in atomically.
// Staged facts are retained.
func (e *Evaluator) Reload() error {
	e.mu.RLock()
	fs, dir := e.fs, e.rulesDir
	e.mu.RUnlock()

	if fs == nil {
		return fmt.Errorf("evaluator has no rules directory configured")
	}

	rules, err := NewLoader(fs, dir).LoadAll()
	if err != nil {
		return fmt.Errorf("%w: reload rules: %v", ErrEvaluationUnavailable, err)
	}

	e.mu.Lock()
	e.rules = rules
	e.mu.Unlock()
	return nil
}

// toTuples converts a derived Rego value into string tuples. Sets of arrays
// become multi-column tuples, sets of scalars become single-column tuples.
func toTuples(value any) [][]string {
	items, ok := value.([]any)
	if !ok {
		return nil
	}
	tuples := make([][]string, 0, len(items))
	for _, item := range items {
		switch v := item.(type) {
		case []any:
			tuple := make([]string, len(v))
			for i, col := range v {
				tuple[i] = fmt.Sprint(col)
			}
			tuples = append(tuples, tuple)
		default:
			tuples = append(tuples, []string{fmt.Sprint(v)})
		}
	}
	return tuples
}

func lessTuple(a, b []string) bool {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return len(a) < len(b)
}
