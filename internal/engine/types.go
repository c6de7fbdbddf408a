// Package engine reconciles the deterministic and probabilistic signals into
// compliance violations and confidence-ranked recommendations, and closes
// the loop through praxis observations.
package engine

import (
	"github.com/sustainabot/ecopolicy/internal/predictor"
)

// Severity levels for policy violations and recommendations.
type Severity string

const (
	SeverityBlocking Severity = "blocking"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
	SeverityInfo     Severity = "info"
)

// Policy identifies one tier of the compliance ladder, ordered from most to
// least severe.
type Policy string

const (
	PolicyEcoMinimum      Policy = "eco_minimum"
	PolicyEcoStandard     Policy = "eco_standard"
	PolicyEcoExcellence   Policy = "eco_excellence"
	PolicyEconPareto      Policy = "econ_pareto"
	PolicyQualityBaseline Policy = "quality_baseline"
)

// Violation is one compliance finding. At most one is produced per entity
// per check: the first matching ladder tier wins.
type Violation struct {
	EntityID    string   `json:"entity_id"`
	Policy      Policy   `json:"policy"`
	Severity    Severity `json:"severity"`
	Message     string   `json:"message"`
	Suggestions []string `json:"suggestions,omitempty"`
}

// IsBlocking returns true for violations that should gate a change.
func (v Violation) IsBlocking() bool {
	return v.Severity == SeverityBlocking
}

// Recommendation is one ranked improvement proposal. Confidence is always
// derived from the predictor's output for the entity/action pair.
type Recommendation struct {
	EntityID            string             `json:"entity_id"`
	Action              predictor.Action   `json:"action"`
	Reason              string             `json:"reason"`
	Priority            Severity           `json:"priority"`
	Confidence          float64            `json:"confidence"`
	ExpectedImprovement map[string]float64 `json:"expected_improvement,omitempty"`
}

// EntitySignals is the probabilistic output for one entity.
type EntitySignals struct {
	CarbonProbability float64                      `json:"carbon_probability"`
	RefactorSuccess   map[predictor.Action]float64 `json:"refactor_success"`
}

// Degraded-signal names reported in AnalysisResult.Degraded.
const (
	SignalDeterministic = "deterministic"
)

// AnalysisResult carries both reasoning modes' outputs for one batch.
// Degraded lists signals that were unavailable; their fields are nil rather
// than empty so callers can distinguish "no findings" from "no signal".
type AnalysisResult struct {
	Deterministic map[string][][]string    `json:"deterministic,omitempty"`
	Probabilistic map[string]EntitySignals `json:"probabilistic"`
	Degraded      []string                 `json:"degraded,omitempty"`
}

// IsDegraded reports whether the named signal was unavailable for this run.
func (r AnalysisResult) IsDegraded(signal string) bool {
	for _, s := range r.Degraded {
		if s == signal {
			return true
		}
	}
	return false
}
