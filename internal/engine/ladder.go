package engine

import (
	"github.com/sustainabot/ecopolicy/internal/metrics"
)

// ladderRule is one tier of the compliance ladder.
type ladderRule struct {
	policy   Policy
	severity Severity
	message  string
	matches  func(metrics.Record) bool
}

// defaultLadder returns the ladder tiers in severity order. The two eco
// tiers are always present; the extended tiers are opt-in so the canonical
// two-tier behavior stays the default.
func defaultLadder(enabled map[Policy]bool) []ladderRule {
	ladder := []ladderRule{
		{
			policy:   PolicyEcoMinimum,
			severity: SeverityBlocking,
			message:  "Component does not meet eco minimum standards",
			matches: func(m metrics.Record) bool {
				return m.Carbon < 50 || m.Energy < 50
			},
		},
		{
			policy:   PolicyEcoStandard,
			severity: SeverityHigh,
			message:  "Component does not meet eco standard",
			matches: func(m metrics.Record) bool {
				return m.Carbon < 70 || m.Energy < 70
			},
		},
	}

	if enabled[PolicyEcoExcellence] {
		ladder = append(ladder, ladderRule{
			policy:   PolicyEcoExcellence,
			severity: SeverityMedium,
			message:  "Component falls short of eco excellence",
			matches: func(m metrics.Record) bool {
				return m.Carbon < 85 || m.Energy < 85
			},
		})
	}
	if enabled[PolicyEconPareto] {
		ladder = append(ladder, ladderRule{
			policy:   PolicyEconPareto,
			severity: SeverityMedium,
			message:  "Technical debt exceeds the pareto-efficient bound",
			matches: func(m metrics.Record) bool {
				return m.Debt < 40
			},
		})
	}
	if enabled[PolicyQualityBaseline] {
		ladder = append(ladder, ladderRule{
			policy:   PolicyQualityBaseline,
			severity: SeverityLow,
			message:  "Test coverage falls below the quality baseline",
			matches: func(m metrics.Record) bool {
				return m.Coverage < 50
			},
		})
	}

	return ladder
}

// firstMatch walks the ladder from most to least severe and returns the
// first matching tier, or nil when the entity passes every tier.
func firstMatch(ladder []ladderRule, m metrics.Record) *ladderRule {
	for i := range ladder {
		if ladder[i].matches(m) {
			return &ladder[i]
		}
	}
	return nil
}
