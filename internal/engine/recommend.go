package engine

import (
	"sort"

	"github.com/sustainabot/ecopolicy/internal/metrics"
	"github.com/sustainabot/ecopolicy/internal/predictor"
)

// recommendTrigger produces zero or one recommendation for an entity from
// its metrics and probabilistic signals. Triggers are independent of the
// compliance ladder and of each other.
type recommendTrigger func(m metrics.Record, signals EntitySignals) (Recommendation, bool)

// recommendTriggers is the fixed trigger set in declaration order. The
// order matters: it is the final tie-break for equal-confidence
// recommendations.
var recommendTriggers = []recommendTrigger{
	// Threshold breach plus low predicted carbon risk means the breach is
	// safe to act on, so confidence is the inverse of the risk.
	func(m metrics.Record, signals EntitySignals) (Recommendation, bool) {
		if m.Carbon >= 60 {
			return Recommendation{}, false
		}
		return Recommendation{
			EntityID:            m.EntityID,
			Action:              predictor.ActionOptimizeCarbon,
			Reason:              "High carbon intensity detected",
			Priority:            SeverityHigh,
			Confidence:          1 - signals.CarbonProbability,
			ExpectedImprovement: map[string]float64{"carbon_score": 15},
		}, true
	},
	func(m metrics.Record, signals EntitySignals) (Recommendation, bool) {
		if m.Complexity >= 50 {
			return Recommendation{}, false
		}
		return Recommendation{
			EntityID:   m.EntityID,
			Action:     predictor.ActionReduceComplexity,
			Reason:     "High complexity impacts maintainability and energy",
			Priority:   SeverityMedium,
			Confidence: signals.RefactorSuccess[predictor.ActionReduceComplexity],
			ExpectedImprovement: map[string]float64{
				"complexity_score": 20,
				"energy_score":     5,
			},
		}, true
	},
}

// rankRecommendations applies every trigger to every entity in batch order
// and sorts the combined list by confidence descending. The sort is stable,
// so equal-confidence entries keep batch order then trigger order.
func rankRecommendations(records []metrics.Record, probabilistic map[string]EntitySignals) []Recommendation {
	var recommendations []Recommendation
	for _, m := range records {
		signals := probabilistic[m.EntityID]
		for _, trigger := range recommendTriggers {
			if rec, ok := trigger(m, signals); ok {
				recommendations = append(recommendations, rec)
			}
		}
	}

	sort.SliceStable(recommendations, func(i, j int) bool {
		return recommendations[i].Confidence > recommendations[j].Confidence
	})
	return recommendations
}
