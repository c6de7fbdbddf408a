package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sustainabot/ecopolicy/internal/knowledge"
	"github.com/sustainabot/ecopolicy/internal/metrics"
)

// maxGraphSuggestions caps how many knowledge-graph practices are appended
// to one violation's suggestion list.
const maxGraphSuggestions = 3

var carbonSuggestions = []string{
	"Review algorithm complexity - consider more efficient alternatives",
	"Implement caching for repeated computations",
	"Use lazy evaluation where possible",
}

var energySuggestions = []string{
	"Replace polling with event-driven patterns",
	"Use connection pooling for external services",
	"Optimize I/O operations with batching",
}

// ecoSuggestions builds the suggestion list for one violating entity:
// deterministic suggestions keyed off which scores breached, then up to
// three best-practice fragments from the knowledge graph. A graph failure
// degrades to the deterministic subset and never blocks the violation.
func ecoSuggestions(ctx context.Context, graph knowledge.Graph, m metrics.Record) []string {
	var suggestions []string

	if m.Carbon < 50 {
		suggestions = append(suggestions, carbonSuggestions...)
	}
	if m.Energy < 50 {
		suggestions = append(suggestions, energySuggestions...)
	}

	if graph == nil {
		return suggestions
	}

	practices, err := graph.QueryBestPractices(ctx, "eco")
	if err != nil {
		slog.Warn("best practice lookup failed", "entity", m.EntityID, "error", err)
		return suggestions
	}
	for i, bp := range practices {
		if i >= maxGraphSuggestions {
			break
		}
		suggestions = append(suggestions, fmt.Sprintf("%s: %s", bp.Practice, bp.Description))
	}
	return suggestions
}
