// Package knowledge provides the knowledge-graph boundary: best-practice
// lookups that enrich violation messages, and fire-and-forget analysis
// records fed back by the praxis loop. Failures here are always non-fatal
// upstream; they degrade suggestion richness, never block a finding.
package knowledge

import (
	"context"
	"errors"
	"time"
)

// ErrGraphUnavailable reports that the knowledge backend could not serve a
// query. Callers degrade rather than fail.
var ErrGraphUnavailable = errors.New("knowledge graph unavailable")

// BestPractice is one practice fragment used to enrich suggestions.
type BestPractice struct {
	Practice    string  `json:"practice"`
	Description string  `json:"description"`
	Impact      float64 `json:"impact"`
}

// AnalysisRecord is a structured record stored against an entity.
type AnalysisRecord struct {
	Kind       string    `json:"kind"`
	Action     string    `json:"action,omitempty"`
	Outcome    string    `json:"outcome,omitempty"`
	RecordedAt time.Time `json:"recorded_at"`
}

// Graph is the knowledge-graph boundary consumed by the engine.
type Graph interface {
	// QueryBestPractices returns practice fragments for a domain, ordered
	// by impact descending.
	QueryBestPractices(ctx context.Context, domain string) ([]BestPractice, error)

	// StoreAnalysis records an analysis result against an entity.
	// Callers treat it as fire-and-forget.
	StoreAnalysis(ctx context.Context, entityID string, record AnalysisRecord) error

	// QuerySimilar lists entities whose recorded actions overlap with the
	// given entity's.
	QuerySimilar(ctx context.Context, entityID string) ([]string, error)
}
