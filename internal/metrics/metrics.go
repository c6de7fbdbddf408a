// Package metrics defines the per-entity metric snapshot that every part of
// the policy engine consumes. A Record is constructed once by the caller and
// never mutated; the engine treats the batch it receives as read-only.
package metrics

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// validate is a single Validate instance; it caches struct info.
var validate = validator.New()

// Record holds the sustainability and economic scores for one code entity.
// All scores are on a 0-100 scale. Complexity follows the "higher is better"
// convention: a high complexity score means a low complexity burden.
type Record struct {
	EntityID   string  `json:"entity_id" yaml:"entity_id" validate:"required"`
	Carbon     float64 `json:"carbon_score" yaml:"carbon_score" validate:"min=0,max=100"`
	Energy     float64 `json:"energy_score" yaml:"energy_score" validate:"min=0,max=100"`
	Complexity float64 `json:"complexity_score" yaml:"complexity_score" validate:"min=0,max=100"`
	Coverage   float64 `json:"coverage_score" yaml:"coverage_score" validate:"min=0,max=100"`
	Debt       float64 `json:"debt_score" yaml:"debt_score" validate:"min=0,max=100"`
}

// Validate checks that the record is complete and every score is in range.
func (r Record) Validate() error {
	if err := validate.Struct(r); err != nil {
		return fmt.Errorf("invalid metric record %q: %w", r.EntityID, err)
	}
	return nil
}

// ValidateBatch validates every record and rejects duplicate entity IDs.
// Duplicate IDs within one batch are a caller error, not a degraded mode.
func ValidateBatch(records []Record) error {
	seen := make(map[string]struct{}, len(records))
	for _, r := range records {
		if err := r.Validate(); err != nil {
			return err
		}
		if _, dup := seen[r.EntityID]; dup {
			return fmt.Errorf("duplicate entity_id %q in batch", r.EntityID)
		}
		seen[r.EntityID] = struct{}{}
	}
	return nil
}

// FeatureCount is the fixed length of the predictor feature vector.
const FeatureCount = 4

// Features encodes a record as the fixed-order feature vector expected by
// the probabilistic predictor: complexity, carbon, energy, coverage.
func Features(r Record) []float64 {
	return []float64{r.Complexity, r.Carbon, r.Energy, r.Coverage}
}
