package metrics

import (
	"testing"
)

func validRecord(id string) Record {
	return Record{
		EntityID:   id,
		Carbon:     80,
		Energy:     85,
		Complexity: 75,
		Coverage:   90,
		Debt:       80,
	}
}

func TestRecord_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Record)
		wantErr bool
	}{
		{"valid", func(r *Record) {}, false},
		{"zero scores are valid", func(r *Record) { r.Carbon = 0 }, false},
		{"max scores are valid", func(r *Record) { r.Energy = 100 }, false},
		{"missing entity id", func(r *Record) { r.EntityID = "" }, true},
		{"negative score", func(r *Record) { r.Coverage = -1 }, true},
		{"score above range", func(r *Record) { r.Debt = 100.5 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := validRecord("src/handler.go")
			tt.mutate(&r)
			err := r.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateBatch_DuplicateIDs(t *testing.T) {
	batch := []Record{validRecord("a"), validRecord("b"), validRecord("a")}
	if err := ValidateBatch(batch); err == nil {
		t.Fatal("ValidateBatch() accepted duplicate entity_id")
	}

	if err := ValidateBatch([]Record{validRecord("a"), validRecord("b")}); err != nil {
		t.Fatalf("ValidateBatch() error = %v", err)
	}
}

func TestFeatures_Order(t *testing.T) {
	r := Record{EntityID: "a", Carbon: 10, Energy: 20, Complexity: 30, Coverage: 40, Debt: 50}
	got := Features(r)

	want := []float64{30, 10, 20, 40} // complexity, carbon, energy, coverage
	if len(got) != FeatureCount {
		t.Fatalf("Features() length = %d, want %d", len(got), FeatureCount)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Features()[%d] = %g, want %g", i, got[i], want[i])
		}
	}
}
