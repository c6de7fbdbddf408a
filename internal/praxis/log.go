package praxis

import (
	"fmt"
	"sync"
)

// Log is the append-only observation log. Appends are all-or-nothing: when a
// persistent store is attached, the row is written before the in-memory
// append, so a failed write never leaves a phantom entry. Reads may race
// with appends but never observe a partial observation.
type Log struct {
	mu      sync.Mutex
	entries []Observation
	store   *Store
}

// NewLog creates an in-memory observation log. store may be nil for a purely
// ephemeral log; when set, existing observations are loaded from it.
func NewLog(store *Store) (*Log, error) {
	l := &Log{store: store}
	if store != nil {
		entries, err := store.LoadAll()
		if err != nil {
			return nil, fmt.Errorf("load observation log: %w", err)
		}
		l.entries = entries
	}
	return l, nil
}

// Append validates and appends one observation.
func (l *Log) Append(o Observation) error {
	if err := o.Validate(); err != nil {
		return fmt.Errorf("append observation: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.store != nil {
		if err := l.store.Append(o); err != nil {
			return fmt.Errorf("persist observation: %w", err)
		}
	}
	l.entries = append(l.entries, o)
	return nil
}

// Len returns the number of logged observations.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// CountOutcome returns how many observations carry the given outcome.
func (l *Log) CountOutcome(outcome Outcome) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	n := 0
	for _, o := range l.entries {
		if o.Outcome == outcome {
			n++
		}
	}
	return n
}

// Snapshot returns a copy of the log entries in append order.
func (l *Log) Snapshot() []Observation {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Observation(nil), l.entries...)
}
