package praxis

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/sustainabot/ecopolicy/internal/predictor"
)

// Store persists praxis observations. The table is append-only: rows are
// inserted and read, never updated or deleted by this package.
type Store struct {
	db *sql.DB
}

// NewStore creates a SQLite-backed observation store. Pass ":memory:" for an
// ephemeral store.
func NewStore(basePath string) (*Store, error) {
	var dbPath string
	if basePath == ":memory:" {
		dbPath = ":memory:"
	} else {
		dbPath = filepath.Join(basePath, "praxis.db")
		if err := os.MkdirAll(basePath, 0755); err != nil {
			return nil, fmt.Errorf("create praxis directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return s, nil
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS praxis_observations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		observation_id TEXT NOT NULL UNIQUE,
		entity_id TEXT NOT NULL,
		action_taken TEXT NOT NULL,
		before_json TEXT NOT NULL,
		after_json TEXT NOT NULL,
		outcome TEXT NOT NULL,
		recorded_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_observations_outcome ON praxis_observations(outcome);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("create tables: %w", err)
	}
	return nil
}

// Append inserts one observation. The insert is a single statement, so a
// concurrent reader sees either the whole row or nothing.
func (s *Store) Append(o Observation) error {
	before, err := json.Marshal(o.Before)
	if err != nil {
		return fmt.Errorf("marshal metrics_before: %w", err)
	}
	after, err := json.Marshal(o.After)
	if err != nil {
		return fmt.Errorf("marshal metrics_after: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO praxis_observations
			(observation_id, entity_id, action_taken, before_json, after_json, outcome, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		uuid.New().String(), o.EntityID, string(o.ActionTaken),
		string(before), string(after), string(o.Outcome),
		o.RecordedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("insert observation: %w", err)
	}
	return nil
}

// LoadAll returns every stored observation in append order.
func (s *Store) LoadAll() ([]Observation, error) {
	rows, err := s.db.Query(`
		SELECT entity_id, action_taken, before_json, after_json, outcome, recorded_at
		FROM praxis_observations ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("query observations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var observations []Observation
	for rows.Next() {
		var (
			o                  Observation
			action             string
			before, after      string
			outcome, timestamp string
		)
		if err := rows.Scan(&o.EntityID, &action, &before, &after, &outcome, &timestamp); err != nil {
			return nil, fmt.Errorf("scan observation: %w", err)
		}
		o.ActionTaken = predictor.Action(action)
		o.Outcome = Outcome(outcome)
		if err := json.Unmarshal([]byte(before), &o.Before); err != nil {
			return nil, fmt.Errorf("decode metrics_before: %w", err)
		}
		if err := json.Unmarshal([]byte(after), &o.After); err != nil {
			return nil, fmt.Errorf("decode metrics_after: %w", err)
		}
		if t, err := time.Parse(time.RFC3339, timestamp); err == nil {
			o.RecordedAt = t
		}
		observations = append(observations, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate observations: %w", err)
	}
	return observations, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
