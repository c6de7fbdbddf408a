package knowledge

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// SQLiteGraph implements Graph using SQLite for persistence. It ships with a
// seeded set of eco best practices so a fresh database is immediately useful.
type SQLiteGraph struct {
	db *sql.DB
}

// NewSQLiteGraph creates a SQLite-backed knowledge graph. Pass ":memory:"
// for an ephemeral store.
func NewSQLiteGraph(basePath string) (*SQLiteGraph, error) {
	var dbPath string
	if basePath == ":memory:" {
		dbPath = ":memory:"
	} else {
		dbPath = filepath.Join(basePath, "knowledge.db")
		if err := os.MkdirAll(basePath, 0755); err != nil {
			return nil, fmt.Errorf("create knowledge directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	g := &SQLiteGraph{db: db}
	if err := g.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	if err := g.seed(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("seed best practices: %w", err)
	}
	return g, nil
}

func (g *SQLiteGraph) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS best_practices (
		id TEXT PRIMARY KEY,
		domain TEXT NOT NULL,
		practice TEXT NOT NULL,
		description TEXT NOT NULL,
		impact REAL NOT NULL DEFAULT 0
	);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_practices_domain_name
		ON best_practices(domain, practice);

	CREATE TABLE IF NOT EXISTS analyses (
		id TEXT PRIMARY KEY,
		entity_id TEXT NOT NULL,
		kind TEXT NOT NULL,
		action TEXT,
		outcome TEXT,
		recorded_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_analyses_entity ON analyses(entity_id);
	CREATE INDEX IF NOT EXISTS idx_analyses_action ON analyses(action);
	`
	if _, err := g.db.Exec(schema); err != nil {
		return fmt.Errorf("create tables: %w", err)
	}
	return nil
}

// seed inserts the stock eco practices if they are not already present.
func (g *SQLiteGraph) seed() error {
	stock := []BestPractice{
		{Practice: "Use connection pooling", Description: "Reuse database connections instead of creating new ones", Impact: 0.15},
		{Practice: "Implement caching", Description: "Cache expensive computations", Impact: 0.20},
		{Practice: "Batch I/O operations", Description: "Amortize syscall and network overhead across writes", Impact: 0.12},
		{Practice: "Prefer event-driven patterns", Description: "Replace busy polling with notifications", Impact: 0.18},
	}
	for _, bp := range stock {
		_, err := g.db.Exec(
			`INSERT OR IGNORE INTO best_practices (id, domain, practice, description, impact) VALUES (?, 'eco', ?, ?, ?)`,
			uuid.New().String(), bp.Practice, bp.Description, bp.Impact,
		)
		if err != nil {
			return fmt.Errorf("insert practice %q: %w", bp.Practice, err)
		}
	}
	return nil
}

// QueryBestPractices returns practices for a domain ordered by impact
// descending.
func (g *SQLiteGraph) QueryBestPractices(ctx context.Context, domain string) ([]BestPractice, error) {
	rows, err := g.db.QueryContext(ctx,
		`SELECT practice, description, impact FROM best_practices WHERE domain = ? ORDER BY impact DESC, practice ASC`,
		domain,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: query best practices: %v", ErrGraphUnavailable, err)
	}
	defer func() { _ = rows.Close() }()

	var practices []BestPractice
	for rows.Next() {
		var bp BestPractice
		if err := rows.Scan(&bp.Practice, &bp.Description, &bp.Impact); err != nil {
			return nil, fmt.Errorf("%w: scan best practice: %v", ErrGraphUnavailable, err)
		}
		practices = append(practices, bp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate best practices: %v", ErrGraphUnavailable, err)
	}
	return practices, nil
}

// StoreAnalysis records an analysis result against an entity.
func (g *SQLiteGraph) StoreAnalysis(ctx context.Context, entityID string, record AnalysisRecord) error {
	if record.RecordedAt.IsZero() {
		record.RecordedAt = time.Now().UTC()
	}
	_, err := g.db.ExecContext(ctx,
		`INSERT INTO analyses (id, entity_id, kind, action, outcome, recorded_at) VALUES (?, ?, ?, ?, ?, ?)`,
		uuid.New().String(), entityID, record.Kind,
		nullString(record.Action), nullString(record.Outcome),
		record.RecordedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("%w: insert analysis: %v", ErrGraphUnavailable, err)
	}
	return nil
}

// QuerySimilar lists other entities whose recorded actions overlap with the
// given entity's, most recently touched first.
func (g *SQLiteGraph) QuerySimilar(ctx context.Context, entityID string) ([]string, error) {
	rows, err := g.db.QueryContext(ctx, `
		SELECT DISTINCT a.entity_id
		FROM analyses a
		WHERE a.action IN (SELECT action FROM analyses WHERE entity_id = ? AND action IS NOT NULL)
		  AND a.entity_id != ?
		ORDER BY a.recorded_at DESC
		LIMIT 10`,
		entityID, entityID,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: query similar entities: %v", ErrGraphUnavailable, err)
	}
	defer func() { _ = rows.Close() }()

	var similar []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("%w: scan similar entity: %v", ErrGraphUnavailable, err)
		}
		similar = append(similar, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate similar entities: %v", ErrGraphUnavailable, err)
	}
	return similar, nil
}

// Close closes the underlying database.
func (g *SQLiteGraph) Close() error {
	return g.db.Close()
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
