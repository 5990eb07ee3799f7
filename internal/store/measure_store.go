// Package store is the embedded SQLite persistence layer behind the
// measure store (spec §6.1) and the component library store (spec §6.5).
// Connection management follows the teacher's pattern: a single
// serialized writer connection, WAL journaling, and a busy timeout rather
// than connection-pool contention.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/quality-measures/accelerator/internal/ums"
)

// MeasureStore persists Measure documents keyed by measure ID (spec §6.1:
// idempotent put, strongly consistent get within a process).
type MeasureStore struct {
	db  *sql.DB
	mu  sync.RWMutex
	log *zap.SugaredLogger
}

// MeasureSummary is the lightweight listing row returned by List.
type MeasureSummary struct {
	MeasureID string `json:"measureId"`
	Title     string `json:"title"`
	Version   string `json:"version"`
	Program   string `json:"program"`
	UpdatedAt string `json:"updatedAt"`
}

func openDB(path string, log *zap.SugaredLogger) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening database at %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			log.Debugw("pragma failed", "pragma", pragma, "err", err)
		}
	}
	return db, nil
}

// NewMeasureStore opens (creating if necessary) a SQLite-backed measure
// store at path.
func NewMeasureStore(path string, log *zap.SugaredLogger) (*MeasureStore, error) {
	db, err := openDB(path, log)
	if err != nil {
		return nil, err
	}
	s := &MeasureStore{db: db, log: log}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *MeasureStore) migrate() error {
	_, err := s.db.Exec(`
		create table if not exists measures (
			measure_id text primary key,
			title text not null,
			version text not null,
			program text not null,
			document text not null,
			updated_at text not null
		);
		create index if not exists idx_measures_program on measures(program);
	`)
	if err != nil {
		return fmt.Errorf("migrating measure store schema: %w", err)
	}
	return nil
}

// Get returns the measure with the given ID, or nil if none exists.
func (s *MeasureStore) Get(measureID string) (*ums.Measure, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var doc string
	err := s.db.QueryRow(`select document from measures where measure_id = ?`, measureID).Scan(&doc)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetching measure %s: %w", measureID, err)
	}

	var m ums.Measure
	if err := json.Unmarshal([]byte(doc), &m); err != nil {
		return nil, fmt.Errorf("decoding measure %s: %w", measureID, err)
	}
	return &m, nil
}

// Put idempotently inserts or replaces a measure document.
func (s *MeasureStore) Put(m *ums.Measure) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("encoding measure %s: %w", m.Metadata.MeasureID, err)
	}

	_, err = s.db.Exec(`
		insert into measures (measure_id, title, version, program, document, updated_at)
		values (?, ?, ?, ?, ?, ?)
		on conflict(measure_id) do update set
			title = excluded.title,
			version = excluded.version,
			program = excluded.program,
			document = excluded.document,
			updated_at = excluded.updated_at
	`, m.Metadata.MeasureID, m.Metadata.Title, m.Metadata.Version, m.Metadata.Program, string(doc), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return "", fmt.Errorf("storing measure %s: %w", m.Metadata.MeasureID, err)
	}

	s.log.Debugw("stored measure", "measureId", m.Metadata.MeasureID)
	return m.Metadata.MeasureID, nil
}

// List returns summaries of every stored measure, optionally filtered by
// program ("" means no filter).
func (s *MeasureStore) List(programFilter string) ([]MeasureSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `select measure_id, title, version, program, updated_at from measures`
	args := []interface{}{}
	if programFilter != "" {
		query += ` where program = ?`
		args = append(args, programFilter)
	}
	query += ` order by measure_id`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing measures: %w", err)
	}
	defer rows.Close()

	var out []MeasureSummary
	for rows.Next() {
		var summary MeasureSummary
		if err := rows.Scan(&summary.MeasureID, &summary.Title, &summary.Version, &summary.Program, &summary.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning measure summary: %w", err)
		}
		out = append(out, summary)
	}
	return out, rows.Err()
}

// Close releases the underlying database connection.
func (s *MeasureStore) Close() error {
	return s.db.Close()
}
