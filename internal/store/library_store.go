package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/quality-measures/accelerator/internal/component"
	"github.com/quality-measures/accelerator/internal/ums"
)

// LibraryStore persists component.Component records (spec §6.5). It is the
// durability layer behind an in-memory component.Library: callers load
// every row at startup into a Library, perform writes against the Library
// (which enforces identity/workflow/cycle invariants), then persist the
// mutated Component back through Save.
type LibraryStore struct {
	db  *sql.DB
	mu  sync.RWMutex
	log *zap.SugaredLogger
}

// componentDocument is the JSON-serializable projection of a
// component.Component, since Component.Node is a ums.ClauseNode interface
// that needs the tagged-envelope codec rather than plain json.Marshal.
type componentDocument struct {
	ID                   string                  `json:"id"`
	Name                 string                  `json:"name"`
	Category             component.Category      `json:"category"`
	CategoryAutoAssigned bool                    `json:"categoryAutoAssigned"`
	Node                 json.RawMessage         `json:"node"`
	References           []string                `json:"references,omitempty"`
	Versions             []component.Version     `json:"versions"`
	Usage                component.Usage         `json:"usage"`
	History              []component.HistoryEntry `json:"history,omitempty"`
	CreatedAt            time.Time               `json:"createdAt"`
	UpdatedAt            time.Time               `json:"updatedAt"`
}

func NewLibraryStore(path string, log *zap.SugaredLogger) (*LibraryStore, error) {
	db, err := openDB(path, log)
	if err != nil {
		return nil, err
	}
	s := &LibraryStore{db: db, log: log}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *LibraryStore) migrate() error {
	_, err := s.db.Exec(`
		create table if not exists components (
			component_id text primary key,
			category text not null,
			document text not null,
			updated_at text not null
		);
		create index if not exists idx_components_category on components(category);
	`)
	if err != nil {
		return fmt.Errorf("migrating library store schema: %w", err)
	}
	return nil
}

func toDocument(c *component.Component) (componentDocument, error) {
	nodeJSON, err := ums.EncodeNode(c.Node)
	if err != nil {
		return componentDocument{}, fmt.Errorf("encoding component %s content: %w", c.ID, err)
	}
	return componentDocument{
		ID:                   c.ID,
		Name:                 c.Name,
		Category:             c.Category,
		CategoryAutoAssigned: c.CategoryAutoAssigned,
		Node:                 nodeJSON,
		References:           c.References,
		Versions:             c.Versions,
		Usage:                c.Usage,
		History:              c.History,
		CreatedAt:            c.CreatedAt,
		UpdatedAt:            c.UpdatedAt,
	}, nil
}

func fromDocument(doc componentDocument) (*component.Component, error) {
	node, err := ums.DecodeNode(doc.Node)
	if err != nil {
		return nil, fmt.Errorf("decoding component %s content: %w", doc.ID, err)
	}
	c := &component.Component{
		ID:                   doc.ID,
		Name:                 doc.Name,
		Category:             doc.Category,
		CategoryAutoAssigned: doc.CategoryAutoAssigned,
		Node:                 node,
		References:           doc.References,
		Versions:             doc.Versions,
		Usage:                doc.Usage,
		History:              doc.History,
		CreatedAt:            doc.CreatedAt,
		UpdatedAt:            doc.UpdatedAt,
	}
	return c, nil
}

// Save upserts a component record.
func (s *LibraryStore) Save(c *component.Component) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := toDocument(c)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encoding component document %s: %w", c.ID, err)
	}

	_, err = s.db.Exec(`
		insert into components (component_id, category, document, updated_at)
		values (?, ?, ?, ?)
		on conflict(component_id) do update set
			category = excluded.category,
			document = excluded.document,
			updated_at = excluded.updated_at
	`, c.ID, string(c.Category), string(raw), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("storing component %s: %w", c.ID, err)
	}

	s.log.Debugw("stored component", "componentId", c.ID)
	return nil
}

// FindByID loads a single component by ID, or nil if it does not exist.
func (s *LibraryStore) FindByID(id string) (*component.Component, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var raw string
	err := s.db.QueryRow(`select document from components where component_id = ?`, id).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetching component %s: %w", id, err)
	}

	var doc componentDocument
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, fmt.Errorf("decoding component document %s: %w", id, err)
	}
	return fromDocument(doc)
}

// All loads every stored component, used to populate an in-memory
// component.Library at startup.
func (s *LibraryStore) All() ([]*component.Component, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`select document from components order by component_id`)
	if err != nil {
		return nil, fmt.Errorf("listing components: %w", err)
	}
	defer rows.Close()

	var out []*component.Component
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scanning component row: %w", err)
		}
		var doc componentDocument
		if err := json.Unmarshal([]byte(raw), &doc); err != nil {
			return nil, fmt.Errorf("decoding component document: %w", err)
		}
		c, err := fromDocument(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Close releases the underlying database connection.
func (s *LibraryStore) Close() error {
	return s.db.Close()
}
