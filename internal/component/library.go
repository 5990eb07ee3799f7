package component

import (
	"fmt"
	"sync"
	"time"

	"github.com/quality-measures/accelerator/internal/rules"
	"github.com/quality-measures/accelerator/internal/ums"
)

// ExactMatchThreshold is the default findSimilarComponents cutoff (spec
// §4.6).
const ExactMatchThreshold = 0.5

// Library is the in-memory component catalog: a map of components plus the
// reference DAG used to reject cyclic composites. A store package
// (internal/store) is responsible for persistence; Library itself only
// enforces the identity and workflow invariants.
type Library struct {
	mu         sync.RWMutex
	components map[string]*Component
	graph      *rules.Graph
}

func NewLibrary() (*Library, error) {
	g, err := rules.NewGraph()
	if err != nil {
		return nil, fmt.Errorf("building component reference graph: %w", err)
	}
	return &Library{
		components: make(map[string]*Component),
		graph:      g,
	}, nil
}

// LoadAll populates the library from a set of already-validated components
// (as read back from persistent storage), rebuilding the reference graph
// edges without re-running cycle detection — the stored set is assumed
// acyclic since it was validated on write.
func (l *Library) LoadAll(components []*Component) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, c := range components {
		l.components[c.ID] = c
	}
	for _, c := range components {
		for _, ref := range c.References {
			if err := l.graph.AddEdge(c.ID, ref); err != nil {
				return fmt.Errorf("rebuilding reference graph for %s: %w", c.ID, err)
			}
		}
	}
	return nil
}

func (l *Library) Get(id string) (*Component, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	c, ok := l.components[id]
	return c, ok
}

func (l *Library) All() []*Component {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.allLocked()
}

func (l *Library) allLocked() []*Component {
	out := make([]*Component, 0, len(l.components))
	for _, c := range l.components {
		out = append(out, c)
	}
	return out
}

// FindExactMatch reports the library component whose latest version's
// content hash equals node's, or nil.
func (l *Library) FindExactMatch(node ums.ClauseNode) (*Component, error) {
	hash, err := generateHash(node)
	if err != nil {
		return nil, err
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	return findExactMatch(hash, l.allLocked()), nil
}

// FindNameMatch is the OID-absent fallback described in spec §4.6.
func (l *Library) FindNameMatch(node ums.ClauseNode) *Component {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return findNameMatch(node, l.allLocked())
}

// FindSimilarComponents scores every library component against node and
// returns those at or above threshold, sorted descending, excluding exact
// hash matches.
func (l *Library) FindSimilarComponents(node ums.ClauseNode, threshold float64) ([]SimilarityMatch, error) {
	hash, err := generateHash(node)
	if err != nil {
		return nil, err
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	return findSimilarComponents(node, hash, l.allLocked(), threshold), nil
}

// Diff computes the field-level differences between a library component's
// current content and an incoming node.
func (l *Library) Diff(existingID string, incoming ums.ClauseNode) ([]Diff, error) {
	l.mu.RLock()
	existing, ok := l.components[existingID]
	l.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("component %s not found", existingID)
	}
	return computeComponentDiff(existing.Node, incoming), nil
}

// Create registers a brand-new atomic or composite component as a draft.
// For a composite, references must already exist in the library and must
// not introduce a reference cycle.
func (l *Library) Create(id, name string, node ums.ClauseNode, references []string, createdBy string, now time.Time) (*Component, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.components[id]; exists {
		return nil, fmt.Errorf("component %s already exists", id)
	}

	for _, ref := range references {
		if _, ok := l.components[ref]; !ok {
			return nil, fmt.Errorf("component %s references unknown component %s", id, ref)
		}
		cycle, err := l.graph.WouldCycle(id, ref)
		if err != nil {
			return nil, err
		}
		if cycle {
			return nil, fmt.Errorf("reference %s -> %s would create a cycle", id, ref)
		}
	}

	c := &Component{
		ID:                   id,
		Name:                 name,
		CategoryAutoAssigned: true,
		References:           references,
		CreatedAt:            now,
	}
	if err := createVersion(c, node, createdBy, "initial version", now); err != nil {
		return nil, err
	}

	for _, ref := range references {
		if err := l.graph.AddEdge(id, ref); err != nil {
			return nil, err
		}
	}

	l.components[id] = c
	return c, nil
}

// CreateVersion appends a new draft version to an existing component,
// replacing its references and re-validating the reference DAG.
func (l *Library) CreateVersion(id string, node ums.ClauseNode, references []string, createdBy, changeDescription string, now time.Time) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	c, ok := l.components[id]
	if !ok {
		return fmt.Errorf("component %s not found", id)
	}

	for _, ref := range references {
		if _, ok := l.components[ref]; !ok {
			return fmt.Errorf("component %s references unknown component %s", id, ref)
		}
		cycle, err := l.graph.WouldCycle(id, ref)
		if err != nil {
			return err
		}
		if cycle {
			return fmt.Errorf("reference %s -> %s would create a cycle", id, ref)
		}
	}

	for _, old := range c.References {
		l.graph.RemoveEdge(id, old)
	}
	for _, ref := range references {
		if err := l.graph.AddEdge(id, ref); err != nil {
			return err
		}
	}
	c.References = references

	return createVersion(c, node, createdBy, changeDescription, now)
}

func (l *Library) Approve(id, approvedBy string, now time.Time) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	c, ok := l.components[id]
	if !ok {
		return fmt.Errorf("component %s not found", id)
	}
	return approve(c, approvedBy, now)
}

func (l *Library) Archive(id, archivedBy string, now time.Time) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	c, ok := l.components[id]
	if !ok {
		return fmt.Errorf("component %s not found", id)
	}
	return archive(c, archivedBy, now)
}

// ValidateMeasureComponents checks a set of component IDs referenced by
// measureID against the library, warning when a referenced component is
// draft while an approved component shares its value-set OID, when the
// reference is unresolved, or when the component is archived (spec §4.6).
// Every component that does resolve has its cross-measure Usage updated
// (spec §3.2), regardless of workflow status.
func (l *Library) ValidateMeasureComponents(measureID string, referencedIDs []string, now time.Time) ums.IssueList {
	l.mu.Lock()
	defer l.mu.Unlock()

	var issues ums.IssueList
	for _, id := range referencedIDs {
		c, ok := l.components[id]
		if !ok {
			issues = append(issues, ums.Recoverable("UNRESOLVED_COMPONENT_REF", "referenced component %q does not exist in the library", id))
			continue
		}
		c.Usage.recordUsage(measureID, now)

		v := c.Latest()
		switch v.Status {
		case StatusArchived:
			issues = append(issues, ums.Recoverable("ARCHIVED_COMPONENT_REF", "referenced component %q (%s) is archived", id, c.Name))
		case StatusDraft:
			if oid := valueSetOID(asDataElement(c.Node)); oid != "" {
				if approved := l.findApprovedWithOID(oid, id); approved != nil {
					issues = append(issues, ums.Recoverable("DRAFT_COMPONENT_HAS_APPROVED_ALTERNATIVE",
						"referenced component %q is draft, but approved component %q shares value-set OID %s", id, approved.ID, oid))
				}
			}
		}
	}
	return issues
}

func (l *Library) findApprovedWithOID(oid, excludeID string) *Component {
	for id, c := range l.components {
		if id == excludeID {
			continue
		}
		if c.ApprovedVersion() == nil {
			continue
		}
		if valueSetOID(asDataElement(c.Node)) == oid {
			return c
		}
	}
	return nil
}

func asDataElement(node ums.ClauseNode) *ums.DataElement {
	de, _ := node.(*ums.DataElement)
	return de
}
