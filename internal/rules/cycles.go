// Package rules detects cycles in the component library's reference graph
// using a small Datalog program evaluated by google/mangle. Scoped
// deliberately narrow — two predicates, child/2 and reachable/2 — rather
// than a general rule engine; the patient evaluator's clause semantics are
// implemented directly in Go (internal/evaluator), not as Datalog.
package rules

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/google/mangle/analysis"
	"github.com/google/mangle/ast"
	_ "github.com/google/mangle/builtin"
	mengine "github.com/google/mangle/engine"
	"github.com/google/mangle/factstore"
	_ "github.com/google/mangle/packages"
	"github.com/google/mangle/parse"
)

const cycleSchema = `
child(X, Y).
reachable(X, Y) :- child(X, Y).
reachable(X, Z) :- child(X, Y), reachable(Y, Z).
`

// Graph evaluates reachability over a component reference DAG and rejects
// edges that would introduce a cycle (spec §4.6: composite components form
// a DAG; a cyclic reference is a Fatal error at write time).
type Graph struct {
	mu          sync.Mutex
	store       factstore.FactStoreWithRemove
	programInfo *analysis.ProgramInfo
	queryCtx    *mengine.QueryContext
	childSym    ast.PredicateSym
	reachSym    ast.PredicateSym
}

// NewGraph builds an empty reference graph.
func NewGraph() (*Graph, error) {
	unit, err := parse.Unit(bytes.NewReader([]byte(cycleSchema)))
	if err != nil {
		return nil, fmt.Errorf("parsing cycle-detection schema: %w", err)
	}

	programInfo, err := analysis.AnalyzeOneUnit(parse.SourceUnit{Clauses: unit.Clauses, Decls: unit.Decls}, nil)
	if err != nil {
		return nil, fmt.Errorf("analyzing cycle-detection schema: %w", err)
	}

	store := factstore.NewSimpleInMemoryStore()

	var childSym, reachSym ast.PredicateSym
	for sym := range programInfo.Decls {
		switch sym.Symbol {
		case "child":
			childSym = sym
		case "reachable":
			reachSym = sym
		}
	}

	predToRules := make(map[ast.PredicateSym][]ast.Clause)
	for _, clause := range programInfo.Rules {
		predToRules[clause.Head.Predicate] = append(predToRules[clause.Head.Predicate], clause)
	}

	queryCtx := &mengine.QueryContext{
		PredToRules: predToRules,
		PredToDecl:  programInfo.Decls,
		Store:       store,
	}

	return &Graph{
		store:       store,
		programInfo: programInfo,
		queryCtx:    queryCtx,
		childSym:    childSym,
		reachSym:    reachSym,
	}, nil
}

// WouldCycle reports whether adding the edge parent -> child would create
// a cycle, i.e. child can already reach parent.
func (g *Graph) WouldCycle(parent, child string) (bool, error) {
	if parent == child {
		return true, nil
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if _, err := mengine.EvalProgramWithStats(g.programInfo, g.store); err != nil {
		return false, fmt.Errorf("evaluating reachability: %w", err)
	}

	found := false
	err := g.store.GetFacts(ast.NewQuery(g.reachSym), func(fact ast.Atom) error {
		if len(fact.Args) != 2 {
			return nil
		}
		from, ok1 := fact.Args[0].(ast.Constant)
		to, ok2 := fact.Args[1].(ast.Constant)
		if ok1 && ok2 && from.Symbol == child && to.Symbol == parent {
			found = true
		}
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("querying reachability: %w", err)
	}
	return found, nil
}

// AddEdge records a parent -> child reference. Callers must call
// WouldCycle first and refuse to add an edge that would create one.
func (g *Graph) AddEdge(parent, child string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	atom := ast.Atom{
		Predicate: g.childSym,
		Args:      []ast.BaseTerm{ast.String(parent), ast.String(child)},
	}
	g.store.Add(atom)

	_, err := mengine.EvalProgramWithStats(g.programInfo, g.store)
	if err != nil {
		return fmt.Errorf("evaluating reachability after edge insert: %w", err)
	}
	return nil
}

// RemoveEdge drops a previously added parent -> child reference (used when
// a composite component's reference list is edited).
func (g *Graph) RemoveEdge(parent, child string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	atom := ast.Atom{
		Predicate: g.childSym,
		Args:      []ast.BaseTerm{ast.String(parent), ast.String(child)},
	}
	g.store.Remove(atom)

	// Drop the derived reachable facts too; WouldCycle re-derives them from
	// the remaining child edges.
	var derived []ast.Atom
	_ = g.store.GetFacts(ast.NewQuery(g.reachSym), func(fact ast.Atom) error {
		derived = append(derived, fact)
		return nil
	})
	for _, fact := range derived {
		g.store.Remove(fact)
	}
}
