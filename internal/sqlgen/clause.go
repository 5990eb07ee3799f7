package sqlgen

import (
	"fmt"
	"strings"

	"github.com/quality-measures/accelerator/internal/ums"
)

// lowerNode dispatches a clause-tree node to a SQL boolean predicate
// evaluated per-patient against cteName's population_id scope.
func (c *sqlCtx) lowerNode(node ums.ClauseNode, cteName string) (string, ums.IssueList, ums.IssueList) {
	switch n := node.(type) {
	case *ums.LogicalClause:
		return c.lowerClause(n, cteName)
	case *ums.DataElement:
		return c.lowerElement(n, cteName)
	default:
		return "1 = 0", nil, ums.IssueList{ums.Fatal("UNKNOWN_NODE", "unrecognized clause node type %T", node)}
	}
}

func (c *sqlCtx) lowerClause(clause *ums.LogicalClause, cteName string) (string, ums.IssueList, ums.IssueList) {
	var warnings, errs ums.IssueList

	if clause.Operator == ums.OpNOT {
		if len(clause.Children) != 1 {
			return "1 = 0", warnings, ums.IssueList{ums.Fatal("NOT_ARITY", "NOT clause %q must have exactly one child, has %d", clause.ID, len(clause.Children))}
		}
		inner, w, e := c.lowerNode(clause.Children[0], cteName)
		warnings = append(warnings, w...)
		errs = append(errs, e...)
		return fmt.Sprintf("not (%s)", inner), warnings, errs
	}

	if len(clause.Children) == 0 {
		return "1 = 1", warnings, errs
	}

	parts := make([]string, 0, len(clause.Children))
	for _, child := range clause.Children {
		p, w, e := c.lowerNode(child, cteName)
		warnings = append(warnings, w...)
		errs = append(errs, e...)
		parts = append(parts, p)
	}

	out := parts[0]
	for i := 1; i < len(parts); i++ {
		op := ums.OperatorBetween(clause, i)
		keyword := "and"
		if op == ums.OpOR {
			keyword = "or"
		}
		out = fmt.Sprintf("(%s %s (%s))", out, keyword, parts[i])
	}
	return out, warnings, errs
}

func unitName(u ums.TimeUnit) (string, int) {
	switch u {
	case ums.UnitYears:
		return "year", 1
	case ums.UnitMonths:
		return "month", 1
	case ums.UnitWeeks:
		return "day", 7
	case ums.UnitHours:
		return "hour", 1
	default:
		return "day", 1
	}
}

func joinAnd(parts ...string) string {
	var nonEmpty []string
	for _, p := range parts {
		if p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return strings.Join(nonEmpty, " and ")
}
