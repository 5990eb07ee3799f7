package cqlgen

import (
	"fmt"
	"strings"

	"github.com/quality-measures/accelerator/internal/ums"
)

// lowerCtx carries the measure and value-set/direct-code name lookups
// through clause and element lowering.
type lowerCtx struct {
	measure         *ums.Measure
	valueSetNames   map[*ums.ValueSetReference]string
	directCodeNames map[string]string
}

func (c *lowerCtx) lowerPopulation(p *ums.Population) (string, ums.IssueList, ums.IssueList) {
	if p.Criteria == nil {
		return "true", nil, nil
	}
	return c.lowerNode(p.Criteria)
}

func (c *lowerCtx) lowerNode(node ums.ClauseNode) (string, ums.IssueList, ums.IssueList) {
	switch n := node.(type) {
	case *ums.LogicalClause:
		return c.lowerClause(n)
	case *ums.DataElement:
		return c.lowerElement(n)
	default:
		return "true", nil, ums.IssueList{ums.Fatal("UNKNOWN_NODE", "unrecognized clause node")}
	}
}

// lowerClause implements the AND/OR/NOT lowering rule, including mixed
// sibling-connection operators, left-associative with explicit
// parenthesization (spec §4.2).
func (c *lowerCtx) lowerClause(clause *ums.LogicalClause) (string, ums.IssueList, ums.IssueList) {
	var warnings, errs ums.IssueList

	if clause.Operator == ums.OpNOT {
		if len(clause.Children) != 1 {
			errs = append(errs, ums.Fatal("NOT_ARITY", "NOT clause %q must have exactly one child", clause.ID))
			return "true", warnings, errs
		}
		childExpr, w, e := c.lowerNode(clause.Children[0])
		warnings = append(warnings, w...)
		errs = append(errs, e...)
		return fmt.Sprintf("not (%s)", childExpr), warnings, errs
	}

	if len(clause.Children) == 0 {
		return "true", warnings, errs
	}

	first, w, e := c.lowerNode(clause.Children[0])
	warnings = append(warnings, w...)
	errs = append(errs, e...)
	expr := fmt.Sprintf("(%s)", first)

	for i := 1; i < len(clause.Children); i++ {
		childExpr, w, e := c.lowerNode(clause.Children[i])
		warnings = append(warnings, w...)
		errs = append(errs, e...)
		op := ums.OperatorBetween(clause, i)
		keyword := "and"
		if op == ums.OpOR {
			keyword = "or"
		}
		expr = fmt.Sprintf("(%s %s (%s))", expr, keyword, childExpr)
	}

	return expr, warnings, errs
}

// stripOuterParens removes a single layer of redundant parens for nicer
// top-level population define output.
func stripOuterParens(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && s[0] == '(' && s[len(s)-1] == ')' {
		depth := 0
		for i, r := range s {
			if r == '(' {
				depth++
			} else if r == ')' {
				depth--
				if depth == 0 && i != len(s)-1 {
					return s
				}
			}
		}
		return s[1 : len(s)-1]
	}
	return s
}
