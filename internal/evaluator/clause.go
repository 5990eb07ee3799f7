package evaluator

import "github.com/quality-measures/accelerator/internal/ums"

// evaluateNode dispatches a clause-tree node to the element or clause
// evaluator (spec §4.7 "Clause evaluation").
func (e *Evaluator) evaluateNode(node ums.ClauseNode, p *Patient) ClauseTrace {
	switch n := node.(type) {
	case *ums.DataElement:
		return e.evaluateElement(n, p)
	case *ums.LogicalClause:
		return e.evaluateClause(n, p)
	default:
		return ClauseTrace{Kind: "unknown", Tag: TagFail}
	}
}

func (e *Evaluator) evaluateClause(clause *ums.LogicalClause, p *Patient) ClauseTrace {
	if clause.Operator == ums.OpNOT {
		if len(clause.Children) != 1 {
			return ClauseTrace{NodeID: clause.ID, Kind: "clause", Tag: TagFail}
		}
		child := e.evaluateNode(clause.Children[0], p)
		met := child.Tag != TagPass
		return ClauseTrace{
			NodeID:   clause.ID,
			Kind:     "clause",
			Tag:      tagFor(met),
			Met:      boolToInt(met),
			Total:    1,
			Children: []ClauseTrace{child},
		}
	}

	if len(clause.Children) == 0 {
		return ClauseTrace{NodeID: clause.ID, Kind: "clause", Tag: TagPass, Met: 1, Total: 1}
	}

	children := make([]ClauseTrace, 0, len(clause.Children))
	for _, c := range clause.Children {
		children = append(children, e.evaluateNode(c, p))
	}

	met := children[0].Tag == TagPass
	metCount, totalCount := 0, 0
	for _, c := range children {
		if c.Tag == TagPass {
			metCount++
		}
		totalCount++
	}

	for i := 1; i < len(children); i++ {
		op := ums.OperatorBetween(clause, i)
		right := children[i].Tag == TagPass
		if op == ums.OpOR {
			met = met || right
		} else {
			met = met && right
		}
	}

	return ClauseTrace{
		NodeID:   clause.ID,
		Kind:     "clause",
		Tag:      partialTagFor(met, metCount, totalCount),
		Met:      metCount,
		Total:    totalCount,
		Children: children,
	}
}

func tagFor(met bool) MatchTag {
	if met {
		return TagPass
	}
	return TagFail
}

func partialTagFor(met bool, metCount, total int) MatchTag {
	if met {
		return TagPass
	}
	if metCount > 0 {
		return TagPartial
	}
	return TagFail
}
