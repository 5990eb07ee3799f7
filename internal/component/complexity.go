package component

import "github.com/quality-measures/accelerator/internal/ums"

// complexity scores a clause fragment by structural weight: each
// DataElement contributes 1 plus 1 each for timing, thresholds and
// negation when present, each LogicalClause contributes 1 plus the sum of its children
// (spec §4.6). Computed fresh per call; callers needing the memoized
// per-component score should read Version.Complexity instead of
// recomputing against a live tree.
func complexity(node ums.ClauseNode) int {
	switch n := node.(type) {
	case *ums.DataElement:
		score := 1
		if _, _, has := n.EffectiveTiming(); has {
			score++
		}
		if n.Thresholds != nil {
			score++
		}
		if n.Negation {
			score++
		}
		return score
	case *ums.LogicalClause:
		score := 1
		for _, child := range n.Children {
			score += complexity(child)
		}
		return score
	default:
		return 0
	}
}
