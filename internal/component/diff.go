package component

import (
	"fmt"

	"github.com/google/go-cmp/cmp"

	"github.com/quality-measures/accelerator/internal/ums"
)

// Diff is one field-level difference between two versions of a component's
// content, carrying an explanatory message rather than a bare path/value
// pair (spec §4.6).
type Diff struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// computeComponentDiff reports the field-by-field differences between an
// existing node and an incoming one. Empty for two structurally identical
// fragments, regardless of the IDs they carry. For DataElements it compares
// only the value-set OID, the structured timing constraint, negation and
// thresholds; for LogicalClauses only the operator and the child count.
// Element type, directCodes, legacy timing and the content of clause
// children are not compared, so an empty diff does not imply equal
// identity hashes.
func computeComponentDiff(existing, incoming ums.ClauseNode) []Diff {
	ex, exOK := existing.(*ums.DataElement)
	in, inOK := incoming.(*ums.DataElement)
	if exOK && inOK {
		return diffDataElements(ex, in)
	}

	exClause, exIsClause := existing.(*ums.LogicalClause)
	inClause, inIsClause := incoming.(*ums.LogicalClause)
	if exIsClause && inIsClause {
		return diffClauses(exClause, inClause)
	}

	return []Diff{{Field: "kind", Message: fmt.Sprintf("existing is %T, incoming is %T", existing, incoming)}}
}

func diffDataElements(ex, in *ums.DataElement) []Diff {
	var diffs []Diff

	exOID, inOID := valueSetOID(ex), valueSetOID(in)
	if exOID != inOID {
		diffs = append(diffs, Diff{Field: "valueSetOid", Message: fmt.Sprintf("value set OID changed from %q to %q", exOID, inOID)})
	}

	exTC, _, exHas := ex.EffectiveTiming()
	inTC, _, inHas := in.EffectiveTiming()
	switch {
	case exHas != inHas:
		diffs = append(diffs, Diff{Field: "timing", Message: "timing constraint was added or removed"})
	case exHas && inHas && exTC != nil && inTC != nil:
		if exTC.Anchor != inTC.Anchor || exTC.Side != inTC.Side {
			diffs = append(diffs, Diff{Field: "timing.position", Message: fmt.Sprintf("timing changed from %s/%s to %s/%s", exTC.Anchor, exTC.Side, inTC.Anchor, inTC.Side)})
		}
		if !cmp.Equal(exTC.Offset, inTC.Offset) {
			diffs = append(diffs, Diff{Field: "timing.quantity", Message: fmt.Sprintf("timing offset changed from %v to %v", exTC.Offset, inTC.Offset)})
		}
		if exTC.ReferenceAnchor != inTC.ReferenceAnchor {
			diffs = append(diffs, Diff{Field: "timing.reference", Message: fmt.Sprintf("timing reference changed from %q to %q", exTC.ReferenceAnchor, inTC.ReferenceAnchor)})
		}
	}

	if ex.Negation != in.Negation {
		diffs = append(diffs, Diff{Field: "negation", Message: fmt.Sprintf("negation changed from %v to %v", ex.Negation, in.Negation)})
	}

	if !cmp.Equal(ex.Thresholds, in.Thresholds) {
		diffs = append(diffs, Diff{Field: "thresholds", Message: fmt.Sprintf("thresholds changed from %v to %v", ex.Thresholds, in.Thresholds)})
	}

	return diffs
}

func diffClauses(ex, in *ums.LogicalClause) []Diff {
	var diffs []Diff

	if ex.Operator != in.Operator {
		diffs = append(diffs, Diff{Field: "operator", Message: fmt.Sprintf("operator changed from %s to %s", ex.Operator, in.Operator)})
	}
	if len(ex.Children) != len(in.Children) {
		diffs = append(diffs, Diff{Field: "childCount", Message: fmt.Sprintf("child count changed from %d to %d", len(ex.Children), len(in.Children))})
	}
	return diffs
}

func valueSetOID(de *ums.DataElement) string {
	if de.ValueSet == nil {
		return ""
	}
	return de.ValueSet.OID
}
