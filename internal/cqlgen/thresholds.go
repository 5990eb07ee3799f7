package cqlgen

import (
	"fmt"

	"github.com/quality-measures/accelerator/internal/ums"
)

// lowerThresholds renders a value-comparison clause for valueExpr (e.g.
// "O.value") per spec §4.2 Observation lowering. Returns "" when de has no
// value thresholds (comparator is only meaningful alongside at least one
// of valueMin/valueMax).
func (c *lowerCtx) lowerThresholds(de *ums.DataElement, valueExpr string) string {
	t := de.Thresholds
	if t == nil || (t.ValueMin == nil && t.ValueMax == nil) {
		return ""
	}

	switch t.Comparator {
	case ums.CmpBetween:
		return fmt.Sprintf("%s >= %s and %s <= %s", valueExpr, formatNum(*t.ValueMin), valueExpr, formatNum(*t.ValueMax))
	case ums.CmpGT, ums.CmpGTE, ums.CmpLT, ums.CmpLTE, ums.CmpEQ, ums.CmpNEQ:
		v := t.ValueMax
		if v == nil {
			v = t.ValueMin
		}
		return fmt.Sprintf("%s %s %s", valueExpr, string(t.Comparator), formatNum(*v))
	default:
		if t.ValueMin != nil {
			return fmt.Sprintf("%s >= %s", valueExpr, formatNum(*t.ValueMin))
		}
		return fmt.Sprintf("%s <= %s", valueExpr, formatNum(*t.ValueMax))
	}
}

func formatNum(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%g", v)
}
