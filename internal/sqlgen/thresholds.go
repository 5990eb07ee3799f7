package sqlgen

import (
	"fmt"

	"github.com/quality-measures/accelerator/internal/ums"
)

// lowerThresholds lowers a DataElement's numeric threshold into a SQL
// predicate over valueExpr, binding each bound as a named parameter.
func (c *sqlCtx) lowerThresholds(de *ums.DataElement, valueExpr string) string {
	t := de.Thresholds
	if t == nil || (t.ValueMin == nil && t.ValueMax == nil) {
		return ""
	}

	if t.Comparator == ums.CmpBetween || (t.ValueMin != nil && t.ValueMax != nil && t.Comparator == "") {
		if t.ValueMin == nil || t.ValueMax == nil {
			return ""
		}
		minBind := c.binds.put("valMin_"+sanitizeBindSuffix(de.ID), *t.ValueMin)
		maxBind := c.binds.put("valMax_"+sanitizeBindSuffix(de.ID), *t.ValueMax)
		return fmt.Sprintf("%s >= %s and %s <= %s", valueExpr, minBind, valueExpr, maxBind)
	}

	switch t.Comparator {
	case ums.CmpGT, ums.CmpGTE, ums.CmpLT, ums.CmpLTE, ums.CmpEQ, ums.CmpNEQ:
		v := t.ValueMax
		if v == nil {
			v = t.ValueMin
		}
		bind := c.binds.put("val_"+sanitizeBindSuffix(de.ID), *v)
		return fmt.Sprintf("%s %s %s", valueExpr, t.Comparator, bind)
	}

	if t.ValueMin != nil {
		bind := c.binds.put("valMin_"+sanitizeBindSuffix(de.ID), *t.ValueMin)
		return fmt.Sprintf("%s >= %s", valueExpr, bind)
	}
	bind := c.binds.put("valMax_"+sanitizeBindSuffix(de.ID), *t.ValueMax)
	return fmt.Sprintf("%s <= %s", valueExpr, bind)
}
