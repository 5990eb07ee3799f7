package component

import "github.com/quality-measures/accelerator/internal/ums"

// autoAssignCategory infers a Category from a component's wrapped node. Only
// called when the component's category was never explicitly set by a user
// (spec §4.6 categoryAutoAssigned flag).
func autoAssignCategory(node ums.ClauseNode) Category {
	de, ok := node.(*ums.DataElement)
	if !ok {
		return CategoryComposite
	}

	if de.Type == ums.ElementDemographic {
		return CategoryDemographic
	}
	if de.Thresholds != nil && (de.Thresholds.ValueMin != nil || de.Thresholds.ValueMax != nil) {
		return CategoryThreshold
	}
	if _, _, has := de.EffectiveTiming(); has {
		return CategoryTiming
	}
	if de.ValueSet != nil || len(de.DirectCodes) > 0 {
		return CategoryValueSet
	}
	return CategoryUncategorized
}
