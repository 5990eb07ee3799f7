package cqlgen

import (
	"fmt"

	"github.com/quality-measures/accelerator/internal/ums"
)

// lowerTiming renders the CQL timing suffix for a DataElement's effective
// timing, anchored to dateExpr (e.g. "C.onset"), per spec §4.2 "Timing
// lowering".
func (c *lowerCtx) lowerTiming(de *ums.DataElement, alias, dateExpr string) (string, ums.IssueList, ums.IssueList) {
	tc, legacy, has := de.EffectiveTiming()
	if !has {
		return fmt.Sprintf(`%s during "Measurement Period"`, dateExpr), nil, nil
	}
	if tc != nil {
		return lowerTimingConstraint(tc, dateExpr)
	}
	return lowerLegacyTiming(legacy[0], dateExpr), nil, nil
}

func lowerTimingConstraint(tc *ums.TimingConstraint, dateExpr string) (string, ums.IssueList, ums.IssueList) {
	switch tc.Anchor {
	case ums.AnchorIPSD:
		return lowerWithAnchorAlias(tc, dateExpr, `"Initial Population Start Date"`), nil, nil
	case ums.AnchorEventDate:
		return lowerWithAnchorAlias(tc, dateExpr, "E"), nil, nil
	case ums.AnchorMeasurementPeriod:
		return lowerWithMeasurementPeriod(tc, dateExpr), nil, nil
	default:
		return "", nil, ums.IssueList{ums.Fatal("UNKNOWN_TIMING_ANCHOR", "unknown timing anchor %q", tc.Anchor)}
	}
}

func lowerWithMeasurementPeriod(tc *ums.TimingConstraint, dateExpr string) string {
	switch tc.Side {
	case ums.SideDuring:
		return fmt.Sprintf(`%s during "Measurement Period"`, dateExpr)
	case ums.SideBeforeEnd:
		return fmt.Sprintf(`%s %s or less before end of "Measurement Period"`, dateExpr, offsetPhrase(tc.Offset))
	case ums.SideAfterEnd:
		return fmt.Sprintf(`%s %s or less after end of "Measurement Period"`, dateExpr, offsetPhrase(tc.Offset))
	case ums.SideBeforeStart:
		return fmt.Sprintf(`%s %s or less before start of "Measurement Period"`, dateExpr, offsetPhrase(tc.Offset))
	case ums.SideAfterStart:
		return fmt.Sprintf(`%s %s or less after start of "Measurement Period"`, dateExpr, offsetPhrase(tc.Offset))
	default:
		return fmt.Sprintf(`%s during "Measurement Period"`, dateExpr)
	}
}

// lowerWithAnchorAlias renders timing anchored against IPSD or a specific
// event alias; per spec §4.2 these anchors are "emitted as references to
// predefined aliases ... left to the target environment".
func lowerWithAnchorAlias(tc *ums.TimingConstraint, dateExpr, alias string) string {
	switch tc.Side {
	case ums.SideDuring:
		return fmt.Sprintf(`%s same day as %s`, dateExpr, alias)
	case ums.SideBeforeEnd, ums.SideBeforeStart:
		return fmt.Sprintf(`%s %s or less before %s`, dateExpr, offsetPhrase(tc.Offset), alias)
	case ums.SideAfterEnd, ums.SideAfterStart:
		return fmt.Sprintf(`%s %s or less after %s`, dateExpr, offsetPhrase(tc.Offset), alias)
	default:
		return fmt.Sprintf(`%s same day as %s`, dateExpr, alias)
	}
}

func offsetPhrase(o *ums.Offset) string {
	if o == nil {
		return "0 days"
	}
	return fmt.Sprintf("%d %s", o.Value, o.Unit)
}

func lowerLegacyTiming(req ums.TimingRequirement, dateExpr string) string {
	if req.Window == nil {
		return fmt.Sprintf(`%s during "Measurement Period"`, dateExpr)
	}
	w := req.Window
	switch w.Direction {
	case ums.DirBefore:
		return fmt.Sprintf(`%s %d %s or less before end of "Measurement Period"`, dateExpr, w.Value, w.Unit)
	case ums.DirAfter:
		return fmt.Sprintf(`%s %d %s or less after start of "Measurement Period"`, dateExpr, w.Value, w.Unit)
	default:
		return fmt.Sprintf(`%s during "Measurement Period"`, dateExpr)
	}
}
