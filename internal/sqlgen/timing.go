package sqlgen

import (
	"fmt"

	"github.com/quality-measures/accelerator/internal/ums"
)

// lowerTiming lowers a DataElement's effective timing into a SQL boolean
// predicate over dateExpr. Legacy TimingRequirements are honored when no
// TimingConstraint is present; the override is never silently dropped
// because EffectiveTiming still returns it alongside the constraint.
func (c *sqlCtx) lowerTiming(de *ums.DataElement, alias, dateExpr string) (string, ums.IssueList, ums.IssueList) {
	tc, legacy, has := de.EffectiveTiming()
	if !has {
		return fmt.Sprintf("%s between %s and %s", dateExpr, c.mpStart, c.mpEnd), nil, nil
	}
	if tc != nil {
		return c.lowerTimingConstraint(tc, dateExpr)
	}
	return c.lowerLegacyTiming(legacy[0], dateExpr), nil, nil
}

func (c *sqlCtx) lowerTimingConstraint(tc *ums.TimingConstraint, dateExpr string) (string, ums.IssueList, ums.IssueList) {
	switch tc.Anchor {
	case ums.AnchorMeasurementPeriod:
		return c.lowerMeasurementPeriodTiming(tc, dateExpr), nil, nil
	case ums.AnchorIPSD:
		warnings := ums.IssueList{ums.Recoverable("NO_IPSD_BINDING", "timing anchored to IPSD has no bound column in this schema; falling back to the full measurement period")}
		return fmt.Sprintf("%s between %s and %s", dateExpr, c.mpStart, c.mpEnd), warnings, nil
	case ums.AnchorEventDate:
		warnings := ums.IssueList{ums.Recoverable("NO_EVENT_ANCHOR_BINDING", "timing anchored to another element's event date cannot be expressed as an isolated row predicate; falling back to the full measurement period")}
		return fmt.Sprintf("%s between %s and %s", dateExpr, c.mpStart, c.mpEnd), warnings, nil
	default:
		return "1 = 0", nil, ums.IssueList{ums.Fatal("UNKNOWN_TIMING_ANCHOR", "unrecognized timing anchor %q", tc.Anchor)}
	}
}

func (c *sqlCtx) lowerMeasurementPeriodTiming(tc *ums.TimingConstraint, dateExpr string) string {
	if tc.Side == ums.SideDuring || tc.Offset == nil {
		return fmt.Sprintf("%s between %s and %s", dateExpr, c.mpStart, c.mpEnd)
	}

	unit, multiplier := unitName(tc.Offset.Unit)
	amount := tc.Offset.Value * multiplier

	switch tc.Side {
	case ums.SideBeforeEnd:
		lower := c.fns.DateAdd(-amount, unit, c.mpEnd)
		return fmt.Sprintf("%s between %s and %s", dateExpr, lower, c.mpEnd)
	case ums.SideAfterEnd:
		upper := c.fns.DateAdd(amount, unit, c.mpEnd)
		return fmt.Sprintf("%s between %s and %s", dateExpr, c.mpEnd, upper)
	case ums.SideBeforeStart:
		lower := c.fns.DateAdd(-amount, unit, c.mpStart)
		return fmt.Sprintf("%s between %s and %s", dateExpr, lower, c.mpStart)
	case ums.SideAfterStart:
		upper := c.fns.DateAdd(amount, unit, c.mpStart)
		return fmt.Sprintf("%s between %s and %s", dateExpr, c.mpStart, upper)
	default:
		return fmt.Sprintf("%s between %s and %s", dateExpr, c.mpStart, c.mpEnd)
	}
}

// lowerLegacyTiming lowers the pre-structured-form TimingRequirement.
func (c *sqlCtx) lowerLegacyTiming(req ums.TimingRequirement, dateExpr string) string {
	if req.Window == nil {
		return fmt.Sprintf("%s between %s and %s", dateExpr, c.mpStart, c.mpEnd)
	}
	unit, multiplier := unitName(req.Window.Unit)
	amount := req.Window.Value * multiplier

	switch req.Window.Direction {
	case ums.DirBefore:
		lower := c.fns.DateAdd(-amount, unit, c.mpEnd)
		return fmt.Sprintf("%s between %s and %s", dateExpr, lower, c.mpEnd)
	case ums.DirAfter:
		upper := c.fns.DateAdd(amount, unit, c.mpStart)
		return fmt.Sprintf("%s between %s and %s", dateExpr, c.mpStart, upper)
	default:
		return fmt.Sprintf("%s between %s and %s", dateExpr, c.mpStart, c.mpEnd)
	}
}
