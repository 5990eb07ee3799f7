// Package timing resolves UMS timing (both the legacy TimingRequirement
// list and the structured TimingConstraint) into concrete calendar-date
// windows, per spec §4.9. This is the shared arithmetic the patient
// evaluator uses directly and that the CQL/SQL generators' lowering rules
// mirror in their respective textual forms.
package timing

import (
	"fmt"
	"time"

	"github.com/quality-measures/accelerator/internal/ums"
)

const dateLayout = "2006-01-02"

// Window is a resolved, inclusive [From, To] calendar-date range.
type Window struct {
	From time.Time
	To   time.Time
}

// Contains reports whether d falls within the window, inclusive on both
// ends (spec §4.9).
func (w Window) Contains(d time.Time) bool {
	dd := truncateToDate(d)
	return !dd.Before(w.From) && !dd.After(w.To)
}

func truncateToDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a calendar date in YYYY-MM-DD form.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing date %q: %w", s, err)
	}
	return truncateToDate(t), nil
}

// AddOffset applies a signed calendar-unit offset to t. Years add by
// addMonths(v*12); months by addMonths(v); weeks by 7-day multiples; days
// by 1-day multiples; hours are truncated to whole days (the model is
// calendar-date, not date-time) — see spec §4.9.
func AddOffset(t time.Time, value int, unit ums.TimeUnit) time.Time {
	switch unit {
	case ums.UnitYears, ums.UnitMonths:
		n := value
		if unit == ums.UnitYears {
			n = value * 12
		}
		// addMonths semantics: clamp the day to the target month's last day
		// (Dec 31 minus 6 months is Jun 30, not Jul 1).
		first := time.Date(t.Year(), t.Month()+time.Month(n), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
		day := t.Day()
		if last := first.AddDate(0, 1, -1).Day(); day > last {
			day = last
		}
		return first.AddDate(0, 0, day-1)
	case ums.UnitWeeks:
		return t.AddDate(0, 0, value*7)
	case ums.UnitDays:
		return t.AddDate(0, 0, value)
	case ums.UnitHours:
		return t.AddDate(0, 0, value/24)
	default:
		return t
	}
}

// MeasurementPeriod resolves a ums.Period into start/end time.Time values.
func MeasurementPeriod(p ums.Period) (start, end time.Time, err error) {
	start, err = ParseDate(p.Start)
	if err != nil {
		return
	}
	end, err = ParseDate(p.End)
	return
}

// Anchors bundles the reference dates a TimingConstraint may resolve
// against: the measurement period and the patient's Initial Population
// Start Date (IPSD), when known.
type Anchors struct {
	MeasurementPeriodStart time.Time
	MeasurementPeriodEnd   time.Time
	IPSD                   *time.Time
}

// ResolveConstraint resolves a structured TimingConstraint into a concrete
// window. EventDate-anchored constraints have no fixed window independent
// of the event itself; ResolveConstraint returns ok=false for them and the
// caller (the evaluator) treats the check as satisfied by the event itself,
// without applying the offset, matching the CQL lowering's "left to the
// target environment" treatment (spec §4.2).
func ResolveConstraint(tc *ums.TimingConstraint, a Anchors) (Window, bool, error) {
	var anchor time.Time
	switch tc.Anchor {
	case ums.AnchorMeasurementPeriod:
		// handled per-side below
	case ums.AnchorIPSD:
		if a.IPSD == nil {
			return Window{}, false, fmt.Errorf("timing anchor IPSD requires a resolved Initial Population Start Date")
		}
		anchor = *a.IPSD
	case ums.AnchorEventDate:
		return Window{}, false, nil
	default:
		return Window{}, false, fmt.Errorf("unknown timing anchor %q", tc.Anchor)
	}

	switch tc.Side {
	case ums.SideDuring:
		return Window{From: a.MeasurementPeriodStart, To: a.MeasurementPeriodEnd}, true, nil
	case ums.SideBeforeEnd:
		ref := a.MeasurementPeriodEnd
		if tc.Anchor == ums.AnchorIPSD {
			ref = anchor
		}
		from := ref
		if tc.Offset != nil {
			from = AddOffset(ref, -tc.Offset.Value, tc.Offset.Unit)
		}
		return Window{From: from, To: ref}, true, nil
	case ums.SideAfterEnd:
		ref := a.MeasurementPeriodEnd
		if tc.Anchor == ums.AnchorIPSD {
			ref = anchor
		}
		to := ref
		if tc.Offset != nil {
			to = AddOffset(ref, tc.Offset.Value, tc.Offset.Unit)
		}
		return Window{From: ref, To: to}, true, nil
	case ums.SideBeforeStart:
		ref := a.MeasurementPeriodStart
		if tc.Anchor == ums.AnchorIPSD {
			ref = anchor
		}
		from := ref
		if tc.Offset != nil {
			from = AddOffset(ref, -tc.Offset.Value, tc.Offset.Unit)
		}
		return Window{From: from, To: ref}, true, nil
	case ums.SideAfterStart:
		ref := a.MeasurementPeriodStart
		if tc.Anchor == ums.AnchorIPSD {
			ref = anchor
		}
		to := ref
		if tc.Offset != nil {
			to = AddOffset(ref, tc.Offset.Value, tc.Offset.Unit)
		}
		return Window{From: ref, To: to}, true, nil
	default:
		return Window{}, false, fmt.Errorf("unknown timing side %q", tc.Side)
	}
}

// ResolveLegacy resolves the first legacy TimingRequirement's window
// against the measurement period, using its directional window/unit
// arithmetic (spec §4.9 "directional window against the measurement
// period").
func ResolveLegacy(req ums.TimingRequirement, a Anchors) (Window, bool) {
	if req.Window == nil {
		return Window{}, false
	}
	w := req.Window
	switch w.Direction {
	case ums.DirBefore:
		to := a.MeasurementPeriodEnd
		from := AddOffset(to, -w.Value, w.Unit)
		return Window{From: from, To: to}, true
	case ums.DirAfter:
		from := a.MeasurementPeriodStart
		to := AddOffset(from, w.Value, w.Unit)
		return Window{From: from, To: to}, true
	case ums.DirWithin:
		return Window{From: a.MeasurementPeriodStart, To: a.MeasurementPeriodEnd}, true
	default:
		return Window{}, false
	}
}

// MeasurementPeriodWindow returns the full measurement period as a Window,
// the anchor for every unadorned or EventDate-anchored timing check.
func (a Anchors) MeasurementPeriodWindow() Window {
	return Window{From: a.MeasurementPeriodStart, To: a.MeasurementPeriodEnd}
}

// Default returns the fallback window — the event must fall within the
// measurement period — used when a DataElement has neither a
// TimingConstraint nor any TimingRequirement (spec §4.9 "If neither,
// default is event in measurement period").
func Default(a Anchors) Window {
	return Window{From: a.MeasurementPeriodStart, To: a.MeasurementPeriodEnd}
}
