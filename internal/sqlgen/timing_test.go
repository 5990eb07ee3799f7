package sqlgen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quality-measures/accelerator/internal/ums"
)

func TestLowerTiming_NoTimingDefaultsToFullPeriod(t *testing.T) {
	sc := testCtx(t)
	expr, warnings, errs := sc.lowerTiming(&ums.DataElement{ID: "x"}, "X", "X.event_date")
	require.Empty(t, errs)
	assert.Empty(t, warnings)
	assert.Equal(t, "X.event_date between :mpStart and :mpEnd", expr)
}

func TestLowerTiming_BeforeEndWithOffset(t *testing.T) {
	sc := testCtx(t)
	de := &ums.DataElement{
		ID: "proc",
		TimingOverride: &ums.TimingConstraint{
			Anchor: ums.AnchorMeasurementPeriod,
			Side:   ums.SideBeforeEnd,
			Offset: &ums.Offset{Value: 10, Unit: ums.UnitYears},
		},
	}
	expr, warnings, errs := sc.lowerTiming(de, "P", "P.performed_date")
	require.Empty(t, errs)
	assert.Empty(t, warnings)
	assert.Contains(t, expr, "P.performed_date between")
	assert.Contains(t, expr, ":mpEnd")
}

func TestLowerTiming_IPSDFallsBackWithWarning(t *testing.T) {
	sc := testCtx(t)
	de := &ums.DataElement{
		ID:             "x",
		TimingOverride: &ums.TimingConstraint{Anchor: ums.AnchorIPSD, Side: ums.SideDuring},
	}
	expr, warnings, errs := sc.lowerTiming(de, "X", "X.event_date")
	require.Empty(t, errs)
	require.NotEmpty(t, warnings)
	assert.Equal(t, "NO_IPSD_BINDING", warnings[0].Code)
	assert.Equal(t, "X.event_date between :mpStart and :mpEnd", expr)
}

func TestLowerTiming_UnknownAnchorIsFatal(t *testing.T) {
	sc := testCtx(t)
	de := &ums.DataElement{ID: "x", TimingOverride: &ums.TimingConstraint{Anchor: ums.Anchor("bogus")}}
	_, _, errs := sc.lowerTiming(de, "X", "X.event_date")
	require.True(t, errs.HasFatal())
	assert.Equal(t, "UNKNOWN_TIMING_ANCHOR", errs.Fatals()[0].Code)
}

func TestLowerLegacyTiming_BeforeDirection(t *testing.T) {
	sc := testCtx(t)
	de := &ums.DataElement{
		ID: "legacy",
		TimingRequirements: []ums.TimingRequirement{
			{RelativeTo: "whatever", Window: &ums.Window{Value: 1, Unit: ums.UnitYears, Direction: ums.DirBefore}},
		},
	}
	expr, _, errs := sc.lowerTiming(de, "X", "X.event_date")
	require.Empty(t, errs)
	assert.Contains(t, expr, "X.event_date between")
	assert.Contains(t, expr, ":mpEnd")
}
