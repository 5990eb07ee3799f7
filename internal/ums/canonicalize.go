package ums

import (
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// denominatorEqualsKeyword is the legacy signal mined from a population's
// description when EqualsInitialPopulation was not set explicitly by the
// author (spec §9 Open Question: promoted to a first-class field, keyword
// sniffing kept only as a fallback inference).
const denominatorEqualsKeyword = "equals initial population"

// Canonicalize normalizes m in place for downstream stability: it remaps
// node IDs so every node has a measure-unique ID, promotes legacy timing to
// TimingConstraint where a deterministic pattern matches, merges duplicate
// value-set OIDs, infers EqualsInitialPopulation and AgeCalculation where
// unset, and synthesizes the required populations. Canonicalize is applied
// after Validate's Fatal issues are confirmed absent.
func Canonicalize(m *Measure) {
	mergeValueSets(m)
	ensureRequiredPopulations(m)
	remapIDs(m)

	for _, p := range m.Populations {
		if p.Criteria == nil {
			continue
		}
		inferEqualsIP(p)
		WalkDataElements(p.Criteria, func(de *DataElement) {
			promoteTiming(de)
			inferAgeCalculation(de)
		})
	}
}

// mergeValueSets coalesces ValueSetReferences that share an OID into the
// earliest-listed one (spec §4.1 "Value-set merge").
func mergeValueSets(m *Measure) {
	seen := map[string]*ValueSetReference{}
	var merged []*ValueSetReference
	for _, vs := range m.ValueSets {
		if vs.OID == "" {
			merged = append(merged, vs)
			continue
		}
		if existing, ok := seen[vs.OID]; ok {
			if len(existing.Codes) == 0 && len(vs.Codes) > 0 {
				existing.Codes = vs.Codes
			}
			continue
		}
		seen[vs.OID] = vs
		merged = append(merged, vs)
	}
	m.ValueSets = merged
}

// ensureRequiredPopulations synthesizes initial_population, denominator,
// and numerator with an empty AND clause when missing (spec §3.1).
func ensureRequiredPopulations(m *Measure) {
	for _, t := range requiredPopulations {
		if m.PopulationOf(t) != nil {
			continue
		}
		m.Populations = append(m.Populations, &Population{
			Type:     t,
			Criteria: &LogicalClause{ID: uuid.NewString(), Operator: OpAND},
		})
	}
}

// remapIDs assigns a fresh, measure-unique ID to every clause-tree node.
// Needed because the component library may clone subtrees with colliding
// IDs (spec §4.1 "ID remapping").
func remapIDs(m *Measure) {
	counter := 0
	next := func() string {
		counter++
		return "n" + strconv.Itoa(counter)
	}
	for _, p := range m.Populations {
		if p.Criteria == nil {
			continue
		}
		remapNode(p.Criteria, next)
	}
}

func remapNode(node ClauseNode, next func() string) {
	switch n := node.(type) {
	case *LogicalClause:
		n.ID = next()
		for _, c := range n.Children {
			remapNode(c, next)
		}
	case *DataElement:
		n.ID = next()
	}
}

// timingPromotionRule is one deterministic legacy->structured mapping.
type timingPromotionRule struct {
	relativeTo string
	direction  Direction
	anchor     Anchor
	side       Side
}

var timingPromotionRules = []timingPromotionRule{
	{relativeTo: "measurement_period_end", direction: DirBefore, anchor: AnchorMeasurementPeriod, side: SideBeforeEnd},
	{relativeTo: "measurement_period_end", direction: DirAfter, anchor: AnchorMeasurementPeriod, side: SideAfterEnd},
	{relativeTo: "measurement_period_start", direction: DirBefore, anchor: AnchorMeasurementPeriod, side: SideBeforeStart},
	{relativeTo: "measurement_period_start", direction: DirAfter, anchor: AnchorMeasurementPeriod, side: SideAfterStart},
	{relativeTo: "measurement_period_start", direction: DirWithin, anchor: AnchorMeasurementPeriod, side: SideDuring},
	{relativeTo: "measurement_period", direction: DirWithin, anchor: AnchorMeasurementPeriod, side: SideDuring},
}

// promoteTiming rewrites de.TimingRequirements into de.TimingOverride when
// a legacy entry matches a known pattern (spec §4.1 "Timing promotion").
// The legacy form is never removed from the node; it is kept alongside the
// promoted form so authoring round-trips retain it (spec §9 design note).
func promoteTiming(de *DataElement) {
	if de.TimingOverride != nil || len(de.TimingRequirements) == 0 {
		return
	}
	req := de.TimingRequirements[0]
	if req.Window == nil {
		return
	}
	for _, rule := range timingPromotionRules {
		if strings.EqualFold(req.RelativeTo, rule.relativeTo) && req.Window.Direction == rule.direction {
			de.TimingOverride = &TimingConstraint{
				Anchor: rule.anchor,
				Side:   rule.side,
				Offset: &Offset{Value: req.Window.Value, Unit: req.Window.Unit},
			}
			return
		}
	}
}

// pediatricAgeThreshold drives the fallback inference used when
// AgeCalculation is unset: an ageMax at or below it implies
// pediatric/turns_during semantics, anything else at_start (spec §9 Open
// Question).
const pediatricAgeThreshold = 18

func inferAgeCalculation(de *DataElement) {
	if de.Type != ElementDemographic || de.AgeCalculation != "" || de.Thresholds == nil {
		return
	}
	if de.Thresholds.AgeMax != nil && *de.Thresholds.AgeMax <= pediatricAgeThreshold {
		de.AgeCalculation = AgeCalcTurnsDuring
	} else {
		de.AgeCalculation = AgeCalcAtStart
	}
}

func inferEqualsIP(p *Population) {
	if p.Type != PopulationDenominator || p.EqualsInitialPopulation {
		return
	}
	empty := p.Criteria == nil || (len(p.Criteria.Children) == 0)
	keyworded := strings.Contains(strings.ToLower(p.Description), denominatorEqualsKeyword)
	if empty || keyworded {
		p.EqualsInitialPopulation = true
	}
}

// SortedOIDs returns the measure's distinct value-set OIDs in sorted order,
// used by generators that must emit declarations deterministically.
func SortedOIDs(m *Measure) []string {
	set := map[string]bool{}
	for _, vs := range m.ValueSets {
		if vs.OID != "" {
			set[vs.OID] = true
		}
	}
	out := make([]string, 0, len(set))
	for oid := range set {
		out = append(out, oid)
	}
	sort.Strings(out)
	return out
}
