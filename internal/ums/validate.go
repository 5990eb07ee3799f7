package ums

import "fmt"

// requiredPopulations are synthesized with an empty AND clause when absent,
// per spec §3.1 ("Population" invariant).
var requiredPopulations = []PopulationType{
	PopulationInitial,
	PopulationDenominator,
	PopulationNumerator,
}

// Validate runs the structural, reference, and semantic checks from spec
// §4.1 against m and returns the accumulated issues. Validate never
// mutates m; Canonicalize performs the synthesis and normalization that
// Validate only flags.
func Validate(m *Measure) IssueList {
	var issues IssueList

	issues = append(issues, validateMetadata(m)...)
	issues = append(issues, validateStructure(m)...)
	issues = append(issues, validateReferences(m)...)
	issues = append(issues, validateSemantics(m)...)

	return issues
}

func validateMetadata(m *Measure) IssueList {
	var issues IssueList
	md := m.Metadata
	if md.MeasureID == "" {
		issues = append(issues, Fatal("MISSING_MEASURE_ID", "metadata.measureId is required"))
	}
	switch md.Program {
	case ProgramMIPS, ProgramECQM, ProgramHEDIS, ProgramQOF, ProgramRegistry, ProgramCustom, "":
	default:
		issues = append(issues, Recoverable("UNKNOWN_PROGRAM", "unknown program %q", md.Program))
	}
	switch md.MeasureType {
	case MeasureTypeProcess, MeasureTypeOutcome, MeasureTypeStructure, MeasureTypePatientExperience, "":
	default:
		issues = append(issues, Recoverable("UNKNOWN_MEASURE_TYPE", "unknown measureType %q", md.MeasureType))
	}
	switch md.Scoring {
	case ScoringProportion, ScoringRatio, ScoringContinuousVariable, ScoringCohort, "":
	default:
		issues = append(issues, Recoverable("UNKNOWN_SCORING", "unknown scoring %q", md.Scoring))
	}
	if md.MeasurementPeriod.Start == "" || md.MeasurementPeriod.End == "" {
		issues = append(issues, Fatal("MISSING_MEASUREMENT_PERIOD", "metadata.measurementPeriod.start/end are required"))
	} else if md.MeasurementPeriod.Start > md.MeasurementPeriod.End {
		issues = append(issues, Fatal("INVALID_MEASUREMENT_PERIOD", "measurementPeriod.start (%s) is after end (%s)", md.MeasurementPeriod.Start, md.MeasurementPeriod.End))
	}
	return issues
}

func validateStructure(m *Measure) IssueList {
	var issues IssueList

	if len(m.Populations) == 0 {
		issues = append(issues, Fatal("NO_POPULATIONS", "measure has no populations"))
	}

	seenPop := map[PopulationType]int{}
	for _, p := range m.Populations {
		seenPop[p.Type]++
	}
	for t, n := range seenPop {
		if n > 1 {
			issues = append(issues, Fatal("DUPLICATE_POPULATION", "population type %q appears %d times", t, n))
		}
	}

	ids := map[string]int{}
	for _, p := range m.Populations {
		if p.Criteria == nil {
			continue
		}
		Walk(p.Criteria, func(n ClauseNode) {
			ids[n.NodeID()]++
			if clause, ok := n.(*LogicalClause); ok {
				if clause.Operator == OpNOT && len(clause.Children) != 1 {
					issues = append(issues, Fatal("NOT_ARITY", "NOT clause %q must have exactly one child, has %d", clause.ID, len(clause.Children)))
				}
			}
		})
	}
	for id, n := range ids {
		if n > 1 {
			issues = append(issues, Fatal("DUPLICATE_ID", "node id %q appears %d times", id, n))
		}
	}

	return issues
}

func validateReferences(m *Measure) IssueList {
	var issues IssueList

	oidCount := map[string]int{}
	for _, vs := range m.ValueSets {
		if vs.OID != "" {
			oidCount[vs.OID]++
		}
	}
	for oid, n := range oidCount {
		if n > 1 {
			issues = append(issues, Recoverable("DUPLICATE_OID", "oid %q is declared %d times; will be merged during canonicalization", oid, n))
		}
	}

	for _, p := range m.Populations {
		if p.Criteria == nil {
			continue
		}
		WalkDataElements(p.Criteria, func(de *DataElement) {
			if de.ValueSet == nil {
				return
			}
			if m.ValueSetByRef(de.ValueSet) == nil {
				issues = append(issues, Recoverable("UNRESOLVED_VALUE_SET", "DataElement %q references an unresolved value set %+v", de.ID, *de.ValueSet))
			}
			if len(de.ValueSet.OID) > 0 && len(de.DirectCodes) > 0 {
				issues = append(issues, Recoverable("MIXED_CODE_SOURCES", "DataElement %q has both inline directCodes and a value-set reference; the value set's codes are used when it resolves", de.ID))
			}
			vs := m.ValueSetByRef(de.ValueSet)
			if vs != nil && len(vs.Codes) > 0 && len(de.DirectCodes) > 0 {
				issues = append(issues, Recoverable("MIXED_CODE_SOURCES", "DataElement %q has both directCodes and a value set with inline codes; the value set's codes are used", de.ID))
			}
		})
	}
	return issues
}

func validateSemantics(m *Measure) IssueList {
	var issues IssueList

	if gc := m.GlobalConstraints; gc != nil && gc.AgeRange != nil {
		issues = append(issues, validateAgeRange(gc.AgeRange, "globalConstraints.ageRange")...)
	}

	for _, p := range m.Populations {
		if p.Criteria == nil {
			continue
		}
		WalkDataElements(p.Criteria, func(de *DataElement) {
			if de.Thresholds == nil {
				return
			}
			t := de.Thresholds
			if t.AgeMin != nil && t.AgeMax != nil {
				issues = append(issues, validateAgeRange(&AgeRange{Min: *t.AgeMin, Max: *t.AgeMax}, fmt.Sprintf("DataElement %q thresholds", de.ID))...)
			}
			if t.Comparator == CmpBetween {
				if t.ValueMin == nil || t.ValueMax == nil {
					issues = append(issues, Fatal("INVALID_THRESHOLD_RANGE", "DataElement %q: comparator 'between' requires valueMin and valueMax", de.ID))
				} else if *t.ValueMin > *t.ValueMax {
					issues = append(issues, Fatal("INVALID_THRESHOLD_RANGE", "DataElement %q: valueMin (%v) > valueMax (%v)", de.ID, *t.ValueMin, *t.ValueMax))
				}
			}
		})
	}

	return issues
}

func validateAgeRange(r *AgeRange, where string) IssueList {
	var issues IssueList
	if r.Min > r.Max {
		issues = append(issues, Fatal("INVALID_AGE_RANGE", "%s: min (%d) > max (%d)", where, r.Min, r.Max))
	}
	if r.Min < 0 {
		issues = append(issues, Fatal("INVALID_AGE_RANGE", "%s: min (%d) < 0", where, r.Min))
	}
	if r.Max > 150 {
		issues = append(issues, Fatal("INVALID_AGE_RANGE", "%s: max (%d) > 150", where, r.Max))
	}
	return issues
}
