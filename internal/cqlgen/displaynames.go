package cqlgen

import "github.com/quality-measures/accelerator/internal/ums"

// displayNames maps each PopulationType to the CQL define name spec §4.2
// requires ("Initial Population Start Date" style Title Case).
var displayNames = map[ums.PopulationType]string{
	ums.PopulationInitial:               "Initial Population",
	ums.PopulationDenominator:           "Denominator",
	ums.PopulationDenominatorExclusion:  "Denominator Exclusion",
	ums.PopulationDenominatorException:  "Denominator Exception",
	ums.PopulationNumerator:             "Numerator",
	ums.PopulationNumeratorExclusion:    "Numerator Exclusion",
	ums.PopulationMeasure:               "Measure Population",
	ums.PopulationMeasureExclusion:      "Measure Population Exclusion",
	ums.PopulationMeasureObservation:    "Measure Observation",
}

func displayName(t ums.PopulationType) string {
	if n, ok := displayNames[t]; ok {
		return n
	}
	return string(t)
}
