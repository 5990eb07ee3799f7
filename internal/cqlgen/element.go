package cqlgen

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/quality-measures/accelerator/internal/ums"
)

// resourceByType is the fallback FHIR resource name for the structural
// fallback lowering rule (spec §4.2 "assessment/device/others").
var resourceByType = map[ums.DataElementType]string{
	ums.ElementDiagnosis:     "Condition",
	ums.ElementEncounter:     "Encounter",
	ums.ElementProcedure:     "Procedure",
	ums.ElementObservation:   "Observation",
	ums.ElementMedication:    "MedicationRequest",
	ums.ElementImmunization:  "Immunization",
	ums.ElementDevice:        "Device",
	ums.ElementAllergy:       "AllergyIntolerance",
	ums.ElementCommunication: "Communication",
	ums.ElementGoal:          "Goal",
	ums.ElementAssessment:    "Observation",
}

func (c *lowerCtx) lowerElement(de *ums.DataElement) (string, ums.IssueList, ums.IssueList) {
	var warnings, errs ums.IssueList

	expr, w, e := c.lowerElementBody(de)
	warnings = append(warnings, w...)
	errs = append(errs, e...)

	if de.Negation {
		expr = fmt.Sprintf("not (%s)", expr)
	}
	return expr, warnings, errs
}

func (c *lowerCtx) lowerElementBody(de *ums.DataElement) (string, ums.IssueList, ums.IssueList) {
	switch de.Type {
	case ums.ElementDiagnosis:
		return c.lowerRetrieve(de, "Condition", `C.clinicalStatus ~ "active"`, "C")
	case ums.ElementEncounter:
		return c.lowerEncounter(de)
	case ums.ElementProcedure:
		return c.lowerRetrieve(de, "Procedure", `P.status = 'completed'`, "P")
	case ums.ElementObservation:
		return c.lowerObservation(de)
	case ums.ElementMedication:
		return c.lowerMedication(de)
	case ums.ElementImmunization:
		return c.lowerImmunization(de)
	case ums.ElementDemographic:
		return c.lowerDemographic(de)
	case ums.ElementAssessment, ums.ElementDevice, ums.ElementAllergy, ums.ElementCommunication, ums.ElementGoal:
		return c.lowerFallback(de)
	default:
		return c.lowerFallback(de)
	}
}

// valueSetNameFor resolves a DataElement's value-set reference to its
// declared CQL name.
func (c *lowerCtx) valueSetNameFor(de *ums.DataElement) (string, bool) {
	if de.ValueSet == nil {
		return "", false
	}
	vs := c.measure.ValueSetByRef(de.ValueSet)
	if vs == nil {
		return "", false
	}
	name, ok := c.valueSetNames[vs]
	return name, ok
}

// retrievalTarget renders the `["Resource": "name"]` or, for direct-coded
// elements, `["Resource": "codeName"]` retrieval expression.
func (c *lowerCtx) retrievalTarget(de *ums.DataElement, resource string) (string, ums.IssueList) {
	if name, ok := c.valueSetNameFor(de); ok {
		return fmt.Sprintf(`["%s": "%s"]`, resource, name), nil
	}
	if len(de.DirectCodes) > 0 {
		name := codeDeclName(de, de.DirectCodes[0])
		return fmt.Sprintf(`["%s": "%s"]`, resource, name), nil
	}
	return fmt.Sprintf(`["%s"]`, resource), ums.IssueList{ums.Recoverable("NO_VALUE_SET", "DataElement %q has neither a value-set reference nor direct codes", de.ID)}
}

func (c *lowerCtx) lowerRetrieve(de *ums.DataElement, resource, statusClause, alias string) (string, ums.IssueList, ums.IssueList) {
	var warnings, errs ums.IssueList
	target, w := c.retrievalTarget(de, resource)
	warnings = append(warnings, w...)

	timingClause, tw, te := c.lowerTiming(de, alias, timingDateExprFor(de.Type, alias))
	warnings = append(warnings, tw...)
	errs = append(errs, te...)

	expr := fmt.Sprintf(`exists %s %s where %s and %s`, target, alias, statusClause, timingClause)
	return expr, warnings, errs
}

func (c *lowerCtx) lowerEncounter(de *ums.DataElement) (string, ums.IssueList, ums.IssueList) {
	var warnings, errs ums.IssueList
	target, w := c.retrievalTarget(de, "Encounter")
	warnings = append(warnings, w...)

	timingClause, tw, te := c.lowerTiming(de, "E", `E.period`)
	warnings = append(warnings, tw...)
	errs = append(errs, te...)

	expr := fmt.Sprintf(`exists %s E where %s`, target, timingClause)
	return expr, warnings, errs
}

func (c *lowerCtx) lowerObservation(de *ums.DataElement) (string, ums.IssueList, ums.IssueList) {
	var warnings, errs ums.IssueList
	target, w := c.retrievalTarget(de, "Observation")
	warnings = append(warnings, w...)

	timingClause, tw, te := c.lowerTiming(de, "O", `O.effective`)
	warnings = append(warnings, tw...)
	errs = append(errs, te...)

	thresholdClause := c.lowerThresholds(de, "O.value")

	expr := fmt.Sprintf(`exists %s O where O.status in {'final','amended'} and O.value is not null and %s`, target, timingClause)
	if thresholdClause != "" {
		expr += " and " + thresholdClause
	}
	return expr, warnings, errs
}

func (c *lowerCtx) lowerMedication(de *ums.DataElement) (string, ums.IssueList, ums.IssueList) {
	target, warnings := c.retrievalTarget(de, "MedicationRequest")
	expr := fmt.Sprintf(`exists %s M where M.status = 'active' and M.authoredOn during "Measurement Period"`, target)
	return expr, warnings, nil
}

func (c *lowerCtx) lowerImmunization(de *ums.DataElement) (string, ums.IssueList, ums.IssueList) {
	var warnings, errs ums.IssueList
	target, w := c.retrievalTarget(de, "Immunization")
	warnings = append(warnings, w...)

	timingClause, tw, te := c.lowerTiming(de, "I", `I.occurrence`)
	warnings = append(warnings, tw...)
	errs = append(errs, te...)

	required := requiredDoses(de)

	expr := fmt.Sprintf(`Count(%s I where I.status = 'completed' and %s) >= %d`, target, timingClause, required)
	return expr, warnings, errs
}

// requiredDoses extracts the required immunization dose count from the
// DataElement's description ("N doses", spelled-out one..five) or
// thresholds.valueMin, defaulting to 1 (spec §4.2/§4.7).
func requiredDoses(de *ums.DataElement) int {
	if de.Thresholds != nil && de.Thresholds.ValueMin != nil {
		return int(*de.Thresholds.ValueMin)
	}
	if n, ok := parseDoseCount(de.Description); ok {
		return n
	}
	return 1
}

var spelledNumbers = map[string]int{
	"one": 1, "two": 2, "three": 3, "four": 4, "five": 5,
}

func parseDoseCount(description string) (int, bool) {
	lower := strings.ToLower(description)
	words := strings.FieldsFunc(lower, func(r rune) bool {
		return r == ' ' || r == ',' || r == '-'
	})
	for i, w := range words {
		if w != "dose" && w != "doses" {
			continue
		}
		if i == 0 {
			continue
		}
		prev := words[i-1]
		if n, err := strconv.Atoi(prev); err == nil {
			return n, true
		}
		if n, ok := spelledNumbers[prev]; ok {
			return n, true
		}
	}
	return 0, false
}

func (c *lowerCtx) lowerDemographic(de *ums.DataElement) (string, ums.IssueList, ums.IssueList) {
	if de.Thresholds != nil && (de.Thresholds.AgeMin != nil || de.Thresholds.AgeMax != nil) {
		return lowerAgeDemographic(de), nil, nil
	}
	// Gender check: the description carries the gender token; this mirrors
	// the source's authoring convention of a free-text demographic
	// description for gender-only gates.
	gender := strings.ToLower(de.Description)
	switch {
	case strings.Contains(gender, "female"):
		return `Patient.gender = 'female'`, nil, nil
	case strings.Contains(gender, "male"):
		return `Patient.gender = 'male'`, nil, nil
	}
	return "true", ums.IssueList{ums.Recoverable("AMBIGUOUS_DEMOGRAPHIC", "demographic DataElement %q has neither age thresholds nor a recognizable gender description", de.ID)}, nil
}

func lowerAgeDemographic(de *ums.DataElement) string {
	ageExprStart := `AgeInYearsAt(start of "Measurement Period")`
	ageExprEnd := `AgeInYearsAt(end of "Measurement Period")`

	var parts []string
	if de.AgeCalculation == ums.AgeCalcTurnsDuring {
		if de.Thresholds.AgeMax != nil {
			parts = append(parts, fmt.Sprintf("%s >= %d", ageExprEnd, *de.Thresholds.AgeMax))
			parts = append(parts, fmt.Sprintf("%s <= %d", ageExprStart, *de.Thresholds.AgeMax))
		}
		return strings.Join(parts, " and ")
	}

	ageExpr := ageExprStart
	if de.AgeCalculation == ums.AgeCalcAtEnd {
		ageExpr = ageExprEnd
	}
	if de.Thresholds.AgeMin != nil {
		parts = append(parts, fmt.Sprintf("%s >= %d", ageExpr, *de.Thresholds.AgeMin))
	}
	if de.Thresholds.AgeMax != nil {
		parts = append(parts, fmt.Sprintf("%s <= %d", ageExpr, *de.Thresholds.AgeMax))
	}
	return strings.Join(parts, " and ")
}

func (c *lowerCtx) lowerFallback(de *ums.DataElement) (string, ums.IssueList, ums.IssueList) {
	var warnings, errs ums.IssueList
	resource := resourceByType[de.Type]
	if resource == "" {
		resource = "Observation"
	}
	target, w := c.retrievalTarget(de, resource)
	warnings = append(warnings, w...)

	timingClause, tw, te := c.lowerTiming(de, "X", "X.effective")
	warnings = append(warnings, tw...)
	errs = append(errs, te...)

	return fmt.Sprintf(`exists %s X where %s`, target, timingClause), warnings, errs
}

func timingDateExprFor(t ums.DataElementType, alias string) string {
	switch t {
	case ums.ElementDiagnosis:
		return alias + ".onset"
	case ums.ElementProcedure:
		return alias + ".performed"
	default:
		return alias + ".effective"
	}
}
