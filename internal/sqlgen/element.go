package sqlgen

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/quality-measures/accelerator/internal/ums"
)

// aliasByType is the correlated-subquery alias used per fact table, purely
// cosmetic but kept stable so generated SQL is diffable across runs.
var aliasByType = map[ums.DataElementType]string{
	ums.ElementDiagnosis:    "COND",
	ums.ElementEncounter:    "ENC",
	ums.ElementProcedure:    "PROC",
	ums.ElementObservation:  "OBS",
	ums.ElementMedication:   "MED",
	ums.ElementImmunization: "IMM",
}

func (c *sqlCtx) lowerElement(de *ums.DataElement, cteName string) (string, ums.IssueList, ums.IssueList) {
	body, warnings, errs := c.lowerElementBody(de, cteName)
	if de.Negation {
		body = fmt.Sprintf("not (%s)", body)
	}
	return body, warnings, errs
}

func (c *sqlCtx) lowerElementBody(de *ums.DataElement, cteName string) (string, ums.IssueList, ums.IssueList) {
	if de.Type == ums.ElementDemographic {
		return c.lowerDemographicElement(de)
	}

	table, err := c.catalog.TableFor(de.Type)
	if err != nil {
		return "1 = 1", ums.IssueList{ums.Recoverable("NO_SCHEMA_BINDING", "element %q: %v; emitting a tautology", de.ID, err)}, nil
	}

	var warnings, errs ums.IssueList
	alias := aliasByType[de.Type]
	if alias == "" {
		alias = "X"
	}

	codeCol, err := c.catalog.CodeColumn(table, alias)
	if err != nil {
		return "1 = 1", ums.IssueList{ums.Recoverable("NO_CODE_COLUMN", "element %q: %v", de.ID, err)}, nil
	}
	dateCol, err := c.catalog.DateColumn(table, alias)
	if err != nil {
		return "1 = 1", ums.IssueList{ums.Recoverable("NO_DATE_COLUMN", "element %q: %v", de.ID, err)}, nil
	}

	membership, mWarnings := c.codeMembership(de, table, codeCol)
	warnings = append(warnings, mWarnings...)

	populationClause := fmt.Sprintf("%s.population_id = %s", alias, c.populationIDBind(cteName))

	var statusClause string
	switch de.Type {
	case ums.ElementDiagnosis:
		statusClause = fmt.Sprintf("%s.clinical_status = 'active'", alias)
	case ums.ElementProcedure:
		statusClause = fmt.Sprintf("%s.status = 'completed'", alias)
	case ums.ElementObservation:
		statusClause = fmt.Sprintf("%s.status in ('final', 'amended')", alias)
	case ums.ElementMedication:
		statusClause = fmt.Sprintf("%s.status = 'active'", alias)
	case ums.ElementImmunization:
		statusClause = fmt.Sprintf("%s.status = 'completed'", alias)
	}

	if de.Type == ums.ElementImmunization {
		n := c.requiredDoses(de)
		nBind := c.binds.put("doseCount", n)
		timing, tWarnings, tErrs := c.lowerTiming(de, alias, dateCol)
		warnings = append(warnings, tWarnings...)
		errs = append(errs, tErrs...)
		pred := fmt.Sprintf(
			"(select count(*) from %s %s where %s) >= %s",
			table, alias, joinAnd(fmt.Sprintf("%s.empi_id = empi_id", alias), populationClause, statusClause, membership, timing), nBind,
		)
		return pred, warnings, errs
	}

	timing, tWarnings, tErrs := c.lowerTiming(de, alias, dateCol)
	warnings = append(warnings, tWarnings...)
	errs = append(errs, tErrs...)

	var threshold string
	if de.Type == ums.ElementObservation {
		resultValueCol, rvErr := c.catalog.Col(table, "result_value", alias)
		if rvErr != nil {
			errs = append(errs, ums.Recoverable("NO_RESULT_VALUE_COLUMN", "element %q: %v", de.ID, rvErr))
			resultValueCol = alias + ".result_value"
		}
		threshold = c.lowerThresholds(de, resultValueCol)
	}

	where := joinAnd(fmt.Sprintf("%s.empi_id = empi_id", alias), populationClause, statusClause, membership, timing, threshold)
	pred := fmt.Sprintf("exists (select 1 from %s %s where %s)", table, alias, where)
	return pred, warnings, errs
}

// codeMembership builds the value-set or direct-code membership predicate
// for a fact table row, per spec §4.4/§4.5. codeCol is the already
// catalog-resolved, qualified code column reference.
func (c *sqlCtx) codeMembership(de *ums.DataElement, table, codeCol string) (string, ums.IssueList) {
	if de.ValueSet != nil {
		if vs := c.measure.ValueSetByRef(de.ValueSet); vs != nil {
			oidBind := c.binds.put("vsOid_"+sanitizeBindSuffix(vs.OID), vs.OID)
			return fmt.Sprintf("%s in (select code from valueset_codes where valueset_oid = %s)", codeCol, oidBind), nil
		}
	}
	if len(de.DirectCodes) > 0 {
		var tokens []string
		for i, code := range de.DirectCodes {
			bind := c.binds.put(fmt.Sprintf("code_%s_%d", sanitizeBindSuffix(de.ID), i), code.Code)
			tokens = append(tokens, bind)
		}
		return fmt.Sprintf("%s in (%s)", codeCol, strings.Join(tokens, ", ")), nil
	}
	return "1 = 1", ums.IssueList{ums.Recoverable("NO_VALUE_SET", "element %q (table %s) has neither a resolvable value set nor direct codes; membership always true", de.ID, table)}
}

var nonWordRe = regexp.MustCompile(`[^A-Za-z0-9]+`)

func sanitizeBindSuffix(s string) string {
	return strings.Trim(nonWordRe.ReplaceAllString(s, "_"), "_")
}

// populationIDBind returns the (deduplicated) bind token scoping a fact-table
// row to the CTE's population bucket (spec §4.5: fact tables carry a
// population_id loaded per measure run).
func (c *sqlCtx) populationIDBind(cteName string) string {
	return c.binds.put("populationId_"+sanitizeBindSuffix(cteName), cteName)
}

func (c *sqlCtx) lowerDemographicElement(de *ums.DataElement) (string, ums.IssueList, ums.IssueList) {
	var warnings, errs ums.IssueList

	birthDateCol, err := c.catalog.Col("ph_d_person", "birth_date", "PD")
	if err != nil {
		errs = append(errs, ums.Recoverable("NO_BIRTH_DATE_COLUMN", "element %q: %v", de.ID, err))
		birthDateCol = "PD.birth_date"
	}
	empiIDCol, err := c.catalog.Col("ph_d_person", "empi_id", "PD")
	if err != nil {
		errs = append(errs, ums.Recoverable("NO_EMPI_ID_COLUMN", "element %q: %v", de.ID, err))
		empiIDCol = "PD.empi_id"
	}

	if de.Thresholds != nil && (de.Thresholds.AgeMin != nil || de.Thresholds.AgeMax != nil) {
		asOf := asOfExprFor(c, de.AgeCalculation)
		ageExpr := c.fns.AgeCalculation(birthDateCol, asOf)
		var parts []string
		if de.Thresholds.AgeMin != nil {
			parts = append(parts, fmt.Sprintf("(%s) >= %s", ageExpr, c.binds.put("ageMin_"+sanitizeBindSuffix(de.ID), *de.Thresholds.AgeMin)))
		}
		if de.Thresholds.AgeMax != nil {
			parts = append(parts, fmt.Sprintf("(%s) <= %s", ageExpr, c.binds.put("ageMax_"+sanitizeBindSuffix(de.ID), *de.Thresholds.AgeMax)))
		}
		pred := fmt.Sprintf("exists (select 1 from ph_d_person PD where %s = empi_id and %s)", empiIDCol, joinAnd(parts...))
		return pred, warnings, errs
	}

	genderCol, genderErr := c.catalog.Col("ph_d_person", "gender_concept_name", "PD")
	if genderErr != nil {
		errs = append(errs, ums.Recoverable("NO_GENDER_COLUMN", "element %q: %v", de.ID, genderErr))
		genderCol = "PD.gender_concept_name"
	}

	desc := strings.ToLower(de.Description)
	switch {
	case strings.Contains(desc, "female"):
		bind := c.binds.put("gender_"+sanitizeBindSuffix(de.ID), string(ums.GenderFemale))
		return fmt.Sprintf("exists (select 1 from ph_d_person PD where %s = empi_id and %s = %s)", empiIDCol, genderCol, bind), warnings, errs
	case strings.Contains(desc, "male"):
		bind := c.binds.put("gender_"+sanitizeBindSuffix(de.ID), string(ums.GenderMale))
		return fmt.Sprintf("exists (select 1 from ph_d_person PD where %s = empi_id and %s = %s)", empiIDCol, genderCol, bind), warnings, errs
	}

	warnings = append(warnings, ums.Recoverable("AMBIGUOUS_DEMOGRAPHIC", "demographic element %q has no age thresholds and no recognized gender keyword; emitting a tautology", de.ID))
	return "1 = 1", warnings, errs
}

var spelledNumbers = map[string]int{"one": 1, "two": 2, "three": 3, "four": 4, "five": 5}

// requiredDoses mirrors the CQL generator's dose-count inference: an
// explicit valueMin threshold wins, else a spelled-out or numeral count in
// the description, else a default of one (spec §4.5 immunization rule).
func (c *sqlCtx) requiredDoses(de *ums.DataElement) int {
	if de.Thresholds != nil && de.Thresholds.ValueMin != nil {
		return int(*de.Thresholds.ValueMin)
	}
	words := strings.Fields(strings.ToLower(de.Description))
	for i, w := range words {
		w = strings.Trim(w, ".,;:")
		if w != "dose" && w != "doses" {
			continue
		}
		if i == 0 {
			continue
		}
		prev := strings.Trim(words[i-1], ".,;:")
		if n, ok := spelledNumbers[prev]; ok {
			return n
		}
		if n, err := strconv.Atoi(prev); err == nil {
			return n
		}
	}
	return 1
}
