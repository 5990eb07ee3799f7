package evaluator

import (
	"fmt"
	"strings"

	"github.com/quality-measures/accelerator/internal/codesystem"
	"github.com/quality-measures/accelerator/internal/timing"
	"github.com/quality-measures/accelerator/internal/ums"
)

// elementResult is the outcome of evaluating a single DataElement against a
// patient, before negation is applied.
type elementResult struct {
	met   bool
	facts []TracedFact
	note  string
}

func (e *Evaluator) evaluateElement(de *ums.DataElement, p *Patient) ClauseTrace {
	res := e.evaluateElementBody(de, p)
	met := res.met
	if de.Negation {
		met = !met
	}

	tag := TagFail
	if met {
		tag = TagPass
	}

	return ClauseTrace{
		NodeID:     de.ID,
		Kind:       "element",
		Tag:        tag,
		Met:        boolToInt(met),
		Total:      1,
		Facts:      res.facts,
		CQLSnippet: elementSnippet(de, res.note),
	}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func elementSnippet(de *ums.DataElement, note string) string {
	if note != "" {
		return fmt.Sprintf("%s — %s", de.Description, note)
	}
	return de.Description
}

func (e *Evaluator) evaluateElementBody(de *ums.DataElement, p *Patient) elementResult {
	switch de.Type {
	case ums.ElementDemographic:
		return e.evaluateDemographic(de, p)
	case ums.ElementAssessment:
		return e.evaluateAssessment(de, p)
	case ums.ElementImmunization:
		return e.evaluateImmunization(de, p)
	default:
		return e.evaluateCodedFact(de, de.Type, p)
	}
}

// evaluateAssessment tries each concrete resource type in turn, first match
// wins (spec §4.7 "assessment: polymorphic").
func (e *Evaluator) evaluateAssessment(de *ums.DataElement, p *Patient) elementResult {
	for _, t := range assessmentOrder {
		res := e.evaluateCodedFact(de, t, p)
		if res.met {
			return res
		}
	}
	return elementResult{met: false}
}

// evaluateCodedFact scans the patient's facts of the given type for a code
// match, timing match, and (for observations) threshold match.
func (e *Evaluator) evaluateCodedFact(de *ums.DataElement, t ums.DataElementType, p *Patient) elementResult {
	codes := e.candidateCodes(de)
	if len(codes) == 0 {
		return elementResult{met: false, note: "no resolvable codes"}
	}

	for _, f := range p.factsFor(t) {
		if !anyCodeMatches(codes, f) {
			continue
		}
		if !e.timingMatches(de, f) {
			continue
		}
		if t == ums.ElementObservation && !thresholdMatches(de.Thresholds, f.Value) {
			continue
		}
		return elementResult{
			met:   true,
			facts: []TracedFact{{Code: f.Code, Display: f.Display, Date: f.Date, Source: string(t)}},
		}
	}
	return elementResult{met: false}
}

func anyCodeMatches(codes []ums.Code, f Fact) bool {
	for _, c := range codes {
		if codesystem.Match(c.Code, c.System, f.Code, f.System) {
			return true
		}
	}
	return false
}

func (e *Evaluator) candidateCodes(de *ums.DataElement) []ums.Code {
	if de.ValueSet != nil {
		if vs := e.measure.ValueSetByRef(de.ValueSet); vs != nil {
			return vs.Codes
		}
	}
	return de.DirectCodes
}

func (e *Evaluator) timingMatches(de *ums.DataElement, f Fact) bool {
	d, err := timing.ParseDate(f.Date)
	if err != nil {
		return false
	}

	tc, legacy, has := de.EffectiveTiming()
	if !has {
		return e.anchors.MeasurementPeriodWindow().Contains(d)
	}
	if tc != nil {
		w, ok, err := timing.ResolveConstraint(tc, e.anchors)
		if err != nil {
			return false
		}
		if !ok {
			// EventDate-anchored: no independent window, treated as always
			// satisfied by the event itself (spec §4.9).
			return true
		}
		return w.Contains(d)
	}
	w, ok := timing.ResolveLegacy(legacy[0], e.anchors)
	if !ok {
		return e.anchors.MeasurementPeriodWindow().Contains(d)
	}
	return w.Contains(d)
}

func thresholdMatches(t *ums.Thresholds, value *float64) bool {
	if t == nil {
		return true
	}
	if value == nil {
		return false
	}
	v := *value

	switch t.Comparator {
	case ums.CmpGT:
		return t.ValueMin != nil && v > *t.ValueMin
	case ums.CmpGTE:
		return t.ValueMin != nil && v >= *t.ValueMin
	case ums.CmpLT:
		return t.ValueMax != nil && v < *t.ValueMax
	case ums.CmpLTE:
		return t.ValueMax != nil && v <= *t.ValueMax
	case ums.CmpEQ:
		return t.ValueMin != nil && v == *t.ValueMin
	case ums.CmpNEQ:
		return t.ValueMin != nil && v != *t.ValueMin
	case ums.CmpBetween:
		return t.ValueMin != nil && t.ValueMax != nil && v >= *t.ValueMin && v <= *t.ValueMax
	default:
		if t.ValueMin != nil && v < *t.ValueMin {
			return false
		}
		if t.ValueMax != nil && v > *t.ValueMax {
			return false
		}
		return true
	}
}

func (e *Evaluator) evaluateDemographic(de *ums.DataElement, p *Patient) elementResult {
	if de.Thresholds != nil && (de.Thresholds.AgeMin != nil || de.Thresholds.AgeMax != nil) {
		asOf := e.ageAsOfDate(de.AgeCalculation)
		age, ok := ageAsOf(p.BirthDate, asOf)
		if !ok {
			return elementResult{met: false, note: "unparseable birth date"}
		}
		if de.Thresholds.AgeMin != nil && age < *de.Thresholds.AgeMin {
			return elementResult{met: false, note: fmt.Sprintf("age %d below minimum", age)}
		}
		if de.Thresholds.AgeMax != nil && age > *de.Thresholds.AgeMax {
			return elementResult{met: false, note: fmt.Sprintf("age %d above maximum", age)}
		}
		return elementResult{met: true, note: fmt.Sprintf("age %d", age)}
	}

	return elementResult{met: genderFromDescription(de.Description, p.Gender)}
}

func genderFromDescription(desc string, actual ums.Gender) bool {
	lower := strings.ToLower(desc)
	switch {
	case strings.Contains(lower, "female"):
		return actual == ums.GenderFemale
	case strings.Contains(lower, "male"):
		return actual == ums.GenderMale
	default:
		return true
	}
}

func (e *Evaluator) evaluateImmunization(de *ums.DataElement, p *Patient) elementResult {
	codes := e.candidateCodes(de)
	required := requiredDoseCount(de)

	var facts []TracedFact
	for _, f := range p.Immunizations {
		if !anyCodeMatches(codes, f) {
			continue
		}
		if !e.timingMatches(de, f) {
			continue
		}
		facts = append(facts, TracedFact{Code: f.Code, Display: f.Display, Date: f.Date, Source: "immunization"})
	}

	met := len(facts) >= required
	note := fmt.Sprintf("DOSE_COUNT %d of %d", len(facts), required)
	return elementResult{met: met, facts: facts, note: note}
}
