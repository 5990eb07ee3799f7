package evaluator

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/quality-measures/accelerator/internal/timing"
	"github.com/quality-measures/accelerator/internal/ums"
)

// effectiveAgeRange resolves the age range gating the Initial Population:
// global constraints first, else the first DataElement carrying an age
// threshold found in the Initial Population's criteria tree, else text
// parsed from the population's description/narrative (spec §4.7
// "Pre-checks").
func effectiveAgeRange(m *ums.Measure, ip *ums.Population) (min, max int, ok bool) {
	if m.GlobalConstraints != nil && m.GlobalConstraints.AgeRange != nil {
		r := m.GlobalConstraints.AgeRange
		return r.Min, r.Max, true
	}

	if ip != nil && ip.Criteria != nil {
		var found *ums.Thresholds
		ums.WalkDataElements(ip.Criteria, func(de *ums.DataElement) {
			if found != nil {
				return
			}
			if de.Type == ums.ElementDemographic && de.Thresholds != nil && (de.Thresholds.AgeMin != nil || de.Thresholds.AgeMax != nil) {
				found = de.Thresholds
			}
		})
		if found != nil {
			lo, hi := 0, 130
			if found.AgeMin != nil {
				lo = *found.AgeMin
			}
			if found.AgeMax != nil {
				hi = *found.AgeMax
			}
			return lo, hi, true
		}
	}

	text := ""
	if ip != nil {
		text = ip.Description + " " + ip.Narrative
	}
	if lo, hi, found := parseAgeRangeText(text); found {
		return lo, hi, true
	}

	return 0, 0, false
}

var ageRangeRe = regexp.MustCompile(`(?i)(?:ages?|aged)\s+(\d+)\s*(?:-|to|through)\s*(\d+)`)
var ageAtLeastRe = regexp.MustCompile(`(?i)(\d+)\s*(?:years?|yrs?)\s*(?:of age\s*)?(?:or older|and older|\+)`)

func parseAgeRangeText(text string) (min, max int, ok bool) {
	if m := ageRangeRe.FindStringSubmatch(text); m != nil {
		lo, err1 := strconv.Atoi(m[1])
		hi, err2 := strconv.Atoi(m[2])
		if err1 == nil && err2 == nil {
			return lo, hi, true
		}
	}
	if m := ageAtLeastRe.FindStringSubmatch(text); m != nil {
		lo, err := strconv.Atoi(m[1])
		if err == nil {
			return lo, 130, true
		}
	}
	return 0, 0, false
}

// effectiveGender resolves the gender requirement gating the Initial
// Population from global constraints (spec §4.7).
func effectiveGender(m *ums.Measure) ums.Gender {
	if m.GlobalConstraints == nil || m.GlobalConstraints.Gender == "" {
		return ums.GenderAny
	}
	return m.GlobalConstraints.Gender
}

func genderSatisfied(required, actual ums.Gender) bool {
	if required == "" || required == ums.GenderAny || required == ums.GenderAll {
		return true
	}
	return required == actual
}

func ageAsOf(birthDate, asOf string) (int, bool) {
	b, err1 := timing.ParseDate(birthDate)
	a, err2 := timing.ParseDate(asOf)
	if err1 != nil || err2 != nil {
		return 0, false
	}
	age := a.Year() - b.Year()
	if a.Month() < b.Month() || (a.Month() == b.Month() && a.Day() < b.Day()) {
		age--
	}
	return age, true
}

var spelledNumbers = map[string]int{"one": 1, "two": 2, "three": 3, "four": 4, "five": 5}

// requiredDoseCount returns thresholds.valueMin when set; otherwise it
// parses the number of required doses from the DataElement description
// ("N doses", spelled one..five), defaulting to 1 (spec §4.7
// "Immunization dose counting").
func requiredDoseCount(de *ums.DataElement) int {
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
