package evaluator

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/quality-measures/accelerator/internal/timing"
	"github.com/quality-measures/accelerator/internal/ums"
)

// Evaluator runs a single measure against patients, reusing the same
// pre-resolved measurement-period anchors across calls.
type Evaluator struct {
	measure *ums.Measure
	anchors timing.Anchors
	log     *zap.SugaredLogger
}

// New builds an Evaluator for m, resolving its measurement period once.
func New(m *ums.Measure, log *zap.SugaredLogger) (*Evaluator, error) {
	start, end, err := timing.MeasurementPeriod(m.Metadata.MeasurementPeriod)
	if err != nil {
		return nil, fmt.Errorf("resolving measurement period: %w", err)
	}
	return &Evaluator{
		measure: m,
		anchors: timing.Anchors{MeasurementPeriodStart: start, MeasurementPeriodEnd: end},
		log:     log,
	}, nil
}

func (e *Evaluator) ageAsOfDate(calc ums.AgeCalculation) string {
	switch calc {
	case ums.AgeCalcAtEnd, ums.AgeCalcTurnsDuring:
		return e.measure.Metadata.MeasurementPeriod.End
	default:
		return e.measure.Metadata.MeasurementPeriod.Start
	}
}

// Evaluate runs the full patient-evaluator pipeline (spec §4.7): pre-checks
// gate the Initial Population, then every population's clause tree is
// walked and the outcome rules applied.
func (e *Evaluator) Evaluate(p *Patient) *PatientTrace {
	e.log.Debugw("evaluating patient", "empiId", p.EMPIID, "measureId", e.measure.Metadata.MeasureID)

	ip := e.measure.PopulationOf(ums.PopulationInitial)

	ageMin, ageMax, hasAge := effectiveAgeRange(e.measure, ip)
	if hasAge {
		asOf := e.ageAsOfDate(gatedAgeCalc(e.measure))
		age, ok := ageAsOf(p.BirthDate, asOf)
		if !ok || age < ageMin || age > ageMax {
			return &PatientTrace{
				EMPIID:       p.EMPIID,
				FinalOutcome: OutcomeNotInPopulation,
				Reason:       fmt.Sprintf("patient age falls outside the required range [%d, %d]", ageMin, ageMax),
				Narrative:    "Patient does not meet the measure's age gate.",
			}
		}
	}

	requiredGender := effectiveGender(e.measure)
	if !genderSatisfied(requiredGender, p.Gender) {
		return &PatientTrace{
			EMPIID:       p.EMPIID,
			FinalOutcome: OutcomeNotInPopulation,
			Reason:       fmt.Sprintf("patient gender %q does not satisfy required gender %q", p.Gender, requiredGender),
			Narrative:    "Patient does not meet the measure's gender gate.",
		}
	}

	populations := make(map[ums.PopulationType]PopulationTrace)
	var order []ums.PopulationType
	for _, pop := range e.measure.Populations {
		trace := e.evaluatePopulation(pop, p)
		populations[pop.Type] = trace
		order = append(order, pop.Type)
	}

	ipTrace, hasIP := populations[ums.PopulationInitial]
	if !hasIP || !ipTrace.Met {
		return &PatientTrace{
			EMPIID:       p.EMPIID,
			FinalOutcome: OutcomeNotInPopulation,
			Reason:       "patient does not satisfy the initial population criteria",
			Populations:  orderedTraces(populations, order),
			Narrative:    "Patient falls outside the initial population.",
		}
	}

	denomTrace, hasDenom := populations[ums.PopulationDenominator]
	denomMet := hasDenom && denomTrace.Met
	if !hasDenom {
		denomMet = true
	}
	if !denomMet {
		return &PatientTrace{
			EMPIID:       p.EMPIID,
			FinalOutcome: OutcomeNotInPopulation,
			Reason:       "patient is in the initial population but not the denominator",
			Populations:  orderedTraces(populations, order),
			Narrative:    "Patient is in the initial population but not the denominator.",
		}
	}

	if exTrace, ok := populations[ums.PopulationDenominatorExclusion]; ok && exTrace.Met {
		return &PatientTrace{
			EMPIID:       p.EMPIID,
			FinalOutcome: OutcomeExcluded,
			Reason:       "patient meets a denominator exclusion",
			Populations:  orderedTraces(populations, order),
			Narrative:    "Patient is excluded from the denominator.",
		}
	}

	numTrace, hasNum := populations[ums.PopulationNumerator]
	if hasNum && numTrace.Met {
		return &PatientTrace{
			EMPIID:       p.EMPIID,
			FinalOutcome: OutcomeInNumerator,
			Populations:  orderedTraces(populations, order),
			Narrative:    "Patient is in the numerator.",
		}
	}

	howClose := unmetDescriptions(e.measure.PopulationOf(ums.PopulationNumerator), numTrace, 3)
	return &PatientTrace{
		EMPIID:       p.EMPIID,
		FinalOutcome: OutcomeNotInNumerator,
		Populations:  orderedTraces(populations, order),
		HowClose:     howClose,
		Narrative:    "Patient is in the denominator but not the numerator.",
	}
}

func gatedAgeCalc(m *ums.Measure) ums.AgeCalculation {
	if m.GlobalConstraints != nil && m.GlobalConstraints.AgeCalculation != "" {
		return m.GlobalConstraints.AgeCalculation
	}
	return ums.AgeCalcAtStart
}

func (e *Evaluator) evaluatePopulation(pop *ums.Population, p *Patient) PopulationTrace {
	if pop.EqualsInitialPopulation || pop.Criteria == nil {
		ip := e.measure.PopulationOf(ums.PopulationInitial)
		if ip == nil || ip == pop {
			return PopulationTrace{Population: string(pop.Type), Met: true, Root: ClauseTrace{Tag: TagPass, Met: 1, Total: 1}}
		}
		root := e.evaluateNode(ip.Criteria, p)
		return PopulationTrace{Population: string(pop.Type), Met: root.Tag == TagPass, Root: root}
	}
	root := e.evaluateNode(pop.Criteria, p)
	return PopulationTrace{Population: string(pop.Type), Met: root.Tag == TagPass, Root: root}
}

func orderedTraces(populations map[ums.PopulationType]PopulationTrace, order []ums.PopulationType) []PopulationTrace {
	out := make([]PopulationTrace, 0, len(order))
	for _, t := range order {
		out = append(out, populations[t])
	}
	return out
}

// unmetDescriptions collects up to limit DataElement descriptions that
// failed within numerator's trace, for the "how close" authoring summary
// (spec §4.7).
func unmetDescriptions(numerator *ums.Population, trace PopulationTrace, limit int) []string {
	if numerator == nil {
		return nil
	}
	var descriptions []string
	var collect func(ct ClauseTrace, node ums.ClauseNode)
	collect = func(ct ClauseTrace, node ums.ClauseNode) {
		if len(descriptions) >= limit {
			return
		}
		de, isElement := node.(*ums.DataElement)
		if ct.Kind == "element" && isElement && ct.Tag != TagPass {
			desc := de.Description
			if desc == "" {
				desc = de.ID
			}
			descriptions = append(descriptions, desc)
			return
		}
		clause, isClause := node.(*ums.LogicalClause)
		if !isClause {
			return
		}
		for i, child := range ct.Children {
			if i < len(clause.Children) {
				collect(child, clause.Children[i])
			}
		}
	}
	if numerator.Criteria != nil {
		collect(trace.Root, numerator.Criteria)
	}
	sort.Strings(descriptions)
	return descriptions
}
