// Package ums defines the Universal Measure Specification tree: the
// language-agnostic intermediate representation that the CQL generator, the
// SQL generator, and the patient evaluator all consume.
package ums

// Program identifies the reporting program a measure belongs to.
type Program string

const (
	ProgramMIPS     Program = "MIPS"
	ProgramECQM     Program = "eCQM"
	ProgramHEDIS    Program = "HEDIS"
	ProgramQOF      Program = "QOF"
	ProgramRegistry Program = "Registry"
	ProgramCustom   Program = "Custom"
)

// MeasureType classifies the kind of quality being measured.
type MeasureType string

const (
	MeasureTypeProcess            MeasureType = "process"
	MeasureTypeOutcome            MeasureType = "outcome"
	MeasureTypeStructure          MeasureType = "structure"
	MeasureTypePatientExperience  MeasureType = "patient_experience"
)

// Scoring identifies the arithmetic used to combine populations into a rate.
type Scoring string

const (
	ScoringProportion         Scoring = "proportion"
	ScoringRatio              Scoring = "ratio"
	ScoringContinuousVariable Scoring = "continuous_variable"
	ScoringCohort             Scoring = "cohort"
)

// Gender constrains the measure's global population by sex.
type Gender string

const (
	GenderAny    Gender = "any"
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderAll    Gender = "all"
)

// AgeCalculation fixes the instant at which age is evaluated against a
// DataElement's or GlobalConstraints' age range. Promoted to an explicit
// field per the reimplementation note in spec §9 rather than inferred from
// whether ageMin is below a pediatric threshold.
type AgeCalculation string

const (
	AgeCalcAtStart     AgeCalculation = "at_start"
	AgeCalcAtEnd       AgeCalculation = "at_end"
	AgeCalcDuring      AgeCalculation = "during"
	AgeCalcTurnsDuring AgeCalculation = "turns_during"
)

// Period is an inclusive calendar-date interval with no time-zone component.
type Period struct {
	Start     string `json:"start" yaml:"start"` // YYYY-MM-DD
	End       string `json:"end" yaml:"end"`
	Inclusive bool   `json:"inclusive" yaml:"inclusive"`
}

// Metadata carries identifying information for a Measure.
type Metadata struct {
	MeasureID        string      `json:"measureId" yaml:"measureId"`
	Title            string      `json:"title" yaml:"title"`
	Version          string      `json:"version" yaml:"version"`
	Program          Program     `json:"program" yaml:"program"`
	MeasureType      MeasureType `json:"measureType" yaml:"measureType"`
	Scoring          Scoring     `json:"scoring" yaml:"scoring"`
	MeasurementPeriod Period     `json:"measurementPeriod" yaml:"measurementPeriod"`
}

// AgeRange bounds a population by age, in years, inclusive.
type AgeRange struct {
	Min int `json:"min" yaml:"min"`
	Max int `json:"max" yaml:"max"`
}

// GlobalConstraints are measure-wide demographic gates applied before any
// population-specific criteria.
type GlobalConstraints struct {
	AgeRange       *AgeRange      `json:"ageRange,omitempty" yaml:"ageRange,omitempty"`
	AgeCalculation AgeCalculation `json:"ageCalculation,omitempty" yaml:"ageCalculation,omitempty"`
	Gender         Gender         `json:"gender,omitempty" yaml:"gender,omitempty"`
}

// PopulationType enumerates the five core population slots and their
// auxiliary variants.
type PopulationType string

const (
	PopulationInitial               PopulationType = "initial_population"
	PopulationDenominator           PopulationType = "denominator"
	PopulationDenominatorExclusion  PopulationType = "denominator_exclusion"
	PopulationDenominatorException PopulationType = "denominator_exception"
	PopulationNumerator             PopulationType = "numerator"
	PopulationNumeratorExclusion    PopulationType = "numerator_exclusion"
	PopulationMeasure               PopulationType = "measure_population"
	PopulationMeasureExclusion      PopulationType = "measure_population_exclusion"
	PopulationMeasureObservation    PopulationType = "measure_observation"
)

// Population is one named population slot and the clause tree that defines
// membership in it.
type Population struct {
	Type        PopulationType `json:"type" yaml:"type"`
	Description string         `json:"description" yaml:"description"`
	Narrative   string         `json:"narrative,omitempty" yaml:"narrative,omitempty"`
	Criteria    *LogicalClause `json:"criteria" yaml:"criteria"`

	// EqualsInitialPopulation is an explicit flag promoted from the source's
	// keyword-sniffed "denominator equals IP" detection (spec §9 Open
	// Question). When false and the population's own Description contains
	// the keyword, or its Criteria clause has no children, canonicalization
	// infers and sets it.
	EqualsInitialPopulation bool `json:"equalsInitialPopulation,omitempty" yaml:"equalsInitialPopulation,omitempty"`
}

// Operator is a LogicalClause boolean connective.
type Operator string

const (
	OpAND Operator = "AND"
	OpOR  Operator = "OR"
	OpNOT Operator = "NOT"
)

// SiblingConnection overrides the clause's default Operator for one
// adjacent pair of children, enabling mixed AND/OR within a single clause
// without additional nesting.
type SiblingConnection struct {
	LeftIndex  int      `json:"leftIndex" yaml:"leftIndex"`
	RightIndex int      `json:"rightIndex" yaml:"rightIndex"`
	Operator   Operator `json:"operator" yaml:"operator"`
}

// ReviewStatus is authoring metadata only; the compilation pipeline and
// evaluator ignore it entirely (spec §3.1 invariant 5).
type ReviewStatus string

const (
	ReviewPending  ReviewStatus = "pending"
	ReviewApproved ReviewStatus = "approved"
	ReviewFlagged  ReviewStatus = "flagged"
)

// ClauseNode is implemented by LogicalClause (interior) and DataElement
// (leaf). A tagged-variant dispatch, not open polymorphism, per spec §9
// design note.
type ClauseNode interface {
	NodeID() string
	isClauseNode()
}

// LogicalClause is an interior node of a population's criteria tree.
type LogicalClause struct {
	ID                 string              `json:"id" yaml:"id"`
	Operator           Operator            `json:"operator" yaml:"operator"`
	Description        string              `json:"description,omitempty" yaml:"description,omitempty"`
	Children           []ClauseNode        `json:"children" yaml:"children"`
	SiblingConnections []SiblingConnection `json:"siblingConnections,omitempty" yaml:"siblingConnections,omitempty"`
	ReviewStatus       ReviewStatus        `json:"reviewStatus,omitempty" yaml:"reviewStatus,omitempty"`
}

func (c *LogicalClause) NodeID() string { return c.ID }
func (c *LogicalClause) isClauseNode()  {}

// DataElementType dispatches DataElement interpretation in the generators
// and the evaluator.
type DataElementType string

const (
	ElementDiagnosis     DataElementType = "diagnosis"
	ElementEncounter     DataElementType = "encounter"
	ElementProcedure     DataElementType = "procedure"
	ElementObservation   DataElementType = "observation"
	ElementMedication    DataElementType = "medication"
	ElementImmunization  DataElementType = "immunization"
	ElementDemographic   DataElementType = "demographic"
	ElementAssessment    DataElementType = "assessment"
	ElementDevice        DataElementType = "device"
	ElementAllergy       DataElementType = "allergy"
	ElementCommunication DataElementType = "communication"
	ElementGoal          DataElementType = "goal"
)

// Comparator is a numeric threshold comparison operator.
type Comparator string

const (
	CmpGT      Comparator = ">"
	CmpGTE     Comparator = ">="
	CmpLT      Comparator = "<"
	CmpLTE     Comparator = "<="
	CmpEQ      Comparator = "="
	CmpNEQ     Comparator = "!="
	CmpBetween Comparator = "between"
)

// Thresholds bounds a DataElement by age or observed value.
type Thresholds struct {
	AgeMin     *int        `json:"ageMin,omitempty" yaml:"ageMin,omitempty"`
	AgeMax     *int        `json:"ageMax,omitempty" yaml:"ageMax,omitempty"`
	ValueMin   *float64    `json:"valueMin,omitempty" yaml:"valueMin,omitempty"`
	ValueMax   *float64    `json:"valueMax,omitempty" yaml:"valueMax,omitempty"`
	Comparator Comparator  `json:"comparator,omitempty" yaml:"comparator,omitempty"`
}

// TimeUnit is a calendar unit used in both timing forms.
type TimeUnit string

const (
	UnitDays   TimeUnit = "days"
	UnitWeeks  TimeUnit = "weeks"
	UnitMonths TimeUnit = "months"
	UnitYears  TimeUnit = "years"
	UnitHours  TimeUnit = "hours"
)

// Direction is the legacy timing form's window direction.
type Direction string

const (
	DirBefore Direction = "before"
	DirAfter  Direction = "after"
	DirWithin Direction = "within"
)

// Window is the legacy timing form's offset specification.
type Window struct {
	Value     int       `json:"value" yaml:"value"`
	Unit      TimeUnit  `json:"unit" yaml:"unit"`
	Direction Direction `json:"direction" yaml:"direction"`
}

// TimingRequirement is the legacy (pre-structured-form) timing shape.
// Authoring pre-dates TimingConstraint; never silently dropped during
// canonicalization (spec §9 design note) even when a TimingConstraint is
// also promoted.
type TimingRequirement struct {
	Description string  `json:"description,omitempty" yaml:"description,omitempty"`
	RelativeTo  string  `json:"relativeTo" yaml:"relativeTo"`
	Window      *Window `json:"window,omitempty" yaml:"window,omitempty"`
}

// Anchor is the reference point a TimingConstraint's offset is measured
// from.
type Anchor string

const (
	AnchorMeasurementPeriod Anchor = "MeasurementPeriod"
	AnchorIPSD              Anchor = "IPSD"
	AnchorEventDate         Anchor = "EventDate"
)

// Side selects which edge of the anchor the offset is applied to, or
// "during" for full containment.
type Side string

const (
	SideBeforeStart Side = "before_start"
	SideAfterStart  Side = "after_start"
	SideBeforeEnd   Side = "before_end"
	SideAfterEnd    Side = "after_end"
	SideDuring      Side = "during"
)

// Offset is a signed calendar-unit quantity applied from an Anchor/Side.
type Offset struct {
	Value int      `json:"value" yaml:"value"`
	Unit  TimeUnit `json:"unit" yaml:"unit"`
}

// TimingConstraint is the structured timing form, authoritative over
// TimingRequirement when both are present.
type TimingConstraint struct {
	Anchor          Anchor  `json:"anchor" yaml:"anchor"`
	Side            Side    `json:"side" yaml:"side"`
	Offset          *Offset `json:"offset,omitempty" yaml:"offset,omitempty"`
	ReferenceAnchor string  `json:"referenceAnchor,omitempty" yaml:"referenceAnchor,omitempty"`
}

// Code is a single clinical code within a value set or a direct-code list.
type Code struct {
	Code    string `json:"code" yaml:"code"`
	System  string `json:"system" yaml:"system"`
	Display string `json:"display,omitempty" yaml:"display,omitempty"`
}

// ValueSetReference names a value set used by one or more DataElements.
type ValueSetReference struct {
	ID      string `json:"id" yaml:"id"`
	OID     string `json:"oid" yaml:"oid"`
	Name    string `json:"name" yaml:"name"`
	Version string `json:"version,omitempty" yaml:"version,omitempty"`
	Codes   []Code `json:"codes,omitempty" yaml:"codes,omitempty"`
}

// ValueSetUse is how a DataElement references a value set: by id, oid, or
// name, resolved in that precedence order (spec §3.1 invariant 2).
type ValueSetUse struct {
	ID   string `json:"id,omitempty" yaml:"id,omitempty"`
	OID  string `json:"oid,omitempty" yaml:"oid,omitempty"`
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
}

// DataElement is a leaf of the criteria tree: a single clinical fact check.
type DataElement struct {
	ID          string          `json:"id" yaml:"id"`
	Type        DataElementType `json:"type" yaml:"type"`
	Description string          `json:"description,omitempty" yaml:"description,omitempty"`

	ValueSet    *ValueSetUse `json:"valueSet,omitempty" yaml:"valueSet,omitempty"`
	DirectCodes []Code       `json:"directCodes,omitempty" yaml:"directCodes,omitempty"`

	Thresholds *Thresholds `json:"thresholds,omitempty" yaml:"thresholds,omitempty"`

	// TimingRequirements and TimingOverride are mutually exclusive in
	// authoring intent; TimingOverride wins when both are set (spec §3.1
	// invariant 3).
	TimingRequirements []TimingRequirement `json:"timingRequirements,omitempty" yaml:"timingRequirements,omitempty"`
	TimingOverride     *TimingConstraint   `json:"timingOverride,omitempty" yaml:"timingOverride,omitempty"`

	Negation bool `json:"negation,omitempty" yaml:"negation,omitempty"`

	// AgeCalculation is set on demographic elements; promoted explicitly
	// (spec §9 Open Question) rather than inferred from AgeMin at codegen
	// time.
	AgeCalculation AgeCalculation `json:"ageCalculation,omitempty" yaml:"ageCalculation,omitempty"`

	ReviewStatus ReviewStatus `json:"reviewStatus,omitempty" yaml:"reviewStatus,omitempty"`
}

func (d *DataElement) NodeID() string { return d.ID }
func (d *DataElement) isClauseNode()   {}

// EffectiveTiming returns the timing constraint that governs this element,
// promoting TimingOverride over TimingRequirements, and reports whether any
// timing was specified at all.
func (d *DataElement) EffectiveTiming() (*TimingConstraint, []TimingRequirement, bool) {
	if d.TimingOverride != nil {
		return d.TimingOverride, d.TimingRequirements, true
	}
	if len(d.TimingRequirements) > 0 {
		return nil, d.TimingRequirements, true
	}
	return nil, nil, false
}

// Measure is the root of a Universal Measure Specification.
type Measure struct {
	Metadata          Metadata           `json:"metadata" yaml:"metadata"`
	GlobalConstraints *GlobalConstraints `json:"globalConstraints,omitempty" yaml:"globalConstraints,omitempty"`
	Populations       []*Population      `json:"populations" yaml:"populations"`
	ValueSets         []*ValueSetReference `json:"valueSets" yaml:"valueSets"`
}

// PopulationOf returns the measure's population of the given type, or nil.
func (m *Measure) PopulationOf(t PopulationType) *Population {
	for _, p := range m.Populations {
		if p.Type == t {
			return p
		}
	}
	return nil
}

// ValueSetByRef resolves a ValueSetUse against the measure's value sets,
// honoring id > oid > name precedence (spec §3.1 invariant 2).
func (m *Measure) ValueSetByRef(ref *ValueSetUse) *ValueSetReference {
	if ref == nil {
		return nil
	}
	if ref.ID != "" {
		for _, vs := range m.ValueSets {
			if vs.ID == ref.ID {
				return vs
			}
		}
	}
	if ref.OID != "" {
		for _, vs := range m.ValueSets {
			if vs.OID == ref.OID {
				return vs
			}
		}
	}
	if ref.Name != "" {
		for _, vs := range m.ValueSets {
			if vs.Name == ref.Name {
				return vs
			}
		}
	}
	return nil
}
