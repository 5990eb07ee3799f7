// Package evaluator implements the patient evaluator (spec §4.7): given a
// measure and a denormalized patient record, it produces a PatientTrace
// showing which DataElements matched, with which facts, and which
// population(s) the patient falls in. It is the authoring oracle — the
// tool an author runs against hand-built test patients to sanity-check a
// measure before it is ever compiled to CQL or SQL.
package evaluator

import "github.com/quality-measures/accelerator/internal/ums"

// Fact is one clinical event on a patient's record, denormalized enough to
// code-match and timing-match without a join.
type Fact struct {
	Code    string   `json:"code" yaml:"code"`
	System  string   `json:"system,omitempty" yaml:"system,omitempty"`
	Display string   `json:"display,omitempty" yaml:"display,omitempty"`
	Date    string   `json:"date" yaml:"date"` // YYYY-MM-DD
	Status  string   `json:"status,omitempty" yaml:"status,omitempty"`
	Value   *float64 `json:"value,omitempty" yaml:"value,omitempty"` // observations only
}

// Patient is a FHIR-shaped but fully denormalized patient record: one slice
// per resource type, plus demographics.
type Patient struct {
	EMPIID    string     `json:"empiId" yaml:"empiId"`
	BirthDate string     `json:"birthDate" yaml:"birthDate"` // YYYY-MM-DD
	Gender    ums.Gender `json:"gender" yaml:"gender"`

	Diagnoses     []Fact `json:"diagnoses,omitempty" yaml:"diagnoses,omitempty"`
	Encounters    []Fact `json:"encounters,omitempty" yaml:"encounters,omitempty"`
	Procedures    []Fact `json:"procedures,omitempty" yaml:"procedures,omitempty"`
	Observations  []Fact `json:"observations,omitempty" yaml:"observations,omitempty"`
	Medications   []Fact `json:"medications,omitempty" yaml:"medications,omitempty"`
	Immunizations []Fact `json:"immunizations,omitempty" yaml:"immunizations,omitempty"`
}

func (p *Patient) factsFor(t ums.DataElementType) []Fact {
	switch t {
	case ums.ElementDiagnosis:
		return p.Diagnoses
	case ums.ElementEncounter:
		return p.Encounters
	case ums.ElementProcedure:
		return p.Procedures
	case ums.ElementObservation:
		return p.Observations
	case ums.ElementMedication:
		return p.Medications
	case ums.ElementImmunization:
		return p.Immunizations
	default:
		return nil
	}
}

// assessmentOrder is the polymorphic dispatch order for an `assessment`
// DataElement whose author did not pin a concrete type (spec §4.7).
var assessmentOrder = []ums.DataElementType{
	ums.ElementDiagnosis,
	ums.ElementEncounter,
	ums.ElementProcedure,
	ums.ElementObservation,
	ums.ElementImmunization,
	ums.ElementMedication,
}
