// Package schema is the typed, compile-time-ish table/column catalog the
// SQL generator binds against (spec §4.5). Catalog.Col returns an error on
// an unknown reference. The generator resolves its code, date,
// result-value and demographic (birth date, gender, person ID) columns
// through it; the remaining columns it emits (population_id, status,
// clinical_status, the fact-table empi_id join, the valueset_codes lookup
// and the person-list CTE) are written as literals and not checked here.
package schema

import (
	"fmt"

	"github.com/quality-measures/accelerator/internal/ums"
)

// ColumnType is the catalog's coarse column typing, just enough to steer
// generator lowering decisions (e.g. whether a comparison needs quoting).
type ColumnType string

const (
	ColText    ColumnType = "text"
	ColDate    ColumnType = "date"
	ColNumber  ColumnType = "number"
	ColBool    ColumnType = "bool"
)

// Column describes one column of a Table.
type Column struct {
	Name     string
	Type     ColumnType
	Nullable bool
	PK       bool
	FK       string // "table.column", empty if none
}

// Table describes one fact or dimension table.
type Table struct {
	Name       string
	Columns    map[string]Column
	PrimaryKey string
	Indexes    []string
}

// Catalog is the full schema binding: tables keyed by name, plus the
// DataElement.Type -> table name mapping (spec §4.5).
type Catalog struct {
	Tables        map[string]Table
	TypeToTable   map[ums.DataElementType]string
}

// Col is the schema-binding gate for the generator's code, date,
// result-value and demographic columns (see the package doc for the
// columns that do not go through it). It resolves (table, column) against
// the catalog and returns the qualified reference "alias.column" (or
// "table.column" if alias is empty), and returns an error for any table or
// column the catalog does not declare — the fatal "missing column
// referenced by a lowering rule" condition from spec §4.4's error surface.
func (c *Catalog) Col(table, column, alias string) (string, error) {
	t, ok := c.Tables[table]
	if !ok {
		return "", fmt.Errorf("unknown table %q", table)
	}
	col, ok := t.Columns[column]
	if !ok {
		return "", fmt.Errorf("unknown column %q on table %q", column, table)
	}
	qualifier := table
	if alias != "" {
		qualifier = alias
	}
	return qualifier + "." + col.Name, nil
}

// TableFor resolves the fact table bound to a DataElement.Type. An unknown
// type is a Fatal schema-binding error (spec §4.5).
func (c *Catalog) TableFor(elementType ums.DataElementType) (string, error) {
	name, ok := c.TypeToTable[elementType]
	if !ok {
		return "", fmt.Errorf("no schema table bound for DataElement type %q", elementType)
	}
	if _, ok := c.Tables[name]; !ok {
		return "", fmt.Errorf("table %q bound for type %q is not declared in the catalog", name, elementType)
	}
	return name, nil
}

// Default returns the clinical warehouse catalog spec §4.4/§4.5 describes:
// fact tables per resource type plus a shared valueset_codes index and a
// person dimension.
func Default() *Catalog {
	c := &Catalog{
		Tables: map[string]Table{
			"ph_d_person": {
				Name: "ph_d_person",
				Columns: map[string]Column{
					"empi_id":             {Name: "empi_id", Type: ColText, PK: true},
					"birth_date":          {Name: "birth_date", Type: ColDate},
					"gender_concept_name": {Name: "gender_concept_name", Type: ColText},
				},
				PrimaryKey: "empi_id",
			},
			"ph_f_condition": {
				Name: "ph_f_condition",
				Columns: map[string]Column{
					"empi_id":        {Name: "empi_id", Type: ColText, FK: "ph_d_person.empi_id"},
					"population_id":  {Name: "population_id", Type: ColText},
					"condition_code": {Name: "condition_code", Type: ColText},
					"onset_date":     {Name: "onset_date", Type: ColDate},
					"clinical_status": {Name: "clinical_status", Type: ColText},
				},
			},
			"ph_f_encounter": {
				Name: "ph_f_encounter",
				Columns: map[string]Column{
					"empi_id":         {Name: "empi_id", Type: ColText, FK: "ph_d_person.empi_id"},
					"population_id":   {Name: "population_id", Type: ColText},
					"encounter_code":  {Name: "encounter_code", Type: ColText},
					"encounter_date":  {Name: "encounter_date", Type: ColDate},
				},
			},
			"ph_f_procedure": {
				Name: "ph_f_procedure",
				Columns: map[string]Column{
					"empi_id":         {Name: "empi_id", Type: ColText, FK: "ph_d_person.empi_id"},
					"population_id":   {Name: "population_id", Type: ColText},
					"procedure_code":  {Name: "procedure_code", Type: ColText},
					"performed_date":  {Name: "performed_date", Type: ColDate},
					"status":          {Name: "status", Type: ColText},
				},
			},
			"ph_f_result": {
				Name: "ph_f_result",
				Columns: map[string]Column{
					"empi_id":         {Name: "empi_id", Type: ColText, FK: "ph_d_person.empi_id"},
					"population_id":   {Name: "population_id", Type: ColText},
					"result_code":     {Name: "result_code", Type: ColText},
					"result_date":     {Name: "result_date", Type: ColDate},
					"result_value":    {Name: "result_value", Type: ColNumber},
					"status":          {Name: "status", Type: ColText},
				},
			},
			"ph_f_medication": {
				Name: "ph_f_medication",
				Columns: map[string]Column{
					"empi_id":         {Name: "empi_id", Type: ColText, FK: "ph_d_person.empi_id"},
					"population_id":   {Name: "population_id", Type: ColText},
					"medication_code": {Name: "medication_code", Type: ColText},
					"authored_date":   {Name: "authored_date", Type: ColDate},
					"status":          {Name: "status", Type: ColText},
				},
			},
			"ph_f_immunization": {
				Name: "ph_f_immunization",
				Columns: map[string]Column{
					"empi_id":             {Name: "empi_id", Type: ColText, FK: "ph_d_person.empi_id"},
					"population_id":       {Name: "population_id", Type: ColText},
					"immunization_code":   {Name: "immunization_code", Type: ColText},
					"administered_date":   {Name: "administered_date", Type: ColDate},
					"status":              {Name: "status", Type: ColText},
				},
			},
			"valueset_codes": {
				Name: "valueset_codes",
				Columns: map[string]Column{
					"valueset_oid": {Name: "valueset_oid", Type: ColText},
					"code":         {Name: "code", Type: ColText},
					"code_system":  {Name: "code_system", Type: ColText},
				},
			},
		},
		TypeToTable: map[ums.DataElementType]string{
			ums.ElementDiagnosis:    "ph_f_condition",
			ums.ElementProcedure:    "ph_f_procedure",
			ums.ElementObservation:  "ph_f_result",
			ums.ElementImmunization: "ph_f_immunization",
			ums.ElementMedication:   "ph_f_medication",
			ums.ElementEncounter:    "ph_f_encounter",
			ums.ElementDemographic:  "ph_d_person",
		},
	}
	return c
}

// codeColumnByTable records which declared column carries a fact table's
// clinical code, used by the SQL generator's value-set membership
// predicate. This is the intent mapping only — CodeColumn still resolves
// the result through Col, so a stale or mistyped entry here is caught as
// an unknown-column error rather than silently emitted.
var codeColumnByTable = map[string]string{
	"ph_f_condition":    "condition_code",
	"ph_f_encounter":    "encounter_code",
	"ph_f_procedure":    "procedure_code",
	"ph_f_result":       "result_code",
	"ph_f_medication":   "medication_code",
	"ph_f_immunization": "immunization_code",
}

// dateColumnByTable records which declared column is a fact table's
// primary event date, used by timing predicates. See codeColumnByTable on
// how this stays cross-validated against Tables.
var dateColumnByTable = map[string]string{
	"ph_f_condition":    "onset_date",
	"ph_f_encounter":    "encounter_date",
	"ph_f_procedure":    "performed_date",
	"ph_f_result":       "result_date",
	"ph_f_medication":   "authored_date",
	"ph_f_immunization": "administered_date",
}

// CodeColumn returns the code column bound to table, qualified with alias
// (or table, if alias is empty). It resolves through Col, so a table or
// column codeColumnByTable names but the catalog does not declare is
// reported as a schema-binding error rather than emitted silently.
func (c *Catalog) CodeColumn(table, alias string) (string, error) {
	col, ok := codeColumnByTable[table]
	if !ok {
		return "", fmt.Errorf("table %q has no bound code column", table)
	}
	return c.Col(table, col, alias)
}

// DateColumn returns the primary event-date column bound to table,
// qualified with alias (or table, if alias is empty), resolved through
// Col for the same reason as CodeColumn.
func (c *Catalog) DateColumn(table, alias string) (string, error) {
	col, ok := dateColumnByTable[table]
	if !ok {
		return "", fmt.Errorf("table %q has no bound date column", table)
	}
	return c.Col(table, col, alias)
}
