// Package cqlgen lowers a validated UMS into textual CQL (spec §4.2). The
// output is intended for a downstream CQL-to-ELM translator; this package
// never attempts to execute or type-check CQL beyond the local lexical
// validation in internal/cqlvalidate.
package cqlgen

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/quality-measures/accelerator/internal/codesystem"
	"github.com/quality-measures/accelerator/internal/ums"
)

const fhirVersion = "4.0.1"

// Result is the CQL generator's output contract (spec §4.2).
type Result struct {
	Success     bool
	CQL         string
	Warnings    ums.IssueList
	Errors      ums.IssueList
	LibraryName string
}

// Generator lowers UMS measures into CQL text.
type Generator struct {
	log *zap.SugaredLogger
}

// New constructs a Generator. A nil logger falls back to zap's no-op
// logger, matching the teacher's defensive constructor convention.
func New(log *zap.SugaredLogger) *Generator {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Generator{log: log}
}

// Generate lowers m into CQL. m is assumed already Validate+Canonicalize'd
// by the caller; Generate does not re-run validation.
func (g *Generator) Generate(m *ums.Measure) Result {
	var warnings, errs ums.IssueList

	if m.Metadata.MeasurementPeriod.Start == "" || m.Metadata.MeasurementPeriod.End == "" {
		errs = append(errs, ums.Fatal("MISSING_MEASUREMENT_PERIOD", "CQL generation requires a measurement period"))
		return Result{Success: false, Errors: errs, Warnings: warnings}
	}

	libName := sanitizeIdentifier(m.Metadata.MeasureID)
	version := m.Metadata.Version
	if version == "" {
		version = "1.0.0"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "library %s version '%s'\n", libName, version)
	fmt.Fprintf(&b, "using FHIR version '%s'\n", fhirVersion)

	codeDecls, directCodeNames, codeWarnings := g.codeSystemDeclarations(m)
	warnings = append(warnings, codeWarnings...)
	for _, decl := range codeDecls {
		b.WriteString(decl)
		b.WriteString("\n")
	}

	vsDecls, vsNames := g.valueSetDeclarations(m)
	for _, decl := range vsDecls {
		b.WriteString(decl)
		b.WriteString("\n")
	}

	for _, decl := range g.directCodeDeclarations(m) {
		b.WriteString(decl)
		b.WriteString("\n")
	}

	b.WriteString("\ncontext Patient\n\n")

	lc := &lowerCtx{
		measure:         m,
		valueSetNames:   vsNames,
		directCodeNames: directCodeNames,
	}

	order := []ums.PopulationType{
		ums.PopulationInitial,
		ums.PopulationDenominator,
		ums.PopulationDenominatorExclusion,
		ums.PopulationDenominatorException,
		ums.PopulationNumerator,
		ums.PopulationNumeratorExclusion,
		ums.PopulationMeasure,
		ums.PopulationMeasureExclusion,
		ums.PopulationMeasureObservation,
	}
	for _, t := range order {
		p := m.PopulationOf(t)
		if p == nil {
			continue
		}
		expr, pWarnings, pErrs := lc.lowerPopulation(p)
		warnings = append(warnings, pWarnings...)
		errs = append(errs, pErrs...)
		fmt.Fprintf(&b, "define \"%s\":\n  %s\n\n", displayName(t), stripOuterParens(expr))
	}

	if errs.HasFatal() {
		return Result{Success: false, Errors: errs, Warnings: warnings, LibraryName: libName}
	}

	return Result{
		Success:     true,
		CQL:         b.String(),
		Warnings:    warnings,
		Errors:      errs,
		LibraryName: libName,
	}
}

// codeSystemDeclarations emits one `codesystem` declaration per distinct
// code system referenced by any DataElement.directCodes entry, and returns
// a name for each (code, system) pair for use by element lowering.
func (g *Generator) codeSystemDeclarations(m *ums.Measure) (decls []string, directCodeNames map[string]string, warnings ums.IssueList) {
	seenSystems := map[string]bool{}
	directCodeNames = map[string]string{}

	for _, p := range m.Populations {
		if p.Criteria == nil {
			continue
		}
		ums.WalkDataElements(p.Criteria, func(de *ums.DataElement) {
			for _, c := range de.DirectCodes {
				canon := codesystem.Canonicalize(c.System)
				if !seenSystems[canon] {
					seenSystems[canon] = true
				}
				name := codeDeclName(de, c)
				directCodeNames[directCodeKey(de.ID, c.Code)] = name
			}
		})
	}

	var systems []string
	for s := range seenSystems {
		systems = append(systems, s)
	}
	sort.Strings(systems)
	for _, s := range systems {
		decls = append(decls, fmt.Sprintf("codesystem \"%s\": 'urn:oid:%s'", s, systemPlaceholderOID(s)))
	}
	return decls, directCodeNames, warnings
}

func directCodeKey(elementID, code string) string { return elementID + "|" + code }

// directCodeDeclarations emits one `code "<name>": '<code>' from
// "<system>"` declaration per distinct declaration name (the code's display,
// else "<elementID>_<code>"); a later code whose name was already declared
// is skipped (spec §4.2 "Directly coded criteria").
func (g *Generator) directCodeDeclarations(m *ums.Measure) []string {
	var decls []string
	seen := map[string]bool{}
	for _, p := range m.Populations {
		if p.Criteria == nil {
			continue
		}
		ums.WalkDataElements(p.Criteria, func(de *ums.DataElement) {
			for _, c := range de.DirectCodes {
				name := codeDeclName(de, c)
				if seen[name] {
					continue
				}
				seen[name] = true
				decls = append(decls, fmt.Sprintf("code \"%s\": '%s' from \"%s\"", name, c.Code, codesystem.Canonicalize(c.System)))
			}
		})
	}
	return decls
}

func codeDeclName(de *ums.DataElement, c ums.Code) string {
	if c.Display != "" {
		return c.Display
	}
	return de.ID + "_" + c.Code
}

// systemPlaceholderOID gives deterministic, stable OID text for a
// canonical code system name when the UMS did not carry one; downstream
// CQL-to-ELM translation resolves code systems by name, and only an
// ordered, byte-stable declaration is required here (spec §8 determinism
// invariant).
var knownSystemOIDs = map[string]string{
	"ICD10":  "2.16.840.1.113883.6.90",
	"SNOMED": "2.16.840.1.113883.6.96",
	"RxNorm": "2.16.840.1.113883.6.88",
	"CPT":    "2.16.840.1.113883.6.12",
	"LOINC":  "2.16.840.1.113883.6.1",
	"CVX":    "2.16.840.1.113883.12.292",
	"HCPCS":  "2.16.840.1.113883.6.285",
	"NDC":    "2.16.840.1.113883.6.69",
}

func systemPlaceholderOID(system string) string {
	if oid, ok := knownSystemOIDs[system]; ok {
		return oid
	}
	return "2.16.840.1.113883.6.999"
}

// valueSetDeclarations emits one `valueset` declaration per distinct value
// set referenced anywhere in the measure, and returns a lookup from
// ValueSetReference identity (id/oid/name) to the declared CQL name.
func (g *Generator) valueSetDeclarations(m *ums.Measure) (decls []string, names map[*ums.ValueSetReference]string) {
	names = map[*ums.ValueSetReference]string{}
	referenced := map[*ums.ValueSetReference]bool{}

	for _, p := range m.Populations {
		if p.Criteria == nil {
			continue
		}
		ums.WalkDataElements(p.Criteria, func(de *ums.DataElement) {
			if de.ValueSet == nil {
				return
			}
			if vs := m.ValueSetByRef(de.ValueSet); vs != nil {
				referenced[vs] = true
			}
		})
	}

	var ordered []*ums.ValueSetReference
	for _, vs := range m.ValueSets {
		if referenced[vs] {
			ordered = append(ordered, vs)
		}
	}
	for _, vs := range ordered {
		names[vs] = vs.Name
		decls = append(decls, fmt.Sprintf("valueset \"%s\": 'urn:oid:%s'", vs.Name, vs.OID))
	}
	return decls, names
}
