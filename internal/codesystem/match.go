// Package codesystem implements code-system canonicalization and code
// matching (spec §4.8): normalize both sides, then compare code + system.
// No wildcard or hierarchy expansion is performed; value-set pre-expansion
// via the ValueSetResolver is assumed to have already happened upstream.
package codesystem

import "strings"

// canonicalAliases maps every spelling variant seen in authored measures to
// one canonical system name. Lookups are case-insensitive and ignore spaces
// (normalizeSystemKey upper-cases and strips spaces before the map lookup);
// dashed and undashed spellings are listed as separate keys.
var canonicalAliases = map[string]string{
	"ICD10":     "ICD10",
	"ICD10CM":   "ICD10",
	"ICD-10-CM": "ICD10",
	"ICD-10":    "ICD10",
	"SNOMEDCT":  "SNOMED",
	"SNOMED-CT": "SNOMED",
	"SNOMED":    "SNOMED",
	"RXNORM":    "RxNorm",
	"RXNORM-CUI": "RxNorm",
	"CPT4":      "CPT",
	"CPT-4":     "CPT",
	"CPT":       "CPT",
	"LOINC":     "LOINC",
	"CVX":       "CVX",
	"HCPCS":     "HCPCS",
	"NDC":       "NDC",
}

// Canonicalize normalizes a code-system spelling to its canonical form. An
// unrecognized system is returned upper-cased with spaces removed (dashes
// are kept) rather than rejected. No stage reports an unknown code system
// as an issue; the system is carried through as returned here.
func Canonicalize(system string) string {
	key := normalizeSystemKey(system)
	if canon, ok := canonicalAliases[key]; ok {
		return canon
	}
	return strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(system), " ", ""))
}

func normalizeSystemKey(system string) string {
	s := strings.ToUpper(strings.TrimSpace(system))
	s = strings.ReplaceAll(s, " ", "")
	return s
}

// normalizeCode upper-cases a code and strips decimal points (from every
// code, whatever its system) so "E11.9" and "E119" compare equal.
func normalizeCode(code string) string {
	c := strings.ToUpper(strings.TrimSpace(code))
	c = strings.ReplaceAll(c, ".", "")
	return c
}

// Match reports whether (codeA, systemA) and (codeB, systemB) identify the
// same clinical code: code equality AND (system equality OR either side's
// system is unknown/empty). See spec §4.8.
func Match(codeA, systemA, codeB, systemB string) bool {
	if normalizeCode(codeA) != normalizeCode(codeB) {
		return false
	}
	if systemA == "" || systemB == "" {
		return true
	}
	return Canonicalize(systemA) == Canonicalize(systemB)
}
