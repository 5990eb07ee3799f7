package cqlvalidate

import (
	"regexp"
	"strings"
)

// Metadata summarizes the generated library, extracted purely lexically
// (spec §4.3 output contract).
type Metadata struct {
	LibraryName     string
	Version         string
	DefinitionCount int
	ValueSetCount   int
}

// Result is the local validator's output contract (spec §4.3).
type Result struct {
	Valid    bool
	Errors   []string
	Warnings []string
	Metadata Metadata
}

var (
	libraryPattern  = regexp.MustCompile(`(?m)^library\s+([A-Za-z_][A-Za-z0-9_]*)\s+version\s+'([^']*)'`)
	usingPattern    = regexp.MustCompile(`(?m)^using\s+\S+`)
	contextPattern  = regexp.MustCompile(`(?m)^context\s+\S+`)
	definePattern   = regexp.MustCompile(`(?m)^define\s*("[^"]*"|[A-Za-z_][A-Za-z0-9_]*)\s*:`)
	valuesetPattern = regexp.MustCompile(`(?m)^valueset\s+"([^"]*)"\s*:`)
	emptyIdentRe    = regexp.MustCompile(`""`)
	defineNoColonRe = regexp.MustCompile(`(?m)^define\s+"[^"]*"\s*[^:\n]`)
)

// Validate runs the local, offline checks against generated CQL text
// (spec §4.3). It never calls out to a remote translator; see
// RemoteClient.ValidateRemote for that.
func Validate(cql string) Result {
	var errs, warnings []string

	if err := scanDelimiters(cql); err != nil {
		errs = append(errs, err.Error())
	}

	if !libraryPattern.MatchString(cql) {
		errs = append(errs, "missing required 'library <name> version' declaration")
	}
	if !usingPattern.MatchString(cql) {
		errs = append(errs, "missing required 'using' declaration")
	}
	if !contextPattern.MatchString(cql) {
		errs = append(errs, "missing required 'context' declaration")
	}

	if emptyIdentRe.MatchString(cql) {
		errs = append(errs, `empty "" identifier`)
	}
	if defineNoColonRe.MatchString(cql) {
		errs = append(errs, "define without a trailing ':'")
	}

	warnings = append(warnings, findTypos(cql)...)
	warnings = append(warnings, findUnusedValueSets(cql)...)
	warnings = append(warnings, findTrivialDefines(cql)...)

	meta := extractMetadata(cql)

	return Result{
		Valid:    len(errs) == 0,
		Errors:   errs,
		Warnings: warnings,
		Metadata: meta,
	}
}

func extractMetadata(cql string) Metadata {
	meta := Metadata{}
	if m := libraryPattern.FindStringSubmatch(cql); m != nil {
		meta.LibraryName = m[1]
		meta.Version = m[2]
	}
	meta.DefinitionCount = len(definePattern.FindAllStringIndex(cql, -1))
	meta.ValueSetCount = len(valuesetPattern.FindAllStringIndex(cql, -1))
	return meta
}

// findUnusedValueSets warns about a `valueset "Name"` declaration with no
// later `["Resource": "Name"]` retrieval.
func findUnusedValueSets(cql string) []string {
	var warnings []string
	for _, m := range valuesetPattern.FindAllStringSubmatch(cql, -1) {
		name := m[1]
		usage := `"` + name + `"]`
		if strings.Count(cql, usage) == 0 {
			warnings = append(warnings, "unused valueset declaration: \""+name+"\"")
		}
	}
	return warnings
}

var trivialDefineRe = regexp.MustCompile(`(?m)^define\s*(?:"[^"]*"|[A-Za-z_][A-Za-z0-9_]*)\s*:\s*true\s*$`)

// findTrivialDefines warns about an empty-body `define` that trivially
// returns true, per spec §4.3.
func findTrivialDefines(cql string) []string {
	var warnings []string
	for _, line := range strings.Split(cql, "\n") {
		if trivialDefineRe.MatchString(strings.TrimRight(line, "\r")) {
			warnings = append(warnings, "trivial define body: \""+strings.TrimSpace(line)+"\"")
		}
	}
	return warnings
}
