package cqlgen

import "strings"

// sanitizeIdentifier rewrites measureId into a valid CQL library
// identifier: letters, digits, and underscores, starting with a letter or
// underscore (a leading digit gets an underscore prefix) (spec §4.2 "identifier = measureId sanitized to CQL identifier rules").
func sanitizeIdentifier(measureID string) string {
	var b strings.Builder
	for i, r := range measureID {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
			b.WriteRune(r)
		case r >= '0' && r <= '9':
			if i == 0 {
				b.WriteRune('_')
			}
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	out := b.String()
	if out == "" {
		return "Measure"
	}
	return out
}
