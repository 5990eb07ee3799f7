package cqlvalidate

import (
	"regexp"
	"strings"
)

// typoTable is the curated, additive, advisory list of common CQL typos
// (spec §4.3). Matches are whole-word to avoid flagging substrings of
// legitimate identifiers.
var typoTable = map[string]string{
	"exsits":    "exists",
	"defien":    "define",
	"libary":    "library",
	"conetxt":   "context",
	"valuset":   "valueset",
	"codesytem": "codesystem",
	"retrun":    "return",
	"fasle":     "false",
	"ture":      "true",
}

var wordPattern = regexp.MustCompile(`[A-Za-z_][A-Za-z0-9_]*`)

// findTypos scans src for whole-word matches against typoTable and returns
// one warning message per hit, in order of appearance.
func findTypos(src string) []string {
	var hits []string
	for _, match := range wordPattern.FindAllString(src, -1) {
		if correct, ok := typoTable[strings.ToLower(match)]; ok {
			hits = append(hits, "possible typo: \""+match+"\" (did you mean \""+correct+"\"?)")
		}
	}
	return hits
}
