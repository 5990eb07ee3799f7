package component

import (
	"sort"
	"strings"

	"github.com/quality-measures/accelerator/internal/ums"
)

// identityFields is the normalized tuple that drives exact/name matching and
// similarity scoring. Derived from a component's wrapped node rather than
// stored separately, so it always reflects the current content.
type identityFields struct {
	oid        string
	name       string
	anchor     string
	reference  string
	negation   bool
	isComposite bool
}

func deriveIdentity(node ums.ClauseNode) identityFields {
	switch n := node.(type) {
	case *ums.DataElement:
		f := identityFields{negation: n.Negation}
		if n.ValueSet != nil {
			f.oid = strings.ToUpper(strings.TrimSpace(n.ValueSet.OID))
			f.name = normalizeName(n.ValueSet.Name)
		}
		if tc, _, has := n.EffectiveTiming(); has && tc != nil {
			f.anchor = string(tc.Anchor) + ":" + string(tc.Side)
			f.reference = tc.ReferenceAnchor
		}
		return f
	case *ums.LogicalClause:
		return identityFields{isComposite: true, anchor: string(n.Operator)}
	default:
		return identityFields{}
	}
}

func normalizeName(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// findExactMatch returns the library component whose content hash equals
// incoming's, or nil. Composite components match by the hash of their full
// canonical form, which already recurses through Children — so a child
// substituted by reference resolves to the same hash as the same fragment
// spelled out inline (spec §4.6).
func findExactMatch(incomingHash string, library []*Component) *Component {
	for _, c := range library {
		if v := c.Latest(); v.Hash == incomingHash {
			return c
		}
	}
	return nil
}

// findNameMatch is the fallback used when a component carries no OID:
// normalized value-set name plus timing anchor/side, reference anchor, and
// negation must all agree.
func findNameMatch(incoming ums.ClauseNode, library []*Component) *Component {
	f := deriveIdentity(incoming)
	if f.oid != "" || f.name == "" {
		return nil
	}
	for _, c := range library {
		cf := deriveIdentity(c.Node)
		if cf.oid != "" {
			continue
		}
		if cf.name == f.name && cf.anchor == f.anchor && cf.reference == f.reference && cf.negation == f.negation {
			return c
		}
	}
	return nil
}

// SimilarityMatch is one scored candidate returned by findSimilarComponents.
type SimilarityMatch struct {
	Component *Component
	Score     float64
}

// findSimilarComponents scores every library component against incoming and
// returns those at or above threshold, sorted by descending score. Exact
// matches (score 1.0 by hash equality) are excluded since they belong to
// findExactMatch (spec §4.6).
func findSimilarComponents(incoming ums.ClauseNode, incomingHash string, library []*Component, threshold float64) []SimilarityMatch {
	f := deriveIdentity(incoming)
	if f.oid == "" {
		return nil
	}

	var matches []SimilarityMatch
	for _, c := range library {
		v := c.Latest()
		if v.Hash == incomingHash {
			continue
		}
		cf := deriveIdentity(c.Node)
		if cf.oid != f.oid {
			continue
		}
		score := 0.7
		if cf.anchor == f.anchor {
			score += 0.15
		}
		if cf.reference == f.reference {
			score += 0.15
		}
		if score >= threshold {
			matches = append(matches, SimilarityMatch{Component: c, Score: score})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	return matches
}
