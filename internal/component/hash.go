package component

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/quality-measures/accelerator/internal/ums"
)

// generateHash computes a deterministic identity hash for a clause
// fragment. Two fragments with the same structure and values hash equal
// regardless of which DataElement/LogicalClause ID values they carry,
// since ID fields are excluded from the canonical form (spec §4.6: identity
// is structural, not ID-based).
func generateHash(node ums.ClauseNode) (string, error) {
	canon, err := canonicalize(node)
	if err != nil {
		return "", fmt.Errorf("canonicalizing component content: %w", err)
	}
	data, err := json.Marshal(canon)
	if err != nil {
		return "", fmt.Errorf("encoding canonical form: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// canonicalForm is the structural, ID-stripped projection of a clause node
// used for identity hashing and equality comparison.
type canonicalForm struct {
	Kind string `json:"kind"`

	// LogicalClause fields
	Operator           ums.Operator              `json:"operator,omitempty"`
	Children           []canonicalForm           `json:"children,omitempty"`
	SiblingConnections []ums.SiblingConnection   `json:"siblingConnections,omitempty"`

	// DataElement fields
	Type               ums.DataElementType       `json:"type,omitempty"`
	ValueSet           *ums.ValueSetUse          `json:"valueSet,omitempty"`
	DirectCodes        []ums.Code                `json:"directCodes,omitempty"`
	Thresholds         *ums.Thresholds           `json:"thresholds,omitempty"`
	TimingRequirements []ums.TimingRequirement   `json:"timingRequirements,omitempty"`
	TimingOverride     *ums.TimingConstraint     `json:"timingOverride,omitempty"`
	Negation           bool                      `json:"negation,omitempty"`
	AgeCalculation     ums.AgeCalculation        `json:"ageCalculation,omitempty"`
}

func canonicalize(node ums.ClauseNode) (canonicalForm, error) {
	switch n := node.(type) {
	case *ums.LogicalClause:
		children := make([]canonicalForm, 0, len(n.Children))
		for _, child := range n.Children {
			c, err := canonicalize(child)
			if err != nil {
				return canonicalForm{}, err
			}
			children = append(children, c)
		}
		return canonicalForm{
			Kind:               "clause",
			Operator:           n.Operator,
			Children:           children,
			SiblingConnections: n.SiblingConnections,
		}, nil
	case *ums.DataElement:
		return canonicalForm{
			Kind:               "element",
			Type:               n.Type,
			ValueSet:           n.ValueSet,
			DirectCodes:        n.DirectCodes,
			Thresholds:         n.Thresholds,
			TimingRequirements: n.TimingRequirements,
			TimingOverride:     n.TimingOverride,
			Negation:           n.Negation,
			AgeCalculation:     n.AgeCalculation,
		}, nil
	default:
		return canonicalForm{}, fmt.Errorf("unrecognized clause node type %T", node)
	}
}
