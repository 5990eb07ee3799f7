package ums

import (
	"encoding/json"
	"fmt"
)

// nodeEnvelope tags a serialized ClauseNode with its concrete kind so a
// []ClauseNode slice — ordinarily opaque to encoding/json, since it holds
// an interface type — can round-trip through JSON (needed by the
// component and store packages, which persist clause-tree fragments).
type nodeEnvelope struct {
	Kind string          `json:"kind"`
	Node json.RawMessage `json:"node"`
}

func encodeNode(node ClauseNode) (nodeEnvelope, error) {
	switch n := node.(type) {
	case *LogicalClause:
		raw, err := json.Marshal(n)
		if err != nil {
			return nodeEnvelope{}, err
		}
		return nodeEnvelope{Kind: "clause", Node: raw}, nil
	case *DataElement:
		raw, err := json.Marshal(n)
		if err != nil {
			return nodeEnvelope{}, err
		}
		return nodeEnvelope{Kind: "element", Node: raw}, nil
	default:
		return nodeEnvelope{}, fmt.Errorf("unrecognized clause node type %T", node)
	}
}

// EncodeNode serializes any top-level ClauseNode (component.Component.Node
// is one example) to JSON bytes tagged with its concrete kind, so it can be
// decoded back to the right type with DecodeNode.
func EncodeNode(node ClauseNode) ([]byte, error) {
	env, err := encodeNode(node)
	if err != nil {
		return nil, err
	}
	return json.Marshal(env)
}

// DecodeNode is the inverse of EncodeNode.
func DecodeNode(data []byte) (ClauseNode, error) {
	var env nodeEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, err
	}
	return decodeNode(env)
}

func decodeNode(env nodeEnvelope) (ClauseNode, error) {
	switch env.Kind {
	case "clause":
		var c LogicalClause
		if err := json.Unmarshal(env.Node, &c); err != nil {
			return nil, err
		}
		return &c, nil
	case "element":
		var d DataElement
		if err := json.Unmarshal(env.Node, &d); err != nil {
			return nil, err
		}
		return &d, nil
	default:
		return nil, fmt.Errorf("unrecognized clause node kind %q", env.Kind)
	}
}

// logicalClauseAlias avoids infinite recursion into LogicalClause's own
// Marshal/UnmarshalJSON methods.
type logicalClauseAlias struct {
	ID                 string              `json:"id"`
	Operator           Operator            `json:"operator"`
	Description        string              `json:"description,omitempty"`
	SiblingConnections []SiblingConnection `json:"siblingConnections,omitempty"`
	ReviewStatus       ReviewStatus        `json:"reviewStatus,omitempty"`
}

// MarshalJSON encodes the clause, tagging each child with its concrete kind
// so Children (typed []ClauseNode) survives a round trip.
func (c *LogicalClause) MarshalJSON() ([]byte, error) {
	envelopes := make([]nodeEnvelope, 0, len(c.Children))
	for _, child := range c.Children {
		env, err := encodeNode(child)
		if err != nil {
			return nil, err
		}
		envelopes = append(envelopes, env)
	}

	return json.Marshal(struct {
		logicalClauseAlias
		Children []nodeEnvelope `json:"children"`
	}{
		logicalClauseAlias: logicalClauseAlias{
			ID:                 c.ID,
			Operator:           c.Operator,
			Description:        c.Description,
			SiblingConnections: c.SiblingConnections,
			ReviewStatus:       c.ReviewStatus,
		},
		Children: envelopes,
	})
}

// UnmarshalJSON decodes a clause previously produced by MarshalJSON.
func (c *LogicalClause) UnmarshalJSON(data []byte) error {
	var wire struct {
		logicalClauseAlias
		Children []nodeEnvelope `json:"children"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	c.ID = wire.ID
	c.Operator = wire.Operator
	c.Description = wire.Description
	c.SiblingConnections = wire.SiblingConnections
	c.ReviewStatus = wire.ReviewStatus

	c.Children = make([]ClauseNode, 0, len(wire.Children))
	for _, env := range wire.Children {
		node, err := decodeNode(env)
		if err != nil {
			return err
		}
		c.Children = append(c.Children, node)
	}
	return nil
}
