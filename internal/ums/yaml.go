package ums

import (
	"encoding/json"

	"gopkg.in/yaml.v3"
)

// MarshalYAML bridges through the JSON envelope codec so authored measure
// files can use either YAML or JSON for the clause tree; gopkg.in/yaml.v3
// happily encodes the resulting generic value.
func (c *LogicalClause) MarshalYAML() (interface{}, error) {
	raw, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}
	var generic interface{}
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, err
	}
	return generic, nil
}

// UnmarshalYAML is the inverse of MarshalYAML: it decodes the generic node
// back to JSON bytes and reuses LogicalClause.UnmarshalJSON.
func (c *LogicalClause) UnmarshalYAML(value *yaml.Node) error {
	var generic interface{}
	if err := value.Decode(&generic); err != nil {
		return err
	}
	raw, err := json.Marshal(generic)
	if err != nil {
		return err
	}
	return c.UnmarshalJSON(raw)
}
