package types

import (
	"encoding/json"
	"fmt"
)

// AttributeDefinition declares the type of one entity attribute.
type AttributeDefinition struct {
	DataType DataType `json:"dataType"`
	Nullable bool     `json:"nullable"`
}

// Cardinality is the multiplicity of a relation.
type Cardinality string

// Relation cardinalities.
const (
	CardinalityOne  Cardinality = "one"
	CardinalityMany Cardinality = "many"
)

// RelationDefinition declares a named relation to another entity. Relation
// values held by instances are the ids of the target instances. The
// migration engine carries relation definitions through unchanged.
type RelationDefinition struct {
	TargetEntity string      `json:"targetEntity"`
	Cardinality  Cardinality `json:"cardinality"`
}

// UnmarshalJSON accepts the legacy upper-case spellings ONE and MANY.
func (c *Cardinality) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	switch s {
	case "one", "ONE":
		*c = CardinalityOne
	case "many", "MANY":
		*c = CardinalityMany
	default:
		return fmt.Errorf("unknown cardinality %q", s)
	}
	return nil
}
