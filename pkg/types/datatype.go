package types

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// DataType is the declared type of an attribute. The zero value is not a
// valid attribute type; a Value whose Type is zero is null.
type DataType uint8

// Attribute data types.
const (
	TypeBoolean DataType = iota + 1
	TypeByte
	TypeChar
	TypeShort
	TypeInt
	TypeLong
	TypeFloat
	TypeDouble
	TypeString
	TypeDate

	// TypeRefs is the type of to-many relation values. It is not an
	// attribute type.
	TypeRefs DataType = 64
)

// Data type errors.
var (
	ErrUnknownDataType = errors.New("unknown data type")
	ErrTypeMismatch    = errors.New("type mismatch")
)

var dataTypeNames = map[DataType]string{
	TypeBoolean: "boolean",
	TypeByte:    "byte",
	TypeChar:    "char",
	TypeShort:   "short",
	TypeInt:     "int",
	TypeLong:    "long",
	TypeFloat:   "float",
	TypeDouble:  "double",
	TypeString:  "string",
	TypeDate:    "date",
}

// legacyTypeNames maps the fully qualified names older stores wrote for the
// two reference types.
var legacyTypeNames = map[string]DataType{
	"java.lang.string": TypeString,
	"java.util.date":   TypeDate,
}

// ParseDataType returns the DataType for name. Names are case-insensitive and
// the legacy qualified names "java.lang.String" and "java.util.Date" are
// accepted. Returns ErrUnknownDataType otherwise.
func ParseDataType(name string) (DataType, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for dt, s := range dataTypeNames {
		if s == n {
			return dt, nil
		}
	}
	if dt, ok := legacyTypeNames[n]; ok {
		return dt, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownDataType, name)
}

// Valid reports whether dt is one of the declared attribute types.
func (dt DataType) Valid() bool {
	_, ok := dataTypeNames[dt]
	return ok
}

// IsInteger reports whether values of dt hold an integer.
func (dt DataType) IsInteger() bool {
	switch dt {
	case TypeByte, TypeShort, TypeInt, TypeLong:
		return true
	}
	return false
}

func (dt DataType) String() string {
	if s, ok := dataTypeNames[dt]; ok {
		return s
	}
	switch dt {
	case 0:
		return "null"
	case TypeRefs:
		return "refs"
	}
	return fmt.Sprintf("DataType(%d)", uint8(dt))
}

// MarshalJSON encodes the type by name.
func (dt DataType) MarshalJSON() ([]byte, error) {
	if !dt.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownDataType, uint8(dt))
	}
	return json.Marshal(dt.String())
}

// UnmarshalJSON decodes a type name using ParseDataType.
func (dt *DataType) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	v, err := ParseDataType(s)
	if err != nil {
		return err
	}
	*dt = v
	return nil
}
