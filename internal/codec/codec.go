// Package codec reads and writes snapshots as JSON documents.
//
// The document shape is
//
//	{
//	  "snapshotModelVersion": 1,
//	  "transactionId": "...",
//	  "applicationModelVersion": 4,
//	  "entities": [
//	    {
//	      "entityName": "BasicPerson",
//	      "attributes": {"name": {"dataType": "string", "nullable": false}},
//	      "relations": {"manager": {"targetEntity": "BasicPerson", "cardinality": "one"}},
//	      "uniques": [["id"]],
//	      "nextId": 3,
//	      "instances": [{"id": 1, "values": {"name": "Name1"}}]
//	    }
//	  ]
//	}
//
// Documents are validated against an embedded JSON schema before decoding.
// Instance values are decoded by inference and then converted to the data
// type their attribute declares. Values under names with no attribute
// definition keep the inferred type.
package codec

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/mesh-intelligence/snapmig/pkg/types"
)

// ErrInvalidDocument is returned when a document does not match the snapshot
// schema or cannot be converted to the model.
var ErrInvalidDocument = errors.New("invalid snapshot document")

const schemaURL = "snapshot.schema.json"

//go:embed snapshot.schema.json
var schemaText string

var (
	snapshotSchema *jsonschema.Schema
	entitySchema   *jsonschema.Schema
	headerSchema   *jsonschema.Schema
)

func init() {
	c := jsonschema.NewCompiler()
	if err := c.AddResource(schemaURL, strings.NewReader(schemaText)); err != nil {
		panic(fmt.Sprintf("codec: load schema: %v", err))
	}
	snapshotSchema = c.MustCompile(schemaURL)
	entitySchema = c.MustCompile(schemaURL + "#/$defs/entity")
	headerSchema = c.MustCompile(schemaURL + "#/$defs/header")
}

// Header is the snapshot document without its entities.
type Header struct {
	SnapshotModelVersion    int64  `json:"snapshotModelVersion"`
	TransactionID           string `json:"transactionId,omitempty"`
	ApplicationModelVersion int64  `json:"applicationModelVersion"`
}

// HeaderOf returns the header of snap.
func HeaderOf(snap *types.Snapshot) Header {
	return Header{
		SnapshotModelVersion:    snap.SnapshotModelVersion,
		TransactionID:           snap.TransactionID,
		ApplicationModelVersion: snap.ApplicationModelVersion,
	}
}

// Snapshot returns an empty snapshot carrying the header fields. A missing
// snapshot model version defaults to the current one.
func (h Header) Snapshot() *types.Snapshot {
	s := types.NewSnapshot(h.ApplicationModelVersion)
	if h.SnapshotModelVersion != 0 {
		s.SnapshotModelVersion = h.SnapshotModelVersion
	}
	s.TransactionID = h.TransactionID
	return s
}

// Marshal returns the indented JSON document of snap.
func Marshal(snap *types.Snapshot) ([]byte, error) {
	if snap == nil {
		return nil, errors.New("nil snapshot")
	}
	if snap.Entities == nil {
		c := *snap
		c.Entities = []*types.Entity{}
		snap = &c
	}
	b, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "marshal snapshot")
	}
	return b, nil
}

// Encode writes the JSON document of snap to w.
func Encode(w io.Writer, snap *types.Snapshot) error {
	b, err := Marshal(snap)
	if err != nil {
		return err
	}
	b = append(b, '\n')
	_, err = w.Write(b)
	return errors.Wrap(err, "write snapshot")
}

// Decode reads one snapshot document from r.
func Decode(r io.Reader) (*types.Snapshot, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "read snapshot")
	}
	return Unmarshal(b)
}

// Unmarshal validates and decodes a snapshot document.
func Unmarshal(b []byte) (*types.Snapshot, error) {
	if err := validate(snapshotSchema, b); err != nil {
		return nil, err
	}
	snap := types.NewSnapshot(0)
	if err := json.Unmarshal(b, snap); err != nil {
		return nil, errors.Wrapf(ErrInvalidDocument, "decode: %v", err)
	}
	if snap.SnapshotModelVersion == 0 {
		snap.SnapshotModelVersion = types.CurrentSnapshotModelVersion
	}
	for _, e := range snap.Entities {
		if err := normalize(e); err != nil {
			return nil, err
		}
	}
	return snap, nil
}

// EncodeEntity returns the single line JSON encoding of e.
func EncodeEntity(e *types.Entity) ([]byte, error) {
	b, err := json.Marshal(e)
	if err != nil {
		return nil, errors.Wrapf(err, "marshal entity %s", e.Name)
	}
	return b, nil
}

// DecodeEntity validates and decodes one entity encoded by EncodeEntity.
func DecodeEntity(b []byte) (*types.Entity, error) {
	if err := validate(entitySchema, b); err != nil {
		return nil, err
	}
	var e types.Entity
	if err := json.Unmarshal(b, &e); err != nil {
		return nil, errors.Wrapf(ErrInvalidDocument, "decode entity: %v", err)
	}
	if err := normalize(&e); err != nil {
		return nil, err
	}
	return &e, nil
}

// EncodeHeader returns the single line JSON encoding of h.
func EncodeHeader(h Header) ([]byte, error) {
	b, err := json.Marshal(h)
	return b, errors.Wrap(err, "marshal header")
}

// DecodeHeader validates and decodes a header encoded by EncodeHeader.
func DecodeHeader(b []byte) (Header, error) {
	var h Header
	if err := validate(headerSchema, b); err != nil {
		return h, err
	}
	if err := json.Unmarshal(b, &h); err != nil {
		return h, errors.Wrapf(ErrInvalidDocument, "decode header: %v", err)
	}
	return h, nil
}

func validate(schema *jsonschema.Schema, b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return errors.Wrapf(ErrInvalidDocument, "parse: %v", err)
	}
	if err := schema.Validate(doc); err != nil {
		return errors.Wrapf(ErrInvalidDocument, "%v", err)
	}
	return nil
}

// normalize allocates the maps a decoded entity omitted and converts
// instance values to their declared data types.
func normalize(e *types.Entity) error {
	if e.Attributes == nil {
		e.Attributes = make(map[string]types.AttributeDefinition)
	}
	if e.Relations == nil {
		e.Relations = make(map[string]types.RelationDefinition)
	}
	if e.Uniques == nil {
		e.Uniques = [][]string{}
	}
	if e.Instances == nil {
		e.Instances = []types.Instance{}
	}
	for i := range e.Instances {
		inst := &e.Instances[i]
		if inst.Values == nil {
			inst.Values = make(map[string]types.Value)
		}
		for name, v := range inst.Values {
			dt, ok := declaredType(e, name)
			if !ok {
				continue
			}
			cv, err := v.Coerce(dt)
			if err != nil {
				return errors.Wrapf(ErrInvalidDocument, "%s#%d.%s: %v", e.Name, inst.ID, name, err)
			}
			inst.Values[name] = cv
		}
	}
	return nil
}

// declaredType returns the type values of name must hold: the attribute
// data type, long ids for to-one relations or refs for to-many relations.
func declaredType(e *types.Entity, name string) (types.DataType, bool) {
	if def, ok := e.Attributes[name]; ok {
		return def.DataType, true
	}
	rel, ok := e.Relations[name]
	if !ok {
		return 0, false
	}
	switch rel.Cardinality {
	case types.CardinalityOne:
		return types.TypeLong, true
	case types.CardinalityMany:
		return types.TypeRefs, true
	}
	return 0, false
}
