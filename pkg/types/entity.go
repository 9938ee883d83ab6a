package types

import (
	"errors"
	"fmt"
)

// Entity errors.
var (
	ErrEntityNotFound    = errors.New("entity not found")
	ErrDuplicateEntity   = errors.New("duplicate entity name")
	ErrInvalidName       = errors.New("invalid name")
	ErrInstanceNotFound  = errors.New("instance not found")
	ErrDuplicateInstance = errors.New("duplicate instance id")
	ErrInvalidNextID     = errors.New("next id does not exceed used instance ids")
)

// Entity is one record type of a snapshot: its definitions and its stored
// instances. NextID must exceed every instance id in use.
type Entity struct {
	Name       string                         `json:"entityName"`
	Attributes map[string]AttributeDefinition `json:"attributes"`
	Relations  map[string]RelationDefinition  `json:"relations"`
	Uniques    [][]string                     `json:"uniques"`
	Instances  []Instance                     `json:"instances"`
	NextID     int64                          `json:"nextId"`
}

// AddInstance appends a new instance holding values under the entity's next
// id, advances NextID and returns the new instance id.
func (e *Entity) AddInstance(values map[string]Value) int64 {
	id := e.NextID
	e.Instances = append(e.Instances, NewInstance(id, values))
	e.NextID = id + 1
	return id
}

// Instance returns a pointer to the instance with the given id, so that
// callers can edit it in place.
func (e *Entity) Instance(id int64) (*Instance, bool) {
	for i := range e.Instances {
		if e.Instances[i].ID == id {
			return &e.Instances[i], true
		}
	}
	return nil, false
}

// RemoveInstance deletes the instance with the given id, keeping the order
// of the remaining instances. Returns ErrInstanceNotFound if absent.
func (e *Entity) RemoveInstance(id int64) error {
	for i := range e.Instances {
		if e.Instances[i].ID == id {
			e.Instances = append(e.Instances[:i], e.Instances[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: %s#%d", ErrInstanceNotFound, e.Name, id)
}

// SetInstances replaces all instances of the entity.
func (e *Entity) SetInstances(instances []Instance) {
	e.Instances = instances
}

// Validate checks the structural invariants of the entity: a non-empty
// name, known attribute data types, unique instance ids and a NextID above
// every id in use. It does not check that instance values match the
// definitions.
func (e *Entity) Validate() error {
	if e.Name == "" {
		return ErrInvalidName
	}
	for name, def := range e.Attributes {
		if !def.DataType.Valid() {
			return fmt.Errorf("%s.%s: %w", e.Name, name, ErrUnknownDataType)
		}
	}
	seen := make(map[int64]bool, len(e.Instances))
	for _, inst := range e.Instances {
		if seen[inst.ID] {
			return fmt.Errorf("%w: %s#%d", ErrDuplicateInstance, e.Name, inst.ID)
		}
		seen[inst.ID] = true
		if inst.ID >= e.NextID {
			return fmt.Errorf("%w: %s next id %d, instance %d", ErrInvalidNextID, e.Name, e.NextID, inst.ID)
		}
	}
	return nil
}

// Clone returns a deep copy of the entity.
func (e *Entity) Clone() *Entity {
	c := &Entity{
		Name:       e.Name,
		Attributes: make(map[string]AttributeDefinition, len(e.Attributes)),
		Relations:  make(map[string]RelationDefinition, len(e.Relations)),
		Uniques:    make([][]string, 0, len(e.Uniques)),
		Instances:  make([]Instance, 0, len(e.Instances)),
		NextID:     e.NextID,
	}
	for k, v := range e.Attributes {
		c.Attributes[k] = v
	}
	for k, v := range e.Relations {
		c.Relations[k] = v
	}
	for _, u := range e.Uniques {
		c.Uniques = append(c.Uniques, append([]string(nil), u...))
	}
	for _, inst := range e.Instances {
		c.Instances = append(c.Instances, inst.Clone())
	}
	return c
}
