package types

import (
	"fmt"
)

// CurrentSnapshotModelVersion is the serialization format version written
// for new snapshots.
const CurrentSnapshotModelVersion = 1

// Snapshot is the full state of a store at one point in time.
// ApplicationModelVersion is the version of the application model the
// instances conform to; zero means the snapshot predates explicit
// versioning.
type Snapshot struct {
	SnapshotModelVersion    int64     `json:"snapshotModelVersion"`
	TransactionID           string    `json:"transactionId,omitempty"`
	ApplicationModelVersion int64     `json:"applicationModelVersion"`
	Entities                []*Entity `json:"entities"`
}

// NewSnapshot returns an empty snapshot at the given application model
// version.
func NewSnapshot(version int64) *Snapshot {
	return &Snapshot{
		SnapshotModelVersion:    CurrentSnapshotModelVersion,
		ApplicationModelVersion: version,
		Entities:                []*Entity{},
	}
}

// FindEntity returns the entity with the given name. The lookup is a linear
// scan over the entities.
func (s *Snapshot) FindEntity(name string) (*Entity, bool) {
	for _, e := range s.Entities {
		if e.Name == name {
			return e, true
		}
	}
	return nil, false
}

// Entity is like FindEntity but returns ErrEntityNotFound when no entity
// has the given name.
func (s *Snapshot) Entity(name string) (*Entity, error) {
	e, ok := s.FindEntity(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrEntityNotFound, name)
	}
	return e, nil
}

// AddEntity appends e. Returns ErrDuplicateEntity if an entity with the same
// name already exists.
func (s *Snapshot) AddEntity(e *Entity) error {
	if e == nil || e.Name == "" {
		return ErrInvalidName
	}
	if _, ok := s.FindEntity(e.Name); ok {
		return fmt.Errorf("%w: %q", ErrDuplicateEntity, e.Name)
	}
	s.Entities = append(s.Entities, e)
	return nil
}

// RemoveEntity deletes the entity with the given name and returns it.
func (s *Snapshot) RemoveEntity(name string) (*Entity, error) {
	for i, e := range s.Entities {
		if e.Name == name {
			s.Entities = append(s.Entities[:i], s.Entities[i+1:]...)
			return e, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrEntityNotFound, name)
}

// EntityNames returns the entity names in snapshot order.
func (s *Snapshot) EntityNames() []string {
	names := make([]string, 0, len(s.Entities))
	for _, e := range s.Entities {
		names = append(names, e.Name)
	}
	return names
}

// Validate checks that entity names are unique and that every entity is
// structurally valid.
func (s *Snapshot) Validate() error {
	seen := make(map[string]bool, len(s.Entities))
	for _, e := range s.Entities {
		if e == nil {
			return ErrInvalidName
		}
		if seen[e.Name] {
			return fmt.Errorf("%w: %q", ErrDuplicateEntity, e.Name)
		}
		seen[e.Name] = true
		if err := e.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Clone returns a deep copy of the snapshot.
func (s *Snapshot) Clone() *Snapshot {
	c := &Snapshot{
		SnapshotModelVersion:    s.SnapshotModelVersion,
		TransactionID:           s.TransactionID,
		ApplicationModelVersion: s.ApplicationModelVersion,
		Entities:                make([]*Entity, 0, len(s.Entities)),
	}
	for _, e := range s.Entities {
		c.Entities = append(c.Entities, e.Clone())
	}
	return c
}
