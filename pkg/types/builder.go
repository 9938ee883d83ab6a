package types

// EntityBuilder assembles an Entity. Each With call replaces the named
// definition or appends to the instance and unique lists. Nothing is shared
// with the built entity, so one builder can be built many times.
type EntityBuilder struct {
	name       string
	attributes map[string]AttributeDefinition
	relations  map[string]RelationDefinition
	uniques    [][]string
	instances  []Instance
	nextID     *int64
}

// NewEntityBuilder returns a builder for an entity named name.
func NewEntityBuilder(name string) *EntityBuilder {
	return &EntityBuilder{
		name:       name,
		attributes: make(map[string]AttributeDefinition),
		relations:  make(map[string]RelationDefinition),
	}
}

// WithAttribute declares or replaces an attribute definition.
func (b *EntityBuilder) WithAttribute(name string, def AttributeDefinition) *EntityBuilder {
	b.attributes[name] = def
	return b
}

// WithRelation declares or replaces a relation definition.
func (b *EntityBuilder) WithRelation(name string, def RelationDefinition) *EntityBuilder {
	b.relations[name] = def
	return b
}

// WithInstance appends an instance.
func (b *EntityBuilder) WithInstance(inst Instance) *EntityBuilder {
	b.instances = append(b.instances, inst.Clone())
	return b
}

// WithUnique appends a group of attribute names whose combined values must be
// unique across instances.
func (b *EntityBuilder) WithUnique(attributes ...string) *EntityBuilder {
	b.uniques = append(b.uniques, append([]string(nil), attributes...))
	return b
}

// WithNextID sets the next instance id. Without it the built entity's
// NextID is one above the highest instance id, or zero when there are no
// instances.
func (b *EntityBuilder) WithNextID(id int64) *EntityBuilder {
	b.nextID = &id
	return b
}

// Build returns a new Entity.
func (b *EntityBuilder) Build() *Entity {
	e := &Entity{
		Name:       b.name,
		Attributes: make(map[string]AttributeDefinition, len(b.attributes)),
		Relations:  make(map[string]RelationDefinition, len(b.relations)),
		Uniques:    make([][]string, 0, len(b.uniques)),
		Instances:  make([]Instance, 0, len(b.instances)),
	}
	for k, v := range b.attributes {
		e.Attributes[k] = v
	}
	for k, v := range b.relations {
		e.Relations[k] = v
	}
	for _, u := range b.uniques {
		e.Uniques = append(e.Uniques, append([]string(nil), u...))
	}
	for _, inst := range b.instances {
		e.Instances = append(e.Instances, inst.Clone())
		if inst.ID >= e.NextID {
			e.NextID = inst.ID + 1
		}
	}
	if b.nextID != nil {
		e.NextID = *b.nextID
	}
	return e
}

// AttributeBuilder assembles an AttributeDefinition. Attributes are not
// nullable unless Nullable is called.
type AttributeBuilder struct {
	dataType DataType
	nullable bool
}

// NewAttributeBuilder returns a builder for an attribute of type dt.
func NewAttributeBuilder(dt DataType) *AttributeBuilder {
	return &AttributeBuilder{dataType: dt}
}

func (b *AttributeBuilder) Nullable() *AttributeBuilder {
	b.nullable = true
	return b
}

func (b *AttributeBuilder) Build() AttributeDefinition {
	return AttributeDefinition{DataType: b.dataType, Nullable: b.nullable}
}

// InstanceBuilder assembles an Instance value by value.
type InstanceBuilder struct {
	id     int64
	values map[string]Value
}

func NewInstanceBuilder(id int64) *InstanceBuilder {
	return &InstanceBuilder{id: id, values: make(map[string]Value)}
}

// With sets or replaces the value stored under name.
func (b *InstanceBuilder) With(name string, v Value) *InstanceBuilder {
	b.values[name] = v
	return b
}

func (b *InstanceBuilder) Build() Instance {
	return NewInstance(b.id, b.values)
}

// SnapshotBuilder assembles a Snapshot from built entities.
type SnapshotBuilder struct {
	version       int64
	transactionID string
	entities      []*Entity
}

func NewSnapshotBuilder() *SnapshotBuilder {
	return &SnapshotBuilder{}
}

// WithVersion sets the application model version.
func (b *SnapshotBuilder) WithVersion(v int64) *SnapshotBuilder {
	b.version = v
	return b
}

func (b *SnapshotBuilder) WithTransactionID(id string) *SnapshotBuilder {
	b.transactionID = id
	return b
}

// WithEntity appends an entity. A later entity with the same name as an
// earlier one replaces it in place.
func (b *SnapshotBuilder) WithEntity(e *Entity) *SnapshotBuilder {
	for i, have := range b.entities {
		if have.Name == e.Name {
			b.entities[i] = e.Clone()
			return b
		}
	}
	b.entities = append(b.entities, e.Clone())
	return b
}

func (b *SnapshotBuilder) Build() *Snapshot {
	s := NewSnapshot(b.version)
	s.TransactionID = b.transactionID
	for _, e := range b.entities {
		s.Entities = append(s.Entities, e.Clone())
	}
	return s
}
