package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func personEntity() *Entity {
	return NewEntityBuilder("BasicPerson").
		WithAttribute("name", NewAttributeBuilder(TypeString).Build()).
		WithAttribute("salary", NewAttributeBuilder(TypeDouble).Nullable().Build()).
		WithRelation("manager", RelationDefinition{TargetEntity: "BasicPerson", Cardinality: CardinalityOne}).
		WithUnique("id").
		WithNextID(1).
		Build()
}

func TestEntityBuilder(t *testing.T) {
	e := personEntity()

	assert.Equal(t, "BasicPerson", e.Name)
	assert.Equal(t, AttributeDefinition{DataType: TypeString}, e.Attributes["name"])
	assert.True(t, e.Attributes["salary"].Nullable)
	assert.Equal(t, "BasicPerson", e.Relations["manager"].TargetEntity)
	assert.Equal(t, [][]string{{"id"}}, e.Uniques)
	assert.Equal(t, int64(1), e.NextID)
	assert.Empty(t, e.Instances)
}

func TestEntityBuilderReplacesAndAppends(t *testing.T) {
	b := NewEntityBuilder("Thing").
		WithAttribute("a", NewAttributeBuilder(TypeInt).Build()).
		WithAttribute("a", NewAttributeBuilder(TypeLong).Build()).
		WithInstance(NewInstanceBuilder(4).With("a", LongValue(1)).Build()).
		WithInstance(NewInstanceBuilder(9).With("a", LongValue(2)).Build())

	e := b.Build()
	assert.Equal(t, TypeLong, e.Attributes["a"].DataType)
	require.Len(t, e.Instances, 2)
	assert.Equal(t, int64(10), e.NextID, "next id defaults above the highest instance id")

	// Built entities do not share state with the builder or each other.
	e.Instances[0].Set("a", LongValue(100))
	e.Attributes["b"] = AttributeDefinition{DataType: TypeString}
	again := b.Build()
	v, _ := again.Instances[0].Get("a")
	n, _ := v.Int()
	assert.Equal(t, int64(1), n)
	assert.NotContains(t, again.Attributes, "b")
}

func TestEntityAddAndRemoveInstance(t *testing.T) {
	e := personEntity()

	id1 := e.AddInstance(map[string]Value{"name": StringValue("Name1")})
	id2 := e.AddInstance(map[string]Value{"name": StringValue("Name2")})
	assert.Equal(t, int64(1), id1)
	assert.Equal(t, int64(2), id2)
	assert.Equal(t, int64(3), e.NextID)
	require.NoError(t, e.Validate())

	inst, ok := e.Instance(id2)
	require.True(t, ok)
	inst.Set("salary", DoubleValue(10))
	v, ok := e.Instances[1].Get("salary")
	require.True(t, ok)
	f, _ := v.Float()
	assert.Equal(t, 10.0, f)

	require.NoError(t, e.RemoveInstance(id1))
	assert.Len(t, e.Instances, 1)
	assert.ErrorIs(t, e.RemoveInstance(id1), ErrInstanceNotFound)
}

func TestEntityValidate(t *testing.T) {
	e := personEntity()
	e.Instances = []Instance{NewInstance(1, nil)}
	assert.ErrorIs(t, e.Validate(), ErrInvalidNextID)

	e.NextID = 5
	e.Instances = append(e.Instances, NewInstance(1, nil))
	assert.ErrorIs(t, e.Validate(), ErrDuplicateInstance)

	e.Instances = nil
	e.Attributes["bad"] = AttributeDefinition{}
	assert.ErrorIs(t, e.Validate(), ErrUnknownDataType)
}

func TestInstanceRename(t *testing.T) {
	inst := NewInstanceBuilder(1).With("old", StringValue("x")).Build()
	assert.True(t, inst.Rename("old", "new"))
	assert.False(t, inst.Rename("old", "other"))
	_, ok := inst.Get("old")
	assert.False(t, ok)
	v, ok := inst.Get("new")
	assert.True(t, ok)
	assert.True(t, StringValue("x").Equal(v))
}

func TestSnapshotEntityLookup(t *testing.T) {
	s := NewSnapshotBuilder().
		WithVersion(3).
		WithEntity(personEntity()).
		WithEntity(NewEntityBuilder("VersionPO").Build()).
		Build()

	assert.Equal(t, int64(3), s.ApplicationModelVersion)
	assert.Equal(t, int64(CurrentSnapshotModelVersion), s.SnapshotModelVersion)
	assert.Equal(t, []string{"BasicPerson", "VersionPO"}, s.EntityNames())

	e, ok := s.FindEntity("VersionPO")
	require.True(t, ok)
	assert.Equal(t, "VersionPO", e.Name)

	_, ok = s.FindEntity("Missing")
	assert.False(t, ok)

	_, err := s.Entity("Missing")
	assert.ErrorIs(t, err, ErrEntityNotFound)
}

func TestSnapshotAddRemoveEntity(t *testing.T) {
	s := NewSnapshot(0)
	require.NoError(t, s.AddEntity(personEntity()))
	assert.ErrorIs(t, s.AddEntity(personEntity()), ErrDuplicateEntity)
	assert.ErrorIs(t, s.AddEntity(&Entity{}), ErrInvalidName)

	removed, err := s.RemoveEntity("BasicPerson")
	require.NoError(t, err)
	assert.Equal(t, "BasicPerson", removed.Name)
	assert.Empty(t, s.Entities)

	_, err = s.RemoveEntity("BasicPerson")
	assert.ErrorIs(t, err, ErrEntityNotFound)
}

func TestSnapshotValidate(t *testing.T) {
	s := NewSnapshot(1)
	s.Entities = []*Entity{personEntity(), personEntity()}
	assert.ErrorIs(t, s.Validate(), ErrDuplicateEntity)

	s.Entities = s.Entities[:1]
	assert.NoError(t, s.Validate())
}

func TestSnapshotClone(t *testing.T) {
	s := NewSnapshotBuilder().WithVersion(2).WithTransactionID("42").WithEntity(personEntity()).Build()
	s.Entities[0].AddInstance(map[string]Value{"name": StringValue("Name1")})

	c := s.Clone()
	c.ApplicationModelVersion = 9
	c.Entities[0].Instances[0].Set("name", StringValue("changed"))
	c.Entities[0].AddInstance(nil)

	assert.Equal(t, int64(2), s.ApplicationModelVersion)
	assert.Equal(t, "42", c.TransactionID)
	require.Len(t, s.Entities[0].Instances, 1)
	v, _ := s.Entities[0].Instances[0].Get("name")
	name, _ := v.Text()
	assert.Equal(t, "Name1", name)
}
