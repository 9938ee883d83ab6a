// Package sample provides a small person model, legacy version marker
// entities and migration steps over them. It exists to exercise the
// migration engine and the snapshot stores in tests and demos.
package sample

import (
	"github.com/pkg/errors"

	"github.com/mesh-intelligence/snapmig/pkg/migration"
	"github.com/mesh-intelligence/snapmig/pkg/types"
)

// Entity names of the sample model.
const (
	PersonEntity  = "BasicPerson"
	VersionEntity = "sample.model.VersionPO"
)

// PersonNames are the names added by the steps of Steps, by version.
var PersonNames = []string{"Name1", "Name2", "Name3", "Name4"}

var personSalaries = []float64{1500, 1550, 1600, 1400}

// NewPersonEntity returns an empty BasicPerson entity whose next id is 1.
func NewPersonEntity() *types.Entity {
	return types.NewEntityBuilder(PersonEntity).
		WithAttribute("id", types.NewAttributeBuilder(types.TypeLong).Build()).
		WithAttribute("name", types.NewAttributeBuilder(types.TypeString).Build()).
		WithAttribute("salary", types.NewAttributeBuilder(types.TypeDouble).Nullable().Build()).
		WithUnique("id").
		WithNextID(1).
		Build()
}

// NewVersionEntity returns a legacy version marker entity with one instance
// per version.
func NewVersionEntity(versions ...int64) *types.Entity {
	b := types.NewEntityBuilder(VersionEntity).
		WithAttribute("version", types.NewAttributeBuilder(types.TypeInt).Build())
	for i, v := range versions {
		b.WithInstance(types.NewInstanceBuilder(int64(i)).With("version", types.IntValue(int32(v))).Build())
	}
	return b.Build()
}

// NewSnapshot returns a snapshot at version holding an empty BasicPerson
// entity, plus a version marker entity when legacyVersions is not empty.
func NewSnapshot(version int64, legacyVersions ...int64) *types.Snapshot {
	b := types.NewSnapshotBuilder().WithVersion(version).WithEntity(NewPersonEntity())
	if len(legacyVersions) > 0 {
		b.WithEntity(NewVersionEntity(legacyVersions...))
	}
	return b.Build()
}

// AddPersonStep returns a step producing version that appends a person with
// the given name and salary under the entity's next id.
func AddPersonStep(version int64, name string, salary float64) migration.Step {
	return migration.NewStep(version, func(storeName string, snap *types.Snapshot) error {
		e, err := snap.Entity(PersonEntity)
		if err != nil {
			return err
		}
		id := e.NextID
		e.AddInstance(map[string]types.Value{
			"id":     types.LongValue(id),
			"name":   types.StringValue(name),
			"salary": types.DoubleValue(salary),
		})
		return nil
	})
}

// Steps returns the four person steps for versions 1 to 4.
func Steps() []migration.Step {
	steps := make([]migration.Step, 0, len(PersonNames))
	for i, name := range PersonNames {
		steps = append(steps, AddPersonStep(int64(i+1), name, personSalaries[i]))
	}
	return steps
}

// PersonNamesOf returns the names of the BasicPerson instances of snap in
// instance order.
func PersonNamesOf(snap *types.Snapshot) ([]string, error) {
	e, err := snap.Entity(PersonEntity)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(e.Instances))
	for _, inst := range e.Instances {
		v, _ := inst.Get("name")
		s, ok := v.Text()
		if !ok {
			return nil, errors.Errorf("person %d: name is %s", inst.ID, v.Type())
		}
		names = append(names, s)
	}
	return names, nil
}
