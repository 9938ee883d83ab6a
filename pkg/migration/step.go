package migration

import (
	"github.com/mesh-intelligence/snapmig/pkg/types"
)

// Step is one versioned snapshot transformation. Version returns the version
// the store is in after the step ran. Migrate edits the snapshot in place;
// storeName is context for the step and is never parsed by the engine.
type Step interface {
	Version() int64
	Migrate(storeName string, snap *types.Snapshot) error
}

// MigrateFunc is the transformation of a step built with NewStep.
type MigrateFunc func(storeName string, snap *types.Snapshot) error

// NewStep returns a step producing version that runs fn.
func NewStep(version int64, fn MigrateFunc) Step {
	return funcStep{version: version, fn: fn}
}

// NoModification returns a step producing version that leaves the snapshot
// unchanged. Register it for versions that change the model without
// requiring a data transformation.
func NoModification(version int64) Step {
	return funcStep{version: version}
}

type funcStep struct {
	version int64
	fn      MigrateFunc
}

func (s funcStep) Version() int64 { return s.version }

func (s funcStep) Migrate(storeName string, snap *types.Snapshot) error {
	if s.fn == nil {
		return nil
	}
	return s.fn(storeName, snap)
}
