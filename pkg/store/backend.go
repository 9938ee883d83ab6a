package store

import (
	"github.com/go-kit/kit/log"
	"github.com/pkg/errors"

	"github.com/mesh-intelligence/snapmig/internal/jsonl"
	"github.com/mesh-intelligence/snapmig/internal/sqlite"
	"github.com/mesh-intelligence/snapmig/pkg/migration"
	"github.com/mesh-intelligence/snapmig/pkg/types"
)

// OpenBackend opens the snapshot store selected by cfg.Backend in
// cfg.DataDir.
//
// Example:
//
//	backend, err := store.OpenBackend(types.Config{
//	    Backend: types.BackendSQLite,
//	    DataDir: ".snapmig",
//	})
//	defer backend.Close()
func OpenBackend(cfg types.Config) (types.SnapshotStore, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch cfg.Backend {
	case types.BackendJSONL:
		s, err := jsonl.Open(cfg.DataDir)
		if err != nil {
			return nil, err
		}
		return s, nil
	case types.BackendSQLite:
		s, err := sqlite.Open(cfg.DataDir)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
	return nil, errors.Wrap(types.ErrBackendUnknown, cfg.Backend)
}

// DetectorFor returns the detector named by cfg.Detector, or nil for none.
func DetectorFor(cfg types.Config) (migration.Detector, error) {
	switch cfg.Detector {
	case "", types.DetectorNone:
		return nil, nil
	case types.DetectorLegacy:
		return migration.LegacyDetector(), nil
	}
	return nil, errors.Wrap(types.ErrDetectorUnknown, cfg.Detector)
}

// NewMigrator returns a migrator to cfg.TargetVersion over steps with the
// detector and downgrade policy of cfg.
func NewMigrator(cfg types.Config, steps []migration.Step, logger log.Logger) (*migration.Migrator, error) {
	detector, err := DetectorFor(cfg)
	if err != nil {
		return nil, err
	}
	opts := []migration.Option{migration.WithLogger(logger)}
	if detector != nil {
		opts = append(opts, migration.WithDetector(detector))
	}
	if cfg.AllowDowngrade {
		opts = append(opts, migration.AllowDowngrade())
	}
	return migration.New(cfg.TargetVersion, steps, opts...), nil
}
