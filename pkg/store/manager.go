// Package store opens named snapshot stores: it loads the latest snapshot of
// a store from a persistence backend, migrates it to the application model
// version the program is built for and saves the result.
//
//	backend, err := store.OpenBackend(cfg)
//	...
//	m := store.NewManager(backend, migration.New(4, steps), store.WithLogger(logger))
//	defer m.Close()
//	snap, report, err := m.Open(migration.StoreInfo{StoreName: "people"})
//
// A failed migration is never saved: the backend keeps the snapshot it held
// before Open was called.
package store

import (
	"sync"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/pkg/errors"

	"github.com/mesh-intelligence/snapmig/pkg/migration"
	"github.com/mesh-intelligence/snapmig/pkg/types"
)

// Manager opens stores of one backend with one migrator. It is safe for
// concurrent use; opens of the same store name are serialized.
type Manager struct {
	backend  types.SnapshotStore
	migrator *migration.Migrator
	registry *migration.StoreRegistry
	logger   log.Logger
	now      func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l log.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithRegistry makes the manager record opened stores in r instead of a
// registry of its own.
func WithRegistry(r *migration.StoreRegistry) Option {
	return func(m *Manager) {
		if r != nil {
			m.registry = r
		}
	}
}

// WithClock sets the time source of recorded migration runs.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// NewManager returns a manager migrating the snapshots of backend with
// migrator.
func NewManager(backend types.SnapshotStore, migrator *migration.Migrator, opts ...Option) *Manager {
	m := &Manager{
		backend:  backend,
		migrator: migrator,
		registry: migration.NewStoreRegistry(),
		logger:   log.NewNopLogger(),
		now:      time.Now,
		locks:    make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Backend returns the persistence backend.
func (m *Manager) Backend() types.SnapshotStore { return m.backend }

// Migrator returns the migrator applied by Open.
func (m *Manager) Migrator() *migration.Migrator { return m.migrator }

// Registry returns the registry of opened stores.
func (m *Manager) Registry() *migration.StoreRegistry { return m.registry }

// Open registers info, loads the latest snapshot of the store, migrates it
// to the migrator's target and saves it when the migration changed it.
//
// A store that was never saved starts as an empty snapshot at the target
// version and is saved as such. When resolution or a step fails, nothing is
// saved and the error is returned with the partial report.
func (m *Manager) Open(info migration.StoreInfo) (*types.Snapshot, migration.Report, error) {
	name := info.StoreName
	if err := types.ValidateStoreName(name); err != nil {
		return nil, migration.Report{}, err
	}

	unlock := m.lock(name)
	defer unlock()

	// Steps look up the store info while they run; a failed open restores
	// the record held before.
	prev, registered := m.registry.Get(name)
	if err := m.registry.Put(info); err != nil {
		return nil, migration.Report{}, err
	}
	opened := false
	defer func() {
		switch {
		case opened:
		case registered:
			_ = m.registry.Put(prev)
		default:
			m.registry.Delete(name)
		}
	}()

	logger := log.With(m.logger, "store", name)
	snap, err := m.backend.Load(name)
	created := false
	switch {
	case errors.Is(err, types.ErrStoreNotFound):
		snap = types.NewSnapshot(m.migrator.Target())
		created = true
		level.Info(logger).Log("msg", "creating store", "version", snap.ApplicationModelVersion)
	case err != nil:
		return nil, migration.Report{}, errors.Wrapf(err, "load store %s", name)
	}

	started := m.now()
	report, err := m.migrator.Migrate(name, snap)
	if err != nil {
		return nil, report, errors.Wrapf(err, "migrate store %s", name)
	}
	if !created && !report.Changed() {
		opened = true
		return snap, report, nil
	}

	if err := m.backend.Save(name, snap); err != nil {
		return nil, report, errors.Wrapf(err, "save store %s", name)
	}
	if report.Changed() {
		m.recordRun(logger, report, started)
	}
	opened = true
	return snap, report, nil
}

// Plan resolves what Open would do for storeName without saving anything.
// Detection runs on a copy of the stored snapshot.
func (m *Manager) Plan(storeName string) (migration.Plan, error) {
	unlock := m.lock(storeName)
	defer unlock()

	snap, err := m.backend.Load(storeName)
	if err != nil {
		return migration.Plan{}, errors.Wrapf(err, "load store %s", storeName)
	}
	return m.migrator.Plan(storeName, snap.Clone())
}

// Runs returns the recorded migration history of storeName. It returns an
// empty history when the backend does not record runs.
func (m *Manager) Runs(storeName string) ([]types.MigrationRun, error) {
	rec, ok := m.backend.(types.RunRecorder)
	if !ok {
		return nil, nil
	}
	return rec.Runs(storeName)
}

// Close forgets all registered stores and closes the backend.
func (m *Manager) Close() error {
	for _, name := range m.registry.Names() {
		m.registry.Delete(name)
	}
	return m.backend.Close()
}

func (m *Manager) recordRun(logger log.Logger, r migration.Report, started time.Time) {
	rec, ok := m.backend.(types.RunRecorder)
	if !ok {
		return
	}
	run := &types.MigrationRun{
		StoreName:   r.StoreName,
		FromVersion: r.Current,
		ToVersion:   r.Target,
		Detected:    r.Detected,
		Applied:     r.Applied,
		StartedAt:   started,
		FinishedAt:  m.now(),
	}
	// The snapshot is already saved; a lost history entry is not fatal.
	if err := rec.RecordRun(run); err != nil {
		level.Warn(logger).Log("msg", "recording migration run", "err", err)
		return
	}
	level.Debug(logger).Log("msg", "migration run recorded", "run", run.RunID)
}

// lock serializes work on one store name and returns the unlock function.
func (m *Manager) lock(name string) func() {
	m.mu.Lock()
	l, ok := m.locks[name]
	if !ok {
		l = &sync.Mutex{}
		m.locks[name] = l
	}
	m.mu.Unlock()
	l.Lock()
	return l.Unlock
}
