package migration

import (
	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/pkg/errors"

	"github.com/mesh-intelligence/snapmig/pkg/types"
)

// maxReportedGaps bounds the versions listed by a MissingStepError.
const maxReportedGaps = 16

// State is the progress of one migration.
type State int

const (
	StateIdle State = iota
	StateVersionResolved
	StateMigrating
	StateStamped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateVersionResolved:
		return "version-resolved"
	case StateMigrating:
		return "migrating"
	case StateStamped:
		return "stamped"
	}
	return "unknown"
}

// Plan is the resolved work of a migration before any step runs.
type Plan struct {
	StoreName string
	// Recorded is the version stored in the snapshot.
	Recorded int64
	// Current is the effective version: Recorded, or the detector result
	// when Recorded is zero.
	Current  int64
	Target   int64
	Detected bool
	// Steps lists the registered versions that will run, ascending.
	Steps []int64
	// Missing lists versions of the range without a registered step.
	Missing   []int64
	Downgrade bool
}

// Report is the outcome of Migrate.
type Report struct {
	Plan
	Applied []int64
	State   State
}

// Changed reports whether the migration applied steps or stamped a version
// different from the recorded one.
func (r Report) Changed() bool {
	return len(r.Applied) > 0 || (r.State == StateStamped && r.Recorded != r.Target)
}

// Migrator replays a chain of steps on snapshots up to a fixed target
// version. A Migrator holds no per-snapshot state and can be reused.
type Migrator struct {
	chain          *Chain
	target         int64
	detector       Detector
	allowDowngrade bool
	logger         log.Logger
}

// Option configures a Migrator.
type Option func(*Migrator)

// WithDetector sets the detector consulted for unversioned snapshots.
func WithDetector(d Detector) Option {
	return func(m *Migrator) { m.detector = d }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l log.Logger) Option {
	return func(m *Migrator) {
		if l != nil {
			m.logger = l
		}
	}
}

// AllowDowngrade makes a target below the current version stamp the lower
// version without running any step, instead of failing with ErrDowngrade.
func AllowDowngrade() Option {
	return func(m *Migrator) { m.allowDowngrade = true }
}

// New returns a Migrator upgrading snapshots to target with steps. When two
// steps declare the same version the later one wins. The target is not
// validated.
func New(target int64, steps []Step, opts ...Option) *Migrator {
	m := &Migrator{
		chain:  NewChain(steps...),
		target: target,
		logger: log.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Target returns the version snapshots are migrated to.
func (m *Migrator) Target() int64 { return m.target }

// Chain returns the step index of the migrator.
func (m *Migrator) Chain() *Chain { return m.chain }

// Plan resolves the current version of snap and the steps a migration to the
// target would run. It does not modify snap, but it runs the detector.
func (m *Migrator) Plan(storeName string, snap *types.Snapshot) (Plan, error) {
	if snap == nil {
		return Plan{}, ErrNilSnapshot
	}
	p := Plan{
		StoreName: storeName,
		Recorded:  snap.ApplicationModelVersion,
		Current:   snap.ApplicationModelVersion,
		Target:    m.target,
	}
	if p.Recorded == 0 && m.detector != nil {
		v, err := m.detector(snap)
		if err != nil {
			return p, errors.Wrap(err, "detect legacy version")
		}
		if v < 0 {
			return p, errors.Wrapf(ErrInvalidVersion, "detector returned %d", v)
		}
		p.Current = v
		p.Detected = true
	}
	switch {
	case p.Current < p.Target:
		p.Steps = m.chain.Covered(p.Current+1, p.Target)
		p.Missing = m.chain.Missing(p.Current+1, p.Target, maxReportedGaps)
	case p.Current > p.Target:
		p.Downgrade = true
	}
	return p, nil
}

// Migrate brings snap to the target version in place. It resolves the
// current version, checks that every version from current+1 to the target
// has a step, runs those steps in ascending order and stamps the target.
//
// When a step fails the snapshot is left partially migrated and must be
// discarded. A coverage gap is detected before any step runs.
func (m *Migrator) Migrate(storeName string, snap *types.Snapshot) (Report, error) {
	r := Report{State: StateIdle}
	logger := log.With(m.logger, "store", storeName)

	p, err := m.Plan(storeName, snap)
	r.Plan = p
	if err != nil {
		level.Error(logger).Log("msg", "resolve version", "err", err)
		return r, err
	}
	r.State = StateVersionResolved
	level.Debug(logger).Log("msg", "version resolved", "recorded", p.Recorded, "current", p.Current, "detected", p.Detected, "target", p.Target)

	if p.Downgrade && !m.allowDowngrade {
		err := errors.Wrapf(ErrDowngrade, "store %q is at version %d, target is %d", storeName, p.Current, p.Target)
		level.Error(logger).Log("msg", "refusing downgrade", "from", p.Current, "to", p.Target)
		return r, err
	}
	if len(p.Missing) > 0 {
		err := &MissingStepError{Version: p.Missing[0], Missing: p.Missing}
		level.Error(logger).Log("msg", "coverage gap", "version", p.Missing[0], "missing", len(p.Missing))
		return r, err
	}

	if p.Current < p.Target {
		r.State = StateMigrating
		for v := p.Current + 1; v <= p.Target; v++ {
			step, ok := m.chain.Step(v)
			if !ok {
				return r, &MissingStepError{Version: v, Missing: []int64{v}}
			}
			level.Debug(logger).Log("msg", "apply step", "version", v)
			if err := step.Migrate(storeName, snap); err != nil {
				level.Error(logger).Log("msg", "step failed", "version", v, "err", err)
				return r, errors.Wrapf(err, "migration to version %d", v)
			}
			r.Applied = append(r.Applied, v)
		}
	}

	snap.ApplicationModelVersion = p.Target
	r.State = StateStamped
	level.Info(logger).Log("msg", "snapshot migrated", "from", p.Current, "to", p.Target, "applied", len(r.Applied))
	return r, nil
}

// MigrateSnapshot migrates snap to targetVersion with steps and an optional
// detector and returns the migrated snapshot.
func MigrateSnapshot(snap *types.Snapshot, storeName string, targetVersion int64, steps []Step, detector Detector) (*types.Snapshot, error) {
	var opts []Option
	if detector != nil {
		opts = append(opts, WithDetector(detector))
	}
	if _, err := New(targetVersion, steps, opts...).Migrate(storeName, snap); err != nil {
		return nil, err
	}
	return snap, nil
}
