package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/snapmig/internal/codec"
	"github.com/mesh-intelligence/snapmig/internal/sample"
	"github.com/mesh-intelligence/snapmig/pkg/migration"
	"github.com/mesh-intelligence/snapmig/pkg/store"
	"github.com/mesh-intelligence/snapmig/pkg/types"
)

var backends = []string{types.BackendSQLite, types.BackendJSONL}

// seed saves snap under storeName directly through the backend.
func (e *testEnv) seed(backend, storeName string, snap *types.Snapshot) {
	e.t.Helper()
	b, err := store.OpenBackend(types.Config{Backend: backend, DataDir: e.DataDir})
	require.NoError(e.t, err)
	defer b.Close()
	require.NoError(e.t, b.Save(storeName, snap))
}

func (e *testEnv) load(backend, storeName string) *types.Snapshot {
	e.t.Helper()
	b, err := store.OpenBackend(types.Config{Backend: backend, DataDir: e.DataDir})
	require.NoError(e.t, err)
	defer b.Close()
	snap, err := b.Load(storeName)
	require.NoError(e.t, err)
	return snap
}

func TestVersion(t *testing.T) {
	env := newTestEnv(t, types.BackendSQLite)
	res := env.mustRun("version")
	assert.Contains(t, res.Stdout, "snapmig v"+Version)
	assert.Contains(t, res.Stdout, modulePath)
}

func TestInit(t *testing.T) {
	for _, backend := range backends {
		t.Run(backend, func(t *testing.T) {
			env := newTestEnv(t, backend)
			require.NoError(t, os.Remove(filepath.Join(env.Config, "config.yaml")))

			res := env.mustRun("--backend", backend, "init")
			assert.Contains(t, res.Stdout, "snapmig initialized")
			assert.FileExists(t, filepath.Join(env.Config, "config.yaml"))
			assert.DirExists(t, env.DataDir)
			if backend == types.BackendSQLite {
				assert.FileExists(t, filepath.Join(env.DataDir, "snapmig.db"))
			}

			// Idempotent.
			env.mustRun("--backend", backend, "init")
		})
	}
}

func TestMigrateBasicPerson(t *testing.T) {
	for _, backend := range backends {
		t.Run(backend, func(t *testing.T) {
			env := newTestEnv(t, backend, sample.Steps()...)
			env.seed(backend, "people", sample.NewSnapshot(0))

			res := env.mustRun("--json", "migrate", "people", "--target", "2")
			out := parseJSON[migrateOutput](t, res.Stdout)
			assert.Equal(t, []int64{1, 2}, out.Applied)
			assert.Equal(t, int64(2), out.Target)
			assert.Equal(t, "stamped", out.State)

			snap := env.load(backend, "people")
			names, err := sample.PersonNamesOf(snap)
			require.NoError(t, err)
			assert.Equal(t, []string{"Name1", "Name2"}, names)
			assert.Equal(t, int64(2), snap.ApplicationModelVersion)

			// Without --target the latest compiled-in step is the target.
			res = env.mustRun("migrate", "people")
			assert.Contains(t, res.Stdout, "version 2 -> 4, applied 3, 4")
		})
	}
}

func TestMigrateLegacyStore(t *testing.T) {
	env := newTestEnv(t, types.BackendSQLite, sample.Steps()...)
	env.seed(types.BackendSQLite, "legacy", sample.NewSnapshot(0, 2, 3))

	res := env.mustRun("--json", "detect", "legacy")
	det := parseJSON[detectOutput](t, res.Stdout)
	require.NotNil(t, det.Detected)
	assert.Equal(t, int64(3), *det.Detected)
	assert.Equal(t, int64(0), det.Recorded)

	res = env.mustRun("--json", "plan", "legacy")
	plan := parseJSON[planOutput](t, res.Stdout)
	assert.True(t, plan.Detected)
	assert.Equal(t, []int64{4}, plan.Steps)

	env.mustRun("migrate", "legacy")
	res = env.mustRun("--json", "history", "legacy")
	runs := parseJSON[[]types.MigrationRun](t, res.Stdout)
	require.Len(t, runs, 1)
	assert.Equal(t, int64(3), runs[0].FromVersion)
	assert.Equal(t, int64(4), runs[0].ToVersion)
	assert.Equal(t, []int64{4}, runs[0].Applied)

	res = env.mustRun("history", "legacy")
	assert.Contains(t, res.Stdout, runs[0].RunID)
	assert.Contains(t, res.Stdout, "3 -> 4 (detected)")
}

func TestMigrateGapIsUserError(t *testing.T) {
	env := newTestEnv(t, types.BackendJSONL, sample.Steps()[0], sample.Steps()[2])
	env.seed(types.BackendJSONL, "p", sample.NewSnapshot(0))

	res := env.run("", "migrate", "p", "--target", "3")
	assert.Equal(t, exitUserError, res.ExitCode)
	assert.True(t, errors.Is(res.Err, migration.ErrMissingStep))
	assert.Equal(t, int64(0), env.load(types.BackendJSONL, "p").ApplicationModelVersion)

	res = env.mustRun("plan", "p", "--target", "3")
	assert.Contains(t, res.Stdout, "missing: 2")
}

func TestMigrateDowngrade(t *testing.T) {
	env := newTestEnv(t, types.BackendJSONL)
	env.seed(types.BackendJSONL, "p", types.NewSnapshot(5))

	res := env.run("", "migrate", "p", "--target", "3")
	assert.Equal(t, exitUserError, res.ExitCode)
	assert.True(t, errors.Is(res.Err, migration.ErrDowngrade))

	env.mustRun("migrate", "p", "--target", "3", "--allow-downgrade")
	assert.Equal(t, int64(3), env.load(types.BackendJSONL, "p").ApplicationModelVersion)
}

func TestMigrateCreatesMissingStore(t *testing.T) {
	env := newTestEnv(t, types.BackendJSONL, sample.Steps()...)
	res := env.mustRun("--json", "migrate", "fresh")
	out := parseJSON[migrateOutput](t, res.Stdout)
	assert.Empty(t, out.Applied)
	assert.Equal(t, int64(4), env.load(types.BackendJSONL, "fresh").ApplicationModelVersion)
}

func TestInspect(t *testing.T) {
	env := newTestEnv(t, types.BackendSQLite)
	snap := sample.NewSnapshot(0, 1)
	snap.TransactionID = "tx-3"
	_, err := migration.New(4, sample.Steps()).Migrate("p", snap)
	require.NoError(t, err)
	env.seed(types.BackendSQLite, "p", snap)

	res := env.mustRun("--json", "inspect", "p")
	out := parseJSON[inspectOutput](t, res.Stdout)
	assert.Equal(t, int64(4), out.ApplicationModelVersion)
	assert.Equal(t, "tx-3", out.TransactionID)
	require.Len(t, out.Entities, 2)
	assert.Equal(t, entitySummary{Name: sample.PersonEntity, Attributes: 3, Instances: 4, NextID: 5}, out.Entities[0])

	res = env.mustRun("inspect", "p")
	assert.Contains(t, res.Stdout, "version:     4")
	assert.Contains(t, res.Stdout, "transaction: tx-3")
	assert.Contains(t, res.Stdout, "4 instances")
}

func TestInspectErrors(t *testing.T) {
	env := newTestEnv(t, types.BackendSQLite)

	res := env.run("", "inspect", "missing")
	assert.Equal(t, exitUserError, res.ExitCode)
	assert.True(t, errors.Is(res.Err, types.ErrStoreNotFound))

	res = env.run("", "inspect", "../x")
	assert.Equal(t, exitUserError, res.ExitCode)

	res = env.run("", "inspect")
	assert.Error(t, res.Err)
}

func TestHistoryNeedsSQLite(t *testing.T) {
	env := newTestEnv(t, types.BackendJSONL)
	res := env.run("", "history", "p")
	assert.Equal(t, exitUserError, res.ExitCode)
	assert.Contains(t, res.Err.Error(), "does not record migration history")
}

func TestDetectWithoutDetector(t *testing.T) {
	env := newTestEnv(t, types.BackendJSONL)
	env.seed(types.BackendJSONL, "p", sample.NewSnapshot(0, 2))
	t.Setenv("SNAPMIG_DETECTOR", "none")

	res := env.mustRun("detect", "p")
	assert.Contains(t, res.Stdout, "no detector configured")
}

func TestExportImport(t *testing.T) {
	env := newTestEnv(t, types.BackendSQLite)
	snap := sample.NewSnapshot(0)
	_, err := migration.New(3, sample.Steps()).Migrate("p", snap)
	require.NoError(t, err)
	env.seed(types.BackendSQLite, "p", snap)

	file := filepath.Join(t.TempDir(), "p.json")
	res := env.mustRun("export", "p", file)
	assert.Contains(t, res.Stdout, "exported p (version 3")

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	decoded, err := codec.Unmarshal(data)
	require.NoError(t, err)
	assert.Equal(t, snap, decoded)

	env.mustRun("import", "copy", file)
	assert.Equal(t, snap, env.load(types.BackendSQLite, "copy"))

	res = env.run("", "import", "copy", file)
	assert.Equal(t, exitUserError, res.ExitCode)
	assert.Contains(t, res.Err.Error(), "--force")
	env.mustRun("import", "copy", file, "--force")

	res = env.mustRun("export", "p", "-")
	assert.True(t, strings.HasPrefix(res.Stdout, "{"))
}

func TestImportFromStdinValidates(t *testing.T) {
	env := newTestEnv(t, types.BackendJSONL)

	res := env.run(`{"applicationModelVersion": 2, "entities": [{"entityName": "E", "nextId": 1, "instances": [{"id": 0}]}]}`, "import", "e", "-")
	require.Equal(t, exitSuccess, res.ExitCode, "%v", res.Err)
	assert.Equal(t, int64(2), env.load(types.BackendJSONL, "e").ApplicationModelVersion)

	res = env.run(`{"entities": []}`, "import", "bad", "-")
	assert.Equal(t, exitUserError, res.ExitCode)
	assert.True(t, errors.Is(res.Err, codec.ErrInvalidDocument))

	res = env.run(`{"applicationModelVersion": 1, "entities": [{"entityName": "E", "nextId": 0, "instances": [{"id": 0}]}]}`, "import", "bad", "-")
	assert.Equal(t, exitUserError, res.ExitCode)
	assert.True(t, errors.Is(res.Err, types.ErrInvalidNextID))
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, exitSuccess, ExitCode(nil))
	assert.Equal(t, exitUserError, ExitCode(userErrorf("bad flag")))
	assert.Equal(t, exitUserError, ExitCode(errors.Wrap(types.ErrStoreNotFound, "load")))
	assert.Equal(t, exitSysError, ExitCode(errors.New("disk on fire")))
}

func TestBadConfigIsUserError(t *testing.T) {
	env := newTestEnv(t, types.BackendSQLite)
	res := env.run("", "--backend", "postgres", "inspect", "p")
	assert.Equal(t, exitUserError, res.ExitCode)
	assert.True(t, errors.Is(res.Err, types.ErrBackendUnknown))
}
