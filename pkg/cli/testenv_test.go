package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/snapmig/pkg/migration"
)

// testEnv provides an isolated environment with its own config and data
// directory.
type testEnv struct {
	t       *testing.T
	Config  string
	DataDir string
	steps   []migration.Step
}

// newTestEnv creates config.yaml selecting backend and returns the env.
func newTestEnv(t *testing.T, backend string, steps ...migration.Step) *testEnv {
	t.Helper()
	for _, name := range []string{"SNAPMIG_BACKEND", "SNAPMIG_DATA_DIR", "SNAPMIG_TARGET_VERSION",
		"SNAPMIG_DETECTOR", "SNAPMIG_ALLOW_DOWNGRADE", "SNAPMIG_LOG_LEVEL", "SNAPMIG_CONFIG_DIR"} {
		t.Setenv(name, "")
		os.Unsetenv(name)
	}

	tempDir := t.TempDir()
	configDir := filepath.Join(tempDir, "config")
	dataDir := filepath.Join(tempDir, "data")
	require.NoError(t, os.MkdirAll(configDir, 0o755))
	content := "backend: " + backend + "\ndetector: legacy\nlog_level: error\n"
	require.NoError(t, os.WriteFile(filepath.Join(configDir, "config.yaml"), []byte(content), 0o644))

	return &testEnv{t: t, Config: configDir, DataDir: dataDir, steps: steps}
}

// cmdResult holds the result of one command execution.
type cmdResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Err      error
}

// run executes snapmig with args against the env directories.
func (e *testEnv) run(stdin string, args ...string) cmdResult {
	e.t.Helper()
	root := NewRootCmd(WithSteps(e.steps...))
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append([]string{"--config-dir", e.Config, "--data-dir", e.DataDir}, args...))

	err := root.Execute()
	return cmdResult{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: ExitCode(err),
		Err:      err,
	}
}

// mustRun executes snapmig and fails the test on a non-zero exit code.
func (e *testEnv) mustRun(args ...string) cmdResult {
	e.t.Helper()
	res := e.run("", args...)
	require.Equal(e.t, exitSuccess, res.ExitCode, "snapmig %v: %v\nstderr: %s", args, res.Err, res.Stderr)
	return res
}

// parseJSON decodes command output into T.
func parseJSON[T any](t *testing.T, s string) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal([]byte(s), &v), "output: %s", s)
	return v
}
