package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/snapmig/pkg/types"
)

// clearEnv unsets the override variables for the duration of a test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"SNAPMIG_BACKEND", "SNAPMIG_DATA_DIR", "SNAPMIG_TARGET_VERSION",
		"SNAPMIG_DETECTOR", "SNAPMIG_ALLOW_DOWNGRADE", "SNAPMIG_LOG_LEVEL",
	} {
		t.Setenv(name, "")
		os.Unsetenv(name)
	}
}

func writeConfig(t *testing.T, dir, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0o644))
}

func TestLoadWritesDefaultFile(t *testing.T) {
	clearEnv(t)
	dir := filepath.Join(t.TempDir(), "config")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, Defaults(), cfg)

	data, err := os.ReadFile(filepath.Join(dir, FileName))
	require.NoError(t, err)
	assert.Equal(t, DefaultYAML, string(data))
}

func TestLoadKeepsExistingFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	writeConfig(t, dir, "backend: jsonl\ntarget_version: 7\ndetector: none\nallow_downgrade: true\nlog_level: debug\ndata_dir: /srv/snapmig\n")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, types.Config{
		Backend:        types.BackendJSONL,
		DataDir:        "/srv/snapmig",
		TargetVersion:  7,
		Detector:       types.DetectorNone,
		AllowDowngrade: true,
		LogLevel:       types.LogLevelDebug,
	}, cfg)

	data, err := os.ReadFile(filepath.Join(dir, FileName))
	require.NoError(t, err)
	assert.NotEqual(t, DefaultYAML, string(data))
}

func TestLoadPartialFileUsesDefaults(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	writeConfig(t, dir, "target_version: 3\n")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, types.BackendSQLite, cfg.Backend)
	assert.Equal(t, types.DetectorLegacy, cfg.Detector)
	assert.Equal(t, int64(3), cfg.TargetVersion)
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	writeConfig(t, dir, "backend: sqlite\ntarget_version: 3\n")

	t.Setenv("SNAPMIG_BACKEND", "jsonl")
	t.Setenv("SNAPMIG_TARGET_VERSION", "9")
	t.Setenv("SNAPMIG_ALLOW_DOWNGRADE", "true")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, types.BackendJSONL, cfg.Backend)
	assert.Equal(t, int64(9), cfg.TargetVersion)
	assert.True(t, cfg.AllowDowngrade)
	assert.Equal(t, types.DetectorLegacy, cfg.Detector)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		env     map[string]string
		wantErr error
	}{
		{name: "unknown backend", content: "backend: postgres\n", wantErr: types.ErrBackendUnknown},
		{name: "unknown detector", content: "detector: guess\n", wantErr: types.ErrDetectorUnknown},
		{name: "unknown log level", content: "log_level: loud\n", wantErr: types.ErrLogLevelUnknown},
		{name: "bad env backend", content: "", env: map[string]string{"SNAPMIG_BACKEND": "mysql"}, wantErr: types.ErrBackendUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			dir := t.TempDir()
			writeConfig(t, dir, tt.content)
			_, err := Load(dir)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}

	t.Run("bad env value", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("SNAPMIG_TARGET_VERSION", "latest")
		_, err := Load(t.TempDir())
		assert.Error(t, err)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		clearEnv(t)
		dir := t.TempDir()
		writeConfig(t, dir, "backend: [unclosed\n")
		_, err := Load(dir)
		assert.Error(t, err)
	})
}
