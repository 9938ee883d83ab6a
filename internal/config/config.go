// Package config loads the snapmig configuration: config.yaml in the config
// directory, read with viper, then SNAPMIG_* environment overrides.
package config

import (
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/mesh-intelligence/snapmig/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"

	// FileName is the configuration file inside the config directory.
	FileName = "config.yaml"

	cfgKeyBackend        = "backend"
	cfgKeyDataDir        = "data_dir"
	cfgKeyTargetVersion  = "target_version"
	cfgKeyDetector       = "detector"
	cfgKeyAllowDowngrade = "allow_downgrade"
	cfgKeyLogLevel       = "log_level"
)

// DefaultYAML is the content written to config.yaml on first run.
const DefaultYAML = `# snapmig configuration

# Snapshot store backend: sqlite or jsonl
backend: sqlite

# Data directory (optional; overridable by --data-dir and SNAPMIG_DATA_DIR)
# data_dir:

# Application model version stores are migrated to (overridable by --target)
target_version: 0

# Version detection for snapshots without a version: legacy or none
detector: legacy

# Stamp a lower target instead of refusing to downgrade
allow_downgrade: false

# debug, info, warn or error
log_level: info
`

// Defaults returns the configuration used when config.yaml sets nothing.
func Defaults() types.Config {
	return types.Config{
		Backend:  types.BackendSQLite,
		Detector: types.DetectorLegacy,
		LogLevel: types.LogLevelInfo,
	}
}

// Load reads config.yaml from configDir, creating the directory and a
// default file on first run, applies environment overrides and validates
// the result.
func Load(configDir string) (types.Config, error) {
	if err := EnsureDefaultFile(configDir); err != nil {
		return types.Config{}, err
	}

	def := Defaults()
	v := viper.New()
	v.SetDefault(cfgKeyBackend, def.Backend)
	v.SetDefault(cfgKeyDataDir, "")
	v.SetDefault(cfgKeyTargetVersion, def.TargetVersion)
	v.SetDefault(cfgKeyDetector, def.Detector)
	v.SetDefault(cfgKeyAllowDowngrade, def.AllowDowngrade)
	v.SetDefault(cfgKeyLogLevel, def.LogLevel)
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return types.Config{}, errors.Wrap(err, "read config")
		}
	}

	var cfg types.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return types.Config{}, errors.Wrap(err, "decode config")
	}
	if err := env.Parse(&cfg); err != nil {
		return types.Config{}, errors.Wrap(err, "parse env")
	}
	if err := cfg.Validate(); err != nil {
		return types.Config{}, errors.Wrapf(err, "invalid config %s", filepath.Join(configDir, FileName))
	}
	return cfg, nil
}

// EnsureDefaultFile creates configDir and writes DefaultYAML to config.yaml
// unless the file exists. It reports no error when the file exists.
func EnsureDefaultFile(configDir string) error {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return errors.Wrap(err, "ensure config dir")
	}
	path := filepath.Join(configDir, FileName)
	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !os.IsNotExist(err) {
		return errors.Wrap(err, "stat config file")
	}
	if err := os.WriteFile(path, []byte(DefaultYAML), 0o644); err != nil {
		return errors.Wrap(err, "write default config")
	}
	return nil
}
