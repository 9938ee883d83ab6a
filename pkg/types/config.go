package types

import "errors"

// Config holds backend selection and migration parameters for the store
// manager and the snapmig CLI.
type Config struct {
	Backend        string `json:"backend" yaml:"backend" mapstructure:"backend" env:"SNAPMIG_BACKEND"`
	DataDir        string `json:"data_dir" yaml:"data_dir" mapstructure:"data_dir" env:"SNAPMIG_DATA_DIR"`
	TargetVersion  int64  `json:"target_version" yaml:"target_version" mapstructure:"target_version" env:"SNAPMIG_TARGET_VERSION"`
	Detector       string `json:"detector" yaml:"detector" mapstructure:"detector" env:"SNAPMIG_DETECTOR"`
	AllowDowngrade bool   `json:"allow_downgrade" yaml:"allow_downgrade" mapstructure:"allow_downgrade" env:"SNAPMIG_ALLOW_DOWNGRADE"`
	LogLevel       string `json:"log_level" yaml:"log_level" mapstructure:"log_level" env:"SNAPMIG_LOG_LEVEL"`
}

// Supported backend names.
const (
	BackendSQLite = "sqlite"
	BackendJSONL  = "jsonl"
)

// Supported detector names. DetectorLegacy scans version marker entities of
// unversioned snapshots; DetectorNone treats them as version zero.
const (
	DetectorNone   = "none"
	DetectorLegacy = "legacy"
)

// Supported log levels.
const (
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"
)

// Config validation errors.
var (
	ErrBackendEmpty    = errors.New("backend must not be empty")
	ErrBackendUnknown  = errors.New("unknown backend")
	ErrDetectorUnknown = errors.New("unknown detector")
	ErrLogLevelUnknown = errors.New("unknown log level")
)

var knownBackends = map[string]bool{
	BackendSQLite: true,
	BackendJSONL:  true,
}

var knownDetectors = map[string]bool{
	"":             true,
	DetectorNone:   true,
	DetectorLegacy: true,
}

var knownLogLevels = map[string]bool{
	"":            true,
	LogLevelDebug: true,
	LogLevelInfo:  true,
	LogLevelWarn:  true,
	LogLevelError: true,
}

// Validate checks that the Config is well-formed. It returns a sentinel error
// from this package on failure. The target version is not checked.
func (c Config) Validate() error {
	if c.Backend == "" {
		return ErrBackendEmpty
	}
	if !knownBackends[c.Backend] {
		return ErrBackendUnknown
	}
	if !knownDetectors[c.Detector] {
		return ErrDetectorUnknown
	}
	if !knownLogLevels[c.LogLevel] {
		return ErrLogLevelUnknown
	}
	return nil
}
