package cli

import (
	"encoding/json"
	"io"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/snapmig/internal/codec"
	"github.com/mesh-intelligence/snapmig/internal/config"
	"github.com/mesh-intelligence/snapmig/internal/paths"
	"github.com/mesh-intelligence/snapmig/pkg/migration"
	"github.com/mesh-intelligence/snapmig/pkg/store"
	"github.com/mesh-intelligence/snapmig/pkg/types"
)

// app carries the state shared by the subcommands of one root command.
type app struct {
	flags rootFlags
	steps []migration.Step
}

// env is the resolved environment of one command run.
type env struct {
	cfg       types.Config
	configDir string
	logger    log.Logger
	backend   types.SnapshotStore
}

func (e *env) Close() error {
	if e.backend == nil {
		return nil
	}
	return e.backend.Close()
}

// userError marks failures caused by the invocation rather than the system.
type userError struct {
	err error
}

func (e userError) Error() string { return e.err.Error() }
func (e userError) Unwrap() error { return e.err }

func userErrorf(format string, args ...any) error {
	return userError{err: errors.Errorf(format, args...)}
}

// userErrors are sentinels that report a problem with the request.
var userErrors = []error{
	types.ErrStoreNotFound,
	types.ErrInvalidStoreName,
	types.ErrBackendUnknown,
	types.ErrBackendEmpty,
	types.ErrDetectorUnknown,
	types.ErrLogLevelUnknown,
	migration.ErrMissingStep,
	migration.ErrDowngrade,
	codec.ErrInvalidDocument,
}

// ExitCode maps a command error to the process exit code: 0 for success,
// 1 for user errors and 2 for everything else.
func ExitCode(err error) int {
	if err == nil {
		return exitSuccess
	}
	var ue userError
	if errors.As(err, &ue) {
		return exitUserError
	}
	for _, target := range userErrors {
		if errors.Is(err, target) {
			return exitUserError
		}
	}
	return exitSysError
}

// setup loads the configuration, applies the global flags and opens the
// snapshot store backend. The caller must Close the returned env.
func (a *app) setup(cmd *cobra.Command) (*env, error) {
	configDir, err := paths.ResolveConfigDir(a.flags.configDir)
	if err != nil {
		return nil, errors.Wrap(err, "resolve config dir")
	}
	cfg, err := config.Load(configDir)
	if err != nil {
		return nil, err
	}
	if a.flags.backend != "" {
		cfg.Backend = a.flags.backend
	}
	cfg.DataDir, err = paths.ResolveDataDir(a.flags.dataDir, cfg.DataDir)
	if err != nil {
		return nil, errors.Wrap(err, "resolve data dir")
	}

	e := &env{
		cfg:       cfg,
		configDir: configDir,
		logger:    newLogger(cmd.ErrOrStderr(), cfg.LogLevel),
	}
	e.backend, err = store.OpenBackend(cfg)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s backend", cfg.Backend)
	}
	level.Debug(e.logger).Log("msg", "backend opened", "backend", cfg.Backend, "data_dir", cfg.DataDir)
	return e, nil
}

// target returns the version to migrate to: the --target flag when given,
// else the configured target, else the latest compiled-in step.
func (a *app) target(cmd *cobra.Command, cfg types.Config) int64 {
	if f := cmd.Flags().Lookup("target"); f != nil && f.Changed {
		v, _ := cmd.Flags().GetInt64("target")
		return v
	}
	if cfg.TargetVersion != 0 {
		return cfg.TargetVersion
	}
	return migration.NewChain(a.steps...).Latest()
}

// manager returns a store manager over the env backend migrating to the
// target version with the compiled-in steps.
func (a *app) manager(cmd *cobra.Command, e *env) (*store.Manager, error) {
	cfg := e.cfg
	cfg.TargetVersion = a.target(cmd, cfg)
	if f := cmd.Flags().Lookup("allow-downgrade"); f != nil && f.Changed {
		cfg.AllowDowngrade, _ = cmd.Flags().GetBool("allow-downgrade")
	}
	m, err := store.NewMigrator(cfg, a.steps, e.logger)
	if err != nil {
		return nil, err
	}
	return store.NewManager(e.backend, m, store.WithLogger(e.logger)), nil
}

// newLogger returns a logfmt logger on w filtered to levelName.
func newLogger(w io.Writer, levelName string) log.Logger {
	logger := log.NewLogfmtLogger(log.NewSyncWriter(w))
	logger = log.With(logger, "ts", log.DefaultTimestampUTC)
	var allow level.Option
	switch levelName {
	case types.LogLevelDebug:
		allow = level.AllowDebug()
	case types.LogLevelWarn:
		allow = level.AllowWarn()
	case types.LogLevelError:
		allow = level.AllowError()
	default:
		allow = level.AllowInfo()
	}
	return level.NewFilter(logger, allow)
}

func (a *app) printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// storeArg validates the store name argument.
func storeArg(args []string) (string, error) {
	name := args[0]
	if err := types.ValidateStoreName(name); err != nil {
		return "", userError{err: err}
	}
	return name, nil
}
