// Package cli implements the snapmig command-line interface: it inspects,
// plans, migrates, exports and imports the snapshot stores of a data
// directory.
//
// The migration steps of an application are compiled into its binary:
//
//	func main() {
//		os.Exit(cli.Execute(cli.WithSteps(myapp.MigrationSteps()...)))
//	}
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/snapmig/pkg/migration"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configDir string
	dataDir   string
	backend   string
	jsonMode  bool
}

// Option configures the root command.
type Option func(*app)

// WithSteps sets the migration steps the migrate and plan commands apply.
func WithSteps(steps ...migration.Step) Option {
	return func(a *app) { a.steps = append(a.steps, steps...) }
}

// NewRootCmd creates the top-level "snapmig" command with global flags
// and all subcommands registered.
func NewRootCmd(opts ...Option) *cobra.Command {
	a := &app{}
	for _, opt := range opts {
		opt(a)
	}

	root := &cobra.Command{
		Use:   "snapmig",
		Short: "Versioned snapshot migration for entity stores",
		Long: "snapmig upgrades persisted entity store snapshots to the application\n" +
			"model version of the binary by replaying its migration steps in order.",
		// Do not print usage on errors returned by subcommands.
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&a.flags.configDir, "config-dir", "", "configuration directory (default: per-user config dir)")
	root.PersistentFlags().StringVar(&a.flags.dataDir, "data-dir", "", "data directory (default: per-user data dir)")
	root.PersistentFlags().StringVar(&a.flags.backend, "backend", "", "snapshot store backend: sqlite or jsonl (default from config)")
	root.PersistentFlags().BoolVar(&a.flags.jsonMode, "json", false, "output in JSON format")

	root.AddCommand(
		newVersionCmd(),
		a.newInitCmd(),
		a.newInspectCmd(),
		a.newDetectCmd(),
		a.newPlanCmd(),
		a.newMigrateCmd(),
		a.newHistoryCmd(),
		a.newExportCmd(),
		a.newImportCmd(),
	)
	return root
}

// Execute runs the root command with os.Args and returns the process exit
// code. Errors are printed to stderr.
func Execute(opts ...Option) int {
	root := NewRootCmd(opts...)
	err := root.Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, "snapmig:", err)
	}
	return ExitCode(err)
}
