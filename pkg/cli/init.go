package cli

import (
	"fmt"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/snapmig/internal/config"
	"github.com/mesh-intelligence/snapmig/internal/paths"
)

func (a *app) newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize snapmig configuration and storage",
		Long:  "Write a default config.yaml if none exists, then create the data directory and the snapshot store backend.",
		Args:  cobra.NoArgs,
		RunE:  a.runInit,
	}
}

func (a *app) runInit(cmd *cobra.Command, args []string) error {
	configDir, err := paths.ResolveConfigDir(a.flags.configDir)
	if err != nil {
		return err
	}
	if err := config.EnsureDefaultFile(configDir); err != nil {
		return err
	}

	e, err := a.setup(cmd)
	if err != nil {
		return err
	}
	if err := e.Close(); err != nil {
		return errors.Wrap(err, "finalize storage")
	}

	fmt.Fprintf(cmd.OutOrStdout(), "snapmig initialized\nconfig: %s\ndata:   %s (%s)\n",
		filepath.Join(configDir, config.FileName), e.cfg.DataDir, e.cfg.Backend)
	return nil
}
