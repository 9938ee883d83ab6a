package cli

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/snapmig/pkg/types"
)

func (a *app) newHistoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history <store>",
		Short: "List the recorded migration runs of a store (sqlite backend)",
		Args:  cobra.ExactArgs(1),
		RunE:  a.runHistory,
	}
}

func (a *app) runHistory(cmd *cobra.Command, args []string) error {
	name, err := storeArg(args)
	if err != nil {
		return err
	}
	e, err := a.setup(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	rec, ok := e.backend.(types.RunRecorder)
	if !ok {
		return userErrorf("the %s backend does not record migration history", e.cfg.Backend)
	}
	runs, err := rec.Runs(name)
	if err != nil {
		return err
	}
	if runs == nil {
		runs = []types.MigrationRun{}
	}

	if a.flags.jsonMode {
		return a.printJSON(cmd.OutOrStdout(), runs)
	}
	w := cmd.OutOrStdout()
	if len(runs) == 0 {
		fmt.Fprintf(w, "no migration runs recorded for %s\n", name)
		return nil
	}
	for _, r := range runs {
		detected := ""
		if r.Detected {
			detected = " (detected)"
		}
		fmt.Fprintf(w, "%s  %d -> %d%s  applied %s  %s, took %s\n",
			r.RunID, r.FromVersion, r.ToVersion, detected, joinVersions(r.Applied),
			humanize.Time(r.FinishedAt), r.FinishedAt.Sub(r.StartedAt))
	}
	return nil
}
