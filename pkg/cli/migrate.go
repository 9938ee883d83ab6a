package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/snapmig/pkg/migration"
)

type planOutput struct {
	Store     string  `json:"store"`
	Recorded  int64   `json:"recorded"`
	Current   int64   `json:"current"`
	Detected  bool    `json:"detected"`
	Target    int64   `json:"target"`
	Steps     []int64 `json:"steps"`
	Missing   []int64 `json:"missing,omitempty"`
	Downgrade bool    `json:"downgrade,omitempty"`
}

type migrateOutput struct {
	planOutput
	Applied []int64 `json:"applied"`
	State   string  `json:"state"`
}

func toPlanOutput(p migration.Plan) planOutput {
	steps := p.Steps
	if steps == nil {
		steps = []int64{}
	}
	return planOutput{
		Store:     p.StoreName,
		Recorded:  p.Recorded,
		Current:   p.Current,
		Detected:  p.Detected,
		Target:    p.Target,
		Steps:     steps,
		Missing:   p.Missing,
		Downgrade: p.Downgrade,
	}
}

func joinVersions(vs []int64) string {
	if len(vs) == 0 {
		return "none"
	}
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = fmt.Sprint(v)
	}
	return strings.Join(parts, ", ")
}

func writePlan(w io.Writer, p planOutput) {
	fmt.Fprintf(w, "store:   %s\n", p.Store)
	if p.Detected {
		fmt.Fprintf(w, "current: %d (detected, recorded %d)\n", p.Current, p.Recorded)
	} else {
		fmt.Fprintf(w, "current: %d\n", p.Current)
	}
	fmt.Fprintf(w, "target:  %d\n", p.Target)
	fmt.Fprintf(w, "steps:   %s\n", joinVersions(p.Steps))
	if len(p.Missing) > 0 {
		fmt.Fprintf(w, "missing: %s\n", joinVersions(p.Missing))
	}
	if p.Downgrade {
		fmt.Fprintln(w, "downgrade: target is below the current version")
	}
}

func (a *app) newPlanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan <store>",
		Short: "Show the steps a migration of a store would run",
		Args:  cobra.ExactArgs(1),
		RunE:  a.runPlan,
	}
	cmd.Flags().Int64("target", 0, "target version (default: configured target, else latest step)")
	return cmd
}

func (a *app) runPlan(cmd *cobra.Command, args []string) error {
	name, err := storeArg(args)
	if err != nil {
		return err
	}
	e, err := a.setup(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	m, err := a.manager(cmd, e)
	if err != nil {
		return err
	}
	p, err := m.Plan(name)
	if err != nil {
		return err
	}
	out := toPlanOutput(p)
	if a.flags.jsonMode {
		return a.printJSON(cmd.OutOrStdout(), out)
	}
	writePlan(cmd.OutOrStdout(), out)
	return nil
}

func (a *app) newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate <store>",
		Short: "Migrate a store to the target version and save it",
		Long: "Load the latest snapshot of a store, replay the compiled-in migration steps\n" +
			"up to the target version and save the result. A failed migration is not saved.\n" +
			"A store that does not exist is created empty at the target version.",
		Args: cobra.ExactArgs(1),
		RunE: a.runMigrate,
	}
	cmd.Flags().Int64("target", 0, "target version (default: configured target, else latest step)")
	cmd.Flags().Bool("allow-downgrade", false, "stamp a target below the current version instead of failing")
	return cmd
}

func (a *app) runMigrate(cmd *cobra.Command, args []string) error {
	name, err := storeArg(args)
	if err != nil {
		return err
	}
	e, err := a.setup(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	m, err := a.manager(cmd, e)
	if err != nil {
		return err
	}
	_, report, err := m.Open(migration.StoreInfo{StoreName: name})
	if err != nil {
		return err
	}

	out := migrateOutput{planOutput: toPlanOutput(report.Plan), Applied: report.Applied, State: report.State.String()}
	if out.Applied == nil {
		out.Applied = []int64{}
	}
	if a.flags.jsonMode {
		return a.printJSON(cmd.OutOrStdout(), out)
	}
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "store %s: version %d -> %d, applied %s\n", name, out.Current, out.Target, joinVersions(out.Applied))
	return nil
}
