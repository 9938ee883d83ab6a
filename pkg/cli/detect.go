package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/snapmig/pkg/store"
)

type detectOutput struct {
	Store    string `json:"store"`
	Detector string `json:"detector"`
	Recorded int64  `json:"recorded"`
	Detected *int64 `json:"detected"`
}

func (a *app) newDetectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "detect <store>",
		Short: "Run the configured version detector on a stored snapshot",
		Long: "Run the configured version detector on a stored snapshot. Migrations only\n" +
			"consult the detector when the snapshot records version 0.",
		Args: cobra.ExactArgs(1),
		RunE: a.runDetect,
	}
}

func (a *app) runDetect(cmd *cobra.Command, args []string) error {
	name, err := storeArg(args)
	if err != nil {
		return err
	}
	e, err := a.setup(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	detector, err := store.DetectorFor(e.cfg)
	if err != nil {
		return err
	}
	snap, err := e.backend.Load(name)
	if err != nil {
		return err
	}

	out := detectOutput{Store: name, Detector: e.cfg.Detector, Recorded: snap.ApplicationModelVersion}
	if detector != nil {
		v, err := detector(snap)
		if err != nil {
			return err
		}
		out.Detected = &v
	}

	if a.flags.jsonMode {
		return a.printJSON(cmd.OutOrStdout(), out)
	}
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "recorded version: %d\n", out.Recorded)
	if out.Detected == nil {
		fmt.Fprintln(w, "detected version: no detector configured")
		return nil
	}
	fmt.Fprintf(w, "detected version: %d (%s detector)\n", *out.Detected, out.Detector)
	return nil
}
