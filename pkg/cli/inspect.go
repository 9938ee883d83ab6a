package cli

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/snapmig/pkg/types"
)

type entitySummary struct {
	Name       string `json:"name"`
	Attributes int    `json:"attributes"`
	Relations  int    `json:"relations"`
	Instances  int    `json:"instances"`
	NextID     int64  `json:"next_id"`
}

type inspectOutput struct {
	Store                   string          `json:"store"`
	ApplicationModelVersion int64           `json:"application_model_version"`
	SnapshotModelVersion    int64           `json:"snapshot_model_version"`
	TransactionID           string          `json:"transaction_id,omitempty"`
	Entities                []entitySummary `json:"entities"`
}

func summarize(storeName string, snap *types.Snapshot) inspectOutput {
	out := inspectOutput{
		Store:                   storeName,
		ApplicationModelVersion: snap.ApplicationModelVersion,
		SnapshotModelVersion:    snap.SnapshotModelVersion,
		TransactionID:           snap.TransactionID,
		Entities:                make([]entitySummary, 0, len(snap.Entities)),
	}
	for _, e := range snap.Entities {
		out.Entities = append(out.Entities, entitySummary{
			Name:       e.Name,
			Attributes: len(e.Attributes),
			Relations:  len(e.Relations),
			Instances:  len(e.Instances),
			NextID:     e.NextID,
		})
	}
	return out
}

func (a *app) newInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <store>",
		Short: "Show the version and entities of a stored snapshot",
		Args:  cobra.ExactArgs(1),
		RunE:  a.runInspect,
	}
}

func (a *app) runInspect(cmd *cobra.Command, args []string) error {
	name, err := storeArg(args)
	if err != nil {
		return err
	}
	e, err := a.setup(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	snap, err := e.backend.Load(name)
	if err != nil {
		return err
	}
	out := summarize(name, snap)
	if a.flags.jsonMode {
		return a.printJSON(cmd.OutOrStdout(), out)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "store:       %s\n", out.Store)
	fmt.Fprintf(w, "version:     %d\n", out.ApplicationModelVersion)
	fmt.Fprintf(w, "format:      %d\n", out.SnapshotModelVersion)
	if out.TransactionID != "" {
		fmt.Fprintf(w, "transaction: %s\n", out.TransactionID)
	}
	fmt.Fprintf(w, "entities:    %d\n", len(out.Entities))
	for _, s := range out.Entities {
		fmt.Fprintf(w, "  %-32s %s instances, %d attributes, %d relations, next id %s\n",
			s.Name, humanize.Comma(int64(s.Instances)), s.Attributes, s.Relations, humanize.Comma(s.NextID))
	}
	return nil
}
