package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/snapmig/internal/codec"
	"github.com/mesh-intelligence/snapmig/pkg/types"
)

func (a *app) newExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export <store> <file>",
		Short: "Write the snapshot of a store as a JSON document (- for stdout)",
		Args:  cobra.ExactArgs(2),
		RunE:  a.runExport,
	}
}

func (a *app) runExport(cmd *cobra.Command, args []string) error {
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
	b, err := codec.Marshal(snap)
	if err != nil {
		return err
	}
	b = append(b, '\n')

	if args[1] == "-" {
		_, err := cmd.OutOrStdout().Write(b)
		return err
	}
	if err := os.WriteFile(args[1], b, 0o644); err != nil {
		return errors.Wrap(err, "write export")
	}
	fmt.Fprintf(cmd.OutOrStdout(), "exported %s (version %d, %s) to %s\n",
		name, snap.ApplicationModelVersion, humanize.Bytes(uint64(len(b))), args[1])
	return nil
}

func (a *app) newImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <store> <file>",
		Short: "Save a JSON snapshot document as the snapshot of a store (- for stdin)",
		Long: "Save a JSON snapshot document as the snapshot of a store. The document is\n" +
			"validated before anything is written. Existing stores are only replaced\n" +
			"with --force.",
		Args: cobra.ExactArgs(2),
		RunE: a.runImport,
	}
	cmd.Flags().Bool("force", false, "replace an existing store")
	return cmd
}

func (a *app) runImport(cmd *cobra.Command, args []string) error {
	name, err := storeArg(args)
	if err != nil {
		return err
	}

	var r io.Reader = cmd.InOrStdin()
	if args[1] != "-" {
		f, err := os.Open(args[1])
		if err != nil {
			return userError{err: err}
		}
		defer f.Close()
		r = f
	}
	snap, err := codec.Decode(r)
	if err != nil {
		return err
	}
	if err := snap.Validate(); err != nil {
		return userError{err: err}
	}

	e, err := a.setup(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	force, _ := cmd.Flags().GetBool("force")
	if !force {
		_, err := e.backend.Load(name)
		if err == nil {
			return userErrorf("store %s exists; use --force to replace it", name)
		}
		if !errors.Is(err, types.ErrStoreNotFound) {
			return err
		}
	}
	if err := e.backend.Save(name, snap); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "imported %s (version %d, %d entities)\n",
		name, snap.ApplicationModelVersion, len(snap.Entities))
	return nil
}
