package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/illarion/kakadu/internal/core"
	"github.com/illarion/kakadu/internal/crypto"
	"github.com/illarion/kakadu/internal/kdbx"
)

// KDBXPasswordEnv supplies the KeePass file password non-interactively.
const KDBXPasswordEnv = "KAKADU_KDBX_PASSWORD"

func kdbxPassword(confirm bool) ([]byte, error) {
	if p := os.Getenv(KDBXPasswordEnv); p != "" {
		return []byte(p), nil
	}
	if confirm {
		return core.ReadPasswordConfirm()
	}
	return promptPassword("KeePass password: ")
}

func newExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export <file.kdbx>",
		Short: "Export the vault to a new KeePass database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, "ExportKDBX")
			if err != nil {
				return err
			}
			defer a.Close()

			return a.view(cmd.Context(), func(s *core.Store) error {
				snap, err := s.Snapshot()
				if err != nil {
					return err
				}
				password, err := kdbxPassword(true)
				if err != nil {
					return err
				}
				defer crypto.ClearBytes(password)

				if err := kdbx.Export(snap, args[0], string(password)); err != nil {
					return err
				}
				a.log.Info("exported vault", "target", args[0], "groups", len(snap.Groups), "records", len(snap.Records))
				fmt.Fprintf(cmd.OutOrStdout(), "Exported %d groups and %d records to %s\n",
					len(snap.Groups), len(snap.Records), args[0])
				return nil
			})
		},
	}
}

func newImportCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "import <file.kdbx>",
		Short: "Import a KeePass database under a group",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			parent, _ := cmd.Flags().GetString("parent")
			parentID, err := parseID(parent)
			if err != nil {
				return err
			}

			password, err := kdbxPassword(false)
			if err != nil {
				return err
			}
			src, err := kdbx.Import(args[0], string(password))
			crypto.ClearBytes(password)
			if err != nil {
				return err
			}

			a, err := newApp(cmd, "ImportKDBX")
			if err != nil {
				return err
			}
			defer a.Close()

			return a.mutate(cmd.Context(), func(s *core.Store) error {
				res, err := s.Merge(parentID, src)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %d groups and %d records under group %d\n",
					res.Groups, res.Records, parentID)
				return nil
			})
		},
	}
	c.Flags().String("parent", "1", "Group that receives the imported tree")
	return c
}
