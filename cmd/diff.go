package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/illarion/kakadu/internal/core"
	"github.com/illarion/kakadu/internal/vault"
)

func newDiffCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "diff <a> <b>",
		Short: "Compare the contents of two vault files",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			showPasswords, _ := cmd.Flags().GetBool("show-passwords")

			a, err := newApp(cmd, "DiffVaults")
			if err != nil {
				return err
			}
			defer a.Close()

			var docs [2]*vault.Data
			for i, path := range args {
				fl, err := lockVault(path, false)
				if err != nil {
					return err
				}
				_, err = a.withPassword(path, fmt.Sprintf("Enter passphrase for %s: ", path), func(password string) error {
					d, err := core.ReadVaultFile(path, password)
					docs[i] = d
					return err
				})
				fl.Unlock()
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
			}

			diff, err := core.DiffVaults(args[0], docs[0], args[1], docs[1], !showPasswords)
			if err != nil {
				return err
			}
			if diff == "" {
				fmt.Fprintln(cmd.OutOrStdout(), "No differences")
				return nil
			}
			fmt.Fprint(cmd.OutOrStdout(), diff)
			return nil
		},
	}
	c.Flags().Bool("show-passwords", false, "Include passwords in the diff")
	return c
}
