package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/illarion/kakadu/internal/git"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show vault file, keyring and git status without decrypting",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, "Status")
			if err != nil {
				return err
			}
			defer a.Close()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Vault: %s\n", a.vaultPath)

			info, err := os.Stat(a.vaultPath)
			if err != nil {
				fmt.Fprintln(out, "   not created (run: kakadu new)")
				return nil
			}
			fmt.Fprintf(out, "   size: %d bytes, modified %s\n", info.Size(), info.ModTime().Format("2006-01-02 15:04"))
			if info.Size()%16 != 0 {
				fmt.Fprintln(out, "   warning: size is not a multiple of 16, file looks truncated")
			}
			if info.Mode().Perm()&0077 != 0 {
				fmt.Fprintf(out, "   warning: permissions %v are wider than owner-only\n", info.Mode().Perm())
			}

			vaultID, err := a.state.GetVaultID(a.vaultPath)
			if err == nil {
				fmt.Fprintf(out, "   id: %s\n", vaultID)
				if a.keys.HasPassword(vaultID) {
					fmt.Fprintln(out, "   keyring: passphrase stored")
				} else {
					fmt.Fprintln(out, "   keyring: no passphrase stored")
				}
			}

			entries, err := a.state.Recent()
			if err != nil {
				return err
			}
			abs, _ := filepath.Abs(a.vaultPath)
			for _, e := range entries {
				if e.Path == abs {
					fmt.Fprintf(out, "   last opened: %s (%d groups, %d records)\n",
						e.LastOpened.Local().Format("2006-01-02 15:04"), e.Groups, e.Records)
				}
			}

			gitStatus, err := git.Check(a.vaultPath)
			if err != nil {
				a.log.Warn("git check failed", "error", err)
				return nil
			}
			fmt.Fprint(out, git.Format(filepath.Base(a.vaultPath), gitStatus))
			return nil
		},
	}
}
