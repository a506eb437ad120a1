package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/illarion/kakadu/internal/crypto"
)

func newPasswdCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "passwd",
		Short: "Change the vault passphrase",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, "ChangePassphrase")
			if err != nil {
				return err
			}
			defer a.Close()

			fl, err := lockVault(a.vaultPath, true)
			if err != nil {
				return err
			}
			defer fl.Unlock()

			if _, err := a.openVault(cmd.Context(), a.vaultPath); err != nil {
				return err
			}

			newPassword, err := GetNewPassword()
			if err != nil {
				return err
			}
			defer crypto.ClearBytes(newPassword)

			if err := a.store.Save(cmd.Context(), a.vaultPath, string(newPassword)); err != nil {
				return err
			}
			a.touchRecent(a.vaultPath)

			out := cmd.OutOrStdout()
			// Refresh a keyring entry so it does not go stale
			if vaultID, err := a.state.GetVaultID(a.vaultPath); err == nil && a.keys.HasPassword(vaultID) {
				if err := a.keys.SavePassword(vaultID, string(newPassword)); err != nil {
					a.log.Warn("failed to update keyring", "vault", a.vaultPath, "error", err)
				} else {
					fmt.Fprintln(out, "Keyring updated with new passphrase")
				}
			}

			fmt.Fprintln(out, "Passphrase changed successfully")
			return nil
		},
	}
}
