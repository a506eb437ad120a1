package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/illarion/kakadu/internal/core"
	"github.com/illarion/kakadu/internal/crypto"
)

func newKeyringCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "keyring",
		Short: "Manage the passphrase cached in the OS keyring",
	}

	saveCmd := &cobra.Command{
		Use:   "save",
		Short: "Save the vault passphrase to the OS keyring",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, "KeyringSave")
			if err != nil {
				return err
			}
			defer a.Close()

			password := core.GetPasswordFromEnv()
			if password == nil {
				if password, err = promptPassword("Enter passphrase: "); err != nil {
					return err
				}
			}
			defer crypto.ClearBytes(password)

			// Verify the passphrase opens the vault
			fl, err := lockVault(a.vaultPath, false)
			if err != nil {
				return err
			}
			defer fl.Unlock()
			if _, err := core.ReadVaultFile(a.vaultPath, string(password)); err != nil {
				return err
			}

			vaultID, err := a.state.GetOrCreateVaultID(a.vaultPath)
			if err != nil {
				return err
			}
			if err := a.keys.SavePassword(vaultID, string(password)); err != nil {
				return fmt.Errorf("failed to save to keyring: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Passphrase saved to keyring")
			return nil
		},
	}

	deleteCmd := &cobra.Command{
		Use:   "delete",
		Short: "Remove the vault passphrase from the OS keyring",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, "KeyringDelete")
			if err != nil {
				return err
			}
			defer a.Close()

			out := cmd.OutOrStdout()
			vaultID, err := a.state.GetVaultID(a.vaultPath)
			if err != nil {
				fmt.Fprintln(out, "No passphrase stored in keyring")
				return nil
			}
			if err := a.keys.DeletePassword(vaultID); err != nil {
				fmt.Fprintln(out, "No passphrase stored in keyring")
				return nil
			}

			fmt.Fprintln(out, "Passphrase removed from keyring")
			return nil
		},
	}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Check whether a passphrase is cached",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, "KeyringStatus")
			if err != nil {
				return err
			}
			defer a.Close()

			out := cmd.OutOrStdout()
			vaultID, err := a.state.GetVaultID(a.vaultPath)
			if err == nil && a.keys.HasPassword(vaultID) {
				fmt.Fprintln(out, "Passphrase is stored in keyring")
			} else {
				fmt.Fprintln(out, "No passphrase stored in keyring")
			}
			if !a.cfg.UseKeyring {
				fmt.Fprintln(out, "Keyring lookups are disabled (use_keyring = false)")
			}
			return nil
		},
	}

	c.AddCommand(saveCmd, deleteCmd, statusCmd)
	return c
}
