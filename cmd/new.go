package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/illarion/kakadu/internal/crypto"
)

func newNewCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "new",
		Short: "Create a new vault",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, "NewVault")
			if err != nil {
				return err
			}
			defer a.Close()

			rootName, _ := cmd.Flags().GetString("root-name")
			if rootName == "" {
				rootName = a.cfg.RootGroupName
			}

			fl, err := lockVault(a.vaultPath, true)
			if err != nil {
				return err
			}
			defer fl.Unlock()

			if _, err := os.Stat(a.vaultPath); err == nil {
				return fmt.Errorf("%s: %w", a.vaultPath, ErrVaultExists)
			}

			password, err := GetPasswordForNew()
			if err != nil {
				return err
			}
			defer crypto.ClearBytes(password)

			if err := a.store.Reset(rootName); err != nil {
				return err
			}
			if err := a.store.Save(cmd.Context(), a.vaultPath, string(password)); err != nil {
				return err
			}
			if _, err := a.state.GetOrCreateVaultID(a.vaultPath); err != nil {
				a.log.Warn("failed to register vault id", "vault", a.vaultPath, "error", err)
			}
			a.touchRecent(a.vaultPath)

			fmt.Fprintf(cmd.OutOrStdout(), "Created vault %s\n", a.vaultPath)
			return nil
		},
	}
	c.Flags().String("root-name", "", "Name of the root group (default: root_group_name from config)")
	return c
}
