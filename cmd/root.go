package cmd

import (
	"github.com/spf13/cobra"
)

// NewRootCmd builds the kakadu command tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "kakadu",
		Short:         "Encrypted password vault",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringP("vault", "f", "", "Vault file (default: default_vault from config)")
	root.PersistentFlags().String("config", "", "Config file (default: $KAKADU_CONFIG or ~/.config/kakadu.toml)")
	root.PersistentFlags().BoolP("verbose", "v", false, "Debug logging, mirrored to stderr")

	root.AddCommand(
		newNewCmd(),
		newGroupsCmd(),
		newRecordsCmd(),
		newGroupCmd(),
		newRecordCmd(),
		newPasswdCmd(),
		newDiffCmd(),
		newExportCmd(),
		newImportCmd(),
		newRecentCmd(),
		newStatusCmd(),
		newKeyringCmd(),
		newConfigCmd(),
		newCompletionCmd(root),
	)
	return root
}
