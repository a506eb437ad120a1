package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newRecentCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "recent",
		Short: "List recently opened vaults",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			forget, _ := cmd.Flags().GetString("forget")
			clearAll, _ := cmd.Flags().GetBool("clear")

			a, err := newApp(cmd, "Recent")
			if err != nil {
				return err
			}
			defer a.Close()

			out := cmd.OutOrStdout()
			switch {
			case clearAll:
				if err := a.state.ClearRecent(); err != nil {
					return err
				}
				fmt.Fprintln(out, "Recent list cleared")
			case forget != "":
				if err := a.state.ForgetRecent(forget); err != nil {
					return err
				}
				fmt.Fprintf(out, "Forgot %s\n", forget)
			default:
				entries, err := a.state.Recent()
				if err != nil {
					return err
				}
				if len(entries) == 0 {
					fmt.Fprintln(out, "No recent vaults.")
					return nil
				}
				for _, e := range entries {
					fmt.Fprintf(out, "%s  %s  (%d groups, %d records)\n",
						e.LastOpened.Local().Format("2006-01-02 15:04"), e.Path, e.Groups, e.Records)
				}
				return nil
			}

			if err := a.state.Compact(); err != nil {
				a.log.Warn("state database compaction failed", "error", err)
			}
			return nil
		},
	}
	c.Flags().String("forget", "", "Remove one vault path from the list")
	c.Flags().Bool("clear", false, "Remove every entry")
	return c
}
