package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/illarion/kakadu/internal/core"
)

func newGroupCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "group",
		Short: "Manage groups",
	}

	addCmd := &cobra.Command{
		Use:   "add <parent-id> <name>",
		Short: "Add a group",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			parentID, err := parseID(args[0])
			if err != nil {
				return err
			}

			a, err := newApp(cmd, "AddGroup")
			if err != nil {
				return err
			}
			defer a.Close()

			return a.mutate(cmd.Context(), func(s *core.Store) error {
				g, err := s.AddGroup(parentID, args[1])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added group [%d] %s\n", g.ID, g.Name)
				return nil
			})
		},
	}

	renameCmd := &cobra.Command{
		Use:   "rename <id> <name>",
		Short: "Rename a group",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			a, err := newApp(cmd, "RenameGroup")
			if err != nil {
				return err
			}
			defer a.Close()

			return a.mutate(cmd.Context(), func(s *core.Store) error {
				g, err := s.RenameGroup(id, args[1])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Renamed group [%d] to %s\n", g.ID, g.Name)
				return nil
			})
		},
	}

	rmCmd := &cobra.Command{
		Use:   "rm <id>",
		Short: "Remove a group; its children are kept",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			a, err := newApp(cmd, "RemoveGroup")
			if err != nil {
				return err
			}
			defer a.Close()

			return a.mutate(cmd.Context(), func(s *core.Store) error {
				if _, err := s.RemoveGroup(id); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed group [%d]\n", id)
				return nil
			})
		},
	}

	c.AddCommand(addCmd, renameCmd, rmCmd)
	return c
}
