package cmd

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/illarion/kakadu/internal/core"
	"github.com/illarion/kakadu/internal/vault"
)

const maskedPassword = "********"

func newGroupsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "groups",
		Short: "Show the group tree",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, "ListGroups")
			if err != nil {
				return err
			}
			defer a.Close()

			return a.view(cmd.Context(), func(s *core.Store) error {
				groups, err := s.ListGroups()
				if err != nil {
					return err
				}
				printGroupTree(cmd.OutOrStdout(), groups)
				return nil
			})
		},
	}
}

// printGroupTree writes groups indented under their parents. Groups not
// reachable from the top level are listed last.
func printGroupTree(w io.Writer, groups []vault.Group) {
	children := make(map[uint32][]vault.Group)
	for _, g := range groups {
		children[g.PID] = append(children[g.PID], g)
	}
	for _, list := range children {
		sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	}

	seen := make(map[uint32]bool, len(groups))
	var walk func(pid uint32, depth int)
	walk = func(pid uint32, depth int) {
		for _, g := range children[pid] {
			if seen[g.ID] {
				continue
			}
			seen[g.ID] = true
			fmt.Fprintf(w, "%s[%d] %s\n", strings.Repeat("  ", depth), g.ID, g.Name)
			walk(g.ID, depth+1)
		}
	}
	walk(0, 0)

	var orphans []vault.Group
	for _, g := range groups {
		if !seen[g.ID] {
			orphans = append(orphans, g)
		}
	}
	if len(orphans) == 0 {
		return
	}
	sort.Slice(orphans, func(i, j int) bool { return orphans[i].ID < orphans[j].ID })
	fmt.Fprintln(w, "Orphaned:")
	for _, g := range orphans {
		if seen[g.ID] {
			continue
		}
		seen[g.ID] = true
		fmt.Fprintf(w, "  [%d] %s (parent %d)\n", g.ID, g.Name, g.PID)
		walk(g.ID, 2)
	}
}

func newRecordsCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "records <group-id>",
		Short: "List the records of a group",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			groupID, err := parseID(args[0])
			if err != nil {
				return err
			}
			showPasswords, _ := cmd.Flags().GetBool("show-passwords")

			a, err := newApp(cmd, "ListRecords")
			if err != nil {
				return err
			}
			defer a.Close()

			return a.view(cmd.Context(), func(s *core.Store) error {
				records, err := s.ListRecords(groupID)
				if err != nil {
					return err
				}
				w := cmd.OutOrStdout()
				if len(records) == 0 {
					fmt.Fprintln(w, "No records.")
					return nil
				}
				for _, r := range records {
					password := maskedPassword
					if showPasswords {
						password = r.Password
					}
					fmt.Fprintf(w, "[%d] %s\tlogin=%s\tpassword=%s\turl=%s\n", r.ID, r.Name, r.Login, password, r.URL)
				}
				return nil
			})
		},
	}
	c.Flags().Bool("show-passwords", false, "Print passwords in clear text")
	return c
}
