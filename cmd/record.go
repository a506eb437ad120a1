package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/illarion/kakadu/internal/core"
	"github.com/illarion/kakadu/internal/crypto"
	"github.com/illarion/kakadu/internal/vault"
)

func addRecordFlags(fs *pflag.FlagSet) {
	fs.String("name", "", "Record name")
	fs.String("login", "", "Login")
	fs.String("password", "", "Password ('-' to prompt)")
	fs.String("url", "", "URL")
	fs.String("login-symbol", string(vault.SymbolNone), "Key sent after the login (TAB, ENTER, SPACE, NONE)")
	fs.String("password-symbol", string(vault.SymbolNone), "Key sent after the password")
	fs.String("url-symbol", string(vault.SymbolNone), "Key sent after the URL")
}

// applyRecordFlags copies every flag the user set onto in.
func applyRecordFlags(fs *pflag.FlagSet, in *core.RecordInput) error {
	strs := map[string]*string{
		"name":  &in.Name,
		"login": &in.Login,
		"url":   &in.URL,
	}
	for name, dst := range strs {
		if fs.Changed(name) {
			*dst, _ = fs.GetString(name)
		}
	}

	if fs.Changed("password") {
		password, _ := fs.GetString("password")
		if password == "-" {
			entered, err := promptPassword("Record password: ")
			if err != nil {
				return err
			}
			password = string(entered)
			crypto.ClearBytes(entered)
		}
		in.Password = password
	}

	syms := map[string]*vault.Symbol{
		"login-symbol":    &in.LoginSymbol,
		"password-symbol": &in.PasswordSymbol,
		"url-symbol":      &in.URLSymbol,
	}
	for name, dst := range syms {
		if !fs.Changed(name) {
			continue
		}
		value, _ := fs.GetString(name)
		sym, err := vault.ParseSymbol(value)
		if err != nil {
			return err
		}
		*dst = sym
	}
	return nil
}

func recordInput(r vault.Record) core.RecordInput {
	return core.RecordInput{
		Name:           r.Name,
		Login:          r.Login,
		Password:       r.Password,
		URL:            r.URL,
		LoginSymbol:    r.LoginSymbol,
		PasswordSymbol: r.PasswordSymbol,
		URLSymbol:      r.URLSymbol,
	}
}

func newRecordCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "record",
		Short: "Manage records",
	}

	addCmd := &cobra.Command{
		Use:   "add <group-id>",
		Short: "Add a record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			groupID, err := parseID(args[0])
			if err != nil {
				return err
			}
			var in core.RecordInput
			if err := applyRecordFlags(cmd.Flags(), &in); err != nil {
				return err
			}

			a, err := newApp(cmd, "AddRecord")
			if err != nil {
				return err
			}
			defer a.Close()

			return a.mutate(cmd.Context(), func(s *core.Store) error {
				r, err := s.AddRecord(groupID, in)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added record [%d] %s\n", r.ID, r.Name)
				return nil
			})
		},
	}
	addRecordFlags(addCmd.Flags())

	editCmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change fields of a record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			a, err := newApp(cmd, "UpdateRecord")
			if err != nil {
				return err
			}
			defer a.Close()

			return a.mutate(cmd.Context(), func(s *core.Store) error {
				current, err := s.GetRecord(id)
				if err != nil {
					return err
				}
				in := recordInput(current)
				if err := applyRecordFlags(cmd.Flags(), &in); err != nil {
					return err
				}
				r, err := s.UpdateRecord(id, in)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Updated record [%d] %s\n", r.ID, r.Name)
				return nil
			})
		},
	}
	addRecordFlags(editCmd.Flags())

	renameCmd := &cobra.Command{
		Use:   "rename <id> <name>",
		Short: "Rename a record",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			a, err := newApp(cmd, "RenameRecord")
			if err != nil {
				return err
			}
			defer a.Close()

			return a.mutate(cmd.Context(), func(s *core.Store) error {
				r, err := s.RenameRecord(id, args[1])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Renamed record [%d] to %s\n", r.ID, r.Name)
				return nil
			})
		},
	}

	showCmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			showPasswords, _ := cmd.Flags().GetBool("show-passwords")

			a, err := newApp(cmd, "GetRecord")
			if err != nil {
				return err
			}
			defer a.Close()

			return a.view(cmd.Context(), func(s *core.Store) error {
				r, err := s.GetRecord(id)
				if err != nil {
					return err
				}
				password := maskedPassword
				if showPasswords {
					password = r.Password
				}
				w := cmd.OutOrStdout()
				fmt.Fprintf(w, "ID:       %d\n", r.ID)
				fmt.Fprintf(w, "Group:    %d\n", r.PID)
				fmt.Fprintf(w, "Name:     %s\n", r.Name)
				fmt.Fprintf(w, "Login:    %s (%s)\n", r.Login, r.LoginSymbol)
				fmt.Fprintf(w, "Password: %s (%s)\n", password, r.PasswordSymbol)
				fmt.Fprintf(w, "URL:      %s (%s)\n", r.URL, r.URLSymbol)
				return nil
			})
		},
	}
	showCmd.Flags().Bool("show-passwords", false, "Print the password in clear text")

	rmCmd := &cobra.Command{
		Use:   "rm <id>",
		Short: "Remove a record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			a, err := newApp(cmd, "RemoveRecord")
			if err != nil {
				return err
			}
			defer a.Close()

			return a.mutate(cmd.Context(), func(s *core.Store) error {
				if _, err := s.RemoveRecord(id); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed record [%d]\n", id)
				return nil
			})
		},
	}

	c.AddCommand(addCmd, editCmd, renameCmd, showCmd, newCopyCmd(), rmCmd)
	return c
}
