package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"github.com/illarion/kakadu/internal/core"
	"github.com/illarion/kakadu/internal/vault"
)

// Replaced in tests.
var (
	clipboardWrite = clipboard.WriteAll
	clipboardRead  = clipboard.ReadAll
)

func recordField(r vault.Record, field string) (string, error) {
	switch field {
	case "password":
		return r.Password, nil
	case "login":
		return r.Login, nil
	case "url":
		return r.URL, nil
	}
	return "", fmt.Errorf("unknown field %q: want password, login or url", field)
}

// copyToClipboard places text on the clipboard and, when clearAfter is
// positive, blocks until it elapses or ctx ends, then clears the
// clipboard if it still holds text.
func copyToClipboard(ctx context.Context, out io.Writer, text string, clearAfter time.Duration) error {
	if err := clipboardWrite(text); err != nil {
		return fmt.Errorf("failed to write clipboard: %w", err)
	}
	if clearAfter <= 0 {
		fmt.Fprintln(out, "Copied to clipboard.")
		return nil
	}

	fmt.Fprintf(out, "Copied to clipboard. Clearing in %s...\n", clearAfter)
	timer := time.NewTimer(clearAfter)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}

	// Leave the clipboard alone if the user copied something else
	if current, err := clipboardRead(); err == nil && current != text {
		return nil
	}
	if err := clipboardWrite(""); err != nil {
		return fmt.Errorf("failed to clear clipboard: %w", err)
	}
	fmt.Fprintln(out, "Clipboard cleared.")
	return nil
}

func newCopyCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "copy <id>",
		Short: "Copy a record field to the clipboard",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			field, _ := cmd.Flags().GetString("field")
			clearAfter, _ := cmd.Flags().GetDuration("clear-after")

			a, err := newApp(cmd, "CopyField")
			if err != nil {
				return err
			}
			defer a.Close()

			var text string
			err = a.view(cmd.Context(), func(s *core.Store) error {
				r, err := s.GetRecord(id)
				if err != nil {
					return err
				}
				text, err = recordField(r, field)
				return err
			})
			if err != nil {
				return err
			}
			a.log.Info("copied record field", "id", id, "field", field)
			return copyToClipboard(cmd.Context(), cmd.OutOrStdout(), text, clearAfter)
		},
	}
	c.Flags().String("field", "password", "Field to copy: password, login or url")
	c.Flags().Duration("clear-after", 30*time.Second, "Clear the clipboard after this long (0 keeps it)")
	return c
}
