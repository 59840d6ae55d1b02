package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/lutefd/pokerlog/internal/domain/sessions"
)

// sessionFile is the YAML document written by export and read by import.
type sessionFile struct {
	Sessions []sessions.Session `yaml:"sessions"`
}

func newExportCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "export <file>",
		Short: "Write all sessions to a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(opts)
			if err != nil {
				return err
			}
			defer a.Close()

			items, err := a.tracker.ListSessions(cmd.Context(), a.userID)
			if err != nil {
				return err
			}
			raw, err := yaml.Marshal(sessionFile{Sessions: items})
			if err != nil {
				return fmt.Errorf("encode sessions: %w", err)
			}
			if err := os.WriteFile(args[0], raw, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", args[0], err)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "exported %d sessions to %s\n", len(items), args[0])
			return nil
		},
	}
}

func newImportCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Add sessions from a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}
			var doc sessionFile
			if err := yaml.Unmarshal(raw, &doc); err != nil {
				return fmt.Errorf("decode %s: %w", args[0], err)
			}

			a, err := openApp(opts)
			if err != nil {
				return err
			}
			defer a.Close()

			imported := 0
			for i, s := range doc.Sessions {
				if s.StackSizeUpdates == nil {
					s.StackSizeUpdates = []sessions.StackUpdate{}
				}
				if _, err := a.tracker.ImportSession(cmd.Context(), a.userID, s); err != nil {
					_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "skipped session %d: %v\n", i+1, err)
					continue
				}
				imported++
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "imported %d of %d sessions\n", imported, len(doc.Sessions))
			return nil
		},
	}
}
