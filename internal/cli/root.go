// Package cli defines the cobra commands for the local pokerlog tracker.
package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/lutefd/pokerlog/internal/config"
	"github.com/lutefd/pokerlog/internal/storage/sqlite"
	"github.com/lutefd/pokerlog/internal/tracker"
)

type options struct {
	dbPath string
	userID string
}

// NewRootCmd builds the pokerlog command tree. Flags override POKERLOG_DB
// and POKERLOG_USER_ID.
func NewRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "pokerlog",
		Short:         "Track live poker sessions and results",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.dbPath, "db", "", "SQLite database path")
	root.PersistentFlags().StringVar(&opts.userID, "user", "", "user id that owns the sessions")

	root.AddCommand(newStartCmd(opts))
	root.AddCommand(newEndCmd(opts))
	root.AddCommand(newAddCmd(opts))
	root.AddCommand(newListCmd(opts))
	root.AddCommand(newStatsCmd(opts))
	root.AddCommand(newImportCmd(opts))
	root.AddCommand(newExportCmd(opts))
	return root
}

type app struct {
	tracker *tracker.Service
	store   *sqlite.Store
	userID  uuid.UUID
}

func (a *app) Close() error {
	return a.store.Close()
}

func openApp(opts *options) (*app, error) {
	cfg, err := config.LoadCLI()
	if err != nil {
		return nil, err
	}
	if opts.dbPath != "" {
		cfg.DBPath = opts.dbPath
	}
	if opts.userID != "" {
		uid, err := uuid.Parse(opts.userID)
		if err != nil {
			return nil, fmt.Errorf("invalid --user: %w", err)
		}
		cfg.UserID = uid
	}

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	store, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		return nil, err
	}
	return &app{
		tracker: tracker.NewService(store, nil),
		store:   store,
		userID:  cfg.UserID,
	}, nil
}
