package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"jobboard/internal/config"
	"jobboard/internal/store"
)

func newAdminCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Administrative commands that work on the database directly",
	}

	cmd.AddCommand(newAdminUserCmd(cfg, jsonOutput))
	cmd.AddCommand(newAdminSessionsCmd(cfg, jsonOutput))
	return cmd
}

// withStore opens the configured database for one command.
func withStore(cfg *config.Config, fn func(*store.Store) error) error {
	if cfg == nil {
		return fmt.Errorf("config not initialized")
	}
	st, err := openStore(cfg, discardLogger)
	if err != nil {
		return err
	}
	defer st.Close()
	return fn(st)
}

func newAdminSessionsCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Manage admin browser sessions",
	}

	var olderThan time.Duration
	prune := &cobra.Command{
		Use:   "prune",
		Short: "Delete expired and revoked sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			if olderThan < 0 {
				return fmt.Errorf("--older-than must be >= 0")
			}
			return withStore(cfg, func(st *store.Store) error {
				n, err := st.PruneSessions(cmd.Context(), time.Now().UTC().Add(-olderThan))
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(map[string]any{"pruned": n})
				}
				return writePlain("pruned %d sessions\n", n)
			})
		},
	}
	prune.Flags().DurationVar(&olderThan, "older-than", 0, "only prune sessions that ended at least this long ago")

	cmd.AddCommand(prune)
	return cmd
}
