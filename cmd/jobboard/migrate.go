package main

import (
	"database/sql"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"

	"github.com/spf13/cobra"

	"jobboard/internal/config"
	"jobboard/internal/format"
	"jobboard/internal/store"
)

func newMigrateCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	var dryRun, inspect bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run or inspect database schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			plan, err := migrationStatus(cfg, inspect || dryRun)
			if err != nil {
				return err
			}
			switch {
			case *jsonOutput:
				return writeJSON(plan)
			case inspect || dryRun:
				return writeMigrationPlan(plan)
			default:
				return writePlain("schema at version %d\n", plan.CurrentVersion)
			}
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "show pending migrations without applying")
	cmd.Flags().BoolVar(&inspect, "inspect", false, "show migration status")
	return cmd
}

// migrationStatus applies pending migrations unless readOnly, then reports.
func migrationStatus(cfg *config.Config, readOnly bool) (*store.MigrationStatus, error) {
	if readOnly {
		db, err := openRawDB(cfg)
		if err != nil {
			return nil, err
		}
		defer db.Close()
		plan, err := store.MigrationPlan(db)
		if err != nil {
			return nil, fmt.Errorf("inspect migrations: %w", err)
		}
		return plan, nil
	}

	st, err := openStore(cfg, slog.Default())
	if err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	defer st.Close()
	plan, err := st.Migrate()
	if err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return plan, nil
}

func writeMigrationPlan(plan *store.MigrationStatus) error {
	if err := writePlain("schema at version %d of %d\n", plan.CurrentVersion, plan.AvailableVersion); err != nil {
		return err
	}
	if len(plan.Pending) == 0 {
		return writePlain("up to date\n")
	}
	tbl := format.NewTable("pending", "description")
	for _, m := range plan.Pending {
		tbl.Row(strconv.Itoa(m.Version), m.Description)
	}
	return tbl.Write(stdout)
}

// openRawDB opens the configured database without running migrations.
func openRawDB(cfg *config.Config) (*sql.DB, error) {
	driver, err := store.CanonicalDriver(cfg.Database.Driver)
	if err != nil {
		return nil, err
	}
	if driver == store.DriverPostgres {
		if cfg.Database.DSN == "" {
			return nil, fmt.Errorf("database dsn is required")
		}
		return sql.Open(driver, cfg.Database.DSN)
	}
	if cfg.Database.Path == "" {
		return nil, fmt.Errorf("db path is required")
	}
	u := url.URL{Scheme: "file", Path: cfg.Database.Path}
	return sql.Open(driver, u.String())
}
