package store

import (
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"slices"
	"strconv"
	"strings"
	"time"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Migration is one schema step loaded from migrations/NNNN_name.sql. The
// first line of the file, when it is a SQL comment, is the description.
type Migration struct {
	Version     int
	Description string
	SQL         string
}

// MigrationStatus reports the current and available migration versions.
type MigrationStatus struct {
	CurrentVersion   int             `json:"current_version"`
	AvailableVersion int             `json:"available_version"`
	Pending          []MigrationInfo `json:"pending"`
}

// MigrationInfo describes a single migration.
type MigrationInfo struct {
	Version     int    `json:"version"`
	Description string `json:"description"`
}

// loadMigrations reads the embedded migration files ordered by version.
// Statements stay within the subset shared by SQLite and PostgreSQL.
func loadMigrations(fsys fs.FS) ([]Migration, error) {
	names, err := fs.Glob(fsys, "migrations/*.sql")
	if err != nil {
		return nil, err
	}

	out := make([]Migration, 0, len(names))
	seen := make(map[int]string, len(names))
	for _, name := range names {
		base := path.Base(name)
		prefix, _, ok := strings.Cut(base, "_")
		version, err := strconv.Atoi(prefix)
		if !ok || err != nil || version <= 0 {
			return nil, fmt.Errorf("migration %s: name must start with a positive version", base)
		}
		if other, dup := seen[version]; dup {
			return nil, fmt.Errorf("migration version %d used by %s and %s", version, other, base)
		}
		seen[version] = base

		body, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, err
		}
		out = append(out, Migration{Version: version, Description: migrationDescription(string(body)), SQL: string(body)})
	}
	slices.SortFunc(out, func(a, b Migration) int { return a.Version - b.Version })
	return out, nil
}

func migrationDescription(body string) string {
	line, _, _ := strings.Cut(body, "\n")
	if desc, ok := strings.CutPrefix(strings.TrimSpace(line), "--"); ok {
		return strings.TrimSpace(desc)
	}
	return ""
}

// embeddedMigrations is loadMigrations over the files built into the binary.
func embeddedMigrations() ([]Migration, error) {
	return loadMigrations(migrationFiles)
}

// migrationState creates schema_migrations when missing and returns the
// highest applied version.
func migrationState(db *sql.DB) (int, error) {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
  version INTEGER PRIMARY KEY,
  applied_at TEXT NOT NULL
)`); err != nil {
		return 0, fmt.Errorf("create migrations table: %w", err)
	}
	var version int
	if err := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&version); err != nil {
		return 0, fmt.Errorf("read migration version: %w", err)
	}
	return version, nil
}

// runMigrations applies pending migrations in order, one transaction each.
func runMigrations(db *sql.DB, d dialect) error {
	all, err := embeddedMigrations()
	if err != nil {
		return err
	}
	current, err := migrationState(db)
	if err != nil {
		return err
	}

	record := d.rebind("INSERT INTO schema_migrations (version, applied_at) VALUES (?, ?)")
	for _, m := range all {
		if m.Version <= current {
			continue
		}
		err := inTx(db, func(tx *sql.Tx) error {
			if _, err := tx.Exec(m.SQL); err != nil {
				return fmt.Errorf("apply migration %d (%s): %w", m.Version, m.Description, err)
			}
			if _, err := tx.Exec(record, m.Version, dbFormatTime(time.Now())); err != nil {
				return fmt.Errorf("record migration %d: %w", m.Version, err)
			}
			return nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func inTx(db *sql.DB, fn func(*sql.Tx) error) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// MigrationPlan returns the current migration status without applying anything.
func MigrationPlan(db *sql.DB) (*MigrationStatus, error) {
	all, err := embeddedMigrations()
	if err != nil {
		return nil, err
	}
	current, err := migrationState(db)
	if err != nil {
		return nil, err
	}

	status := &MigrationStatus{CurrentVersion: current}
	for _, m := range all {
		status.AvailableVersion = max(status.AvailableVersion, m.Version)
		if m.Version > current {
			status.Pending = append(status.Pending, MigrationInfo{Version: m.Version, Description: m.Description})
		}
	}
	return status, nil
}

// Migrate applies pending migrations on an open store. Open already does this;
// the migrate command calls it explicitly to report the result.
func (s *Store) Migrate() (*MigrationStatus, error) {
	if err := runMigrations(s.db, s.dialect); err != nil {
		return nil, err
	}
	return MigrationPlan(s.db)
}
