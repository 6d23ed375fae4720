package store

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"time"

	"jobboard/internal/backend"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	busyTimeoutMS = 5000
)

// Store is the row store for jobs, applications, admin users and sessions.
type Store struct {
	db      *sql.DB
	dialect dialect
	now     func() time.Time
}

// Open opens the SQLite database at path and applies pending migrations.
func Open(path string) (*Store, error) {
	dsn, err := sqliteDSN(path)
	if err != nil {
		return nil, err
	}
	return OpenDriver(DriverSQLite, dsn)
}

// OpenDriver opens a database for driver ("sqlite" or "postgres") and applies
// pending migrations.
func OpenDriver(driver, dsn string) (*Store, error) {
	d, err := dialectFor(driver)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("database dsn is required")
	}
	db, err := sql.Open(d.driver(), dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", d.driver(), err)
	}

	if err := configureDB(db, d); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := runMigrations(db, d); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db, dialect: d, now: time.Now}, nil
}

// newWithDB wraps an already-open handle without running migrations.
func newWithDB(db *sql.DB, d dialect) *Store {
	return &Store{db: db, dialect: d, now: time.Now}
}

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB exposes the handle for migration tooling.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Driver returns the dialect driver name.
func (s *Store) Driver() string {
	return s.dialect.driver()
}

func configureDB(db *sql.DB, d dialect) error {
	if d.driver() == DriverSQLite {
		for _, stmt := range []string{
			"PRAGMA journal_mode = WAL;",
			"PRAGMA synchronous = NORMAL;",
		} {
			if _, err := db.Exec(stmt); err != nil {
				return err
			}
		}
	}
	poolFromEnv(d.driver()).apply(db)
	return nil
}

func sqliteDSN(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("db path is required")
	}
	q := url.Values{}
	q.Add("_pragma", "foreign_keys(1)")
	q.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", busyTimeoutMS))
	u := url.URL{Scheme: "file", Path: path, RawQuery: q.Encode()}
	return u.String(), nil
}

// classify maps driver constraint failures onto backend error kinds.
func (s *Store) classify(op string, err error, notFoundMsg string) error {
	if err == nil {
		return nil
	}
	if s.dialect.isUniqueViolation(err) {
		return backend.Conflict(op, "duplicate key value")
	}
	if s.dialect.isForeignKeyViolation(err) {
		return backend.NotFound(op, notFoundMsg)
	}
	return backend.Wrap(op, err)
}

func (s *Store) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return s.db.ExecContext(ctx, s.dialect.rebind(query), args...)
}

func (s *Store) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return s.db.QueryContext(ctx, s.dialect.rebind(query), args...)
}

func (s *Store) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return s.db.QueryRowContext(ctx, s.dialect.rebind(query), args...)
}

// Timestamps are stored as fixed-width UTC text so ORDER BY on the column is chronological.
const dbTimeLayout = "2006-01-02T15:04:05.000000000Z"

func dbFormatTime(t time.Time) string {
	return t.UTC().Format(dbTimeLayout)
}

func dbParseTime(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	t, err := time.Parse(dbTimeLayout, value)
	if err == nil {
		return t, nil
	}
	t, err = time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse stored time %q: %w", value, err)
	}
	return t.UTC(), nil
}

func nullIfEmpty(value string) any {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return value
}
