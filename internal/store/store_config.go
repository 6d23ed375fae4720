package store

import (
	"database/sql"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	maxOpenConnsEnvKey    = "JOBBOARD_DB_MAX_OPEN_CONNS"
	maxIdleConnsEnvKey    = "JOBBOARD_DB_MAX_IDLE_CONNS"
	connMaxLifetimeEnvKey = "JOBBOARD_DB_CONN_MAX_LIFETIME"
)

// poolSettings sizes the database/sql pool.
type poolSettings struct {
	MaxOpen     int
	MaxIdle     int
	MaxLifetime time.Duration
	MaxIdleTime time.Duration
}

// defaultPool is tuned per driver. SQLite keeps a single writer connection.
func defaultPool(driver string) poolSettings {
	if driver == DriverPostgres {
		return poolSettings{MaxOpen: 10, MaxIdle: 5, MaxLifetime: 5 * time.Minute, MaxIdleTime: 5 * time.Minute}
	}
	return poolSettings{MaxOpen: 1, MaxIdle: 1, MaxLifetime: 5 * time.Minute}
}

// withEnv overrides p from JOBBOARD_DB_* variables. Unset, malformed and
// non-positive values keep the current setting.
func (p poolSettings) withEnv(lookup func(string) string) poolSettings {
	if n, ok := positiveInt(lookup(maxOpenConnsEnvKey)); ok {
		p.MaxOpen = n
	}
	if n, ok := positiveInt(lookup(maxIdleConnsEnvKey)); ok {
		p.MaxIdle = n
	}
	if d, ok := positiveDuration(lookup(connMaxLifetimeEnvKey)); ok {
		p.MaxLifetime = d
	}
	return p
}

func (p poolSettings) apply(db *sql.DB) {
	db.SetMaxOpenConns(p.MaxOpen)
	db.SetMaxIdleConns(p.MaxIdle)
	db.SetConnMaxLifetime(p.MaxLifetime)
	if p.MaxIdleTime > 0 {
		db.SetConnMaxIdleTime(p.MaxIdleTime)
	}
}

func poolFromEnv(driver string) poolSettings {
	return defaultPool(driver).withEnv(os.Getenv)
}

func positiveInt(raw string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// positiveDuration accepts Go durations ("45s") or bare seconds ("30").
func positiveDuration(raw string) (time.Duration, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	if d, err := time.ParseDuration(raw); err == nil && d > 0 {
		return d, true
	}
	if secs, err := strconv.Atoi(raw); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second, true
	}
	return 0, false
}
