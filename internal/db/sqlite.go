// Package db opens the cgo-free SQLite connection backing the Index Table.
package db

import (
	"fmt"
	"path/filepath"

	"github.com/jmoiron/sqlx"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/subsyncit/subsyncit/internal/utils"
)

const driverName = "sqlite3"

// pragmas favor a single long-lived writer process polling on an interval,
// not a high-concurrency server workload.
const defaultPragmas = `
PRAGMA journal_mode=WAL;
PRAGMA busy_timeout=5000;
PRAGMA synchronous=NORMAL;
`

type config struct {
	path         string
	maxOpenConns int
}

// Option configures Open.
type Option func(*config)

// WithPath sets the SQLite file path. Use ":memory:" for an ephemeral DB.
func WithPath(path string) Option {
	return func(c *config) { c.path = path }
}

// WithMaxOpenConns caps the connection pool; the Index Table is written by
// a single goroutine so 1 is normally sufficient.
func WithMaxOpenConns(n int) Option {
	return func(c *config) { c.maxOpenConns = n }
}

// Open creates or opens a SQLite database with the options given.
func Open(opts ...Option) (*sqlx.DB, error) {
	cfg := &config{path: ":memory:", maxOpenConns: 1}
	for _, opt := range opts {
		opt(cfg)
	}

	var dsn string
	if cfg.path != ":memory:" {
		if err := utils.EnsureDir(filepath.Dir(cfg.path)); err != nil {
			return nil, fmt.Errorf("ensure db directory: %w", err)
		}
		dsn = fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&mode=rwc", cfg.path)
	} else {
		dsn = ":memory:"
	}

	conn, err := sqlx.Connect(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect sqlite: %w", err)
	}

	if cfg.maxOpenConns > 0 {
		conn.SetMaxOpenConns(cfg.maxOpenConns)
	}

	if _, err := conn.Exec(defaultPragmas); err != nil {
		conn.Close()
		return nil, fmt.Errorf("set pragmas: %w", err)
	}

	return conn, nil
}
