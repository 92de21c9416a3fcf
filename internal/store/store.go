// Package store connects to the relational store holding the attribute
// table and executes generated statements against it.
package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/redbco/redb-indexmeta/internal/dialect"
)

// Steps of a rebuild, used to label statements and errors.
const (
	StepDrop     = "drop"
	StepCreate   = "create"
	StepInit     = "init"
	StepPopulate = "populate"
)

// Execer runs a statement. *sql.DB, *sql.Conn and *sql.Tx satisfy it.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Statement is one generated SQL statement with its bound arguments.
type Statement struct {
	Step string `json:"step"`
	SQL  string `json:"sql"`
	Args []any  `json:"args,omitempty"`
}

// Exec runs the statement and returns the number of affected rows, or -1
// when the driver cannot report it.
func (s Statement) Exec(ctx context.Context, db Execer) (int64, error) {
	res, err := db.ExecContext(ctx, s.SQL, s.Args...)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return -1, nil
	}
	return n, nil
}

// Options tunes the connection pool.
type Options struct {
	MaxOpenConns int
	MaxIdleConns int
}

// Open establishes a connection pool for the dialect and checks it with a ping.
func Open(ctx context.Context, d dialect.Dialect, dsn string, opts Options) (*sql.DB, error) {
	db, err := sql.Open(d.DriverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s connection: %w", d.ID(), err)
	}

	if opts.MaxOpenConns == 0 {
		opts.MaxOpenConns = 25
	}
	if opts.MaxIdleConns == 0 {
		opts.MaxIdleConns = 5
	}
	// An in-memory SQLite database lives and dies with its single connection.
	if d.ID() == dialect.SQLite && dsn == ":memory:" {
		opts.MaxOpenConns = 1
		opts.MaxIdleConns = 1
	}
	db.SetMaxOpenConns(opts.MaxOpenConns)
	db.SetMaxIdleConns(opts.MaxIdleConns)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping %s database: %w", d.ID(), err)
	}

	return db, nil
}
