// Package dialect holds the per-database SQL details the index engine needs:
// identifier quoting, bind placeholders, column types and connection strings.
package dialect

import (
	"errors"
	"strings"
)

// ID is the canonical identifier for a supported SQL dialect.
type ID string

const (
	MySQL      ID = "mysql"
	PostgreSQL ID = "postgres"
	SQLite     ID = "sqlite"
	SQLServer  ID = "sqlserver"
)

var nameToID = map[string]ID{
	"mysql":      MySQL,
	"mariadb":    MySQL,
	"postgres":   PostgreSQL,
	"postgresql": PostgreSQL,
	"pg":         PostgreSQL,
	"sqlite":     SQLite,
	"sqlite3":    SQLite,
	"sqlserver":  SQLServer,
	"mssql":      SQLServer,
}

// ParseID resolves a free-form dialect name or alias.
func ParseID(name string) (ID, bool) {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "" {
		return "", false
	}
	id, ok := nameToID[n]
	return id, ok
}

// ConnParams describes a database to connect to when no DSN is given.
type ConnParams struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSL      bool
}

// Dialect renders the dialect-specific pieces of generated SQL.
type Dialect interface {
	ID() ID

	// DriverName is the database/sql driver registered for this dialect.
	DriverName() string

	// DSN builds a driver connection string from discrete parameters.
	DSN(p ConnParams) string

	// QuoteIdentifier quotes a table or column name.
	QuoteIdentifier(name string) string

	// Placeholder returns the bind marker for the n-th argument (1-based).
	Placeholder(n int) string

	// CastText wraps an expression so it is typed as text.
	CastText(expr string) string

	OwnerColumnType() string
	TextColumnType() string

	// TableOptions is appended after the column list of CREATE TABLE.
	TableOptions(charsetCollate string) string

	// IsUndefinedTable reports whether err means the referenced table does not exist.
	IsUndefinedTable(err error) bool
}

// ErrUnknownDialect is returned when no dialect is registered for a name.
var ErrUnknownDialect = errors.New("unknown sql dialect")
