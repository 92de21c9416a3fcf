package dialect

import (
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

type sqliteDialect struct{}

// NewSQLite returns the SQLite dialect backed by the pure Go modernc driver.
func NewSQLite() Dialect { return sqliteDialect{} }

func (sqliteDialect) ID() ID             { return SQLite }
func (sqliteDialect) DriverName() string { return "sqlite" }

// DSN uses Database as the file path; an empty path opens a private in-memory database.
func (sqliteDialect) DSN(p ConnParams) string {
	if p.Database == "" || p.Database == ":memory:" {
		return ":memory:"
	}
	return "file:" + p.Database + "?_pragma=busy_timeout(5000)"
}

func (sqliteDialect) QuoteIdentifier(name string) string {
	name = strings.ReplaceAll(name, `"`, `""`)
	return fmt.Sprintf(`"%s"`, name)
}

func (sqliteDialect) Placeholder(int) string { return "?" }

func (sqliteDialect) CastText(expr string) string {
	return fmt.Sprintf("CAST(%s AS TEXT)", expr)
}

func (sqliteDialect) OwnerColumnType() string { return "INTEGER" }
func (sqliteDialect) TextColumnType() string  { return "TEXT" }

func (sqliteDialect) TableOptions(string) string { return "" }

func (sqliteDialect) IsUndefinedTable(err error) bool {
	return err != nil && strings.Contains(err.Error(), "no such table")
}

func init() {
	Register(NewSQLite())
}
