package dialect

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"

	mssql "github.com/microsoft/go-mssqldb"
)

// sqlServerInvalidObject is "Invalid object name", raised for missing tables.
const sqlServerInvalidObject = 208

type sqlServerDialect struct{}

// NewSQLServer returns the Microsoft SQL Server dialect. DROP TABLE IF EXISTS
// needs SQL Server 2016 or later.
func NewSQLServer() Dialect { return sqlServerDialect{} }

func (sqlServerDialect) ID() ID             { return SQLServer }
func (sqlServerDialect) DriverName() string { return "sqlserver" }

func (sqlServerDialect) DSN(p ConnParams) string {
	port := p.Port
	if port == 0 {
		port = 1433
	}
	q := url.Values{}
	q.Set("database", p.Database)
	if p.SSL {
		q.Set("encrypt", "true")
	} else {
		q.Set("encrypt", "disable")
	}
	u := url.URL{
		Scheme:   "sqlserver",
		User:     url.UserPassword(p.User, p.Password),
		Host:     net.JoinHostPort(p.Host, strconv.Itoa(port)),
		RawQuery: q.Encode(),
	}
	return u.String()
}

func (sqlServerDialect) QuoteIdentifier(name string) string {
	return fmt.Sprintf("[%s]", strings.ReplaceAll(name, "]", "]]"))
}

func (sqlServerDialect) Placeholder(n int) string { return "@p" + strconv.Itoa(n) }

func (sqlServerDialect) CastText(expr string) string {
	return fmt.Sprintf("CAST(%s AS NVARCHAR(MAX))", expr)
}

func (sqlServerDialect) OwnerColumnType() string { return "BIGINT" }
func (sqlServerDialect) TextColumnType() string  { return "NVARCHAR(MAX)" }

func (sqlServerDialect) TableOptions(string) string { return "" }

func (sqlServerDialect) IsUndefinedTable(err error) bool {
	var me mssql.Error
	return errors.As(err, &me) && me.Number == sqlServerInvalidObject
}

func init() {
	Register(NewSQLServer())
}
