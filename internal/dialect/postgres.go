package dialect

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/lib/pq"
)

// pgUndefinedTable is SQLSTATE undefined_table.
const pgUndefinedTable = "42P01"

type postgresDialect struct{}

// NewPostgres returns the PostgreSQL dialect, driven by pgx through database/sql.
func NewPostgres() Dialect { return postgresDialect{} }

func (postgresDialect) ID() ID             { return PostgreSQL }
func (postgresDialect) DriverName() string { return "pgx" }

func (postgresDialect) DSN(p ConnParams) string {
	port := p.Port
	if port == 0 {
		port = 5432
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(p.User, p.Password),
		Host:   net.JoinHostPort(p.Host, strconv.Itoa(port)),
		Path:   "/" + p.Database,
	}
	q := url.Values{}
	if p.SSL {
		q.Set("sslmode", "require")
	} else {
		q.Set("sslmode", "disable")
	}
	u.RawQuery = q.Encode()
	return u.String()
}

func (postgresDialect) QuoteIdentifier(name string) string {
	return pq.QuoteIdentifier(name)
}

func (postgresDialect) Placeholder(n int) string { return "$" + strconv.Itoa(n) }

func (postgresDialect) CastText(expr string) string {
	return fmt.Sprintf("CAST(%s AS TEXT)", expr)
}

func (postgresDialect) OwnerColumnType() string { return "BIGINT" }
func (postgresDialect) TextColumnType() string  { return "TEXT" }

// TableOptions ignores charset settings; PostgreSQL encodings are per database.
func (postgresDialect) TableOptions(string) string { return "" }

func (postgresDialect) IsUndefinedTable(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUndefinedTable
}

func init() {
	Register(NewPostgres())
}
