package dialect

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// mysqlErrNoSuchTable is ER_NO_SUCH_TABLE.
const mysqlErrNoSuchTable = 1146

type mysqlDialect struct{}

// NewMySQL returns the MySQL/MariaDB dialect.
func NewMySQL() Dialect { return mysqlDialect{} }

func (mysqlDialect) ID() ID             { return MySQL }
func (mysqlDialect) DriverName() string { return "mysql" }

func (mysqlDialect) DSN(p ConnParams) string {
	cfg := mysql.NewConfig()
	cfg.User = p.User
	cfg.Passwd = p.Password
	cfg.Net = "tcp"
	port := p.Port
	if port == 0 {
		port = 3306
	}
	cfg.Addr = net.JoinHostPort(p.Host, strconv.Itoa(port))
	cfg.DBName = p.Database
	if p.SSL {
		cfg.TLSConfig = "true"
	}
	return cfg.FormatDSN()
}

// QuoteIdentifier quotes a MySQL identifier using backticks
func (mysqlDialect) QuoteIdentifier(name string) string {
	// Replace any existing backticks with double backticks to escape them
	name = strings.ReplaceAll(name, "`", "``")
	return fmt.Sprintf("`%s`", name)
}

func (mysqlDialect) Placeholder(int) string { return "?" }

func (mysqlDialect) CastText(expr string) string {
	return fmt.Sprintf("CAST(%s AS CHAR)", expr)
}

func (mysqlDialect) OwnerColumnType() string { return "BIGINT UNSIGNED" }
func (mysqlDialect) TextColumnType() string  { return "LONGTEXT" }

func (mysqlDialect) TableOptions(charsetCollate string) string {
	return strings.TrimSpace(charsetCollate)
}

func (mysqlDialect) IsUndefinedTable(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlErrNoSuchTable
}

func init() {
	Register(NewMySQL())
}
