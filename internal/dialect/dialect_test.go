package dialect

import (
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	mssql "github.com/microsoft/go-mssqldb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuoteIdentifier(t *testing.T) {
	tests := []struct {
		dialect  Dialect
		input    string
		expected string
	}{
		{NewMySQL(), "simple_table", "`simple_table`"},
		{NewMySQL(), "table`with`backticks", "`table``with``backticks`"},
		{NewMySQL(), "", "``"},
		{NewPostgres(), "simple_table", `"simple_table"`},
		{NewPostgres(), `table"quoted`, `"table""quoted"`},
		{NewSQLite(), "wp_postmeta", `"wp_postmeta"`},
		{NewSQLite(), `a"b`, `"a""b"`},
		{NewSQLServer(), "wp_posts", "[wp_posts]"},
		{NewSQLServer(), "a]b", "[a]]b]"},
	}

	for _, test := range tests {
		result := test.dialect.QuoteIdentifier(test.input)
		if result != test.expected {
			t.Errorf("%s QuoteIdentifier(%q) = %q, expected %q", test.dialect.ID(), test.input, result, test.expected)
		}
	}
}

func TestPlaceholders(t *testing.T) {
	assert.Equal(t, "?", NewMySQL().Placeholder(3))
	assert.Equal(t, "?", NewSQLite().Placeholder(1))
	assert.Equal(t, "$1", NewPostgres().Placeholder(1))
	assert.Equal(t, "$12", NewPostgres().Placeholder(12))
	assert.Equal(t, "@p2", NewSQLServer().Placeholder(2))
}

func TestRegistry(t *testing.T) {
	ids := ListRegistered()
	assert.Equal(t, []ID{MySQL, PostgreSQL, SQLite, SQLServer}, ids)

	d, err := GetByName("MariaDB")
	require.NoError(t, err)
	assert.Equal(t, MySQL, d.ID())

	d, err = GetByName("postgresql")
	require.NoError(t, err)
	assert.Equal(t, "pgx", d.DriverName())

	_, err = GetByName("oracle")
	assert.ErrorIs(t, err, ErrUnknownDialect)
}

func TestMySQLDSN(t *testing.T) {
	dsn := NewMySQL().DSN(ConnParams{Host: "db", User: "wp", Password: "s3cr@t", Database: "wordpress"})

	cfg, err := mysql.ParseDSN(dsn)
	require.NoError(t, err)
	assert.Equal(t, "wp", cfg.User)
	assert.Equal(t, "s3cr@t", cfg.Passwd)
	assert.Equal(t, "db:3306", cfg.Addr)
	assert.Equal(t, "wordpress", cfg.DBName)
}

func TestPostgresDSN(t *testing.T) {
	dsn := NewPostgres().DSN(ConnParams{Host: "db", Port: 6432, User: "wp", Password: "p w", Database: "content"})
	assert.Equal(t, "postgres://wp:p%20w@db:6432/content?sslmode=disable", dsn)
}

func TestSQLServerDSN(t *testing.T) {
	dsn := NewSQLServer().DSN(ConnParams{Host: "db", User: "sa", Password: "p@w", Database: "wordpress"})
	assert.Equal(t, "sqlserver://sa:p%40w@db:1433?database=wordpress&encrypt=disable", dsn)
}

func TestSQLiteDSN(t *testing.T) {
	assert.Equal(t, ":memory:", NewSQLite().DSN(ConnParams{}))
	assert.Equal(t, "file:/tmp/wp.db?_pragma=busy_timeout(5000)", NewSQLite().DSN(ConnParams{Database: "/tmp/wp.db"}))
}

func TestIsUndefinedTable(t *testing.T) {
	wrapped := fmt.Errorf("populate: %w", &mysql.MySQLError{Number: 1146, Message: "Table 'wp.x' doesn't exist"})
	assert.True(t, NewMySQL().IsUndefinedTable(wrapped))
	assert.False(t, NewMySQL().IsUndefinedTable(&mysql.MySQLError{Number: 1062}))

	assert.True(t, NewPostgres().IsUndefinedTable(&pgconn.PgError{Code: "42P01"}))
	assert.False(t, NewPostgres().IsUndefinedTable(errors.New("boom")))

	assert.True(t, NewSQLite().IsUndefinedTable(errors.New("SQL logic error: no such table: wp_x (1)")))
	assert.False(t, NewSQLite().IsUndefinedTable(nil))

	assert.True(t, NewSQLServer().IsUndefinedTable(fmt.Errorf("populate: %w", mssql.Error{Number: 208})))
	assert.False(t, NewSQLServer().IsUndefinedTable(mssql.Error{Number: 2714}))
}
