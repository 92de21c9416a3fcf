// Package schema names and (re)creates the physical tables behind index definitions.
package schema

import (
	"context"
	"fmt"
	"strings"

	"github.com/redbco/redb-indexmeta/internal/dialect"
	"github.com/redbco/redb-indexmeta/internal/indexdef"
	"github.com/redbco/redb-indexmeta/internal/store"
)

// Manager derives table names and DDL from the registered definitions.
type Manager struct {
	defs           *indexdef.Set
	dialect        dialect.Dialect
	layout         store.Layout
	charsetCollate string
}

// NewManager creates a schema manager. charsetCollate is appended to
// CREATE TABLE on dialects that support it (MySQL).
func NewManager(defs *indexdef.Set, d dialect.Dialect, layout store.Layout, charsetCollate string) *Manager {
	return &Manager{
		defs:           defs,
		dialect:        d,
		layout:         layout,
		charsetCollate: charsetCollate,
	}
}

// TableNameFor returns the physical table name of a registered index.
func (m *Manager) TableNameFor(name string) (string, bool) {
	if _, ok := m.defs.Get(name); !ok {
		return "", false
	}
	return m.layout.IndexTable(name), true
}

// DropStatement returns the statement removing the index table.
func (m *Manager) DropStatement(name string) (store.Statement, error) {
	table, ok := m.TableNameFor(name)
	if !ok {
		return store.Statement{}, fmt.Errorf("%w: %q", indexdef.ErrUnknownIndex, name)
	}
	return store.Statement{
		Step: store.StepDrop,
		SQL:  "DROP TABLE IF EXISTS " + m.dialect.QuoteIdentifier(table),
	}, nil
}

// CreateStatement returns the CREATE TABLE for the index: the owner id
// column followed by one text column per field, in definition order.
func (m *Manager) CreateStatement(name string) (store.Statement, error) {
	def, ok := m.defs.Get(name)
	if !ok {
		return store.Statement{}, fmt.Errorf("%w: %q", indexdef.ErrUnknownIndex, name)
	}

	cols := def.Columns()
	parts := make([]string, 0, len(cols))
	parts = append(parts, m.dialect.QuoteIdentifier(cols[0])+" "+m.dialect.OwnerColumnType())
	for _, col := range cols[1:] {
		parts = append(parts, m.dialect.QuoteIdentifier(col)+" "+m.dialect.TextColumnType())
	}

	sql := fmt.Sprintf("CREATE TABLE %s (%s)",
		m.dialect.QuoteIdentifier(m.layout.IndexTable(name)),
		strings.Join(parts, ", "))
	if opts := m.dialect.TableOptions(m.charsetCollate); opts != "" {
		sql += " " + opts
	}

	return store.Statement{Step: store.StepCreate, SQL: sql}, nil
}

// RecreateStatements returns the drop and create statements for an index.
func (m *Manager) RecreateStatements(name string) ([]store.Statement, error) {
	drop, err := m.DropStatement(name)
	if err != nil {
		return nil, err
	}
	create, err := m.CreateStatement(name)
	if err != nil {
		return nil, err
	}
	return []store.Statement{drop, create}, nil
}

// RecreateTable drops the index table if it exists and creates it empty.
// Store failures are returned as is.
func (m *Manager) RecreateTable(ctx context.Context, db store.Execer, name string) error {
	stmts, err := m.RecreateStatements(name)
	if err != nil {
		return err
	}
	for _, stmt := range stmts {
		if _, err := stmt.Exec(ctx, db); err != nil {
			return err
		}
	}
	return nil
}

// DropTable removes the index table if it exists.
func (m *Manager) DropTable(ctx context.Context, db store.Execer, name string) error {
	stmt, err := m.DropStatement(name)
	if err != nil {
		return err
	}
	_, err = stmt.Exec(ctx, db)
	return err
}
