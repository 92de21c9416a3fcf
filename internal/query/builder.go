// Package query turns index definitions into the INSERT ... SELECT
// statements that populate index tables from the attribute store.
package query

import (
	"errors"
	"fmt"
	"strings"

	"github.com/redbco/redb-indexmeta/internal/dialect"
	"github.com/redbco/redb-indexmeta/internal/indexdef"
	"github.com/redbco/redb-indexmeta/internal/store"
)

// AliasPlaceholder in a custom expression is replaced by the quoted alias of the field's table.
const AliasPlaceholder = "{alias}"

const anchorAlias = "a"

// ErrInvalidDefinition is returned for definitions that did not go through validation.
var ErrInvalidDefinition = errors.New("invalid index definition")

// Builder generates populate statements for one dialect and store layout.
type Builder struct {
	dialect dialect.Dialect
	layout  store.Layout
}

// NewBuilder creates a query builder.
func NewBuilder(d dialect.Dialect, layout store.Layout) *Builder {
	return &Builder{dialect: d, layout: layout}
}

// binder accumulates bound arguments and hands out placeholders in textual order.
type binder struct {
	d    dialect.Dialect
	args []any
}

func (b *binder) bind(v any) string {
	b.args = append(b.args, v)
	return b.d.Placeholder(len(b.args))
}

func (b *Builder) q(name string) string {
	return b.dialect.QuoteIdentifier(name)
}

func (b *Builder) col(alias, column string) string {
	return b.q(alias) + "." + b.q(column)
}

// BuildPopulateStatements returns the statements filling the index table,
// in execution order: initialization inserts first, then the projection.
func (b *Builder) BuildPopulateStatements(def indexdef.Definition) ([]store.Statement, error) {
	if err := checkDefinition(def); err != nil {
		return nil, err
	}

	if def.IsSimple() {
		return []store.Statement{b.simple(def)}, nil
	}

	var stmts []store.Statement
	for _, f := range def.Fields {
		if f.InitIfMissing && f.Kind == indexdef.KindTable && f.SourceTable == indexdef.SourcePostmeta {
			stmts = append(stmts, b.initMissing(f))
		}
	}
	return append(stmts, b.projection(def)), nil
}

// simple copies (owner, value) of every attribute row with the given name.
func (b *Builder) simple(def indexdef.Definition) store.Statement {
	p := &binder{d: b.dialect}
	l := b.layout

	sql := fmt.Sprintf("INSERT INTO %s (%s, %s) SELECT %s, %s FROM %s AS %s WHERE %s = %s",
		b.q(l.IndexTable(def.Name)),
		b.q(indexdef.OwnerColumn), b.q(indexdef.ValueColumn),
		b.col(anchorAlias, l.MetaOwner), b.col(anchorAlias, l.MetaValue),
		b.q(l.Postmeta()), b.q(anchorAlias),
		b.col(anchorAlias, l.MetaKey), p.bind(def.Attribute),
	)

	return store.Statement{Step: store.StepPopulate, SQL: sql, Args: p.args}
}

// initMissing inserts an empty attribute row for every entity that has none
// for the field's attribute name. It only ever adds rows.
func (b *Builder) initMissing(f indexdef.FieldSpec) store.Statement {
	p := &binder{d: b.dialect}
	l := b.layout
	const posts, meta = "p", "m"

	var sb strings.Builder
	fmt.Fprintf(&sb, "INSERT INTO %s (%s, %s, %s) SELECT %s, %s, %s FROM %s AS %s",
		b.q(l.Postmeta()),
		b.q(l.MetaOwner), b.q(l.MetaKey), b.q(l.MetaValue),
		b.col(posts, l.PostsID), b.dialect.CastText(p.bind(f.Column)), b.dialect.CastText(p.bind("")),
		b.q(l.Posts()), b.q(posts),
	)
	fmt.Fprintf(&sb, " LEFT JOIN %s AS %s ON %s = %s AND %s = %s",
		b.q(l.Postmeta()), b.q(meta),
		b.col(meta, l.MetaOwner), b.col(posts, l.PostsID),
		b.col(meta, l.MetaKey), p.bind(f.Column),
	)
	fmt.Fprintf(&sb, " WHERE %s IS NULL", b.col(meta, l.MetaOwner))
	if f.EntityTypeFilter != "" {
		fmt.Fprintf(&sb, " AND %s = %s", b.col(posts, l.PostsType), p.bind(f.EntityTypeFilter))
	}

	return store.Statement{Step: store.StepInit, SQL: sb.String(), Args: p.args}
}

type metaFilter struct {
	alias string
	key   string
}

// projection joins the anchor attribute rows with one alias per table field
// and inserts owner id plus every output column.
func (b *Builder) projection(def indexdef.Definition) store.Statement {
	p := &binder{d: b.dialect}
	l := b.layout

	insertCols := []string{b.q(indexdef.OwnerColumn)}
	selects := []string{b.col(anchorAlias, l.MetaOwner)}
	var joins []string
	// Attribute-name filters; the anchor's comes first.
	filters := []metaFilter{{alias: anchorAlias}}

	n := 0
	for _, f := range def.Fields {
		insertCols = append(insertCols, b.q(f.Column))

		if f.Kind == indexdef.KindIndex {
			selects = append(selects, b.col(anchorAlias, l.MetaValue))
			filters[0].key = f.Column
			continue
		}

		n++
		alias := fmt.Sprintf("t%d", n)
		joins = append(joins, fmt.Sprintf("INNER JOIN %s AS %s ON %s = %s",
			b.q(l.Resolve(f.SourceTable)), b.q(alias),
			b.col(anchorAlias, l.MetaOwner), b.col(alias, f.JoinKey)))

		switch f.SourceTable {
		case indexdef.SourcePosts:
			if f.CustomExpression != "" {
				selects = append(selects, strings.ReplaceAll(f.CustomExpression, AliasPlaceholder, b.q(alias)))
			} else {
				selects = append(selects, b.col(alias, f.Column))
			}
		case indexdef.SourcePostmeta:
			selects = append(selects, b.col(alias, l.MetaValue))
			filters = append(filters, metaFilter{alias: alias, key: f.Column})
		default:
			selects = append(selects, b.col(alias, f.Column))
		}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "INSERT INTO %s (%s) SELECT %s FROM %s AS %s",
		b.q(l.IndexTable(def.Name)),
		strings.Join(insertCols, ", "),
		strings.Join(selects, ", "),
		b.q(l.Postmeta()), b.q(anchorAlias),
	)
	for _, j := range joins {
		sb.WriteString(" ")
		sb.WriteString(j)
	}
	for i, f := range filters {
		if i == 0 {
			sb.WriteString(" WHERE ")
		} else {
			sb.WriteString(" AND ")
		}
		fmt.Fprintf(&sb, "%s = %s", b.col(f.alias, l.MetaKey), p.bind(f.key))
	}

	return store.Statement{Step: store.StepPopulate, SQL: sb.String(), Args: p.args}
}

// checkDefinition re-applies the identifier allow-list, since a Set can be
// built directly from Definitions without going through Validate.
func checkDefinition(def indexdef.Definition) error {
	if !indexdef.ValidIdentifier(def.Name) {
		return fmt.Errorf("%w: index name %q", ErrInvalidDefinition, def.Name)
	}
	if def.IsSimple() {
		if def.Attribute == "" {
			return fmt.Errorf("%w: %s: empty attribute", ErrInvalidDefinition, def.Name)
		}
		return nil
	}

	indexFields := 0
	for _, f := range def.Fields {
		if !indexdef.ValidIdentifier(f.Column) {
			return fmt.Errorf("%w: %s: column %q", ErrInvalidDefinition, def.Name, f.Column)
		}
		switch f.Kind {
		case indexdef.KindIndex:
			indexFields++
		case indexdef.KindTable:
			if !indexdef.ValidIdentifier(f.SourceTable) || !indexdef.ValidIdentifier(f.JoinKey) {
				return fmt.Errorf("%w: %s.%s: source table and join key required", ErrInvalidDefinition, def.Name, f.Column)
			}
		default:
			return fmt.Errorf("%w: %s.%s: kind %q", ErrInvalidDefinition, def.Name, f.Column, f.Kind)
		}
	}
	if indexFields != 1 {
		return fmt.Errorf("%w: %s: %d index fields", ErrInvalidDefinition, def.Name, indexFields)
	}
	return nil
}
