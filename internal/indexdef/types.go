// Package indexdef models index definitions: the raw form callers register
// and the canonical form the schema manager and query builder consume.
package indexdef

import (
	"errors"
	"regexp"
	"sort"
)

// Kind says where a composite field takes its value from.
type Kind string

const (
	// KindIndex marks the field whose attribute name seeds the rows.
	KindIndex Kind = "index"
	// KindTable marks a value pulled from a joined table.
	KindTable Kind = "table"
)

// Source table tokens resolved against the store layout.
const (
	SourcePosts    = "posts"
	SourcePostmeta = "postmeta"
)

// Fixed column names of every index table.
const (
	OwnerColumn = "post_id"
	ValueColumn = "meta_value"
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidIdentifier reports whether name may be used as a table or column name.
func ValidIdentifier(name string) bool {
	return identifierPattern.MatchString(name)
}

// RawField holds the options of one composite column as supplied by a caller.
type RawField struct {
	Kind             string `yaml:"kind,omitempty" json:"kind,omitempty"`
	SourceTable      string `yaml:"source_table,omitempty" json:"source_table,omitempty"`
	JoinKey          string `yaml:"join_key,omitempty" json:"join_key,omitempty"`
	CustomExpression string `yaml:"custom_expression,omitempty" json:"custom_expression,omitempty"`
	EntityTypeFilter string `yaml:"entity_type_filter,omitempty" json:"entity_type_filter,omitempty"`
	InitIfMissing    *bool  `yaml:"init_if_missing,omitempty" json:"init_if_missing,omitempty"`
}

// RawColumn pairs an output column name with its options.
type RawColumn struct {
	Column string
	Field  RawField
}

// RawDefinition is either a simple attribute name or an ordered list of columns.
type RawDefinition struct {
	Attribute string
	Columns   []RawColumn
}

// Simple returns a definition indexing a single attribute.
func Simple(attribute string) RawDefinition {
	return RawDefinition{Attribute: attribute}
}

// Composite returns a multi-column definition. Column order is preserved.
func Composite(columns ...RawColumn) RawDefinition {
	if columns == nil {
		columns = []RawColumn{}
	}
	return RawDefinition{Columns: columns}
}

// Col is shorthand for building a RawColumn.
func Col(column string, field RawField) RawColumn {
	return RawColumn{Column: column, Field: field}
}

// IsComposite reports whether the definition carries a column mapping.
func (d RawDefinition) IsComposite() bool {
	return d.Columns != nil
}

// RawSet maps index names to raw definitions.
type RawSet map[string]RawDefinition

// Names returns the index names in sorted order.
func (s RawSet) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FieldSpec is one validated output column of a composite index.
type FieldSpec struct {
	Column           string `json:"column"`
	Kind             Kind   `json:"kind"`
	SourceTable      string `json:"source_table,omitempty"`
	JoinKey          string `json:"join_key,omitempty"`
	CustomExpression string `json:"custom_expression,omitempty"`
	EntityTypeFilter string `json:"entity_type_filter,omitempty"`
	InitIfMissing    bool   `json:"init_if_missing"`
}

// Definition is a validated index definition.
// Simple definitions have an Attribute and no Fields.
type Definition struct {
	Name      string      `json:"name"`
	Attribute string      `json:"attribute,omitempty"`
	Fields    []FieldSpec `json:"fields,omitempty"`
}

// IsSimple reports whether the definition indexes a single attribute.
func (d Definition) IsSimple() bool {
	return len(d.Fields) == 0
}

// IndexField returns the sole index-kind field of a composite definition.
func (d Definition) IndexField() (FieldSpec, bool) {
	for _, f := range d.Fields {
		if f.Kind == KindIndex {
			return f, true
		}
	}
	return FieldSpec{}, false
}

// Columns returns the physical columns of the index table in order.
func (d Definition) Columns() []string {
	if d.IsSimple() {
		return []string{OwnerColumn, ValueColumn}
	}
	cols := make([]string, 0, len(d.Fields)+1)
	cols = append(cols, OwnerColumn)
	for _, f := range d.Fields {
		cols = append(cols, f.Column)
	}
	return cols
}

// Raw converts the definition back into its registration form.
func (d Definition) Raw() RawDefinition {
	if d.IsSimple() {
		return Simple(d.Attribute)
	}
	cols := make([]RawColumn, 0, len(d.Fields))
	for _, f := range d.Fields {
		init := f.InitIfMissing
		cols = append(cols, Col(f.Column, RawField{
			Kind:             string(f.Kind),
			SourceTable:      f.SourceTable,
			JoinKey:          f.JoinKey,
			CustomExpression: f.CustomExpression,
			EntityTypeFilter: f.EntityTypeFilter,
			InitIfMissing:    &init,
		}))
	}
	return Composite(cols...)
}

// Set is the read-only collection of validated definitions.
type Set struct {
	defs map[string]Definition
}

// NewSet builds a set from already validated definitions.
func NewSet(defs ...Definition) *Set {
	s := &Set{defs: make(map[string]Definition, len(defs))}
	for _, d := range defs {
		s.defs[d.Name] = d
	}
	return s
}

// Get returns the definition registered under name.
func (s *Set) Get(name string) (Definition, bool) {
	if s == nil || name == "" {
		return Definition{}, false
	}
	d, ok := s.defs[name]
	return d, ok
}

// Len returns the number of definitions.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.defs)
}

// Names returns the index names in sorted order.
func (s *Set) Names() []string {
	if s == nil {
		return nil
	}
	names := make([]string, 0, len(s.defs))
	for name := range s.defs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// All returns every definition sorted by name.
func (s *Set) All() []Definition {
	names := s.Names()
	out := make([]Definition, 0, len(names))
	for _, name := range names {
		out = append(out, s.defs[name])
	}
	return out
}

// Raw converts the set back into registration form.
func (s *Set) Raw() RawSet {
	raw := make(RawSet, s.Len())
	for _, d := range s.All() {
		raw[d.Name] = d.Raw()
	}
	return raw
}

// ErrUnknownIndex is returned for index names that are not registered.
var ErrUnknownIndex = errors.New("unknown index")
