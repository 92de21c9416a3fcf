package indexdef

import (
	"fmt"
	"strings"
)

// Reason classifies why a definition or one of its fields was dropped.
type Reason string

const (
	ReasonMissingIndexField   Reason = "missing_index_field"
	ReasonMultipleIndexFields Reason = "multiple_index_fields"
	ReasonMissingSourceTable  Reason = "missing_source_table"
	ReasonMissingJoinKey      Reason = "missing_join_key"
	ReasonInvalidKind         Reason = "invalid_kind"
	ReasonInvalidIdentifier   Reason = "invalid_identifier"
	ReasonDuplicateColumn     Reason = "duplicate_column"
	ReasonNoFields            Reason = "no_fields"
	ReasonEmptyAttribute      Reason = "empty_attribute"
)

// Rejection records one dropped definition or field.
// Column is empty when the whole definition was dropped.
type Rejection struct {
	Index  string `json:"index"`
	Column string `json:"column,omitempty"`
	Reason Reason `json:"reason"`
	Detail string `json:"detail,omitempty"`
}

// DefinitionDropped reports whether the rejection removed the whole definition.
func (r Rejection) DefinitionDropped() bool {
	return r.Column == ""
}

func (r Rejection) String() string {
	target := r.Index
	if r.Column != "" {
		target = r.Index + "." + r.Column
	}
	if r.Detail != "" {
		return fmt.Sprintf("%s: %s (%s)", target, r.Reason, r.Detail)
	}
	return fmt.Sprintf("%s: %s", target, r.Reason)
}

// Validate normalizes raw definitions. Invalid entries are left out of the
// returned set and described in the rejections; nothing here is fatal.
func Validate(raw RawSet) (*Set, []Rejection) {
	set := NewSet()
	var rejections []Rejection

	for _, name := range raw.Names() {
		def, rejs := validateDefinition(name, raw[name])
		rejections = append(rejections, rejs...)
		if def != nil {
			set.defs[name] = *def
		}
	}

	return set, rejections
}

func validateDefinition(name string, raw RawDefinition) (*Definition, []Rejection) {
	if !ValidIdentifier(name) {
		return nil, []Rejection{{Index: name, Reason: ReasonInvalidIdentifier, Detail: "index name"}}
	}

	if !raw.IsComposite() {
		if strings.TrimSpace(raw.Attribute) == "" {
			return nil, []Rejection{{Index: name, Reason: ReasonEmptyAttribute}}
		}
		return &Definition{Name: name, Attribute: raw.Attribute}, nil
	}

	var rejections []Rejection
	drop := func(column string, reason Reason, detail string) {
		rejections = append(rejections, Rejection{Index: name, Column: column, Reason: reason, Detail: detail})
	}

	seen := map[string]bool{OwnerColumn: true}
	fields := make([]FieldSpec, 0, len(raw.Columns))
	indexFields := 0

	for _, rc := range raw.Columns {
		col, opts := rc.Column, rc.Field

		if !ValidIdentifier(col) {
			drop(col, ReasonInvalidIdentifier, "column name")
			continue
		}
		if seen[col] {
			drop(col, ReasonDuplicateColumn, "")
			continue
		}

		kind, ok := parseKind(opts.Kind)
		if !ok {
			drop(col, ReasonInvalidKind, opts.Kind)
			continue
		}

		f := FieldSpec{
			Column:           col,
			Kind:             kind,
			SourceTable:      strings.TrimSpace(opts.SourceTable),
			JoinKey:          strings.TrimSpace(opts.JoinKey),
			CustomExpression: opts.CustomExpression,
			EntityTypeFilter: opts.EntityTypeFilter,
		}

		if kind != KindIndex {
			if f.SourceTable == "" {
				drop(col, ReasonMissingSourceTable, "")
				continue
			}
			if f.JoinKey == "" {
				drop(col, ReasonMissingJoinKey, "")
				continue
			}
			if !ValidIdentifier(f.SourceTable) {
				drop(col, ReasonInvalidIdentifier, "source_table")
				continue
			}
			if !ValidIdentifier(f.JoinKey) {
				drop(col, ReasonInvalidIdentifier, "join_key")
				continue
			}
		}

		// init_if_missing must be requested explicitly and only applies to
		// table fields read from the attribute table. The index field seeds
		// the rows and is never initialized.
		if kind == KindTable && f.SourceTable == SourcePostmeta && opts.InitIfMissing != nil {
			f.InitIfMissing = *opts.InitIfMissing
		}

		if kind == KindIndex {
			indexFields++
		}
		seen[col] = true
		fields = append(fields, f)
	}

	switch {
	case indexFields == 0:
		return nil, append(rejections, Rejection{Index: name, Reason: ReasonMissingIndexField})
	case indexFields > 1:
		return nil, append(rejections, Rejection{Index: name, Reason: ReasonMultipleIndexFields,
			Detail: fmt.Sprintf("%d index fields", indexFields)})
	case len(fields) == 0:
		return nil, append(rejections, Rejection{Index: name, Reason: ReasonNoFields})
	}

	return &Definition{Name: name, Fields: fields}, rejections
}

func parseKind(s string) (Kind, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(KindTable):
		return KindTable, true
	case string(KindIndex):
		return KindIndex, true
	default:
		return "", false
	}
}
