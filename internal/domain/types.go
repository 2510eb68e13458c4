package domain

import (
	"fmt"
	"strings"
)

// FieldType is the abstract type of a logical column.
type FieldType string

const (
	FieldString  FieldType = "string"
	FieldNumber  FieldType = "number"
	FieldBoolean FieldType = "boolean"
)

var fieldTypes = []FieldType{FieldString, FieldBoolean, FieldNumber}

// ParseFieldType accepts the lower-case wire value of a field type.
func ParseFieldType(raw string) (FieldType, error) {
	for _, t := range fieldTypes {
		if raw == string(t) {
			return t, nil
		}
	}
	return "", InvalidChoice("type", raw)
}

func (t FieldType) Valid() bool {
	switch t {
	case FieldString, FieldNumber, FieldBoolean:
		return true
	}
	return false
}

// Label is the display name of the type ("String", "Number", "Boolean").
func (t FieldType) Label() string {
	if t == "" {
		return ""
	}
	return strings.ToUpper(string(t[:1])) + string(t[1:])
}

// TableDef is the catalog record of one logical table.
type TableDef struct {
	ID      int64       `json:"id" yaml:"id"`
	Name    string      `json:"name" yaml:"name"`
	Columns []ColumnDef `json:"fields" yaml:"fields"`
}

// Column returns the column with the given catalog id.
func (t *TableDef) Column(id int64) (ColumnDef, bool) {
	for _, col := range t.Columns {
		if col.ID == id {
			return col, true
		}
	}
	return ColumnDef{}, false
}

// ColumnByName returns the column with the given name.
func (t *TableDef) ColumnByName(name string) (ColumnDef, bool) {
	for _, col := range t.Columns {
		if col.Name == name {
			return col, true
		}
	}
	return ColumnDef{}, false
}

func (t *TableDef) String() string {
	return fmt.Sprintf("%s (#%d)", t.Name, t.ID)
}

// ColumnDef is the catalog record of one column of a TableDef.
type ColumnDef struct {
	ID        int64     `json:"id" yaml:"id"`
	TableID   int64     `json:"-" yaml:"-"`
	Name      string    `json:"name" yaml:"name"`
	Type      FieldType `json:"type" yaml:"type"`
	Nullable  bool      `json:"allow_null" yaml:"allow_null"`
	Blankable bool      `json:"allow_blank" yaml:"allow_blank"`
}

// ColumnSpec describes a column that does not exist in the catalog yet.
type ColumnSpec struct {
	Name      string    `json:"name" yaml:"name"`
	Type      FieldType `json:"type" yaml:"type"`
	Nullable  bool      `json:"allow_null" yaml:"allow_null"`
	Blankable bool      `json:"allow_blank" yaml:"allow_blank"`
}

// ColumnRequest is one column of a create-table request as supplied by the
// caller. Nullable and Blankable default to true when omitted.
type ColumnRequest struct {
	Name      string `json:"name" yaml:"name"`
	Type      string `json:"type" yaml:"type"`
	Nullable  *bool  `json:"allow_null,omitempty" yaml:"allow_null,omitempty"`
	Blankable *bool  `json:"allow_blank,omitempty" yaml:"allow_blank,omitempty"`
}

type CreateTableRequest struct {
	Name    string          `json:"name" yaml:"name"`
	Columns []ColumnRequest `json:"fields" yaml:"fields"`
}

// Action is the kind of column alteration requested.
type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// AlterRequest is one column alteration as supplied by the caller. Optional
// members are nil when absent from the request payload.
type AlterRequest struct {
	Action    string  `json:"action" yaml:"action"`
	ID        *int64  `json:"id,omitempty" yaml:"id,omitempty"`
	Name      *string `json:"name,omitempty" yaml:"name,omitempty"`
	Type      *string `json:"type,omitempty" yaml:"type,omitempty"`
	Nullable  *bool   `json:"allow_null,omitempty" yaml:"allow_null,omitempty"`
	Blankable *bool   `json:"allow_blank,omitempty" yaml:"allow_blank,omitempty"`
}

// MutationOp enumerates the catalog mutations the synchronizer applies.
type MutationOp int

const (
	OpAddColumn MutationOp = iota + 1
	OpUpdateColumn
	OpDeleteColumn
)

func (op MutationOp) String() string {
	switch op {
	case OpAddColumn:
		return "add_column"
	case OpUpdateColumn:
		return "update_column"
	case OpDeleteColumn:
		return "delete_column"
	default:
		return "unknown"
	}
}

// Mutation is a validated alteration. Add carries Spec; update and delete
// carry Target, the column as it was before the mutation. Updates carry no
// type: a column's type cannot change after creation.
type Mutation struct {
	Op       MutationOp
	Target   ColumnDef
	Spec     ColumnSpec
	NewName  string
	Nullable bool
}

// Renames reports whether an update changes the column name.
func (m Mutation) Renames() bool {
	return m.Op == OpUpdateColumn && m.NewName != m.Target.Name
}

// RelaxesNull reports whether an update drops a NOT NULL constraint.
func (m Mutation) RelaxesNull() bool {
	return m.Op == OpUpdateColumn && m.Nullable && !m.Target.Nullable
}
