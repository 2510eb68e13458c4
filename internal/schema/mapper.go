package schema

import (
	"fmt"

	"github.com/kadirbelkuyu/dyntables/internal/domain"

	"github.com/lib/pq"
)

// IdentityColumn is the engine-assigned row identity present in every
// dynamic table.
const IdentityColumn = "id"

const (
	sqlText    = "text"
	sqlFloat   = "double precision"
	sqlBoolean = "boolean"
)

// PhysicalSpec is the physical column type and constraints for an abstract
// column type.
type PhysicalSpec struct {
	Kind       domain.FieldType
	SQLType    string
	Nullable   bool
	AllowEmpty bool
}

// PhysicalColumn is a PhysicalSpec bound to a column identifier.
type PhysicalColumn struct {
	Name string
	PhysicalSpec
}

// MapType translates an abstract column type. It is used both for DDL and
// for row marshalling, so the two always agree.
func MapType(t domain.FieldType, nullable, blankable bool) PhysicalSpec {
	spec := PhysicalSpec{
		Kind:       t,
		Nullable:   nullable,
		AllowEmpty: blankable,
	}

	switch t {
	case domain.FieldNumber:
		spec.SQLType = sqlFloat
	case domain.FieldBoolean:
		spec.SQLType = sqlBoolean
	default:
		spec.Kind = domain.FieldString
		spec.SQLType = sqlText
	}

	return spec
}

func ColumnFor(def domain.ColumnDef) PhysicalColumn {
	return PhysicalColumn{
		Name:         def.Name,
		PhysicalSpec: MapType(def.Type, def.Nullable, def.Blankable),
	}
}

func ColumnsFor(defs []domain.ColumnDef) []PhysicalColumn {
	cols := make([]PhysicalColumn, len(defs))
	for i, def := range defs {
		cols[i] = ColumnFor(def)
	}
	return cols
}

// Definition renders the column for CREATE TABLE and ADD COLUMN.
func (c PhysicalColumn) Definition() string {
	ident := pq.QuoteIdentifier(c.Name)
	def := fmt.Sprintf("%s %s", ident, c.SQLType)

	if !c.Nullable {
		def += " NOT NULL"
	}

	if c.Kind == domain.FieldString && !c.AllowEmpty {
		def += fmt.Sprintf(" CHECK (%s <> '')", ident)
	}

	return def
}
