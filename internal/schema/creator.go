package schema

import (
	"fmt"
	"strings"

	"github.com/lib/pq"
)

// Creator builds the DDL statements that keep a dynamic table in step with
// its catalog definition. It only renders SQL; callers execute it.
type Creator struct {
	schema string
}

func NewCreator(schema string) *Creator {
	if strings.TrimSpace(schema) == "" {
		schema = "public"
	}
	return &Creator{schema: schema}
}

func (c *Creator) Schema() string {
	return c.schema
}

// QualifiedName returns the quoted schema-qualified identifier of a table.
func (c *Creator) QualifiedName(table string) string {
	return pq.QuoteIdentifier(c.schema) + "." + pq.QuoteIdentifier(table)
}

func (c *Creator) CreateTable(table string, columns []PhysicalColumn) string {
	columnDefs := make([]string, 0, len(columns)+1)
	columnDefs = append(columnDefs, fmt.Sprintf("%s bigserial PRIMARY KEY", pq.QuoteIdentifier(IdentityColumn)))

	for _, col := range columns {
		columnDefs = append(columnDefs, col.Definition())
	}

	return fmt.Sprintf(
		"CREATE TABLE %s (%s)",
		c.QualifiedName(table),
		strings.Join(columnDefs, ", "),
	)
}

func (c *Creator) AddColumn(table string, col PhysicalColumn) string {
	return fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s", c.QualifiedName(table), col.Definition())
}

// AlterColumn renders the statements moving a column from before to after.
// Only the name and nullability may differ; a type change is refused.
func (c *Creator) AlterColumn(table string, before, after PhysicalColumn) ([]string, error) {
	if before.SQLType != after.SQLType {
		return nil, fmt.Errorf("column %s cannot change type from %s to %s", before.Name, before.SQLType, after.SQLType)
	}

	qualified := c.QualifiedName(table)
	var statements []string

	if before.Name != after.Name {
		statements = append(statements, fmt.Sprintf(
			"ALTER TABLE %s RENAME COLUMN %s TO %s",
			qualified,
			pq.QuoteIdentifier(before.Name),
			pq.QuoteIdentifier(after.Name),
		))
	}

	if before.Nullable != after.Nullable {
		action := "DROP NOT NULL"
		if !after.Nullable {
			action = "SET NOT NULL"
		}
		statements = append(statements, fmt.Sprintf(
			"ALTER TABLE %s ALTER COLUMN %s %s",
			qualified,
			pq.QuoteIdentifier(after.Name),
			action,
		))
	}

	return statements, nil
}

func (c *Creator) DropColumn(table, column string) string {
	return fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s", c.QualifiedName(table), pq.QuoteIdentifier(column))
}

func (c *Creator) DropTable(table string) string {
	return fmt.Sprintf("DROP TABLE %s", c.QualifiedName(table))
}
