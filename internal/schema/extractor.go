package schema

import (
	"context"
	"fmt"

	"github.com/kadirbelkuyu/dyntables/internal/database"
	"github.com/kadirbelkuyu/dyntables/pkg/logger"
)

// Extractor reads the physical shape of dynamic tables from information_schema.
type Extractor struct {
	logger *logger.Logger
}

func NewExtractor(logger *logger.Logger) *Extractor {
	return &Extractor{logger: logger}
}

// ExtractTable returns the columns of schemaName.tableName ordered by position.
// A table that does not exist is returned with Exists false.
func (e *Extractor) ExtractTable(ctx context.Context, q database.Querier, schemaName, tableName string) (*Table, error) {
	e.logger.Debugf("Extracting physical columns of %s.%s", schemaName, tableName)

	const query = `
		SELECT
			column_name,
			data_type,
			is_nullable,
			ordinal_position
		FROM information_schema.columns
		WHERE table_schema = $1 AND table_name = $2
		ORDER BY ordinal_position
	`

	rows, err := q.QueryContext(ctx, query, schemaName, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to query column metadata: %w", err)
	}
	defer rows.Close()

	table := &Table{Name: tableName, Schema: schemaName}
	for rows.Next() {
		var col Column
		var isNullable string

		if err := rows.Scan(&col.Name, &col.DataType, &isNullable, &col.Position); err != nil {
			return nil, fmt.Errorf("failed to read column metadata: %w", err)
		}

		col.IsNullable = isNullable == "YES"
		table.Columns = append(table.Columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read column metadata: %w", err)
	}

	table.Exists = len(table.Columns) > 0
	return table, nil
}
