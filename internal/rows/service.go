package rows

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/kadirbelkuyu/dyntables/internal/database"
	"github.com/kadirbelkuyu/dyntables/internal/domain"
	"github.com/kadirbelkuyu/dyntables/internal/schema"
	"github.com/kadirbelkuyu/dyntables/pkg/logger"

	"github.com/lib/pq"
)

// Service reads and writes rows of dynamic tables. The access plan is
// derived from the TableDef handed to each call; nothing is cached.
type Service struct {
	creator *schema.Creator
	logger  *logger.Logger
}

func NewService(creator *schema.Creator, logger *logger.Logger) *Service {
	return &Service{
		creator: creator,
		logger:  logger,
	}
}

// Insert validates input against the table's columns and stores it.
func (s *Service) Insert(ctx context.Context, q database.Querier, table *domain.TableDef, input map[string]any) (domain.Row, error) {
	values, err := Decode(table.Columns, input)
	if err != nil {
		return domain.Row{}, err
	}

	query, args := s.buildInsertQuery(table, values)
	s.logger.Debugf("Inserting row: %s", query)

	targets := newScanTargets(table.Columns)
	if err := q.QueryRowContext(ctx, query, args...).Scan(targets.dest()...); err != nil {
		return domain.Row{}, fmt.Errorf("failed to insert row into %s: %w", table.Name, err)
	}

	return targets.row(), nil
}

// Scan streams every row of table in identity order to yield until yield
// returns false.
func (s *Service) Scan(ctx context.Context, q database.Querier, table *domain.TableDef, yield func(domain.Row) bool) error {
	query := s.buildSelectQuery(table)
	s.logger.Debugf("Listing rows: %s", query)

	rows, err := q.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to query rows of %s: %w", table.Name, err)
	}
	defer rows.Close()

	for rows.Next() {
		targets := newScanTargets(table.Columns)
		if err := rows.Scan(targets.dest()...); err != nil {
			return fmt.Errorf("failed to scan row of %s: %w", table.Name, err)
		}
		if !yield(targets.row()) {
			return nil
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to read rows of %s: %w", table.Name, err)
	}
	return nil
}

func (s *Service) buildInsertQuery(table *domain.TableDef, values map[string]domain.Value) (string, []any) {
	returning := returningList(table.Columns)

	if len(table.Columns) == 0 {
		return fmt.Sprintf("INSERT INTO %s DEFAULT VALUES RETURNING %s", s.creator.QualifiedName(table.Name), returning), nil
	}

	columnNames := make([]string, len(table.Columns))
	placeholders := make([]string, len(table.Columns))
	args := make([]any, len(table.Columns))

	for i, col := range table.Columns {
		columnNames[i] = pq.QuoteIdentifier(col.Name)
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = values[col.Name].Interface()
	}

	return fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s) RETURNING %s",
		s.creator.QualifiedName(table.Name),
		strings.Join(columnNames, ", "),
		strings.Join(placeholders, ", "),
		returning,
	), args
}

func (s *Service) buildSelectQuery(table *domain.TableDef) string {
	return fmt.Sprintf(
		"SELECT %s FROM %s ORDER BY %s",
		returningList(table.Columns),
		s.creator.QualifiedName(table.Name),
		pq.QuoteIdentifier(schema.IdentityColumn),
	)
}

func returningList(columns []domain.ColumnDef) string {
	names := make([]string, 0, len(columns)+1)
	names = append(names, pq.QuoteIdentifier(schema.IdentityColumn))
	for _, col := range columns {
		names = append(names, pq.QuoteIdentifier(col.Name))
	}
	return strings.Join(names, ", ")
}

// scanTargets holds one nullable destination per column, picked from the
// mapped physical type.
type scanTargets struct {
	id      int64
	columns []domain.ColumnDef
	cells   []any
}

func newScanTargets(columns []domain.ColumnDef) *scanTargets {
	t := &scanTargets{columns: columns, cells: make([]any, len(columns))}
	for i, col := range columns {
		switch schema.ColumnFor(col).Kind {
		case domain.FieldNumber:
			t.cells[i] = &sql.NullFloat64{}
		case domain.FieldBoolean:
			t.cells[i] = &sql.NullBool{}
		default:
			t.cells[i] = &sql.NullString{}
		}
	}
	return t
}

func (t *scanTargets) dest() []any {
	return append([]any{&t.id}, t.cells...)
}

func (t *scanTargets) row() domain.Row {
	row := domain.Row{
		ID:      t.id,
		Columns: make([]string, len(t.columns)),
		Values:  make(map[string]domain.Value, len(t.columns)),
	}

	for i, col := range t.columns {
		row.Columns[i] = col.Name

		v := domain.Null()
		switch cell := t.cells[i].(type) {
		case *sql.NullString:
			if cell.Valid {
				v = domain.StringValue(cell.String)
			}
		case *sql.NullFloat64:
			if cell.Valid {
				v = domain.NumberValue(cell.Float64)
			}
		case *sql.NullBool:
			if cell.Valid {
				v = domain.BoolValue(cell.Bool)
			}
		}
		row.Values[col.Name] = v
	}

	return row
}
