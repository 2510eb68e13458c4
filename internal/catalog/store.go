package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/kadirbelkuyu/dyntables/internal/database"
	"github.com/kadirbelkuyu/dyntables/internal/domain"
	"github.com/kadirbelkuyu/dyntables/pkg/logger"
)

const (
	TablesTable  = "dyn_catalog_tables"
	ColumnsTable = "dyn_catalog_columns"
)

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS ` + TablesTable + ` (
		id BIGSERIAL PRIMARY KEY,
		name VARCHAR(32) NOT NULL,
		CONSTRAINT ` + TablesTable + `_name_key UNIQUE (name)
	)`,
	`CREATE TABLE IF NOT EXISTS ` + ColumnsTable + ` (
		id BIGSERIAL PRIMARY KEY,
		table_id BIGINT NOT NULL REFERENCES ` + TablesTable + ` (id) ON DELETE CASCADE,
		name VARCHAR(32) NOT NULL,
		type VARCHAR(16) NOT NULL,
		nullable BOOLEAN NOT NULL DEFAULT TRUE,
		blankable BOOLEAN NOT NULL DEFAULT TRUE,
		CONSTRAINT ` + ColumnsTable + `_table_name_key UNIQUE (table_id, name)
	)`,
}

// LockMode selects the row lock taken on a catalog table record.
type LockMode int

const (
	NoLock LockMode = iota
	// ShareLock blocks schema mutations of the table, not other readers.
	ShareLock
	// UpdateLock serializes schema mutations of the table.
	UpdateLock
)

func (m LockMode) clause() string {
	switch m {
	case ShareLock:
		return " FOR SHARE"
	case UpdateLock:
		return " FOR UPDATE"
	default:
		return ""
	}
}

const (
	msgTableExists  = "table with this name already exists."
	msgColumnExists = "Field with this name already exists in this model."
)

// Store persists TableDef and ColumnDef records. Every method takes the
// Querier to run on so catalog writes can share a transaction with DDL.
type Store struct {
	logger *logger.Logger
}

func NewStore(logger *logger.Logger) *Store {
	return &Store{logger: logger}
}

// Migrate creates the catalog tables when missing.
func (s *Store) Migrate(ctx context.Context, q database.Querier) error {
	for _, stmt := range migrations {
		if _, err := q.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create catalog tables: %w", err)
		}
	}
	s.logger.Debug("Catalog tables are ready")
	return nil
}

// CreateTable inserts a TableDef and its initial ColumnDefs.
func (s *Store) CreateTable(ctx context.Context, q database.Querier, name string, columns []domain.ColumnSpec) (*domain.TableDef, error) {
	if e := domain.CheckTableName(name); e != nil {
		return nil, e
	}

	var exists bool
	err := q.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM `+TablesTable+` WHERE name = $1)`, name).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("failed to check table name: %w", err)
	}
	if exists {
		return nil, domain.InvalidName("name", msgTableExists)
	}

	table := &domain.TableDef{Name: name}
	err = q.QueryRowContext(ctx, `INSERT INTO `+TablesTable+` (name) VALUES ($1) RETURNING id`, name).Scan(&table.ID)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, domain.InvalidName("name", msgTableExists)
		}
		return nil, fmt.Errorf("failed to insert table %s: %w", name, err)
	}

	for _, spec := range columns {
		col, err := s.AddColumn(ctx, q, table.ID, spec)
		if err != nil {
			return nil, err
		}
		table.Columns = append(table.Columns, col)
	}

	return table, nil
}

// GetTable returns the table with its columns.
func (s *Store) GetTable(ctx context.Context, q database.Querier, id int64) (*domain.TableDef, error) {
	return s.LockTable(ctx, q, id, NoLock)
}

// LockTable loads a table and takes the requested row lock on its record.
// Locks other than NoLock need q to be a transaction.
func (s *Store) LockTable(ctx context.Context, q database.Querier, id int64, mode LockMode) (*domain.TableDef, error) {
	table := &domain.TableDef{}
	err := q.QueryRowContext(ctx, `SELECT id, name FROM `+TablesTable+` WHERE id = $1`+mode.clause(), id).
		Scan(&table.ID, &table.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFound("table %d does not exist.", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load table %d: %w", id, err)
	}

	columns, err := s.Columns(ctx, q, table.ID)
	if err != nil {
		return nil, err
	}
	table.Columns = columns

	return table, nil
}

// GetTableByName returns the table with the given name.
func (s *Store) GetTableByName(ctx context.Context, q database.Querier, name string) (*domain.TableDef, error) {
	table := &domain.TableDef{}
	err := q.QueryRowContext(ctx, `SELECT id, name FROM `+TablesTable+` WHERE name = $1`, name).
		Scan(&table.ID, &table.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFound("table %q does not exist.", name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load table %s: %w", name, err)
	}

	columns, err := s.Columns(ctx, q, table.ID)
	if err != nil {
		return nil, err
	}
	table.Columns = columns

	return table, nil
}

// ListTables returns every table with its columns, ordered by id.
func (s *Store) ListTables(ctx context.Context, q database.Querier) ([]domain.TableDef, error) {
	rows, err := q.QueryContext(ctx, `SELECT id, name FROM `+TablesTable+` ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query tables: %w", err)
	}
	defer rows.Close()

	var tables []domain.TableDef
	index := make(map[int64]int)
	for rows.Next() {
		var table domain.TableDef
		if err := rows.Scan(&table.ID, &table.Name); err != nil {
			return nil, fmt.Errorf("failed to read table: %w", err)
		}
		index[table.ID] = len(tables)
		tables = append(tables, table)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read tables: %w", err)
	}
	rows.Close()

	columns, err := s.queryColumns(ctx, q, `SELECT id, table_id, name, type, nullable, blankable FROM `+ColumnsTable+` ORDER BY table_id, id`)
	if err != nil {
		return nil, err
	}
	for _, col := range columns {
		if i, ok := index[col.TableID]; ok {
			tables[i].Columns = append(tables[i].Columns, col)
		}
	}

	return tables, nil
}

// Columns returns the columns of a table in creation order.
func (s *Store) Columns(ctx context.Context, q database.Querier, tableID int64) ([]domain.ColumnDef, error) {
	return s.queryColumns(ctx, q,
		`SELECT id, table_id, name, type, nullable, blankable FROM `+ColumnsTable+` WHERE table_id = $1 ORDER BY id`,
		tableID,
	)
}

func (s *Store) queryColumns(ctx context.Context, q database.Querier, query string, args ...any) ([]domain.ColumnDef, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query columns: %w", err)
	}
	defer rows.Close()

	var columns []domain.ColumnDef
	for rows.Next() {
		var col domain.ColumnDef
		var fieldType string
		if err := rows.Scan(&col.ID, &col.TableID, &col.Name, &fieldType, &col.Nullable, &col.Blankable); err != nil {
			return nil, fmt.Errorf("failed to read column: %w", err)
		}
		col.Type = domain.FieldType(fieldType)
		columns = append(columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}

	return columns, nil
}

// AddColumn inserts a ColumnDef into a table.
func (s *Store) AddColumn(ctx context.Context, q database.Querier, tableID int64, spec domain.ColumnSpec) (domain.ColumnDef, error) {
	if e := domain.CheckColumnName(spec.Name); e != nil {
		return domain.ColumnDef{}, e
	}
	if !spec.Type.Valid() {
		return domain.ColumnDef{}, domain.InvalidChoice("type", string(spec.Type))
	}

	col := domain.ColumnDef{
		TableID:   tableID,
		Name:      spec.Name,
		Type:      spec.Type,
		Nullable:  spec.Nullable,
		Blankable: spec.Blankable,
	}

	err := q.QueryRowContext(ctx,
		`INSERT INTO `+ColumnsTable+` (table_id, name, type, nullable, blankable) VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		tableID, spec.Name, string(spec.Type), spec.Nullable, spec.Blankable,
	).Scan(&col.ID)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return domain.ColumnDef{}, domain.InvalidName("name", msgColumnExists)
		}
		return domain.ColumnDef{}, fmt.Errorf("failed to insert column %s: %w", spec.Name, err)
	}

	return col, nil
}

func (s *Store) RenameColumn(ctx context.Context, q database.Querier, columnID int64, name string) error {
	if e := domain.CheckColumnName(name); e != nil {
		return e
	}

	result, err := q.ExecContext(ctx, `UPDATE `+ColumnsTable+` SET name = $1 WHERE id = $2`, name, columnID)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return domain.InvalidName("name", msgColumnExists)
		}
		return fmt.Errorf("failed to rename column %d: %w", columnID, err)
	}
	return expectOne(result, columnID)
}

func (s *Store) SetColumnNullability(ctx context.Context, q database.Querier, columnID int64, nullable bool) error {
	result, err := q.ExecContext(ctx, `UPDATE `+ColumnsTable+` SET nullable = $1 WHERE id = $2`, nullable, columnID)
	if err != nil {
		return fmt.Errorf("failed to update column %d: %w", columnID, err)
	}
	return expectOne(result, columnID)
}

func (s *Store) DeleteColumn(ctx context.Context, q database.Querier, columnID int64) error {
	result, err := q.ExecContext(ctx, `DELETE FROM `+ColumnsTable+` WHERE id = $1`, columnID)
	if err != nil {
		return fmt.Errorf("failed to delete column %d: %w", columnID, err)
	}
	return expectOne(result, columnID)
}

// DeleteTable removes a table record; its ColumnDefs go with it.
func (s *Store) DeleteTable(ctx context.Context, q database.Querier, tableID int64) error {
	result, err := q.ExecContext(ctx, `DELETE FROM `+TablesTable+` WHERE id = $1`, tableID)
	if err != nil {
		return fmt.Errorf("failed to delete table %d: %w", tableID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete table %d: %w", tableID, err)
	}
	if affected == 0 {
		return domain.NotFound("table %d does not exist.", tableID)
	}
	return nil
}

func expectOne(result sql.Result, columnID int64) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update column %d: %w", columnID, err)
	}
	if affected == 0 {
		return domain.NotFound("Field with this id does not exists for this model.")
	}
	return nil
}
