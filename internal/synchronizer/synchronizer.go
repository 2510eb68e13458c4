package synchronizer

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/kadirbelkuyu/dyntables/internal/catalog"
	"github.com/kadirbelkuyu/dyntables/internal/database"
	"github.com/kadirbelkuyu/dyntables/internal/domain"
	"github.com/kadirbelkuyu/dyntables/internal/schema"
	"github.com/kadirbelkuyu/dyntables/pkg/logger"
)

const (
	OpCreateTable = "create_table"
	OpDropTable   = "drop_table"
)

// Change describes one applied catalog mutation and the DDL issued for it.
type Change struct {
	Op         string
	Table      domain.TableDef
	Column     string
	Statements []string
}

// Synchronizer applies catalog mutations together with the matching DDL.
// Both run on the caller's transaction, so they commit or roll back as one.
// Postgres executes DDL transactionally, which is what makes this sound.
type Synchronizer struct {
	catalog *catalog.Store
	creator *schema.Creator
	logger  *logger.Logger
}

func New(store *catalog.Store, creator *schema.Creator, logger *logger.Logger) *Synchronizer {
	return &Synchronizer{
		catalog: store,
		creator: creator,
		logger:  logger,
	}
}

// CreateTable records a table with its columns and creates the physical table.
func (s *Synchronizer) CreateTable(ctx context.Context, tx *sql.Tx, name string, specs []domain.ColumnSpec) (*Change, error) {
	table, err := s.catalog.CreateTable(ctx, tx, name, specs)
	if err != nil {
		return nil, err
	}

	stmt := s.creator.CreateTable(table.Name, schema.ColumnsFor(table.Columns))
	if err := s.exec(ctx, tx, stmt); err != nil {
		return nil, err
	}

	s.logger.Infof("Table %s created with %d fields", table.Name, len(table.Columns))
	return &Change{Op: OpCreateTable, Table: *table, Statements: []string{stmt}}, nil
}

// Apply executes a validated mutation against table. table must have been
// loaded inside tx with an update lock.
func (s *Synchronizer) Apply(ctx context.Context, tx *sql.Tx, table *domain.TableDef, m domain.Mutation) (*Change, error) {
	var (
		change *Change
		err    error
	)

	switch m.Op {
	case domain.OpAddColumn:
		change, err = s.addColumn(ctx, tx, table, m.Spec)
	case domain.OpUpdateColumn:
		change, err = s.updateColumn(ctx, tx, table, m)
	case domain.OpDeleteColumn:
		change, err = s.deleteColumn(ctx, tx, table, m.Target)
	default:
		return nil, fmt.Errorf("unsupported mutation: %s", m.Op)
	}
	if err != nil {
		return nil, err
	}

	change.Op = m.Op.String()
	s.logger.Infof("Table %s: %s %s applied", table.Name, change.Op, change.Column)
	return change, nil
}

func (s *Synchronizer) addColumn(ctx context.Context, tx *sql.Tx, table *domain.TableDef, spec domain.ColumnSpec) (*Change, error) {
	col, err := s.catalog.AddColumn(ctx, tx, table.ID, spec)
	if err != nil {
		return nil, err
	}

	stmt := s.creator.AddColumn(table.Name, schema.ColumnFor(col))
	if err := s.exec(ctx, tx, stmt); err != nil {
		return nil, err
	}

	updated := cloneTable(table)
	updated.Columns = append(updated.Columns, col)
	return &Change{Table: updated, Column: col.Name, Statements: []string{stmt}}, nil
}

// updateColumn renames and/or relaxes nullability. The physical "before" name
// comes from the pre-update ColumnDef, the "after" state from the mutated one.
func (s *Synchronizer) updateColumn(ctx context.Context, tx *sql.Tx, table *domain.TableDef, m domain.Mutation) (*Change, error) {
	before := m.Target
	after := before

	if m.Renames() {
		if err := s.catalog.RenameColumn(ctx, tx, before.ID, m.NewName); err != nil {
			return nil, err
		}
		after.Name = m.NewName
	}

	if m.Nullable != before.Nullable {
		if !m.Nullable {
			return nil, errors.New("refusing to forbid nulls on an existing column")
		}
		if err := s.catalog.SetColumnNullability(ctx, tx, before.ID, m.Nullable); err != nil {
			return nil, err
		}
		after.Nullable = m.Nullable
	}

	statements, err := s.creator.AlterColumn(table.Name, schema.ColumnFor(before), schema.ColumnFor(after))
	if err != nil {
		return nil, err
	}
	if len(statements) > 0 {
		if err := s.exec(ctx, tx, strings.Join(statements, ";\n")); err != nil {
			return nil, err
		}
	}

	updated := cloneTable(table)
	for i := range updated.Columns {
		if updated.Columns[i].ID == after.ID {
			updated.Columns[i] = after
		}
	}
	return &Change{Table: updated, Column: after.Name, Statements: statements}, nil
}

func (s *Synchronizer) deleteColumn(ctx context.Context, tx *sql.Tx, table *domain.TableDef, col domain.ColumnDef) (*Change, error) {
	if err := s.catalog.DeleteColumn(ctx, tx, col.ID); err != nil {
		return nil, err
	}

	stmt := s.creator.DropColumn(table.Name, col.Name)
	if err := s.exec(ctx, tx, stmt); err != nil {
		return nil, err
	}

	updated := cloneTable(table)
	updated.Columns = updated.Columns[:0]
	for _, c := range table.Columns {
		if c.ID != col.ID {
			updated.Columns = append(updated.Columns, c)
		}
	}
	return &Change{Table: updated, Column: col.Name, Statements: []string{stmt}}, nil
}

// DropTable removes a table, its ColumnDefs and its physical table. No
// operation exposes it; it completes the catalog life cycle.
func (s *Synchronizer) DropTable(ctx context.Context, tx *sql.Tx, table *domain.TableDef) (*Change, error) {
	if err := s.catalog.DeleteTable(ctx, tx, table.ID); err != nil {
		return nil, err
	}

	stmt := s.creator.DropTable(table.Name)
	if err := s.exec(ctx, tx, stmt); err != nil {
		return nil, err
	}

	s.logger.Infof("Table %s dropped", table.Name)
	return &Change{Op: OpDropTable, Table: cloneTable(table), Statements: []string{stmt}}, nil
}

func (s *Synchronizer) exec(ctx context.Context, tx *sql.Tx, stmt string) error {
	s.logger.Debugf("Executing DDL: %s", stmt)

	if _, err := tx.ExecContext(ctx, stmt); err != nil {
		if database.IsUndefinedObject(err) {
			return domain.SchemaSync(err, "physical table does not match the catalog: %v", err)
		}
		return domain.SchemaSync(err, "failed to apply schema change: %v", err)
	}
	return nil
}

func cloneTable(table *domain.TableDef) domain.TableDef {
	out := domain.TableDef{ID: table.ID, Name: table.Name}
	out.Columns = append([]domain.ColumnDef(nil), table.Columns...)
	return out
}
