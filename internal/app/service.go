package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"iter"
	"strconv"
	"strings"

	"github.com/kadirbelkuyu/dyntables/internal/catalog"
	"github.com/kadirbelkuyu/dyntables/internal/database"
	"github.com/kadirbelkuyu/dyntables/internal/domain"
	"github.com/kadirbelkuyu/dyntables/internal/journal"
	"github.com/kadirbelkuyu/dyntables/internal/rows"
	"github.com/kadirbelkuyu/dyntables/internal/schema"
	"github.com/kadirbelkuyu/dyntables/internal/synchronizer"
	"github.com/kadirbelkuyu/dyntables/internal/validation"
	"github.com/kadirbelkuyu/dyntables/pkg/logger"
)

const msgIndeterminate = "schema change could not be committed; state is indeterminate, re-query before retrying"

type Options struct {
	// Schema is the Postgres schema holding the dynamic tables.
	Schema  string
	Logger  *logger.Logger
	Journal *journal.Journal
}

// Service is the operation surface of the engine. Every call reads the
// current catalog state; no table shape is cached between calls.
type Service struct {
	db        *sql.DB
	catalog   *catalog.Store
	creator   *schema.Creator
	extractor *schema.Extractor
	sync      *synchronizer.Synchronizer
	rows      *rows.Service
	journal   *journal.Journal
	logger    *logger.Logger
}

func NewService(db *sql.DB, opts Options) *Service {
	log := opts.Logger
	if log == nil {
		log = logger.Discard()
	}

	store := catalog.NewStore(log)
	creator := schema.NewCreator(opts.Schema)

	return &Service{
		db:        db,
		catalog:   store,
		creator:   creator,
		extractor: schema.NewExtractor(log),
		sync:      synchronizer.New(store, creator, log),
		rows:      rows.NewService(creator, log),
		journal:   opts.Journal,
		logger:    log,
	}
}

// Bootstrap creates the catalog tables.
func (s *Service) Bootstrap(ctx context.Context) error {
	return database.WithTx(ctx, s.db, nil, func(tx *sql.Tx) error {
		return s.catalog.Migrate(ctx, tx)
	})
}

func (s *Service) CreateTable(ctx context.Context, req domain.CreateTableRequest) (*domain.TableDef, error) {
	specs, err := validation.CreateTable(req)
	if err != nil {
		return nil, err
	}

	var change *synchronizer.Change
	err = s.mutate(ctx, func(tx *sql.Tx) error {
		var err error
		change, err = s.sync.CreateTable(ctx, tx, req.Name, specs)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.record(ctx, change)
	return &change.Table, nil
}

// AlterSchema validates and applies one column alteration. Validation runs
// inside the mutating transaction after the table record is locked, so
// concurrent alterations of the same table cannot both pass the checks.
func (s *Service) AlterSchema(ctx context.Context, tableID int64, req domain.AlterRequest) (*domain.TableDef, error) {
	var change *synchronizer.Change
	err := s.mutate(ctx, func(tx *sql.Tx) error {
		table, err := s.catalog.LockTable(ctx, tx, tableID, catalog.UpdateLock)
		if err != nil {
			return err
		}

		mutation, err := validation.Alteration(table, req)
		if err != nil {
			return err
		}

		change, err = s.sync.Apply(ctx, tx, table, mutation)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.record(ctx, change)
	return &change.Table, nil
}

func (s *Service) InsertRow(ctx context.Context, tableID int64, values map[string]any) (domain.Row, error) {
	var row domain.Row
	err := database.WithTx(ctx, s.db, nil, func(tx *sql.Tx) error {
		table, err := s.catalog.LockTable(ctx, tx, tableID, catalog.ShareLock)
		if err != nil {
			return err
		}

		row, err = s.rows.Insert(ctx, tx, table, values)
		return err
	})
	if err != nil {
		return domain.Row{}, err
	}
	return row, nil
}

// ListRows checks that the table exists and returns its rows as a lazy
// sequence. Each iteration re-reads the table definition and re-runs the
// query, so the sequence can be ranged over again.
//
// A pass holds a share lock on the table's catalog record until the loop
// finishes or breaks. Schema changes to the same table block until then, so
// calling AlterSchema for it from inside the loop waits until ctx is done.
func (s *Service) ListRows(ctx context.Context, tableID int64) (iter.Seq2[domain.Row, error], error) {
	if _, err := s.catalog.GetTable(ctx, s.db, tableID); err != nil {
		return nil, err
	}

	return func(yield func(domain.Row, error) bool) {
		stopped := false
		err := database.WithTx(ctx, s.db, nil, func(tx *sql.Tx) error {
			table, err := s.catalog.LockTable(ctx, tx, tableID, catalog.ShareLock)
			if err != nil {
				return err
			}
			return s.rows.Scan(ctx, tx, table, func(row domain.Row) bool {
				if !yield(row, nil) {
					stopped = true
					return false
				}
				return true
			})
		})
		if err != nil && !stopped {
			yield(domain.Row{}, err)
		}
	}, nil
}

func (s *Service) GetTable(ctx context.Context, tableID int64) (*domain.TableDef, error) {
	return s.catalog.GetTable(ctx, s.db, tableID)
}

// ResolveTable accepts a numeric id or a table name.
func (s *Service) ResolveTable(ctx context.Context, ref string) (*domain.TableDef, error) {
	ref = strings.TrimSpace(ref)
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		return s.catalog.GetTable(ctx, s.db, id)
	}
	return s.catalog.GetTableByName(ctx, s.db, ref)
}

func (s *Service) ListTables(ctx context.Context) ([]domain.TableDef, error) {
	return s.catalog.ListTables(ctx, s.db)
}

// mutate runs a schema mutation in one transaction and classifies a failed
// commit as an indeterminate schema sync failure.
func (s *Service) mutate(ctx context.Context, fn func(tx *sql.Tx) error) error {
	err := database.WithTx(ctx, s.db, nil, fn)
	if err == nil {
		return nil
	}

	if errors.Is(err, database.ErrCommit) {
		s.logger.Errorf("Schema change commit failed: %v", err)
		return domain.SchemaSync(err, msgIndeterminate)
	}
	if errors.Is(err, domain.ErrSchemaSync) {
		s.logger.Errorf("Schema change rolled back: %v", err)
	}
	return err
}

func (s *Service) record(ctx context.Context, change *synchronizer.Change) {
	if s.journal == nil || change == nil {
		return
	}
	s.journal.Record(ctx, journal.NewEvent(
		change.Op,
		change.Table.ID,
		change.Table.Name,
		change.Column,
		change.Statements,
	))
}

// Report lists the differences between a table's catalog definition and its
// physical table.
type Report struct {
	Table           domain.TableDef
	PhysicalMissing bool
	Missing         []string
	Orphans         []string
	Mismatched      []string
}

func (r *Report) Consistent() bool {
	return !r.PhysicalMissing && len(r.Missing) == 0 && len(r.Orphans) == 0 && len(r.Mismatched) == 0
}

// Verify compares a table's ColumnDefs with the physical columns.
func (s *Service) Verify(ctx context.Context, tableID int64) (*Report, error) {
	report := &Report{}
	err := database.WithTx(ctx, s.db, nil, func(tx *sql.Tx) error {
		table, err := s.catalog.LockTable(ctx, tx, tableID, catalog.ShareLock)
		if err != nil {
			return err
		}
		report.Table = *table

		physical, err := s.extractor.ExtractTable(ctx, tx, s.creator.Schema(), table.Name)
		if err != nil {
			return err
		}
		compare(report, table, physical)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}

func compare(report *Report, table *domain.TableDef, physical *schema.Table) {
	if !physical.Exists {
		report.PhysicalMissing = true
		return
	}

	for _, def := range table.Columns {
		want := schema.ColumnFor(def)
		got, ok := physical.Column(def.Name)
		if !ok {
			report.Missing = append(report.Missing, def.Name)
			continue
		}
		if got.DataType != want.SQLType || got.IsNullable != want.Nullable {
			report.Mismatched = append(report.Mismatched, fmt.Sprintf(
				"%s: expected %s (nullable=%t), found %s (nullable=%t)",
				def.Name, want.SQLType, want.Nullable, got.DataType, got.IsNullable,
			))
		}
	}

	for _, col := range physical.Columns {
		if col.Name == schema.IdentityColumn {
			continue
		}
		if _, ok := table.ColumnByName(col.Name); !ok {
			report.Orphans = append(report.Orphans, col.Name)
		}
	}
}
