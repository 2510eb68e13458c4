package app_test

import (
	"context"
	"regexp"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kadirbelkuyu/dyntables/internal/app"
	"github.com/kadirbelkuyu/dyntables/internal/definitions"
	"github.com/kadirbelkuyu/dyntables/internal/domain"
	"github.com/kadirbelkuyu/dyntables/pkg/progress"
)

func TestReadRecords(t *testing.T) {
	records, err := app.ReadRecords(strings.NewReader(`
- title: lamp
  price: 3
- title: desk
  price: 80.5
`))
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "desk", records[1]["title"])

	records, err = app.ReadRecords(strings.NewReader(`[{"title": "chair"}]`))
	require.NoError(t, err)
	require.Len(t, records, 1)

	records, err = app.ReadRecords(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, records)

	_, err = app.ReadRecords(strings.NewReader("title: not a list"))
	assert.Error(t, err)
}

func TestImportRowsSkipsInvalidRecords(t *testing.T) {
	svc, mock, _ := newService(t)

	mock.ExpectBegin()
	expectTable(mock, " FOR SHARE")
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "public"."Products"`)).
		WithArgs("lamp", 3.0).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "price"}).AddRow(int64(1), "lamp", 3.0))
	mock.ExpectCommit()

	mock.ExpectBegin()
	expectTable(mock, " FOR SHARE")
	mock.ExpectRollback()

	records := []map[string]any{
		{"title": "lamp", "price": 3},
		{"title": "desk", "price": "expensive"},
	}

	bar := progress.NewBar(int64(len(records)), "import", nil)
	result, err := svc.ImportRows(context.Background(), 1, records, bar)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Inserted)
	require.Len(t, result.Failed, 1)
	assert.Equal(t, 1, result.Failed[0].Index)
	assert.ErrorIs(t, result.Failed[0].Err, domain.ErrTypeMismatch)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestImportRowsStopsOnUnknownTable(t *testing.T) {
	svc, mock, _ := newService(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM dyn_catalog_tables WHERE id = $1 FOR SHARE")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}))
	mock.ExpectRollback()

	result, err := svc.ImportRows(context.Background(), 1, []map[string]any{{"title": "lamp"}, {"title": "desk"}}, nil)
	require.ErrorIs(t, err, domain.ErrNotFound)
	assert.Zero(t, result.Inserted)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExportDefinition(t *testing.T) {
	svc, mock, _ := newService(t)
	expectTable(mock, "")

	manager := definitions.NewManager(t.TempDir())
	entry, err := svc.ExportDefinition(context.Background(), 1, manager, "")
	require.NoError(t, err)

	assert.Equal(t, "Products", entry.Name)
	assert.Equal(t, 2, entry.Fields)

	def, err := manager.Load("Products")
	require.NoError(t, err)
	require.Len(t, def.Columns, 2)
	assert.Equal(t, "number", def.Columns[1].Type)
	require.NotNil(t, def.Columns[1].Nullable)
	assert.False(t, *def.Columns[1].Nullable)
	require.NoError(t, mock.ExpectationsWereMet())
}
