package validation_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kadirbelkuyu/dyntables/internal/domain"
	"github.com/kadirbelkuyu/dyntables/internal/validation"
)

func TestCreateTableAppliesDefaults(t *testing.T) {
	specs, err := validation.CreateTable(domain.CreateTableRequest{
		Name: "Products",
		Columns: []domain.ColumnRequest{
			{Name: "title", Type: "string", Blankable: ptr(false)},
			{Name: "price", Type: "number", Nullable: ptr(false)},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, []domain.ColumnSpec{
		{Name: "title", Type: domain.FieldString, Nullable: true, Blankable: false},
		{Name: "price", Type: domain.FieldNumber, Nullable: false, Blankable: true},
	}, specs)
}

func TestCreateTableWithoutColumns(t *testing.T) {
	specs, err := validation.CreateTable(domain.CreateTableRequest{Name: "Empty"})
	require.NoError(t, err)
	assert.Empty(t, specs)
}

func TestCreateTableRejections(t *testing.T) {
	cases := []struct {
		name  string
		req   domain.CreateTableRequest
		kind  error
		field string
		msg   string
	}{
		{
			name:  "table name with digits",
			req:   domain.CreateTableRequest{Name: "Products2"},
			kind:  domain.ErrInvalidName,
			field: "name",
			msg:   "Only letters are allowed.",
		},
		{
			name:  "bad column name",
			req:   domain.CreateTableRequest{Name: "Products", Columns: []domain.ColumnRequest{{Name: "9lives", Type: "string"}}},
			kind:  domain.ErrInvalidName,
			field: "fields",
		},
		{
			name:  "unknown type",
			req:   domain.CreateTableRequest{Name: "Products", Columns: []domain.ColumnRequest{{Name: "when", Type: "date"}}},
			kind:  domain.ErrValidation,
			field: "type",
			msg:   `"date" is not a valid choice.`,
		},
		{
			name: "duplicate names",
			req: domain.CreateTableRequest{Name: "Products", Columns: []domain.ColumnRequest{
				{Name: "title", Type: "string"},
				{Name: "title", Type: "number"},
			}},
			kind:  domain.ErrInvalidName,
			field: "fields",
			msg:   validation.MsgFieldNamesUnique,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := validation.CreateTable(tc.req)
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.kind)

			var domainErr *domain.Error
			require.ErrorAs(t, err, &domainErr)
			assert.Equal(t, tc.field, domainErr.Field)
			if tc.msg != "" {
				assert.Equal(t, tc.msg, domainErr.Message)
			}
		})
	}
}
