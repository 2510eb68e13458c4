package domain_test

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kadirbelkuyu/dyntables/internal/domain"
)

func TestRowMarshalKeepsColumnOrder(t *testing.T) {
	row := domain.Row{
		ID:      7,
		Columns: []string{"title", "price", "sold", "note"},
		Values: map[string]domain.Value{
			"title": domain.StringValue("lamp"),
			"price": domain.NumberValue(12.5),
			"sold":  domain.BoolValue(false),
		},
	}

	data, err := json.Marshal(row)
	require.NoError(t, err)
	assert.Equal(t, `{"id":7,"title":"lamp","price":12.5,"sold":false,"note":null}`, string(data))
}

func TestValueMarshalNull(t *testing.T) {
	data, err := json.Marshal(map[string]domain.Value{"note": domain.Null(), "title": domain.StringValue("")})
	require.NoError(t, err)
	assert.Equal(t, `{"note":null,"title":""}`, string(data))
}

func TestValueString(t *testing.T) {
	assert.Equal(t, "NULL", domain.Null().String())
	assert.Equal(t, "3", domain.NumberValue(3).String())
	assert.Equal(t, "true", domain.BoolValue(true).String())
	assert.Equal(t, "x", domain.StringValue("x").String())
	assert.True(t, domain.Null().IsNull())
	assert.Nil(t, domain.Null().Interface())
}

func TestParseFieldType(t *testing.T) {
	for _, raw := range []string{"string", "number", "boolean"} {
		ft, err := domain.ParseFieldType(raw)
		require.NoError(t, err)
		assert.True(t, ft.Valid())
	}

	_, err := domain.ParseFieldType("String")
	require.ErrorIs(t, err, domain.ErrValidation)
	assert.Contains(t, err.Error(), `"String" is not a valid choice.`)

	assert.Equal(t, "Boolean", domain.FieldBoolean.Label())
}

func TestCheckTableName(t *testing.T) {
	assert.Nil(t, domain.CheckTableName("Products"))

	cases := map[string]string{
		"":                     "This field may not be blank.",
		"orders2":              "Only letters are allowed.",
		"my_table":             "Only letters are allowed.",
		strings.Repeat("a", 33): "Ensure this field has no more than 32 characters.",
	}
	for name, msg := range cases {
		err := domain.CheckTableName(name)
		require.NotNil(t, err, name)
		assert.ErrorIs(t, err, domain.ErrInvalidName)
		assert.Equal(t, "name", err.Field)
		assert.Equal(t, msg, err.Message)
	}
}

func TestCheckColumnName(t *testing.T) {
	for _, name := range []string{"title", "unit_price", "a1"} {
		assert.Nil(t, domain.CheckColumnName(name), name)
	}

	for _, name := range []string{"", "1st", "_hidden", "with space", "id", "ID"} {
		err := domain.CheckColumnName(name)
		require.NotNil(t, err, name)
		assert.ErrorIs(t, err, domain.ErrInvalidName)
	}

	assert.Equal(t, `Field name "id" is reserved.`, domain.CheckColumnName("id").Message)
}
