package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kadirbelkuyu/dyntables/internal/domain"
)

func TestMapType(t *testing.T) {
	cases := []struct {
		in   domain.FieldType
		want string
	}{
		{domain.FieldString, "text"},
		{domain.FieldNumber, "double precision"},
		{domain.FieldBoolean, "boolean"},
	}
	for _, tc := range cases {
		spec := MapType(tc.in, true, true)
		assert.Equal(t, tc.want, spec.SQLType)
		assert.Equal(t, tc.in, spec.Kind)
	}
}

func TestColumnDefinition(t *testing.T) {
	cases := map[string]domain.ColumnDef{
		`"title" text`:                               {Name: "title", Type: domain.FieldString, Nullable: true, Blankable: true},
		`"title" text NOT NULL CHECK ("title" <> '')`: {Name: "title", Type: domain.FieldString},
		`"price" double precision NOT NULL`:          {Name: "price", Type: domain.FieldNumber},
		`"sold" boolean`:                             {Name: "sold", Type: domain.FieldBoolean, Nullable: true},
	}
	for expected, def := range cases {
		assert.Equal(t, expected, ColumnFor(def).Definition())
	}
}

func TestCreatorStatements(t *testing.T) {
	creator := NewCreator("")
	assert.Equal(t, "public", creator.Schema())
	assert.Equal(t, `"public"."Products"`, creator.QualifiedName("Products"))

	cols := ColumnsFor([]domain.ColumnDef{
		{Name: "title", Type: domain.FieldString, Nullable: true, Blankable: true},
		{Name: "price", Type: domain.FieldNumber, Nullable: true},
	})

	assert.Equal(t,
		`CREATE TABLE "public"."Products" ("id" bigserial PRIMARY KEY, "title" text, "price" double precision)`,
		creator.CreateTable("Products", cols),
	)
	assert.Equal(t,
		`CREATE TABLE "public"."Empty" ("id" bigserial PRIMARY KEY)`,
		creator.CreateTable("Empty", nil),
	)
	assert.Equal(t,
		`ALTER TABLE "public"."Products" ADD COLUMN "title" text`,
		creator.AddColumn("Products", cols[0]),
	)
	assert.Equal(t,
		`ALTER TABLE "public"."Products" DROP COLUMN "price"`,
		creator.DropColumn("Products", "price"),
	)
	assert.Equal(t, `DROP TABLE "public"."Products"`, creator.DropTable("Products"))
}

func TestAlterColumn(t *testing.T) {
	creator := NewCreator("dynamic")
	before := ColumnFor(domain.ColumnDef{Name: "title", Type: domain.FieldString, Blankable: true})

	after := before
	after.Name = "name"
	after.Nullable = true

	statements, err := creator.AlterColumn("Products", before, after)
	require.NoError(t, err)
	assert.Equal(t, []string{
		`ALTER TABLE "dynamic"."Products" RENAME COLUMN "title" TO "name"`,
		`ALTER TABLE "dynamic"."Products" ALTER COLUMN "name" DROP NOT NULL`,
	}, statements)

	statements, err = creator.AlterColumn("Products", before, before)
	require.NoError(t, err)
	assert.Empty(t, statements)

	changed := ColumnFor(domain.ColumnDef{Name: "title", Type: domain.FieldNumber})
	_, err = creator.AlterColumn("Products", before, changed)
	assert.Error(t, err)
}
