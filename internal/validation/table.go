package validation

import (
	"github.com/kadirbelkuyu/dyntables/internal/domain"
)

// CreateTable checks a create-table request and returns its columns with
// defaults applied. Global name uniqueness is checked by the catalog inside
// the creating transaction.
func CreateTable(req domain.CreateTableRequest) ([]domain.ColumnSpec, error) {
	if e := domain.CheckTableName(req.Name); e != nil {
		return nil, e
	}

	specs := make([]domain.ColumnSpec, 0, len(req.Columns))
	for _, col := range req.Columns {
		if e := domain.CheckColumnName(col.Name); e != nil {
			e.Field = "fields"
			e.Fields = map[string]string{"fields": e.Message}
			return nil, e
		}

		fieldType, err := domain.ParseFieldType(col.Type)
		if err != nil {
			return nil, err
		}

		specs = append(specs, domain.ColumnSpec{
			Name:      col.Name,
			Type:      fieldType,
			Nullable:  boolOr(col.Nullable, true),
			Blankable: boolOr(col.Blankable, true),
		})
	}

	seen := make(map[string]struct{}, len(specs))
	for _, spec := range specs {
		if _, dup := seen[spec.Name]; dup {
			return nil, domain.InvalidName("fields", MsgFieldNamesUnique)
		}
		seen[spec.Name] = struct{}{}
	}

	return specs, nil
}

func boolOr(v *bool, fallback bool) bool {
	if v == nil {
		return fallback
	}
	return *v
}
