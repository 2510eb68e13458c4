package validation

import (
	"github.com/kadirbelkuyu/dyntables/internal/domain"
)

const (
	MsgIDRequired       = "Id is required for update or delete"
	MsgFieldNotFound    = "Field with this id does not exists for this model."
	MsgCreateRequires   = "Name and type is required for create."
	MsgNullRequired     = "While adding or modifying columns, allow_null is required to be True."
	MsgTypeImmutable    = "Type of already existing column cannot be updated."
	MsgFieldNameExists  = "Field with this name already exists in this model."
	MsgFieldNamesUnique = "Field names must be unique."
)

// alteration is the state the rules inspect and fill in while they run.
type alteration struct {
	table     *domain.TableDef
	req       domain.AlterRequest
	action    domain.Action
	fieldType domain.FieldType
	target    domain.ColumnDef
}

type rule func(a *alteration) *domain.Error

// Rules run in order; the first failure is returned.
var alterationRules = []rule{
	checkAction,
	checkTypeChoice,
	checkIDPresent,
	checkTarget,
	checkCreateFields,
	checkNullable,
	checkTypeUnchanged,
	checkNewName,
	checkNameCollision,
}

// Alteration decides whether req is admissible against the current state of
// table and turns it into a Mutation for the synchronizer.
func Alteration(table *domain.TableDef, req domain.AlterRequest) (domain.Mutation, error) {
	a := &alteration{table: table, req: req}

	for _, r := range alterationRules {
		if e := r(a); e != nil {
			return domain.Mutation{}, e
		}
	}

	return a.mutation(), nil
}

func checkAction(a *alteration) *domain.Error {
	switch domain.Action(a.req.Action) {
	case domain.ActionCreate, domain.ActionUpdate, domain.ActionDelete:
		a.action = domain.Action(a.req.Action)
		return nil
	}
	return domain.InvalidChoice("action", a.req.Action)
}

func checkTypeChoice(a *alteration) *domain.Error {
	if a.req.Type == nil {
		return nil
	}
	t, err := domain.ParseFieldType(*a.req.Type)
	if err != nil {
		return err.(*domain.Error)
	}
	a.fieldType = t
	return nil
}

func checkIDPresent(a *alteration) *domain.Error {
	if a.action == domain.ActionCreate {
		return nil
	}
	if a.req.ID == nil {
		return domain.Validation(MsgIDRequired)
	}
	return nil
}

func checkTarget(a *alteration) *domain.Error {
	if a.action == domain.ActionCreate {
		return nil
	}
	col, ok := a.table.Column(*a.req.ID)
	if !ok {
		return domain.NotFound(MsgFieldNotFound)
	}
	a.target = col
	return nil
}

func checkCreateFields(a *alteration) *domain.Error {
	if a.action != domain.ActionCreate {
		return nil
	}
	if a.req.Name == nil || a.req.Type == nil {
		return domain.Validation(MsgCreateRequires)
	}
	return nil
}

// checkNullable refuses columns that would forbid nulls in a table that may
// already hold rows.
func checkNullable(a *alteration) *domain.Error {
	nullable := a.req.Nullable != nil && *a.req.Nullable

	switch a.action {
	case domain.ActionCreate:
		if !nullable {
			return domain.Validation(MsgNullRequired)
		}
	case domain.ActionUpdate:
		introduces := a.req.Name != nil || a.req.Type != nil
		if (introduces || a.req.Nullable != nil) && !nullable {
			return domain.Validation(MsgNullRequired)
		}
	}
	return nil
}

func checkTypeUnchanged(a *alteration) *domain.Error {
	if a.action != domain.ActionUpdate || a.req.Type == nil {
		return nil
	}
	if a.fieldType != a.target.Type {
		return domain.Validation(MsgTypeImmutable)
	}
	return nil
}

func checkNewName(a *alteration) *domain.Error {
	if a.action == domain.ActionDelete || a.req.Name == nil {
		return nil
	}
	return domain.CheckColumnName(*a.req.Name)
}

func checkNameCollision(a *alteration) *domain.Error {
	if a.action == domain.ActionDelete || a.req.Name == nil {
		return nil
	}
	existing, ok := a.table.ColumnByName(*a.req.Name)
	if !ok {
		return nil
	}
	if a.action == domain.ActionUpdate && existing.ID == a.target.ID {
		return nil
	}
	return domain.InvalidName("name", MsgFieldNameExists)
}

func (a *alteration) mutation() domain.Mutation {
	switch a.action {
	case domain.ActionCreate:
		blankable := true
		if a.req.Blankable != nil {
			blankable = *a.req.Blankable
		}
		return domain.Mutation{
			Op: domain.OpAddColumn,
			Spec: domain.ColumnSpec{
				Name:      *a.req.Name,
				Type:      a.fieldType,
				Nullable:  true,
				Blankable: blankable,
			},
		}
	case domain.ActionUpdate:
		m := domain.Mutation{
			Op:       domain.OpUpdateColumn,
			Target:   a.target,
			NewName:  a.target.Name,
			Nullable: a.target.Nullable,
		}
		if a.req.Name != nil {
			m.NewName = *a.req.Name
		}
		if a.req.Nullable != nil {
			m.Nullable = *a.req.Nullable
		}
		return m
	default:
		return domain.Mutation{Op: domain.OpDeleteColumn, Target: a.target}
	}
}
