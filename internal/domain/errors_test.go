package domain_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kadirbelkuyu/dyntables/internal/domain"
)

func TestErrorKindsMatchWithErrorsIs(t *testing.T) {
	cases := []struct {
		err  error
		kind error
	}{
		{domain.Validation("bad"), domain.ErrValidation},
		{domain.InvalidName("name", "bad"), domain.ErrInvalidName},
		{domain.NotFound("table %d does not exist.", 3), domain.ErrNotFound},
		{domain.InvalidChoice("type", "date"), domain.ErrValidation},
		{domain.SchemaSync(errors.New("boom"), "failed"), domain.ErrSchemaSync},
	}

	for _, tc := range cases {
		assert.ErrorIs(t, tc.err, tc.kind)
		wrapped := fmt.Errorf("outer: %w", tc.err)
		assert.ErrorIs(t, wrapped, tc.kind)
	}

	assert.NotErrorIs(t, domain.Validation("bad"), domain.ErrNotFound)
}

func TestSchemaSyncUnwrapsCause(t *testing.T) {
	cause := errors.New("relation does not exist")
	err := domain.SchemaSync(cause, "failed to apply schema change: %v", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "failed to apply schema change: relation does not exist", err.Error())
}

func TestInvalidChoiceMessage(t *testing.T) {
	err := domain.InvalidChoice("action", "rename")

	assert.Equal(t, "action", err.Field)
	assert.Equal(t, `"rename" is not a valid choice.`, err.Message)
	assert.Equal(t, map[string]string{"action": `"rename" is not a valid choice.`}, err.Fields)
}

func TestFieldErrorsCollectsEveryField(t *testing.T) {
	var errs domain.FieldErrors
	require.True(t, errs.Empty())
	require.NoError(t, errs.Err())

	errs.Add(domain.ErrValidation, "title", "This field is required.")
	errs.Add(domain.ErrTypeMismatch, "price", "A valid number is required.")
	errs.Add(domain.ErrValidation, "title", "ignored")

	err := errs.Err()
	require.Error(t, err)

	var domainErr *domain.Error
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "title", domainErr.Field)
	assert.Equal(t, "This field is required.", domainErr.Message)
	assert.Len(t, domainErr.Fields, 2)
	assert.ErrorIs(t, err, domain.ErrTypeMismatch, "a type mismatch decides the kind")
	assert.Equal(t, "price: A valid number is required.; title: This field is required.", err.Error())
}
