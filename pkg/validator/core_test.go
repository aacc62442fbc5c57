package validator_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/notifyrelay/pkg/validator"
)

func TestValidationErrors_Error(t *testing.T) {
	t.Parallel()

	var empty validator.ValidationErrors
	assert.Equal(t, "validation failed", empty.Error())

	var errs validator.ValidationErrors
	errs.Add(validator.ValidationError{Field: "to", Message: "field is required"})
	errs.Add(validator.ValidationError{Field: "subject", Message: "field is required"})
	assert.Equal(t, "validation failed: to: field is required; subject: field is required", errs.Error())
}

func TestValidationErrors_Fields(t *testing.T) {
	t.Parallel()

	errs := validator.ValidationErrors{
		{Field: "to", Message: "a"},
		{Field: "data", Message: "b"},
		{Field: "to", Message: "c"},
	}
	assert.Equal(t, []string{"to", "data"}, errs.Fields())
	assert.True(t, errs.Has("data"))
	assert.False(t, errs.Has("subject"))
}

func TestApply(t *testing.T) {
	t.Parallel()

	t.Run("all rules pass", func(t *testing.T) {
		t.Parallel()
		assert.NoError(t, validator.Apply(validator.Required("a", "x")))
		assert.NoError(t, validator.Apply())
	})

	t.Run("collects every failure", func(t *testing.T) {
		t.Parallel()

		err := validator.Apply(
			validator.Required("a", ""),
			validator.Required("b", "ok"),
			validator.Required("c", " "),
		)
		require.Error(t, err)
		assert.ErrorIs(t, err, validator.ErrValidationFailed)
		assert.True(t, validator.IsValidationError(err))
		assert.Equal(t, []string{"a", "c"}, validator.ExtractValidationErrors(err).Fields())
	})

	t.Run("wrapped errors are still recognised", func(t *testing.T) {
		t.Parallel()

		err := fmt.Errorf("decode payload: %w", validator.Apply(validator.Required("a", "")))
		assert.ErrorIs(t, err, validator.ErrValidationFailed)
		assert.Len(t, validator.ExtractValidationErrors(err), 1)
	})

	t.Run("foreign errors", func(t *testing.T) {
		t.Parallel()

		err := errors.New("boom")
		assert.False(t, validator.IsValidationError(err))
		assert.Nil(t, validator.ExtractValidationErrors(err))
		assert.Nil(t, validator.ExtractValidationErrors(nil))
	})
}
