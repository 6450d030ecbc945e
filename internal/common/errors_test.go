package common

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidationError_MatchesInvalidInput(t *testing.T) {
	err := fmt.Errorf("register: %w", &ValidationError{Fields: []FieldError{
		{Field: "identifier", Rule: "min", Message: "identifier must be at least 5 characters"},
		{Field: "address", Rule: "email", Message: "address must be a valid email address"},
	}})

	assert.True(t, errors.Is(err, ErrInvalidInput))

	var ve *ValidationError
	if assert.True(t, errors.As(err, &ve)) {
		assert.Len(t, ve.Fields, 2)
	}
	assert.Contains(t, err.Error(), "identifier must be at least 5 characters; address must be a valid email address")
}

func TestValidationError_Empty(t *testing.T) {
	assert.Equal(t, "invalid input", (&ValidationError{}).Error())
}

func TestDuplicateAccountError(t *testing.T) {
	err := fmt.Errorf("create: %w", &DuplicateAccountError{Identifier: "alice1"})

	assert.True(t, errors.Is(err, ErrDuplicateAccount))
	assert.Equal(t, "create: alice1 already exists", err.Error())
}
