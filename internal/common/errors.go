// Package common defines the error taxonomy and shared constants used across
// the AnimeFlix server. Callers should use errors.Is / errors.As to match
// these values.
package common

import (
	"errors"
	"strings"
)

var (
	// Repository-level errors.
	ErrNotFound         = errors.New("not found")
	ErrDuplicateAccount = errors.New("account already exists")

	// ErrStoreUnavailable is returned when the store timed out, refused the
	// connection or the circuit breaker is open. Callers may retry.
	ErrStoreUnavailable = errors.New("store unavailable")

	// Service-level errors.
	ErrInvalidInput       = errors.New("invalid input")
	ErrInternal           = errors.New("internal error")
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrInvalidCredentials = errors.New("invalid identifier or secret")
	ErrForbidden          = errors.New("forbidden")

	// Token errors. Both are reported to clients as ErrUnauthenticated.
	ErrTokenMalformed = errors.New("token malformed")
	ErrTokenExpired   = errors.New("token expired")
)

// FieldError describes a single violated input rule.
type FieldError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// ValidationError reports every violated rule of an input at once.
// It matches ErrInvalidInput with errors.Is.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return ErrInvalidInput.Error()
	}
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Message)
	}
	return ErrInvalidInput.Error() + ": " + strings.Join(msgs, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

// DuplicateAccountError names the identifier that is already taken.
type DuplicateAccountError struct {
	Identifier string
}

func (e *DuplicateAccountError) Error() string {
	return e.Identifier + " already exists"
}

func (e *DuplicateAccountError) Unwrap() error { return ErrDuplicateAccount }
