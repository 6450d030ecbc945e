package services

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/dmitrijs2005/animeflix/internal/common"
	"github.com/dmitrijs2005/animeflix/internal/server/models"
)

// RegisterInput is what a new account must supply.
type RegisterInput struct {
	Identifier string       `json:"identifier" validate:"required,min=5,alphanum"`
	Secret     string       `json:"secret" validate:"required,max=72"`
	Address    string       `json:"address" validate:"required,email"`
	BirthDate  *models.Date `json:"birthDate"`
}

// UpdateInput carries a partial profile update; nil fields are left alone.
type UpdateInput struct {
	Identifier *string      `json:"identifier" validate:"omitnil,min=5,alphanum"`
	Secret     *string      `json:"secret" validate:"omitnil,min=1,max=72"`
	Address    *string      `json:"address" validate:"omitnil,email"`
	BirthDate  *models.Date `json:"birthDate"`
}

type favoriteInput struct {
	MovieID string `json:"movieId" validate:"required,max=64,printascii"`
}

// newValidator reports field names by their JSON tag so error payloads use
// the same names as request bodies.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateStruct checks every rule of s and reports all failures at once.
func validateStruct(v *validator.Validate, s any) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", common.ErrInvalidInput, err)
	}

	out := &common.ValidationError{}
	for _, fe := range verrs {
		out.Fields = append(out.Fields, common.FieldError{
			Field:   fe.Field(),
			Rule:    fe.Tag(),
			Message: fieldMessage(fe),
		})
	}
	return out
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters long", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters long", fe.Field(), fe.Param())
	case "alphanum":
		return fmt.Sprintf("%s contains non alphanumeric characters - not allowed", fe.Field())
	case "email":
		return fmt.Sprintf("%s does not appear to be valid", fe.Field())
	case "printascii":
		return fmt.Sprintf("%s must contain printable ASCII characters only", fe.Field())
	default:
		return fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag())
	}
}

// secretTooLong is reported when the hasher rejects a secret that passed the
// character count but exceeds bcrypt's byte limit.
func secretTooLong() error {
	return &common.ValidationError{Fields: []common.FieldError{{
		Field:   "secret",
		Rule:    "max",
		Message: "secret must be at most 72 bytes long",
	}}}
}
