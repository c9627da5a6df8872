package task

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Domain errors.
var (
	// ErrValidation is returned when input is rejected before reaching the store.
	ErrValidation = errors.New("validation failed")

	// ErrStoreUnavailable is returned when the store cannot be reached. It is
	// fatal to the calling request.
	ErrStoreUnavailable = errors.New("task store unavailable")
)

// MaxTitleLength mirrors the tasks.title column size.
const MaxTitleLength = 200

var validate = validator.New()

// Normalize trims surrounding whitespace from the request fields.
func (r CreateTaskRequest) Normalize() CreateTaskRequest {
	return CreateTaskRequest{
		Title:       strings.TrimSpace(r.Title),
		Description: strings.TrimSpace(r.Description),
	}
}

// Validate checks the request and returns an error wrapping ErrValidation.
func (r CreateTaskRequest) Validate() error {
	if err := validate.Struct(r); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			return fmt.Errorf("%w: %s", ErrValidation, describe(fieldErrs[0]))
		}
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return nil
}

func describe(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid (%s)", field, fe.Tag())
	}
}
