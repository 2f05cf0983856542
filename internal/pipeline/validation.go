package pipeline

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"

	"minutes/internal/config"
	"minutes/internal/services"
)

// ValidationError reports a rejected submission. No record exists for it.
type ValidationError struct {
	Field   string
	Message string
	Details string
}

func (e *ValidationError) Error() string {
	if e.Details != "" {
		return e.Message + " (" + e.Details + ")"
	}
	return e.Message
}

// Unwrap ties the error to services.ErrValidation.
func (e *ValidationError) Unwrap() error {
	return services.ErrValidation
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})
	_ = v.RegisterValidation("modelhint", func(fl validator.FieldLevel) bool {
		return slices.Contains(config.ModelHints, fl.Field().String())
	})
	return v
}

// toValidationError maps the first validator failure to the client message.
func toValidationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return &ValidationError{Message: "Invalid request", Details: err.Error()}
	}
	fe := fieldErrs[0]
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return &ValidationError{Field: field, Message: "Missing required field: " + field}
	case "modelhint":
		return &ValidationError{
			Field:   field,
			Message: "Invalid field: " + field,
			Details: "allowed values: " + strings.Join(config.ModelHints, ", "),
		}
	default:
		detail := fe.Tag()
		if fe.Param() != "" {
			detail = fmt.Sprintf("%s=%s", fe.Tag(), fe.Param())
		}
		return &ValidationError{Field: field, Message: "Invalid field: " + field, Details: detail}
	}
}
