// Package validation provides a generic object validator driven by struct
// tags. The constraints live on the DTO types; callers only receive a
// verdict and human-readable error strings.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validator validates tagged structs and collects all violations.
type Validator struct {
	validate *validator.Validate
}

// New creates a Validator that reports fields by their json names.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return strings.ToLower(fld.Name)
		}
		return name
	})
	return &Validator{validate: v}
}

// Validate checks every constraint on obj and returns all violations,
// not just the first one.
func (v *Validator) Validate(obj any) (bool, []string) {
	err := v.validate.Struct(obj)
	if err == nil {
		return true, nil
	}

	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return false, []string{"invalid object"}
	}

	messages := make([]string, 0, len(errs))
	for _, fe := range errs {
		messages = append(messages, describe(fe))
	}
	return false, messages
}

// describe turns a field error into a stable human-readable message.
func describe(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("The %s field is required", field)
	case "min":
		return fmt.Sprintf("The %s must be at least %s characters long", field, fe.Param())
	case "max":
		return fmt.Sprintf("The %s must not exceed %s characters", field, fe.Param())
	default:
		return fmt.Sprintf("The %s field is invalid", field)
	}
}
