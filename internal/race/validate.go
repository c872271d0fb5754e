package race

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report fields by their JSON name so messages match the request body
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks the `validate` tags of an input struct and reports the
// first failing field as a *ValidationError.
func Validate(input any) error {
	err := validate.Struct(input)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return err
	}

	fe := fieldErrs[0]
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return NewValidationError(field, "%s is required", field)
	case "required_without":
		return NewValidationError(field, "%s or %s is required", field, strings.ToLower(fe.Param()))
	case "email":
		return NewValidationError(field, "%s must be a valid email address", field)
	case "min", "gte":
		return NewValidationError(field, "%s must be at least %s", field, fe.Param())
	case "max", "lte":
		return NewValidationError(field, "%s must be at most %s", field, fe.Param())
	case "gt":
		return NewValidationError(field, "%s must be greater than %s", field, fe.Param())
	case "ne":
		return NewValidationError(field, "%s must not be %s", field, fe.Param())
	case "dive":
		return NewValidationError(field, "%s is invalid", field)
	default:
		return NewValidationError(field, "%s is invalid", field)
	}
}
