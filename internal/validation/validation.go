// Package validation evaluates the declarative constraints carried by transfer
// objects and reports them as field-keyed problems.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

// Problem is a single constraint violation on a named field.
type Problem struct {
	Field   string
	Message string
}

// Error collects one or more constraint violations.
type Error struct {
	Problems []Problem
}

func (e *Error) Error() string {
	parts := make([]string, 0, len(e.Problems))
	for _, p := range e.Problems {
		parts = append(parts, p.Field+": "+p.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Add records a problem for field.
func (e *Error) Add(field, message string) {
	e.Problems = append(e.Problems, Problem{Field: field, Message: message})
}

// Merge appends every problem of other.
func (e *Error) Merge(other *Error) {
	if other == nil {
		return
	}
	e.Problems = append(e.Problems, other.Problems...)
}

// Fields groups messages by field name, keeping their original order.
func (e *Error) Fields() map[string][]string {
	out := make(map[string][]string, len(e.Problems))
	for _, p := range e.Problems {
		out[p.Field] = append(out[p.Field], p.Message)
	}
	return out
}

// Err returns e when it holds problems and nil otherwise.
func (e *Error) Err() error {
	if e == nil || len(e.Problems) == 0 {
		return nil
	}
	return e
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	if err := v.RegisterValidation("notblank", validators.NotBlank); err != nil {
		panic(fmt.Sprintf("validation: register notblank: %v", err))
	}
	// PostgreSQL text columns cannot hold U+0000.
	if err := v.RegisterValidation("nonul", func(fl validator.FieldLevel) bool {
		return !strings.ContainsRune(fl.Field().String(), 0)
	}); err != nil {
		panic(fmt.Sprintf("validation: register nonul: %v", err))
	}
	return v
}

// Struct checks every constraint declared on v. A failing value yields *Error;
// a nil return means v is valid.
func Struct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("validate %T: %w", v, err)
	}
	verr := &Error{}
	for _, fe := range fieldErrs {
		verr.Add(fe.Field(), message(fe))
	}
	return verr
}

func message(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required", "notblank":
		return fmt.Sprintf("%s is required", field)
	case "nonul":
		return fmt.Sprintf("%s must not contain NUL characters", field)
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must not exceed %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed the %q constraint", field, fe.Tag())
	}
}
