package store

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError is returned by Create when an entity breaks its schema.
type ValidationError struct {
	Entity string
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Message)
	}
	return fmt.Sprintf("%s validation failed: %s", e.Entity, strings.Join(msgs, ", "))
}

// DuplicateError reports a unique key violation. It matches ErrDuplicate.
type DuplicateError struct {
	Entity string
	Field  string
	Value  string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("%s validation failed: %s: expected `%s` to be unique, got %q", e.Entity, e.Field, e.Field, e.Value)
}

func (e *DuplicateError) Is(target error) bool { return target == ErrDuplicate }

func validateEntity(name string, v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return err
	}

	out := &ValidationError{Entity: name}
	for _, fe := range ves {
		field := strings.ToLower(fe.Field()[:1]) + fe.Field()[1:]
		var message string
		switch fe.Tag() {
		case "required":
			message = fmt.Sprintf("%s: path `%s` is required", field, field)
		case "min":
			message = fmt.Sprintf("%s: path `%s` is shorter than the minimum allowed length (%s)", field, field, fe.Param())
		case "max":
			message = fmt.Sprintf("%s: path `%s` is longer than the maximum allowed length (%s)", field, field, fe.Param())
		default:
			message = fmt.Sprintf("%s is invalid", field)
		}
		out.Fields = append(out.Fields, FieldError{Field: field, Message: message})
	}
	return out
}
