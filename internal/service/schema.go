// Package service implements the schema-validated service dispatcher.
// Each service declares a static field table; calls are validated against
// it before any network request is made.
package service

import (
	"fmt"

	"github.com/ringo-bridge/backend/internal/ringo"
)

// FieldType declares the expected value shape of a service field,
// mirroring the selector shown in the host UI.
type FieldType string

const (
	TypeText    FieldType = "text"
	TypeBoolean FieldType = "boolean"
	TypeInteger FieldType = "integer"
	TypeObject  FieldType = "object"
)

// Field is one declared service call field.
type Field struct {
	Name     string
	Type     FieldType
	Required bool

	// Validate performs field-specific checks beyond the type check.
	// May be nil.
	Validate func(value any) error
}

// Schema is the declared field table for one service.
type Schema struct {
	fields []Field
	byName map[string]Field
}

// NewSchema builds a schema from a field table.
func NewSchema(fields ...Field) Schema {
	byName := make(map[string]Field, len(fields))
	for _, f := range fields {
		byName[f.Name] = f
	}
	return Schema{fields: fields, byName: byName}
}

// Fields returns the declared fields in declaration order.
func (s Schema) Fields() []Field {
	return s.fields
}

// Validate checks a call payload against the field table. Unknown fields,
// missing required fields, type mismatches and per-field validator failures
// are all reported as validation errors, before any network access.
func (s Schema) Validate(args map[string]any) error {
	for name := range args {
		if _, ok := s.byName[name]; !ok {
			return fmt.Errorf("%w: unknown field %q", ringo.ErrValidation, name)
		}
	}

	for _, f := range s.fields {
		value, present := args[f.Name]
		if !present {
			if f.Required {
				return fmt.Errorf("%w: missing required field %q", ringo.ErrValidation, f.Name)
			}
			continue
		}

		if err := checkType(f.Type, value); err != nil {
			return fmt.Errorf("%w: field %q: %v", ringo.ErrValidation, f.Name, err)
		}

		if f.Validate != nil {
			if err := f.Validate(value); err != nil {
				return fmt.Errorf("%w: field %q: %v", ringo.ErrValidation, f.Name, err)
			}
		}
	}

	return nil
}

// checkType verifies the decoded JSON value matches the declared selector
// type. Booleans also accept 0/1, the way the vendor encodes flags.
func checkType(t FieldType, value any) error {
	switch t {
	case TypeText:
		if _, ok := value.(string); !ok {
			return fmt.Errorf("expected text, got %T", value)
		}
	case TypeBoolean:
		if _, err := coerceFlag(value); err != nil {
			return err
		}
	case TypeInteger:
		if _, err := asInt(value); err != nil {
			return err
		}
	case TypeObject:
		switch value.(type) {
		case map[string]any, []any:
		default:
			return fmt.Errorf("expected structured object, got %T", value)
		}
	default:
		return fmt.Errorf("unhandled field type %q", t)
	}
	return nil
}
