package config

import (
	"fmt"
	"math"
	"reflect"
)

// Type is the declared data type of a Field value.
type Type uint8

const (
	// TypeInt holds an int64 value. Narrower integer kinds are widened
	// on assignment.
	TypeInt Type = iota
	// TypeFloat holds a float64 value. Integer and float32 assignments
	// are widened.
	TypeFloat
	// TypeBool holds a bool value.
	TypeBool
	// TypeString holds a string value.
	TypeString
	// TypeComplex holds a complex128 value.
	TypeComplex
	// TypeNested holds a child *Config described by the field's Schema.
	TypeNested
)

// String returns the string representation of the type.
func (t Type) String() string {
	switch t {
	case TypeInt:
		return "int"
	case TypeFloat:
		return "float"
	case TypeBool:
		return "bool"
	case TypeString:
		return "string"
	case TypeComplex:
		return "complex"
	case TypeNested:
		return "config"
	default:
		return "unknown"
	}
}

// Field defines a configuration field: a typed, named, validated slot
// within a schema. Fields are declared as literals and registered on a
// Schema, which binds the name and takes an independent copy:
//
//	schema.MustAdd("tabSize", config.Field{
//	    Type:    config.TypeInt,
//	    Doc:     "number of spaces per tab stop",
//	    Default: 4,
//	    Check:   func(v any) bool { return v.(int64) > 0 },
//	})
type Field struct {
	// Type is the field's declared data type.
	Type Type

	// Doc is human-readable documentation, emitted as comment text in
	// saved scripts.
	Doc string

	// Default is the field's default value, assigned at construction.
	// For TypeNested a nil default means a default-constructed child;
	// a *Config default is used as a value template.
	Default any

	// Check, if set, is called with the coerced value on assignment and
	// rejects the value by returning false. Cross-field invariants
	// belong in schema validators, not here.
	Check func(any) bool

	// Optional permits a nil value to pass whole-object validation.
	Optional bool

	// Schema describes the child config type for TypeNested fields.
	Schema *Schema

	// name is bound once, when the field is registered on a schema.
	name string

	// origin is the call site of the registration.
	origin Frame
}

// Name returns the field's name as bound at schema registration.
func (f *Field) Name() string {
	return f.name
}

// coerce applies numeric widening toward the declared type. Values that
// cannot be widened are returned unchanged and fail the type check.
func (f *Field) coerce(v any) any {
	rv := reflect.ValueOf(v)
	switch f.Type {
	case TypeInt:
		switch rv.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			return rv.Int()
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32:
			return int64(rv.Uint())
		case reflect.Uint64:
			if u := rv.Uint(); u <= math.MaxInt64 {
				return int64(u)
			}
		}
	case TypeFloat:
		switch rv.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			return float64(rv.Int())
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			return float64(rv.Uint())
		case reflect.Float32, reflect.Float64:
			return rv.Float()
		}
	case TypeComplex:
		switch rv.Kind() {
		case reflect.Complex64, reflect.Complex128:
			return rv.Complex()
		}
	}
	return v
}

// typeOK reports whether a coerced value matches the declared type.
func (f *Field) typeOK(v any) bool {
	switch f.Type {
	case TypeInt:
		_, ok := v.(int64)
		return ok
	case TypeFloat:
		_, ok := v.(float64)
		return ok
	case TypeBool:
		_, ok := v.(bool)
		return ok
	case TypeString:
		_, ok := v.(string)
		return ok
	case TypeComplex:
		_, ok := v.(complex128)
		return ok
	}
	return false
}

// get returns the field's current value on the given instance. Nested
// fields materialize their default child on first access.
func (f *Field) get(c *Config, at Origin) any {
	if f.Type == TypeNested {
		return f.getOrMakeNested(c, at, labelDefault)
	}
	return c.storage[f.name]
}

// set routes a value assignment through the field's write protocol:
// frozen check, numeric widening, type check, Check predicate, then
// storage update and history append. A nil value bypasses validation,
// which is deferred to whole-object Validate.
func (f *Field) set(c *Config, value any, at Origin, label string) error {
	if f.Type == TypeNested {
		return f.setNested(c, value, at, label)
	}

	if c.frozen {
		return newFieldError(f, c, ErrFrozen, "cannot modify a frozen config")
	}

	if value != nil {
		value = f.coerce(value)
		if !f.typeOK(value) {
			return newFieldError(f, c, ErrInvalidType,
				fmt.Sprintf("value %v is of incorrect type %T, expected %s", value, value, f.Type))
		}
		if f.Check != nil && !f.Check(value) {
			return newFieldError(f, c, ErrInvalidValue,
				fmt.Sprintf("value %v is not a valid value", value))
		}
	}

	c.storage[f.name] = value
	c.history[f.name] = append(c.history[f.name], HistoryEntry{Value: value, Origin: at, Label: label})
	return nil
}

// delete clears the field's value, equivalent to assigning nil with the
// "deletion" label.
func (f *Field) delete(c *Config, at Origin) error {
	return f.set(c, nil, at, labelDeletion)
}

// validate performs whole-object validation of the field: a non-optional
// field must not be nil. Nested fields validate the child config
// recursively.
func (f *Field) validate(c *Config) error {
	if f.Type == TypeNested {
		return f.validateNested(c)
	}
	if !f.Optional && c.storage[f.name] == nil {
		return newFieldError(f, c, ErrInvalidValue, "required value cannot be nil")
	}
	return nil
}

// freeze makes the field read-only on the given instance. Only nested
// fields carry per-instance state to cascade into.
func (f *Field) freeze(c *Config) {
	if f.Type == TypeNested {
		f.freezeNested(c)
	}
}

// rename pushes the owning config's new hierarchical name down into
// nested children. Scalar fields have nothing to do.
func (f *Field) rename(c *Config) {
	if f.Type == TypeNested {
		f.renameNested(c)
	}
}

// toDict projects the field's current value for ToDict. Nested fields
// project the child config recursively.
func (f *Field) toDict(c *Config) any {
	if f.Type == TypeNested {
		return f.getOrMakeNested(c, nil, labelDefault).ToDict()
	}
	return c.storage[f.name]
}

// copyField returns an independent copy of a field template, so that two
// schemas (or a schema and a derived schema overriding the field) never
// share mutable field state.
func copyField(f *Field) *Field {
	cp := *f
	return &cp
}
