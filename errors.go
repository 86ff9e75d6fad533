package config

import (
	"errors"
	"fmt"
)

// Sentinel errors for classifying configuration failures with errors.Is.
var (
	// ErrUnknownField is returned when a field name is not part of the
	// schema of the config being addressed.
	ErrUnknownField = errors.New("unknown field")

	// ErrSchemaSealed is returned when attempting to add fields to a
	// schema after an instance of it has been created.
	ErrSchemaSealed = errors.New("schema is sealed")

	// ErrFrozen is wrapped by field errors caused by assigning to a
	// frozen config.
	ErrFrozen = errors.New("cannot modify a frozen config")

	// ErrInvalidType is wrapped by field errors caused by assigning a
	// value of the wrong type.
	ErrInvalidType = errors.New("invalid value type")

	// ErrInvalidValue is wrapped by field errors caused by a value
	// rejected by a field's Check predicate or by validation.
	ErrInvalidValue = errors.New("invalid value")

	// ErrScriptFormat is returned when a saved override file cannot be
	// parsed or refers to something other than the bound root config.
	ErrScriptFormat = errors.New("invalid override script")
)

// FieldError reports a validation failure on a single field. It carries
// enough context to locate both the offending assignment and the original
// declarations without re-running the program.
type FieldError struct {
	// FieldType is the declared type of the field that failed.
	FieldType Type

	// FieldName is the bare field name within its schema.
	FieldName string

	// FullName is the fully-qualified dotted path of the field.
	FullName string

	// History is a snapshot of the field's mutation history at the time
	// of the failure, oldest first.
	History []HistoryEntry

	// FieldOrigin is the call site of the field declaration.
	FieldOrigin Frame

	// ConfigOrigin is the call site of the owning schema's definition.
	ConfigOrigin Frame

	// Msg is the human-readable failure description.
	Msg string

	// err is the sentinel classifying the failure.
	err error
}

// newFieldError builds a FieldError for a field on a config instance.
func newFieldError(f *Field, c *Config, sentinel error, msg string) *FieldError {
	hist := c.history[f.name]
	snapshot := make([]HistoryEntry, len(hist))
	copy(snapshot, hist)
	return &FieldError{
		FieldType:    f.Type,
		FieldName:    f.name,
		FullName:     joinNamePath(c.name, f.name),
		History:      snapshot,
		FieldOrigin:  f.origin,
		ConfigOrigin: c.schema.origin,
		Msg:          msg,
		err:          sentinel,
	}
}

// Error implements the error interface.
func (e *FieldError) Error() string {
	name := e.FullName
	if name == "" {
		name = e.FieldName
	}
	return fmt.Sprintf("%s field '%s' failed validation: %s\n"+
		"field defined at %s\n"+
		"config defined at %s",
		e.FieldType, name, e.Msg, e.FieldOrigin, e.ConfigOrigin)
}

// Unwrap exposes the sentinel (ErrFrozen, ErrInvalidType, ErrInvalidValue)
// classifying this failure.
func (e *FieldError) Unwrap() error {
	return e.err
}
