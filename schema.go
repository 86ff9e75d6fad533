package config

import (
	"fmt"
	"sync"
)

// Schema is the closed set of field declarations defining a configuration
// type. A schema is assembled once, optionally inheriting the fields of
// parent schemas (base-to-derived, most-derived declaration winning on a
// name collision), and is sealed when the first instance is created.
type Schema struct {
	mu     sync.RWMutex
	name   string
	module string
	fields map[string]*Field
	order  []string
	sealed bool

	// defaults are computed-default hooks, parent hooks first. They run
	// after field defaults are seeded and before constructor overrides.
	defaults []func(*Config)

	// validators are whole-config validators run after per-field
	// validation, parent validators first.
	validators []func(*Config) error

	// origin is the call site of the schema definition.
	origin Frame
}

// SchemaOption configures a Schema at definition time.
type SchemaOption func(*Schema)

// WithParent inherits all fields, default hooks, and validators of the
// given parent schema. Parents are merged in the order given, so a later
// parent (or the schema's own Add calls) overrides an earlier declaration
// of the same field name.
func WithParent(parent *Schema) SchemaOption {
	return func(s *Schema) {
		parent.mu.RLock()
		defer parent.mu.RUnlock()
		for _, name := range parent.order {
			s.insertField(name, copyField(parent.fields[name]))
		}
		s.defaults = append(s.defaults, parent.defaults...)
		s.validators = append(s.validators, parent.validators...)
	}
}

// WithModule records the name of the script module that defines this
// schema. Saved scripts emit a require statement for it so that loading
// them can resolve the schema's helpers.
func WithModule(module string) SchemaOption {
	return func(s *Schema) {
		s.module = module
	}
}

// WithDefaults adds a computed-default hook, run at construction after
// field defaults are seeded. Hooks inherited from parents run first, so
// derived schemas refine rather than bypass inherited defaults.
func WithDefaults(fn func(*Config)) SchemaOption {
	return func(s *Schema) {
		if fn != nil {
			s.defaults = append(s.defaults, fn)
		}
	}
}

// WithValidator adds a whole-config validator, run by Validate after all
// per-field validation has passed. Validators cannot weaken per-field
// validation; they only add checks.
func WithValidator(fn func(*Config) error) SchemaOption {
	return func(s *Schema) {
		if fn != nil {
			s.validators = append(s.validators, fn)
		}
	}
}

// NewSchema creates a schema with the given type name. Fields are added
// with Add or MustAdd; parents, default hooks, and validators are supplied
// as options.
func NewSchema(name string, opts ...SchemaOption) *Schema {
	s := &Schema{
		name:   name,
		fields: make(map[string]*Field),
		origin: callerFrame(1),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// insertField stores a field copy, preserving the position of an existing
// declaration with the same name so overrides keep base ordering.
func (s *Schema) insertField(name string, f *Field) {
	if _, exists := s.fields[name]; !exists {
		s.order = append(s.order, name)
	}
	f.name = name
	s.fields[name] = f
}

// Add registers a field declaration under the given name. The schema
// takes an independent copy of the field, binds its name, and records the
// call site as the field's declaration origin. Adding a name that already
// exists (own or inherited) overrides the earlier declaration.
func (s *Schema) Add(name string, f Field) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sealed {
		return fmt.Errorf("%w: cannot add field %q to schema %s after instantiation",
			ErrSchemaSealed, name, s.name)
	}
	if !isValidFieldName(name) {
		return fmt.Errorf("invalid field name %q in schema %s", name, s.name)
	}

	switch f.Type {
	case TypeInt, TypeFloat, TypeBool, TypeString, TypeComplex:
		if f.Schema != nil {
			return fmt.Errorf("field %q in schema %s: Schema is only valid for nested fields", name, s.name)
		}
	case TypeNested:
		if f.Schema == nil {
			return fmt.Errorf("field %q in schema %s: nested field requires a Schema", name, s.name)
		}
		switch d := f.Default.(type) {
		case nil:
		case *Config:
			if d.schema != f.Schema {
				return fmt.Errorf("field %q in schema %s: default is a config of type %s, expected %s",
					name, s.name, d.schema.name, f.Schema.name)
			}
		default:
			return fmt.Errorf("field %q in schema %s: nested default must be a %s instance",
				name, s.name, f.Schema.name)
		}
	default:
		return fmt.Errorf("unsupported field type %s for field %q in schema %s", f.Type, name, s.name)
	}

	cp := copyField(&f)
	cp.origin = callerFrame(1)
	s.insertField(name, cp)
	return nil
}

// MustAdd registers a field and panics on error. Useful for schema
// definitions at package init time.
func (s *Schema) MustAdd(name string, f Field) {
	if err := s.Add(name, f); err != nil {
		panic(err)
	}
}

// seal marks the schema immutable. Called when the first instance is
// created.
func (s *Schema) seal() {
	s.mu.Lock()
	s.sealed = true
	s.mu.Unlock()
}

// Name returns the schema's type name.
func (s *Schema) Name() string {
	return s.name
}

// Module returns the script module recorded for this schema, if any.
func (s *Schema) Module() string {
	return s.module
}

// Field returns the declaration registered under the given name.
func (s *Schema) Field(name string) (*Field, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.fields[name]
	return f, ok
}

// Has reports whether a field of the given name is declared.
func (s *Schema) Has(name string) bool {
	_, ok := s.Field(name)
	return ok
}

// Fields returns all field declarations in declaration order
// (base-to-derived).
func (s *Schema) Fields() []*Field {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Field, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.fields[name])
	}
	return out
}

// FieldNames returns all field names in declaration order.
func (s *Schema) FieldNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Len returns the number of declared fields.
func (s *Schema) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}
