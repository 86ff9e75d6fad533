package config

import (
	"fmt"
	"math"
	"strings"
)

// Config is an instance of a Schema: it aggregates a current value for
// every declared field, the history of each field's mutations, a one-way
// frozen flag, and a dotted hierarchical name locating it in a possibly
// nested config tree.
//
// A Config's attribute set is closed: only names declared on the schema
// can be read or assigned, so typos surface as errors rather than silent
// state.
type Config struct {
	schema  *Schema
	name    string
	frozen  bool
	storage map[string]any
	history map[string][]HistoryEntry

	// imports records script modules pulled in while loading override
	// scripts, so Save can reproduce the require statements.
	imports map[string]struct{}
}

// Item is a (field name, field value) pair, as returned by Items.
type Item struct {
	Name  string
	Value any
}

// New creates a config instance of the given schema. Construction seeds
// every field with its default (recording a "default" history entry at
// the field's declaration origin), runs the schema's computed-default
// hooks, then applies the overrides through the normal update path.
// The schema is sealed by the first instantiation.
func New(schema *Schema, overrides map[string]any) (*Config, error) {
	return newConfig(schema, "", callerOrigin(1), labelUpdate, overrides)
}

// MustNew is like New but panics on error.
func MustNew(schema *Schema, overrides map[string]any) *Config {
	c, err := New(schema, overrides)
	if err != nil {
		panic(fmt.Sprintf("config: %v", err))
	}
	return c
}

// newConfig is the internal constructor. The hierarchical name and origin
// are controlled by the nesting machinery and are not part of the public
// construction surface.
func newConfig(schema *Schema, name string, at Origin, label string, seed map[string]any) (*Config, error) {
	schema.seal()

	c := &Config{
		schema:  schema,
		name:    name,
		storage: make(map[string]any),
		history: make(map[string][]HistoryEntry),
		imports: make(map[string]struct{}),
	}

	for _, f := range schema.Fields() {
		c.history[f.name] = nil
		def := f.Default
		if f.Type == TypeNested && def == nil {
			def = f.Schema
		}
		defAt := append(Origin{f.origin}, at...)
		if err := f.set(c, def, defAt, labelDefault); err != nil {
			return nil, err
		}
	}

	for _, hook := range schema.defaults {
		hook(c)
	}

	if len(seed) > 0 {
		if err := c.updateWith(seed, at, label); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Schema returns the schema this config is an instance of.
func (c *Config) Schema() *Schema {
	return c.schema
}

// Name returns the config's dotted hierarchical name. A root config has
// an empty name until it is bound to a root symbol during save.
func (c *Config) Name() string {
	return c.name
}

// rename sets the config's hierarchical name and propagates it through
// every nested field.
func (c *Config) rename(name string) {
	c.name = name
	for _, f := range c.schema.Fields() {
		f.rename(c)
	}
}

// Get returns the current value of the named field. Nested fields
// materialize their default child on first access.
func (c *Config) Get(name string) (any, error) {
	f, ok := c.schema.Field(name)
	if !ok {
		return nil, fmt.Errorf("%w: no field of name %q exists in config type %s",
			ErrUnknownField, name, c.schema.name)
	}
	return f.get(c, callerOrigin(1)), nil
}

// Set assigns a value to the named field through the field's write
// protocol, recording an "assignment" history entry at the caller's call
// site. The config state is unchanged when an error is returned.
func (c *Config) Set(name string, value any) error {
	f, ok := c.schema.Field(name)
	if !ok {
		return fmt.Errorf("%w: no field of name %q exists in config type %s",
			ErrUnknownField, name, c.schema.name)
	}
	return f.set(c, value, callerOrigin(1), labelAssignment)
}

// Delete clears the named field, equivalent to assigning nil with a
// "deletion" history label.
func (c *Config) Delete(name string) error {
	f, ok := c.schema.Field(name)
	if !ok {
		return fmt.Errorf("%w: no field of name %q exists in config type %s",
			ErrUnknownField, name, c.schema.name)
	}
	return f.delete(c, callerOrigin(1))
}

// Update assigns multiple fields at once, each through the normal write
// path with an "update" history label. All names are checked against the
// schema before any assignment is applied.
func (c *Config) Update(values map[string]any) error {
	return c.updateWith(values, callerOrigin(1), labelUpdate)
}

// updateWith applies values in schema declaration order after verifying
// that every name is declared.
func (c *Config) updateWith(values map[string]any, at Origin, label string) error {
	for name := range values {
		if !c.schema.Has(name) {
			return fmt.Errorf("%w: no field of name %q exists in config type %s",
				ErrUnknownField, name, c.schema.name)
		}
	}
	for _, f := range c.schema.Fields() {
		value, ok := values[f.name]
		if !ok {
			continue
		}
		if err := f.set(c, value, at, label); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks every field (non-optional fields must not be nil,
// nested configs validate recursively) and then runs the schema's
// whole-config validators.
func (c *Config) Validate() error {
	for _, f := range c.schema.Fields() {
		if err := f.validate(c); err != nil {
			return err
		}
	}
	for _, v := range c.schema.validators {
		if err := v(c); err != nil {
			return err
		}
	}
	return nil
}

// Freeze makes this config and every nested config read-only. Freezing
// is one-way; there is no thaw.
func (c *Config) Freeze() {
	c.frozen = true
	for _, f := range c.schema.Fields() {
		f.freeze(c)
	}
}

// Frozen reports whether the config has been frozen.
func (c *Config) Frozen() bool {
	return c.frozen
}

// ToDict projects the config into a plain map of field name to value,
// with nested configs projected recursively into nested maps.
func (c *Config) ToDict() map[string]any {
	out := make(map[string]any, c.schema.Len())
	for _, f := range c.schema.Fields() {
		out[f.name] = f.toDict(c)
	}
	return out
}

// Keys returns all field names in schema declaration order.
func (c *Config) Keys() []string {
	return c.schema.FieldNames()
}

// Has reports whether the named field is declared on this config.
func (c *Config) Has(name string) bool {
	return c.schema.Has(name)
}

// Values returns all field values in schema declaration order.
func (c *Config) Values() []any {
	fields := c.schema.Fields()
	out := make([]any, 0, len(fields))
	for _, f := range fields {
		out = append(out, f.get(c, nil))
	}
	return out
}

// Items returns (name, value) pairs for every field in schema order.
func (c *Config) Items() []Item {
	fields := c.schema.Fields()
	out := make([]Item, 0, len(fields))
	for _, f := range fields {
		out = append(out, Item{Name: f.name, Value: f.get(c, nil)})
	}
	return out
}

// GoString renders the config's type name and current values in schema
// order, recursing into nested configs.
func (c *Config) GoString() string {
	var b strings.Builder
	b.WriteString(c.schema.name)
	b.WriteByte('{')
	for i, f := range c.schema.Fields() {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(f.name)
		b.WriteString(": ")
		if f.Type == TypeNested {
			b.WriteString(f.getOrMakeNested(c, nil, labelDefault).GoString())
		} else {
			b.WriteString(renderValue(c.storage[f.name]))
		}
	}
	b.WriteByte('}')
	return b.String()
}

// Equal reports whether two configs are instances of the same schema with
// equal values in every field. Two NaN values in corresponding float
// fields compare equal; a NaN against anything else compares unequal.
func (c *Config) Equal(other *Config) bool {
	if other == nil || c.schema != other.schema {
		return false
	}
	for _, f := range c.schema.Fields() {
		if !valuesEqual(f.get(c, nil), f.get(other, nil)) {
			return false
		}
	}
	return true
}

// NotEqual is the strict logical negation of Equal.
func (c *Config) NotEqual(other *Config) bool {
	return !c.Equal(other)
}

// valuesEqual compares two field values, treating NaN as equal to NaN
// and recursing into nested configs.
func valuesEqual(a, b any) bool {
	if ca, ok := a.(*Config); ok {
		cb, ok := b.(*Config)
		return ok && ca.Equal(cb)
	}
	fa, aFloat := a.(float64)
	fb, bFloat := b.(float64)
	if (aFloat && math.IsNaN(fa)) || (bFloat && math.IsNaN(fb)) {
		return aFloat && bFloat && math.IsNaN(fa) && math.IsNaN(fb)
	}
	return a == b
}

// String retrieves a string field value.
func (c *Config) String(name string) (string, error) {
	v, err := c.Get(name)
	if err != nil {
		return "", err
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("value of field %q is %T, not string", name, v)
	}
	return s, nil
}

// Int retrieves an int64 field value.
func (c *Config) Int(name string) (int64, error) {
	v, err := c.Get(name)
	if err != nil {
		return 0, err
	}
	i, ok := v.(int64)
	if !ok {
		return 0, fmt.Errorf("value of field %q is %T, not int", name, v)
	}
	return i, nil
}

// Float retrieves a float64 field value.
func (c *Config) Float(name string) (float64, error) {
	v, err := c.Get(name)
	if err != nil {
		return 0, err
	}
	f, ok := v.(float64)
	if !ok {
		return 0, fmt.Errorf("value of field %q is %T, not float", name, v)
	}
	return f, nil
}

// Bool retrieves a bool field value.
func (c *Config) Bool(name string) (bool, error) {
	v, err := c.Get(name)
	if err != nil {
		return false, err
	}
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("value of field %q is %T, not bool", name, v)
	}
	return b, nil
}

// Complex retrieves a complex128 field value.
func (c *Config) Complex(name string) (complex128, error) {
	v, err := c.Get(name)
	if err != nil {
		return 0, err
	}
	z, ok := v.(complex128)
	if !ok {
		return 0, fmt.Errorf("value of field %q is %T, not complex", name, v)
	}
	return z, nil
}

// Nested retrieves a nested child config.
func (c *Config) Nested(name string) (*Config, error) {
	v, err := c.Get(name)
	if err != nil {
		return nil, err
	}
	child, ok := v.(*Config)
	if !ok {
		return nil, fmt.Errorf("value of field %q is %T, not a nested config", name, v)
	}
	return child, nil
}
