package config

import "fmt"

// Nested-config field semantics. A TypeNested field's value is a child
// *Config whose hierarchical name is always "<parent>.<field>". Assigning
// to a nested field merges values into the existing child rather than
// replacing it, so references held to the child remain valid.

// getOrMakeNested returns the stored child config, materializing a
// default-constructed child on first access. The materialization origin
// is the field's declaration site prefixed to the access origin.
func (f *Field) getOrMakeNested(c *Config, at Origin, label string) *Config {
	if child, ok := c.storage[f.name].(*Config); ok && child != nil {
		return child
	}

	at = append(Origin{f.origin}, at...)
	name := joinNamePath(c.name, f.name)

	var seed map[string]any
	if tmpl, ok := f.Default.(*Config); ok && tmpl != nil {
		seed = tmpl.storage
	}
	child, err := newConfig(f.Schema, name, at, label, seed)
	if err != nil {
		// A failing seed means the field default itself is invalid;
		// fall back to a pure default child so reads never fail.
		child, _ = newConfig(f.Schema, name, at, label, nil)
	}
	child.frozen = c.frozen
	c.storage[f.name] = child
	c.history[f.name] = append(c.history[f.name],
		HistoryEntry{Value: "config value set", Origin: at, Label: label})
	return child
}

// setNested assigns to a nested-config field. The value must be either
// the field's child *Schema (meaning "reset to defaults") or a *Config
// instance of that schema. When a child is already stored the incoming
// values are merged into it field by field, preserving its identity; the
// parent field records a single "config value set" history entry either
// way.
func (f *Field) setNested(c *Config, value any, at Origin, label string) error {
	if c.frozen {
		return newFieldError(f, c, ErrFrozen, "cannot modify a frozen config")
	}

	var src *Config
	switch v := value.(type) {
	case *Schema:
		if v != f.Schema {
			return newFieldError(f, c, ErrInvalidType,
				fmt.Sprintf("schema %s is of incorrect type, expected %s", v.name, f.Schema.name))
		}
	case *Config:
		if v.schema != f.Schema {
			return newFieldError(f, c, ErrInvalidType,
				fmt.Sprintf("value is a config of type %s, expected %s", v.schema.name, f.Schema.name))
		}
		src = v
	default:
		return newFieldError(f, c, ErrInvalidType,
			fmt.Sprintf("value %v is of incorrect type %T, expected %s", value, value, f.Schema.name))
	}

	name := joinNamePath(c.name, f.name)
	old, _ := c.storage[f.name].(*Config)

	if old == nil {
		var seed map[string]any
		if src != nil {
			seed = src.storage
		}
		child, err := newConfig(f.Schema, name, at, label, seed)
		if err != nil {
			return err
		}
		c.storage[f.name] = child
	} else {
		seed := map[string]any{}
		if src != nil {
			seed = src.storage
		} else {
			fresh, err := newConfig(f.Schema, "", at, label, nil)
			if err != nil {
				return err
			}
			seed = fresh.storage
		}
		if err := old.updateWith(seed, at, label); err != nil {
			return err
		}
	}

	c.history[f.name] = append(c.history[f.name],
		HistoryEntry{Value: "config value set", Origin: at, Label: label})
	return nil
}

// validateNested validates the child config recursively and then applies
// the field's own Check predicate to the child.
func (f *Field) validateNested(c *Config) error {
	child := f.getOrMakeNested(c, nil, labelDefault)
	if err := child.Validate(); err != nil {
		return err
	}
	if f.Check != nil && !f.Check(child) {
		return newFieldError(f, c, ErrInvalidValue,
			fmt.Sprintf("%s is not a valid value", child.schema.name))
	}
	return nil
}

// freezeNested cascades the frozen flag into the child config.
func (f *Field) freezeNested(c *Config) {
	f.getOrMakeNested(c, nil, labelDefault).Freeze()
}

// renameNested recomputes the child's hierarchical name after the parent
// was renamed, recursing into the child's own nested fields.
func (f *Field) renameNested(c *Config) {
	f.getOrMakeNested(c, nil, labelDefault).rename(joinNamePath(c.name, f.name))
}
