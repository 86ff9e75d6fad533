package config

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestFieldRegistration tests field declaration edge cases
func TestFieldRegistration(t *testing.T) {
	tests := []struct {
		name        string
		fieldName   string
		field       Field
		expectError bool
		errorMsg    string
	}{
		{"ValidInt", "port", Field{Type: TypeInt, Default: 8080}, false, ""},
		{"ValidString", "host", Field{Type: TypeString, Default: "localhost"}, false, ""},
		{"ValidUnderscore", "max_connections", Field{Type: TypeInt, Default: 10}, false, ""},
		{"EmptyName", "", Field{Type: TypeInt}, true, "invalid field name"},
		{"LeadingDigit", "9lives", Field{Type: TypeInt}, true, "invalid field name"},
		{"Dotted", "a.b", Field{Type: TypeInt}, true, "invalid field name"},
		{"SchemaOnScalar", "x", Field{Type: TypeInt, Schema: NewSchema("S")}, true, "only valid for nested fields"},
		{"NestedWithoutSchema", "sub", Field{Type: TypeNested}, true, "requires a Schema"},
		{"BadNestedDefault", "sub", Field{Type: TypeNested, Schema: NewSchema("S2"), Default: 42}, true, "nested default must be"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSchema("Test")
			err := s.Add(tt.fieldName, tt.field)
			if tt.expectError {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorMsg)
				assert.False(t, s.Has(tt.fieldName))
			} else {
				assert.NoError(t, err)
				f, ok := s.Field(tt.fieldName)
				require.True(t, ok)
				assert.Equal(t, tt.fieldName, f.Name())
			}
		})
	}
}

// TestSchemaSealing tests that instantiation closes the field set
func TestSchemaSealing(t *testing.T) {
	s := NewSchema("Sealed")
	s.MustAdd("a", Field{Type: TypeInt, Default: 1})

	_, err := New(s, nil)
	require.NoError(t, err)

	err = s.Add("b", Field{Type: TypeInt, Default: 2})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSchemaSealed)
	assert.False(t, s.Has("b"))

	assert.Panics(t, func() {
		s.MustAdd("c", Field{Type: TypeInt})
	})
}

// TestSchemaInheritance tests parent field merging and overrides
func TestSchemaInheritance(t *testing.T) {
	t.Run("FieldsMergeInDeclarationOrder", func(t *testing.T) {
		base := NewSchema("Base")
		base.MustAdd("a", Field{Type: TypeInt, Default: 1})
		base.MustAdd("b", Field{Type: TypeString, Default: "base"})

		derived := NewSchema("Derived", WithParent(base))
		derived.MustAdd("c", Field{Type: TypeBool, Default: true})

		assert.Equal(t, []string{"a", "b", "c"}, derived.FieldNames())
		assert.Equal(t, 3, derived.Len())
	})

	t.Run("OverrideKeepsBasePosition", func(t *testing.T) {
		base := NewSchema("Base")
		base.MustAdd("a", Field{Type: TypeInt, Default: 1})
		base.MustAdd("b", Field{Type: TypeString, Default: "base"})

		derived := NewSchema("Derived", WithParent(base))
		derived.MustAdd("a", Field{Type: TypeInt, Default: 99})

		assert.Equal(t, []string{"a", "b"}, derived.FieldNames())

		cfg := MustNew(derived, nil)
		v, err := cfg.Int("a")
		require.NoError(t, err)
		assert.Equal(t, int64(99), v)

		// Base schema is untouched by the override.
		baseCfg := MustNew(base, nil)
		bv, err := baseCfg.Int("a")
		require.NoError(t, err)
		assert.Equal(t, int64(1), bv)
	})

	t.Run("DefaultHooksRunParentFirst", func(t *testing.T) {
		var trace []string
		base := NewSchema("Base", WithDefaults(func(c *Config) {
			trace = append(trace, "base")
		}))
		base.MustAdd("a", Field{Type: TypeInt, Default: 1})

		derived := NewSchema("Derived", WithParent(base), WithDefaults(func(c *Config) {
			trace = append(trace, "derived")
			_ = c.Set("a", 5)
		}))

		cfg := MustNew(derived, nil)
		assert.Equal(t, []string{"base", "derived"}, trace)
		v, _ := cfg.Int("a")
		assert.Equal(t, int64(5), v)
	})

	t.Run("ValidatorsInherited", func(t *testing.T) {
		base := NewSchema("Base", WithValidator(func(c *Config) error {
			v, err := c.Int("a")
			if err != nil {
				return err
			}
			if v%2 != 0 {
				return fmt.Errorf("a must be even, got %d", v)
			}
			return nil
		}))
		base.MustAdd("a", Field{Type: TypeInt, Default: 2})

		derived := NewSchema("Derived", WithParent(base))
		cfg := MustNew(derived, nil)
		require.NoError(t, cfg.Validate())

		require.NoError(t, cfg.Set("a", 3))
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "must be even")
	})
}

// TestSchemaAccessors tests the read-only schema surface
func TestSchemaAccessors(t *testing.T) {
	s := NewSchema("Accessors", WithModule("mymod"))
	s.MustAdd("a", Field{Type: TypeInt, Default: 1})

	assert.Equal(t, "Accessors", s.Name())
	assert.Equal(t, "mymod", s.Module())
	assert.True(t, s.Has("a"))
	assert.False(t, s.Has("missing"))

	fields := s.Fields()
	require.Len(t, fields, 1)
	assert.Equal(t, "a", fields[0].Name())
	assert.Equal(t, TypeInt, fields[0].Type)
}
