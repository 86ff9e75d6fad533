package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTreeSchemas() (inner, outer *Schema) {
	inner = NewSchema("Inner")
	inner.MustAdd("a", Field{Type: TypeInt, Default: 1})
	inner.MustAdd("b", Field{Type: TypeInt, Default: 2})

	outer = NewSchema("Outer")
	outer.MustAdd("name", Field{Type: TypeString, Default: "outer"})
	outer.MustAdd("sub", Field{Type: TypeNested, Doc: "inner settings", Schema: inner})
	return inner, outer
}

// TestNestedDefaults tests child materialization and naming
func TestNestedDefaults(t *testing.T) {
	_, outer := newTreeSchemas()
	cfg := MustNew(outer, nil)

	child, err := cfg.Nested("sub")
	require.NoError(t, err)
	require.NotNil(t, child)
	assert.Equal(t, "sub", child.Name())

	a, err := child.Int("a")
	require.NoError(t, err)
	assert.Equal(t, int64(1), a)

	// Repeated access yields the same child.
	again, err := cfg.Nested("sub")
	require.NoError(t, err)
	assert.Same(t, child, again)
}

// TestNestedAssignMergesInPlace tests that assigning a config to a
// nested field updates the existing child rather than replacing it
func TestNestedAssignMergesInPlace(t *testing.T) {
	inner, outer := newTreeSchemas()
	cfg := MustNew(outer, nil)

	child, err := cfg.Nested("sub")
	require.NoError(t, err)
	require.NoError(t, child.Set("b", 7))

	src := MustNew(inner, map[string]any{"a": 9, "b": 7})
	require.NoError(t, cfg.Set("sub", src))

	after, err := cfg.Nested("sub")
	require.NoError(t, err)
	assert.Same(t, child, after, "held references stay valid across assignment")

	a, _ := after.Int("a")
	b, _ := after.Int("b")
	assert.Equal(t, int64(9), a)
	assert.Equal(t, int64(7), b)

	// The parent field records the assignment as a single entry.
	hist, err := cfg.History("sub")
	require.NoError(t, err)
	last := hist[len(hist)-1]
	assert.Equal(t, "config value set", last.Value)
	assert.Equal(t, "assignment", last.Label)
}

// TestNestedAssignSchemaResets tests assigning the child schema itself
func TestNestedAssignSchemaResets(t *testing.T) {
	inner, outer := newTreeSchemas()
	cfg := MustNew(outer, nil)

	child, _ := cfg.Nested("sub")
	require.NoError(t, child.Set("a", 42))

	require.NoError(t, cfg.Set("sub", inner))

	after, _ := cfg.Nested("sub")
	assert.Same(t, child, after)
	a, _ := after.Int("a")
	assert.Equal(t, int64(1), a, "reset to defaults")
}

// TestNestedAssignTypeChecks tests rejection of foreign configs
func TestNestedAssignTypeChecks(t *testing.T) {
	_, outer := newTreeSchemas()
	cfg := MustNew(outer, nil)

	other := NewSchema("Other")
	other.MustAdd("a", Field{Type: TypeInt, Default: 1})

	err := cfg.Set("sub", MustNew(other, nil))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidType)

	err = cfg.Set("sub", other)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidType)

	err = cfg.Set("sub", 42)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidType)
}

// TestNestedFreezeCascades tests that freezing the parent freezes children
func TestNestedFreezeCascades(t *testing.T) {
	inner, outer := newTreeSchemas()
	cfg := MustNew(outer, nil)
	child, _ := cfg.Nested("sub")

	cfg.Freeze()
	assert.True(t, child.Frozen())

	err := child.Set("a", 9)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrFrozen)

	err = cfg.Set("sub", MustNew(inner, nil))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrFrozen)
}

// TestNestedValidation tests recursive validation and child field errors
func TestNestedValidation(t *testing.T) {
	inner := NewSchema("Inner")
	inner.MustAdd("needed", Field{Type: TypeString})

	outer := NewSchema("Outer")
	outer.MustAdd("sub", Field{Type: TypeNested, Schema: inner})

	cfg := MustNew(outer, nil)
	err := cfg.Validate()
	require.Error(t, err)

	var fe *FieldError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "sub.needed", fe.FullName, "child errors carry the dotted path")

	child, _ := cfg.Nested("sub")
	require.NoError(t, child.Set("needed", "ok"))
	assert.NoError(t, cfg.Validate())
}

// TestNestedEquality tests recursion in Equal
func TestNestedEquality(t *testing.T) {
	_, outer := newTreeSchemas()
	c1 := MustNew(outer, nil)
	c2 := MustNew(outer, nil)
	assert.True(t, c1.Equal(c2))

	child, _ := c1.Nested("sub")
	require.NoError(t, child.Set("a", 9))
	assert.False(t, c1.Equal(c2))

	other, _ := c2.Nested("sub")
	require.NoError(t, other.Set("a", 9))
	assert.True(t, c1.Equal(c2))
}

// TestNestedToDict tests recursive projection
func TestNestedToDict(t *testing.T) {
	_, outer := newTreeSchemas()
	cfg := MustNew(outer, nil)
	child, _ := cfg.Nested("sub")
	require.NoError(t, child.Set("a", 9))

	d := cfg.ToDict()
	sub, ok := d["sub"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, int64(9), sub["a"])
	assert.Equal(t, int64(2), sub["b"])
}

// TestNestedDefaultTemplate tests *Config field defaults
func TestNestedDefaultTemplate(t *testing.T) {
	inner := NewSchema("Inner")
	inner.MustAdd("a", Field{Type: TypeInt, Default: 1})

	tmpl := MustNew(inner, map[string]any{"a": 99})

	outer := NewSchema("Outer")
	outer.MustAdd("sub", Field{Type: TypeNested, Schema: inner, Default: tmpl})

	cfg := MustNew(outer, nil)
	child, _ := cfg.Nested("sub")
	a, _ := child.Int("a")
	assert.Equal(t, int64(99), a)
	assert.NotSame(t, tmpl, child, "template is copied, not shared")
}
