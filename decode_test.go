package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestScan tests decoding config values into structs
func TestScan(t *testing.T) {
	type InnerSettings struct {
		A int64 `toml:"a"`
		B int64 `toml:"b"`
	}
	type OuterSettings struct {
		Name string        `toml:"name"`
		Sub  InnerSettings `toml:"sub"`
	}

	_, outer := newTreeSchemas()
	cfg := MustNew(outer, nil)
	require.NoError(t, cfg.Set("name", "scanned"))
	child, _ := cfg.Nested("sub")
	require.NoError(t, child.Set("a", 9))

	t.Run("WholeConfig", func(t *testing.T) {
		var target OuterSettings
		require.NoError(t, cfg.Scan("", &target))
		assert.Equal(t, "scanned", target.Name)
		assert.Equal(t, int64(9), target.Sub.A)
		assert.Equal(t, int64(2), target.Sub.B)
	})

	t.Run("Subtree", func(t *testing.T) {
		var target InnerSettings
		require.NoError(t, cfg.Scan("sub", &target))
		assert.Equal(t, int64(9), target.A)
	})

	t.Run("WeakTyping", func(t *testing.T) {
		var target struct {
			Name string `toml:"name"`
			Sub  struct {
				A string `toml:"a"`
			} `toml:"sub"`
		}
		require.NoError(t, cfg.Scan("", &target))
		assert.Equal(t, "9", target.Sub.A)
	})

	t.Run("NonPointerTarget", func(t *testing.T) {
		var target OuterSettings
		err := cfg.Scan("", target)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "non-nil pointer")
	})

	t.Run("ScalarPath", func(t *testing.T) {
		var target InnerSettings
		err := cfg.Scan("name", &target)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "non-map value")
	})
}

// TestApplyTOML tests TOML overrides through the field write protocol
func TestApplyTOML(t *testing.T) {
	t.Run("NestedTables", func(t *testing.T) {
		_, outer := newTreeSchemas()
		cfg := MustNew(outer, nil)

		err := cfg.ApplyTOML([]byte(`
name = "from toml"

[sub]
a = 9
`))
		require.NoError(t, err)

		name, _ := cfg.String("name")
		assert.Equal(t, "from toml", name)
		child, _ := cfg.Nested("sub")
		a, _ := child.Int("a")
		assert.Equal(t, int64(9), a)

		hist, err := child.History("a")
		require.NoError(t, err)
		assert.Equal(t, "load", hist[len(hist)-1].Label)
	})

	t.Run("UnknownKeyAppliesNothing", func(t *testing.T) {
		_, outer := newTreeSchemas()
		cfg := MustNew(outer, nil)

		err := cfg.ApplyTOML([]byte("name = \"x\"\nbogus = 1\n"))
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrUnknownField)

		name, _ := cfg.String("name")
		assert.Equal(t, "outer", name, "no partial application")
	})

	t.Run("CheckRejection", func(t *testing.T) {
		cfg := MustNew(newScalarSchema(), nil)
		err := cfg.ApplyTOML([]byte("count = -1\n"))
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidValue)
	})

	t.Run("ParseError", func(t *testing.T) {
		cfg := MustNew(newScalarSchema(), nil)
		err := cfg.ApplyTOML([]byte("not valid = = toml"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to parse TOML")
	})
}

// TestLoadTOMLFile tests file-based TOML overrides
func TestLoadTOMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "override.toml")
	require.NoError(t, os.WriteFile(path, []byte("count = 7\n"), 0644))

	cfg := MustNew(newScalarSchema(), nil)
	require.NoError(t, cfg.LoadTOMLFile(path))
	v, _ := cfg.Int("count")
	assert.Equal(t, int64(7), v)

	err := cfg.LoadTOMLFile(filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}
