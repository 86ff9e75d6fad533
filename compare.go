package config

import (
	"fmt"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

// Default tolerances for structural comparison of float fields.
const (
	DefaultRTol = 1e-8
	DefaultATol = 1e-8
)

// CompareOptions controls structural comparison of configs.
type CompareOptions struct {
	// Shortcut stops at the first inequality instead of reporting all.
	Shortcut bool

	// RTol and ATol are the relative and absolute tolerances applied to
	// float field comparisons.
	RTol float64
	ATol float64

	// Output, if set, receives one human-readable description per
	// inequality found.
	Output func(string)
}

// DefaultCompareOptions returns the standard comparison options:
// shortcut enabled, tolerances of 1e-8.
func DefaultCompareOptions() CompareOptions {
	return CompareOptions{Shortcut: true, RTol: DefaultRTol, ATol: DefaultATol}
}

// Compare reports whether two configs are structurally equal within
// floating-point tolerance, recursing into nested configs. Inequalities
// are described through opts.Output when set. A nil opts uses
// DefaultCompareOptions.
func (c *Config) Compare(other *Config, opts *CompareOptions) bool {
	o := DefaultCompareOptions()
	if opts != nil {
		o = *opts
	}
	name1 := c.name
	if name1 == "" {
		name1 = "config"
	}
	name2 := "config"
	if other != nil && other.name != "" {
		name2 = other.name
	}
	return compareConfigs(comparisonName(name1, name2), c, other, o)
}

// comparisonName renders a pair of field paths for inequality reports,
// collapsing them when identical.
func comparisonName(name1, name2 string) string {
	if name1 != name2 {
		return fmt.Sprintf("%s / %s", name1, name2)
	}
	return name1
}

// compareConfigs compares two configs field by field.
func compareConfigs(name string, c1, c2 *Config, o CompareOptions) bool {
	if c2 == nil {
		if o.Output != nil {
			o.Output(fmt.Sprintf("%s: comparison target is nil", name))
		}
		return false
	}
	if c1.schema != c2.schema {
		if o.Output != nil {
			o.Output(fmt.Sprintf("%s: config types do not match: %s != %s",
				name, c1.schema.name, c2.schema.name))
		}
		return false
	}

	equal := true
	for _, f := range c1.schema.Fields() {
		if !f.compare(c1, c2, o) {
			equal = false
			if o.Shortcut {
				return false
			}
		}
	}
	return equal
}

// compare compares the field's value on two instances: nested fields
// recurse into whole-config comparison, scalars go through the tolerant
// scalar primitive.
func (f *Field) compare(c1, c2 *Config, o CompareOptions) bool {
	name := comparisonName(joinNamePath(c1.name, f.name), joinNamePath(c2.name, f.name))
	if f.Type == TypeNested {
		return compareConfigs(name,
			f.getOrMakeNested(c1, nil, labelDefault),
			f.getOrMakeNested(c2, nil, labelDefault), o)
	}
	return compareScalars(name, c1.storage[f.name], c2.storage[f.name], o)
}

// compareScalars compares two scalar values, applying relative/absolute
// tolerance to floats (NaN equal to NaN) and exact equality to everything
// else.
func compareScalars(name string, v1, v2 any, o CompareOptions) bool {
	equal := cmp.Equal(v1, v2, cmpopts.EquateApprox(o.RTol, o.ATol), cmpopts.EquateNaNs())
	if !equal && o.Output != nil {
		o.Output(fmt.Sprintf("inequality in %s: %s != %s", name, renderValue(v1), renderValue(v2)))
	}
	return equal
}
