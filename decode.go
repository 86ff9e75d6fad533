package config

import (
	"fmt"
	"os"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/mitchellh/mapstructure"
)

// Scan decodes the config's current values into a target struct. Field
// names match struct fields via the "toml" tag. basePath selects a
// nested config to decode from; empty decodes the whole config.
func (c *Config) Scan(basePath string, target any) error {
	rv := reflect.ValueOf(target)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return fmt.Errorf("scan target must be non-nil pointer, got %T", target)
	}

	section := any(c.ToDict())
	if basePath != "" {
		for _, seg := range strings.Split(basePath, ".") {
			m, ok := section.(map[string]any)
			if !ok {
				return fmt.Errorf("path %q refers to non-map value (type %T)", basePath, section)
			}
			section = m[seg]
		}
	}
	sectionMap, ok := section.(map[string]any)
	if !ok {
		if section == nil {
			sectionMap = make(map[string]any)
		} else {
			return fmt.Errorf("path %q refers to non-map value (type %T)", basePath, section)
		}
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		TagName:          "toml",
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToTimeHookFunc(time.RFC3339),
			mapstructure.StringToSliceHookFunc(","),
		),
		ZeroFields: true,
	})
	if err != nil {
		return fmt.Errorf("decoder creation failed: %w", err)
	}

	if err := decoder.Decode(sectionMap); err != nil {
		return fmt.Errorf("decode failed for path %q: %w", basePath, err)
	}
	return nil
}

// LoadTOMLFile applies overrides from a TOML file. Keys use the TOML
// table structure to address nested fields. Every applied value runs
// the field write protocol with the "load" label, and unknown keys are
// rejected before any value is applied.
func (c *Config) LoadTOMLFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	return c.ApplyTOML(data)
}

// ApplyTOML applies overrides from TOML source text.
func (c *Config) ApplyTOML(data []byte) error {
	var nested map[string]any
	if err := toml.Unmarshal(data, &nested); err != nil {
		return fmt.Errorf("failed to parse TOML data: %w", err)
	}

	flat := flattenMap(nested, "")
	paths := make([]string, 0, len(flat))
	for path := range flat {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	at := callerOrigin(1)
	for _, path := range paths {
		if _, _, err := c.resolvePath(path); err != nil {
			return err
		}
	}
	for _, path := range paths {
		target, f, err := c.resolvePath(path)
		if err != nil {
			return err
		}
		if err := f.set(target, flat[path], at, labelLoad); err != nil {
			return err
		}
	}
	return nil
}

// resolvePath walks a dot-notation path down nested configs and returns
// the owning config and the leaf field.
func (c *Config) resolvePath(path string) (*Config, *Field, error) {
	target := c
	segs := strings.Split(path, ".")
	for i, seg := range segs {
		f, ok := target.schema.Field(seg)
		if !ok {
			return nil, nil, fmt.Errorf("%w: no field of name %q exists in config type %s",
				ErrUnknownField, seg, target.schema.name)
		}
		if i == len(segs)-1 {
			return target, f, nil
		}
		if f.Type != TypeNested {
			return nil, nil, fmt.Errorf("%w: field %q in config type %s is not a nested config",
				ErrInvalidType, seg, target.schema.name)
		}
		target = f.getOrMakeNested(target, callerOrigin(2), labelDefault)
	}
	return nil, nil, fmt.Errorf("%w: empty field path", ErrUnknownField)
}
