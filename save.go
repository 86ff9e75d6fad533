package config

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"
)

// maxExactInt is the largest integer the script number type (a 64-bit
// float) represents exactly. Saved integers beyond it reload rounded.
const maxExactInt = int64(1) << 53

// SaveToWriter serializes the config as an executable override script.
// Loading the result into a default-constructed config of the same
// schema reproduces every current value. The config is addressed as
// root throughout (nested names included), so the script loads back
// under the same binding.
func (c *Config) SaveToWriter(w io.Writer, root string) error {
	old := c.name
	c.rename(root)
	defer c.rename(old)

	var buf bytes.Buffer

	if c.schema.module != "" {
		fmt.Fprintf(&buf, "require(%s)\n", quoteLua(c.schema.module))
	}
	for _, name := range sortedImports(c) {
		fmt.Fprintf(&buf, "require(%s)\n", quoteLua(name))
	}
	if buf.Len() > 0 {
		buf.WriteByte('\n')
	}

	fmt.Fprintf(&buf, "assert(schemaname(%s) == %s, %s .. schemaname(%s))\n",
		root, quoteLua(c.schema.name),
		quoteLua("config is of type "), root)

	writeFields(&buf, c)

	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("failed to write config script: %w", err)
	}
	return nil
}

// sortedImports returns the recorded script modules that are still
// registered, in stable order. Modules unregistered since the load are
// skipped, as a require for them would fail on load.
func sortedImports(c *Config) []string {
	names := make([]string, 0, len(c.imports))
	for name := range c.imports {
		if ModuleRegistered(name) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// writeFields emits doc comments and assignment statements for every
// field of the config, in schema declaration order. Nested fields
// recurse under their dotted name.
func writeFields(buf *bytes.Buffer, c *Config) {
	for _, f := range c.schema.Fields() {
		buf.WriteByte('\n')
		for _, line := range wrapDoc(f.Doc, "-- ") {
			buf.WriteString(line)
			buf.WriteByte('\n')
		}
		if f.Type == TypeNested {
			child := f.getOrMakeNested(c, nil, labelDefault)
			writeFields(buf, child)
			continue
		}
		path := joinNamePath(c.name, f.name)
		if n, ok := c.storage[f.name].(int64); ok && (n > maxExactInt || n < -maxExactInt) {
			warnf("warning: %s=%d exceeds the exact integer range of the script number type and will lose precision on reload", path, n)
		}
		fmt.Fprintf(buf, "%s=%s\n", path, luaLiteral(c.storage[f.name]))
	}
}

// luaLiteral renders a stored field value as a Lua expression that
// evaluates back to the same value. Non-finite floats round-trip via
// division expressions, which produce true IEEE infinities and NaN in
// the script interpreter.
func luaLiteral(v any) string {
	switch x := v.(type) {
	case nil:
		return "nil"
	case bool:
		if x {
			return "true"
		}
		return "false"
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return floatLiteral(x)
	case complex128:
		return fmt.Sprintf("complex(%s, %s)", floatLiteral(real(x)), floatLiteral(imag(x)))
	case string:
		return quoteLua(x)
	default:
		return quoteLua(fmt.Sprintf("%v", x))
	}
}

func floatLiteral(f float64) string {
	switch {
	case math.IsNaN(f):
		return "(0/0)"
	case math.IsInf(f, 1):
		return "(1/0)"
	case math.IsInf(f, -1):
		return "(-1/0)"
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// quoteLua renders a string as a double-quoted Lua literal. Bytes
// outside printable ASCII are escaped as zero-padded decimal escapes;
// the padding matters because Lua consumes up to three digits after
// the backslash, so an unpadded escape would swallow a following
// literal digit.
func quoteLua(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch ch {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			if ch < 0x20 || ch > 0x7e {
				b.WriteString(fmt.Sprintf(`\%03d`, ch))
			} else {
				b.WriteByte(ch)
			}
		}
	}
	b.WriteByte('"')
	return b.String()
}
