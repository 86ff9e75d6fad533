package config

import (
	"fmt"
	"strings"
)

// History labels recorded by the standard mutation paths.
const (
	labelDefault    = "default"
	labelAssignment = "assignment"
	labelUpdate     = "update"
	labelDeletion   = "deletion"
	labelLoad       = "load"
)

// HistoryEntry records a single value transition of a field: the value
// after coercion, the call site that made the change, and a free-text
// label describing the kind of change ("default", "assignment", "update",
// "deletion", "load").
type HistoryEntry struct {
	Value  any
	Origin Origin
	Label  string
}

// History returns the mutation history of the named field, oldest first.
// The returned slice is a copy; the recorded history is append-only and
// never truncated.
func (c *Config) History(name string) ([]HistoryEntry, error) {
	if !c.schema.Has(name) {
		return nil, fmt.Errorf("%w: no field of name %q exists in config type %s",
			ErrUnknownField, name, c.schema.name)
	}
	hist := c.history[name]
	out := make([]HistoryEntry, len(hist))
	copy(out, hist)
	return out, nil
}

// FormatHistory renders the named field's history in a human-readable
// form, one transition per line with the innermost call site.
func (c *Config) FormatHistory(name string) (string, error) {
	hist, err := c.History(name)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", joinNamePath(c.name, name))
	for _, entry := range hist {
		site := "unknown"
		if len(entry.Origin) > 0 {
			site = entry.Origin[0].String()
		}
		fmt.Fprintf(&b, "  %-12s %-24v %s\n", entry.Label, renderValue(entry.Value), site)
	}
	return b.String(), nil
}

// renderValue formats a history or projection value for display.
func renderValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "<nil>"
	case string:
		return fmt.Sprintf("%q", val)
	case *Config:
		return fmt.Sprintf("<%s>", val.schema.name)
	default:
		return fmt.Sprintf("%v", val)
	}
}
