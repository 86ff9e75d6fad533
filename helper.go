package config

import "strings"

// joinNamePath generates a nested configuration name from a prefix and a
// field name. Either part may be empty, but not both.
func joinNamePath(prefix, name string) string {
	if prefix == "" && name == "" {
		return ""
	}
	if prefix == "" {
		return name
	}
	if name == "" {
		return prefix
	}
	return prefix + "." + name
}

// docWidth is the wrap column for field documentation comments in saved
// scripts.
const docWidth = 78

// wrapDoc splits a documentation string into comment lines no longer than
// docWidth characters (including the comment prefix), breaking on spaces.
// Explicit newlines in the doc are preserved.
func wrapDoc(doc, prefix string) []string {
	if doc == "" {
		return nil
	}
	limit := docWidth - len(prefix)
	if limit < 1 {
		limit = 1
	}

	var lines []string
	for _, para := range strings.Split(doc, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			lines = append(lines, prefix)
			continue
		}
		line := words[0]
		for _, w := range words[1:] {
			if len(line)+1+len(w) > limit {
				lines = append(lines, prefix+line)
				line = w
				continue
			}
			line += " " + w
		}
		lines = append(lines, prefix+line)
	}
	return lines
}

// isValidFieldName checks if a field name is usable both as a map key and
// as an identifier in saved override scripts.
func isValidFieldName(s string) bool {
	if len(s) == 0 {
		return false
	}
	for i, r := range s {
		isLetter := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		isDigit := r >= '0' && r <= '9'
		isUnderscore := r == '_'

		if i == 0 && isDigit {
			return false
		}
		if !(isLetter || isDigit || isUnderscore) {
			return false
		}
	}
	return true
}

// flattenMap converts a nested map to a flat map with dot-notation paths.
func flattenMap(nested map[string]any, prefix string) map[string]any {
	flat := make(map[string]any)

	for key, value := range nested {
		path := key
		if prefix != "" {
			path = prefix + "." + key
		}

		if nestedMap, isMap := value.(map[string]any); isMap {
			for subPath, subValue := range flattenMap(nestedMap, path) {
				flat[subPath] = subValue
			}
		} else {
			flat[path] = value
		}
	}

	return flat
}
