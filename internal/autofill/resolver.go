// internal/autofill/resolver.go
package autofill

import "strings"

// Resolve returns the value to type for a semantic key. A non-empty direct entry
// wins; otherwise first_name, last_name and name are derived from each other.
// The boolean is false when no value can be produced at all. A derived value may
// be empty (last_name of a single-word name), and callers must not type it.
func Resolve(key string, data Record) (string, bool) {
	if v, ok := data[key]; ok && v != "" {
		return v, true
	}

	switch key {
	case "first_name":
		if name, ok := data["name"]; ok {
			tokens := strings.Fields(name)
			if len(tokens) == 0 {
				return "", true
			}
			return tokens[0], true
		}
	case "last_name":
		if name, ok := data["name"]; ok {
			tokens := strings.Fields(name)
			if len(tokens) > 1 {
				return tokens[len(tokens)-1], true
			}
			return "", true
		}
	case "name":
		first, hasFirst := data["first_name"]
		last, hasLast := data["last_name"]
		if hasFirst && hasLast {
			return strings.TrimSpace(first + " " + last), true
		}
	}
	return "", false
}
