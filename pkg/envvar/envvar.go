// Package envvar overlays environment variables onto configuration fields.
//
// Every setter ignores an empty variable name, an unset variable, and an
// empty value, leaving the destination untouched. Numeric and boolean values
// that fail to parse are ignored the same way; validation of the final value
// belongs to the owning config.
package envvar

import (
	"os"
	"strconv"
	"strings"
)

func lookup(name string) (string, bool) {
	if name == "" {
		return "", false
	}
	v := os.Getenv(name)
	return v, v != ""
}

// String overwrites dst with the value of name.
func String(dst *string, name string) {
	if v, ok := lookup(name); ok {
		*dst = v
	}
}

// Int overwrites dst with the integer value of name.
func Int(dst *int, name string) {
	if v, ok := lookup(name); ok {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			*dst = n
		}
	}
}

// Bool overwrites dst with the boolean value of name, as accepted by strconv.ParseBool.
func Bool(dst *bool, name string) {
	if v, ok := lookup(name); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			*dst = b
		}
	}
}

// List overwrites dst with the comma-separated items of name.
// Items are trimmed and empty items dropped.
func List(dst *[]string, name string) {
	if v, ok := lookup(name); ok {
		*dst = Split(v)
	}
}

// Split breaks a comma-separated list into trimmed, non-empty items.
func Split(v string) []string {
	items := strings.Split(v, ",")
	out := make([]string, 0, len(items))
	for _, item := range items {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
