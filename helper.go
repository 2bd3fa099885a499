// File: lixenwraith/iniconf/helper.go
package iniconf

import (
	"fmt"
	"strings"
)

// isValidKey checks that a key survives a render/parse cycle unchanged.
func isValidKey(s string) bool {
	if s == "" || s != strings.TrimSpace(s) {
		return false
	}
	if strings.ContainsAny(s, "=\r\n") {
		return false
	}
	// Would be read back as a comment or a section header
	if strings.HasPrefix(s, CommentPrefix) || strings.HasPrefix(s, "[") {
		return false
	}
	return true
}

// isValidSection checks that a section name can be written as a header line.
func isValidSection(s string) bool {
	if s == "" || s != strings.TrimSpace(s) {
		return false
	}
	return !strings.ContainsAny(s, "[]\r\n")
}

// ValidateEntry checks that section, key and value can be written and read back unchanged.
func ValidateEntry(section, key, value string) error {
	if !isValidSection(section) {
		return fmt.Errorf("%w: section %q", ErrInvalidName, section)
	}
	if !isValidKey(key) {
		return fmt.Errorf("%w: key %q", ErrInvalidName, key)
	}
	if strings.ContainsAny(value, "\r\n") {
		return fmt.Errorf("%w: value for %s.%s contains a line break", ErrConversion, section, key)
	}
	return nil
}
