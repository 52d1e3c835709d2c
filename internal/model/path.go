package model

import (
	"fmt"
	"strings"
)

// ValidatePathSegment ensures a realm or file name cannot climb out of the
// directory or URL path it is joined into.
func ValidatePathSegment(s string) error {
	if s == "" || s == "." || s == ".." ||
		strings.Contains(s, "/") || strings.Contains(s, "\\") {
		return fmt.Errorf("invalid path segment: %q", s)
	}
	return nil
}
