package model

import (
	"unicode"
	"unicode/utf8"
)

// UpperFirst upper-cases the first letter of s, which may be multi-byte.
func UpperFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
