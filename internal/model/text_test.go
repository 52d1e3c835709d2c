package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUpperFirst(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"nothing to import", "Nothing to import"},
		{"éléments", "Éléments"},
		{"Already", "Already"},
		{"1 record", "1 record"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, UpperFirst(tt.in), tt.in)
	}
}

func TestValidatePathSegment(t *testing.T) {
	for _, ok := range []string{"demo", "my-realm", "a.b", "..."} {
		assert.NoError(t, ValidatePathSegment(ok), ok)
	}
	for _, bad := range []string{"", ".", "..", "../x", "a/b", `a\b`} {
		assert.Error(t, ValidatePathSegment(bad), bad)
	}
}
