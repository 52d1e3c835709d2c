package partialimport

import (
	"fmt"
	"strings"
)

// Policy decides what Keycloak does when an imported record already exists.
type Policy string

const (
	PolicyFail      Policy = "FAIL"
	PolicySkip      Policy = "SKIP"
	PolicyOverwrite Policy = "OVERWRITE"
)

// ParsePolicy accepts FAIL, SKIP or OVERWRITE in any case. The empty string
// yields PolicyFail.
func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(strings.ToUpper(strings.TrimSpace(s))); p {
	case "":
		return PolicyFail, nil
	case PolicyFail, PolicySkip, PolicyOverwrite:
		return p, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidPolicy, s)
	}
}

// Skip reports the simple two-flag view of p.
func (p Policy) Skip() bool {
	return p == PolicySkip
}

// Overwrite reports the simple two-flag view of p.
func (p Policy) Overwrite() bool {
	return p == PolicyOverwrite
}

// withSkip returns the policy after the skip flag was set to on.
// Turning skip on clears overwrite.
func (p Policy) withSkip(on bool) Policy {
	switch {
	case on:
		return PolicySkip
	case p == PolicySkip:
		return PolicyFail
	default:
		return p
	}
}

// withOverwrite returns the policy after the overwrite flag was set to on.
// Turning overwrite on clears skip.
func (p Policy) withOverwrite(on bool) Policy {
	switch {
	case on:
		return PolicyOverwrite
	case p == PolicyOverwrite:
		return PolicyFail
	default:
		return p
	}
}
