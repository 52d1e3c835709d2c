package partialimport

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// Category is one importable collection of a realm export.
type Category string

const (
	CategoryUsers             Category = "users"
	CategoryClients           Category = "clients"
	CategoryIdentityProviders Category = "identityProviders"
	CategoryRealmRoles        Category = "realmRoles"
	CategoryClientRoles       Category = "clientRoles"
)

// Categories lists every category in display order.
var Categories = []Category{
	CategoryUsers,
	CategoryClients,
	CategoryIdentityProviders,
	CategoryRealmRoles,
	CategoryClientRoles,
}

// ParseCategory maps a toggle name to its category.
func ParseCategory(s string) (Category, error) {
	for _, c := range Categories {
		if string(c) == s {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCategory, s)
}

const (
	keyRoles            = "roles"
	keyRealm            = "realm"
	keyClient           = "client"
	keyIfResourceExists = "ifResourceExists"
)

// Document is a parsed realm export normalised to a single realm.
type Document struct {
	fields map[string]any
	// MultiRealm is set when the file held several realms. Only the first
	// one is ever imported.
	MultiRealm bool
}

// Parse decodes raw file text. A non-empty top-level array is a multi-realm
// export and is reduced to its first element.
func Parse(raw []byte) (*Document, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedFile, err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("%w: trailing data after JSON value", ErrMalformedFile)
	}

	doc := &Document{}
	switch t := v.(type) {
	case map[string]any:
		doc.fields = t
	case []any:
		if len(t) == 0 {
			return nil, ErrNotRealm
		}
		first, ok := t[0].(map[string]any)
		if !ok {
			return nil, ErrNotRealm
		}
		doc.fields = first
		doc.MultiRealm = true
	default:
		return nil, ErrNotRealm
	}
	return doc, nil
}

// RealmName returns the "realm" field of the document, if any.
func (d *Document) RealmName() string {
	s, _ := d.fields[keyRealm].(string)
	return s
}

// Present reports whether c exists in the document and is non-empty.
func (d *Document) Present(c Category) bool {
	if c == CategoryClientRoles {
		m, ok := d.clientRoles()
		return ok && len(m) > 0
	}
	arr, ok := d.collection(c)
	return ok && len(arr) > 0
}

// Count returns the number of records of c in the document.
func (d *Document) Count(c Category) int {
	if c == CategoryClientRoles {
		m, _ := d.clientRoles()
		n := 0
		for _, roles := range m {
			if arr, ok := roles.([]any); ok {
				n += len(arr)
			}
		}
		return n
	}
	arr, _ := d.collection(c)
	return len(arr)
}

func (d *Document) collection(c Category) ([]any, bool) {
	var v any
	switch c {
	case CategoryUsers, CategoryClients, CategoryIdentityProviders:
		v = d.fields[string(c)]
	case CategoryRealmRoles:
		roles, ok := d.fields[keyRoles].(map[string]any)
		if !ok {
			return nil, false
		}
		v = roles[keyRealm]
	default:
		return nil, false
	}
	arr, ok := v.([]any)
	return arr, ok
}

func (d *Document) clientRoles() (map[string]any, bool) {
	roles, ok := d.fields[keyRoles].(map[string]any)
	if !ok {
		return nil, false
	}
	m, ok := roles[keyClient].(map[string]any)
	return m, ok
}

// Fields returns a deep copy of the working document.
func (d *Document) Fields() map[string]any {
	return deepCopy(d.fields).(map[string]any)
}

// Filtered returns a deep copy of the document keeping only the enabled
// categories, with the collision policy attached. Fields that are not
// categories are kept as they are.
func (d *Document) Filtered(enabled map[Category]bool, policy Policy) map[string]any {
	out := d.Fields()

	for _, c := range []Category{CategoryUsers, CategoryClients, CategoryIdentityProviders} {
		if !enabled[c] {
			delete(out, string(c))
		}
	}

	realmOn, clientOn := enabled[CategoryRealmRoles], enabled[CategoryClientRoles]
	if roles, ok := out[keyRoles].(map[string]any); ok {
		if !realmOn {
			delete(roles, keyRealm)
		}
		if !clientOn {
			delete(roles, keyClient)
		}
	}
	if !realmOn && !clientOn {
		delete(out, keyRoles)
	}

	out[keyIfResourceExists] = string(policy)
	return out
}

func deepCopy(v any) any {
	switch t := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, val := range t {
			m[k] = deepCopy(val)
		}
		return m
	case []any:
		s := make([]any, len(t))
		for i, val := range t {
			s[i] = deepCopy(val)
		}
		return s
	default:
		return t
	}
}
