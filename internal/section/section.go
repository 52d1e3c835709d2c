// Package section holds the registry of realm sections that can be imported
// and exported one at a time.
package section

import (
	"errors"
	"fmt"

	"github.com/derhornspieler/rke2-cluster/operators/realm-console/internal/config"
	"github.com/derhornspieler/rke2-cluster/operators/realm-console/internal/model"
)

// ErrUnknownSection is returned by Lookup for names not in the registry.
var ErrUnknownSection = errors.New("unknown section")

// Section is one importable/exportable part of a realm.
type Section struct {
	// Name is the console route segment, e.g. "identity-providers".
	Name string
	// DisplayName is used in notifications, e.g. "identity providers".
	DisplayName string
	// ResourceName is the admin API resource below the realm.
	ResourceName string
	// PropertyName is the top-level key wrapping exported data.
	PropertyName string
	// SearchEnabled sections accept a search filter on export.
	SearchEnabled bool
	// Array is true when the export payload is a JSON array.
	Array bool
}

// DefaultFileName is the export file name without extension.
func (s Section) DefaultFileName() string {
	return "keycloak-" + s.PropertyName
}

// Title is DisplayName with its first letter upper-cased.
func (s Section) Title() string {
	return model.UpperFirst(s.DisplayName)
}

// Registry looks sections up by name.
type Registry struct {
	byName map[string]Section
	order  []string
}

// NewRegistry builds a registry from configured sections.
func NewRegistry(cfgs []config.SectionConfig) *Registry {
	r := &Registry{byName: make(map[string]Section, len(cfgs))}
	for _, c := range cfgs {
		display := c.DisplayName
		if display == "" {
			display = c.Name
		}
		r.byName[c.Name] = Section{
			Name:          c.Name,
			DisplayName:   display,
			ResourceName:  c.Resource,
			PropertyName:  c.Property,
			SearchEnabled: c.SearchEnabled,
			Array:         c.Array,
		}
		r.order = append(r.order, c.Name)
	}
	return r
}

// Lookup returns the section called name.
func (r *Registry) Lookup(name string) (Section, error) {
	s, ok := r.byName[name]
	if !ok {
		return Section{}, fmt.Errorf("%w: %q", ErrUnknownSection, name)
	}
	return s, nil
}

// All returns the sections in configuration order.
func (r *Registry) All() []Section {
	out := make([]Section, 0, len(r.order))
	for _, n := range r.order {
		out = append(out, r.byName[n])
	}
	return out
}
