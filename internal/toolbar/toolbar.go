// Package toolbar holds the sort and filter state shared by the account
// list pages.
package toolbar

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/derhornspieler/rke2-cluster/operators/realm-console/internal/model"
)

// View modes of a list page.
const (
	ViewLargeCards = "LargeCards"
	ViewSmallCards = "SmallCards"
	ViewList       = "List"
)

const selectedClass = "selected"

// Item is a list entry the toolbar can filter and sort.
type Item interface {
	Property(name string) any
}

// Toolbar is the sort/filter state of one list.
type Toolbar struct {
	SelectableProps []string
	SortAscending   bool
	SortBy          string
	FilterBy        string
	FilterText      string
	ActiveView      string
}

// New returns an ascending toolbar sorting and filtering by the first of
// props, when there is one.
func New(props []string) *Toolbar {
	t := &Toolbar{
		SelectableProps: slices.Clone(props),
		SortAscending:   true,
		ActiveView:      ViewLargeCards,
	}
	if len(props) > 0 {
		t.SortBy = props[0]
		t.FilterBy = props[0]
	}
	return t
}

// ToggleSort flips the sort direction.
func (t *Toolbar) ToggleSort() {
	t.SortAscending = !t.SortAscending
}

// ChangeSortByProp sorts by prop.
func (t *Toolbar) ChangeSortByProp(prop string) {
	t.SortBy = prop
}

// ChangeFilterByProp filters by prop and clears the filter text.
func (t *Toolbar) ChangeFilterByProp(prop string) {
	t.FilterBy = prop
	t.FilterText = ""
}

// ChangeView selects a view mode. Unknown modes are rejected.
func (t *Toolbar) ChangeView(view string) error {
	if !ValidView(view) {
		return fmt.Errorf("unknown view %q", view)
	}
	t.ActiveView = view
	return nil
}

// ValidView reports whether view is a known view mode.
func ValidView(view string) bool {
	switch view {
	case ViewLargeCards, ViewSmallCards, ViewList:
		return true
	}
	return false
}

// Capitalize upper-cases the first letter of prop.
func Capitalize(prop string) string {
	return model.UpperFirst(prop)
}

// SelectedFilterClass returns "selected" for the active filter property.
func (t *Toolbar) SelectedFilterClass(prop string) string {
	if t.FilterBy == prop {
		return selectedClass
	}
	return ""
}

// SelectedSortByClass returns "selected" for the active sort property.
func (t *Toolbar) SelectedSortByClass(prop string) string {
	if t.SortBy == prop {
		return selectedClass
	}
	return ""
}

// View renders the toolbar state.
func (t *Toolbar) View() model.ToolbarView {
	return model.ToolbarView{
		SelectableProps: slices.Clone(t.SelectableProps),
		SortAscending:   t.SortAscending,
		SortBy:          t.SortBy,
		FilterBy:        t.FilterBy,
		FilterText:      t.FilterText,
		ActiveView:      t.ActiveView,
	}
}

// Apply returns the items matching the filter text, sorted by the sort
// property. items is never modified.
func Apply[T Item](t *Toolbar, items []T) []T {
	out := make([]T, 0, len(items))
	needle := strings.ToLower(t.FilterText)
	for _, it := range items {
		if needle == "" || strings.Contains(strings.ToLower(text(it.Property(t.FilterBy))), needle) {
			out = append(out, it)
		}
	}

	if t.SortBy == "" {
		return out
	}
	slices.SortStableFunc(out, func(a, b T) int {
		c := compare(a.Property(t.SortBy), b.Property(t.SortBy))
		if !t.SortAscending {
			return -c
		}
		return c
	})
	return out
}

func text(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// compare orders numbers numerically and everything else as
// case-insensitive text. Missing values sort first.
func compare(a, b any) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	if x, ok := number(a); ok {
		if y, ok := number(b); ok {
			return cmp.Compare(x, y)
		}
	}
	return strings.Compare(strings.ToLower(text(a)), strings.ToLower(text(b)))
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
