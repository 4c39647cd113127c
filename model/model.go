package model

import "fmt"

// Filter selects which items are shown.
type Filter string

const (
	FilterAll       Filter = "all"
	FilterActive    Filter = "active"
	FilterCompleted Filter = "completed"
)

// Filters lists every filter in display order.
var Filters = []Filter{FilterAll, FilterActive, FilterCompleted}

// Valid reports whether f is one of the known filters.
func (f Filter) Valid() bool {
	switch f {
	case FilterAll, FilterActive, FilterCompleted:
		return true
	default:
		return false
	}
}

// Next returns the filter that follows f in display order.
func (f Filter) Next() Filter {
	switch f {
	case FilterAll:
		return FilterActive
	case FilterActive:
		return FilterCompleted
	default:
		return FilterAll
	}
}

// Label is the footer caption for f.
func (f Filter) Label() string {
	switch f {
	case FilterActive:
		return "Active"
	case FilterCompleted:
		return "Completed"
	default:
		return "All"
	}
}

// ParseFilter converts user input into a Filter.
func ParseFilter(s string) (Filter, error) {
	f := Filter(s)
	if !f.Valid() {
		return "", fmt.Errorf("unknown filter %q (want all, active or completed)", s)
	}
	return f, nil
}

// Item is a single to-do entry.
type Item struct {
	ID       string `json:"id"`
	Text     string `json:"text"`
	Complete bool   `json:"complete"`
	Editing  bool   `json:"editing"`
}

// Counts holds the per-filter totals shown in the footer.
type Counts struct {
	All       int `json:"all"`
	Active    int `json:"active"`
	Completed int `json:"completed"`
}

// Of returns the count matching f.
func (c Counts) Of(f Filter) int {
	switch f {
	case FilterActive:
		return c.Active
	case FilterCompleted:
		return c.Completed
	case FilterAll:
		return c.All
	default:
		return 0
	}
}

// CountItems tallies items per filter.
func CountItems(items []Item) Counts {
	c := Counts{All: len(items)}
	for _, it := range items {
		if it.Complete {
			c.Completed++
		} else {
			c.Active++
		}
	}
	return c
}

// CloneItems returns a copy of items that never shares a backing array
// with the input. A nil input yields an empty, non-nil slice.
func CloneItems(items []Item) []Item {
	out := make([]Item, len(items))
	copy(out, items)
	return out
}
