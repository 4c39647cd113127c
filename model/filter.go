package model

// FilterItems returns the items that pass f, in their original order.
// The result is always a new slice. Unknown filters pass nothing.
func FilterItems(f Filter, items []Item) []Item {
	out := make([]Item, 0, len(items))
	for _, it := range items {
		if Matches(f, it) {
			out = append(out, it)
		}
	}
	return out
}

// Matches reports whether a single item passes f.
func Matches(f Filter, it Item) bool {
	switch f {
	case FilterAll:
		return true
	case FilterActive:
		return !it.Complete
	case FilterCompleted:
		return it.Complete
	default:
		return false
	}
}
