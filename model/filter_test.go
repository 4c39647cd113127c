package model

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"pgregory.net/rapid"
)

// itemsGenerator draws item lists with unique ids.
func itemsGenerator() *rapid.Generator[[]Item] {
	return rapid.Custom(func(t *rapid.T) []Item {
		n := rapid.IntRange(0, 30).Draw(t, "n")
		items := make([]Item, n)
		for i := range items {
			items[i] = Item{
				ID:       fmt.Sprintf("id-%d", i),
				Text:     rapid.StringMatching(`[A-Za-z ]{1,20}`).Draw(t, "text"),
				Complete: rapid.Bool().Draw(t, "complete"),
				Editing:  rapid.Bool().Draw(t, "editing"),
			}
		}
		return items
	})
}

func TestFilterItemsScenario(t *testing.T) {
	items := []Item{
		{ID: "1", Text: "Buy milk"},
		{ID: "2", Text: "Pay rent", Complete: true},
		{ID: "3", Text: "Read book"},
	}

	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{"all", FilterAll, []string{"1", "2", "3"}},
		{"active", FilterActive, []string{"1", "3"}},
		{"completed", FilterCompleted, []string{"2"}},
		{"unknown", Filter("bogus"), []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterItems(tt.filter, items)
			ids := make([]string, 0, len(got))
			for _, it := range got {
				ids = append(ids, it.ID)
			}
			if diff := cmp.Diff(tt.want, ids); diff != "" {
				t.Fatalf("unexpected ids (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFilterItemsReturnsFreshSlice(t *testing.T) {
	items := []Item{{ID: "1", Text: "a"}}
	got := FilterItems(FilterAll, items)
	got[0].Text = "changed"
	if items[0].Text != "a" {
		t.Fatalf("filter result aliases the input")
	}
}

func TestFilterAllIsIdentity(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		items := itemsGenerator().Draw(t, "items")
		got := FilterItems(FilterAll, items)
		if diff := cmp.Diff(CloneItems(items), got); diff != "" {
			t.Fatalf("filter(all) changed the list (-want +got):\n%s", diff)
		}
	})
}

func TestFilterPreservesRelativeOrder(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		items := itemsGenerator().Draw(t, "items")
		mode := rapid.SampledFrom(Filters).Draw(t, "mode")

		position := make(map[string]int, len(items))
		for i, it := range items {
			position[it.ID] = i
		}
		got := FilterItems(mode, items)
		for i := 1; i < len(got); i++ {
			if position[got[i-1].ID] >= position[got[i].ID] {
				t.Fatalf("order broken at %d for filter %s: %+v", i, mode, got)
			}
		}
	})
}

func TestActiveAndCompletedPartitionTheList(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		items := itemsGenerator().Draw(t, "items")
		active := FilterItems(FilterActive, items)
		completed := FilterItems(FilterCompleted, items)

		if len(active)+len(completed) != len(items) {
			t.Fatalf("sizes do not add up: active=%d completed=%d total=%d", len(active), len(completed), len(items))
		}
		seen := make(map[string]bool, len(items))
		for _, it := range active {
			if it.Complete {
				t.Fatalf("completed item %q in active view", it.ID)
			}
			seen[it.ID] = true
		}
		for _, it := range completed {
			if !it.Complete {
				t.Fatalf("active item %q in completed view", it.ID)
			}
			if seen[it.ID] {
				t.Fatalf("item %q in both views", it.ID)
			}
			seen[it.ID] = true
		}
		if len(seen) != len(items) {
			t.Fatalf("views do not cover the list: %d of %d", len(seen), len(items))
		}
	})
}

func TestCountsMatchFilterSizes(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		items := itemsGenerator().Draw(t, "items")
		c := CountItems(items)
		for _, f := range Filters {
			if c.Of(f) != len(FilterItems(f, items)) {
				t.Fatalf("count for %s = %d, filter returned %d", f, c.Of(f), len(FilterItems(f, items)))
			}
		}
	})
}
