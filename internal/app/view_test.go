package app

import (
	"testing"

	"github.com/redphin/punchlist/internal/domain"
)

func capCategory(cap int) domain.Category {
	return domain.Category{ID: "c", DisplayName: "C", MaxItemsShownByDefault: cap}
}

func activeItems(n int) []domain.WorkItem {
	out := make([]domain.WorkItem, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, domain.WorkItem{ID: string(rune('a' + i)), DisplayName: "item", CategoryID: "c"})
	}
	return out
}

func TestVisibleCountCapped(t *testing.T) {
	cases := []struct {
		cap     int
		n       int
		showAll bool
		want    int
	}{
		{cap: 3, n: 10, showAll: false, want: 3},
		{cap: 3, n: 2, showAll: false, want: 2},
		{cap: 3, n: 10, showAll: true, want: 10},
		{cap: 3, n: 0, showAll: false, want: 0},
		{cap: 1, n: 1, showAll: false, want: 1},
	}
	for _, tc := range cases {
		view := NewCategoryView(capCategory(tc.cap))
		if tc.showAll {
			view.ToggleShowAll()
		}
		if got := view.VisibleCount(activeItems(tc.n)); got != tc.want {
			t.Errorf("cap=%d n=%d showAll=%t: count = %d, want %d", tc.cap, tc.n, tc.showAll, got, tc.want)
		}
	}
}

func TestVisibleCountSkipsIneligible(t *testing.T) {
	items := activeItems(4)
	items[0].Done = true
	items[2].IsTemplate = true
	view := NewCategoryView(capCategory(5))
	if got := view.VisibleCount(items); got != 2 {
		t.Fatalf("count = %d, want 2", got)
	}
}

func TestVisibleItemsWalksSortedOrder(t *testing.T) {
	items := activeItems(5)
	items[1].Done = true
	view := NewCategoryView(capCategory(2))
	visible := view.VisibleItems(items)
	if len(visible) != 2 {
		t.Fatalf("visible = %d, want 2", len(visible))
	}
	if visible[0].ID != "a" || visible[1].ID != "c" {
		t.Fatalf("visible ids = %s %s", visible[0].ID, visible[1].ID)
	}
}

func TestToggleShowAllIsTransient(t *testing.T) {
	view := NewCategoryView(capCategory(1))
	view.ToggleShowAll()
	if !view.ShowAll() {
		t.Fatal("toggle did not set show-all")
	}
	// A fresh view over the same category starts capped again.
	if NewCategoryView(view.Category()).ShowAll() {
		t.Fatal("show-all leaked into category state")
	}
}
