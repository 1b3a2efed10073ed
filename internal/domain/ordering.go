package domain

import (
	"sort"
	"strings"
)

// CategorySortOrder resolves a category id to its sort order. Unknown or
// unset categories resolve to the default category's order.
type CategorySortOrder func(categoryID string) int

// SortWorkItems stably sorts items by priority ascending, display name
// ascending, then category sort order ascending. Ties beyond that keep
// discovery order.
func SortWorkItems(items []WorkItem, orderOf CategorySortOrder) {
	if orderOf == nil {
		orderOf = func(string) int { return 0 }
	}
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.Priority != b.Priority {
			return a.Priority < b.Priority
		}
		if c := strings.Compare(a.DisplayName, b.DisplayName); c != 0 {
			return c < 0
		}
		return orderOf(a.CategoryID) < orderOf(b.CategoryID)
	})
}

// PartitionTemplates splits a sorted item set into the active set and the
// template set, preserving relative order in both. Completed items belong
// to neither: they stay in storage but leave every list surface.
func PartitionTemplates(items []WorkItem) (active, templates []WorkItem) {
	active = make([]WorkItem, 0, len(items))
	templates = make([]WorkItem, 0)
	for _, item := range items {
		if item.IsTemplate {
			templates = append(templates, item)
			continue
		}
		if !item.Active() {
			continue
		}
		active = append(active, item)
	}
	return active, templates
}

// SortCategories orders categories by sort order ascending with display
// name as the lexical tie-break.
func SortCategories(categories []Category) {
	sort.SliceStable(categories, func(i, j int) bool {
		a, b := categories[i], categories[j]
		if a.SortOrder != b.SortOrder {
			return a.SortOrder < b.SortOrder
		}
		return a.DisplayName < b.DisplayName
	})
}
