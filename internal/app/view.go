package app

import "github.com/redphin/punchlist/internal/domain"

// CategoryView holds transient, per-category display state: the "show all"
// toggle lives here, not in storage, so it never survives a reload.
type CategoryView struct {
	category domain.Category
	showAll  bool
}

// NewCategoryView wraps a category for display.
func NewCategoryView(category domain.Category) *CategoryView {
	return &CategoryView{category: category}
}

// Category returns the wrapped category.
func (v *CategoryView) Category() domain.Category {
	return v.category
}

// ShowAll reports whether the cap is currently lifted.
func (v *CategoryView) ShowAll() bool {
	return v.showAll
}

// ToggleShowAll flips the transient show-all state.
func (v *CategoryView) ToggleShowAll() {
	v.showAll = !v.showAll
}

// VisibleCount computes how many of the given items should be surfaced.
// With show-all set every eligible item counts; otherwise the sorted list is
// walked counting eligible items until the category cap is reached or the
// list is exhausted.
func (v *CategoryView) VisibleCount(items []domain.WorkItem) int {
	count := 0
	for _, item := range items {
		if !item.Active() {
			continue
		}
		count++
		if !v.showAll && count == v.category.MaxItemsShownByDefault {
			break
		}
	}
	return count
}

// VisibleItems returns the leading eligible items up to the visible count.
// Templates are never passed through here: they are always displayed in
// full, separately from the capped active list.
func (v *CategoryView) VisibleItems(items []domain.WorkItem) []domain.WorkItem {
	limit := v.VisibleCount(items)
	out := make([]domain.WorkItem, 0, limit)
	for _, item := range items {
		if !item.Active() {
			continue
		}
		out = append(out, item)
		if len(out) == limit {
			break
		}
	}
	return out
}
