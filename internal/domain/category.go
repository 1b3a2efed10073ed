package domain

import (
	"strings"
	"time"
)

// Well-known category identifiers. DefaultCategoryID is the fallback bucket for
// work items created without a category; QualityCategoryID receives items filed
// from validation failures.
const (
	DefaultCategoryID = "default"
	QualityCategoryID = "quality"
)

// defaultMaxItemsShown caps how many items a category surfaces before the
// caller opts into showing all of them.
const defaultMaxItemsShown = 5

// Category is a named grouping bucket for work items.
type Category struct {
	ID                     string
	DisplayName            string
	Description            string
	SortOrder              int
	AlwaysVisible          bool
	MaxItemsShownByDefault int
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

// CategoryInput holds creation values for a category.
type CategoryInput struct {
	ID                     string
	DisplayName            string
	Description            string
	SortOrder              int
	AlwaysVisible          bool
	MaxItemsShownByDefault int
}

// NewCategory constructs a category, clamping the item cap to at least one.
func NewCategory(in CategoryInput, now time.Time) (Category, error) {
	in.ID = strings.TrimSpace(in.ID)
	in.DisplayName = strings.TrimSpace(in.DisplayName)
	in.Description = strings.TrimSpace(in.Description)

	if in.ID == "" {
		return Category{}, ErrInvalidID
	}
	if in.DisplayName == "" {
		return Category{}, ErrInvalidName
	}
	if in.MaxItemsShownByDefault < 1 {
		in.MaxItemsShownByDefault = defaultMaxItemsShown
	}

	return Category{
		ID:                     in.ID,
		DisplayName:            in.DisplayName,
		Description:            in.Description,
		SortOrder:              in.SortOrder,
		AlwaysVisible:          in.AlwaysVisible,
		MaxItemsShownByDefault: in.MaxItemsShownByDefault,
		CreatedAt:              now.UTC(),
		UpdatedAt:              now.UTC(),
	}, nil
}

// UpdateDetails replaces display metadata.
func (c *Category) UpdateDetails(displayName, description string, sortOrder int, now time.Time) error {
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		return ErrInvalidName
	}
	c.DisplayName = displayName
	c.Description = strings.TrimSpace(description)
	c.SortOrder = sortOrder
	c.UpdatedAt = now.UTC()
	return nil
}

// SetMaxItemsShown updates the display cap, clamping to at least one.
func (c *Category) SetMaxItemsShown(n int, now time.Time) {
	if n < 1 {
		n = 1
	}
	c.MaxItemsShownByDefault = n
	c.UpdatedAt = now.UTC()
}
