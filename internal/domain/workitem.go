package domain

import (
	"strings"
	"time"
)

// DefaultPriority is assigned to work items created without an explicit
// priority. Lower values sort earlier.
const DefaultPriority = 100

// FiledFailurePriority is the elevated priority given to work items filed
// from validation failures, well below the default so they surface first.
const FiledFailurePriority = 10

// WorkItem is one trackable unit of work. A work item flagged as a template
// is excluded from the active set and acts purely as a creation prototype.
type WorkItem struct {
	ID          string
	DisplayName string
	Description string
	CategoryID  string
	Priority    int
	Done        bool
	IsTemplate  bool
	SubjectRef  string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// WorkItemInput holds creation values for a work item.
type WorkItemInput struct {
	ID          string
	DisplayName string
	Description string
	CategoryID  string
	Priority    int
	IsTemplate  bool
	SubjectRef  string
}

// NewWorkItem constructs a work item. Priority is clamped to zero or above
// and an unset category falls back to the default category.
func NewWorkItem(in WorkItemInput, now time.Time) (WorkItem, error) {
	in.ID = strings.TrimSpace(in.ID)
	in.DisplayName = strings.TrimSpace(in.DisplayName)
	in.Description = strings.TrimSpace(in.Description)
	in.CategoryID = strings.TrimSpace(in.CategoryID)

	if in.ID == "" {
		return WorkItem{}, ErrInvalidID
	}
	if in.DisplayName == "" {
		return WorkItem{}, ErrInvalidName
	}
	if in.CategoryID == "" {
		in.CategoryID = DefaultCategoryID
	}

	return WorkItem{
		ID:          in.ID,
		DisplayName: in.DisplayName,
		Description: in.Description,
		CategoryID:  in.CategoryID,
		Priority:    clampPriority(in.Priority),
		IsTemplate:  in.IsTemplate,
		SubjectRef:  strings.TrimSpace(in.SubjectRef),
		CreatedAt:   now.UTC(),
		UpdatedAt:   now.UTC(),
	}, nil
}

// Active reports whether the item belongs to the active set: templates and
// completed items are excluded.
func (w WorkItem) Active() bool {
	return !w.Done && !w.IsTemplate
}

// UpdateDetails replaces user-editable fields.
func (w *WorkItem) UpdateDetails(displayName, description string, now time.Time) error {
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		return ErrInvalidName
	}
	w.DisplayName = displayName
	w.Description = strings.TrimSpace(description)
	w.UpdatedAt = now.UTC()
	return nil
}

// SetPriority updates the priority, clamping negatives to zero.
func (w *WorkItem) SetPriority(priority int, now time.Time) {
	w.Priority = clampPriority(priority)
	w.UpdatedAt = now.UTC()
}

// SetCategory moves the item to another category, falling back to the
// default category when the id is blank.
func (w *WorkItem) SetCategory(categoryID string, now time.Time) {
	categoryID = strings.TrimSpace(categoryID)
	if categoryID == "" {
		categoryID = DefaultCategoryID
	}
	w.CategoryID = categoryID
	w.UpdatedAt = now.UTC()
}

// Complete marks the item done, removing it from the active set.
func (w *WorkItem) Complete(now time.Time) {
	w.Done = true
	w.UpdatedAt = now.UTC()
}

// Reopen clears the done flag.
func (w *WorkItem) Reopen(now time.Time) {
	w.Done = false
	w.UpdatedAt = now.UTC()
}

func clampPriority(priority int) int {
	if priority < 0 {
		return 0
	}
	return priority
}
