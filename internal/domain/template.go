package domain

import (
	"strings"
	"time"
)

// legacyTemplateSuffix marks template items in data written before the
// explicit template flag existed.
const legacyTemplateSuffix = "template"

// HasTemplateSuffix reports whether a display name carries the legacy
// template suffix, case-insensitively.
func HasTemplateSuffix(name string) bool {
	return strings.HasSuffix(strings.ToLower(strings.TrimSpace(name)), legacyTemplateSuffix)
}

// FlagLegacyTemplates sets the template flag on items whose name still uses
// the suffix convention, so older data partitions the same way.
func FlagLegacyTemplates(items []WorkItem) {
	for i := range items {
		if !items[i].IsTemplate && HasTemplateSuffix(items[i].DisplayName) {
			items[i].IsTemplate = true
		}
	}
}

// Materialize creates a concrete work item from a template, copying the
// template's seed fields onto a fresh instance in the same category. The
// legacy suffix is stripped from the seed name so the new item is never
// mistaken for a template on reload.
func Materialize(template WorkItem, id string, now time.Time) (WorkItem, error) {
	if !template.IsTemplate {
		return WorkItem{}, ErrNotTemplate
	}
	name := strings.TrimSpace(trimLegacySuffix(template.DisplayName))
	if name == "" {
		name = template.DisplayName
	}
	return NewWorkItem(WorkItemInput{
		ID:          id,
		DisplayName: name,
		Description: template.Description,
		CategoryID:  template.CategoryID,
		Priority:    template.Priority,
	}, now)
}

func trimLegacySuffix(name string) string {
	trimmed := strings.TrimSpace(name)
	if !HasTemplateSuffix(trimmed) {
		return trimmed
	}
	return trimmed[:len(trimmed)-len(legacyTemplateSuffix)]
}

// ResetTemplate blanks the template's seed fields so the creation form is
// ready for reuse. The category binding and template flag are kept.
func ResetTemplate(template *WorkItem, now time.Time) error {
	if !template.IsTemplate {
		return ErrNotTemplate
	}
	template.Description = ""
	template.Priority = DefaultPriority
	template.UpdatedAt = now.UTC()
	return nil
}
