package app

import (
	"context"

	"github.com/redphin/punchlist/internal/domain"
)

// Repository persists categories and work items. Implementations are
// expected to keep writes visible to subsequent list calls.
type Repository interface {
	CreateCategory(context.Context, domain.Category) error
	UpdateCategory(context.Context, domain.Category) error
	GetCategory(context.Context, string) (domain.Category, error)
	ListCategories(context.Context) ([]domain.Category, error)
	DeleteCategory(context.Context, string) error

	CreateWorkItem(context.Context, domain.WorkItem) error
	UpdateWorkItem(context.Context, domain.WorkItem) error
	GetWorkItem(context.Context, string) (domain.WorkItem, error)
	ListWorkItems(context.Context) ([]domain.WorkItem, error)
	DeleteWorkItem(context.Context, string) error
}

// Notifier surfaces blocking user-facing dialogs: one-way notices and
// two-option confirmations.
type Notifier interface {
	Notify(title, message string)
	Confirm(title, message, optionA, optionB string) bool
}
