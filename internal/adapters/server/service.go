package server

import (
	"context"
	"sync"

	"github.com/redphin/punchlist/internal/domain"
	"github.com/redphin/punchlist/internal/validate"
)

// WorkspaceService is the workspace surface the transports expose.
// *app.Workspace satisfies it.
type WorkspaceService interface {
	Refresh(ctx context.Context) error
	ListCategories(ctx context.Context) ([]domain.Category, error)
	ListActiveWorkItems(ctx context.Context, categoryID string) ([]domain.WorkItem, error)
	ListTemplates(ctx context.Context, categoryID string) ([]domain.WorkItem, error)
	RunValidation(ctx context.Context, subject validate.Subject) (domain.ValidationReport, error)
	FileFailuresAsWorkItems(ctx context.Context, report domain.ValidationReport) (int, error)
}

// serialized wraps a WorkspaceService so concurrent transport requests reach
// the workspace one at a time. The workspace assumes a single mutator
// thread; this keeps that true under HTTP concurrency.
type serialized struct {
	mu    sync.Mutex
	inner WorkspaceService
}

// Serialize returns a WorkspaceService that admits one call at a time.
func Serialize(inner WorkspaceService) WorkspaceService {
	return &serialized{inner: inner}
}

func (s *serialized) Refresh(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inner.Refresh(ctx)
}

func (s *serialized) ListCategories(ctx context.Context) ([]domain.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inner.ListCategories(ctx)
}

func (s *serialized) ListActiveWorkItems(ctx context.Context, categoryID string) ([]domain.WorkItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inner.ListActiveWorkItems(ctx, categoryID)
}

func (s *serialized) ListTemplates(ctx context.Context, categoryID string) ([]domain.WorkItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inner.ListTemplates(ctx, categoryID)
}

func (s *serialized) RunValidation(ctx context.Context, subject validate.Subject) (domain.ValidationReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inner.RunValidation(ctx, subject)
}

func (s *serialized) FileFailuresAsWorkItems(ctx context.Context, report domain.ValidationReport) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inner.FileFailuresAsWorkItems(ctx, report)
}
