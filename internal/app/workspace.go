package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/redphin/punchlist/internal/domain"
	"github.com/redphin/punchlist/internal/validate"
)

// IDGenerator returns unique identifiers for new entities.
type IDGenerator func() string

// Clock returns the current time.
type Clock func() time.Time

// WorkspaceConfig holds configuration for the workspace service.
type WorkspaceConfig struct {
	// FiledPriority is assigned to work items filed from validation
	// failures. Zero means the built-in elevated default.
	FiledPriority int
	// SkipContractAfterRequired is forwarded to the validation engine.
	SkipContractAfterRequired bool
	// DefaultCategoryName and QualityCategoryName override the display
	// names of the well-known categories when they are first created.
	DefaultCategoryName string
	QualityCategoryName string
	Logger              *log.Logger
}

// Workspace owns the loaded category and work item sets and is the single
// entry point for every operation on them. All methods must be driven from
// one goroutine; the model has exactly one mutator thread and no background
// writers.
type Workspace struct {
	repo     Repository
	engine   *validate.Engine
	notifier Notifier
	idGen    IDGenerator
	clock    Clock
	logger   *log.Logger

	filedPriority int
	defaultName   string
	qualityName   string

	loaded     bool
	categories []domain.Category
	active     []domain.WorkItem
	templates  []domain.WorkItem
	orderIndex map[string]int
}

// NewWorkspace constructs the workspace service over its ports.
func NewWorkspace(repo Repository, finder validate.Finder, notifier Notifier, idGen IDGenerator, clock Clock, cfg WorkspaceConfig) *Workspace {
	if idGen == nil {
		idGen = func() string { return "" }
	}
	if clock == nil {
		clock = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	if cfg.FiledPriority <= 0 {
		cfg.FiledPriority = domain.FiledFailurePriority
	}
	if strings.TrimSpace(cfg.DefaultCategoryName) == "" {
		cfg.DefaultCategoryName = "Default"
	}
	if strings.TrimSpace(cfg.QualityCategoryName) == "" {
		cfg.QualityCategoryName = "Quality"
	}

	engine := validate.New(finder, validate.Clock(clock), validate.Options{
		SkipContractAfterRequired: cfg.SkipContractAfterRequired,
		Logger:                    logger,
	})

	return &Workspace{
		repo:          repo,
		engine:        engine,
		notifier:      notifier,
		idGen:         idGen,
		clock:         clock,
		logger:        logger,
		filedPriority: cfg.FiledPriority,
		defaultName:   cfg.DefaultCategoryName,
		qualityName:   cfg.QualityCategoryName,
	}
}

// Load reads the full category and work item sets from the repository,
// applies the global ordering, and partitions templates out of the active
// set. Items referencing a deleted category fall back to the default
// category here.
func (w *Workspace) Load(ctx context.Context) error {
	if err := w.ensureWellKnownCategories(ctx); err != nil {
		return err
	}

	categories, err := w.repo.ListCategories(ctx)
	if err != nil {
		return fmt.Errorf("list categories: %w", err)
	}
	domain.SortCategories(categories)

	orderIndex := make(map[string]int, len(categories))
	for _, category := range categories {
		orderIndex[category.ID] = category.SortOrder
	}

	items, err := w.repo.ListWorkItems(ctx)
	if err != nil {
		return fmt.Errorf("list work items: %w", err)
	}
	domain.FlagLegacyTemplates(items)
	for i := range items {
		if _, known := orderIndex[items[i].CategoryID]; !known {
			items[i].CategoryID = domain.DefaultCategoryID
		}
	}

	defaultOrder := orderIndex[domain.DefaultCategoryID]
	domain.SortWorkItems(items, func(categoryID string) int {
		if order, ok := orderIndex[categoryID]; ok {
			return order
		}
		return defaultOrder
	})
	active, templates := domain.PartitionTemplates(items)

	w.categories = categories
	w.active = active
	w.templates = templates
	w.orderIndex = orderIndex
	w.loaded = true
	return nil
}

// Refresh re-reads everything from storage. Called after any structural
// mutation so new state is visible immediately.
func (w *Workspace) Refresh(ctx context.Context) error {
	return w.Load(ctx)
}

// ensureWellKnownCategories creates the default and quality categories when
// they are missing, so category fallback and failure filing always have a
// target.
func (w *Workspace) ensureWellKnownCategories(ctx context.Context) error {
	wellKnown := []domain.CategoryInput{
		{ID: domain.DefaultCategoryID, DisplayName: w.defaultName, Description: "Fallback bucket for uncategorized items", SortOrder: 0, AlwaysVisible: true},
		{ID: domain.QualityCategoryID, DisplayName: w.qualityName, Description: "Items filed from validation failures", SortOrder: 1000},
	}
	for _, input := range wellKnown {
		if _, err := w.repo.GetCategory(ctx, input.ID); err == nil {
			continue
		}
		category, err := domain.NewCategory(input, w.clock())
		if err != nil {
			return err
		}
		if err := w.repo.CreateCategory(ctx, category); err != nil {
			return fmt.Errorf("create %s category: %w", input.ID, err)
		}
	}
	return nil
}

func (w *Workspace) ensureLoaded(ctx context.Context) error {
	if w.loaded {
		return nil
	}
	return w.Load(ctx)
}

// ListCategories returns the loaded categories in display order.
func (w *Workspace) ListCategories(ctx context.Context) ([]domain.Category, error) {
	if err := w.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	out := make([]domain.Category, len(w.categories))
	copy(out, w.categories)
	return out, nil
}

// ListActiveWorkItems returns the sorted active set, optionally filtered to
// one category. The result is pre-cap: display caps are applied by the
// category view, not here.
func (w *Workspace) ListActiveWorkItems(ctx context.Context, categoryID string) ([]domain.WorkItem, error) {
	if err := w.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	return filterByCategory(w.active, categoryID), nil
}

// ListTemplates returns the template subset, optionally filtered to one
// category.
func (w *Workspace) ListTemplates(ctx context.Context, categoryID string) ([]domain.WorkItem, error) {
	if err := w.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	return filterByCategory(w.templates, categoryID), nil
}

func filterByCategory(items []domain.WorkItem, categoryID string) []domain.WorkItem {
	categoryID = strings.TrimSpace(categoryID)
	out := make([]domain.WorkItem, 0, len(items))
	for _, item := range items {
		if categoryID != "" && item.CategoryID != categoryID {
			continue
		}
		out = append(out, item)
	}
	return out
}

// CreateCategoryInput holds creation values for a category.
type CreateCategoryInput struct {
	DisplayName            string
	Description            string
	SortOrder              int
	AlwaysVisible          bool
	MaxItemsShownByDefault int
}

// CreateCategory creates a category and refreshes the loaded sets.
func (w *Workspace) CreateCategory(ctx context.Context, in CreateCategoryInput) (domain.Category, error) {
	category, err := domain.NewCategory(domain.CategoryInput{
		ID:                     w.idGen(),
		DisplayName:            in.DisplayName,
		Description:            in.Description,
		SortOrder:              in.SortOrder,
		AlwaysVisible:          in.AlwaysVisible,
		MaxItemsShownByDefault: in.MaxItemsShownByDefault,
	}, w.clock())
	if err != nil {
		return domain.Category{}, err
	}
	if err := w.repo.CreateCategory(ctx, category); err != nil {
		return domain.Category{}, err
	}
	if err := w.Refresh(ctx); err != nil {
		return domain.Category{}, err
	}
	return category, nil
}

// DeleteCategory removes a category. The well-known categories are
// protected. Items referencing the deleted category fall back to the
// default category on the next load.
func (w *Workspace) DeleteCategory(ctx context.Context, id string) error {
	if id == domain.DefaultCategoryID || id == domain.QualityCategoryID {
		return ErrProtectedCategory
	}
	if err := w.repo.DeleteCategory(ctx, id); err != nil {
		return err
	}
	return w.Refresh(ctx)
}

// CreateWorkItemInput holds creation values for a work item.
type CreateWorkItemInput struct {
	DisplayName string
	Description string
	CategoryID  string
	Priority    int
	IsTemplate  bool
}

// CreateWorkItem creates a work item directly. A display name already in
// use inside the target category is rejected rather than silently renamed.
func (w *Workspace) CreateWorkItem(ctx context.Context, in CreateWorkItemInput) (domain.WorkItem, error) {
	if err := w.ensureLoaded(ctx); err != nil {
		return domain.WorkItem{}, err
	}
	item, err := domain.NewWorkItem(domain.WorkItemInput{
		ID:          w.idGen(),
		DisplayName: in.DisplayName,
		Description: in.Description,
		CategoryID:  in.CategoryID,
		Priority:    in.Priority,
		IsTemplate:  in.IsTemplate,
	}, w.clock())
	if err != nil {
		return domain.WorkItem{}, err
	}
	if w.nameInUse(item.CategoryID, item.DisplayName) {
		return domain.WorkItem{}, fmt.Errorf("%w: %q in category %s", domain.ErrNameCollision, item.DisplayName, item.CategoryID)
	}
	if err := w.repo.CreateWorkItem(ctx, item); err != nil {
		return domain.WorkItem{}, err
	}
	if err := w.Refresh(ctx); err != nil {
		return domain.WorkItem{}, err
	}
	return item, nil
}

// CreateFromTemplate materializes a concrete work item from a template,
// resets the template's seed fields for reuse, and refreshes the loaded
// sets.
func (w *Workspace) CreateFromTemplate(ctx context.Context, templateID string) (domain.WorkItem, error) {
	if err := w.ensureLoaded(ctx); err != nil {
		return domain.WorkItem{}, err
	}
	template, err := w.repo.GetWorkItem(ctx, templateID)
	if err != nil {
		return domain.WorkItem{}, err
	}
	item, err := domain.Materialize(template, w.idGen(), w.clock())
	if err != nil {
		return domain.WorkItem{}, err
	}
	if w.nameInUse(item.CategoryID, item.DisplayName) {
		return domain.WorkItem{}, fmt.Errorf("%w: %q in category %s", domain.ErrNameCollision, item.DisplayName, item.CategoryID)
	}
	if err := w.repo.CreateWorkItem(ctx, item); err != nil {
		return domain.WorkItem{}, err
	}
	if err := domain.ResetTemplate(&template, w.clock()); err != nil {
		return domain.WorkItem{}, err
	}
	if err := w.repo.UpdateWorkItem(ctx, template); err != nil {
		return domain.WorkItem{}, err
	}
	if err := w.Refresh(ctx); err != nil {
		return domain.WorkItem{}, err
	}
	return item, nil
}

// nameInUse reports whether a display name collides with an existing
// sibling in the same category, templates included.
func (w *Workspace) nameInUse(categoryID, displayName string) bool {
	name := strings.ToLower(strings.TrimSpace(displayName))
	for _, item := range w.active {
		if item.CategoryID == categoryID && strings.ToLower(item.DisplayName) == name {
			return true
		}
	}
	for _, item := range w.templates {
		if item.CategoryID == categoryID && strings.ToLower(item.DisplayName) == name {
			return true
		}
	}
	return false
}

// CompleteWorkItem marks an item done so it leaves the active set.
func (w *Workspace) CompleteWorkItem(ctx context.Context, id string) error {
	item, err := w.repo.GetWorkItem(ctx, id)
	if err != nil {
		return err
	}
	item.Complete(w.clock())
	if err := w.repo.UpdateWorkItem(ctx, item); err != nil {
		return err
	}
	return w.Refresh(ctx)
}

// SetWorkItemPriority updates an item's priority, clamped to zero or above.
func (w *Workspace) SetWorkItemPriority(ctx context.Context, id string, priority int) error {
	item, err := w.repo.GetWorkItem(ctx, id)
	if err != nil {
		return err
	}
	item.SetPriority(priority, w.clock())
	if err := w.repo.UpdateWorkItem(ctx, item); err != nil {
		return err
	}
	return w.Refresh(ctx)
}

// DeleteWorkItem removes an item from storage and refreshes.
func (w *Workspace) DeleteWorkItem(ctx context.Context, id string) error {
	if err := w.repo.DeleteWorkItem(ctx, id); err != nil {
		return err
	}
	return w.Refresh(ctx)
}

// RunValidation scans every live instance of the subject type and surfaces
// the aggregate outcome through the notifier: one consolidated report per
// run, never per-instance interruptions. Configuration errors are surfaced
// as a blocking notification and returned.
func (w *Workspace) RunValidation(ctx context.Context, subject validate.Subject) (domain.ValidationReport, error) {
	report, err := w.engine.Run(ctx, subject)
	if err != nil {
		if w.notifier != nil {
			w.notifier.Notify("Validation failed", err.Error())
		}
		return domain.ValidationReport{}, err
	}
	if w.notifier != nil {
		if report.Passed() {
			w.notifier.Notify("Validation passed", report.Summary())
		} else {
			w.notifier.Notify("Validation failures", report.String())
		}
	}
	return report, nil
}

// FileFailuresAsWorkItems offers to convert each failure in a report into a
// new work item in the quality category, blocking on user confirmation. It
// returns how many items were filed. A passing report is a no-op.
func (w *Workspace) FileFailuresAsWorkItems(ctx context.Context, report domain.ValidationReport) (int, error) {
	if report.Passed() {
		return 0, nil
	}
	if w.notifier != nil {
		question := fmt.Sprintf("File %d failures from %s as work items in Quality?", len(report.Failures), report.Subject)
		if !w.notifier.Confirm("File validation failures", question, "File items", "Skip") {
			return 0, nil
		}
	}

	now := w.clock()
	filed := 0
	for _, failure := range report.Failures {
		item, err := domain.NewWorkItem(domain.WorkItemInput{
			ID:          w.idGen(),
			DisplayName: fmt.Sprintf("%s validation: %s", report.Subject, failure.SubjectID),
			Description: fmt.Sprintf("Validation of %s failed on %s: %s", report.Subject, failure.SubjectID, failure.Message),
			CategoryID:  domain.QualityCategoryID,
			Priority:    w.filedPriority,
			SubjectRef:  failure.SubjectID,
		}, now)
		if err != nil {
			return filed, fmt.Errorf("build work item for %s: %w", failure.SubjectID, err)
		}
		if err := w.repo.CreateWorkItem(ctx, item); err != nil {
			return filed, fmt.Errorf("persist work item for %s: %w", failure.SubjectID, err)
		}
		filed++
	}

	w.logger.Info("filed validation failures", "subject", report.Subject, "count", filed)
	if err := w.Refresh(ctx); err != nil {
		return filed, err
	}
	return filed, nil
}
