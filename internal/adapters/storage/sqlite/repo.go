// Package sqlite persists categories and work items in a local SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/redphin/punchlist/internal/app"
	"github.com/redphin/punchlist/internal/domain"
)

const driverName = "sqlite"

// Repository implements app.Repository over a SQLite database.
type Repository struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and runs migrations.
func Open(path string) (*Repository, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create sqlite dir: %w", err)
	}
	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	repo := &Repository{db: db}
	if err := repo.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

// OpenInMemory opens a throwaway in-memory database, used by tests.
func OpenInMemory() (*Repository, error) {
	db, err := sql.Open(driverName, "file::memory:?cache=shared")
	if err != nil {
		return nil, fmt.Errorf("open sqlite memory: %w", err)
	}
	repo := &Repository{db: db}
	if err := repo.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

// Close closes the underlying database.
func (r *Repository) Close() error {
	return r.db.Close()
}

// migrate creates the schema when missing.
func (r *Repository) migrate(ctx context.Context) error {
	stmts := []string{
		`PRAGMA foreign_keys = ON;`,
		`CREATE TABLE IF NOT EXISTS categories (
			id TEXT PRIMARY KEY,
			display_name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			sort_order INTEGER NOT NULL DEFAULT 0,
			always_visible INTEGER NOT NULL DEFAULT 0,
			max_items_shown INTEGER NOT NULL DEFAULT 5,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS work_items (
			id TEXT PRIMARY KEY,
			display_name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			category_id TEXT NOT NULL DEFAULT 'default',
			priority INTEGER NOT NULL DEFAULT 100,
			done INTEGER NOT NULL DEFAULT 0,
			is_template INTEGER NOT NULL DEFAULT 0,
			subject_ref TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_work_items_category ON work_items(category_id);`,
	}
	for _, stmt := range stmts {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// CreateCategory inserts a category.
func (r *Repository) CreateCategory(ctx context.Context, c domain.Category) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO categories(id, display_name, description, sort_order, always_visible, max_items_shown, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, c.ID, c.DisplayName, c.Description, c.SortOrder, boolInt(c.AlwaysVisible), c.MaxItemsShownByDefault, ts(c.CreatedAt), ts(c.UpdatedAt))
	return err
}

// UpdateCategory rewrites a category row.
func (r *Repository) UpdateCategory(ctx context.Context, c domain.Category) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE categories
		SET display_name = ?, description = ?, sort_order = ?, always_visible = ?, max_items_shown = ?, updated_at = ?
		WHERE id = ?
	`, c.DisplayName, c.Description, c.SortOrder, boolInt(c.AlwaysVisible), c.MaxItemsShownByDefault, ts(c.UpdatedAt), c.ID)
	if err != nil {
		return err
	}
	return translateNoRows(res)
}

// GetCategory returns one category by id.
func (r *Repository) GetCategory(ctx context.Context, id string) (domain.Category, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, display_name, description, sort_order, always_visible, max_items_shown, created_at, updated_at
		FROM categories
		WHERE id = ?
	`, id)
	return scanCategory(row)
}

// ListCategories returns every category ordered by sort order then name.
func (r *Repository) ListCategories(ctx context.Context) ([]domain.Category, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, display_name, description, sort_order, always_visible, max_items_shown, created_at, updated_at
		FROM categories
		ORDER BY sort_order ASC, display_name ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Category{}
	for rows.Next() {
		category, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, category)
	}
	return out, rows.Err()
}

// DeleteCategory removes a category row. Work items keep their stale
// category id; the loader reassigns them to the default category.
func (r *Repository) DeleteCategory(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return translateNoRows(res)
}

// CreateWorkItem inserts a work item.
func (r *Repository) CreateWorkItem(ctx context.Context, item domain.WorkItem) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO work_items(id, display_name, description, category_id, priority, done, is_template, subject_ref, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, item.ID, item.DisplayName, item.Description, item.CategoryID, item.Priority, boolInt(item.Done), boolInt(item.IsTemplate), item.SubjectRef, ts(item.CreatedAt), ts(item.UpdatedAt))
	return err
}

// UpdateWorkItem rewrites a work item row.
func (r *Repository) UpdateWorkItem(ctx context.Context, item domain.WorkItem) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE work_items
		SET display_name = ?, description = ?, category_id = ?, priority = ?, done = ?, is_template = ?, subject_ref = ?, updated_at = ?
		WHERE id = ?
	`, item.DisplayName, item.Description, item.CategoryID, item.Priority, boolInt(item.Done), boolInt(item.IsTemplate), item.SubjectRef, ts(item.UpdatedAt), item.ID)
	if err != nil {
		return err
	}
	return translateNoRows(res)
}

// GetWorkItem returns one work item by id.
func (r *Repository) GetWorkItem(ctx context.Context, id string) (domain.WorkItem, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, display_name, description, category_id, priority, done, is_template, subject_ref, created_at, updated_at
		FROM work_items
		WHERE id = ?
	`, id)
	return scanWorkItem(row)
}

// ListWorkItems returns every work item in creation order; display ordering
// is the workspace's concern.
func (r *Repository) ListWorkItems(ctx context.Context) ([]domain.WorkItem, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, display_name, description, category_id, priority, done, is_template, subject_ref, created_at, updated_at
		FROM work_items
		ORDER BY created_at ASC, id ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.WorkItem{}
	for rows.Next() {
		item, err := scanWorkItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

// DeleteWorkItem removes a work item row.
func (r *Repository) DeleteWorkItem(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM work_items WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return translateNoRows(res)
}

// scanner covers *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanCategory(s scanner) (domain.Category, error) {
	var (
		c          domain.Category
		visible    int
		createdRaw string
		updatedRaw string
	)
	err := s.Scan(&c.ID, &c.DisplayName, &c.Description, &c.SortOrder, &visible, &c.MaxItemsShownByDefault, &createdRaw, &updatedRaw)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Category{}, app.ErrNotFound
	}
	if err != nil {
		return domain.Category{}, err
	}
	c.AlwaysVisible = visible != 0
	c.CreatedAt = parseTS(createdRaw)
	c.UpdatedAt = parseTS(updatedRaw)
	return c, nil
}

func scanWorkItem(s scanner) (domain.WorkItem, error) {
	var (
		item       domain.WorkItem
		done       int
		template   int
		createdRaw string
		updatedRaw string
	)
	err := s.Scan(&item.ID, &item.DisplayName, &item.Description, &item.CategoryID, &item.Priority, &done, &template, &item.SubjectRef, &createdRaw, &updatedRaw)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.WorkItem{}, app.ErrNotFound
	}
	if err != nil {
		return domain.WorkItem{}, err
	}
	item.Done = done != 0
	item.IsTemplate = template != 0
	item.CreatedAt = parseTS(createdRaw)
	item.UpdatedAt = parseTS(updatedRaw)
	return item, nil
}

func translateNoRows(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return app.ErrNotFound
	}
	return nil
}

func boolInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

func ts(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTS(v string) time.Time {
	parsed, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}
	}
	return parsed.UTC()
}
