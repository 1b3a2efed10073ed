package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/redphin/punchlist/internal/domain"
	"github.com/redphin/punchlist/internal/validate"
)

// stubWorkspace provides deterministic workspace responses for handler tests.
type stubWorkspace struct {
	categories  []domain.Category
	items       []domain.WorkItem
	templates   []domain.WorkItem
	report      domain.ValidationReport
	filed       int
	err         error
	lastSubject validate.Subject
	lastFiled   domain.ValidationReport
	filedCalls  int
}

func (s *stubWorkspace) ListCategories(context.Context) ([]domain.Category, error) {
	if s.err != nil {
		return nil, s.err
	}
	return append([]domain.Category(nil), s.categories...), nil
}

func (s *stubWorkspace) ListActiveWorkItems(_ context.Context, categoryID string) ([]domain.WorkItem, error) {
	if s.err != nil {
		return nil, s.err
	}
	if categoryID == "" {
		return append([]domain.WorkItem(nil), s.items...), nil
	}
	var filtered []domain.WorkItem
	for _, item := range s.items {
		if item.CategoryID == categoryID {
			filtered = append(filtered, item)
		}
	}
	return filtered, nil
}

func (s *stubWorkspace) ListTemplates(_ context.Context, categoryID string) ([]domain.WorkItem, error) {
	if s.err != nil {
		return nil, s.err
	}
	return append([]domain.WorkItem(nil), s.templates...), nil
}

func (s *stubWorkspace) RunValidation(_ context.Context, subject validate.Subject) (domain.ValidationReport, error) {
	s.lastSubject = subject
	if s.err != nil {
		return domain.ValidationReport{}, s.err
	}
	return s.report, nil
}

func (s *stubWorkspace) FileFailuresAsWorkItems(_ context.Context, report domain.ValidationReport) (int, error) {
	s.filedCalls++
	s.lastFiled = report
	if s.err != nil {
		return 0, s.err
	}
	return s.filed, nil
}

// TestHandlerListCategories verifies category listing response mapping.
func TestHandlerListCategories(t *testing.T) {
	workspace := &stubWorkspace{
		categories: []domain.Category{
			{ID: "default", DisplayName: "Default"},
			{ID: "quality", DisplayName: "Quality"},
		},
	}
	handler := NewHandler(workspace)

	req := httptest.NewRequest(http.MethodGet, "/categories", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	var got struct {
		Categories []domain.Category `json:"categories"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if len(got.Categories) != 2 {
		t.Fatalf("len(categories) = %d, want 2", len(got.Categories))
	}
	if got.Categories[1].ID != "quality" {
		t.Fatalf("categories[1].ID = %q, want quality", got.Categories[1].ID)
	}
}

// TestHandlerListItemsCategoryFilter verifies the optional category query filter.
func TestHandlerListItemsCategoryFilter(t *testing.T) {
	workspace := &stubWorkspace{
		items: []domain.WorkItem{
			{ID: "a", DisplayName: "Fix door", CategoryID: "default"},
			{ID: "b", DisplayName: "Tune lights", CategoryID: "quality"},
		},
	}
	handler := NewHandler(workspace)

	req := httptest.NewRequest(http.MethodGet, "/items?category=quality", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	var got struct {
		Items []domain.WorkItem `json:"items"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if len(got.Items) != 1 || got.Items[0].ID != "b" {
		t.Fatalf("items = %+v, want just item b", got.Items)
	}
}

// TestHandlerValidateFilesFailures verifies validation plus filing in one request.
func TestHandlerValidateFilesFailures(t *testing.T) {
	started := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	workspace := &stubWorkspace{
		report: domain.ValidationReport{
			Subject: "Prefab",
			Failures: []domain.ValidationFailure{
				{SubjectID: "assets/crate.json", Message: "Field Mesh is required but not set.", Class: domain.FailureClassCheck},
			},
			TestedCount: 3,
			StartedAt:   started,
		},
		filed: 1,
	}
	handler := NewHandler(workspace)

	body := strings.NewReader(`{"subject":"Prefab","kind":"asset","file":true}`)
	req := httptest.NewRequest(http.MethodPost, "/validate", body)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	var got validateResponse
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if got.Report.Passed {
		t.Fatal("report.passed = true, want false")
	}
	if got.Report.TestedCount != 3 {
		t.Fatalf("tested_count = %d, want 3", got.Report.TestedCount)
	}
	if len(got.Report.Failures) != 1 || got.Report.Failures[0].Class != "check" {
		t.Fatalf("failures = %+v, want one check failure", got.Report.Failures)
	}
	if got.Filed != 1 {
		t.Fatalf("filed = %d, want 1", got.Filed)
	}
	if workspace.lastSubject.Kind != validate.SubjectKindAsset {
		t.Fatalf("subject kind = %q, want asset", workspace.lastSubject.Kind)
	}
	if workspace.filedCalls != 1 {
		t.Fatalf("filedCalls = %d, want 1", workspace.filedCalls)
	}
}

// TestHandlerValidatePassedSkipsFiling verifies a passing report never files items.
func TestHandlerValidatePassedSkipsFiling(t *testing.T) {
	workspace := &stubWorkspace{
		report: domain.ValidationReport{
			Subject:     "Prefab",
			TestedCount: 2,
		},
	}
	handler := NewHandler(workspace)

	body := strings.NewReader(`{"subject":"Prefab","kind":"asset","file":true}`)
	req := httptest.NewRequest(http.MethodPost, "/validate", body)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if workspace.filedCalls != 0 {
		t.Fatalf("filedCalls = %d, want 0", workspace.filedCalls)
	}
}

// TestHandlerValidateErrorMapping verifies structured status mapping for validation errors.
func TestHandlerValidateErrorMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "unresolved subject",
			err:        fmt.Errorf("resolve subject: %w", validate.ErrSubjectUnresolved),
			wantStatus: http.StatusNotFound,
			wantCode:   "subject_unresolved",
		},
		{
			name:       "unsupported kind",
			err:        fmt.Errorf("resolve subject: %w", validate.ErrUnsupportedKind),
			wantStatus: http.StatusBadRequest,
			wantCode:   "unsupported_kind",
		},
		{
			name:       "no finder",
			err:        fmt.Errorf("resolve subject: %w", validate.ErrNoFinder),
			wantStatus: http.StatusServiceUnavailable,
			wantCode:   "no_finder",
		},
		{
			name:       "internal error",
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   "internal_error",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			handler := NewHandler(&stubWorkspace{err: tc.err})

			body := strings.NewReader(`{"subject":"Prefab","kind":"asset"}`)
			req := httptest.NewRequest(http.MethodPost, "/validate", body)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tc.wantStatus)
			}
			var envelope ErrorEnvelope
			if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			if envelope.Error.Code != tc.wantCode {
				t.Fatalf("code = %q, want %q", envelope.Error.Code, tc.wantCode)
			}
		})
	}
}

// TestHandlerValidateRejectsBadBodies verifies fail-closed request decoding.
func TestHandlerValidateRejectsBadBodies(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{name: "malformed json", body: `{"subject":`},
		{name: "unknown field", body: `{"subject":"Prefab","bogus":true}`},
		{name: "trailing content", body: `{"subject":"Prefab"}{"again":true}`},
		{name: "missing subject", body: `{"kind":"asset"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			handler := NewHandler(&stubWorkspace{})

			req := httptest.NewRequest(http.MethodPost, "/validate", strings.NewReader(tc.body))
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
			}
		})
	}
}

// TestHandlerMethodAndRouteErrors verifies 405 and 404 handling.
func TestHandlerMethodAndRouteErrors(t *testing.T) {
	handler := NewHandler(&stubWorkspace{})

	req := httptest.NewRequest(http.MethodPost, "/categories", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusMethodNotAllowed)
	}
	if allow := rec.Header().Get("Allow"); allow != http.MethodGet {
		t.Fatalf("Allow = %q, want %q", allow, http.MethodGet)
	}

	req = httptest.NewRequest(http.MethodGet, "/nope", nil)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}
