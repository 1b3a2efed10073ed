// Package httpapi provides the REST HTTP adapter for the workspace surfaces.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/redphin/punchlist/internal/app"
	"github.com/redphin/punchlist/internal/domain"
	"github.com/redphin/punchlist/internal/validate"
)

// maxRequestBodyBytes limits decoded JSON payload size for fail-closed request handling.
const maxRequestBodyBytes int64 = 1 << 20

// errInvalidRequest marks request decoding and validation failures.
var errInvalidRequest = errors.New("invalid request")

// WorkspaceService is the workspace surface this adapter calls.
type WorkspaceService interface {
	ListCategories(ctx context.Context) ([]domain.Category, error)
	ListActiveWorkItems(ctx context.Context, categoryID string) ([]domain.WorkItem, error)
	ListTemplates(ctx context.Context, categoryID string) ([]domain.WorkItem, error)
	RunValidation(ctx context.Context, subject validate.Subject) (domain.ValidationReport, error)
	FileFailuresAsWorkItems(ctx context.Context, report domain.ValidationReport) (int, error)
}

// Handler serves the versioned API subrouter mounted under the API prefix.
type Handler struct {
	workspace WorkspaceService
}

// APIError represents one structured API failure response.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Hint    string `json:"hint,omitempty"`
}

// ErrorEnvelope wraps one structured API error.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// validateRequest carries one POST `/validate` payload.
type validateRequest struct {
	Subject string   `json:"subject"`
	Kind    string   `json:"kind"`
	Scope   []string `json:"scope,omitempty"`
	File    bool     `json:"file,omitempty"`
}

// validateResponse carries one validation outcome with the filed item count.
type validateResponse struct {
	Report validationReport `json:"report"`
	Filed  int              `json:"filed"`
}

// validationReport mirrors a domain validation report on the wire.
type validationReport struct {
	Subject      string              `json:"subject"`
	Passed       bool                `json:"passed"`
	Summary      string              `json:"summary"`
	TestedCount  int                 `json:"tested_count"`
	SkippedCount int                 `json:"skipped_count"`
	Failures     []validationFailure `json:"failures"`
}

// validationFailure mirrors one domain validation failure on the wire.
type validationFailure struct {
	SubjectID string `json:"subject_id"`
	Message   string `json:"message"`
	Class     string `json:"class"`
}

// NewHandler constructs one HTTP API adapter over a workspace service.
func NewHandler(workspace WorkspaceService) *Handler {
	return &Handler{workspace: workspace}
}

// ServeHTTP routes one versioned API request to the matching handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := normalizePath(r.URL.Path)
	switch path {
	case "categories":
		if r.Method != http.MethodGet {
			writeMethodNotAllowed(w, http.MethodGet)
			return
		}
		h.handleListCategories(w, r)
	case "items":
		if r.Method != http.MethodGet {
			writeMethodNotAllowed(w, http.MethodGet)
			return
		}
		h.handleListItems(w, r)
	case "templates":
		if r.Method != http.MethodGet {
			writeMethodNotAllowed(w, http.MethodGet)
			return
		}
		h.handleListTemplates(w, r)
	case "validate":
		if r.Method != http.MethodPost {
			writeMethodNotAllowed(w, http.MethodPost)
			return
		}
		h.handleValidate(w, r)
	default:
		writeJSONError(w, http.StatusNotFound, APIError{
			Code:    "not_found",
			Message: "endpoint not found",
		})
	}
}

// handleListCategories serves GET `/categories`.
func (h *Handler) handleListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.workspace.ListCategories(r.Context())
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"categories": categories,
	})
}

// handleListItems serves GET `/items` with an optional `category` filter.
func (h *Handler) handleListItems(w http.ResponseWriter, r *http.Request) {
	categoryID := strings.TrimSpace(r.URL.Query().Get("category"))
	items, err := h.workspace.ListActiveWorkItems(r.Context(), categoryID)
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"items": items,
	})
}

// handleListTemplates serves GET `/templates` with an optional `category` filter.
func (h *Handler) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	categoryID := strings.TrimSpace(r.URL.Query().Get("category"))
	templates, err := h.workspace.ListTemplates(r.Context(), categoryID)
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"templates": templates,
	})
}

// handleValidate serves POST `/validate`, optionally filing failures as work items.
func (h *Handler) handleValidate(w http.ResponseWriter, r *http.Request) {
	var req validateRequest
	if err := decodeJSONBody(r.Context(), w, r, &req); err != nil {
		writeErrorFrom(w, err)
		return
	}
	if strings.TrimSpace(req.Subject) == "" {
		writeJSONError(w, http.StatusBadRequest, APIError{
			Code:    "invalid_request",
			Message: "subject is required",
		})
		return
	}

	subject := validate.Subject{
		Name:  strings.TrimSpace(req.Subject),
		Kind:  validate.SubjectKind(strings.TrimSpace(req.Kind)),
		Scope: req.Scope,
	}
	if subject.Kind == "" {
		subject.Kind = validate.SubjectKindComponent
	}

	report, err := h.workspace.RunValidation(r.Context(), subject)
	if err != nil {
		writeErrorFrom(w, err)
		return
	}

	filed := 0
	if req.File && !report.Passed() {
		filed, err = h.workspace.FileFailuresAsWorkItems(r.Context(), report)
		if err != nil {
			writeErrorFrom(w, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, newValidateResponse(report, filed))
}

// newValidateResponse converts one domain report into the wire shape.
func newValidateResponse(report domain.ValidationReport, filed int) validateResponse {
	failures := make([]validationFailure, 0, len(report.Failures))
	for _, failure := range report.Failures {
		failures = append(failures, validationFailure{
			SubjectID: failure.SubjectID,
			Message:   failure.Message,
			Class:     string(failure.Class),
		})
	}
	return validateResponse{
		Report: validationReport{
			Subject:      report.Subject,
			Passed:       report.Passed(),
			Summary:      report.Summary(),
			TestedCount:  report.TestedCount,
			SkippedCount: report.SkippedCount,
			Failures:     failures,
		},
		Filed: filed,
	}
}

// normalizePath canonicalizes one request path for route matching.
func normalizePath(path string) string {
	path = strings.TrimSpace(path)
	path = strings.Trim(path, "/")
	return path
}

// writeErrorFrom maps workspace errors into structured HTTP responses.
func writeErrorFrom(w http.ResponseWriter, err error) {
	switch {
	case err == nil:
		writeJSONError(w, http.StatusInternalServerError, APIError{
			Code:    "internal_error",
			Message: "unknown error",
		})
	case errors.Is(err, errInvalidRequest):
		writeJSONError(w, http.StatusBadRequest, APIError{
			Code:    "invalid_request",
			Message: err.Error(),
		})
	case errors.Is(err, validate.ErrSubjectUnresolved):
		writeJSONError(w, http.StatusNotFound, APIError{
			Code:    "subject_unresolved",
			Message: err.Error(),
			Hint:    "Register the subject with an asset finder before validating it.",
		})
	case errors.Is(err, validate.ErrUnsupportedKind):
		writeJSONError(w, http.StatusBadRequest, APIError{
			Code:    "unsupported_kind",
			Message: err.Error(),
		})
	case errors.Is(err, validate.ErrNoFinder):
		writeJSONError(w, http.StatusServiceUnavailable, APIError{
			Code:    "no_finder",
			Message: err.Error(),
		})
	case errors.Is(err, app.ErrNotFound):
		writeJSONError(w, http.StatusNotFound, APIError{
			Code:    "not_found",
			Message: err.Error(),
		})
	case errors.Is(err, domain.ErrNameCollision):
		writeJSONError(w, http.StatusConflict, APIError{
			Code:    "name_collision",
			Message: err.Error(),
		})
	default:
		writeJSONError(w, http.StatusInternalServerError, APIError{
			Code:    "internal_error",
			Message: err.Error(),
		})
	}
}

// writeMethodNotAllowed writes a structured 405 response with `Allow` headers.
func writeMethodNotAllowed(w http.ResponseWriter, methods ...string) {
	if len(methods) > 0 {
		w.Header().Set("Allow", strings.Join(methods, ", "))
	}
	writeJSONError(w, http.StatusMethodNotAllowed, APIError{
		Code:    "method_not_allowed",
		Message: "method not allowed",
	})
}

// writeJSONError writes one structured error envelope.
func writeJSONError(w http.ResponseWriter, statusCode int, apiErr APIError) {
	writeJSON(w, statusCode, ErrorEnvelope{Error: apiErr})
}

// writeJSON writes one JSON response envelope.
func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, fmt.Sprintf(`{"error":{"code":"encode_error","message":"%s"}}`, err.Error()), http.StatusInternalServerError)
	}
}

// decodeJSONBody decodes one required JSON request body with strict shape checks.
func decodeJSONBody(ctx context.Context, w http.ResponseWriter, r *http.Request, out any) error {
	reader := http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
	defer reader.Close()

	decoder := json.NewDecoder(reader)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(out); err != nil {
		return fmt.Errorf("decode request body: %w", errors.Join(errInvalidRequest, err))
	}
	// Reject trailing payloads so malformed JSON bodies fail closed.
	if err := decoder.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode request body: trailing content: %w", errInvalidRequest)
	}
	select {
	case <-ctx.Done():
		return fmt.Errorf("request canceled: %w", ctx.Err())
	default:
		return nil
	}
}
