// Package mcpapi provides a stateless MCP streamable-HTTP adapter.
package mcpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/redphin/punchlist/internal/app"
	"github.com/redphin/punchlist/internal/domain"
	"github.com/redphin/punchlist/internal/validate"
)

// Config captures MCP transport configuration.
type Config struct {
	ServerName    string
	ServerVersion string
	EndpointPath  string
}

// WorkspaceService is the workspace surface the MCP tools call.
type WorkspaceService interface {
	ListCategories(ctx context.Context) ([]domain.Category, error)
	ListActiveWorkItems(ctx context.Context, categoryID string) ([]domain.WorkItem, error)
	ListTemplates(ctx context.Context, categoryID string) ([]domain.WorkItem, error)
	RunValidation(ctx context.Context, subject validate.Subject) (domain.ValidationReport, error)
	FileFailuresAsWorkItems(ctx context.Context, report domain.ValidationReport) (int, error)
}

// Handler wraps one stateless MCP streamable HTTP handler.
type Handler struct {
	httpHandler http.Handler
}

// NewHandler builds one stateless MCP adapter exposing workspace list and
// validation tools.
func NewHandler(cfg Config, workspace WorkspaceService) (*Handler, error) {
	if workspace == nil {
		return nil, fmt.Errorf("workspace service is required")
	}
	cfg = normalizeConfig(cfg)

	mcpSrv := mcpserver.NewMCPServer(
		cfg.ServerName,
		cfg.ServerVersion,
		mcpserver.WithToolCapabilities(false),
	)
	registerListTools(mcpSrv, workspace)
	registerValidationTools(mcpSrv, workspace)

	streamable := mcpserver.NewStreamableHTTPServer(
		mcpSrv,
		mcpserver.WithEndpointPath(cfg.EndpointPath),
		mcpserver.WithStateLess(true),
	)
	return &Handler{httpHandler: streamable}, nil
}

// ServeHTTP handles one MCP streamable HTTP request.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.httpHandler == nil {
		http.Error(w, "mcp handler unavailable", http.StatusServiceUnavailable)
		return
	}
	h.httpHandler.ServeHTTP(w, r)
}

// normalizeConfig applies deterministic defaults to MCP adapter config.
func normalizeConfig(cfg Config) Config {
	cfg.ServerName = strings.TrimSpace(cfg.ServerName)
	if cfg.ServerName == "" {
		cfg.ServerName = "punchlist"
	}
	cfg.ServerVersion = strings.TrimSpace(cfg.ServerVersion)
	if cfg.ServerVersion == "" {
		cfg.ServerVersion = "dev"
	}
	cfg.EndpointPath = strings.TrimSpace(cfg.EndpointPath)
	if cfg.EndpointPath == "" {
		cfg.EndpointPath = "/mcp"
	}
	if !strings.HasPrefix(cfg.EndpointPath, "/") {
		cfg.EndpointPath = "/" + cfg.EndpointPath
	}
	cfg.EndpointPath = "/" + strings.Trim(cfg.EndpointPath, "/")
	return cfg
}

// registerListTools registers the category, item, and template list tools.
func registerListTools(srv *mcpserver.MCPServer, workspace WorkspaceService) {
	srv.AddTool(
		mcp.NewTool(
			"punchlist.list_categories",
			mcp.WithDescription("List all workspace categories in display order."),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			categories, err := workspace.ListCategories(ctx)
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(map[string]any{
				"categories": categories,
			})
			if err != nil {
				return nil, fmt.Errorf("encode list_categories result: %w", err)
			}
			return result, nil
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"punchlist.list_items",
			mcp.WithDescription("List active work items in display order, optionally filtered by category."),
			mcp.WithString("category", mcp.Description("Category identifier to filter by")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			items, err := workspace.ListActiveWorkItems(ctx, req.GetString("category", ""))
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(map[string]any{
				"items": items,
			})
			if err != nil {
				return nil, fmt.Errorf("encode list_items result: %w", err)
			}
			return result, nil
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"punchlist.list_templates",
			mcp.WithDescription("List template work items, optionally filtered by category."),
			mcp.WithString("category", mcp.Description("Category identifier to filter by")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			templates, err := workspace.ListTemplates(ctx, req.GetString("category", ""))
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(map[string]any{
				"templates": templates,
			})
			if err != nil {
				return nil, fmt.Errorf("encode list_templates result: %w", err)
			}
			return result, nil
		},
	)
}

// registerValidationTools registers the run_validation and file_failures tools.
func registerValidationTools(srv *mcpserver.MCPServer, workspace WorkspaceService) {
	srv.AddTool(
		mcp.NewTool(
			"punchlist.run_validation",
			mcp.WithDescription("Run validation for one subject and return the failure report."),
			mcp.WithString("subject", mcp.Required(), mcp.Description("Registered subject name")),
			mcp.WithString("kind", mcp.Description("Subject kind"), mcp.Enum("component", "asset")),
			mcp.WithString("scope", mcp.Description("Comma-separated asset roots to scan")),
			mcp.WithBoolean("file", mcp.Description("File failures as work items in the quality category")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			subject, err := subjectFromRequest(req)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			report, err := workspace.RunValidation(ctx, subject)
			if err != nil {
				return toolResultFromError(err), nil
			}
			filed := 0
			if req.GetBool("file", false) && !report.Passed() {
				filed, err = workspace.FileFailuresAsWorkItems(ctx, report)
				if err != nil {
					return toolResultFromError(err), nil
				}
			}
			result, err := mcp.NewToolResultJSON(map[string]any{
				"subject":       report.Subject,
				"passed":        report.Passed(),
				"summary":       report.Summary(),
				"tested_count":  report.TestedCount,
				"skipped_count": report.SkippedCount,
				"failures":      report.Failures,
				"filed":         filed,
			})
			if err != nil {
				return nil, fmt.Errorf("encode run_validation result: %w", err)
			}
			return result, nil
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"punchlist.file_failures",
			mcp.WithDescription("Validate one subject and file every failure as a work item in the quality category."),
			mcp.WithString("subject", mcp.Required(), mcp.Description("Registered subject name")),
			mcp.WithString("kind", mcp.Description("Subject kind"), mcp.Enum("component", "asset")),
			mcp.WithString("scope", mcp.Description("Comma-separated asset roots to scan")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			subject, err := subjectFromRequest(req)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			report, err := workspace.RunValidation(ctx, subject)
			if err != nil {
				return toolResultFromError(err), nil
			}
			filed, err := workspace.FileFailuresAsWorkItems(ctx, report)
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(map[string]any{
				"subject": report.Subject,
				"summary": report.Summary(),
				"filed":   filed,
			})
			if err != nil {
				return nil, fmt.Errorf("encode file_failures result: %w", err)
			}
			return result, nil
		},
	)
}

// subjectFromRequest builds the validation subject from the shared tool
// arguments, including the optional comma-separated scope roots.
func subjectFromRequest(req mcp.CallToolRequest) (validate.Subject, error) {
	name, err := req.RequireString("subject")
	if err != nil {
		return validate.Subject{}, err
	}
	subject := validate.Subject{
		Name: name,
		Kind: validate.SubjectKind(req.GetString("kind", string(validate.SubjectKindComponent))),
	}
	for _, part := range strings.Split(req.GetString("scope", ""), ",") {
		if root := strings.TrimSpace(part); root != "" {
			subject.Scope = append(subject.Scope, root)
		}
	}
	return subject, nil
}

// toolResultFromError maps workspace errors into MCP-visible tool errors.
func toolResultFromError(err error) *mcp.CallToolResult {
	switch {
	case err == nil:
		return mcp.NewToolResultError("unknown error")
	case errors.Is(err, validate.ErrSubjectUnresolved):
		return mcp.NewToolResultError("subject_unresolved: " + err.Error())
	case errors.Is(err, validate.ErrUnsupportedKind):
		return mcp.NewToolResultError("unsupported_kind: " + err.Error())
	case errors.Is(err, validate.ErrNoFinder):
		return mcp.NewToolResultError("no_finder: " + err.Error())
	case errors.Is(err, app.ErrNotFound):
		return mcp.NewToolResultError("not_found: " + err.Error())
	case errors.Is(err, domain.ErrNameCollision):
		return mcp.NewToolResultError("name_collision: " + err.Error())
	default:
		return mcp.NewToolResultError("internal_error: " + err.Error())
	}
}
