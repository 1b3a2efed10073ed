package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	charmLog "github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/redphin/punchlist/internal/adapters/assets"
	"github.com/redphin/punchlist/internal/adapters/server"
	"github.com/redphin/punchlist/internal/adapters/storage/sqlite"
	"github.com/redphin/punchlist/internal/app"
	"github.com/redphin/punchlist/internal/config"
	"github.com/redphin/punchlist/internal/platform"
	"github.com/redphin/punchlist/internal/report"
	"github.com/redphin/punchlist/internal/subjects"
	"github.com/redphin/punchlist/internal/validate"
)

var version = "dev"

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// run runs the requested command flow.
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	if stdin == nil {
		stdin = strings.NewReader("")
	}
	if stdout == nil {
		stdout = io.Discard
	}
	if stderr == nil {
		stderr = io.Discard
	}

	fs := flag.NewFlagSet("punchlist", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	var (
		configPath string
		dbPath     string
		appName    string
		devMode    bool
		showVer    bool
	)
	defaultDevMode := version == "dev"
	if envDev, ok := parseBoolEnv("PUNCHLIST_DEV_MODE"); ok {
		defaultDevMode = envDev
	}
	if envApp := strings.TrimSpace(os.Getenv("PUNCHLIST_APP_NAME")); envApp != "" {
		appName = envApp
	} else {
		appName = platform.DefaultAppName
	}
	fs.StringVar(&configPath, "config", "", "path to config TOML")
	fs.StringVar(&dbPath, "db", "", "path to sqlite database")
	fs.StringVar(&appName, "app", appName, "application name for config/data path resolution")
	fs.BoolVar(&devMode, "dev", defaultDevMode, "use dev mode paths (<app>-dev)")
	fs.BoolVar(&showVer, "version", false, "show version")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if showVer {
		_, _ = fmt.Fprintf(stdout, "punchlist %s\n", version)
		return nil
	}

	paths, err := platform.Resolve(platform.Options{
		AppName: appName,
		DevMode: devMode,
	})
	if err != nil {
		return err
	}

	command := firstArg(fs.Args())
	switch command {
	case "paths":
		_, _ = fmt.Fprintf(stdout, "app: %s\n", appName)
		_, _ = fmt.Fprintf(stdout, "dev_mode: %t\n", devMode)
		_, _ = fmt.Fprintf(stdout, "config: %s\n", paths.ConfigPath)
		_, _ = fmt.Fprintf(stdout, "data_dir: %s\n", paths.DataDir)
		_, _ = fmt.Fprintf(stdout, "db: %s\n", paths.DBPath)
		return nil
	case "categories", "list", "templates", "create", "materialize", "complete", "validate", "serve":
		// Continue.
	case "":
		return errors.New("a command is required: categories, list, templates, create, materialize, complete, validate, serve, paths")
	default:
		return fmt.Errorf("unknown command: %s", command)
	}

	dbOverridden := strings.TrimSpace(dbPath) != ""
	if configPath == "" {
		if envPath := strings.TrimSpace(os.Getenv("PUNCHLIST_CONFIG")); envPath != "" {
			configPath = envPath
		} else {
			configPath = paths.ConfigPath
		}
	}
	if !dbOverridden {
		if envPath := strings.TrimSpace(os.Getenv("PUNCHLIST_DB_PATH")); envPath != "" {
			dbPath = envPath
			dbOverridden = true
		} else {
			dbPath = paths.DBPath
		}
	}

	defaultCfg := config.Default(dbPath)
	if configPath == paths.ConfigPath {
		if err := config.WriteStarterIfMissing(configPath, defaultCfg); err != nil {
			return fmt.Errorf("write starter config: %w", err)
		}
	}
	cfg, err := config.Load(configPath, defaultCfg)
	if err != nil {
		return fmt.Errorf("load config %q: %w", configPath, err)
	}
	if dbOverridden {
		cfg.Database.Path = dbPath
	}

	logger := charmLog.NewWithOptions(stderr, charmLog.Options{
		Level:           runtimeLogLevel(devMode),
		Prefix:          appName,
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Formatter:       charmLog.TextFormatter,
	})
	logger.Info("startup configuration resolved", "app", appName, "dev_mode", devMode, "command", command)
	logger.Debug("runtime paths resolved", "config_path", configPath, "data_dir", paths.DataDir, "db_path", cfg.Database.Path)

	repo, err := sqlite.Open(cfg.Database.Path)
	if err != nil {
		logger.Error("sqlite open failed", "db_path", cfg.Database.Path, "err", err)
		return fmt.Errorf("open sqlite repository: %w", err)
	}
	defer func() {
		if closeErr := repo.Close(); closeErr != nil {
			logger.Warn("sqlite close failed", "db_path", cfg.Database.Path, "err", closeErr)
		}
	}()
	logger.Info("sqlite repository ready", "db_path", cfg.Database.Path, "migrations", "ensured")

	finder := assets.NewFinder(logger)
	if err := subjects.Register(finder); err != nil {
		return fmt.Errorf("register built-in subjects: %w", err)
	}
	logger.Debug("asset finder ready", "subjects", strings.Join(finder.Subjects(), ","))

	var notifier app.Notifier
	if command == "serve" {
		notifier = &loggingNotifier{logger: logger}
	} else {
		notifier = &consoleNotifier{in: bufio.NewReader(stdin), out: stdout}
	}

	workspace := app.NewWorkspace(repo, finder, notifier, uuid.NewString, time.Now, app.WorkspaceConfig{
		FiledPriority:             cfg.Validation.FiledPriority,
		SkipContractAfterRequired: cfg.Validation.SkipContractAfterRequired,
		DefaultCategoryName:       cfg.Categories.DefaultName,
		QualityCategoryName:       cfg.Categories.QualityName,
		Logger:                    logger,
	})
	if err := workspace.Load(ctx); err != nil {
		logger.Error("workspace load failed", "err", err)
		return fmt.Errorf("load workspace: %w", err)
	}
	logger.Debug("workspace loaded")

	switch command {
	case "categories":
		return runCategories(ctx, workspace, stdout)
	case "list":
		return runList(ctx, workspace, fs.Args()[1:], stdout)
	case "templates":
		return runTemplates(ctx, workspace, fs.Args()[1:], stdout)
	case "create":
		return runCreate(ctx, workspace, fs.Args()[1:], stdout)
	case "materialize":
		return runMaterialize(ctx, workspace, fs.Args()[1:], stdout)
	case "complete":
		return runComplete(ctx, workspace, fs.Args()[1:])
	case "validate":
		return runValidate(ctx, workspace, fs.Args()[1:], stdout)
	case "serve":
		return runServe(ctx, workspace, cfg, logger)
	default:
		return fmt.Errorf("unknown command: %s", command)
	}
}

// runCategories prints every category in display order.
func runCategories(ctx context.Context, workspace *app.Workspace, stdout io.Writer) error {
	categories, err := workspace.ListCategories(ctx)
	if err != nil {
		return fmt.Errorf("list categories: %w", err)
	}
	_, _ = fmt.Fprintln(stdout, report.Categories(categories))
	return nil
}

// runList prints active work items, optionally filtered by category.
func runList(ctx context.Context, workspace *app.Workspace, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("punchlist list", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	var categoryID string
	fs.StringVar(&categoryID, "category", "", "category id to filter by")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parse list flags: %w", err)
	}

	items, err := workspace.ListActiveWorkItems(ctx, categoryID)
	if err != nil {
		return fmt.Errorf("list work items: %w", err)
	}
	_, _ = fmt.Fprintln(stdout, report.WorkItems(items))
	return nil
}

// runTemplates prints template work items, optionally filtered by category.
func runTemplates(ctx context.Context, workspace *app.Workspace, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("punchlist templates", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	var categoryID string
	fs.StringVar(&categoryID, "category", "", "category id to filter by")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parse templates flags: %w", err)
	}

	templates, err := workspace.ListTemplates(ctx, categoryID)
	if err != nil {
		return fmt.Errorf("list templates: %w", err)
	}
	_, _ = fmt.Fprintln(stdout, report.WorkItems(templates))
	return nil
}

// runCreate creates one work item or template.
func runCreate(ctx context.Context, workspace *app.Workspace, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("punchlist create", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	var (
		name        string
		description string
		categoryID  string
		priority    int
		isTemplate  bool
	)
	fs.StringVar(&name, "name", "", "display name (required)")
	fs.StringVar(&description, "desc", "", "description")
	fs.StringVar(&categoryID, "category", "", "category id (defaults to the default category)")
	fs.IntVar(&priority, "priority", 0, "priority (lower sorts first, 0 means the default)")
	fs.BoolVar(&isTemplate, "template", false, "create as a template")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parse create flags: %w", err)
	}
	if strings.TrimSpace(name) == "" {
		return errors.New("--name is required")
	}

	item, err := workspace.CreateWorkItem(ctx, app.CreateWorkItemInput{
		DisplayName: name,
		Description: description,
		CategoryID:  categoryID,
		Priority:    priority,
		IsTemplate:  isTemplate,
	})
	if err != nil {
		return fmt.Errorf("create work item: %w", err)
	}
	_, _ = fmt.Fprintf(stdout, "created %s (%s)\n", item.DisplayName, item.ID)
	return nil
}

// runMaterialize creates one work item from a template.
func runMaterialize(ctx context.Context, workspace *app.Workspace, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("punchlist materialize", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	var templateID string
	fs.StringVar(&templateID, "id", "", "template work item id (required)")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parse materialize flags: %w", err)
	}
	if strings.TrimSpace(templateID) == "" {
		return errors.New("--id is required")
	}

	item, err := workspace.CreateFromTemplate(ctx, templateID)
	if err != nil {
		return fmt.Errorf("materialize template: %w", err)
	}
	_, _ = fmt.Fprintf(stdout, "created %s (%s)\n", item.DisplayName, item.ID)
	return nil
}

// runComplete marks one work item done.
func runComplete(ctx context.Context, workspace *app.Workspace, args []string) error {
	fs := flag.NewFlagSet("punchlist complete", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	var itemID string
	fs.StringVar(&itemID, "id", "", "work item id (required)")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parse complete flags: %w", err)
	}
	if strings.TrimSpace(itemID) == "" {
		return errors.New("--id is required")
	}

	if err := workspace.CompleteWorkItem(ctx, itemID); err != nil {
		return fmt.Errorf("complete work item: %w", err)
	}
	return nil
}

// runValidate validates one subject and optionally files failures.
func runValidate(ctx context.Context, workspace *app.Workspace, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("punchlist validate", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	var (
		subjectName string
		kind        string
		scope       string
		file        bool
	)
	fs.StringVar(&subjectName, "subject", "", "registered subject name (required)")
	fs.StringVar(&kind, "kind", string(validate.SubjectKindComponent), "subject kind: component or asset")
	fs.StringVar(&scope, "scope", "", "comma-separated asset roots to scan")
	fs.BoolVar(&file, "file", false, "file failures as work items in the quality category")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parse validate flags: %w", err)
	}
	if strings.TrimSpace(subjectName) == "" {
		return errors.New("--subject is required")
	}

	subject := validate.Subject{
		Name:  strings.TrimSpace(subjectName),
		Kind:  validate.SubjectKind(strings.TrimSpace(kind)),
		Scope: splitScope(scope),
	}
	rep, err := workspace.RunValidation(ctx, subject)
	if err != nil {
		return fmt.Errorf("run validation: %w", err)
	}
	_, _ = fmt.Fprintln(stdout, report.Validation(rep))

	if file {
		filed, err := workspace.FileFailuresAsWorkItems(ctx, rep)
		if err != nil {
			return fmt.Errorf("file failures: %w", err)
		}
		if filed > 0 {
			_, _ = fmt.Fprintf(stdout, "filed %d work items\n", filed)
		}
	}
	return nil
}

// runServe runs the HTTP API and MCP transports until interrupted.
func runServe(ctx context.Context, workspace *app.Workspace, cfg config.Config, logger *charmLog.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc := server.Serialize(workspace)

	scheduler := app.NewScheduler(logger)
	if err := scheduler.Register("workspace_refresh", time.Minute, func(time.Time) {
		if err := svc.Refresh(ctx); err != nil {
			logger.Warn("scheduled refresh failed", "err", err)
		}
	}); err != nil {
		return fmt.Errorf("register refresh task: %w", err)
	}
	scheduler.Start(ctx, cfg.Scheduler.TickInterval())
	defer scheduler.Stop()

	serverCfg := server.Config{
		HTTPBind:      cfg.Server.Bind,
		APIEndpoint:   cfg.Server.APIEndpoint,
		MCPEndpoint:   cfg.Server.MCPEndpoint,
		ServerName:    platform.DefaultAppName,
		ServerVersion: version,
	}
	logger.Info("serving", "bind", serverCfg.HTTPBind, "api", serverCfg.APIEndpoint, "mcp", serverCfg.MCPEndpoint)
	if err := server.Run(ctx, serverCfg, svc); err != nil {
		logger.Error("server terminated with error", "err", err)
		return fmt.Errorf("run server: %w", err)
	}
	logger.Info("server stopped")
	return nil
}

// consoleNotifier renders blocking dialogs on the terminal.
type consoleNotifier struct {
	in  *bufio.Reader
	out io.Writer
}

// Notify prints one one-way notice.
func (n *consoleNotifier) Notify(title, message string) {
	_, _ = fmt.Fprintf(n.out, "%s: %s\n", title, message)
}

// Confirm prompts for one of two options and reports whether the first was
// chosen. EOF or unreadable input picks the second option.
func (n *consoleNotifier) Confirm(title, message, optionA, optionB string) bool {
	_, _ = fmt.Fprintf(n.out, "%s: %s [%s/%s]: ", title, message, optionA, optionB)
	line, err := n.in.ReadString('\n')
	if err != nil && strings.TrimSpace(line) == "" {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == strings.ToLower(optionA) || answer == "y" || answer == "yes"
}

// loggingNotifier records dialogs as log events and auto-confirms, for
// headless serve mode.
type loggingNotifier struct {
	logger *charmLog.Logger
}

func (n *loggingNotifier) Notify(title, message string) {
	n.logger.Info("notice", "title", title, "message", message)
}

func (n *loggingNotifier) Confirm(title, message, optionA, optionB string) bool {
	n.logger.Info("auto-confirm", "title", title, "message", message, "chosen", optionA)
	return true
}

// firstArg handles first arg.
func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

// splitScope splits one comma-separated scope flag into root paths.
func splitScope(raw string) []string {
	var roots []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			roots = append(roots, trimmed)
		}
	}
	return roots
}

// runtimeLogLevel picks the console log level for the run mode.
func runtimeLogLevel(devMode bool) charmLog.Level {
	if devMode {
		return charmLog.DebugLevel
	}
	return charmLog.InfoLevel
}

// parseBoolEnv parses input into a normalized form.
func parseBoolEnv(name string) (bool, bool) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}
