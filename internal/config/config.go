// Package config loads the tool's TOML configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config is the full tool configuration.
type Config struct {
	Database   DatabaseConfig   `toml:"database"`
	Validation ValidationConfig `toml:"validation"`
	Categories CategoriesConfig `toml:"categories"`
	Scheduler  SchedulerConfig  `toml:"scheduler"`
	Server     ServerConfig     `toml:"server"`
}

// DatabaseConfig locates the work item store.
type DatabaseConfig struct {
	Path string `toml:"path"`
}

// ValidationConfig tunes the validation engine and failure filing.
type ValidationConfig struct {
	// SkipContractAfterRequired stops checking an instance once the
	// required-field rule fails instead of also running the contract.
	SkipContractAfterRequired bool `toml:"skip_contract_after_required"`
	// FiledPriority is assigned to work items filed from failures.
	FiledPriority int `toml:"filed_priority"`
}

// CategoriesConfig names the well-known categories created on first load.
type CategoriesConfig struct {
	DefaultName string `toml:"default_name"`
	QualityName string `toml:"quality_name"`
}

// SchedulerConfig tunes the periodic task registry.
type SchedulerConfig struct {
	TickIntervalSeconds int `toml:"tick_interval_seconds"`
}

// TickInterval returns the polling resolution as a duration.
func (c SchedulerConfig) TickInterval() time.Duration {
	return time.Duration(c.TickIntervalSeconds) * time.Second
}

// ServerConfig tunes the serve mode transports.
type ServerConfig struct {
	Bind        string `toml:"bind"`
	MCPEndpoint string `toml:"mcp_endpoint"`
	APIEndpoint string `toml:"api_endpoint"`
}

// Default returns the built-in configuration pointing at dbPath.
func Default(dbPath string) Config {
	return Config{
		Database: DatabaseConfig{Path: dbPath},
		Validation: ValidationConfig{
			SkipContractAfterRequired: false,
			FiledPriority:             10,
		},
		Categories: CategoriesConfig{
			DefaultName: "Default",
			QualityName: "Quality",
		},
		Scheduler: SchedulerConfig{TickIntervalSeconds: 1},
		Server: ServerConfig{
			Bind:        "127.0.0.1:8844",
			MCPEndpoint: "/mcp",
			APIEndpoint: "/api/v1",
		},
	}
}

// Load reads the config file at path over the given defaults. A missing or
// empty file yields the defaults unchanged.
func Load(path string, defaults Config) (Config, error) {
	cfg := defaults
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if len(content) == 0 {
		return cfg, nil
	}

	if err := toml.Unmarshal(content, &cfg); err != nil {
		return Config{}, fmt.Errorf("decode toml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects configurations the tool cannot run with.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Database.Path) == "" {
		return errors.New("database.path is required")
	}
	if c.Validation.FiledPriority < 0 {
		return fmt.Errorf("validation.filed_priority must be >= 0, got %d", c.Validation.FiledPriority)
	}
	if strings.TrimSpace(c.Categories.DefaultName) == "" {
		return errors.New("categories.default_name is required")
	}
	if strings.TrimSpace(c.Categories.QualityName) == "" {
		return errors.New("categories.quality_name is required")
	}
	if c.Scheduler.TickIntervalSeconds < 1 {
		return fmt.Errorf("scheduler.tick_interval_seconds must be >= 1, got %d", c.Scheduler.TickIntervalSeconds)
	}
	if strings.TrimSpace(c.Server.Bind) == "" {
		return errors.New("server.bind is required")
	}
	if !strings.HasPrefix(c.Server.MCPEndpoint, "/") {
		return fmt.Errorf("server.mcp_endpoint must start with /, got %q", c.Server.MCPEndpoint)
	}
	if !strings.HasPrefix(c.Server.APIEndpoint, "/") {
		return fmt.Errorf("server.api_endpoint must start with /, got %q", c.Server.APIEndpoint)
	}
	return nil
}

// WriteStarterIfMissing writes cfg as a TOML starter file at path when no
// file exists there yet. The write goes through a temp file and rename so a
// crash never leaves a half-written config behind.
func WriteStarterIfMissing(path string, cfg Config) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("stat config: %w", err)
	}

	encoded, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode starter config: %w", err)
	}
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config dir: %w", err)
		}
	}
	tmp, err := os.CreateTemp(dir, ".config-*.toml")
	if err != nil {
		return fmt.Errorf("create temp config: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(encoded); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write temp config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close temp config: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("install starter config: %w", err)
	}
	return nil
}
