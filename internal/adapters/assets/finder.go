// Package assets implements the host-side instance finder over a directory
// tree of JSON asset files. Each asset file declares its subject type in an
// envelope; registered subject prototypes decode the payload.
package assets

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/redphin/punchlist/internal/validate"
)

// Factory constructs a fresh, empty instance of a subject type for one
// asset payload to decode into.
type Factory func() any

// envelope is the on-disk asset wrapper.
type envelope struct {
	Type  string          `json:"type"`
	Owner string          `json:"owner"`
	Data  json.RawMessage `json:"data"`
}

// Finder enumerates subject instances by scanning scope roots for asset
// files. It implements validate.Finder.
type Finder struct {
	factories map[string]Factory
	logger    *log.Logger
}

// NewFinder constructs an empty finder.
func NewFinder(logger *log.Logger) *Finder {
	if logger == nil {
		logger = log.Default()
	}
	return &Finder{
		factories: map[string]Factory{},
		logger:    logger,
	}
}

// RegisterSubject makes a subject type discoverable under the given name.
func (f *Finder) RegisterSubject(name string, factory Factory) error {
	name = strings.TrimSpace(name)
	if name == "" || factory == nil {
		return fmt.Errorf("assets: subject name and factory are required")
	}
	if _, exists := f.factories[name]; exists {
		return fmt.Errorf("assets: subject %q already registered", name)
	}
	f.factories[name] = factory
	return nil
}

// Subjects lists the registered subject names in sorted order.
func (f *Finder) Subjects() []string {
	out := make([]string, 0, len(f.factories))
	for name := range f.factories {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// FindInstances walks every scope root and returns one instance per asset
// file whose envelope type matches the subject. Files are visited in sorted
// path order, so the result is deterministic within one call. Unreadable or
// malformed files are logged and skipped.
func (f *Finder) FindInstances(ctx context.Context, subject validate.Subject) ([]validate.Instance, error) {
	factory, ok := f.factories[subject.Name]
	if !ok {
		return nil, fmt.Errorf("%w: %q is not a registered subject", validate.ErrSubjectUnresolved, subject.Name)
	}

	var paths []string
	for _, root := range subject.Scope {
		rootPaths, err := collectAssetPaths(root)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", root, err)
		}
		paths = append(paths, rootPaths...)
	}
	sort.Strings(paths)

	instances := make([]validate.Instance, 0, len(paths))
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		instance, ok := f.loadAsset(path, subject.Name, factory)
		if !ok {
			continue
		}
		instances = append(instances, instance)
	}
	return instances, nil
}

// collectAssetPaths gathers every .json file under one root.
func collectAssetPaths(root string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if strings.EqualFold(filepath.Ext(path), ".json") {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return paths, nil
}

// loadAsset decodes one asset file, returning ok=false for files that do
// not hold an instance of the wanted subject.
func (f *Finder) loadAsset(path, subjectName string, factory Factory) (validate.Instance, bool) {
	raw, err := os.ReadFile(path)
	if err != nil {
		f.logger.Warn("skipping unreadable asset", "path", path, "err", err)
		return validate.Instance{}, false
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		f.logger.Warn("skipping malformed asset", "path", path, "err", err)
		return validate.Instance{}, false
	}
	if env.Type != subjectName {
		return validate.Instance{}, false
	}

	value := factory()
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, value); err != nil {
			f.logger.Warn("skipping undecodable asset payload", "path", path, "err", err)
			return validate.Instance{}, false
		}
	}
	return validate.Instance{
		Value: value,
		ID:    filepath.ToSlash(path),
		Owner: env.Owner,
	}, true
}
