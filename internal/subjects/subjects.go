// Package subjects holds the built-in asset types the editor tooling ships
// with. Each type carries required-field tags and implements the validity
// contract so validation runs can target it out of the box.
package subjects

import (
	"fmt"
	"strings"

	"github.com/redphin/punchlist/internal/adapters/assets"
)

// Prefab describes one scene prefab asset: a named mesh with material
// bindings and a draw-distance budget.
type Prefab struct {
	Name            string   `json:"name" punch:"required"`
	Mesh            string   `json:"mesh" punch:"required"`
	Materials       []string `json:"materials"`
	MaxDrawDistance float64  `json:"max_draw_distance"`
}

// Validate checks internal consistency beyond required fields.
func (p *Prefab) Validate() (bool, string) {
	if p.MaxDrawDistance < 0 {
		return false, fmt.Sprintf("max_draw_distance must not be negative, got %v", p.MaxDrawDistance)
	}
	if len(p.Materials) == 0 {
		return false, "prefab has no material bindings"
	}
	for i, material := range p.Materials {
		if strings.TrimSpace(material) == "" {
			return false, fmt.Sprintf("material binding %d is blank", i)
		}
	}
	return true, ""
}

// DataTable describes one tabular data asset with a fixed column header.
type DataTable struct {
	Name    string     `json:"name" punch:"required"`
	Columns []string   `json:"columns" punch:"required"`
	Rows    [][]string `json:"rows"`
}

// Validate checks that every row matches the declared column width.
func (t *DataTable) Validate() (bool, string) {
	for i, row := range t.Rows {
		if len(row) != len(t.Columns) {
			return false, fmt.Sprintf("row %d has %d cells, want %d", i, len(row), len(t.Columns))
		}
	}
	return true, ""
}

// Register makes the built-in subject types discoverable through a finder.
func Register(finder *assets.Finder) error {
	if err := finder.RegisterSubject("Prefab", func() any { return &Prefab{} }); err != nil {
		return err
	}
	return finder.RegisterSubject("DataTable", func() any { return &DataTable{} })
}
