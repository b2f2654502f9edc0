// Package blueprint loads YAML grid presets and expands them into the
// options map a grid is created from.
package blueprint

import (
	"fmt"

	"github.com/goccy/go-yaml"
)

// Blueprint represents the root structure of a grid preset file.
type Blueprint struct {
	Grid    GridMetadata     `yaml:"grid"`
	Columns []Column         `yaml:"columns"`
	Rows    []map[string]any `yaml:"rows,omitempty"`
	Options map[string]any   `yaml:"options,omitempty"`
}

// GridMetadata contains grid identification and rendering hints.
type GridMetadata struct {
	Name        string `yaml:"name"`
	Theme       string `yaml:"theme,omitempty"`
	AutoSize    bool   `yaml:"auto_size,omitempty"`
	HTMLColumns []int  `yaml:"html_columns,omitempty"`
}

// Column is one column definition in preset form.
type Column struct {
	Field      string `yaml:"field"`
	HeaderName string `yaml:"header,omitempty"`
	Sortable   bool   `yaml:"sortable,omitempty"`
	Filter     bool   `yaml:"filter,omitempty"`
	Editable   bool   `yaml:"editable,omitempty"`
	Checkbox   bool   `yaml:"checkbox,omitempty"`
}

// Parse converts preset YAML content to a Blueprint.
func Parse(content []byte) (*Blueprint, error) {
	var bp Blueprint
	if err := yaml.Unmarshal(content, &bp); err != nil {
		return nil, fmt.Errorf("parse blueprint: %w", err)
	}

	if bp.Grid.Name == "" {
		return nil, fmt.Errorf("grid.name is required")
	}
	if len(bp.Columns) == 0 {
		return nil, fmt.Errorf("at least one column is required")
	}
	for i, col := range bp.Columns {
		if col.Field == "" {
			return nil, fmt.Errorf("columns[%d]: field is required", i)
		}
	}
	return &bp, nil
}

// GridOptions expands the blueprint into the options map handed to the
// widget. Extra keys from the options block pass through untouched;
// columnDefs and rowData derived from the typed sections win over
// same-named keys in that block.
func (bp *Blueprint) GridOptions() map[string]any {
	options := make(map[string]any, len(bp.Options)+2)
	for k, v := range bp.Options {
		options[k] = v
	}

	defs := make([]any, 0, len(bp.Columns))
	for _, col := range bp.Columns {
		defs = append(defs, col.def())
	}
	options["columnDefs"] = defs

	rows := make([]map[string]any, 0, len(bp.Rows))
	rows = append(rows, bp.Rows...)
	options["rowData"] = rows

	return options
}

func (c Column) def() map[string]any {
	def := map[string]any{"field": c.Field}
	if c.HeaderName != "" {
		def["headerName"] = c.HeaderName
	}
	if c.Sortable {
		def["sortable"] = true
	}
	if c.Filter {
		def["filter"] = true
	}
	if c.Editable {
		def["editable"] = true
	}
	if c.Checkbox {
		def["checkboxSelection"] = true
	}
	return def
}
