package grid

import "github.com/microcosm-cc/bluemonday"

// sanitizedPayload is the element prop filter. Columns listed in
// html_columns render raw HTML on the client, so their cell values are
// sanitized in the outgoing payload. The in-memory options are never
// modified; rows are copied before rewriting.
func (g *Grid) sanitizedPayload(props map[string]any) map[string]any {
	if g.sanitizer == nil || len(g.htmlColumns) == 0 {
		return props
	}

	options, ok := props["options"].(map[string]any)
	if !ok {
		return props
	}
	fields := htmlFields(options, g.htmlColumns)
	if len(fields) == 0 {
		return props
	}

	rows, ok := rowSlice(options[rowDataKey])
	if !ok {
		return props
	}

	sanitized := make([]any, len(rows))
	for i, row := range rows {
		sanitized[i] = sanitizeRow(g.sanitizer, row, fields)
	}

	outOptions := make(map[string]any, len(options))
	for k, v := range options {
		outOptions[k] = v
	}
	outOptions[rowDataKey] = sanitized

	out := make(map[string]any, len(props))
	for k, v := range props {
		out[k] = v
	}
	out["options"] = outOptions
	return out
}

// htmlFields resolves html column indexes to field names via columnDefs.
// Indexes that do not resolve are skipped; the options stay opaque.
func htmlFields(options map[string]any, indexes []int) []string {
	defs, ok := rowSlice(options["columnDefs"])
	if !ok {
		return nil
	}

	var fields []string
	for _, idx := range indexes {
		if idx < 0 || idx >= len(defs) {
			continue
		}
		if field, ok := defs[idx]["field"].(string); ok && field != "" {
			fields = append(fields, field)
		}
	}
	return fields
}

func sanitizeRow(policy *bluemonday.Policy, row map[string]any, fields []string) map[string]any {
	dirty := false
	for _, field := range fields {
		if _, ok := row[field].(string); ok {
			dirty = true
			break
		}
	}
	if !dirty {
		return row
	}

	out := make(map[string]any, len(row))
	for k, v := range row {
		out[k] = v
	}
	for _, field := range fields {
		if s, ok := out[field].(string); ok {
			out[field] = policy.Sanitize(s)
		}
	}
	return out
}

// rowSlice normalizes []any or []map[string]any into []map[string]any.
func rowSlice(v any) ([]map[string]any, bool) {
	switch rows := v.(type) {
	case []map[string]any:
		return rows, true
	case []any:
		out := make([]map[string]any, 0, len(rows))
		for _, r := range rows {
			m, ok := r.(map[string]any)
			if !ok {
				return nil, false
			}
			out = append(out, m)
		}
		return out, true
	default:
		return nil, false
	}
}
