package repository

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/surrealdb/surrealdb.go/pkg/models"

	"github.com/rentwise/api/internal/model"
)

var identPattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// convertSurrealID renders a SurrealDB record id as "table:key"
func convertSurrealID(id interface{}) string {
	switch v := id.(type) {
	case string:
		return v
	case models.RecordID:
		return fmt.Sprintf("%s:%v", v.Table, v.ID)
	case *models.RecordID:
		if v != nil {
			return fmt.Sprintf("%s:%v", v.Table, v.ID)
		}
	case map[string]interface{}:
		// {"tb": "table", "id": "xxx"} format
		if tb, ok := v["tb"].(string); ok {
			return fmt.Sprintf("%s:%v", tb, v["id"])
		}
	}
	return ""
}

// recordIDs converts "table:key" strings into record ids for IN clauses
func recordIDs(ids []string) []models.RecordID {
	out := make([]models.RecordID, 0, len(ids))
	for _, id := range ids {
		table, key, ok := strings.Cut(id, ":")
		if !ok || key == "" {
			continue
		}
		out = append(out, models.NewRecordID(table, key))
	}
	return out
}

// normalizeValue converts driver types into plain Go values:
// record ids become "table:key" strings and datetimes become time.Time
func normalizeValue(v interface{}) interface{} {
	switch t := v.(type) {
	case models.RecordID, *models.RecordID:
		return convertSurrealID(t)
	case models.CustomDateTime:
		return t.Time
	case *models.CustomDateTime:
		if t == nil {
			return nil
		}
		return t.Time
	case map[string]interface{}:
		return normalizeRow(t)
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, item := range t {
			out[i] = normalizeValue(item)
		}
		return out
	}
	return v
}

// normalizeRow returns a copy of a stored record with driver types replaced
func normalizeRow(m map[string]interface{}) model.Row {
	row := make(model.Row, len(m))
	for k, v := range m {
		row[k] = normalizeValue(v)
	}
	return row
}

// extractQueryResults extracts the record list of statement n
func extractQueryResults(results []interface{}, n int) []interface{} {
	if n >= len(results) {
		return nil
	}
	resp, ok := results[n].(map[string]interface{})
	if !ok {
		return nil
	}
	switch data := resp["result"].(type) {
	case []interface{}:
		return data
	case map[string]interface{}:
		return []interface{}{data}
	}
	return nil
}

// rowsOf normalizes every record of statement n
func rowsOf(results []interface{}, n int) []model.Row {
	records := extractQueryResults(results, n)
	rows := make([]model.Row, 0, len(records))
	for _, rec := range records {
		if m, ok := rec.(map[string]interface{}); ok {
			rows = append(rows, normalizeRow(m))
		}
	}
	return rows
}

// decodeRow fills dst from a normalized row through its json tags
func decodeRow(row model.Row, dst interface{}) error {
	data, err := json.Marshal(row)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dst)
}

// decodeRows decodes every row of statement n into a slice of T
func decodeRows[T any](results []interface{}, n int) ([]*T, error) {
	rows := rowsOf(results, n)
	out := make([]*T, 0, len(rows))
	for _, row := range rows {
		item := new(T)
		if err := decodeRow(row, item); err != nil {
			return nil, fmt.Errorf("decode record: %w", err)
		}
		out = append(out, item)
	}
	return out, nil
}

// buildConditions renders filters as an AND-joined WHERE body.
// Column names must be plain identifiers; values are always bound.
func buildConditions(filters []model.ColumnValue, prefix string, vars map[string]interface{}) (string, error) {
	parts := make([]string, 0, len(filters))
	for i, f := range filters {
		if !identPattern.MatchString(f.Column) {
			return "", fmt.Errorf("invalid column name %q", f.Column)
		}
		param := fmt.Sprintf("%s%d", prefix, i)
		vars[param] = f.Value

		switch {
		case f.Record:
			parts = append(parts, fmt.Sprintf("%s = type::record($%s)", f.Column, param))
		case f.Datetime:
			parts = append(parts, fmt.Sprintf("%s = <datetime>$%s", f.Column, param))
		default:
			parts = append(parts, fmt.Sprintf("%s = $%s", f.Column, param))
		}
	}
	return strings.Join(parts, " AND "), nil
}

// buildAssignments renders values as a SET body; nil values remove the field
func buildAssignments(values []model.ColumnValue, vars map[string]interface{}) (string, error) {
	parts := make([]string, 0, len(values))
	for i, v := range values {
		if !identPattern.MatchString(v.Column) {
			return "", fmt.Errorf("invalid column name %q", v.Column)
		}
		if v.Value == nil {
			parts = append(parts, v.Column+" = NONE")
			continue
		}
		param := fmt.Sprintf("v%d", i)
		vars[param] = v.Value
		if v.Datetime {
			parts = append(parts, fmt.Sprintf("%s = <datetime>$%s", v.Column, param))
		} else {
			parts = append(parts, fmt.Sprintf("%s = $%s", v.Column, param))
		}
	}
	return strings.Join(parts, ", "), nil
}

// getString extracts a string value from a map
func getString(m map[string]interface{}, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

// getInt extracts an int value from a map
func getInt(m map[string]interface{}, key string) int {
	switch v := m[key].(type) {
	case float64:
		return int(v)
	case float32:
		return int(v)
	case int:
		return v
	case int64:
		return int(v)
	case uint64:
		return int(v)
	}
	return 0
}
