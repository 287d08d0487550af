package registry

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/rentwise/api/internal/model"
)

// ColumnType is the storage type of a column as derived from its Go field
type ColumnType int

const (
	ColumnString ColumnType = iota
	ColumnInt
	ColumnFloat
	ColumnBool
	ColumnTime
	// ColumnID is the record id of the row itself
	ColumnID
	// ColumnRef holds the "table:key" id of a row in another resource
	ColumnRef
)

// String returns the name used in schemas and error messages
func (t ColumnType) String() string {
	switch t {
	case ColumnString:
		return "string"
	case ColumnInt:
		return "integer"
	case ColumnFloat:
		return "number"
	case ColumnBool:
		return "boolean"
	case ColumnTime:
		return "datetime"
	case ColumnID, ColumnRef:
		return "id"
	default:
		return "unknown"
	}
}

var timeType = reflect.TypeOf(time.Time{})

// Column describes one storage column of a resource
type Column struct {
	Name     string
	Type     ColumnType
	Nullable bool
	// Managed columns are assigned by the server and never taken from a request body
	Managed    bool
	References model.ResourceKind

	index int
}

// Parse coerces a query-string value into a typed equality filter
func (c Column) Parse(table, raw string) (model.ColumnValue, error) {
	cv := model.ColumnValue{Column: c.Name}

	switch c.Type {
	case ColumnString:
		cv.Value = raw
	case ColumnInt:
		n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil {
			return cv, errors.New("must be an integer")
		}
		cv.Value = n
	case ColumnFloat:
		f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return cv, errors.New("must be a finite number")
		}
		cv.Value = f
	case ColumnBool:
		b, err := strconv.ParseBool(strings.TrimSpace(raw))
		if err != nil {
			return cv, errors.New("must be a boolean")
		}
		cv.Value = b
	case ColumnTime:
		t, err := parseTime(raw)
		if err != nil {
			return cv, errors.New("must be an RFC 3339 datetime or YYYY-MM-DD date")
		}
		cv.Value = t.UTC().Format(time.RFC3339Nano)
		cv.Datetime = true
	case ColumnID:
		id, ok := RecordID(table, raw)
		if !ok {
			return cv, fmt.Errorf("must be an id of %s", table)
		}
		cv.Value = id
		cv.Record = true
	case ColumnRef:
		id, ok := RecordID(string(c.References), raw)
		if !ok {
			return cv, fmt.Errorf("must be an id of %s", c.References)
		}
		cv.Value = id
	}

	return cv, nil
}

// RecordID qualifies key with table. A key already qualified with a
// different table is rejected.
func RecordID(table, key string) (string, bool) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", false
	}
	if prefix, rest, found := strings.Cut(key, ":"); found {
		if prefix != table || rest == "" {
			return "", false
		}
		return key, true
	}
	return table + ":" + key, true
}

func parseTime(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", raw)
}

// columnType maps a Go field type onto a column type
func columnType(t reflect.Type) (ColumnType, bool) {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t == timeType {
		return ColumnTime, true
	}
	switch t.Kind() {
	case reflect.String:
		return ColumnString, true
	case reflect.Int, reflect.Int32, reflect.Int64:
		return ColumnInt, true
	case reflect.Float32, reflect.Float64:
		return ColumnFloat, true
	case reflect.Bool:
		return ColumnBool, true
	}
	return 0, false
}

// jsonName returns the json field name, or "" when the field is not serialized
func jsonName(f reflect.StructField) string {
	if !f.IsExported() {
		return ""
	}
	tag := f.Tag.Get("json")
	if tag == "-" {
		return ""
	}
	name, _, _ := strings.Cut(tag, ",")
	if name == "" {
		name = f.Name
	}
	return name
}

// columnsOf derives the columns of a row struct from its json tags
func columnsOf(rowType reflect.Type, spec Spec) []Column {
	columns := make([]Column, 0, rowType.NumField())
	for i := 0; i < rowType.NumField(); i++ {
		f := rowType.Field(i)
		name := jsonName(f)
		if name == "" {
			continue
		}
		ct, ok := columnType(f.Type)
		if !ok {
			panic(fmt.Sprintf("registry: %s.%s has unsupported type %s", rowType.Name(), f.Name, f.Type))
		}

		col := Column{
			Name:     name,
			Type:     ct,
			Nullable: f.Type.Kind() == reflect.Ptr,
			Managed:  f.Tag.Get("col") == "managed" || name == "id",
			index:    i,
		}
		if name == "id" {
			col.Type = ColumnID
		}
		if ref, ok := spec.ForeignKeys[name]; ok {
			col.Type = ColumnRef
			col.References = ref
		}
		columns = append(columns, col)
	}
	return columns
}

// schemaOf describes the output fields of a projector result type, in field order
func schemaOf(outType reflect.Type) []model.SchemaField {
	fields := make([]model.SchemaField, 0, outType.NumField())
	for i := 0; i < outType.NumField(); i++ {
		f := outType.Field(i)
		name := jsonName(f)
		if name == "" {
			continue
		}
		typeName := "object"
		if ct, ok := columnType(f.Type); ok {
			typeName = ct.String()
		}
		if name == "id" || (strings.HasSuffix(name, "_id") && typeName == "string") {
			typeName = "id"
		}
		fields = append(fields, model.SchemaField{
			Name:     name,
			Type:     typeName,
			Nullable: f.Type.Kind() == reflect.Ptr,
		})
	}
	return fields
}
