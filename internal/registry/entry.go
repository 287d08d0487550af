package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"time"

	"github.com/rentwise/api/internal/model"
)

var (
	// ErrUnknownResource is returned by Lookup for names without an entry
	ErrUnknownResource = errors.New("resource not found")

	// ErrNotUpdatable is returned by DecodeUpdate for resources defined with NoUpdate
	ErrNotUpdatable = errors.New("resource does not support updates")
)

// ValidationError lists every offending field of a request
type ValidationError struct {
	Fields []model.FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	return fmt.Sprintf("validation failed: %s: %s (%d field(s))", e.Fields[0].Field, e.Fields[0].Message, len(e.Fields))
}

// NoUpdate marks a resource whose rows cannot be changed through PUT
type NoUpdate struct{}

// Spec declares the ownership and relations of a resource
type Spec struct {
	// Owner is the column holding the caller id, empty for shared resources
	Owner string
	// ForeignKeys maps a column to the resource its value must exist in
	ForeignKeys map[string]model.ResourceKind
	// Gated resources are capped for callers without an active subscription
	Gated bool
}

// Entry is the behavior attached to one generic resource
type Entry interface {
	Kind() model.ResourceKind
	Table() string
	Columns() []Column
	Column(name string) (Column, bool)
	OwnerColumn() string
	ForeignKeys() map[string]model.ResourceKind
	Gated() bool
	Updatable() bool

	// Filters validates query-string filters; unknown keys and uncoercible
	// values are all reported
	Filters(query map[string]string) ([]model.ColumnValue, error)

	// DecodeCreate decodes a create body into column assignments.
	// Managed columns in the body are ignored.
	DecodeCreate(body []byte) ([]model.ColumnValue, error)

	// DecodeUpdate decodes a partial update; only keys present in the body are returned
	DecodeUpdate(body []byte) ([]model.ColumnValue, error)

	// Project maps a stored row onto the resource's output shape
	Project(row model.Row) (any, error)

	// Schema lists the output fields in declaration order
	Schema() []model.SchemaField
}

type validator interface {
	Validate() []model.FieldError
}

type entry[R, U, O any] struct {
	kind      model.ResourceKind
	spec      Spec
	columns   []Column
	byName    map[string]Column
	updatable bool
	// updateFields maps json names of U onto U's field indexes
	updateFields map[string]int
	project      func(R) O
	schema       []model.SchemaField
}

// define builds an Entry for row type R, update type U and projector output O.
// It panics on declarations that do not line up with R.
func define[R, U, O any](kind model.ResourceKind, spec Spec, project func(R) O) Entry {
	rowType := reflect.TypeOf((*R)(nil)).Elem()
	updType := reflect.TypeOf((*U)(nil)).Elem()
	outType := reflect.TypeOf((*O)(nil)).Elem()

	e := &entry[R, U, O]{
		kind:      kind,
		spec:      spec,
		columns:   columnsOf(rowType, spec),
		updatable: updType != reflect.TypeOf(NoUpdate{}),
		project:   project,
		schema:    schemaOf(outType),
	}

	e.byName = make(map[string]Column, len(e.columns))
	for _, c := range e.columns {
		e.byName[c.Name] = c
	}

	if spec.Owner != "" {
		if _, ok := e.byName[spec.Owner]; !ok {
			panic(fmt.Sprintf("registry: %s has no owner column %q", kind, spec.Owner))
		}
	}
	for col := range spec.ForeignKeys {
		if _, ok := e.byName[col]; !ok {
			panic(fmt.Sprintf("registry: %s has no foreign key column %q", kind, col))
		}
	}

	if e.updatable {
		e.updateFields = make(map[string]int, updType.NumField())
		for i := 0; i < updType.NumField(); i++ {
			name := jsonName(updType.Field(i))
			if name == "" {
				continue
			}
			col, ok := e.byName[name]
			if !ok || col.Managed {
				panic(fmt.Sprintf("registry: %s update field %q is not a writable column", kind, name))
			}
			e.updateFields[name] = i
		}
	}

	return e
}

func (e *entry[R, U, O]) Kind() model.ResourceKind { return e.kind }
func (e *entry[R, U, O]) Table() string            { return string(e.kind) }
func (e *entry[R, U, O]) Columns() []Column        { return e.columns }
func (e *entry[R, U, O]) OwnerColumn() string      { return e.spec.Owner }
func (e *entry[R, U, O]) Gated() bool              { return e.spec.Gated }
func (e *entry[R, U, O]) Updatable() bool          { return e.updatable }
func (e *entry[R, U, O]) Schema() []model.SchemaField {
	return e.schema
}

func (e *entry[R, U, O]) Column(name string) (Column, bool) {
	c, ok := e.byName[name]
	return c, ok
}

func (e *entry[R, U, O]) ForeignKeys() map[string]model.ResourceKind {
	return e.spec.ForeignKeys
}

func (e *entry[R, U, O]) Filters(query map[string]string) ([]model.ColumnValue, error) {
	var (
		values []model.ColumnValue
		errs   []model.FieldError
	)
	for _, key := range sortedKeys(query) {
		col, ok := e.byName[key]
		if !ok {
			errs = append(errs, model.FieldError{Field: key, Message: "unknown filter"})
			continue
		}
		cv, err := col.Parse(e.Table(), query[key])
		if err != nil {
			errs = append(errs, model.FieldError{Field: key, Message: err.Error()})
			continue
		}
		values = append(values, cv)
	}
	if len(errs) > 0 {
		return nil, &ValidationError{Fields: errs}
	}
	return values, nil
}

func (e *entry[R, U, O]) DecodeCreate(body []byte) ([]model.ColumnValue, error) {
	raw, err := parseObject(body)
	if err != nil {
		return nil, err
	}

	rowFields := make(map[string]int, len(e.columns))
	for _, c := range e.columns {
		if c.Managed {
			delete(raw, c.Name)
			continue
		}
		rowFields[c.Name] = c.index
	}

	var row R
	rv := reflect.ValueOf(&row).Elem()
	_, errs := decodeFields(raw, rv, rowFields)

	if v, ok := any(&row).(validator); ok {
		errs = mergeFieldErrors(errs, v.Validate())
	}

	var values []model.ColumnValue
	for _, c := range e.columns {
		if c.Managed {
			continue
		}
		fv := rv.Field(c.index)
		if fv.Kind() == reflect.Ptr {
			if fv.IsNil() {
				continue
			}
			fv = fv.Elem()
		}
		cv, fe := e.columnValue(c, fv)
		if fe != nil {
			errs = mergeFieldErrors(errs, []model.FieldError{*fe})
			continue
		}
		values = append(values, cv)
	}

	if len(errs) > 0 {
		return nil, &ValidationError{Fields: errs}
	}
	return values, nil
}

func (e *entry[R, U, O]) DecodeUpdate(body []byte) ([]model.ColumnValue, error) {
	if !e.updatable {
		return nil, ErrNotUpdatable
	}
	raw, err := parseObject(body)
	if err != nil {
		return nil, err
	}

	var upd U
	uv := reflect.ValueOf(&upd).Elem()
	set, errs := decodeFields(raw, uv, e.updateFields)

	if v, ok := any(&upd).(validator); ok {
		errs = mergeFieldErrors(errs, v.Validate())
	}

	var values []model.ColumnValue
	for _, name := range set {
		c := e.byName[name]
		fv := uv.Field(e.updateFields[name])
		if fv.Kind() == reflect.Ptr {
			if fv.IsNil() {
				if !c.Nullable {
					errs = mergeFieldErrors(errs, []model.FieldError{{Field: name, Message: "must not be null"}})
					continue
				}
				values = append(values, model.ColumnValue{Column: name, Value: nil, Datetime: c.Type == ColumnTime})
				continue
			}
			fv = fv.Elem()
		}
		cv, fe := e.columnValue(c, fv)
		if fe != nil {
			errs = mergeFieldErrors(errs, []model.FieldError{*fe})
			continue
		}
		values = append(values, cv)
	}

	if len(errs) > 0 {
		return nil, &ValidationError{Fields: errs}
	}
	return values, nil
}

func (e *entry[R, U, O]) Project(row model.Row) (any, error) {
	data, err := json.Marshal(row)
	if err != nil {
		return nil, fmt.Errorf("project %s: %w", e.kind, err)
	}
	var r R
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("project %s: %w", e.kind, err)
	}
	return e.project(r), nil
}

// columnValue converts a decoded, non-nil field into a storage assignment
func (e *entry[R, U, O]) columnValue(c Column, fv reflect.Value) (model.ColumnValue, *model.FieldError) {
	cv := model.ColumnValue{Column: c.Name, Value: fv.Interface()}

	switch c.Type {
	case ColumnTime:
		t := fv.Interface().(time.Time)
		cv.Value = t.UTC().Format(time.RFC3339Nano)
		cv.Datetime = true
	case ColumnRef:
		id, ok := RecordID(string(c.References), fv.String())
		if !ok {
			return cv, &model.FieldError{Field: c.Name, Message: fmt.Sprintf("must be an id of %s", c.References)}
		}
		cv.Value = id
	}

	return cv, nil
}

// parseObject splits a JSON object body into its raw members
func parseObject(body []byte) (map[string]json.RawMessage, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil || raw == nil {
		return nil, &ValidationError{Fields: []model.FieldError{{Field: "body", Message: "request body must be a JSON object"}}}
	}
	return raw, nil
}

// decodeFields decodes each member of raw into the struct field named by fields.
// It returns the member names that were set, in sorted order, and every
// unknown or mistyped member.
func decodeFields(raw map[string]json.RawMessage, dst reflect.Value, fields map[string]int) ([]string, []model.FieldError) {
	var (
		set  []string
		errs []model.FieldError
	)
	for _, name := range sortedKeys(raw) {
		idx, ok := fields[name]
		if !ok {
			errs = append(errs, model.FieldError{Field: name, Message: "unknown field"})
			continue
		}
		field := dst.Field(idx)
		ptr := reflect.New(field.Type())
		if err := json.Unmarshal(raw[name], ptr.Interface()); err != nil {
			errs = append(errs, model.FieldError{Field: name, Message: "must be " + article(field.Type())})
			continue
		}
		field.Set(ptr.Elem())
		set = append(set, name)
	}
	return set, errs
}

func article(t reflect.Type) string {
	ct, ok := columnType(t)
	if !ok {
		return "a valid value"
	}
	switch ct {
	case ColumnInt:
		return "an integer"
	case ColumnTime:
		return "an RFC 3339 datetime"
	default:
		return "a " + ct.String()
	}
}

// mergeFieldErrors appends extra, skipping fields that already have an error
func mergeFieldErrors(errs, extra []model.FieldError) []model.FieldError {
	for _, fe := range extra {
		dup := false
		for _, existing := range errs {
			if existing.Field == fe.Field {
				dup = true
				break
			}
		}
		if !dup {
			errs = append(errs, fe)
		}
	}
	return errs
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
