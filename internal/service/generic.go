package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rentwise/api/internal/audit"
	"github.com/rentwise/api/internal/database"
	"github.com/rentwise/api/internal/model"
	"github.com/rentwise/api/internal/registry"
)

// GatedRowLimit caps reads of gated resources for callers without an active subscription
const GatedRowLimit = 5

// reservedQueryKeys are stripped from generic filters
var reservedQueryKeys = []string{"mode"}

// GenericRepository defines the table-agnostic storage used by the generic routes
type GenericRepository interface {
	Find(ctx context.Context, table string, filters []model.ColumnValue, limit int) ([]model.Row, error)
	FindByID(ctx context.Context, table, id string, filters []model.ColumnValue) (model.Row, error)
	Insert(ctx context.Context, table string, values []model.ColumnValue) (model.Row, error)
	UpdateByID(ctx context.Context, table, id string, filters []model.ColumnValue, values []model.ColumnValue) (model.Row, error)
	Delete(ctx context.Context, table string, filters []model.ColumnValue) (int, error)
	Exists(ctx context.Context, table, id string) (bool, error)
}

// SubscriptionReader returns a caller's subscription status
type SubscriptionReader interface {
	SubscriptionStatus(ctx context.Context, userID string) (string, error)
}

// AuditRecorder accepts audit events without blocking
type AuditRecorder interface {
	Submit(e audit.Event) bool
}

// GenericService implements list/create/update/delete for every registered resource
type GenericService struct {
	registry      *registry.Registry
	repo          GenericRepository
	subscriptions SubscriptionReader
	audit         AuditRecorder
}

// GenericServiceConfig holds configuration for the generic service
type GenericServiceConfig struct {
	Registry      *registry.Registry
	Repo          GenericRepository
	Subscriptions SubscriptionReader
	Audit         AuditRecorder
}

// NewGenericService creates a new generic service
func NewGenericService(cfg GenericServiceConfig) *GenericService {
	return &GenericService{
		registry:      cfg.Registry,
		repo:          cfg.Repo,
		subscriptions: cfg.Subscriptions,
		audit:         cfg.Audit,
	}
}

// Schema returns the output fields of a resource
func (s *GenericService) Schema(resource string) ([]model.SchemaField, error) {
	fields, err := s.registry.LookupSchema(resource)
	if err != nil {
		return nil, ErrResourceNotFound
	}
	return fields, nil
}

// List returns the caller's rows of resource matching query
func (s *GenericService) List(ctx context.Context, userID, resource string, query map[string]string) ([]any, error) {
	entry, err := s.lookup(resource)
	if err != nil {
		return nil, err
	}

	query = withoutReserved(query)
	if owner := entry.OwnerColumn(); owner != "" {
		query[owner] = userID
	}

	filters, err := entry.Filters(query)
	if err != nil {
		return nil, err
	}

	limit := 0
	if entry.Gated() {
		status, err := s.subscriptions.SubscriptionStatus(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("read subscription: %w", err)
		}
		if status != model.SubscriptionActive {
			limit = GatedRowLimit
		}
	}

	rows, err := s.repo.Find(ctx, entry.Table(), filters, limit)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", entry.Kind(), err)
	}
	return projectAll(entry, rows)
}

// Create inserts a row owned by the caller and returns its projection
func (s *GenericService) Create(ctx context.Context, userID, resource string, body []byte) (any, error) {
	entry, err := s.lookup(resource)
	if err != nil {
		return nil, err
	}

	values, err := entry.DecodeCreate(body)
	if err != nil {
		return nil, err
	}
	values = withOwner(entry, values, userID)

	if err := s.checkForeignKeys(ctx, entry, values); err != nil {
		return nil, err
	}

	row, err := s.repo.Insert(ctx, entry.Table(), values)
	if err != nil {
		return nil, classifyWriteError("creating", err)
	}

	out, err := entry.Project(row)
	if err != nil {
		return nil, err
	}

	s.record(ctx, userID, audit.EventGenericCreate, map[string]interface{}{
		"resource": entry.Kind().String(),
		"id":       row["id"],
	})
	return out, nil
}

// Update applies a partial update to one of the caller's rows
func (s *GenericService) Update(ctx context.Context, userID, resource, id string, body []byte) (any, error) {
	entry, err := s.lookup(resource)
	if err != nil {
		return nil, err
	}
	if !entry.Updatable() {
		return nil, ErrNotUpdatable
	}

	recordID, ok := registry.RecordID(entry.Table(), id)
	if !ok {
		return nil, ErrRowNotFound
	}
	scope := ownerScope(entry, userID)

	existing, err := s.repo.FindByID(ctx, entry.Table(), recordID, scope)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", entry.Kind(), err)
	}
	if existing == nil {
		return nil, ErrRowNotFound
	}

	values, err := entry.DecodeUpdate(body)
	if err != nil {
		if errors.Is(err, registry.ErrNotUpdatable) {
			return nil, ErrNotUpdatable
		}
		return nil, err
	}
	if err := s.checkForeignKeys(ctx, entry, values); err != nil {
		return nil, err
	}

	row, err := s.repo.UpdateByID(ctx, entry.Table(), recordID, scope, values)
	if err != nil {
		return nil, classifyWriteError("updating", err)
	}
	if row == nil {
		return nil, ErrRowNotFound
	}

	out, err := entry.Project(row)
	if err != nil {
		return nil, err
	}

	changed := make([]string, 0, len(values))
	for _, v := range values {
		changed = append(changed, v.Column)
	}
	s.record(ctx, userID, audit.EventGenericUpdate, map[string]interface{}{
		"resource": entry.Kind().String(),
		"id":       recordID,
		"fields":   changed,
	})
	return out, nil
}

// Delete removes every caller row of resource matching query.
// The owner scope counts as a filter; kinds without an owner column need
// at least one query filter.
func (s *GenericService) Delete(ctx context.Context, userID, resource string, query map[string]string) (*model.DeleteResult, error) {
	entry, err := s.lookup(resource)
	if err != nil {
		return nil, err
	}

	query = withoutReserved(query)
	owner := entry.OwnerColumn()
	if owner != "" {
		delete(query, owner)
	}

	filters, err := entry.Filters(query)
	if err != nil {
		return nil, err
	}
	filters = append(filters, ownerScope(entry, userID)...)
	if len(filters) == 0 {
		return nil, ErrEmptyFilter
	}

	n, err := s.repo.Delete(ctx, entry.Table(), filters)
	if err != nil {
		return nil, classifyWriteError("deleting", err)
	}
	if n == 0 {
		return nil, ErrNoMatch
	}

	s.record(ctx, userID, audit.EventGenericDelete, map[string]interface{}{
		"resource": entry.Kind().String(),
		"deleted":  n,
	})
	return &model.DeleteResult{
		Deleted: n,
		Detail:  fmt.Sprintf("Deleted %d item(s) from %s.", n, entry.Kind()),
	}, nil
}

func (s *GenericService) lookup(resource string) (registry.Entry, error) {
	entry, err := s.registry.Lookup(resource)
	if err != nil {
		return nil, ErrResourceNotFound
	}
	return entry, nil
}

// checkForeignKeys reports every reference whose target row is missing
func (s *GenericService) checkForeignKeys(ctx context.Context, entry registry.Entry, values []model.ColumnValue) error {
	refs := entry.ForeignKeys()
	if len(refs) == 0 {
		return nil
	}

	var fields []model.FieldError
	for _, v := range values {
		target, ok := refs[v.Column]
		if !ok || v.Value == nil {
			continue
		}
		id, _ := v.Value.(string)
		exists, err := s.repo.Exists(ctx, target.String(), id)
		if err != nil {
			return fmt.Errorf("check %s: %w", v.Column, err)
		}
		if !exists {
			fields = append(fields, model.FieldError{
				Field:   v.Column,
				Message: fmt.Sprintf("%s %s does not exist", target, id),
			})
		}
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

func (s *GenericService) record(ctx context.Context, userID, event string, details map[string]interface{}) {
	if s.audit == nil {
		return
	}
	s.audit.Submit(audit.New(userID, event, audit.ClientIP(ctx), details))
}

// withOwner replaces or adds the owner column with the caller id
func withOwner(entry registry.Entry, values []model.ColumnValue, userID string) []model.ColumnValue {
	owner := entry.OwnerColumn()
	if owner == "" {
		return values
	}
	for i := range values {
		if values[i].Column == owner {
			values[i].Value = userID
			return values
		}
	}
	return append(values, model.ColumnValue{Column: owner, Value: userID})
}

func ownerScope(entry registry.Entry, userID string) []model.ColumnValue {
	if owner := entry.OwnerColumn(); owner != "" {
		return []model.ColumnValue{{Column: owner, Value: userID}}
	}
	return nil
}

// withoutReserved copies query without the reserved keys
func withoutReserved(query map[string]string) map[string]string {
	out := make(map[string]string, len(query)+1)
	for k, v := range query {
		out[k] = v
	}
	for _, k := range reservedQueryKeys {
		delete(out, k)
	}
	return out
}

func projectAll(entry registry.Entry, rows []model.Row) ([]any, error) {
	out := make([]any, 0, len(rows))
	for _, row := range rows {
		p, err := entry.Project(row)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// classifyWriteError maps storage failures onto service errors
func classifyWriteError(op string, err error) error {
	switch {
	case errors.Is(err, database.ErrDuplicate):
		return ErrDuplicateRow
	case errors.Is(err, database.ErrConstraint):
		msg := strings.TrimPrefix(err.Error(), database.ErrConstraint.Error()+": ")
		return &ConstraintError{Message: msg}
	default:
		return &StorageError{Op: op, Err: err}
	}
}
