package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/rentwise/api/internal/database"
	"github.com/rentwise/api/internal/model"
)

// GenericRepository runs table-agnostic CRUD for the registry-driven routes.
// Table and column names come from the registry; values are always bound.
type GenericRepository struct {
	db database.Database
}

// NewGenericRepository creates a new generic repository
func NewGenericRepository(db database.Database) *GenericRepository {
	return &GenericRepository{db: db}
}

// Find returns the rows of table matching every filter, ordered by id.
// A limit of zero or less returns every match.
func (r *GenericRepository) Find(ctx context.Context, table string, filters []model.ColumnValue, limit int) ([]model.Row, error) {
	vars := map[string]interface{}{"table": table}
	query := "SELECT * FROM type::table($table)"

	where, err := buildConditions(filters, "f", vars)
	if err != nil {
		return nil, err
	}
	if where != "" {
		query += " WHERE " + where
	}
	query += " ORDER BY id"
	if limit > 0 {
		query += " LIMIT $limit"
		vars["limit"] = limit
	}

	results, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return nil, err
	}
	return rowsOf(results, 0), nil
}

// FindByID returns one row, or nil when it does not exist or fails the
// extra filters (typically the owner column)
func (r *GenericRepository) FindByID(ctx context.Context, table, id string, filters []model.ColumnValue) (model.Row, error) {
	vars := map[string]interface{}{"table": table, "id": id}
	query := "SELECT * FROM type::table($table) WHERE id = type::record($id)"

	where, err := buildConditions(filters, "f", vars)
	if err != nil {
		return nil, err
	}
	if where != "" {
		query += " AND " + where
	}
	query += " LIMIT 1"

	results, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return nil, err
	}
	rows := rowsOf(results, 0)
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

// Insert creates a row and returns it as stored
func (r *GenericRepository) Insert(ctx context.Context, table string, values []model.ColumnValue) (model.Row, error) {
	vars := map[string]interface{}{"table": table}
	query := "CREATE type::table($table)"

	set, err := buildAssignments(values, vars)
	if err != nil {
		return nil, err
	}
	if set != "" {
		query += " SET " + set
	}
	query += " RETURN AFTER"

	results, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return nil, err
	}
	rows := rowsOf(results, 0)
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: create on %s returned no record", database.ErrQuery, table)
	}
	return rows[0], nil
}

// UpdateByID applies values to one row and returns it after the change.
// Returns nil when the row does not exist or fails the extra filters.
func (r *GenericRepository) UpdateByID(ctx context.Context, table, id string, filters []model.ColumnValue, values []model.ColumnValue) (model.Row, error) {
	if len(values) == 0 {
		return r.FindByID(ctx, table, id, filters)
	}

	vars := map[string]interface{}{"table": table, "id": id}
	set, err := buildAssignments(values, vars)
	if err != nil {
		return nil, err
	}

	// A table-scoped UPDATE with a WHERE never creates the record
	query := "UPDATE type::table($table) SET " + set + " WHERE id = type::record($id)"
	where, err := buildConditions(filters, "f", vars)
	if err != nil {
		return nil, err
	}
	if where != "" {
		query += " AND " + where
	}
	query += " RETURN AFTER"

	results, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return nil, err
	}
	rows := rowsOf(results, 0)
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

// Delete removes every row matching filters in one statement and returns
// how many were removed. Filters must not be empty.
func (r *GenericRepository) Delete(ctx context.Context, table string, filters []model.ColumnValue) (int, error) {
	if len(filters) == 0 {
		return 0, errors.New("delete without filters")
	}

	vars := map[string]interface{}{"table": table}
	where, err := buildConditions(filters, "f", vars)
	if err != nil {
		return 0, err
	}

	query := "DELETE type::table($table) WHERE " + where + " RETURN BEFORE"
	results, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return 0, err
	}
	return len(extractQueryResults(results, 0)), nil
}

// Exists reports whether a record id of table exists
func (r *GenericRepository) Exists(ctx context.Context, table, id string) (bool, error) {
	query := "SELECT id FROM type::table($table) WHERE id = type::record($id) LIMIT 1"
	_, err := r.db.QueryOne(ctx, query, map[string]interface{}{"table": table, "id": id})
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
