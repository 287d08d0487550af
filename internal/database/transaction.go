package database

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// TxBuilder collects statements into a single BEGIN/COMMIT block.
// Variables are namespaced per statement so $id in two statements does not collide:
//
//	tb := NewTxBuilder()
//	tb.Add("CREATE views_tracking SET user_id = $user_id", vars1)
//	tb.Add("UPDATE type::record($id) SET views += 1", vars2)
//	results, err := ExecuteTransaction(ctx, db, tb)
//
// Statements are sent together at execution time; there is no isolation
// between Add calls.
type TxBuilder struct {
	statements []string
	vars       map[string]interface{}
}

// NewTxBuilder creates a new transaction builder
func NewTxBuilder() *TxBuilder {
	return &TxBuilder{
		vars: make(map[string]interface{}),
	}
}

// Add appends a statement, renaming its variables to v<n>_<name>
func (tb *TxBuilder) Add(query string, vars map[string]interface{}) {
	n := len(tb.statements) + 1

	// Longest names first so $user does not clobber $user_id.
	names := make([]string, 0, len(vars))
	for name := range vars {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return len(names[i]) > len(names[j]) })

	for _, name := range names {
		renamed := fmt.Sprintf("v%d_%s", n, name)
		query = strings.ReplaceAll(query, "$"+name, "$"+renamed)
		tb.vars[renamed] = vars[name]
	}

	tb.statements = append(tb.statements, query)
}

// Len returns the number of statements collected so far
func (tb *TxBuilder) Len() int {
	return len(tb.statements)
}

// Build returns the complete transaction query and merged variables
func (tb *TxBuilder) Build() (string, map[string]interface{}) {
	if len(tb.statements) == 0 {
		return "", nil
	}

	var sb strings.Builder
	sb.WriteString("BEGIN TRANSACTION;\n")
	for _, stmt := range tb.statements {
		sb.WriteString(strings.TrimSuffix(strings.TrimSpace(stmt), ";"))
		sb.WriteString(";\n")
	}
	sb.WriteString("COMMIT TRANSACTION;")

	return sb.String(), tb.vars
}

// ExecuteTransaction executes a transaction built with TxBuilder.
// Results are returned per statement in the order they were added.
func ExecuteTransaction(ctx context.Context, db Database, tb *TxBuilder) ([]interface{}, error) {
	query, vars := tb.Build()
	if query == "" {
		return nil, nil
	}
	return db.Query(ctx, query, vars)
}
