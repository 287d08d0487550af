// Package database provides the storage abstraction used by the repositories.
//
// The Database interface wraps SurrealDB. Query returns one wrapper per
// statement in the form {"status": "OK", "result": ...}; QueryOne unwraps the
// first record of the first statement.
//
// # Error Handling
//
// Statement failures are classified into sentinel errors:
//   - ErrNotFound: record does not exist
//   - ErrDuplicate: a UNIQUE index rejected the write
//   - ErrConstraint: a field ASSERT or type coercion rejected the write
//   - ErrConnection: database connection issues
//   - ErrQuery: any other statement failure
//
// The storage message is kept in the wrapped error so callers can surface it:
//
//	if errors.Is(err, database.ErrConstraint) {
//	    // err.Error() carries the database message
//	}
package database

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicate indicates a unique index violation.
	ErrDuplicate = errors.New("duplicate record")

	// ErrConstraint indicates a schema constraint other than uniqueness failed.
	ErrConstraint = errors.New("constraint violation")

	// ErrConnection indicates a failure to connect to or communicate with the database.
	ErrConnection = errors.New("database connection error")

	// ErrQuery indicates a query execution failure (syntax error, invalid reference, etc.).
	ErrQuery = errors.New("query error")
)

// Database defines the interface for database operations
type Database interface {
	Connect(ctx context.Context) error
	Close() error
	Ping(ctx context.Context) error

	// Query executes one or more statements and returns one wrapper per statement
	Query(ctx context.Context, query string, vars map[string]interface{}) ([]interface{}, error)

	// QueryOne executes a query and returns the first record of the first statement
	QueryOne(ctx context.Context, query string, vars map[string]interface{}) (interface{}, error)

	// Execute runs a query without returning results (for mutations)
	Execute(ctx context.Context, query string, vars map[string]interface{}) error
}

// Config holds database configuration
type Config struct {
	Host      string
	Port      string
	User      string
	Password  string
	Namespace string
	Database  string
}

// Endpoint returns the websocket endpoint for the configured host
func (c Config) Endpoint() string {
	return fmt.Sprintf("ws://%s:%s", c.Host, c.Port)
}
