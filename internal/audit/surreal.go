package audit

import (
	"context"
	"time"

	"github.com/rentwise/api/internal/database"
)

// SurrealSink writes events to the user_logs table of the primary database
type SurrealSink struct {
	db database.Database
}

// NewSurrealSink creates a sink over db
func NewSurrealSink(db database.Database) *SurrealSink {
	return &SurrealSink{db: db}
}

// Write inserts one user_logs row
func (s *SurrealSink) Write(ctx context.Context, e Event) error {
	query := `
		CREATE user_logs CONTENT {
			user_id: $user_id,
			event: $event,
			details: $details,
			ip_address: $ip_address,
			created_at: <datetime>$created_at
		}
	`
	details := e.Details
	if details == nil {
		details = map[string]interface{}{}
	}
	return s.db.Execute(ctx, query, map[string]interface{}{
		"user_id":    e.UserID,
		"event":      e.Event,
		"details":    details,
		"ip_address": e.IPAddress,
		"created_at": e.At.UTC().Format(time.RFC3339Nano),
	})
}
