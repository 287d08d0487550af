package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const createUserLogsTable = `
CREATE TABLE IF NOT EXISTS user_logs (
	id BIGSERIAL PRIMARY KEY,
	user_id TEXT NOT NULL,
	event TEXT NOT NULL,
	details JSONB NOT NULL DEFAULT '{}'::jsonb,
	ip_address TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// PostgresSink writes events to a user_logs table in Postgres
type PostgresSink struct {
	pool *pgxpool.Pool
}

// NewPostgresSink connects to url and creates the user_logs table if missing
func NewPostgresSink(ctx context.Context, url string) (*PostgresSink, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("audit: connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("audit: ping postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, createUserLogsTable); err != nil {
		pool.Close()
		return nil, fmt.Errorf("audit: create user_logs: %s", pgErrorMessage(err))
	}
	return &PostgresSink{pool: pool}, nil
}

// Write inserts one user_logs row
func (s *PostgresSink) Write(ctx context.Context, e Event) error {
	details := e.Details
	if details == nil {
		details = map[string]interface{}{}
	}
	raw, err := json.Marshal(details)
	if err != nil {
		return fmt.Errorf("audit: encode details: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO user_logs (user_id, event, details, ip_address, created_at) VALUES ($1, $2, $3::jsonb, NULLIF($4, ''), $5)`,
		e.UserID, e.Event, string(raw), e.IPAddress, e.At,
	)
	if err != nil {
		return fmt.Errorf("audit: insert user_logs: %s", pgErrorMessage(err))
	}
	return nil
}

// Close releases the connection pool
func (s *PostgresSink) Close() {
	s.pool.Close()
}

// pgErrorMessage renders a Postgres error with its SQLSTATE code
func pgErrorMessage(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr != nil {
		msg := strings.TrimSpace(pgErr.Message)
		if msg == "" {
			msg = "UNKNOWN"
		}
		return fmt.Sprintf("%s (SQLSTATE %s)", msg, strings.TrimSpace(pgErr.Code))
	}
	return err.Error()
}
