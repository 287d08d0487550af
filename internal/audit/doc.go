// Package audit records user actions in the user_logs table.
//
// Handlers and services build an Event and hand it to a queue (see
// jobs.AuditWriter); the queue writes it to a Sink off the request path.
// Two sinks exist:
//
//   - SurrealSink writes to the primary SurrealDB database
//   - PostgresSink writes to a separate Postgres database (AUDIT_DATABASE_URL)
//
// A failed write is logged and dropped; it never reaches the client.
package audit
