// Package jobs runs background work outside the request path.
//
//   - AuditWriter: drains the audit event queue into an audit.Sink
//   - CityCacheRefresher: periodically reloads the city/state lookup cache
//
// Jobs follow the same lifecycle: construct, Start, and Stop on shutdown.
// Errors are logged and never stop the loop.
package jobs
