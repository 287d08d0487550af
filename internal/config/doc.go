// Package config loads and validates the API's runtime configuration.
//
// Values come from environment variables. A .env file in the working
// directory is read first through godotenv; anything already exported in the
// process environment takes precedence.
//
//	cfg, err := config.Load()
//	if err != nil { ... }
//	if err := cfg.Validate(); err != nil { ... }
//
// Configuration groups:
//
//   - ServerConfig: HTTP port, timeouts, CORS origins, build version,
//     trusted proxy CIDRs
//   - DatabaseConfig: SurrealDB connection settings
//   - JWTConfig: public key used to verify bearer tokens
//   - CommunityConfig: bcrypt hash of the community shared secret
//   - MediaConfig: MongoDB GridFS image store
//   - AuditConfig: optional Postgres audit sink and queue size
//   - RateLimitConfig: window plus public, authed and community limits
//
// Validate reports every problem at once using errors.Join.
package config
