// Package middleware provides HTTP middleware for the Rentwise API.
//
// # Available Middleware
//
//   - RequestID, ClientIP, Logger, Recovery, CORS, Compress: applied to every route
//   - Auth / OptionalAuth: bearer token verification through pkg/jwt
//   - SharedSecret: bcrypt check of the static "token" header on community routes
//   - RateLimiter.For(group): token bucket per route group and caller id or
//     client address, built on golang.org/x/time/rate
//
// ClientIP only believes X-Forwarded-For and X-Real-IP when the socket peer
// is a configured trusted proxy.
//
// # Context Values
//
//   - GetUserID(ctx): caller id (the token subject)
//   - GetClaims(ctx): verified token claims
//   - GetRequestID(ctx): unique request identifier
//   - GetClientIP(ctx): resolved client address, also exposed to audit events
package middleware
