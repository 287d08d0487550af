// Package handler provides the HTTP handlers for the RentWise API.
//
// Handlers are grouped by surface. Each handler struct holds the service
// interface it needs, declared locally so tests can substitute func-field
// mocks.
//
// # Surfaces
//
//   - GenericHandler: registry-driven CRUD under /generic/{resource}
//   - ListingHandler: search, favourites, featured cards and view counting
//   - CommunityHandler: visit tracking, family counts and community posts
//   - AccountHandler: app version, profile existence and build version
//   - MediaHandler: image upload and streaming
//   - HealthHandler: liveness with a database ping
//
// # Response Format
//
// Generic routes wrap results as {"data": ...} via WriteData. The /custom
// routes return bare JSON bodies via WriteJSON. Failures are written as
// RFC 9457 Problem Details; MapServiceError converts service errors.
//
// # Routing
//
// Routes.Register mounts everything on an http.ServeMux using method
// patterns, applying bearer auth, optional auth, the shared community
// token and rate limiting per route.
package handler
