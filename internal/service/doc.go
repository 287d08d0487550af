// Package service implements the business logic layer for the Rentwise API.
//
// Services sit between HTTP handlers and the repositories. Each one is
// built from a config struct and depends only on the repository interfaces
// it declares, so tests swap in func-field fakes.
//
// # Services
//
//   - GenericService: list/create/update/delete for every registered resource,
//     with the owner column forced to the caller and the subscription gate
//   - ListingService: search, favourites, featured listings and view counting
//   - CommunityService: anonymous community web app endpoints and the city cache
//   - MediaService: image uploads into the object store
//   - AccountService: app version and profile checks
//
// # Error Handling
//
// Services return the sentinels in errors.go, *ValidationError for bad
// input, *ConstraintError for storage constraint failures and *StorageError
// for anything unclassified. handler.MapServiceError turns them into
// problem documents.
package service
