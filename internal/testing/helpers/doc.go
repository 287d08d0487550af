// Package helpers provides common test utilities for HTTP-level tests:
// token minting, request builders, response validators and database
// assertions.
//
// Tokens and requests:
//
//	jwtHelper := helpers.NewJWTHelper(t)
//	rr := helpers.NewRequest(t, http.MethodGet, "/generic/listings").
//		WithBearer(jwtHelper, userID).
//		Do(mux)
//
// Community routes take the shared secret instead:
//
//	helpers.NewRequest(t, http.MethodGet, "/custom/postTypes").
//		WithSharedSecret(secret).
//		Do(mux)
//
// Assertions:
//
//	helpers.AssertProblemDetails(t, rr, http.StatusNotFound, model.ErrCodeNotFound)
//	helpers.AssertValidationError(t, rr, "title")
//	helpers.AssertRecordExists(t, db, "listings", id)
package helpers
