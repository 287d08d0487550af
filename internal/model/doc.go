// Package model defines the rows, request bodies and response shapes of the
// Rentwise API.
//
// # Generic Resources
//
// Every table reachable through /generic/{resource} has three types:
//
//   - a row type (Listing) whose json tags name the storage columns
//   - an optional update type (ListingUpdate) with pointer fields; a field
//     absent from the request body is left untouched
//   - an output type (ListingOutput) produced by the row's Output method
//
// Columns tagged col:"managed" are set by the server and ignored on create:
//
//	type Listing struct {
//	    ID    string `json:"id" col:"managed"`
//	    Title string `json:"title"`
//	    Views *int   `json:"views" col:"managed"`
//	}
//
// ResourceKind enumerates the generic resources; AllResourceKinds is the
// list the registry is checked against at startup.
//
// # Validation
//
// Row and request types implement Validate() []FieldError. All problems are
// reported together rather than stopping at the first.
//
// # Error Types
//
// RFC 9457 Problem Details errors are defined in errors.go:
//
//	model.NewNotFoundError("Item not found").WriteJSON(w)
package model
