// Package registry maps generic resource names onto typed behavior.
//
// Each resource is declared once with define, which ties together the row
// type, the update type and the projector:
//
//	define[model.Listing, model.ListingUpdate](model.KindListings,
//	    Spec{Owner: "user_id", Gated: true},
//	    model.Listing.Output)
//
// Columns are derived from the row type's json tags, so filters, create
// bodies and update bodies are all checked against the same column set.
// Resources declared with NoUpdate reject PUT.
//
// New panics when model.AllResourceKinds names a kind without an entry.
package registry
