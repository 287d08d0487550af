// Package fixtures creates rows for database-backed tests.
//
// Factory methods insert a row with sensible defaults and return the typed
// model as read back from SurrealDB, so ids are "table:key" strings:
//
//	f := fixtures.New(tdb.DB)
//	owner := f.UserID()
//	near := f.CreateListing(t, owner, fixtures.At(40.71, -74.00))
//	f.CreateImage(t, near.ID, "https://cdn.example/a.png")
//
// Option functions customize a row:
//
//	f.CreateListing(t, owner, func(o *fixtures.ListingOpts) {
//	    o.Status = model.ListingStatusInactive
//	})
//
// Rows disappear with the test namespace; there is no per-row cleanup.
package fixtures
