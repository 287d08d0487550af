// Package repository implements the data access layer over SurrealDB.
//
// GenericRepository serves the registry-driven routes: it receives a table
// name and typed column values from the registry and never interpolates
// caller input into a statement. Table names go through type::table and
// column names are checked against a plain identifier pattern before they
// are rendered.
//
// The remaining repositories are hand-written for the specialized endpoints:
//
//   - ListingRepository: search prefilter, favourites, featured listings, view counting
//   - AccountRepository: subscription status, profile existence, app version
//   - CommunityRepository: visit tracking, community posts, city lookup
//
// # Conventions
//
//   - Record ids leave this package as "table:key" strings
//   - Datetimes leave this package as time.Time
//   - Single-row lookups return (nil, nil) when the row does not exist
//   - Storage failures keep the database sentinels (ErrDuplicate, ErrConstraint, ...)
//
// # Example Usage
//
//	repo := NewGenericRepository(db)
//	rows, err := repo.Find(ctx, "listings", []model.ColumnValue{
//	    {Column: "user_id", Value: callerID},
//	}, 0)
package repository
