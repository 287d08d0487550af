// Package testdb runs repository tests against a real SurrealDB.
//
// Each call to New gets its own namespace with every migration under
// migrations/ applied, and the namespace is removed when the test ends:
//
//	func TestListingRepository_Search(t *testing.T) {
//	    tdb := testdb.New(t)
//	    repo := repository.NewListingRepository(tdb.DB)
//	    ...
//	}
//
// Connection settings come from TEST_DB_HOST, TEST_DB_PORT, TEST_DB_USER
// and TEST_DB_PASSWORD (defaults localhost:8000, root/root). Tests are
// skipped with -short or when the database cannot be reached.
package testdb
