// Package database provides SurrealDB connectivity for the API.
//
// Repositories depend on the Database interface rather than on the driver:
//
//	db := database.NewSurrealDB(database.Config{Host: "localhost", Port: "8000", ...})
//	if err := db.Connect(ctx); err != nil { ... }
//	defer db.Close()
//
// Multi-statement writes that must succeed together go through TxBuilder and
// ExecuteTransaction.
package database
