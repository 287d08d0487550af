// Package seed loads reference data from YAML into SurrealDB.
//
// A seed file lists plans, post types, the city lookup table, terms and
// conditions, app minimum versions and family counts. Every row is
// upserted under a stable record key so seeding is repeatable:
//
//	doc, err := seed.Load("seed/reference.yaml")
//	counts, err := seed.Apply(ctx, db, doc)
//
// City and family count rows have no explicit key; theirs is derived from
// the city and state.
package seed
