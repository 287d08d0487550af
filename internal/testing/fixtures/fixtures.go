// Package fixtures provides test data factories for database tests.
//
// Usage:
//
//	f := fixtures.New(tdb.DB)
//	owner := f.UserID()
//	listing := f.CreateListing(t, owner)
//	f.CreateSpace(t, listing.ID, func(o *fixtures.SpaceOpts) { o.Bedroom = 2 })
package fixtures

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/surrealdb/surrealdb.go/pkg/models"

	"github.com/rentwise/api/internal/database"
	"github.com/rentwise/api/internal/model"
)

// Factory creates test rows in the database
type Factory struct {
	db database.Database
}

// New creates a new fixture factory
func New(db database.Database) *Factory {
	return &Factory{db: db}
}

func randomID() string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

func ctx(t *testing.T) context.Context {
	c, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	return c
}

// UserID returns a fresh caller id in the shape of a token subject
func (f *Factory) UserID() string {
	return "auth0|" + randomID()
}

// ============================================================================
// Listing Fixtures
// ============================================================================

// ListingOpts customizes listing creation
type ListingOpts struct {
	Title     string
	Price     float64
	Status    string
	Location  string
	Latitude  *float64
	Longitude *float64
	CreatedAt time.Time
}

// At places the listing at lat/lng
func At(lat, lng float64) func(*ListingOpts) {
	return func(o *ListingOpts) {
		o.Latitude = &lat
		o.Longitude = &lng
	}
}

// CreateListing creates a listing owned by ownerID
func (f *Factory) CreateListing(t *testing.T, ownerID string, opts ...func(*ListingOpts)) *model.Listing {
	t.Helper()

	o := &ListingOpts{
		Title:     "Listing " + randomID(),
		Price:     1000,
		Status:    model.ListingStatusActive,
		Location:  "Springfield",
		CreatedAt: time.Now().UTC(),
	}
	for _, fn := range opts {
		fn(o)
	}

	query := `
		CREATE listings CONTENT {
			user_id: $user_id,
			title: $title,
			price: $price,
			status: $status,
			location: $location,
			latitude: $latitude,
			longitude: $longitude,
			views: 0,
			created_at: <datetime>$created_at
		}
	`
	vars := map[string]interface{}{
		"user_id":    ownerID,
		"title":      o.Title,
		"price":      o.Price,
		"status":     o.Status,
		"location":   o.Location,
		"latitude":   o.Latitude,
		"longitude":  o.Longitude,
		"created_at": o.CreatedAt.Format(time.RFC3339Nano),
	}
	if o.Latitude == nil {
		query = `
			CREATE listings CONTENT {
				user_id: $user_id,
				title: $title,
				price: $price,
				status: $status,
				location: $location,
				views: 0,
				created_at: <datetime>$created_at
			}
		`
	}

	var listing model.Listing
	f.create(t, query, vars, &listing)
	return &listing
}

// SpaceOpts customizes listing_space creation
type SpaceOpts struct {
	Bedroom    int
	Bathroom   int
	SquareFeet int
}

// CreateSpace creates the space row of a listing
func (f *Factory) CreateSpace(t *testing.T, listingID string, opts ...func(*SpaceOpts)) *model.ListingSpace {
	t.Helper()

	o := &SpaceOpts{Bedroom: 1, Bathroom: 1, SquareFeet: 600}
	for _, fn := range opts {
		fn(o)
	}

	query := `
		CREATE listing_space CONTENT {
			listing_id: $listing_id,
			bedroom: $bedroom,
			bathroom: $bathroom,
			square_feet: $square_feet
		}
	`
	var space model.ListingSpace
	f.create(t, query, map[string]interface{}{
		"listing_id":  listingID,
		"bedroom":     o.Bedroom,
		"bathroom":    o.Bathroom,
		"square_feet": o.SquareFeet,
	}, &space)
	return &space
}

// CreateImage attaches an image URL to a listing
func (f *Factory) CreateImage(t *testing.T, listingID, url string) *model.Image {
	t.Helper()

	var img model.Image
	f.create(t, `CREATE image CONTENT { listing_id: $listing_id, image_url: $image_url }`,
		map[string]interface{}{"listing_id": listingID, "image_url": url}, &img)
	return &img
}

// CreateFavorite marks a listing as favorite for userID
func (f *Factory) CreateFavorite(t *testing.T, userID, listingID string) *model.Favorite {
	t.Helper()

	var fav model.Favorite
	f.create(t, `CREATE favorites CONTENT { user_id: $user_id, listing_id: $listing_id, created_at: time::now() }`,
		map[string]interface{}{"user_id": userID, "listing_id": listingID}, &fav)
	return &fav
}

// ============================================================================
// Account Fixtures
// ============================================================================

// CreatePlan creates a subscription plan
func (f *Factory) CreatePlan(t *testing.T, name string) *model.Plan {
	t.Helper()

	var plan model.Plan
	f.create(t, `CREATE plan CONTENT { name: $name, price: 9.99, billing_cycle: "monthly" }`,
		map[string]interface{}{"name": name}, &plan)
	return &plan
}

// CreateSubscription subscribes userID to planID with the given status
func (f *Factory) CreateSubscription(t *testing.T, userID, planID, status string) *model.Subscription {
	t.Helper()

	var sub model.Subscription
	f.create(t, `CREATE subscription CONTENT { user_id: $user_id, plan_id: $plan_id, status: $status, created_at: time::now() }`,
		map[string]interface{}{"user_id": userID, "plan_id": planID, "status": status}, &sub)
	return &sub
}

// ============================================================================
// Community Fixtures
// ============================================================================

// CreateCityState adds a row to the city lookup table
func (f *Factory) CreateCityState(t *testing.T, city, stateAbbr string) {
	t.Helper()

	query := `CREATE city_state CONTENT { city: $city, state_abbr: $state_abbr }`
	if _, err := f.db.Query(ctx(t), query, map[string]interface{}{
		"city":       city,
		"state_abbr": stateAbbr,
	}); err != nil {
		t.Fatalf("fixtures: failed to create city_state: %v", err)
	}
}

// ============================================================================
// Result Parsing Helpers
// ============================================================================

func (f *Factory) create(t *testing.T, query string, vars map[string]interface{}, dst interface{}) {
	t.Helper()

	results, err := f.db.Query(ctx(t), query, vars)
	if err != nil {
		t.Fatalf("fixtures: create failed: %v\nQuery: %s", err, query)
	}
	data := extractFirstResult(t, results)

	raw, err := json.Marshal(plain(data))
	if err != nil {
		t.Fatalf("fixtures: failed to encode result: %v", err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		t.Fatalf("fixtures: failed to decode result: %v", err)
	}
}

func extractFirstResult(t *testing.T, results []interface{}) map[string]interface{} {
	t.Helper()
	if len(results) == 0 {
		t.Fatal("fixtures: no results returned")
	}
	resp, ok := results[0].(map[string]interface{})
	if !ok {
		t.Fatalf("fixtures: unexpected result type %T", results[0])
	}
	switch data := resp["result"].(type) {
	case []interface{}:
		if len(data) == 0 {
			t.Fatal("fixtures: empty result")
		}
		if m, ok := data[0].(map[string]interface{}); ok {
			return m
		}
	case map[string]interface{}:
		return data
	}
	t.Fatalf("fixtures: unexpected result shape %T", resp["result"])
	return nil
}

// plain replaces record ids with "table:key" strings and datetimes with time.Time
func plain(m map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		switch t := v.(type) {
		case models.RecordID:
			out[k] = fmt.Sprintf("%s:%v", t.Table, t.ID)
		case *models.RecordID:
			out[k] = fmt.Sprintf("%s:%v", t.Table, t.ID)
		case models.CustomDateTime:
			out[k] = t.Time
		default:
			out[k] = v
		}
	}
	return out
}
