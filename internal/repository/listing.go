package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rentwise/api/internal/database"
	"github.com/rentwise/api/internal/model"
)

// ListingRepository handles the listing queries that go beyond generic CRUD
type ListingRepository struct {
	db database.Database
}

// NewListingRepository creates a new listing repository
func NewListingRepository(db database.Database) *ListingRepository {
	return &ListingRepository{db: db}
}

// GetByID retrieves a listing by record id
func (r *ListingRepository) GetByID(ctx context.Context, id string) (*model.Listing, error) {
	query := `SELECT * FROM type::record($id)`
	result, err := r.db.QueryOne(ctx, query, map[string]interface{}{"id": id})
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	m, ok := result.(map[string]interface{})
	if !ok {
		return nil, nil
	}
	var listing model.Listing
	if err := decodeRow(normalizeRow(m), &listing); err != nil {
		return nil, fmt.Errorf("decode listing: %w", err)
	}
	return &listing, nil
}

// SearchCandidates returns one window of active listings matching the
// filter, ordered by filter.Sort with ties by id, joined with their space,
// images and the caller's favorite. userID may be empty for anonymous callers.
func (r *ListingRepository) SearchCandidates(ctx context.Context, filter model.ListingFilter, userID string) ([]*model.ListingCandidate, error) {
	conditions := []string{"status = $status"}
	vars := map[string]interface{}{"status": model.ListingStatusActive}

	if filter.MinPrice != nil {
		conditions = append(conditions, "price >= $min_price")
		vars["min_price"] = *filter.MinPrice
	}
	if filter.MaxPrice != nil {
		conditions = append(conditions, "price <= $max_price")
		vars["max_price"] = *filter.MaxPrice
	}
	if box := filter.Box; box != nil {
		conditions = append(conditions,
			"latitude != NONE", "longitude != NONE",
			"latitude >= $min_lat", "latitude <= $max_lat",
			"longitude >= $min_lng", "longitude <= $max_lng",
		)
		vars["min_lat"] = box.MinLat
		vars["max_lat"] = box.MaxLat
		vars["min_lng"] = box.MinLng
		vars["max_lng"] = box.MaxLng
	}
	if filter.Location != "" {
		conditions = append(conditions,
			"location != NONE",
			"string::contains(string::lowercase(location), $location)",
		)
		vars["location"] = filter.Location
	}
	if space := spaceConditions(filter, vars); space != "" {
		conditions = append(conditions,
			"id IN (SELECT VALUE type::record(listing_id) FROM listing_space WHERE "+space+")")
	}

	limit := filter.Limit
	if limit <= 0 || limit > model.SearchBatchSize {
		limit = model.SearchBatchSize
	}
	vars["limit"] = limit
	vars["start"] = max(filter.Start, 0)

	query := "SELECT * FROM listings WHERE " + strings.Join(conditions, " AND ") +
		" ORDER BY " + searchOrder(filter.Sort) + " LIMIT $limit START $start"

	results, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return nil, err
	}
	listings, err := decodeRows[model.Listing](results, 0)
	if err != nil {
		return nil, err
	}
	return r.attach(ctx, listings, userID)
}

// spaceConditions builds the listing_space predicate for the floor area
// and bedroom filters. Listings without a space row never match it.
func spaceConditions(filter model.ListingFilter, vars map[string]interface{}) string {
	var conds []string
	if filter.MinSquareFeet != nil {
		conds = append(conds, "square_feet >= $min_square_feet")
		vars["min_square_feet"] = *filter.MinSquareFeet
	}
	if filter.MaxSquareFeet != nil {
		conds = append(conds, "square_feet <= $max_square_feet")
		vars["max_square_feet"] = *filter.MaxSquareFeet
	}
	if filter.Bedrooms != nil {
		conds = append(conds, "bedroom != NONE", "bedroom >= $bedrooms")
		vars["bedrooms"] = *filter.Bedrooms
	}
	return strings.Join(conds, " AND ")
}

func searchOrder(sort string) string {
	switch sort {
	case model.SortPriceAsc:
		return "price ASC, id ASC"
	case model.SortPriceDesc:
		return "price DESC, id ASC"
	default:
		return "created_at DESC, id ASC"
	}
}

// Featured returns the newest active listings with their space and images
func (r *ListingRepository) Featured(ctx context.Context, limit int) ([]*model.ListingCandidate, error) {
	query := `
		SELECT * FROM listings
		WHERE status = $status
		ORDER BY created_at DESC
		LIMIT $limit
	`
	results, err := r.db.Query(ctx, query, map[string]interface{}{
		"status": model.ListingStatusActive,
		"limit":  limit,
	})
	if err != nil {
		return nil, err
	}
	listings, err := decodeRows[model.Listing](results, 0)
	if err != nil {
		return nil, err
	}
	return r.attach(ctx, listings, "")
}

// Favorites returns the caller's favorited active listings, newest favorite first
func (r *ListingRepository) Favorites(ctx context.Context, userID string) ([]*model.ListingCandidate, error) {
	query := `SELECT * FROM favorites WHERE user_id = $user_id ORDER BY created_at DESC`
	results, err := r.db.Query(ctx, query, map[string]interface{}{"user_id": userID})
	if err != nil {
		return nil, err
	}
	favorites, err := decodeRows[model.Favorite](results, 0)
	if err != nil {
		return nil, err
	}
	if len(favorites) == 0 {
		return []*model.ListingCandidate{}, nil
	}

	ids := make([]string, 0, len(favorites))
	for _, f := range favorites {
		ids = append(ids, f.ListingID)
	}

	query = `SELECT * FROM listings WHERE id IN $ids AND status = $status`
	results, err = r.db.Query(ctx, query, map[string]interface{}{
		"ids":    recordIDs(ids),
		"status": model.ListingStatusActive,
	})
	if err != nil {
		return nil, err
	}
	listings, err := decodeRows[model.Listing](results, 0)
	if err != nil {
		return nil, err
	}

	joined, err := r.attach(ctx, listings, "")
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*model.ListingCandidate, len(joined))
	for _, c := range joined {
		byID[c.Listing.ID] = c
	}

	out := make([]*model.ListingCandidate, 0, len(favorites))
	for _, f := range favorites {
		c, ok := byID[f.ListingID]
		if !ok || c.Favorite != nil {
			continue
		}
		c.Favorite = f
		out = append(out, c)
	}
	return out, nil
}

// HasViewed reports whether the user already viewed the listing
func (r *ListingRepository) HasViewed(ctx context.Context, userID, listingID string) (bool, error) {
	query := `
		SELECT id FROM views_tracking
		WHERE user_id = $user_id AND listing_id = $listing_id
		LIMIT 1
	`
	_, err := r.db.QueryOne(ctx, query, map[string]interface{}{
		"user_id":    userID,
		"listing_id": listingID,
	})
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// RecordFirstView inserts the view marker and increments the view counter
// in one transaction. Returns database.ErrDuplicate when the user already
// viewed the listing, in which case nothing changes.
func (r *ListingRepository) RecordFirstView(ctx context.Context, userID, listingID string) (int, error) {
	tb := database.NewTxBuilder()
	tb.Add(`
		CREATE views_tracking SET
			user_id = $user_id,
			listing_id = $listing_id,
			created_at = time::now()
	`, map[string]interface{}{
		"user_id":    userID,
		"listing_id": listingID,
	})
	tb.Add(`UPDATE type::record($id) SET views = (views ?? 0) + 1 RETURN AFTER`,
		map[string]interface{}{"id": listingID})

	results, err := database.ExecuteTransaction(ctx, r.db, tb)
	if err != nil {
		return 0, err
	}
	if len(results) == 0 {
		return 0, fmt.Errorf("%w: view transaction returned no results", database.ErrQuery)
	}

	rows := rowsOf(results, len(results)-1)
	if len(rows) == 0 {
		return 0, fmt.Errorf("%w: listing %s vanished during view update", database.ErrNotFound, listingID)
	}
	return getInt(rows[0], "views"), nil
}

// attach joins spaces, images and (when userID is set) favorites onto
// listings in a single round trip. Order of listings is preserved.
func (r *ListingRepository) attach(ctx context.Context, listings []*model.Listing, userID string) ([]*model.ListingCandidate, error) {
	out := make([]*model.ListingCandidate, 0, len(listings))
	if len(listings) == 0 {
		return out, nil
	}

	ids := make([]string, 0, len(listings))
	for _, l := range listings {
		ids = append(ids, l.ID)
	}

	query := `
		SELECT * FROM listing_space WHERE listing_id IN $ids;
		SELECT * FROM image WHERE listing_id IN $ids ORDER BY id;
	`
	vars := map[string]interface{}{"ids": ids}
	if userID != "" {
		query += `SELECT * FROM favorites WHERE user_id = $user_id AND listing_id IN $ids;`
		vars["user_id"] = userID
	}

	results, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return nil, err
	}

	spaces, err := decodeRows[model.ListingSpace](results, 0)
	if err != nil {
		return nil, err
	}
	spaceByListing := make(map[string]*model.ListingSpace, len(spaces))
	for _, s := range spaces {
		if _, ok := spaceByListing[s.ListingID]; !ok {
			spaceByListing[s.ListingID] = s
		}
	}

	images, err := decodeRows[model.Image](results, 1)
	if err != nil {
		return nil, err
	}
	imagesByListing := make(map[string][]string)
	for _, img := range images {
		if img.ImageURL == nil {
			continue
		}
		imagesByListing[img.ListingID] = append(imagesByListing[img.ListingID], *img.ImageURL)
	}

	favoriteByListing := make(map[string]*model.Favorite)
	if userID != "" {
		favorites, err := decodeRows[model.Favorite](results, 2)
		if err != nil {
			return nil, err
		}
		for _, f := range favorites {
			favoriteByListing[f.ListingID] = f
		}
	}

	for _, l := range listings {
		out = append(out, &model.ListingCandidate{
			Listing:  *l,
			Space:    spaceByListing[l.ID],
			Images:   imagesByListing[l.ID],
			Favorite: favoriteByListing[l.ID],
		})
	}
	return out, nil
}
