package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rentwise/api/internal/audit"
	"github.com/rentwise/api/internal/database"
	"github.com/rentwise/api/internal/model"
	"github.com/rentwise/api/internal/registry"
)

// ListingRepository defines the interface for listing storage
type ListingRepository interface {
	GetByID(ctx context.Context, id string) (*model.Listing, error)
	SearchCandidates(ctx context.Context, filter model.ListingFilter, userID string) ([]*model.ListingCandidate, error)
	Featured(ctx context.Context, limit int) ([]*model.ListingCandidate, error)
	Favorites(ctx context.Context, userID string) ([]*model.ListingCandidate, error)
	HasViewed(ctx context.Context, userID, listingID string) (bool, error)
	RecordFirstView(ctx context.Context, userID, listingID string) (int, error)
}

// ListingService handles listing search, favourites and view counting
type ListingService struct {
	repo  ListingRepository
	geo   *GeoService
	audit AuditRecorder
}

// ListingServiceConfig holds configuration for the listing service
type ListingServiceConfig struct {
	Repo  ListingRepository
	Geo   *GeoService
	Audit AuditRecorder
}

// NewListingService creates a new listing service
func NewListingService(cfg ListingServiceConfig) *ListingService {
	geo := cfg.Geo
	if geo == nil {
		geo = NewGeoService()
	}
	return &ListingService{
		repo:  cfg.Repo,
		geo:   geo,
		audit: cfg.Audit,
	}
}

// Search returns one page of active listings matching the query.
// userID may be empty for anonymous callers.
//
// Every filter except the exact radius is evaluated by storage, which also
// orders and pages the rows. Radius searches scan the bounding box in
// storage order and keep rows inside the circle until the page is full.
func (s *ListingService) Search(ctx context.Context, userID string, q *model.ListingSearch) ([]model.ListingOut, error) {
	if errs := q.Validate(); len(errs) > 0 {
		return nil, &ValidationError{Fields: errs}
	}

	filter := model.ListingFilter{
		MinPrice:      q.MinPrice,
		MaxPrice:      q.MaxPrice,
		MinSquareFeet: q.MinSquareFeet,
		MaxSquareFeet: q.MaxSquareFeet,
		Bedrooms:      q.Bedrooms,
		Sort:          q.Sort,
	}
	if q.LocationName != nil {
		filter.Location = strings.ToLower(strings.TrimSpace(*q.LocationName))
	}

	if !q.HasPoint() {
		filter.Start, filter.Limit = q.Offset(), q.PageSize
		candidates, err := s.repo.SearchCandidates(ctx, filter, userID)
		if err != nil {
			return nil, fmt.Errorf("search listings: %w", err)
		}
		return s.refine(candidates, q), nil
	}

	box := s.geo.GetBoundingBox(*q.Lat, *q.Lng, q.RadiusKm)
	filter.Box = &box
	filter.Limit = model.SearchBatchSize

	want := q.Offset() + q.PageSize
	var matched []model.ListingOut
	for {
		batch, err := s.repo.SearchCandidates(ctx, filter, userID)
		if err != nil {
			return nil, fmt.Errorf("search listings: %w", err)
		}
		matched = append(matched, s.refine(batch, q)...)
		if len(matched) >= want || len(batch) < filter.Limit {
			break
		}
		filter.Start += len(batch)
	}
	return paginate(matched, q.Offset(), q.PageSize), nil
}

// refine re-checks the storage filters against the joined rows, applies
// the exact radius and builds the output rows
func (s *ListingService) refine(candidates []*model.ListingCandidate, q *model.ListingSearch) []model.ListingOut {
	location := ""
	if q.LocationName != nil {
		location = strings.ToLower(strings.TrimSpace(*q.LocationName))
	}

	out := make([]model.ListingOut, 0, len(candidates))
	for _, c := range candidates {
		if !c.Listing.IsActive() {
			continue
		}
		if !priceInRange(c.Listing.Price, q.MinPrice, q.MaxPrice) {
			continue
		}
		if location != "" {
			if c.Listing.Location == nil || !strings.Contains(strings.ToLower(*c.Listing.Location), location) {
				continue
			}
		}
		if !spaceMatches(c.Space, q) {
			continue
		}

		row := toListingOut(c)
		if q.HasPoint() {
			km, ok := s.geo.DistanceTo(*q.Lat, *q.Lng, c.Listing.Latitude, c.Listing.Longitude)
			if !ok || km > q.RadiusKm {
				continue
			}
			row.DistanceKm = &km
		}
		out = append(out, row)
	}
	return out
}

// Favorites returns one page of the caller's favourited active listings,
// newest favourite first
func (s *ListingService) Favorites(ctx context.Context, userID string, page, pageSize int) ([]model.ListingOut, error) {
	q := &model.ListingSearch{Page: page, PageSize: pageSize}
	if errs := q.Validate(); len(errs) > 0 {
		return nil, &ValidationError{Fields: errs}
	}

	candidates, err := s.repo.Favorites(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list favorites: %w", err)
	}

	out := make([]model.ListingOut, 0, len(candidates))
	for _, c := range candidates {
		if !c.Listing.IsActive() {
			continue
		}
		out = append(out, toListingOut(c))
	}
	return paginate(out, q.Offset(), q.PageSize), nil
}

// Featured returns the newest active listings as cards
func (s *ListingService) Featured(ctx context.Context) ([]model.FeaturedListing, error) {
	candidates, err := s.repo.Featured(ctx, model.FeaturedListingCount)
	if err != nil {
		return nil, fmt.Errorf("featured listings: %w", err)
	}

	out := make([]model.FeaturedListing, 0, len(candidates))
	for _, c := range candidates {
		card := model.FeaturedListing{
			ListingID: c.Listing.ID,
			Title:     c.Listing.Title,
			Price:     c.Listing.Price,
			ImageURLs: uniqueURLs(c.Images),
		}
		if c.Space != nil {
			card.Bedroom = c.Space.Bedroom
			card.Bathroom = c.Space.Bathroom
		}
		out = append(out, card)
	}
	return out, nil
}

// RecordView counts the caller's first view of a listing.
// Later views by the same caller leave the count unchanged.
func (s *ListingService) RecordView(ctx context.Context, userID, listingID string) (*model.ViewResult, error) {
	id, ok := registry.RecordID(model.KindListings.String(), listingID)
	if !ok {
		return nil, ErrListingNotFound
	}
	listing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("read listing: %w", err)
	}
	if listing == nil {
		return nil, ErrListingNotFound
	}

	current := 0
	if listing.Views != nil {
		current = *listing.Views
	}
	alreadyViewed := &model.ViewResult{Views: current, Incremented: false, Detail: "already viewed"}

	viewed, err := s.repo.HasViewed(ctx, userID, listing.ID)
	if err != nil {
		return nil, fmt.Errorf("read view: %w", err)
	}
	if viewed {
		return alreadyViewed, nil
	}

	views, err := s.repo.RecordFirstView(ctx, userID, listing.ID)
	if err != nil {
		// a concurrent first view won the unique index
		if errors.Is(err, database.ErrDuplicate) {
			return alreadyViewed, nil
		}
		return nil, fmt.Errorf("record view: %w", err)
	}

	if s.audit != nil {
		s.audit.Submit(audit.New(userID, audit.EventListingView, audit.ClientIP(ctx), map[string]interface{}{
			"listing_id": listing.ID,
			"views":      views,
		}))
	}

	return &model.ViewResult{
		Views:       views,
		Incremented: true,
		Detail:      fmt.Sprintf("First view recorded. Total views: %d", views),
	}, nil
}

func priceInRange(price float64, min, max *float64) bool {
	if min != nil && price < *min {
		return false
	}
	if max != nil && price > *max {
		return false
	}
	return true
}

// spaceMatches applies the floor area and bedroom filters.
// Listings without a space row only match when none of those filters is set.
func spaceMatches(space *model.ListingSpace, q *model.ListingSearch) bool {
	if q.MinSquareFeet == nil && q.MaxSquareFeet == nil && q.Bedrooms == nil {
		return true
	}
	if space == nil {
		return false
	}
	if q.MinSquareFeet != nil && space.SquareFeet < *q.MinSquareFeet {
		return false
	}
	if q.MaxSquareFeet != nil && space.SquareFeet > *q.MaxSquareFeet {
		return false
	}
	if q.Bedrooms != nil && (space.Bedroom == nil || *space.Bedroom < *q.Bedrooms) {
		return false
	}
	return true
}

func toListingOut(c *model.ListingCandidate) model.ListingOut {
	l := c.Listing
	out := model.ListingOut{
		ID:            l.ID,
		Title:         l.Title,
		Price:         l.Price,
		Status:        deref(l.Status),
		Views:         l.Views,
		CreatedAt:     l.CreatedAt,
		ContactName:   deref(l.ContactName),
		ContactNumber: deref(l.ContactNumber),
		Location:      deref(l.Location),
		Latitude:      l.Latitude,
		Longitude:     l.Longitude,
		Images:        uniqueURLs(c.Images),
	}
	if sp := c.Space; sp != nil {
		sqft := sp.SquareFeet
		out.SquareFeet = &sqft
		out.Bedrooms = sp.Bedroom
		out.Bathroom = sp.Bathroom
		out.Kitchen = sp.Kitchen
		out.LivingRoom = sp.LivingRoom
		out.SpaceType = sp.SpaceType
		out.Details = sp.Details
	}
	if f := c.Favorite; f != nil {
		id := f.ID
		out.IsFavorite = true
		out.FavoriteID = &id
		out.FavoriteCreatedAt = f.CreatedAt
	}
	return out
}

func paginate[T any](rows []T, offset, size int) []T {
	if offset < 0 || offset >= len(rows) {
		return []T{}
	}
	end := offset + size
	if end > len(rows) {
		end = len(rows)
	}
	return rows[offset:end]
}

// uniqueURLs drops blank and repeated URLs, keeping first-seen order
func uniqueURLs(urls []string) []string {
	out := make([]string, 0, len(urls))
	seen := make(map[string]struct{}, len(urls))
	for _, u := range urls {
		u = strings.TrimSpace(u)
		if u == "" {
			continue
		}
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	return out
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
