package model

import (
	"math"
	"strings"
	"time"
)

// Listing statuses
const (
	ListingStatusActive   = "active"
	ListingStatusInactive = "inactive"
)

// Listing search limits
const (
	DefaultSearchRadiusKm = 5.0
	MinSearchRadiusKm     = 0.1
	MaxSearchRadiusKm     = 100.0
	DefaultPageSize       = 10
	MaxPageSize           = 100
	FeaturedListingCount  = 4
	MaxListingTitleLength = 200
	MaxPage               = 100000
	SearchBatchSize       = 200
)

// Listing sort keys
const (
	SortNewest    = "newest"
	SortPriceAsc  = "price_asc"
	SortPriceDesc = "price_desc"
)

// Listing is a rental listing owned by the user who posted it
type Listing struct {
	ID            string     `json:"id" col:"managed"`
	UserID        string     `json:"user_id"`
	Title         string     `json:"title"`
	Price         float64    `json:"price"`
	Status        *string    `json:"status"`
	Views         *int       `json:"views" col:"managed"`
	ContactName   *string    `json:"contact_name"`
	ContactNumber *string    `json:"contact_number"`
	Location      *string    `json:"location"`
	Latitude      *float64   `json:"latitude"`
	Longitude     *float64   `json:"longitude"`
	CreatedAt     *time.Time `json:"created_at" col:"managed"`
}

func (l *Listing) Validate() []FieldError {
	var errors []FieldError
	if strings.TrimSpace(l.Title) == "" {
		errors = append(errors, FieldError{Field: "title", Message: "title is required"})
	} else if len(l.Title) > MaxListingTitleLength {
		errors = append(errors, FieldError{Field: "title", Message: "title must be 200 characters or less"})
	}
	if l.Price < 0 {
		errors = append(errors, FieldError{Field: "price", Message: "price must not be negative"})
	}
	if l.Status != nil && *l.Status != ListingStatusActive && *l.Status != ListingStatusInactive {
		errors = append(errors, FieldError{Field: "status", Message: "status must be active or inactive"})
	}
	errors = append(errors, validateCoordinates(l.Latitude, l.Longitude, "latitude", "longitude")...)
	return errors
}

// ListingUpdate is the partial update accepted for listings
type ListingUpdate struct {
	Title         *string  `json:"title"`
	Price         *float64 `json:"price"`
	Status        *string  `json:"status"`
	ContactName   *string  `json:"contact_name"`
	ContactNumber *string  `json:"contact_number"`
	Location      *string  `json:"location"`
	Latitude      *float64 `json:"latitude"`
	Longitude     *float64 `json:"longitude"`
}

func (u *ListingUpdate) Validate() []FieldError {
	var errors []FieldError
	if u.Title != nil && strings.TrimSpace(*u.Title) == "" {
		errors = append(errors, FieldError{Field: "title", Message: "title must not be empty"})
	}
	if u.Price != nil && *u.Price < 0 {
		errors = append(errors, FieldError{Field: "price", Message: "price must not be negative"})
	}
	if u.Status != nil && *u.Status != ListingStatusActive && *u.Status != ListingStatusInactive {
		errors = append(errors, FieldError{Field: "status", Message: "status must be active or inactive"})
	}
	errors = append(errors, validateCoordinates(u.Latitude, u.Longitude, "latitude", "longitude")...)
	return errors
}

type ListingOutput struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	Price         float64    `json:"price"`
	Status        *string    `json:"status"`
	Views         *int       `json:"views"`
	CreatedAt     *time.Time `json:"created_at"`
	ContactName   *string    `json:"contact_name"`
	ContactNumber *string    `json:"contact_number"`
	Location      *string    `json:"location"`
	Latitude      *float64   `json:"latitude"`
	Longitude     *float64   `json:"longitude"`
}

func (l Listing) Output() ListingOutput {
	return ListingOutput{
		ID:            l.ID,
		Title:         l.Title,
		Price:         l.Price,
		Status:        l.Status,
		Views:         l.Views,
		CreatedAt:     l.CreatedAt,
		ContactName:   l.ContactName,
		ContactNumber: l.ContactNumber,
		Location:      l.Location,
		Latitude:      l.Latitude,
		Longitude:     l.Longitude,
	}
}

// IsActive reports whether the listing shows up in search
func (l *Listing) IsActive() bool {
	return l.Status != nil && *l.Status == ListingStatusActive
}

// ListingSpace describes the rooms of a listing (at most one per listing)
type ListingSpace struct {
	ID         string  `json:"id" col:"managed"`
	ListingID  string  `json:"listing_id"`
	SpaceType  *string `json:"space_type"`
	Bedroom    *int    `json:"bedroom"`
	Bathroom   *int    `json:"bathroom"`
	Kitchen    *int    `json:"kitchen"`
	SquareFeet int     `json:"square_feet"`
	LivingRoom *int    `json:"living_room"`
	Details    *string `json:"details"`
}

func (s *ListingSpace) Validate() []FieldError {
	var errors []FieldError
	if strings.TrimSpace(s.ListingID) == "" {
		errors = append(errors, FieldError{Field: "listing_id", Message: "listing_id is required"})
	}
	if s.SquareFeet < 0 {
		errors = append(errors, FieldError{Field: "square_feet", Message: "square_feet must not be negative"})
	}
	return errors
}

type ListingSpaceOutput struct {
	ID         string  `json:"id"`
	ListingID  string  `json:"listing_id"`
	SpaceType  *string `json:"space_type"`
	Bedroom    *int    `json:"bedroom"`
	Bathroom   *int    `json:"bathroom"`
	Kitchen    *int    `json:"kitchen"`
	SquareFeet int     `json:"square_feet"`
	LivingRoom *int    `json:"living_room"`
	Details    *string `json:"details"`
}

func (s ListingSpace) Output() ListingSpaceOutput {
	return ListingSpaceOutput(s)
}

// Image is a photo attached to a listing
type Image struct {
	ID        string  `json:"id" col:"managed"`
	ListingID string  `json:"listing_id"`
	ImageURL  *string `json:"image_url"`
}

func (i *Image) Validate() []FieldError {
	if strings.TrimSpace(i.ListingID) == "" {
		return []FieldError{{Field: "listing_id", Message: "listing_id is required"}}
	}
	return nil
}

type ImageOutput struct {
	ID        string  `json:"id"`
	ListingID string  `json:"listing_id"`
	ImageURL  *string `json:"image_url"`
}

func (i Image) Output() ImageOutput {
	return ImageOutput(i)
}

// Favorite marks a listing saved by a user
type Favorite struct {
	ID        string     `json:"id" col:"managed"`
	UserID    string     `json:"user_id"`
	ListingID string     `json:"listing_id"`
	CreatedAt *time.Time `json:"created_at" col:"managed"`
}

func (f *Favorite) Validate() []FieldError {
	if strings.TrimSpace(f.ListingID) == "" {
		return []FieldError{{Field: "listing_id", Message: "listing_id is required"}}
	}
	return nil
}

type FavoriteOutput struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	ListingID string     `json:"listing_id"`
	CreatedAt *time.Time `json:"created_at"`
}

func (f Favorite) Output() FavoriteOutput {
	return FavoriteOutput(f)
}

// ListingSearch holds the parsed query of GET /custom/listings
type ListingSearch struct {
	Sort          string
	MinPrice      *float64
	MaxPrice      *float64
	MinSquareFeet *int
	MaxSquareFeet *int
	Bedrooms      *int
	LocationName  *string
	Lat           *float64
	Lng           *float64
	RadiusKm      float64
	Page          int
	PageSize      int
}

// Validate checks ranges and fills in defaults for unset fields
func (s *ListingSearch) Validate() []FieldError {
	var errors []FieldError

	switch s.Sort {
	case "":
		s.Sort = SortNewest
	case SortNewest, SortPriceAsc, SortPriceDesc:
	default:
		errors = append(errors, FieldError{Field: "sort", Message: "sort must be one of newest, price_asc, price_desc"})
	}

	if nonFinite(s.MinPrice) {
		errors = append(errors, FieldError{Field: "min_price", Message: "min_price must be a finite number"})
	}
	if nonFinite(s.MaxPrice) {
		errors = append(errors, FieldError{Field: "max_price", Message: "max_price must be a finite number"})
	}
	if s.MinPrice != nil && s.MaxPrice != nil && *s.MinPrice > *s.MaxPrice {
		errors = append(errors, FieldError{Field: "min_price", Message: "min_price must not exceed max_price"})
	}
	if s.MinSquareFeet != nil && s.MaxSquareFeet != nil && *s.MinSquareFeet > *s.MaxSquareFeet {
		errors = append(errors, FieldError{Field: "min_square_feet", Message: "min_square_feet must not exceed max_square_feet"})
	}
	if s.Bedrooms != nil && *s.Bedrooms < 0 {
		errors = append(errors, FieldError{Field: "bedrooms", Message: "bedrooms must not be negative"})
	}

	if (s.Lat == nil) != (s.Lng == nil) {
		errors = append(errors, FieldError{Field: "lat", Message: "lat and lng must be provided together"})
	} else {
		errors = append(errors, validateCoordinates(s.Lat, s.Lng, "lat", "lng")...)
	}

	if s.RadiusKm == 0 {
		s.RadiusKm = DefaultSearchRadiusKm
	} else if !(s.RadiusKm >= MinSearchRadiusKm && s.RadiusKm <= MaxSearchRadiusKm) {
		errors = append(errors, FieldError{Field: "radius_km", Message: "radius_km must be between 0.1 and 100"})
	}

	if s.Page == 0 {
		s.Page = 1
	} else if s.Page < 1 || s.Page > MaxPage {
		errors = append(errors, FieldError{Field: "page", Message: "page must be between 1 and 100000"})
	}
	if s.PageSize == 0 {
		s.PageSize = DefaultPageSize
	} else if s.PageSize < 1 || s.PageSize > MaxPageSize {
		errors = append(errors, FieldError{Field: "page_size", Message: "page_size must be between 1 and 100"})
	}

	return errors
}

// HasPoint reports whether a radius filter applies
func (s *ListingSearch) HasPoint() bool {
	return s.Lat != nil && s.Lng != nil
}

// Offset returns the index of the first row on the requested page
func (s *ListingSearch) Offset() int {
	return (s.Page - 1) * s.PageSize
}

// BoundingBox is a rough lat/lng rectangle used to prefilter radius searches
type BoundingBox struct {
	MinLat float64 `json:"min_lat"`
	MaxLat float64 `json:"max_lat"`
	MinLng float64 `json:"min_lng"`
	MaxLng float64 `json:"max_lng"`
}

// ListingFilter is the part of a search pushed down to storage.
// Only active listings are ever returned, ordered by Sort with ties by id,
// skipping Start rows and returning at most Limit.
type ListingFilter struct {
	MinPrice      *float64
	MaxPrice      *float64
	Box           *BoundingBox
	Location      string // lower-cased substring of location
	MinSquareFeet *int
	MaxSquareFeet *int
	Bedrooms      *int
	Sort          string
	Start         int
	Limit         int
}

// ListingCandidate is a listing joined with its space, images and the caller's favorite
type ListingCandidate struct {
	Listing  Listing
	Space    *ListingSpace
	Images   []string
	Favorite *Favorite
}

// ListingOut is one row of the search and favourites endpoints
type ListingOut struct {
	ID                string     `json:"id"`
	Title             string     `json:"title"`
	Price             float64    `json:"price"`
	Status            string     `json:"status"`
	Views             *int       `json:"views"`
	CreatedAt         *time.Time `json:"created_at"`
	ContactName       string     `json:"contact_name"`
	ContactNumber     string     `json:"contact_number"`
	Location          string     `json:"location"`
	Latitude          *float64   `json:"latitude"`
	Longitude         *float64   `json:"longitude"`
	SquareFeet        *int       `json:"square_feet"`
	Bedrooms          *int       `json:"bedrooms"`
	Bathroom          *int       `json:"bathroom"`
	Kitchen           *int       `json:"kitchen"`
	LivingRoom        *int       `json:"living_room"`
	SpaceType         *string    `json:"space_type"`
	Images            []string   `json:"images"`
	Details           *string    `json:"details"`
	DistanceKm        *float64   `json:"distance_km"`
	IsFavorite        bool       `json:"is_favorite"`
	FavoriteID        *string    `json:"favorite_id"`
	FavoriteCreatedAt *time.Time `json:"favorite_created_at"`
}

// FeaturedListing is one card of GET /custom/featured_listing
type FeaturedListing struct {
	ListingID string   `json:"listing_id"`
	Title     string   `json:"title"`
	Price     float64  `json:"price"`
	Bedroom   *int     `json:"bedroom"`
	Bathroom  *int     `json:"bathroom"`
	ImageURLs []string `json:"image_urls"`
}

// ViewResult is returned by PUT /custom/update_views/{listing_id}
type ViewResult struct {
	Views       int    `json:"views"`
	Incremented bool   `json:"incremented"`
	Detail      string `json:"detail"`
}

// ImageUploadResponse is returned by POST /custom/public_upload_image
type ImageUploadResponse struct {
	ImageURL string `json:"image_url"`
}

func nonFinite(v *float64) bool {
	return v != nil && (math.IsNaN(*v) || math.IsInf(*v, 0))
}

func validateCoordinates(lat, lng *float64, latField, lngField string) []FieldError {
	var errors []FieldError
	if lat != nil && !(*lat >= -90 && *lat <= 90) {
		errors = append(errors, FieldError{Field: latField, Message: "latitude must be between -90 and 90"})
	}
	if lng != nil && !(*lng >= -180 && *lng <= 180) {
		errors = append(errors, FieldError{Field: lngField, Message: "longitude must be between -180 and 180"})
	}
	return errors
}
