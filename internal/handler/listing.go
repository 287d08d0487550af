package handler

import (
	"context"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/rentwise/api/internal/middleware"
	"github.com/rentwise/api/internal/model"
)

// ListingService is the listing search and view counting surface
type ListingService interface {
	Search(ctx context.Context, userID string, q *model.ListingSearch) ([]model.ListingOut, error)
	Favorites(ctx context.Context, userID string, page, pageSize int) ([]model.ListingOut, error)
	Featured(ctx context.Context) ([]model.FeaturedListing, error)
	RecordView(ctx context.Context, userID, listingID string) (*model.ViewResult, error)
}

// ListingHandler handles the /custom listing endpoints
type ListingHandler struct {
	service ListingService
}

// NewListingHandler creates a new listing handler
func NewListingHandler(service ListingService) *ListingHandler {
	return &ListingHandler{service: service}
}

// Search handles GET /custom/listings
func (h *ListingHandler) Search(w http.ResponseWriter, r *http.Request) {
	q, errs := parseListingSearch(r.URL.Query())
	if len(errs) > 0 {
		WriteError(w, model.NewValidationError(errs))
		return
	}

	results, err := h.service.Search(r.Context(), middleware.GetUserID(r.Context()), q)
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	WriteJSON(w, http.StatusOK, results)
}

// Favorites handles GET /custom/favourites
func (h *ListingHandler) Favorites(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		WriteError(w, model.NewUnauthorizedError("authentication required"))
		return
	}

	p := queryParser{values: r.URL.Query()}
	page := p.intValue("page")
	pageSize := p.intValue("page_size")
	if len(p.errs) > 0 {
		WriteError(w, model.NewValidationError(p.errs))
		return
	}

	results, err := h.service.Favorites(ctx, userID, page, pageSize)
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	WriteJSON(w, http.StatusOK, results)
}

// Featured handles GET /custom/featured_listing
func (h *ListingHandler) Featured(w http.ResponseWriter, r *http.Request) {
	cards, err := h.service.Featured(r.Context())
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	WriteJSON(w, http.StatusOK, cards)
}

// RecordView handles PUT /custom/update_views/{listing_id}
func (h *ListingHandler) RecordView(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		WriteError(w, model.NewUnauthorizedError("authentication required"))
		return
	}

	result, err := h.service.RecordView(ctx, userID, r.PathValue("listing_id"))
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	WriteJSON(w, http.StatusOK, result)
}

// parseListingSearch reads the search query. Values that fail to parse are
// reported together; range checks happen in ListingSearch.Validate.
func parseListingSearch(values url.Values) (*model.ListingSearch, []model.FieldError) {
	p := queryParser{values: values}
	q := &model.ListingSearch{
		Sort:          strings.TrimSpace(values.Get("sort")),
		MinPrice:      p.floatPtr("min_price"),
		MaxPrice:      p.floatPtr("max_price"),
		MinSquareFeet: p.intPtr("min_square_feet"),
		MaxSquareFeet: p.intPtr("max_square_feet"),
		Bedrooms:      p.intPtr("bedrooms"),
		Lat:           p.floatPtr("lat"),
		Lng:           p.floatPtr("lng"),
		Page:          p.intValue("page"),
		PageSize:      p.intValue("page_size"),
	}
	if radius := p.floatPtr("radius_km"); radius != nil {
		q.RadiusKm = *radius
		if *radius == 0 {
			p.errs = append(p.errs, model.FieldError{Field: "radius_km", Message: "radius_km must be between 0.1 and 100"})
		}
	}
	if loc := strings.TrimSpace(values.Get("location_name")); loc != "" {
		q.LocationName = &loc
	}
	return q, p.errs
}

// queryParser collects typed query values and every parse failure
type queryParser struct {
	values url.Values
	errs   []model.FieldError
}

func (p *queryParser) raw(key string) (string, bool) {
	v := strings.TrimSpace(p.values.Get(key))
	return v, v != ""
}

func (p *queryParser) floatPtr(key string) *float64 {
	v, ok := p.raw(key)
	if !ok {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		p.errs = append(p.errs, model.FieldError{Field: key, Message: "must be a finite number"})
		return nil
	}
	return &f
}

func (p *queryParser) intPtr(key string) *int {
	v, ok := p.raw(key)
	if !ok {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		p.errs = append(p.errs, model.FieldError{Field: key, Message: "must be an integer"})
		return nil
	}
	return &n
}

// intValue returns 0 when key is absent so defaults apply
func (p *queryParser) intValue(key string) int {
	if n := p.intPtr(key); n != nil {
		if *n == 0 {
			p.errs = append(p.errs, model.FieldError{Field: key, Message: "must be at least 1"})
		}
		return *n
	}
	return 0
}
