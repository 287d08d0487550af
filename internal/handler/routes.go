package handler

import (
	"net/http"

	"github.com/rentwise/api/internal/middleware"
)

// Routes binds every handler to its path and access policy
type Routes struct {
	Health    *HealthHandler
	Generic   *GenericHandler
	Listing   *ListingHandler
	Community *CommunityHandler
	Account   *AccountHandler
	Media     *MediaHandler

	Auth         middleware.Middleware
	OptionalAuth middleware.Middleware
	SharedSecret middleware.Middleware
	// RateLimiter is optional; nil disables limiting
	RateLimiter *middleware.RateLimiter
}

// Register mounts the API on mux
func (rt *Routes) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", rt.Health.Health)

	// Generic CRUD
	mux.Handle("GET /generic/app_version", rt.public(rt.Account.AppVersion))
	mux.Handle("GET /generic/user_profile/exists", rt.authed(rt.Account.ProfileExists))
	mux.Handle("GET /generic/{resource}/schema", rt.public(rt.Generic.Schema))
	mux.Handle("GET /generic/{resource}", rt.authed(rt.Generic.List))
	mux.Handle("POST /generic/{resource}", rt.authed(rt.Generic.Create))
	mux.Handle("PUT /generic/{resource}/{id}", rt.authed(rt.Generic.Update))
	mux.Handle("DELETE /generic/{resource}", rt.authed(rt.Generic.Delete))

	// Listings
	mux.Handle("GET /custom/listings", rt.with(rt.Listing.Search, rt.OptionalAuth, rt.limit(middleware.GroupPublic)))
	mux.Handle("GET /custom/favourites", rt.authed(rt.Listing.Favorites))
	mux.Handle("GET /custom/featured_listing", rt.public(rt.Listing.Featured))
	mux.Handle("PUT /custom/update_views/{listing_id}", rt.authed(rt.Listing.RecordView))
	mux.Handle("GET /custom/version_build", rt.public(rt.Account.BuildVersion))

	// Images
	mux.Handle("POST /custom/public_upload_image", rt.authed(rt.Media.Upload))
	mux.Handle("GET /custom/images/{id}", rt.public(rt.Media.Image))

	// Community, behind the shared token
	mux.Handle("GET /custom/userTracking", rt.shared(rt.Community.ListVisits))
	mux.Handle("POST /custom/userTracking", rt.shared(rt.Community.CreateVisit))
	mux.Handle("PATCH /custom/userTracking/{uuid_ip}", rt.shared(rt.Community.UpdateVisit))
	mux.Handle("GET /custom/familyCounts", rt.shared(rt.Community.FamilyCounts))
	mux.Handle("GET /custom/postTypes", rt.shared(rt.Community.PostTypes))
	mux.Handle("GET /custom/communityInfo", rt.shared(rt.Community.CommunityInfo))
	mux.Handle("POST /custom/userDeviceInfo", rt.shared(rt.Community.CreateDeviceInfo))
	mux.Handle("POST /custom/familyNumberSubmitted", rt.shared(rt.Community.SubmitFamilyNumber))
	mux.Handle("POST /custom/refresh-cache", rt.shared(rt.Community.RefreshCities))

	// Community, open
	mux.Handle("POST /custom/communityInfo", rt.public(rt.Community.CreateCommunityInfo))
	mux.Handle("GET /custom/city_states", rt.public(rt.Community.SearchCities))
}

func (rt *Routes) public(h http.HandlerFunc) http.Handler {
	return rt.with(h, rt.limit(middleware.GroupPublic))
}

// authed runs auth before rate limiting so buckets key on the caller
func (rt *Routes) authed(h http.HandlerFunc) http.Handler {
	return rt.with(h, rt.Auth, rt.limit(middleware.GroupAuthed))
}

// shared limits before the bcrypt check so bad secrets are throttled too
func (rt *Routes) shared(h http.HandlerFunc) http.Handler {
	return rt.with(h, rt.limit(middleware.GroupCommunity), rt.SharedSecret)
}

func (rt *Routes) limit(group middleware.RouteGroup) middleware.Middleware {
	if rt.RateLimiter == nil {
		return nil
	}
	return rt.RateLimiter.For(group)
}

// with applies the non-nil middlewares in order
func (rt *Routes) with(h http.HandlerFunc, mws ...middleware.Middleware) http.Handler {
	active := make([]middleware.Middleware, 0, len(mws))
	for _, mw := range mws {
		if mw != nil {
			active = append(active, mw)
		}
	}
	return middleware.Chain(h, active...)
}
