package handler_test

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/rentwise/api/internal/handler"
	"github.com/rentwise/api/internal/middleware"
	"github.com/rentwise/api/internal/model"
	"github.com/rentwise/api/internal/registry"
	"github.com/rentwise/api/internal/repository"
	"github.com/rentwise/api/internal/service"
	"github.com/rentwise/api/internal/testing/fixtures"
	"github.com/rentwise/api/internal/testing/helpers"
	"github.com/rentwise/api/internal/testing/testdb"
)

const integrationSecret = "integration-secret"

type stack struct {
	mux *http.ServeMux
	jwt *helpers.JWTHelper
	tdb *testdb.TestDB
	f   *fixtures.Factory
}

// newStack wires the real repositories and services against a fresh
// database namespace
func newStack(t *testing.T) *stack {
	t.Helper()

	tdb := testdb.New(t)
	jwtHelper := helpers.NewJWTHelper(t)
	hash, err := bcrypt.GenerateFromPassword([]byte(integrationSecret), bcrypt.MinCost)
	require.NoError(t, err)

	genericRepo := repository.NewGenericRepository(tdb.DB)
	listingRepo := repository.NewListingRepository(tdb.DB)
	accountRepo := repository.NewAccountRepository(tdb.DB)
	communityRepo := repository.NewCommunityRepository(tdb.DB)

	routes := &handler.Routes{
		Health: handler.NewHealthHandler(tdb.DB, "test"),
		Generic: handler.NewGenericHandler(service.NewGenericService(service.GenericServiceConfig{
			Registry:      registry.New(),
			Repo:          genericRepo,
			Subscriptions: accountRepo,
		})),
		Listing: handler.NewListingHandler(service.NewListingService(service.ListingServiceConfig{
			Repo: listingRepo,
		})),
		Community: handler.NewCommunityHandler(service.NewCommunityService(service.CommunityServiceConfig{
			Repo:   communityRepo,
			Cities: service.NewCityStateCache(communityRepo),
		})),
		Account: handler.NewAccountHandler(service.NewAccountService(service.AccountServiceConfig{
			Repo:         accountRepo,
			BuildVersion: "test",
		})),
		Media:        handler.NewMediaHandler(service.NewMediaService(service.MediaServiceConfig{})),
		Auth:         middleware.Auth(jwtHelper.Service()),
		OptionalAuth: middleware.OptionalAuth(jwtHelper.Service()),
		SharedSecret: middleware.SharedSecret(string(hash)),
	}

	mux := http.NewServeMux()
	routes.Register(mux)
	return &stack{mux: mux, jwt: jwtHelper, tdb: tdb, f: fixtures.New(tdb.DB)}
}

func TestIntegration_Health(t *testing.T) {
	s := newStack(t)

	rr := helpers.NewRequest(t, http.MethodGet, "/health").Do(s.mux)

	helpers.AssertStatus(t, rr, http.StatusOK)
	var body handler.HealthResponse
	helpers.DecodeResponse(t, rr, &body)
	assert.Equal(t, "ok", body.Database)
}

func TestIntegration_ListingLifecycle(t *testing.T) {
	s := newStack(t)
	owner := s.f.UserID()

	rr := helpers.NewRequest(t, http.MethodPost, "/generic/listings").
		WithBearer(s.jwt, owner).
		WithBody(map[string]any{"title": "Sunny loft", "price": 1450, "location": "Brooklyn"}).
		Do(s.mux)
	helpers.AssertStatus(t, rr, http.StatusCreated)

	var created model.ListingOutput
	helpers.DecodeData(t, rr, &created)
	require.NotEmpty(t, created.ID)
	assert.True(t, strings.HasPrefix(created.ID, "listings:"))
	helpers.AssertRecordExists(t, s.tdb.DB, "listings", created.ID)

	// the owner sees the listing through the generic list
	rr = helpers.NewRequest(t, http.MethodGet, "/generic/listings").
		WithBearer(s.jwt, owner).
		Do(s.mux)
	helpers.AssertStatus(t, rr, http.StatusOK)
	var mine []model.ListingOutput
	helpers.DecodeData(t, rr, &mine)
	require.Len(t, mine, 1)
	assert.Equal(t, created.ID, mine[0].ID)

	// another caller does not
	rr = helpers.NewRequest(t, http.MethodGet, "/generic/listings").
		WithBearer(s.jwt, s.f.UserID()).
		Do(s.mux)
	helpers.AssertStatus(t, rr, http.StatusOK)
	var theirs []model.ListingOutput
	helpers.DecodeData(t, rr, &theirs)
	assert.Empty(t, theirs)

	rr = helpers.NewRequest(t, http.MethodPut, "/generic/listings/"+created.ID).
		WithBearer(s.jwt, owner).
		WithBody(map[string]any{"price": 1300}).
		Do(s.mux)
	helpers.AssertStatus(t, rr, http.StatusOK)
	var updated model.ListingOutput
	helpers.DecodeData(t, rr, &updated)
	assert.InDelta(t, 1300.0, updated.Price, 0.001)
	assert.Equal(t, "Sunny loft", updated.Title)
}

func TestIntegration_CreateListing_ValidationError(t *testing.T) {
	s := newStack(t)

	rr := helpers.NewRequest(t, http.MethodPost, "/generic/listings").
		WithBearer(s.jwt, s.f.UserID()).
		WithBody(map[string]any{"price": 900}).
		Do(s.mux)

	helpers.AssertValidationError(t, rr, "title")
}

func TestIntegration_ExpiredToken(t *testing.T) {
	s := newStack(t)
	user := s.f.UserID()

	rr := helpers.NewRequest(t, http.MethodGet, "/generic/listings").
		WithHeader("Authorization", "Bearer "+s.jwt.ExpiredToken(t, user)).
		Do(s.mux)

	p := helpers.AssertProblemDetails(t, rr, http.StatusUnauthorized, model.ErrCodeUnauthorized)
	assert.Equal(t, "token expired", p.Detail)
}

func TestIntegration_SearchIsPublic(t *testing.T) {
	s := newStack(t)
	owner := s.f.UserID()
	s.f.CreateListing(t, owner, func(o *fixtures.ListingOpts) { o.Price = 800 })
	s.f.CreateListing(t, owner, func(o *fixtures.ListingOpts) { o.Price = 2500 })

	rr := helpers.NewRequest(t, http.MethodGet, "/custom/listings?max_price=1000").Do(s.mux)

	helpers.AssertStatus(t, rr, http.StatusOK)
	var out []model.ListingOut
	helpers.DecodeResponse(t, rr, &out)
	require.Len(t, out, 1)
	assert.InDelta(t, 800.0, out[0].Price, 0.001)
}

func TestIntegration_RecordViewCountsOnce(t *testing.T) {
	s := newStack(t)
	listing := s.f.CreateListing(t, s.f.UserID())
	viewer := s.f.UserID()
	_, key, _ := strings.Cut(listing.ID, ":")

	var first, second model.ViewResult
	rr := helpers.NewRequest(t, http.MethodPut, "/custom/update_views/"+key).
		WithBearer(s.jwt, viewer).
		Do(s.mux)
	helpers.AssertStatus(t, rr, http.StatusOK)
	helpers.DecodeResponse(t, rr, &first)

	rr = helpers.NewRequest(t, http.MethodPut, "/custom/update_views/"+key).
		WithBearer(s.jwt, viewer).
		Do(s.mux)
	helpers.AssertStatus(t, rr, http.StatusOK)
	helpers.DecodeResponse(t, rr, &second)

	assert.True(t, first.Incremented)
	assert.Equal(t, 1, first.Views)
	assert.False(t, second.Incremented)
	assert.Equal(t, 1, second.Views)

	rr = helpers.NewRequest(t, http.MethodPut, "/custom/update_views/nope").
		WithBearer(s.jwt, viewer).
		Do(s.mux)
	helpers.AssertProblemDetails(t, rr, http.StatusNotFound, model.ErrCodeNotFound)
}

func TestIntegration_FavoriteRoundTrip(t *testing.T) {
	s := newStack(t)
	listing := s.f.CreateListing(t, s.f.UserID())
	caller := s.f.UserID()

	rr := helpers.NewRequest(t, http.MethodPost, "/generic/favorites").
		WithBearer(s.jwt, caller).
		WithBody(map[string]any{"listing_id": listing.ID}).
		Do(s.mux)
	helpers.AssertStatus(t, rr, http.StatusCreated)

	rr = helpers.NewRequest(t, http.MethodGet, "/custom/favourites").
		WithBearer(s.jwt, caller).
		Do(s.mux)
	helpers.AssertStatus(t, rr, http.StatusOK)
	var favs []model.ListingOut
	helpers.DecodeResponse(t, rr, &favs)
	require.Len(t, favs, 1)
	assert.Equal(t, listing.ID, favs[0].ID)

	rr = helpers.NewRequest(t, http.MethodDelete, "/generic/favorites?listing_id="+listing.ID).
		WithBearer(s.jwt, caller).
		Do(s.mux)
	helpers.AssertStatus(t, rr, http.StatusOK)
	var deleted model.DeleteResult
	helpers.DecodeData(t, rr, &deleted)
	assert.Equal(t, 1, deleted.Deleted)
	helpers.AssertRecordExists(t, s.tdb.DB, "listings", listing.ID)
}

func TestIntegration_CommunitySharedSecret(t *testing.T) {
	s := newStack(t)

	rr := helpers.NewRequest(t, http.MethodGet, "/custom/familyCounts").
		WithSharedSecret("wrong").
		Do(s.mux)
	helpers.AssertStatus(t, rr, http.StatusUnauthorized)

	rr = helpers.NewRequest(t, http.MethodGet, "/custom/familyCounts").
		WithSharedSecret(integrationSecret).
		Do(s.mux)
	helpers.AssertStatus(t, rr, http.StatusOK)
}
