package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rentwise/api/internal/middleware"
	"github.com/rentwise/api/internal/model"
	"github.com/rentwise/api/internal/objectstore"
	"github.com/rentwise/api/internal/service"
)

// ============================================================================
// Mock GenericService
// ============================================================================

type mockGenericService struct {
	schemaFunc func(resource string) ([]model.SchemaField, error)
	listFunc   func(ctx context.Context, userID, resource string, query map[string]string) ([]any, error)
	createFunc func(ctx context.Context, userID, resource string, body []byte) (any, error)
	updateFunc func(ctx context.Context, userID, resource, id string, body []byte) (any, error)
	deleteFunc func(ctx context.Context, userID, resource string, query map[string]string) (*model.DeleteResult, error)
}

func (m *mockGenericService) Schema(resource string) ([]model.SchemaField, error) {
	if m.schemaFunc != nil {
		return m.schemaFunc(resource)
	}
	return nil, nil
}

func (m *mockGenericService) List(ctx context.Context, userID, resource string, query map[string]string) ([]any, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, userID, resource, query)
	}
	return nil, nil
}

func (m *mockGenericService) Create(ctx context.Context, userID, resource string, body []byte) (any, error) {
	if m.createFunc != nil {
		return m.createFunc(ctx, userID, resource, body)
	}
	return nil, nil
}

func (m *mockGenericService) Update(ctx context.Context, userID, resource, id string, body []byte) (any, error) {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, userID, resource, id, body)
	}
	return nil, nil
}

func (m *mockGenericService) Delete(ctx context.Context, userID, resource string, query map[string]string) (*model.DeleteResult, error) {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, userID, resource, query)
	}
	return nil, nil
}

// ============================================================================
// Mock ListingService
// ============================================================================

type mockListingService struct {
	searchFunc     func(ctx context.Context, userID string, q *model.ListingSearch) ([]model.ListingOut, error)
	favoritesFunc  func(ctx context.Context, userID string, page, pageSize int) ([]model.ListingOut, error)
	featuredFunc   func(ctx context.Context) ([]model.FeaturedListing, error)
	recordViewFunc func(ctx context.Context, userID, listingID string) (*model.ViewResult, error)
}

func (m *mockListingService) Search(ctx context.Context, userID string, q *model.ListingSearch) ([]model.ListingOut, error) {
	if m.searchFunc != nil {
		return m.searchFunc(ctx, userID, q)
	}
	return nil, nil
}

func (m *mockListingService) Favorites(ctx context.Context, userID string, page, pageSize int) ([]model.ListingOut, error) {
	if m.favoritesFunc != nil {
		return m.favoritesFunc(ctx, userID, page, pageSize)
	}
	return nil, nil
}

func (m *mockListingService) Featured(ctx context.Context) ([]model.FeaturedListing, error) {
	if m.featuredFunc != nil {
		return m.featuredFunc(ctx)
	}
	return nil, nil
}

func (m *mockListingService) RecordView(ctx context.Context, userID, listingID string) (*model.ViewResult, error) {
	if m.recordViewFunc != nil {
		return m.recordViewFunc(ctx, userID, listingID)
	}
	return nil, nil
}

// ============================================================================
// Mock CommunityService
// ============================================================================

type mockCommunityService struct {
	listVisitsFunc          func(ctx context.Context, uuidIP string) ([]*model.UserVisitTracking, error)
	createVisitFunc         func(ctx context.Context, req *model.CreateUserTrackingRequest) (*model.UserVisitTracking, error)
	updateVisitFunc         func(ctx context.Context, uuidIP string, req *model.UpdateUserTrackingRequest) (*model.UserVisitTracking, error)
	familyCountsFunc        func(ctx context.Context, state string) ([]*model.FamilyCount, error)
	postTypesFunc           func(ctx context.Context) ([]*model.PostType, error)
	communityInfoFunc       func(ctx context.Context, state string) ([]*model.CommunityInfo, error)
	createCommunityInfoFunc func(ctx context.Context, req *model.CreateCommunityInfoRequest) (*model.CommunityInfo, error)
	createDeviceInfoFunc    func(ctx context.Context, req *model.CreateUserDeviceInfoRequest) (*model.UserDeviceInfo, error)
	submitFamilyNumberFunc  func(ctx context.Context, req *model.SubmitFamilyNumberRequest) (*model.FamilyNumberSubmittedResponse, error)
	searchCitiesFunc        func(ctx context.Context, city string) ([]model.CityState, error)
	refreshCitiesFunc       func(ctx context.Context) (*model.MessageResponse, error)
}

func (m *mockCommunityService) ListVisits(ctx context.Context, uuidIP string) ([]*model.UserVisitTracking, error) {
	if m.listVisitsFunc != nil {
		return m.listVisitsFunc(ctx, uuidIP)
	}
	return nil, nil
}

func (m *mockCommunityService) CreateVisit(ctx context.Context, req *model.CreateUserTrackingRequest) (*model.UserVisitTracking, error) {
	if m.createVisitFunc != nil {
		return m.createVisitFunc(ctx, req)
	}
	return nil, nil
}

func (m *mockCommunityService) UpdateVisit(ctx context.Context, uuidIP string, req *model.UpdateUserTrackingRequest) (*model.UserVisitTracking, error) {
	if m.updateVisitFunc != nil {
		return m.updateVisitFunc(ctx, uuidIP, req)
	}
	return nil, nil
}

func (m *mockCommunityService) FamilyCounts(ctx context.Context, state string) ([]*model.FamilyCount, error) {
	if m.familyCountsFunc != nil {
		return m.familyCountsFunc(ctx, state)
	}
	return nil, nil
}

func (m *mockCommunityService) PostTypes(ctx context.Context) ([]*model.PostType, error) {
	if m.postTypesFunc != nil {
		return m.postTypesFunc(ctx)
	}
	return nil, nil
}

func (m *mockCommunityService) CommunityInfo(ctx context.Context, state string) ([]*model.CommunityInfo, error) {
	if m.communityInfoFunc != nil {
		return m.communityInfoFunc(ctx, state)
	}
	return nil, nil
}

func (m *mockCommunityService) CreateCommunityInfo(ctx context.Context, req *model.CreateCommunityInfoRequest) (*model.CommunityInfo, error) {
	if m.createCommunityInfoFunc != nil {
		return m.createCommunityInfoFunc(ctx, req)
	}
	return nil, nil
}

func (m *mockCommunityService) CreateDeviceInfo(ctx context.Context, req *model.CreateUserDeviceInfoRequest) (*model.UserDeviceInfo, error) {
	if m.createDeviceInfoFunc != nil {
		return m.createDeviceInfoFunc(ctx, req)
	}
	return nil, nil
}

func (m *mockCommunityService) SubmitFamilyNumber(ctx context.Context, req *model.SubmitFamilyNumberRequest) (*model.FamilyNumberSubmittedResponse, error) {
	if m.submitFamilyNumberFunc != nil {
		return m.submitFamilyNumberFunc(ctx, req)
	}
	return nil, nil
}

func (m *mockCommunityService) SearchCities(ctx context.Context, city string) ([]model.CityState, error) {
	if m.searchCitiesFunc != nil {
		return m.searchCitiesFunc(ctx, city)
	}
	return nil, nil
}

func (m *mockCommunityService) RefreshCities(ctx context.Context) (*model.MessageResponse, error) {
	if m.refreshCitiesFunc != nil {
		return m.refreshCitiesFunc(ctx)
	}
	return nil, nil
}

// ============================================================================
// Mock AccountService
// ============================================================================

type mockAccountService struct {
	appVersionFunc    func(ctx context.Context) (*model.AppVersionResponse, error)
	profileExistsFunc func(ctx context.Context, userID string) (*model.ProfileExistsResponse, error)
	version           string
}

func (m *mockAccountService) AppVersion(ctx context.Context) (*model.AppVersionResponse, error) {
	if m.appVersionFunc != nil {
		return m.appVersionFunc(ctx)
	}
	return nil, nil
}

func (m *mockAccountService) ProfileExists(ctx context.Context, userID string) (*model.ProfileExistsResponse, error) {
	if m.profileExistsFunc != nil {
		return m.profileExistsFunc(ctx, userID)
	}
	return nil, nil
}

func (m *mockAccountService) BuildVersion() model.VersionResponse {
	return model.VersionResponse{Version: m.version}
}

// ============================================================================
// Mock MediaService
// ============================================================================

type mockMediaService struct {
	enabled    bool
	maxBytes   int64
	uploadFunc func(ctx context.Context, userID, filename, contentType string, size int64, r io.Reader) (*service.ImageUpload, error)
	openFunc   func(ctx context.Context, id string) (*objectstore.Object, error)
}

func (m *mockMediaService) Enabled() bool {
	return m.enabled
}

func (m *mockMediaService) MaxBytes() int64 {
	return m.maxBytes
}

func (m *mockMediaService) Upload(ctx context.Context, userID, filename, contentType string, size int64, r io.Reader) (*service.ImageUpload, error) {
	if m.uploadFunc != nil {
		return m.uploadFunc(ctx, userID, filename, contentType, size, r)
	}
	return nil, nil
}

func (m *mockMediaService) Open(ctx context.Context, id string) (*objectstore.Object, error) {
	if m.openFunc != nil {
		return m.openFunc(ctx, id)
	}
	return nil, nil
}

// ============================================================================
// Mock Pinger
// ============================================================================

type mockPinger struct {
	err error
}

func (m *mockPinger) Ping(ctx context.Context) error {
	return m.err
}

type mockAuditStatus struct {
	running bool
	dropped int64
}

func (m *mockAuditStatus) IsRunning() bool { return m.running }
func (m *mockAuditStatus) Dropped() int64  { return m.dropped }

// ============================================================================
// Helpers
// ============================================================================

// withUser places an authenticated caller in the request context
func withUser(r *http.Request, userID string) *http.Request {
	ctx := context.WithValue(r.Context(), middleware.UserIDKey, userID)
	return r.WithContext(ctx)
}

// decodeProblem reads an RFC 9457 body
func decodeProblem(t *testing.T, rr *httptest.ResponseRecorder) model.ProblemDetails {
	t.Helper()
	var p model.ProblemDetails
	if err := json.NewDecoder(rr.Body).Decode(&p); err != nil {
		t.Fatalf("decode problem: %v", err)
	}
	return p
}
