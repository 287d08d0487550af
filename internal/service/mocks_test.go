package service

import (
	"context"
	"io"
	"sync"

	"github.com/rentwise/api/internal/audit"
	"github.com/rentwise/api/internal/model"
	"github.com/rentwise/api/internal/objectstore"
)

// ============================================================================
// Mock Repositories
// ============================================================================

type mockGenericRepo struct {
	findFunc       func(ctx context.Context, table string, filters []model.ColumnValue, limit int) ([]model.Row, error)
	findByIDFunc   func(ctx context.Context, table, id string, filters []model.ColumnValue) (model.Row, error)
	insertFunc     func(ctx context.Context, table string, values []model.ColumnValue) (model.Row, error)
	updateByIDFunc func(ctx context.Context, table, id string, filters, values []model.ColumnValue) (model.Row, error)
	deleteFunc     func(ctx context.Context, table string, filters []model.ColumnValue) (int, error)
	existsFunc     func(ctx context.Context, table, id string) (bool, error)
}

func (m *mockGenericRepo) Find(ctx context.Context, table string, filters []model.ColumnValue, limit int) ([]model.Row, error) {
	if m.findFunc != nil {
		return m.findFunc(ctx, table, filters, limit)
	}
	return nil, nil
}

func (m *mockGenericRepo) FindByID(ctx context.Context, table, id string, filters []model.ColumnValue) (model.Row, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, table, id, filters)
	}
	return nil, nil
}

func (m *mockGenericRepo) Insert(ctx context.Context, table string, values []model.ColumnValue) (model.Row, error) {
	if m.insertFunc != nil {
		return m.insertFunc(ctx, table, values)
	}
	return rowFromValues(table+":new", values), nil
}

func (m *mockGenericRepo) UpdateByID(ctx context.Context, table, id string, filters, values []model.ColumnValue) (model.Row, error) {
	if m.updateByIDFunc != nil {
		return m.updateByIDFunc(ctx, table, id, filters, values)
	}
	return rowFromValues(id, values), nil
}

func (m *mockGenericRepo) Delete(ctx context.Context, table string, filters []model.ColumnValue) (int, error) {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, table, filters)
	}
	return 0, nil
}

func (m *mockGenericRepo) Exists(ctx context.Context, table, id string) (bool, error) {
	if m.existsFunc != nil {
		return m.existsFunc(ctx, table, id)
	}
	return true, nil
}

func rowFromValues(id string, values []model.ColumnValue) model.Row {
	row := model.Row{"id": id}
	for _, v := range values {
		row[v.Column] = v.Value
	}
	return row
}

type mockSubscriptions struct {
	status string
	err    error
	calls  int
}

func (m *mockSubscriptions) SubscriptionStatus(ctx context.Context, userID string) (string, error) {
	m.calls++
	return m.status, m.err
}

type mockAudit struct {
	mu     sync.Mutex
	events []audit.Event
}

func (m *mockAudit) Submit(e audit.Event) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, e)
	return true
}

func (m *mockAudit) names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.events))
	for _, e := range m.events {
		out = append(out, e.Event)
	}
	return out
}

type mockListingRepo struct {
	getByIDFunc          func(ctx context.Context, id string) (*model.Listing, error)
	searchCandidatesFunc func(ctx context.Context, filter model.ListingFilter, userID string) ([]*model.ListingCandidate, error)
	featuredFunc         func(ctx context.Context, limit int) ([]*model.ListingCandidate, error)
	favoritesFunc        func(ctx context.Context, userID string) ([]*model.ListingCandidate, error)
	hasViewedFunc        func(ctx context.Context, userID, listingID string) (bool, error)
	recordFirstViewFunc  func(ctx context.Context, userID, listingID string) (int, error)
}

func (m *mockListingRepo) GetByID(ctx context.Context, id string) (*model.Listing, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockListingRepo) SearchCandidates(ctx context.Context, filter model.ListingFilter, userID string) ([]*model.ListingCandidate, error) {
	if m.searchCandidatesFunc != nil {
		return m.searchCandidatesFunc(ctx, filter, userID)
	}
	return nil, nil
}

func (m *mockListingRepo) Featured(ctx context.Context, limit int) ([]*model.ListingCandidate, error) {
	if m.featuredFunc != nil {
		return m.featuredFunc(ctx, limit)
	}
	return nil, nil
}

func (m *mockListingRepo) Favorites(ctx context.Context, userID string) ([]*model.ListingCandidate, error) {
	if m.favoritesFunc != nil {
		return m.favoritesFunc(ctx, userID)
	}
	return nil, nil
}

func (m *mockListingRepo) HasViewed(ctx context.Context, userID, listingID string) (bool, error) {
	if m.hasViewedFunc != nil {
		return m.hasViewedFunc(ctx, userID, listingID)
	}
	return false, nil
}

func (m *mockListingRepo) RecordFirstView(ctx context.Context, userID, listingID string) (int, error) {
	if m.recordFirstViewFunc != nil {
		return m.recordFirstViewFunc(ctx, userID, listingID)
	}
	return 1, nil
}

type mockCommunityRepo struct {
	listVisitsFunc          func(ctx context.Context, uuidIP string) ([]*model.UserVisitTracking, error)
	getVisitFunc            func(ctx context.Context, uuidIP string) (*model.UserVisitTracking, error)
	createVisitFunc         func(ctx context.Context, req *model.CreateUserTrackingRequest) (*model.UserVisitTracking, error)
	updateVisitFunc         func(ctx context.Context, uuidIP string, req *model.UpdateUserTrackingRequest) (*model.UserVisitTracking, error)
	familyCountsFunc        func(ctx context.Context, state string) ([]*model.FamilyCount, error)
	postTypesFunc           func(ctx context.Context) ([]*model.PostType, error)
	communityInfoFunc       func(ctx context.Context, state string) ([]*model.CommunityInfo, error)
	createCommunityInfoFunc func(ctx context.Context, req *model.CreateCommunityInfoRequest) (*model.CommunityInfo, error)
	createDeviceInfoFunc    func(ctx context.Context, req *model.CreateUserDeviceInfoRequest) (*model.UserDeviceInfo, error)
	familyNumberExistsFunc  func(ctx context.Context, uuidIP string) (bool, error)
	submitFamilyNumberFunc  func(ctx context.Context, req *model.SubmitFamilyNumberRequest) (*model.FamilyNumberSubmitted, error)
}

func (m *mockCommunityRepo) ListVisits(ctx context.Context, uuidIP string) ([]*model.UserVisitTracking, error) {
	if m.listVisitsFunc != nil {
		return m.listVisitsFunc(ctx, uuidIP)
	}
	return nil, nil
}

func (m *mockCommunityRepo) GetVisit(ctx context.Context, uuidIP string) (*model.UserVisitTracking, error) {
	if m.getVisitFunc != nil {
		return m.getVisitFunc(ctx, uuidIP)
	}
	return nil, nil
}

func (m *mockCommunityRepo) CreateVisit(ctx context.Context, req *model.CreateUserTrackingRequest) (*model.UserVisitTracking, error) {
	if m.createVisitFunc != nil {
		return m.createVisitFunc(ctx, req)
	}
	return &model.UserVisitTracking{UUIDIP: *req.UUIDIP, LoggedCounts: 1}, nil
}

func (m *mockCommunityRepo) UpdateVisit(ctx context.Context, uuidIP string, req *model.UpdateUserTrackingRequest) (*model.UserVisitTracking, error) {
	if m.updateVisitFunc != nil {
		return m.updateVisitFunc(ctx, uuidIP, req)
	}
	return nil, nil
}

func (m *mockCommunityRepo) FamilyCounts(ctx context.Context, state string) ([]*model.FamilyCount, error) {
	if m.familyCountsFunc != nil {
		return m.familyCountsFunc(ctx, state)
	}
	return nil, nil
}

func (m *mockCommunityRepo) PostTypes(ctx context.Context) ([]*model.PostType, error) {
	if m.postTypesFunc != nil {
		return m.postTypesFunc(ctx)
	}
	return nil, nil
}

func (m *mockCommunityRepo) CommunityInfo(ctx context.Context, state string) ([]*model.CommunityInfo, error) {
	if m.communityInfoFunc != nil {
		return m.communityInfoFunc(ctx, state)
	}
	return nil, nil
}

func (m *mockCommunityRepo) CreateCommunityInfo(ctx context.Context, req *model.CreateCommunityInfoRequest) (*model.CommunityInfo, error) {
	if m.createCommunityInfoFunc != nil {
		return m.createCommunityInfoFunc(ctx, req)
	}
	return &model.CommunityInfo{State: req.State, Title: req.Title}, nil
}

func (m *mockCommunityRepo) CreateDeviceInfo(ctx context.Context, req *model.CreateUserDeviceInfoRequest) (*model.UserDeviceInfo, error) {
	if m.createDeviceInfoFunc != nil {
		return m.createDeviceInfoFunc(ctx, req)
	}
	return &model.UserDeviceInfo{IPUUID: req.IPUUID}, nil
}

func (m *mockCommunityRepo) FamilyNumberExists(ctx context.Context, uuidIP string) (bool, error) {
	if m.familyNumberExistsFunc != nil {
		return m.familyNumberExistsFunc(ctx, uuidIP)
	}
	return false, nil
}

func (m *mockCommunityRepo) SubmitFamilyNumber(ctx context.Context, req *model.SubmitFamilyNumberRequest) (*model.FamilyNumberSubmitted, error) {
	if m.submitFamilyNumberFunc != nil {
		return m.submitFamilyNumberFunc(ctx, req)
	}
	return &model.FamilyNumberSubmitted{UUIDIP: req.UUIDIP, FamilyNumber: req.FamilyNumber}, nil
}

type mockCitySource struct {
	mu             sync.Mutex
	calls          int
	cityStatesFunc func(ctx context.Context) ([]model.CityState, error)
}

func (m *mockCitySource) CityStates(ctx context.Context) ([]model.CityState, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.cityStatesFunc != nil {
		return m.cityStatesFunc(ctx)
	}
	return nil, nil
}

func (m *mockCitySource) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

type mockImageStore struct {
	putFunc  func(ctx context.Context, filename, contentType string, r io.Reader) (string, error)
	openFunc func(ctx context.Context, id string) (*objectstore.Object, error)
}

func (m *mockImageStore) Put(ctx context.Context, filename, contentType string, r io.Reader) (string, error) {
	if m.putFunc != nil {
		return m.putFunc(ctx, filename, contentType, r)
	}
	return "65f000000000000000000001", nil
}

func (m *mockImageStore) Open(ctx context.Context, id string) (*objectstore.Object, error) {
	if m.openFunc != nil {
		return m.openFunc(ctx, id)
	}
	return nil, objectstore.ErrNotFound
}

type mockAccountRepo struct {
	profileExistsFunc    func(ctx context.Context, userID string) (bool, error)
	latestAppVersionFunc func(ctx context.Context) (*model.AppVersion, error)
}

func (m *mockAccountRepo) ProfileExists(ctx context.Context, userID string) (bool, error) {
	if m.profileExistsFunc != nil {
		return m.profileExistsFunc(ctx, userID)
	}
	return false, nil
}

func (m *mockAccountRepo) LatestAppVersion(ctx context.Context) (*model.AppVersion, error) {
	if m.latestAppVersionFunc != nil {
		return m.latestAppVersionFunc(ctx)
	}
	return nil, nil
}
