package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rentwise/api/internal/database"
	"github.com/rentwise/api/internal/model"
)

// CommunityRepository defines the interface for community web app storage
type CommunityRepository interface {
	ListVisits(ctx context.Context, uuidIP string) ([]*model.UserVisitTracking, error)
	GetVisit(ctx context.Context, uuidIP string) (*model.UserVisitTracking, error)
	CreateVisit(ctx context.Context, req *model.CreateUserTrackingRequest) (*model.UserVisitTracking, error)
	UpdateVisit(ctx context.Context, uuidIP string, req *model.UpdateUserTrackingRequest) (*model.UserVisitTracking, error)
	FamilyCounts(ctx context.Context, state string) ([]*model.FamilyCount, error)
	PostTypes(ctx context.Context) ([]*model.PostType, error)
	CommunityInfo(ctx context.Context, state string) ([]*model.CommunityInfo, error)
	CreateCommunityInfo(ctx context.Context, req *model.CreateCommunityInfoRequest) (*model.CommunityInfo, error)
	CreateDeviceInfo(ctx context.Context, req *model.CreateUserDeviceInfoRequest) (*model.UserDeviceInfo, error)
	FamilyNumberExists(ctx context.Context, uuidIP string) (bool, error)
	SubmitFamilyNumber(ctx context.Context, req *model.SubmitFamilyNumberRequest) (*model.FamilyNumberSubmitted, error)
}

// CommunityService handles the anonymous community web app endpoints
type CommunityService struct {
	repo   CommunityRepository
	cities *CityStateCache
}

// CommunityServiceConfig holds configuration for the community service
type CommunityServiceConfig struct {
	Repo   CommunityRepository
	Cities *CityStateCache
}

// NewCommunityService creates a new community service
func NewCommunityService(cfg CommunityServiceConfig) *CommunityService {
	return &CommunityService{
		repo:   cfg.Repo,
		cities: cfg.Cities,
	}
}

// ListVisits returns visit rows, optionally for one uuid_ip
func (s *CommunityService) ListVisits(ctx context.Context, uuidIP string) ([]*model.UserVisitTracking, error) {
	return s.repo.ListVisits(ctx, strings.TrimSpace(uuidIP))
}

// CreateVisit starts tracking a new visitor
func (s *CommunityService) CreateVisit(ctx context.Context, req *model.CreateUserTrackingRequest) (*model.UserVisitTracking, error) {
	if errs := req.Validate(); len(errs) > 0 {
		return nil, &ValidationError{Fields: errs}
	}

	existing, err := s.repo.GetVisit(ctx, strings.TrimSpace(*req.UUIDIP))
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrVisitExists
	}

	visit, err := s.repo.CreateVisit(ctx, req)
	if err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return nil, ErrVisitExists
		}
		return nil, fmt.Errorf("create visit: %w", err)
	}
	return visit, nil
}

// UpdateVisit applies the fields set in req to the visitor's row
func (s *CommunityService) UpdateVisit(ctx context.Context, uuidIP string, req *model.UpdateUserTrackingRequest) (*model.UserVisitTracking, error) {
	if errs := req.Validate(); len(errs) > 0 {
		return nil, &ValidationError{Fields: errs}
	}

	visit, err := s.repo.UpdateVisit(ctx, strings.TrimSpace(uuidIP), req)
	if err != nil {
		return nil, fmt.Errorf("update visit: %w", err)
	}
	if visit == nil {
		return nil, ErrVisitNotFound
	}
	return visit, nil
}

// FamilyCounts returns the family counts of a state
func (s *CommunityService) FamilyCounts(ctx context.Context, state string) ([]*model.FamilyCount, error) {
	if strings.TrimSpace(state) == "" {
		return nil, ErrStateRequired
	}
	return s.repo.FamilyCounts(ctx, state)
}

// PostTypes returns every post type
func (s *CommunityService) PostTypes(ctx context.Context) ([]*model.PostType, error) {
	return s.repo.PostTypes(ctx)
}

// CommunityInfo returns the community posts of a state
func (s *CommunityService) CommunityInfo(ctx context.Context, state string) ([]*model.CommunityInfo, error) {
	if strings.TrimSpace(state) == "" {
		return nil, ErrStateRequired
	}
	return s.repo.CommunityInfo(ctx, state)
}

// CreateCommunityInfo stores a community post
func (s *CommunityService) CreateCommunityInfo(ctx context.Context, req *model.CreateCommunityInfoRequest) (*model.CommunityInfo, error) {
	if errs := req.Validate(); len(errs) > 0 {
		return nil, &ValidationError{Fields: errs}
	}
	post, err := s.repo.CreateCommunityInfo(ctx, req)
	if err != nil {
		return nil, classifyWriteError("creating", err)
	}
	return post, nil
}

// CreateDeviceInfo records a visitor's device
func (s *CommunityService) CreateDeviceInfo(ctx context.Context, req *model.CreateUserDeviceInfoRequest) (*model.UserDeviceInfo, error) {
	if errs := req.Validate(); len(errs) > 0 {
		return nil, &ValidationError{Fields: errs}
	}
	device, err := s.repo.CreateDeviceInfo(ctx, req)
	if err != nil {
		return nil, classifyWriteError("creating", err)
	}
	return device, nil
}

// SubmitFamilyNumber stores one family number per visitor
func (s *CommunityService) SubmitFamilyNumber(ctx context.Context, req *model.SubmitFamilyNumberRequest) (*model.FamilyNumberSubmittedResponse, error) {
	if errs := req.Validate(); len(errs) > 0 {
		return nil, &ValidationError{Fields: errs}
	}
	req.UUIDIP = strings.TrimSpace(req.UUIDIP)

	exists, err := s.repo.FamilyNumberExists(ctx, req.UUIDIP)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrFamilyNumberExists
	}

	row, err := s.repo.SubmitFamilyNumber(ctx, req)
	if err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return nil, ErrFamilyNumberExists
		}
		return nil, classifyWriteError("creating", err)
	}
	return &model.FamilyNumberSubmittedResponse{
		Message: "Family number submitted successfully",
		Data:    *row,
	}, nil
}

// SearchCities matches city against the cached "City, ST" labels
func (s *CommunityService) SearchCities(ctx context.Context, city string) ([]model.CityState, error) {
	return s.cities.Search(ctx, city)
}

// RefreshCities reloads the city cache
func (s *CommunityService) RefreshCities(ctx context.Context) (*model.MessageResponse, error) {
	n, err := s.cities.Refresh(ctx)
	if err != nil {
		return nil, err
	}
	return &model.MessageResponse{Message: fmt.Sprintf("City cache refreshed with %d entries", n)}, nil
}
