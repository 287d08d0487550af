package service

import (
	"context"
	"fmt"

	"github.com/rentwise/api/internal/model"
)

// AccountRepository defines the account reads outside the generic routes
type AccountRepository interface {
	ProfileExists(ctx context.Context, userID string) (bool, error)
	LatestAppVersion(ctx context.Context) (*model.AppVersion, error)
}

// AccountService answers app bootstrap questions
type AccountService struct {
	repo         AccountRepository
	buildVersion string
}

// AccountServiceConfig holds configuration for the account service
type AccountServiceConfig struct {
	Repo         AccountRepository
	BuildVersion string
}

// NewAccountService creates a new account service
func NewAccountService(cfg AccountServiceConfig) *AccountService {
	return &AccountService{
		repo:         cfg.Repo,
		buildVersion: cfg.BuildVersion,
	}
}

// AppVersion returns the newest minimum app version
func (s *AccountService) AppVersion(ctx context.Context) (*model.AppVersionResponse, error) {
	v, err := s.repo.LatestAppVersion(ctx)
	if err != nil {
		return nil, fmt.Errorf("read app version: %w", err)
	}
	if v == nil {
		return nil, ErrAppVersionNotFound
	}
	resp := v.Response()
	return &resp, nil
}

// ProfileExists reports whether the caller has created a profile
func (s *AccountService) ProfileExists(ctx context.Context, userID string) (*model.ProfileExistsResponse, error) {
	ok, err := s.repo.ProfileExists(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("read profile: %w", err)
	}
	return &model.ProfileExistsResponse{IsValid: ok}, nil
}

// BuildVersion returns the server build version
func (s *AccountService) BuildVersion() model.VersionResponse {
	return model.VersionResponse{Version: s.buildVersion}
}
