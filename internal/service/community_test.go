package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rentwise/api/internal/database"
	"github.com/rentwise/api/internal/model"
)

func newCommunityService(repo *mockCommunityRepo) *CommunityService {
	return NewCommunityService(CommunityServiceConfig{
		Repo:   repo,
		Cities: NewCityStateCache(&mockCitySource{}),
	})
}

func TestCommunityService_CreateVisit_RequiresUUID(t *testing.T) {
	t.Parallel()

	svc := newCommunityService(&mockCommunityRepo{})

	_, err := svc.CreateVisit(context.Background(), &model.CreateUserTrackingRequest{UUIDIP: strPtr("  ")})
	assert.Equal(t, []string{"uuid_ip"}, validationFields(t, err))
}

func TestCommunityService_CreateVisit_Duplicate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		repo *mockCommunityRepo
	}{
		{
			name: "existing row",
			repo: &mockCommunityRepo{getVisitFunc: func(ctx context.Context, uuidIP string) (*model.UserVisitTracking, error) {
				return &model.UserVisitTracking{UUIDIP: uuidIP}, nil
			}},
		},
		{
			name: "lost race on the unique index",
			repo: &mockCommunityRepo{createVisitFunc: func(context.Context, *model.CreateUserTrackingRequest) (*model.UserVisitTracking, error) {
				return nil, fmt.Errorf("%w: uuid_ip", database.ErrDuplicate)
			}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			svc := newCommunityService(tt.repo)
			_, err := svc.CreateVisit(context.Background(), &model.CreateUserTrackingRequest{UUIDIP: strPtr("abc")})
			assert.ErrorIs(t, err, ErrVisitExists)
		})
	}
}

func TestCommunityService_CreateVisit_StartsAtOne(t *testing.T) {
	t.Parallel()

	svc := newCommunityService(&mockCommunityRepo{})

	visit, err := svc.CreateVisit(context.Background(), &model.CreateUserTrackingRequest{UUIDIP: strPtr("abc")})
	require.NoError(t, err)
	assert.Equal(t, 1, visit.LoggedCounts)
}

func TestCommunityService_UpdateVisit_NotFound(t *testing.T) {
	t.Parallel()

	var got string
	repo := &mockCommunityRepo{updateVisitFunc: func(ctx context.Context, uuidIP string, req *model.UpdateUserTrackingRequest) (*model.UserVisitTracking, error) {
		got = uuidIP
		return nil, nil
	}}
	svc := newCommunityService(repo)

	_, err := svc.UpdateVisit(context.Background(), " abc ", &model.UpdateUserTrackingRequest{City: strPtr("Plano")})
	assert.ErrorIs(t, err, ErrVisitNotFound)
	assert.Equal(t, "abc", got)
}

func TestCommunityService_StateRequired(t *testing.T) {
	t.Parallel()

	svc := newCommunityService(&mockCommunityRepo{})

	_, err := svc.FamilyCounts(context.Background(), " ")
	assert.ErrorIs(t, err, ErrStateRequired)

	_, err = svc.CommunityInfo(context.Background(), "")
	assert.ErrorIs(t, err, ErrStateRequired)
}

func TestCommunityService_CreateCommunityInfo_Validates(t *testing.T) {
	t.Parallel()

	svc := newCommunityService(&mockCommunityRepo{})

	_, err := svc.CreateCommunityInfo(context.Background(), &model.CreateCommunityInfoRequest{})
	assert.Equal(t, []string{"state", "title"}, validationFields(t, err))

	post, err := svc.CreateCommunityInfo(context.Background(), &model.CreateCommunityInfoRequest{State: "TX", Title: "Meetup"})
	require.NoError(t, err)
	assert.Equal(t, "Meetup", post.Title)
}

func TestCommunityService_SubmitFamilyNumber(t *testing.T) {
	t.Parallel()

	t.Run("duplicate", func(t *testing.T) {
		t.Parallel()
		repo := &mockCommunityRepo{familyNumberExistsFunc: func(context.Context, string) (bool, error) { return true, nil }}
		svc := newCommunityService(repo)

		_, err := svc.SubmitFamilyNumber(context.Background(), &model.SubmitFamilyNumberRequest{UUIDIP: "abc", FamilyNumber: 3})
		assert.ErrorIs(t, err, ErrFamilyNumberExists)
	})

	t.Run("stored", func(t *testing.T) {
		t.Parallel()
		svc := newCommunityService(&mockCommunityRepo{})

		res, err := svc.SubmitFamilyNumber(context.Background(), &model.SubmitFamilyNumberRequest{UUIDIP: " abc ", FamilyNumber: 3})
		require.NoError(t, err)
		assert.Equal(t, "Family number submitted successfully", res.Message)
		assert.Equal(t, "abc", res.Data.UUIDIP)
		assert.Equal(t, 3, res.Data.FamilyNumber)
	})
}
