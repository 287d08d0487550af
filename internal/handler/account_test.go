package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rentwise/api/internal/model"
	"github.com/rentwise/api/internal/service"
)

func TestAccountHandler_AppVersion(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		resp   *model.AppVersionResponse
		err    error
		status int
	}{
		{"latest", &model.AppVersionResponse{VersionNumber: "2.4.0", ForceUpdate: true}, nil, http.StatusOK},
		{"none published", nil, service.ErrAppVersionNotFound, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h := NewAccountHandler(&mockAccountService{
				appVersionFunc: func(ctx context.Context) (*model.AppVersionResponse, error) {
					return tt.resp, tt.err
				},
			})

			rr := httptest.NewRecorder()
			h.AppVersion(rr, httptest.NewRequest(http.MethodGet, "/generic/app_version", nil))

			assert.Equal(t, tt.status, rr.Code)
		})
	}
}

func TestAccountHandler_ProfileExists(t *testing.T) {
	t.Parallel()

	var gotUser string
	h := NewAccountHandler(&mockAccountService{
		profileExistsFunc: func(ctx context.Context, userID string) (*model.ProfileExistsResponse, error) {
			gotUser = userID
			return &model.ProfileExistsResponse{IsValid: true}, nil
		},
	})

	rr := httptest.NewRecorder()
	h.ProfileExists(rr, withUser(httptest.NewRequest(http.MethodGet, "/generic/user_profile/exists", nil), "user_5"))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "user_5", gotUser)
	assert.JSONEq(t, `{"isValid":true}`, rr.Body.String())
}

func TestAccountHandler_ProfileExists_RequiresCaller(t *testing.T) {
	t.Parallel()

	h := NewAccountHandler(&mockAccountService{})
	rr := httptest.NewRecorder()
	h.ProfileExists(rr, httptest.NewRequest(http.MethodGet, "/generic/user_profile/exists", nil))

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestAccountHandler_BuildVersion(t *testing.T) {
	t.Parallel()

	h := NewAccountHandler(&mockAccountService{version: "1.0.7"})
	rr := httptest.NewRecorder()
	h.BuildVersion(rr, httptest.NewRequest(http.MethodGet, "/custom/version_build", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"version":"1.0.7"}`, rr.Body.String())
}
