package handler

import (
	"context"
	"net/http"

	"github.com/rentwise/api/internal/middleware"
	"github.com/rentwise/api/internal/model"
)

// AccountService answers app and profile lookups
type AccountService interface {
	AppVersion(ctx context.Context) (*model.AppVersionResponse, error)
	ProfileExists(ctx context.Context, userID string) (*model.ProfileExistsResponse, error)
	BuildVersion() model.VersionResponse
}

// AccountHandler handles app version and profile lookups
type AccountHandler struct {
	service AccountService
}

// NewAccountHandler creates a new account handler
func NewAccountHandler(service AccountService) *AccountHandler {
	return &AccountHandler{service: service}
}

// AppVersion handles GET /generic/app_version
func (h *AccountHandler) AppVersion(w http.ResponseWriter, r *http.Request) {
	version, err := h.service.AppVersion(r.Context())
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}
	WriteJSON(w, http.StatusOK, version)
}

// ProfileExists handles GET /generic/user_profile/exists
func (h *AccountHandler) ProfileExists(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		WriteError(w, model.NewUnauthorizedError("authentication required"))
		return
	}

	resp, err := h.service.ProfileExists(ctx, userID)
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}
	WriteJSON(w, http.StatusOK, resp)
}

// BuildVersion handles GET /custom/version_build
func (h *AccountHandler) BuildVersion(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, h.service.BuildVersion())
}
