package handler

import (
	"context"
	"net/http"

	"github.com/rentwise/api/internal/model"
)

// CommunityService is the community tracking surface
type CommunityService interface {
	ListVisits(ctx context.Context, uuidIP string) ([]*model.UserVisitTracking, error)
	CreateVisit(ctx context.Context, req *model.CreateUserTrackingRequest) (*model.UserVisitTracking, error)
	UpdateVisit(ctx context.Context, uuidIP string, req *model.UpdateUserTrackingRequest) (*model.UserVisitTracking, error)
	FamilyCounts(ctx context.Context, state string) ([]*model.FamilyCount, error)
	PostTypes(ctx context.Context) ([]*model.PostType, error)
	CommunityInfo(ctx context.Context, state string) ([]*model.CommunityInfo, error)
	CreateCommunityInfo(ctx context.Context, req *model.CreateCommunityInfoRequest) (*model.CommunityInfo, error)
	CreateDeviceInfo(ctx context.Context, req *model.CreateUserDeviceInfoRequest) (*model.UserDeviceInfo, error)
	SubmitFamilyNumber(ctx context.Context, req *model.SubmitFamilyNumberRequest) (*model.FamilyNumberSubmittedResponse, error)
	SearchCities(ctx context.Context, city string) ([]model.CityState, error)
	RefreshCities(ctx context.Context) (*model.MessageResponse, error)
}

// CommunityHandler handles the community /custom endpoints
type CommunityHandler struct {
	service CommunityService
}

// NewCommunityHandler creates a new community handler
func NewCommunityHandler(service CommunityService) *CommunityHandler {
	return &CommunityHandler{service: service}
}

// ListVisits handles GET /custom/userTracking
func (h *CommunityHandler) ListVisits(w http.ResponseWriter, r *http.Request) {
	visits, err := h.service.ListVisits(r.Context(), r.URL.Query().Get("uuid_ip"))
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}
	WriteJSON(w, http.StatusOK, visits)
}

// CreateVisit handles POST /custom/userTracking
func (h *CommunityHandler) CreateVisit(w http.ResponseWriter, r *http.Request) {
	var req model.CreateUserTrackingRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, model.NewBadRequestError("invalid request body"))
		return
	}

	visit, err := h.service.CreateVisit(r.Context(), &req)
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}
	WriteJSON(w, http.StatusCreated, visit)
}

// UpdateVisit handles PATCH /custom/userTracking/{uuid_ip}
func (h *CommunityHandler) UpdateVisit(w http.ResponseWriter, r *http.Request) {
	var req model.UpdateUserTrackingRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, model.NewBadRequestError("invalid request body"))
		return
	}

	visit, err := h.service.UpdateVisit(r.Context(), r.PathValue("uuid_ip"), &req)
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}
	WriteJSON(w, http.StatusOK, visit)
}

// FamilyCounts handles GET /custom/familyCounts
func (h *CommunityHandler) FamilyCounts(w http.ResponseWriter, r *http.Request) {
	counts, err := h.service.FamilyCounts(r.Context(), r.URL.Query().Get("state"))
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}
	WriteJSON(w, http.StatusOK, counts)
}

// PostTypes handles GET /custom/postTypes
func (h *CommunityHandler) PostTypes(w http.ResponseWriter, r *http.Request) {
	types, err := h.service.PostTypes(r.Context())
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}
	WriteJSON(w, http.StatusOK, types)
}

// CommunityInfo handles GET /custom/communityInfo
func (h *CommunityHandler) CommunityInfo(w http.ResponseWriter, r *http.Request) {
	posts, err := h.service.CommunityInfo(r.Context(), r.URL.Query().Get("state"))
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}
	WriteJSON(w, http.StatusOK, posts)
}

// CreateCommunityInfo handles POST /custom/communityInfo
func (h *CommunityHandler) CreateCommunityInfo(w http.ResponseWriter, r *http.Request) {
	var req model.CreateCommunityInfoRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, model.NewBadRequestError("invalid request body"))
		return
	}

	post, err := h.service.CreateCommunityInfo(r.Context(), &req)
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}
	WriteJSON(w, http.StatusCreated, post)
}

// CreateDeviceInfo handles POST /custom/userDeviceInfo
func (h *CommunityHandler) CreateDeviceInfo(w http.ResponseWriter, r *http.Request) {
	var req model.CreateUserDeviceInfoRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, model.NewBadRequestError("invalid request body"))
		return
	}

	device, err := h.service.CreateDeviceInfo(r.Context(), &req)
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}
	WriteJSON(w, http.StatusCreated, device)
}

// SubmitFamilyNumber handles POST /custom/familyNumberSubmitted
func (h *CommunityHandler) SubmitFamilyNumber(w http.ResponseWriter, r *http.Request) {
	var req model.SubmitFamilyNumberRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, model.NewBadRequestError("invalid request body"))
		return
	}

	resp, err := h.service.SubmitFamilyNumber(r.Context(), &req)
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}
	WriteJSON(w, http.StatusCreated, resp)
}

// SearchCities handles GET /custom/city_states
func (h *CommunityHandler) SearchCities(w http.ResponseWriter, r *http.Request) {
	matches, err := h.service.SearchCities(r.Context(), r.URL.Query().Get("city"))
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}
	WriteJSON(w, http.StatusOK, matches)
}

// RefreshCities handles POST /custom/refresh-cache
func (h *CommunityHandler) RefreshCities(w http.ResponseWriter, r *http.Request) {
	resp, err := h.service.RefreshCities(r.Context())
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}
	WriteJSON(w, http.StatusOK, resp)
}
