package handler

import (
	"context"
	"net/http"

	"github.com/rentwise/api/internal/middleware"
	"github.com/rentwise/api/internal/model"
)

// GenericService is the registry-driven CRUD surface
type GenericService interface {
	Schema(resource string) ([]model.SchemaField, error)
	List(ctx context.Context, userID, resource string, query map[string]string) ([]any, error)
	Create(ctx context.Context, userID, resource string, body []byte) (any, error)
	Update(ctx context.Context, userID, resource, id string, body []byte) (any, error)
	Delete(ctx context.Context, userID, resource string, query map[string]string) (*model.DeleteResult, error)
}

// GenericHandler handles /generic/{resource} requests
type GenericHandler struct {
	service GenericService
}

// NewGenericHandler creates a new generic handler
func NewGenericHandler(service GenericService) *GenericHandler {
	return &GenericHandler{service: service}
}

// List handles GET /generic/{resource}
func (h *GenericHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		WriteError(w, model.NewUnauthorizedError("authentication required"))
		return
	}

	rows, err := h.service.List(ctx, userID, r.PathValue("resource"), QueryMap(r.URL.Query()))
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	WriteData(w, http.StatusOK, rows)
}

// Create handles POST /generic/{resource}
func (h *GenericHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		WriteError(w, model.NewUnauthorizedError("authentication required"))
		return
	}

	body, err := ReadBody(w, r)
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	row, err := h.service.Create(ctx, userID, r.PathValue("resource"), body)
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	WriteData(w, http.StatusCreated, row)
}

// Update handles PUT /generic/{resource}/{id}
func (h *GenericHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		WriteError(w, model.NewUnauthorizedError("authentication required"))
		return
	}

	body, err := ReadBody(w, r)
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	row, err := h.service.Update(ctx, userID, r.PathValue("resource"), r.PathValue("id"), body)
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	WriteData(w, http.StatusOK, row)
}

// Delete handles DELETE /generic/{resource}
func (h *GenericHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		WriteError(w, model.NewUnauthorizedError("authentication required"))
		return
	}

	result, err := h.service.Delete(ctx, userID, r.PathValue("resource"), QueryMap(r.URL.Query()))
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	WriteData(w, http.StatusOK, result)
}

// Schema handles GET /generic/{resource}/schema
func (h *GenericHandler) Schema(w http.ResponseWriter, r *http.Request) {
	fields, err := h.service.Schema(r.PathValue("resource"))
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	WriteData(w, http.StatusOK, fields)
}
