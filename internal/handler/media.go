package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/rentwise/api/internal/middleware"
	"github.com/rentwise/api/internal/model"
	"github.com/rentwise/api/internal/objectstore"
	"github.com/rentwise/api/internal/service"
)

// multipartOverhead allows for form boundaries and headers around the file
const multipartOverhead = 64 << 10

// MediaService stores and streams uploaded images
type MediaService interface {
	Enabled() bool
	MaxBytes() int64
	Upload(ctx context.Context, userID, filename, contentType string, size int64, r io.Reader) (*service.ImageUpload, error)
	Open(ctx context.Context, id string) (*objectstore.Object, error)
}

// MediaHandler handles image upload and download
type MediaHandler struct {
	service MediaService
}

// NewMediaHandler creates a new media handler
func NewMediaHandler(service MediaService) *MediaHandler {
	return &MediaHandler{service: service}
}

// Upload handles POST /custom/public_upload_image
func (h *MediaHandler) Upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		WriteError(w, model.NewUnauthorizedError("authentication required"))
		return
	}
	if !h.service.Enabled() {
		WriteError(w, MapServiceError(service.ErrMediaUnavailable))
		return
	}

	maxBytes := h.service.MaxBytes()
	if maxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes+multipartOverhead)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		WriteError(w, uploadError(err, maxBytes))
		return
	}
	defer file.Close()

	upload, err := h.service.Upload(ctx, userID, header.Filename, header.Header.Get("Content-Type"), header.Size, file)
	if err != nil {
		if errors.Is(err, service.ErrImageTooLarge) {
			WriteError(w, model.NewPayloadTooLargeError(maxBytes))
			return
		}
		WriteError(w, MapServiceError(err))
		return
	}

	WriteJSON(w, http.StatusOK, model.ImageUploadResponse{ImageURL: upload.URL})
}

// Image handles GET /custom/images/{id}
func (h *MediaHandler) Image(w http.ResponseWriter, r *http.Request) {
	obj, err := h.service.Open(r.Context(), r.PathValue("id"))
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}
	defer obj.Close()

	contentType := obj.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	if obj.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(obj.Size, 10))
	}
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, obj); err != nil {
		slog.Warn("image stream interrupted",
			slog.String("id", r.PathValue("id")),
			slog.String("error", err.Error()),
		)
	}
}

func uploadError(err error, maxBytes int64) *model.ProblemDetails {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return model.NewPayloadTooLargeError(maxBytes)
	case errors.Is(err, http.ErrMissingFile):
		return model.NewValidationError([]model.FieldError{{Field: "file", Message: "file is required"}})
	case errors.Is(err, http.ErrNotMultipart), errors.Is(err, multipart.ErrMessageTooLarge):
		return model.NewBadRequestError("expected multipart/form-data body")
	default:
		return model.NewBadRequestError("invalid multipart body")
	}
}
