package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rentwise/api/internal/audit"
	"github.com/rentwise/api/internal/objectstore"
)

// ImageStore stores and streams uploaded images
type ImageStore interface {
	Put(ctx context.Context, filename, contentType string, r io.Reader) (string, error)
	Open(ctx context.Context, id string) (*objectstore.Object, error)
}

// MediaService handles public image uploads
type MediaService struct {
	store         ImageStore
	publicBaseURL string
	maxBytes      int64
	audit         AuditRecorder
	now           func() time.Time
}

// MediaServiceConfig holds configuration for the media service
type MediaServiceConfig struct {
	// Store is nil when image storage is not configured
	Store         ImageStore
	PublicBaseURL string
	MaxBytes      int64
	Audit         AuditRecorder
}

// NewMediaService creates a new media service
func NewMediaService(cfg MediaServiceConfig) *MediaService {
	return &MediaService{
		store:         cfg.Store,
		publicBaseURL: strings.TrimRight(cfg.PublicBaseURL, "/"),
		maxBytes:      cfg.MaxBytes,
		audit:         cfg.Audit,
		now:           time.Now,
	}
}

// Enabled reports whether an image store is configured
func (s *MediaService) Enabled() bool {
	return s.store != nil
}

// MaxBytes returns the upload size limit
func (s *MediaService) MaxBytes() int64 {
	return s.maxBytes
}

// Upload stores an image and returns its public URL
func (s *MediaService) Upload(ctx context.Context, userID, filename, contentType string, size int64, r io.Reader) (*ImageUpload, error) {
	if s.store == nil {
		return nil, ErrMediaUnavailable
	}
	if !strings.HasPrefix(contentType, "image/") {
		return nil, ErrUnsupportedMediaType
	}
	if s.maxBytes > 0 && size > s.maxBytes {
		return nil, ErrImageTooLarge
	}

	name := objectName(filename, s.now())
	id, err := s.store.Put(ctx, name, contentType, r)
	if err != nil {
		return nil, fmt.Errorf("store image: %w", err)
	}

	url := s.publicBaseURL + "/custom/images/" + id
	if s.audit != nil {
		s.audit.Submit(audit.New(userID, audit.EventImageUpload, audit.ClientIP(ctx), map[string]interface{}{
			"object_id":    id,
			"filename":     name,
			"content_type": contentType,
			"size":         size,
		}))
	}
	return &ImageUpload{ID: id, URL: url}, nil
}

// Open streams a stored image; the caller closes it
func (s *MediaService) Open(ctx context.Context, id string) (*objectstore.Object, error) {
	if s.store == nil {
		return nil, ErrMediaUnavailable
	}
	obj, err := s.store.Open(ctx, id)
	if err != nil {
		if errors.Is(err, objectstore.ErrNotFound) {
			return nil, ErrImageNotFound
		}
		return nil, fmt.Errorf("open image: %w", err)
	}
	return obj, nil
}

// ImageUpload identifies a stored image
type ImageUpload struct {
	ID  string
	URL string
}

// objectName builds "<uuid>_<unix>_<base name>" with path separators and
// spaces removed from the original name
func objectName(filename string, now time.Time) string {
	base := filepath.Base(strings.ReplaceAll(filename, "\\", "/"))
	if base == "." || base == "/" || base == "" {
		base = "upload"
	}
	base = strings.ReplaceAll(base, " ", "_")
	return fmt.Sprintf("%s_%d_%s", uuid.NewString(), now.Unix(), base)
}
