package service

import (
	"errors"
	"fmt"

	"github.com/rentwise/api/internal/registry"
)

// Centralized service layer errors.
// All errors returned by service methods are defined here for consistency
// and to make error handling in handlers predictable.

// ===== Generic Resource Errors =====
var (
	ErrResourceNotFound = errors.New("resource not found")
	ErrRowNotFound      = errors.New("item not found")
	ErrNoMatch          = errors.New("no matching items found")
	ErrEmptyFilter      = errors.New("at least one filter is required to delete")
	ErrNotUpdatable     = errors.New("resource does not support updates")
	ErrDuplicateRow     = errors.New("row already exists for this caller")
)

// ===== Listing Errors =====
var (
	ErrListingNotFound    = errors.New("listing not found")
	ErrAppVersionNotFound = errors.New("no app version found")
)

// ===== Community Errors =====
var (
	ErrVisitExists        = errors.New("UserVisitTracking with this uuid_ip already exists")
	ErrVisitNotFound      = errors.New("UserVisitTracking not found")
	ErrFamilyNumberExists = errors.New("UUID already exists")
	ErrStateRequired      = errors.New("state is required")
	ErrCityRequired       = errors.New("city is required")
)

// ===== Media Errors =====
var (
	ErrMediaUnavailable     = errors.New("image storage is not configured")
	ErrImageNotFound        = errors.New("image not found")
	ErrUnsupportedMediaType = errors.New("only image uploads are accepted")
	ErrImageTooLarge        = errors.New("image exceeds the upload size limit")
)

// ValidationError lists every offending field of a request
type ValidationError = registry.ValidationError

// ConstraintError is a storage constraint failure other than uniqueness
type ConstraintError struct {
	Message string
}

func (e *ConstraintError) Error() string {
	return e.Message
}

// StorageError wraps an unclassified storage failure
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("error %s item: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
