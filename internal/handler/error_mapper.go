package handler

import (
	"errors"
	"log/slog"

	"github.com/rentwise/api/internal/model"
	"github.com/rentwise/api/internal/service"
)

// MapServiceError converts a service error to a ProblemDetails response.
// This centralizes error handling logic for all handlers, ensuring consistent
// HTTP status codes and error messages across the API.
func MapServiceError(err error) *model.ProblemDetails {
	if err == nil {
		return nil
	}

	var (
		problem    *model.ProblemDetails
		validation *service.ValidationError
		constraint *service.ConstraintError
		storage    *service.StorageError
	)

	switch {
	// ===== Already mapped =====
	case errors.As(err, &problem):
		return problem

	// ===== Not Found Errors → 404 =====
	case errors.Is(err, service.ErrResourceNotFound),
		errors.Is(err, service.ErrRowNotFound),
		errors.Is(err, service.ErrNoMatch),
		errors.Is(err, service.ErrListingNotFound),
		errors.Is(err, service.ErrAppVersionNotFound),
		errors.Is(err, service.ErrVisitNotFound),
		errors.Is(err, service.ErrImageNotFound):
		return model.NewNotFoundError(err.Error())

	// ===== Validation Errors → 422 =====
	case errors.As(err, &validation):
		return model.NewValidationError(validation.Fields)
	case errors.Is(err, service.ErrUnsupportedMediaType):
		return model.NewValidationError([]model.FieldError{{Field: "file", Message: err.Error()}})

	// ===== Bad Request Errors → 400 =====
	case errors.Is(err, service.ErrEmptyFilter),
		errors.Is(err, service.ErrVisitExists),
		errors.Is(err, service.ErrFamilyNumberExists),
		errors.Is(err, service.ErrStateRequired),
		errors.Is(err, service.ErrCityRequired):
		return model.NewBadRequestError(err.Error())
	case errors.As(err, &constraint):
		return model.NewConstraintError(constraint.Message)

	// ===== Method Errors → 405 =====
	case errors.Is(err, service.ErrNotUpdatable):
		return model.NewMethodNotAllowedError(err.Error())

	// ===== Conflict Errors → 409 =====
	case errors.Is(err, service.ErrDuplicateRow):
		return model.NewConflictError(err.Error())

	// ===== Size Errors → 413 =====
	case errors.Is(err, service.ErrImageTooLarge):
		p := model.NewPayloadTooLargeError(0)
		p.Detail = err.Error()
		return p

	// ===== Unavailable → 503 =====
	case errors.Is(err, service.ErrMediaUnavailable):
		return model.NewServiceUnavailableError(err.Error())

	// ===== Storage → 500 with operation detail =====
	case errors.As(err, &storage):
		slog.Error("storage error", slog.String("op", storage.Op), slog.String("error", storage.Err.Error()))
		p := model.NewInternalError(storage.Error())
		p.Code = model.ErrCodeDatabase
		return p

	// ===== Default → 500 =====
	default:
		slog.Error("unhandled service error", slog.String("error", err.Error()))
		return model.NewInternalError("")
	}
}
