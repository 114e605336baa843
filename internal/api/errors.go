package api

import (
	"errors"
	"net/http"

	"graphmeta/internal/domain"
)

// httpStatusFromError maps engine errors to HTTP status codes.
func httpStatusFromError(err error) int {
	var (
		notFound      *domain.NotFoundError
		validation    *domain.ValidationError
		conflict      *domain.ConflictError
		invalidJSON   *domain.InvalidJSONError
		decodeErr     *domain.DecodeError
		unsupported   *domain.UnsupportedVersionError
		uninitialized *domain.CatalogUninitializedError
	)

	switch {
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &conflict):
		return http.StatusConflict
	case errors.As(err, &validation),
		errors.As(err, &invalidJSON),
		errors.As(err, &decodeErr),
		errors.As(err, &unsupported):
		return http.StatusBadRequest
	case errors.As(err, &uninitialized):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
