package jobs

import (
	"errors"
	"net/http"
)

// Domain errors for job operations.
var (
	ErrNotFound     = errors.New("job not found")
	ErrDuplicate    = errors.New("job already exists")
	ErrNotCompleted = errors.New("model translation not completed")
	ErrInvalidID    = errors.New("invalid job id")
	// ErrInvalidUpdate is returned when a recorded stage breaks a job invariant.
	ErrInvalidUpdate = errors.New("invalid job update")
)

// MapHTTPStatus maps job domain errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrDuplicate) || errors.Is(err, ErrNotCompleted) {
		return http.StatusConflict
	}
	if errors.Is(err, ErrInvalidID) || errors.Is(err, ErrInvalidUpdate) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
