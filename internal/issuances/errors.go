package issuances

import (
	"errors"
	"net/http"
)

// Domain errors for issuance operations.
var (
	ErrNotFound  = errors.New("issuance not found")
	ErrDuplicate = errors.New("issuance already recorded")
	ErrInvalidID = errors.New("invalid issuance id")
)

// MapHTTPStatus maps issuance errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidID):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
