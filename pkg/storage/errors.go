package storage

import (
	"errors"
	"net/http"
)

var (
	// ErrNotFound indicates the requested blob does not exist.
	ErrNotFound = errors.New("blob not found")
	// ErrEmptyKey indicates an empty storage key was provided.
	ErrEmptyKey = errors.New("storage key must not be empty")
	// ErrInvalidKey indicates an empty, "." or ".." path segment in a key.
	ErrInvalidKey = errors.New("storage key contains invalid path segment")
	// ErrInvalidURI indicates a content URI that does not resolve to a stored object.
	ErrInvalidURI = errors.New("invalid content uri")
)

// MapHTTPStatus maps storage errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrEmptyKey) || errors.Is(err, ErrInvalidKey) || errors.Is(err, ErrInvalidURI) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
