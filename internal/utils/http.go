package utils

import (
	"errors"
	"net/http"

	"github.com/portfoliodb/portfoliodb/internal/domain"
)

// StatusFromError maps a domain error kind to an HTTP status code
func StatusFromError(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
