package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/spigell/skillmatrix/internal/extraction"
)

// HTTPStatus returns the status code reported for a failed extraction.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, extraction.ErrNoStrategy):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
