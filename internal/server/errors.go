package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	importerdomain "github.com/paysynclabs/paysync/internal/importer/domain"
	providerdomain "github.com/paysynclabs/paysync/internal/provider/domain"
	"github.com/paysynclabs/paysync/internal/ratelimit"
)

var (
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrInvalidRequest = errors.New("invalid_request")
)

// AbortWithError maps domain errors to HTTP status codes. The caller
// only ever sees aggregate summaries or specific auth/limit failures,
// never stack traces.
func AbortWithError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	code := "internal_error"

	switch {
	case errors.Is(err, ErrUnauthorized):
		status, code = http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, ErrForbidden):
		status, code = http.StatusForbidden, "forbidden"
	case errors.Is(err, ErrInvalidRequest):
		status, code = http.StatusBadRequest, "invalid_request"
	case errors.Is(err, ratelimit.ErrRateLimitExceeded):
		status, code = http.StatusTooManyRequests, "rate_limit_exceeded"
	case errors.Is(err, importerdomain.ErrUnknownProvider):
		status, code = http.StatusNotFound, "unknown_provider"
	case errors.Is(err, providerdomain.ErrNotConfigured):
		status, code = http.StatusServiceUnavailable, "provider_not_configured"
	case errors.Is(err, providerdomain.ErrProviderAuth):
		status, code = http.StatusBadGateway, "provider_auth_failed"
	case errors.Is(err, providerdomain.ErrProviderNetwork):
		status, code = http.StatusBadGateway, "provider_network_error"
	case errors.Is(err, providerdomain.ErrInvalidPayload):
		status, code = http.StatusBadRequest, "invalid_payload"
	case errors.Is(err, providerdomain.ErrInvalidCheckout):
		status, code = http.StatusBadRequest, "invalid_checkout_request"
	}

	c.AbortWithStatusJSON(status, gin.H{"error": gin.H{"code": code}})
}
