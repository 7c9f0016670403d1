package httpapi

import (
	"errors"
	"net/http"

	"github.com/protocol-bank/custody-engine/internal/walleterr"
)

// statusFor maps the shared error taxonomy onto HTTP status codes, the
// way ai-wallet-backend's handlers translate auth/session errors onto
// gin's c.JSON(status, ...) calls.
func statusFor(err error) int {
	switch {
	case errors.Is(err, walleterr.ErrNotAuthorized):
		return http.StatusForbidden
	case errors.Is(err, walleterr.ErrRateLimitExceeded):
		return http.StatusTooManyRequests
	case errors.Is(err, walleterr.ErrAccountNotFound),
		errors.Is(err, walleterr.ErrUserNotFound),
		errors.Is(err, walleterr.ErrRequestNotFound),
		errors.Is(err, walleterr.ErrWalletNotInitialized),
		errors.Is(err, walleterr.ErrReleaseNotFound):
		return http.StatusNotFound
	case errors.Is(err, walleterr.ErrAlreadyProcessed),
		errors.Is(err, walleterr.ErrAccountInUse),
		errors.Is(err, walleterr.ErrReleaseAlreadyExists),
		errors.Is(err, walleterr.ErrReleaseDeprecated):
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}
