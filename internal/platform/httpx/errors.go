package httpx

import (
	"errors"
	"net/http"

	"github.com/rentiva/rentiva/internal/shared"
)

// RespondError maps domain sentinel errors onto problem-details responses.
// Anything unrecognised becomes an opaque 500 so internals never leak.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, shared.ErrDuplicateEmail):
		Problem(w, http.StatusConflict, "Duplicate", err.Error())
	case errors.Is(err, shared.ErrInvalidCredentials):
		Problem(w, http.StatusUnauthorized, "Unauthorized", "invalid credentials")
	case errors.Is(err, shared.ErrCSRFTokenMissing), errors.Is(err, shared.ErrCSRFTokenMismatch):
		Problem(w, http.StatusForbidden, "Forbidden", "csrf validation failed")
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
