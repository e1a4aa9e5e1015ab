package httpapi

import (
	"errors"
	"net/http"

	"github.com/farmlink/authcore"
	"github.com/farmlink/authcore/middleware"
	"go.uber.org/zap"
)

// statusFor maps an engine error onto an HTTP status and a stable error code.
func statusFor(err error) (int, string) {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, authcore.ErrLoginRateLimited):
		return http.StatusTooManyRequests, "too_many_requests"
	case errors.Is(err, authcore.ErrAccountExists):
		return http.StatusConflict, "conflict"
	case errors.Is(err, authcore.ErrAccountInvalid),
		errors.Is(err, authcore.ErrAccountRoleInvalid),
		errors.Is(err, authcore.ErrPasswordPolicy):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, authcore.ErrHashMismatch):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, authcore.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, authcore.ErrUnauthorized), errors.Is(err, authcore.ErrForbidden):
		status := middleware.StatusFor(err)
		if status == http.StatusForbidden {
			return status, "forbidden"
		}
		return status, "unauthorized"
	case errors.Is(err, authcore.ErrStoreUnavailable), errors.Is(err, authcore.ErrRevocationUnavailable):
		return http.StatusServiceUnavailable, "service_unavailable"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// handleError writes err as an ErrorResponse. Credential failures get a fixed
// message so responses do not reveal whether an email is registered.
func (s *Server) handleError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := statusFor(err)

	message := err.Error()
	var details map[string]string
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		details = verr.Fields
	case errors.Is(err, authcore.ErrHashMismatch):
		message = "invalid credentials"
	case status == http.StatusUnauthorized:
		message = "authentication required"
	case status == http.StatusForbidden:
		message = "access forbidden"
	case status >= http.StatusInternalServerError:
		s.logger.Error("internal server error",
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		message = "an internal error occurred"
	}

	if werr := writeError(w, status, code, message, details); werr != nil {
		s.logger.Error("failed to write error response", zap.Error(werr))
	}
}
