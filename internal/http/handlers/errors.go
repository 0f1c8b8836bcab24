// Package handlers defines HTTP-layer error codes used across all API endpoints.
//
// Every error response carries an HTTP status and one of these codes so
// clients can branch on the code rather than on the message.
//
// Example response:
//
//	{
//	  "request_id": "e1b9be03-4999-4289-9f03-999b042d65d6",
//	  "code": "conflict",
//	  "message": "request can no longer be modified"
//	}
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-intranet-backend/internal/services"
)

const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeUnauthorized     = "unauthorized"
	ErrCodeForbidden        = "forbidden"
	ErrCodeNotFound         = "not_found"
	ErrCodeConflict         = "conflict"
	ErrCodeRateLimited      = "too_many_requests"
	ErrCodeInternal         = "internal_error"
	ErrCodeMethodNotAllowed = "method_not_allowed"

	// Domain-specific:
	ErrCodeSessionActive = "session_already_active"
	ErrCodeLocked        = "locked"
	ErrCodeValidation    = "validation_failed"
	ErrCodeCreateFailed  = "create_failed"
	ErrCodeListFailed    = "list_failed"
	ErrCodeUpdateFailed  = "update_failed"
)

// serviceError maps a service error to its status and code. Unknown errors
// become a 500 carrying fallback.
func serviceError(err error, fallback string) (int, string) {
	switch {
	case errors.Is(err, services.ErrValidation), errors.Is(err, services.ErrEmptyMessage):
		return http.StatusBadRequest, ErrCodeValidation
	case errors.Is(err, services.ErrInvalidCredentials), errors.Is(err, services.ErrUnauthenticated):
		return http.StatusUnauthorized, ErrCodeUnauthorized
	case errors.Is(err, services.ErrForbidden), errors.Is(err, services.ErrNotParticipant):
		return http.StatusForbidden, ErrCodeForbidden
	case errors.Is(err, services.ErrTechnicianNotFound),
		errors.Is(err, services.ErrJobSiteNotFound),
		errors.Is(err, services.ErrLeaveNotFound),
		errors.Is(err, services.ErrMessageNotFound),
		errors.Is(err, services.ErrLineNotFound):
		return http.StatusNotFound, ErrCodeNotFound
	case errors.Is(err, services.ErrSessionActive):
		return http.StatusConflict, ErrCodeSessionActive
	case errors.Is(err, services.ErrDuplicateJobSite),
		errors.Is(err, services.ErrLeaveNotEditable),
		errors.Is(err, services.ErrLineNotLocked):
		return http.StatusConflict, ErrCodeConflict
	case errors.Is(err, services.ErrLineLocked):
		return http.StatusLocked, ErrCodeLocked
	case errors.Is(err, services.ErrLoginRateLimited):
		return http.StatusTooManyRequests, ErrCodeRateLimited
	}
	return http.StatusInternalServerError, fallback
}

// failErr aborts with the mapping of err.
func failErr(c *gin.Context, err error, fallback string) {
	status, code := serviceError(err, fallback)
	fail(c, status, code, err.Error())
}
