package common

import (
	"errors"
	"net/http"

	"github.com/huddlechat/huddle-backend/pkg/pagination"
)

// Business logic errors
var (
	// General errors
	ErrNotFound     = errors.New("resource not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrInvalidInput = errors.New("invalid input")
	ErrConflict     = errors.New("conflict")

	// Message errors
	ErrMessageNotFound       = errors.New("message not found")
	ErrParentMessageNotFound = errors.New("parent message does not exist")
	ErrScopeUnresolvable     = errors.New("message scope cannot be resolved")

	// Member errors
	ErrMemberNotFound       = errors.New("member not found")
	ErrAdminCannotBeRemoved = errors.New("admin cannot be removed")
	ErrAdminCannotLeave     = errors.New("an admin cannot remove itself")

	// Workspace / channel errors
	ErrWorkspaceNotFound = errors.New("workspace not found")
	ErrChannelNotFound   = errors.New("channel not found")
	ErrInvalidJoinCode   = errors.New("invalid join code")
	ErrAlreadyMember     = errors.New("already a member of this workspace")

	// Storage errors
	ErrStorageDisabled = errors.New("file storage is not configured")
	ErrSearchDisabled  = errors.New("search is not configured")
)

// StatusFromError maps a service error to an HTTP status
func StatusFromError(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, ErrAdminCannotBeRemoved),
		errors.Is(err, ErrAdminCannotLeave):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound),
		errors.Is(err, ErrMessageNotFound),
		errors.Is(err, ErrParentMessageNotFound),
		errors.Is(err, ErrMemberNotFound),
		errors.Is(err, ErrWorkspaceNotFound),
		errors.Is(err, ErrChannelNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidInput),
		errors.Is(err, ErrScopeUnresolvable),
		errors.Is(err, ErrInvalidJoinCode),
		errors.Is(err, pagination.ErrInvalidCursor):
		return http.StatusBadRequest
	case errors.Is(err, ErrConflict), errors.Is(err, ErrAlreadyMember):
		return http.StatusConflict
	case errors.Is(err, ErrStorageDisabled), errors.Is(err, ErrSearchDisabled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
