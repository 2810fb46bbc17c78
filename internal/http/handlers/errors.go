// Package handlers defines the HTTP-layer error codes used across all API
// endpoints. Codes are lowercase snake_case and stable; clients branch on
// them for programmatic error handling while messages stay human-readable.
package handlers

const (
	ErrCodeBadRequest  = "bad_request"
	ErrCodeNotFound    = "not_found"
	ErrCodeRateLimited = "too_many_requests"
	ErrCodeInternal    = "internal_error"

	// Domain-specific:
	ErrCodeSaveFailed       = "save_failed"
	ErrCodeThanksFailed     = "thanks_failed"
	ErrCodeInvalidStatus    = "invalid_status"
	ErrCodeAuthRequired     = "auth_required"
	ErrCodeNotImplemented   = "not_implemented"
	ErrCodeMethodNotAllowed = "method_not_allowed"
)
