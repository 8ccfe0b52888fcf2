// Package handlers defines HTTP-layer error codes used across all API endpoints.
//
// Codes are lowercase snake_case and stable; clients branch on them rather
// than on messages. Service errors map onto them in failErr:
//
//	*services.ValidationError     -> 400 validation_failed
//	services.ErrNotFound          -> 404 not_found
//	services.ErrInvalidTransition -> 422 invalid_transition
//	services.ErrConflict          -> 409 conflict
//	anything else                 -> 500 internal_error
//
// Example response:
//
//	{
//	  "request_id": "e1b9be03-4999-4289-9f03-999b042d65d6",
//	  "code": "conflict",
//	  "message": "posting is already bound to an active matching: conflict"
//	}
package handlers

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
	ErrCodeValidation        = "validation_failed"
	ErrCodeInvalidTransition = "invalid_transition"
	ErrCodeUnavailable       = "unavailable"
)
