// Package handlers defines the HTTP error codes of the studio API.
//
// Screen failures use the controller's kinds as codes so clients can branch
// on them directly; the remaining codes cover transport-level failures that
// never reach the controller.
//
// Example:
//
//	{
//	  "request_id": "e1b9be03-4999-4289-9f03-999b042d65d6",
//	  "screen": "auth",
//	  "authenticated": false,
//	  "error": {"code": "invalid_credentials", "message": "Incorrect username or password.", "retry": false}
//	}
package handlers

import (
	"net/http"

	"github.com/tbourn/go-image-studio/internal/studio"
)

const (
	ErrCodeValidation         = string(studio.KindValidation)
	ErrCodeAlreadyExists      = string(studio.KindAlreadyExists)
	ErrCodeInvalidCredentials = string(studio.KindInvalidCredentials)
	ErrCodeStoreUnavailable   = string(studio.KindStoreUnavailable)
	ErrCodeUpstream           = string(studio.KindUpstream)
	ErrCodeUnauthenticated    = string(studio.KindUnauthenticated)
	ErrCodeConflict           = string(studio.KindConflict)
	ErrCodeInternal           = string(studio.KindInternal)

	// Transport-level:
	ErrCodeNotFound         = "not_found"
	ErrCodeMethodNotAllowed = "method_not_allowed"
	ErrCodeNotReady         = "not_ready"
)

// statusFor maps a failure kind to its HTTP status.
func statusFor(k studio.Kind) int {
	switch k {
	case studio.KindValidation:
		return http.StatusBadRequest
	case studio.KindAlreadyExists, studio.KindConflict:
		return http.StatusConflict
	case studio.KindInvalidCredentials, studio.KindUnauthenticated:
		return http.StatusUnauthorized
	case studio.KindStoreUnavailable:
		return http.StatusServiceUnavailable
	case studio.KindUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
