package middleware

import "github.com/gin-gonic/gin"

// Codes written by middleware that aborts a request. They share the error
// object shape of the handlers' screen responses.
const (
	CodeInternal          = "internal"
	CodeRateLimited       = "rate_limited"
	CodeBadIdempotencyKey = "bad_idempotency_key"
	CodePayloadTooLarge   = "payload_too_large"
)

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Retry   bool   `json:"retry"`
}

type abortBody struct {
	RequestID string    `json:"request_id,omitempty"`
	Error     errorBody `json:"error"`
}

func abortJSON(c *gin.Context, status int, code, msg string) {
	c.AbortWithStatusJSON(status, abortBody{
		RequestID: RequestIDFrom(c),
		Error:     errorBody{Code: code, Message: msg},
	})
}
