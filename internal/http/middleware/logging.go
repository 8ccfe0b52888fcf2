// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file holds the request identity helpers used by every other piece of
// middleware and by the handlers:
//
//   - RequestID() assigns or propagates the X-Request-ID correlation id.
//   - OperatorID() resolves the back-office operator acting on the request.
//   - LoggerFrom() returns the request-scoped zerolog.Logger installed by
//     RedactingLogger (or a plain global logger when none is installed).
//   - Recovery() turns panics into the standard JSON error envelope.
//
// Recommended order: RequestID, RedactingLogger, Recovery.
package middleware

import (
	"net/http"
	"runtime/debug"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	requestIDKey    = "requestID"
	requestIDHeader = "X-Request-ID"
	loggerKey       = "logger"

	// OperatorIDKey is the context key an upstream auth layer sets.
	OperatorIDKey = "userID"
	// OperatorHeader carries the operator id when no auth layer is present.
	OperatorHeader = "X-User-ID"
	// DefaultOperator is used when neither source provides an id.
	DefaultOperator = "demo-user"
)

// RequestID reuses an incoming X-Request-ID or generates a UUIDv4, stores it
// in the context and echoes it on the response.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := strings.TrimSpace(c.GetHeader(requestIDHeader))
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Set(requestIDKey, rid)
		c.Writer.Header().Set(requestIDHeader, rid)
		c.Next()
	}
}

// GetRequestID returns the correlation id assigned by RequestID.
func GetRequestID(c *gin.Context) string {
	if v, ok := c.Get(requestIDKey); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return c.Writer.Header().Get(requestIDHeader)
}

// OperatorID returns the operator performing the request: the "userID"
// context value set by an auth layer, then the X-User-ID header, then
// DefaultOperator.
func OperatorID(c *gin.Context) string {
	if v, ok := c.Get(OperatorIDKey); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	if c.Request != nil {
		if h := strings.TrimSpace(c.GetHeader(OperatorHeader)); h != "" {
			return h
		}
	}
	return DefaultOperator
}

// Recovery logs a recovered panic with its stack and answers 500 with the
// standard error envelope when nothing was written yet.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			rid := GetRequestID(c)
			LoggerFrom(c).Error().
				Interface("panic", rec).
				Bytes("stack", debug.Stack()).
				Str("request_id", rid).
				Msg("panic recovered")

			if c.Writer.Written() {
				c.AbortWithStatus(http.StatusInternalServerError)
				return
			}
			c.Header(requestIDHeader, rid)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"request_id": rid,
				"code":       "internal_error",
				"message":    "internal server error",
			})
		}()
		c.Next()
	}
}

// LoggerFrom returns the request-scoped logger, falling back to the global
// logger. The result is never nil.
func LoggerFrom(c *gin.Context) *zerolog.Logger {
	if v, ok := c.Get(loggerKey); ok {
		if lg, ok := v.(*zerolog.Logger); ok {
			return lg
		}
	}
	l := log.Logger
	return &l
}
