package middleware

import (
	"net/http"
	"regexp"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	HeaderSessionID = "X-Session-ID"
	HeaderRequestID = "X-Request-ID"

	// Context keys
	CtxSessionID = "session_id"
	CtxRequestID = "request_id"
)

var sessionIDRe = regexp.MustCompile(`^[A-Za-z0-9_\-]{8,128}$`)

// RequestID tags each request with an id, reusing the caller's
// X-Request-ID when it is a plausible token.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if !sessionIDRe.MatchString(id) {
			id = uuid.New().String()
		}
		c.Set(CtxRequestID, id)
		c.Header(HeaderRequestID, id)
		c.Next()
	}
}

// Session resolves the basket session from X-Session-ID. A missing or
// malformed id starts a new session. The id is always echoed back.
func Session() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderSessionID)
		if !sessionIDRe.MatchString(id) {
			id = uuid.New().String()
		}
		c.Set(CtxSessionID, id)
		c.Header(HeaderSessionID, id)
		c.Next()
	}
}

// SessionID returns the session set by Session, or "".
func SessionID(c *gin.Context) string {
	return c.GetString(CtxSessionID)
}

// RequestLogger creates a middleware that logs every HTTP request.
func RequestLogger(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		status := c.Writer.Status()

		event := log.Info()
		if status >= http.StatusInternalServerError {
			event = log.Error()
		} else if status >= http.StatusBadRequest {
			event = log.Warn()
		}

		if sid := SessionID(c); sid != "" {
			event = event.Str("session_id", sid)
		}

		event.
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", status).
			Dur("latency", latency).
			Str("client_ip", c.ClientIP()).
			Str("request_id", c.GetString(CtxRequestID)).
			Msg("http request")
	}
}

// Recovery creates a panic recovery middleware.
func Recovery(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error().Interface("panic", r).Str("path", c.Request.URL.Path).Msg("panic recovered")
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error_code": "SYS_001",
					"message":    "Internal server error",
				})
			}
		}()
		c.Next()
	}
}

// MaxBodySize limits the request body. Reads past the limit fail and the
// handler rejects the request.
func MaxBodySize(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		c.Next()
	}
}
