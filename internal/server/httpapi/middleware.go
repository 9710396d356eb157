package httpapi

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/gin-gonic/gin"
)

// PrincipalExtractor turns an access token into a principal.
type PrincipalExtractor interface {
	Extract(ctx context.Context, token string) (*auth.Principal, error)
}

// Limiter decides whether one more request from key may proceed.
type Limiter interface {
	Allow(key string) bool
}

// RejectionRecorder is told about every rate-limited request.
type RejectionRecorder interface {
	RecordRateLimited(ctx context.Context, scope string)
}

// RequestID propagates a well-formed X-Request-ID or assigns a fresh one.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := logging.RequestIDOrNew(c.GetHeader(common.RequestIDHeaderName))
		c.Header(common.RequestIDHeaderName, id)
		c.Request = c.Request.WithContext(logging.WithRequestID(c.Request.Context(), id))
		c.Next()
	}
}

// RequestLogger logs one line per request. Server errors are logged at
// error level with the errors attached by handlers.
func RequestLogger(logger logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		ctx := c.Request.Context()
		args := []any{
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
			"client_ip", c.ClientIP(),
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			logger.Error(ctx, "request failed", append(args, "error", c.Errors.String())...)
			return
		}
		logger.Info(ctx, "request", args...)
	}
}

// RateLimit rejects requests from a client IP whose bucket is empty.
func RateLimit(l Limiter, rec RejectionRecorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.Allow(c.ClientIP()) {
			if rec != nil {
				rec.RecordRateLimited(c.Request.Context(), "ip")
			}
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too_many_requests"})
			return
		}
		c.Next()
	}
}

// Authenticate requires a bearer access token and stores the resulting
// principal in the request context.
func Authenticate(extractor PrincipalExtractor) gin.HandlerFunc {
	return func(c *gin.Context) {
		scheme, token, ok := strings.Cut(c.GetHeader("Authorization"), " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		p, err := extractor.Extract(c.Request.Context(), strings.TrimSpace(token))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Request = c.Request.WithContext(auth.WithPrincipal(c.Request.Context(), p))
		c.Next()
	}
}
