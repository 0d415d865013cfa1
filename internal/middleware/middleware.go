// Package middleware holds the gin middlewares of the HTTP surface.
package middleware

import (
	"crypto/subtle"
	"net/http"
	"runtime/debug"
	"time"

	apperrors "github.com/AlexanderMakarov/tgjournals/internal/errors"
	"github.com/AlexanderMakarov/tgjournals/internal/logger"
	"github.com/AlexanderMakarov/tgjournals/internal/metrics"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SecretTokenHeader carries the secret_token given to setWebhook.
const SecretTokenHeader = "X-Telegram-Bot-Api-Secret-Token"

// RequestIDHeader is echoed back on every response.
const RequestIDHeader = "X-Request-ID"

// WebhookSecret rejects webhook calls whose secret header does not match.
// An empty secret lets every request through.
func WebhookSecret(secret string) gin.HandlerFunc {
	expected := []byte(secret)
	return func(c *gin.Context) {
		if len(expected) == 0 {
			c.Next()
			return
		}
		got := []byte(c.GetHeader(SecretTokenHeader))
		if subtle.ConstantTimeCompare(got, expected) != 1 {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		c.Next()
	}
}

// RequestID tags the request with the incoming X-Request-ID or a new uuid.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(ContextRequestID, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// GetRequestID returns the id set by RequestID, or "".
func GetRequestID(c *gin.Context) string {
	return c.GetString(ContextRequestID)
}

// AccessLog logs every request through zap and records HTTP metrics. The
// route label is the matched pattern so path parameters don't explode
// cardinality.
func AccessLog(log *zap.Logger, m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		elapsed := time.Since(start)

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		m.ObserveHTTP(c.Request.Method, route, status, elapsed)

		fields := []zap.Field{zap.String("requestID", GetRequestID(c))}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}
		logger.LogRequest(log, c.Request.Method, c.Request.URL.Path, status, elapsed, c.ClientIP(), fields...)
	}
}

// Recovery turns panics into a 500 ErrorResponse.
func Recovery(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.LogPanic(log, r, debug.Stack(), zap.String("path", c.Request.URL.Path))
				Abort(c, apperrors.Newf(apperrors.ErrUnknown, "%v", r))
			}
		}()
		c.Next()
	}
}
