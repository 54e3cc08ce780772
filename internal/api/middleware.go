package api

import (
	"context"
	"fleet-tracking-service/internal/api/handlers"
	"fleet-tracking-service/internal/domain"
	"fleet-tracking-service/internal/platform/obs"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	headerRequestID = "X-Request-ID"
	headerUserID    = "X-User-ID"
	headerUserRole  = "X-User-Role"
)

// requestContext tags each request with an id and puts a logger carrying it
// on the request context, where services and repositories pick it up.
func requestContext(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := strings.TrimSpace(c.GetHeader(headerRequestID))
		if reqID == "" {
			reqID = uuid.NewString()
		}
		c.Header(headerRequestID, reqID)

		ctx := c.Request.Context()
		ctx = obs.WithLogger(ctx, log.With(zap.String("req_id", reqID)))
		ctx = context.WithValue(ctx, obs.RequestIDKey, reqID)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// accessLog logs end-to-end request duration and response size.
func accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		obs.Logger(c.Request.Context()).Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.RequestURI()),
			zap.Int("status", c.Writer.Status()),
			zap.Int("bytes", max(c.Writer.Size(), 0)),
			zap.Int64("dur_ms", time.Since(start).Milliseconds()),
		)
	}
}

func recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				obs.Logger(c.Request.Context()).Error("panic recovered",
					zap.Any("panic", rec),
					zap.ByteString("stack", debug.Stack()),
				)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			}
		}()

		c.Next()
	}
}

// requireActor resolves the caller from headers set by the authenticating
// gateway in front of this service.
func requireActor() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(headerUserID))
		role := domain.Role(strings.TrimSpace(c.GetHeader(headerUserRole)))
		if id == "" || !role.Valid() {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid caller identity"})
			return
		}

		c.Set(handlers.ActorKey, domain.Actor{UserID: id, Role: role})
		c.Next()
	}
}
