package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/emilythestrangee/qa-forum/backend/internal/observability"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"
)

// RequestID returns the id RequestLogger assigned to the request.
func RequestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}

// RequestLogger tags each request with an id, logs it once it completes and
// records its status and latency.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)

		c.Next()

		elapsed := time.Since(start)
		status := c.Writer.Status()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := c.Request.Method

		observability.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
		observability.HTTPRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())

		entry := log.WithFields(log.Fields{
			"request_id":  id,
			"method":      method,
			"route":       route,
			"status":      status,
			"duration_ms": elapsed.Milliseconds(),
			"bytes_sent":  c.Writer.Size(),
		})
		if userID, ok := UserID(c); ok {
			entry = entry.WithField("user_id", userID)
		}
		switch {
		case status >= 500:
			entry.Error("request")
		case status >= 400:
			entry.Warn("request")
		default:
			entry.Debug("request")
		}
	}
}
