// Package middleware holds the gin middleware of the HTTP API: token
// authentication, request logging and metrics, rate limiting and panic
// recovery.
package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/qa-forum/backend/internal/apperr"
	"github.com/emilythestrangee/qa-forum/backend/internal/service"
)

const (
	userIDKey = "user_id"
	emailKey  = "email"
)

// TokenParser validates a raw access token.
type TokenParser interface {
	Parse(raw string) (*service.Claims, error)
}

// Auth rejects requests without a valid access token and stores the caller's
// id and email in the context.
func Auth(tokens TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := extractToken(c)
		if raw == "" {
			Abort(c, apperr.Unauthorized(apperr.CodeNoToken, "No token provided"))
			return
		}
		claims, err := tokens.Parse(raw)
		if err != nil {
			Abort(c, err)
			return
		}
		c.Set(userIDKey, claims.ID)
		c.Set(emailKey, claims.Email)
		c.Next()
	}
}

// extractToken reads "Authorization: Bearer <token>", falling back to the
// x-access-token header.
func extractToken(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); header != "" {
		scheme, token, ok := strings.Cut(header, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}
	return strings.TrimSpace(c.GetHeader("x-access-token"))
}

// UserID returns the authenticated caller's id.
func UserID(c *gin.Context) (int64, bool) {
	v, ok := c.Get(userIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok
}

// Email returns the authenticated caller's email.
func Email(c *gin.Context) string {
	return c.GetString(emailKey)
}
