package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/emilythestrangee/qa-forum/backend/internal/apperr"
)

// Recovery turns a panicking handler into a 500 and logs the stack.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.WithFields(log.Fields{
					"component":  "panic_recovery",
					"request_id": RequestID(c),
					"route":      c.FullPath(),
					"panic":      fmt.Sprintf("%v", r),
					"stack":      string(debug.Stack()),
				}).Error("Handler panicked, recovered")
				c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorBody{
					Code:    apperr.CodeInternal,
					Message: "Internal server error",
				})
			}
		}()
		c.Next()
	}
}
