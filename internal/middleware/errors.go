package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/emilythestrangee/qa-forum/backend/internal/apperr"
)

// ErrorBody is the JSON shape of every failed response.
type ErrorBody struct {
	Code    string              `json:"code"`
	Message string              `json:"message"`
	Errors  []apperr.FieldError `json:"errors,omitempty"`
}

// Abort writes err as an ErrorBody and stops the handler chain.
// Errors that are not *apperr.Error are logged and answered with 500.
func Abort(c *gin.Context, err error) {
	e, ok := apperr.As(err)
	if !ok {
		log.WithFields(log.Fields{
			"request_id": RequestID(c),
			"route":      c.FullPath(),
			"error":      err,
		}).Error("Request failed")
		c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorBody{
			Code:    apperr.CodeInternal,
			Message: "Internal server error",
		})
		return
	}
	c.AbortWithStatusJSON(e.Kind.Status(), ErrorBody{Code: e.Code, Message: e.Message, Errors: e.Fields})
}
