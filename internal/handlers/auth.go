package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/qa-forum/backend/internal/models"
	"github.com/emilythestrangee/qa-forum/backend/internal/service"
)

type AuthHandler struct {
	auth *service.AuthService
}

func NewAuthHandler(auth *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// Login exchanges an email and password for an access token.
func (h *AuthHandler) Login(c *gin.Context) {
	var input models.LoginRequest
	if !bindJSON(c, &input) {
		return
	}
	resp, err := h.auth.Login(c.Request.Context(), input)
	if err != nil {
		fail(c, err)
		return
	}
	success(c, resp)
}

func (h *AuthHandler) FacebookLogin(c *gin.Context) {
	h.socialLogin(c, models.UserTypeFacebook)
}

func (h *AuthHandler) GoogleLogin(c *gin.Context) {
	h.socialLogin(c, models.UserTypeGoogle)
}

func (h *AuthHandler) socialLogin(c *gin.Context, kind models.UserType) {
	var input models.SocialLoginRequest
	if !bindJSON(c, &input) {
		return
	}
	resp, err := h.auth.SocialLogin(c.Request.Context(), kind, input)
	if err != nil {
		fail(c, err)
		return
	}
	success(c, resp)
}
