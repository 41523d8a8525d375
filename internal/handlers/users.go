package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/qa-forum/backend/internal/models"
	"github.com/emilythestrangee/qa-forum/backend/internal/service"
)

type UserHandler struct {
	users *service.UserService
}

func NewUserHandler(users *service.UserService) *UserHandler {
	return &UserHandler{users: users}
}

// Register creates an inactive account and mails its activation code.
func (h *UserHandler) Register(c *gin.Context) {
	var input models.RegisterRequest
	if !bindJSON(c, &input) {
		return
	}
	user, err := h.users.Register(c.Request.Context(), input)
	if err != nil {
		fail(c, err)
		return
	}
	created(c, user)
}

func (h *UserHandler) Activate(c *gin.Context) {
	var input models.ActivateRequest
	if !bindJSON(c, &input) {
		return
	}
	if _, err := h.users.Activate(c.Request.Context(), input); err != nil {
		fail(c, err)
		return
	}
	noContent(c)
}

func (h *UserHandler) ResendActivationCode(c *gin.Context) {
	var input models.EmailRequest
	if !bindJSON(c, &input) {
		return
	}
	if err := h.users.ResendActivationCode(c.Request.Context(), input.Email); err != nil {
		fail(c, err)
		return
	}
	noContent(c)
}

func (h *UserHandler) ForgotPassword(c *gin.Context) {
	var input models.EmailRequest
	if !bindJSON(c, &input) {
		return
	}
	if err := h.users.ForgotPassword(c.Request.Context(), input.Email); err != nil {
		fail(c, err)
		return
	}
	noContent(c)
}

func (h *UserHandler) ResetPassword(c *gin.Context) {
	var input models.PasswordByCodeRequest
	if !bindJSON(c, &input) {
		return
	}
	if err := h.users.ResetPassword(c.Request.Context(), input); err != nil {
		fail(c, err)
		return
	}
	noContent(c)
}

func (h *UserHandler) ChangePassword(c *gin.Context) {
	userID, found := currentUserID(c)
	if !found {
		return
	}
	var input models.ChangePasswordRequest
	if !bindJSON(c, &input) {
		return
	}
	if err := h.users.ChangePassword(c.Request.Context(), userID, input); err != nil {
		fail(c, err)
		return
	}
	noContent(c)
}

// GetProfile returns the authenticated user's profile.
func (h *UserHandler) GetProfile(c *gin.Context) {
	userID, found := currentUserID(c)
	if !found {
		return
	}
	user, err := h.users.Profile(c.Request.Context(), userID)
	if err != nil {
		fail(c, err)
		return
	}
	success(c, user)
}

func (h *UserHandler) UpdateProfile(c *gin.Context) {
	userID, found := currentUserID(c)
	if !found {
		return
	}
	var input models.ProfileUpdate
	if !bindJSON(c, &input) {
		return
	}
	if _, err := h.users.UpdateProfile(c.Request.Context(), userID, input); err != nil {
		fail(c, err)
		return
	}
	noContent(c)
}
