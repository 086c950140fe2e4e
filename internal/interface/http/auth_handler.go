package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	app "github.com/oksasatya/go-ddd-ecommerce/internal/application"
	"github.com/oksasatya/go-ddd-ecommerce/pkg/response"
	"github.com/oksasatya/go-ddd-ecommerce/pkg/validation"
)

type AuthHandler struct {
	Svc    *app.Service
	Logger *logrus.Logger
	// ExposeResetLink echoes the reset link in the response; development only.
	ExposeResetLink bool
}

func NewAuthHandler(svc *app.Service, logger *logrus.Logger, exposeResetLink bool) *AuthHandler {
	return &AuthHandler{Svc: svc, Logger: logger, ExposeResetLink: exposeResetLink}
}

type resetInitRequest struct {
	Email string `json:"email" binding:"required,addr"`
}

type resetConfirmRequest struct {
	Token       string `json:"token" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,pwd"`
}

// ResetInit - POST /api/auth/reset/init {email}
// Always answers 200 so callers cannot tell which emails are registered.
func (h *AuthHandler) ResetInit(c *gin.Context) {
	var req resetInitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	link, err := h.Svc.RequestPasswordReset(c.Request.Context(), req.Email, requestMeta(c))
	if errors.Is(err, app.ErrResetUnavailable) {
		response.Error[any](c, http.StatusServiceUnavailable, "reset unavailable", nil)
		return
	}
	if err != nil {
		fail(c, h.Logger, err, "reset request failed")
		return
	}
	data := gin.H{"requested": true}
	if h.ExposeResetLink && link != "" {
		data["reset_link"] = link
	}
	response.Success(c, http.StatusOK, data, "if the email is registered, a reset link was sent", nil)
}

// ResetConfirm - POST /api/auth/reset/confirm {token, new_password}
func (h *AuthHandler) ResetConfirm(c *gin.Context) {
	var req resetConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	err := h.Svc.ConfirmPasswordReset(c.Request.Context(), req.Token, req.NewPassword, requestMeta(c))
	if errors.Is(err, app.ErrResetUnavailable) {
		response.Error[any](c, http.StatusServiceUnavailable, "reset unavailable", nil)
		return
	}
	if err != nil {
		fail(c, h.Logger, err, "reset confirm failed")
		return
	}
	response.Success[any](c, http.StatusOK, gin.H{"reset": true}, "password updated", nil)
}
