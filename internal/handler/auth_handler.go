package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/pyreportal/kiosk-agent/internal/models"
	"github.com/pyreportal/kiosk-agent/internal/service"
	appErrors "github.com/pyreportal/kiosk-agent/pkg/errors"
	"github.com/pyreportal/kiosk-agent/pkg/response"
)

// AuthHandler manages the kiosk's single staff operator session.
type AuthHandler struct {
	auth     *service.AuthService
	validate *validator.Validate
}

// NewAuthHandler constructs AuthHandler.
func NewAuthHandler(auth *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth, validate: validator.New()}
}

type setSessionRequest struct {
	AccessToken  string `json:"access_token" validate:"required"`
	RefreshToken string `json:"refresh_token"`
	UserID       int    `json:"user_id" validate:"required"`
	Username     string `json:"username" validate:"required"`
}

// Set godoc
// @Summary Store the staff operator session
// @Tags Auth
// @Accept json
// @Produce json
// @Param payload body setSessionRequest true "Operator credentials"
// @Success 200 {object} response.Envelope
// @Router /auth/session [put]
func (h *AuthHandler) Set(c *gin.Context) {
	var req setSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "access token, user id and username are required"))
		return
	}

	info := models.AuthInfo{
		AccessToken:  req.AccessToken,
		RefreshToken: req.RefreshToken,
		UserID:       req.UserID,
		Username:     req.Username,
	}
	if err := h.auth.SetSession(info); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"logged_in": true, "username": info.Username}, nil)
}

// Clear godoc
// @Summary Log the operator out
// @Tags Auth
// @Success 204
// @Router /auth/session [delete]
func (h *AuthHandler) Clear(c *gin.Context) {
	h.auth.ClearSession()
	response.NoContent(c)
}

// Get godoc
// @Summary Inspect the operator session
// @Tags Auth
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /auth/session [get]
func (h *AuthHandler) Get(c *gin.Context) {
	info := h.auth.Info()
	if info == nil {
		response.JSON(c, http.StatusOK, gin.H{"logged_in": false}, nil)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{
		"logged_in": true,
		"user_id":   info.UserID,
		"username":  info.Username,
	}, nil)
}
