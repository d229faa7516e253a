package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/opensurvey/monitor/internal/common/dto"
	"github.com/opensurvey/monitor/internal/i18n"
)

// Login handles user login
func (h *Handler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		i18n.RespondWithError(c, i18n.ErrorUserNamePasswordRequired)
		return
	}

	// The same generic error covers an unknown username and a wrong
	// password so login probing reveals nothing.
	user, err := h.db.GetUserByUsername(c.Request.Context(), req.Username)
	if err != nil {
		i18n.RespondWithError(c, i18n.ErrorInvalidCredentials)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		i18n.RespondWithError(c, i18n.ErrorInvalidCredentials)
		return
	}

	token, err := h.jwtService.GenerateToken(user.ID, user.Username, string(user.Role))
	if err != nil {
		h.logger.Error("failed to generate token", zap.String("username", user.Username), zap.Error(err))
		i18n.RespondWithError(c, i18n.ErrInternalServer)
		return
	}

	info := toUserInfo(user)
	i18n.RespondOK(c, "MsgLoginSuccess", nil, gin.H{
		"access_token": token,
		"token_type":   "bearer",
		"user":         info,
	})
}

// Me returns the authenticated account
func (h *Handler) Me(c *gin.Context) {
	user, err := h.requester(c)
	if err != nil {
		i18n.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, toUserInfo(user))
}
