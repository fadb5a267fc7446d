package auth

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/stagetalk/backend/pkg/response"
)

// LoginRequest is the body for POST /moderator/login.
type LoginRequest struct {
	Password string `json:"password" binding:"required"`
}

// TokenResponse is the login response with a session token.
type TokenResponse struct {
	Token string `json:"token"`
}

// Handler handles moderator auth HTTP endpoints.
type Handler struct {
	moderator *Moderator
	logger    *zap.Logger
}

// NewHandler creates an auth handler.
func NewHandler(moderator *Moderator, logger *zap.Logger) *Handler {
	return &Handler{moderator: moderator, logger: logger}
}

// Login handles POST /moderator/login: verifies the shared password and issues
// a session token usable for reconnects and the protected HTTP surface.
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if !h.moderator.VerifyPassword(req.Password) {
		response.Unauthorized(c, "invalid credentials")
		return
	}
	token, err := h.moderator.IssueToken()
	if err != nil {
		h.logger.Error("issue moderator token", zap.Error(err))
		response.Internal(c, "failed to issue token")
		return
	}
	response.OK(c, TokenResponse{Token: token})
}
