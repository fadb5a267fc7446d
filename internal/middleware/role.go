package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/stagetalk/backend/internal/auth"
	"github.com/stagetalk/backend/pkg/response"
)

// RequireModerator allows only requests carrying a moderator role.
func RequireModerator() gin.HandlerFunc {
	return func(c *gin.Context) {
		roleVal, ok := c.Get(ContextRole)
		if !ok {
			response.Unauthorized(c, "missing role context")
			c.Abort()
			return
		}
		if role, _ := roleVal.(string); role != auth.RoleModerator {
			response.Forbidden(c, "insufficient permissions")
			c.Abort()
			return
		}
		c.Next()
	}
}
