package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/stagetalk/backend/internal/auth"
	"github.com/stagetalk/backend/pkg/response"
)

const (
	// ContextRole is the key for the caller's role in gin context.
	ContextRole = "role"
)

// JWT returns a middleware that validates a moderator session token and sets
// the role in context.
func JWT(jwtService *auth.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Unauthorized(c, "missing authorization header")
			c.Abort()
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.Unauthorized(c, "invalid authorization header")
			c.Abort()
			return
		}
		claims, err := jwtService.Validate(parts[1])
		if err != nil {
			response.Unauthorized(c, "invalid or expired token")
			c.Abort()
			return
		}
		c.Set(ContextRole, claims.Role)
		c.Next()
	}
}
