package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"campaigndash/internal/models"
)

// RequireAdmin guards the user-management routes. The role comes from the
// stored account, never from the token or the client.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		switch {
		case !ok:
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Not authenticated"})
		case user.Role != models.UserRoleAdmin:
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"detail": "Admin access required"})
		default:
			c.Next()
		}
	}
}
