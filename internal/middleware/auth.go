package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"campaigndash/internal/models"
	"campaigndash/internal/security"
	"campaigndash/internal/service"
)

const (
	currentUserKey  = "current_user"
	accessClaimsKey = "access_claims"
)

type Authenticator interface {
	Authenticate(ctx context.Context, accessToken string, meta service.ClientMeta) (models.User, security.AccessClaims, error)
}

func Auth(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Not authenticated"})
			return
		}

		tokenStr := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))

		user, claims, err := auth.Authenticate(c.Request.Context(), tokenStr, service.ClientMeta{
			IPAddress: c.ClientIP(),
			UserAgent: c.GetHeader("User-Agent"),
		})
		if err != nil {
			if errors.Is(err, service.ErrInvalidToken) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Invalid or expired token"})
				return
			}
			c.Error(err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"detail": "internal_server_error"})
			return
		}

		c.Set(accessClaimsKey, claims)
		c.Set(currentUserKey, user)

		c.Next()
	}
}

// CurrentUser returns the user Auth attached to the request.
func CurrentUser(c *gin.Context) (models.User, bool) {
	userVal, exists := c.Get(currentUserKey)
	if !exists {
		return models.User{}, false
	}
	user, ok := userVal.(models.User)
	return user, ok
}
