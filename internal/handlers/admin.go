package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"campaigndash/internal/middleware"
)

func (h HandlerSet) ListUsers(c *gin.Context) {
	users, err := h.auth.ListUsers(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	items := make([]userResponse, 0, len(users))
	for _, user := range users {
		items = append(items, userResponse{Email: user.Email, Name: user.Name})
	}

	c.JSON(http.StatusOK, gin.H{
		"users": items,
	})
}

func (h HandlerSet) DeleteUser(c *gin.Context) {
	actor, ok := middleware.CurrentUser(c)
	if !ok {
		detail(c, http.StatusUnauthorized, "Not authenticated")
		return
	}

	email := c.Query("email")
	if err := h.auth.DeleteUser(c.Request.Context(), actor, email); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "User " + email + " deleted successfully"})
}
