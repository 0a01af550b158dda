package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"campaigndash/internal/insights"
	"campaigndash/internal/repository"
	"campaigndash/internal/service"
)

var statusByError = []struct {
	err    error
	status int
	detail string
}{
	{service.ErrEmailTaken, http.StatusBadRequest, "Email already registered"},
	{service.ErrInvalidCredentials, http.StatusBadRequest, "Invalid credentials"},
	{service.ErrEmailNotVerified, http.StatusForbidden, "Please verify your email to continue"},
	{service.ErrInvalidPassword, http.StatusUnauthorized, "Invalid password"},
	{service.ErrRateLimited, http.StatusTooManyRequests, "Too many login attempts, try again later"},
	{service.ErrInvalidToken, http.StatusUnauthorized, "Invalid or expired token"},
	{service.ErrAlreadyVerified, http.StatusBadRequest, "Email is already verified"},
	{service.ErrInvalidIdentity, http.StatusUnauthorized, "Invalid Google token"},
	{service.ErrCannotDeleteSelf, http.StatusBadRequest, "You cannot delete your own account"},
	{repository.ErrUserNotFound, http.StatusNotFound, "User not found"},
	{insights.ErrNotConfigured, http.StatusInternalServerError, "Missing FB access token or ad account ID"},
}

func detail(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"detail": msg})
}

// respondError maps service errors onto status codes and {"detail"} bodies.
func respondError(c *gin.Context, err error) {
	var verr *service.ValidationError
	if errors.As(err, &verr) {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Invalid input", "fields": verr.Fields})
		return
	}
	var qerr *insights.InvalidQueryError
	if errors.As(err, &qerr) {
		detail(c, http.StatusBadRequest, qerr.Reason)
		return
	}
	var gerr *insights.GraphError
	if errors.As(err, &gerr) {
		zerolog.Ctx(c.Request.Context()).Warn().Err(err).Int("graph_code", gerr.Code).Msg("graph api error")
		detail(c, http.StatusBadGateway, gerr.Message)
		return
	}
	for _, m := range statusByError {
		if errors.Is(err, m.err) {
			detail(c, m.status, m.detail)
			return
		}
	}

	c.Error(err)
	zerolog.Ctx(c.Request.Context()).Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
	detail(c, http.StatusInternalServerError, "internal_server_error")
}
