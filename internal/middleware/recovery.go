package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Recovery turns a handler panic into a 500 with the usual error body.
func Recovery(log zerolog.Logger) gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(nil, func(c *gin.Context, recovered any) {
		event := log.Error().
			Interface("panic", recovered).
			Str("request_id", c.GetString(requestIDHeader)).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Bytes("stack", debug.Stack())
		if user, ok := CurrentUser(c); ok {
			event = event.Str("user_id", user.ID)
		}
		event.Msg("handler panicked")

		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"detail": "internal_server_error"})
	})
}
