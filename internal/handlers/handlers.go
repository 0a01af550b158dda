package handlers

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"campaigndash/internal/config"
	"campaigndash/internal/metrics"
	"campaigndash/internal/middleware"
	"campaigndash/internal/models"
	"campaigndash/internal/service"
)

// InsightsReader serves the dashboard's insight queries.
type InsightsReader interface {
	Monthly(ctx context.Context, since, until string, kind metrics.Kind) ([]models.MetricSample, error)
	AllTime(ctx context.Context, limit int) ([]models.CampaignRow, error)
}

// Checker reports the health of one dependency.
type Checker func(ctx context.Context) error

type HandlerSet struct {
	log      zerolog.Logger
	cfg      *config.AppConfig
	auth     *service.AuthService
	insights InsightsReader
	checks   map[string]Checker
	now      func() time.Time
}

func NewHandlerSet(log zerolog.Logger, cfg *config.AppConfig, auth *service.AuthService, insights InsightsReader, checks map[string]Checker) HandlerSet {
	return HandlerSet{
		log:      log,
		cfg:      cfg,
		auth:     auth,
		insights: insights,
		checks:   checks,
		now:      time.Now,
	}
}

func (h HandlerSet) Register(router gin.IRouter) {
	router.GET("/healthz", h.Health)

	requireAuth := middleware.Auth(h.auth)

	auth := router.Group("/auth")
	{
		auth.POST("/register", h.RegisterUser)
		auth.GET("/verify-email", h.VerifyEmail)
		auth.POST("/resend-verification-email", h.ResendVerification)
		auth.POST("/login", h.Login)
		auth.POST("/google-login", h.GoogleLogin)
		auth.POST("/refresh-token", h.Refresh)
		auth.POST("/logout", h.Logout)

		auth.GET("/me", requireAuth, h.Me)

		admin := auth.Group("")
		admin.Use(requireAuth, middleware.RequireAdmin())
		admin.GET("/all-users", h.ListUsers)
		admin.DELETE("/delete-user", h.DeleteUser)
	}

	fb := router.Group("/api/fb-insights")
	fb.Use(requireAuth)
	fb.GET("/monthly", h.MonthlyInsights)
	fb.GET("/all-time", h.AllTimeInsights)
}
