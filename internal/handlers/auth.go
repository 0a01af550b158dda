package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"campaigndash/internal/middleware"
	"campaigndash/internal/service"
)

const (
	refreshCookieName = "refresh_token"
	refreshCookiePath = "/auth"
	dashboardURL      = "/dashboard"
)

type registerRequest struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
	Agree           bool   `json:"agree"`
}

type loginRequest struct {
	Email      string `json:"email" binding:"required"`
	Password   string `json:"password" binding:"required"`
	RememberMe bool   `json:"remember_me"`
}

type emailRequest struct {
	Email string `json:"email" binding:"required"`
}

type googleLoginRequest struct {
	Token string `json:"token" binding:"required"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	RedirectURL string `json:"redirect_url,omitempty"`
}

type userResponse struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role,omitempty"`
}

func clientMeta(c *gin.Context) service.ClientMeta {
	return service.ClientMeta{
		IPAddress: c.ClientIP(),
		UserAgent: c.GetHeader("User-Agent"),
	}
}

func (h HandlerSet) RegisterUser(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		detail(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	if _, err := h.auth.Register(c.Request.Context(), service.RegisterInput{
		Name:            req.Name,
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
		Agree:           req.Agree,
	}); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Registration successful. Please check your email to verify."})
}

func (h HandlerSet) VerifyEmail(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		detail(c, http.StatusBadRequest, "Missing token")
		return
	}

	result, err := h.auth.VerifyEmail(c.Request.Context(), token, clientMeta(c))
	if errors.Is(err, service.ErrInvalidToken) {
		detail(c, http.StatusBadRequest, "Invalid or expired token")
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}

	h.sendSession(c, result, dashboardURL)
}

func (h HandlerSet) ResendVerification(c *gin.Context) {
	var req emailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		detail(c, http.StatusBadRequest, "Email is required")
		return
	}

	if err := h.auth.ResendVerification(c.Request.Context(), req.Email); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Verification email resent"})
}

func (h HandlerSet) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		detail(c, http.StatusBadRequest, "Email and password are required")
		return
	}

	result, err := h.auth.Login(c.Request.Context(), service.LoginInput{
		Email:      req.Email,
		Password:   req.Password,
		RememberMe: req.RememberMe,
		Meta:       clientMeta(c),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	h.sendSession(c, result, dashboardURL)
}

func (h HandlerSet) GoogleLogin(c *gin.Context) {
	var req googleLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		detail(c, http.StatusBadRequest, "Token is required")
		return
	}

	result, err := h.auth.GoogleLogin(c.Request.Context(), req.Token, clientMeta(c))
	if err != nil {
		respondError(c, err)
		return
	}

	h.sendSession(c, result, dashboardURL)
}

func (h HandlerSet) Refresh(c *gin.Context) {
	refreshToken, err := c.Cookie(refreshCookieName)
	if err != nil || refreshToken == "" {
		detail(c, http.StatusUnauthorized, "Missing refresh token")
		return
	}

	result, err := h.auth.Refresh(c.Request.Context(), refreshToken)
	if err != nil {
		if errors.Is(err, service.ErrInvalidToken) {
			h.clearRefreshCookie(c)
		}
		respondError(c, err)
		return
	}

	h.sendSession(c, result, "")
}

func (h HandlerSet) Logout(c *gin.Context) {
	refreshToken, _ := c.Cookie(refreshCookieName)
	if err := h.auth.Logout(c.Request.Context(), refreshToken); err != nil {
		respondError(c, err)
		return
	}

	h.clearRefreshCookie(c)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

func (h HandlerSet) Me(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		detail(c, http.StatusUnauthorized, "Not authenticated")
		return
	}

	c.JSON(http.StatusOK, userResponse{
		Email: user.Email,
		Name:  user.Name,
		Role:  string(user.Role),
	})
}

// sendSession sets the refresh cookie and answers with the access token.
func (h HandlerSet) sendSession(c *gin.Context, result service.AuthResult, redirect string) {
	maxAge := int(result.RefreshExpires.Sub(h.now()) / time.Second)
	if maxAge < 1 {
		maxAge = 1
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(refreshCookieName, result.RefreshToken, maxAge, refreshCookiePath, "", h.cfg.Production(), true)

	c.JSON(http.StatusOK, tokenResponse{
		AccessToken: result.AccessToken,
		TokenType:   "bearer",
		RedirectURL: redirect,
	})
}

func (h HandlerSet) clearRefreshCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(refreshCookieName, "", -1, refreshCookiePath, "", h.cfg.Production(), true)
}
