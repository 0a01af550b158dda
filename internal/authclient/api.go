package authclient

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"campaigndash/internal/models"
)

// User is the signed-in account as /auth/me reports it.
type User struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

func (u User) IsAdmin() bool { return u.Role == "admin" }

type SignUp struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
	Agree           bool   `json:"agree"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	RedirectURL string `json:"redirect_url"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// Login signs in and persists the session. It returns the page to open next.
func (c *Client) Login(ctx context.Context, email, password string, remember bool) (string, error) {
	return c.signIn(ctx, "/auth/login", map[string]any{
		"email":       email,
		"password":    password,
		"remember_me": remember,
	})
}

func (c *Client) GoogleLogin(ctx context.Context, idToken string) (string, error) {
	return c.signIn(ctx, "/auth/google-login", map[string]string{"token": idToken})
}

func (c *Client) VerifyEmail(ctx context.Context, token string) (string, error) {
	var resp tokenResponse
	if err := c.DoAnonymous(ctx, http.MethodGet, "/auth/verify-email?token="+url.QueryEscape(token), nil, &resp); err != nil {
		return "", err
	}
	return resp.RedirectURL, c.session.SetAccessToken(resp.AccessToken)
}

func (c *Client) signIn(ctx context.Context, path string, body any) (string, error) {
	var resp tokenResponse
	if err := c.DoAnonymous(ctx, http.MethodPost, path, body, &resp); err != nil {
		return "", err
	}
	return resp.RedirectURL, c.session.SetAccessToken(resp.AccessToken)
}

func (c *Client) Register(ctx context.Context, form SignUp) (string, error) {
	var resp messageResponse
	err := c.DoAnonymous(ctx, http.MethodPost, "/auth/register", form, &resp)
	return resp.Message, err
}

func (c *Client) ResendVerification(ctx context.Context, email string) (string, error) {
	var resp messageResponse
	err := c.DoAnonymous(ctx, http.MethodPost, "/auth/resend-verification-email", map[string]string{"email": email}, &resp)
	return resp.Message, err
}

// Logout ends the server session and forgets local tokens even if the server call fails.
func (c *Client) Logout(ctx context.Context) error {
	err := c.DoAnonymous(ctx, http.MethodPost, "/auth/logout", nil, nil)
	if clearErr := c.session.Clear(); clearErr != nil && err == nil {
		err = clearErr
	}
	return err
}

func (c *Client) Me(ctx context.Context) (User, error) {
	var user User
	err := c.Do(ctx, http.MethodGet, "/auth/me", nil, &user)
	return user, err
}

func (c *Client) Users(ctx context.Context) ([]User, error) {
	var resp struct {
		Users []User `json:"users"`
	}
	err := c.Do(ctx, http.MethodGet, "/auth/all-users", nil, &resp)
	return resp.Users, err
}

func (c *Client) DeleteUser(ctx context.Context, email string) error {
	return c.Do(ctx, http.MethodDelete, "/auth/delete-user?email="+url.QueryEscape(email), nil, nil)
}

func (c *Client) Monthly(ctx context.Context, since, until, metric string) ([]models.MetricSample, error) {
	q := url.Values{}
	q.Set("since", since)
	q.Set("until", until)
	q.Set("metric", metric)
	var samples []models.MetricSample
	err := c.Do(ctx, http.MethodGet, "/api/fb-insights/monthly?"+q.Encode(), nil, &samples)
	return samples, err
}

func (c *Client) AllTime(ctx context.Context, limit int) ([]models.CampaignRow, error) {
	path := "/api/fb-insights/all-time"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var resp struct {
		Data []models.CampaignRow `json:"data"`
	}
	err := c.Do(ctx, http.MethodGet, path, nil, &resp)
	return resp.Data, err
}
