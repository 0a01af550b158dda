package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

var ErrInvalidIdentity = errors.New("invalid identity token")

// Profile is what the application needs from a verified identity token.
type Profile struct {
	Subject string
	Email   string
	Name    string
}

// Verifier checks an ID token issued by a third-party identity provider.
type Verifier interface {
	Verify(ctx context.Context, idToken string) (Profile, error)
}

// GoogleVerifier validates Google ID tokens through the tokeninfo endpoint.
type GoogleVerifier struct {
	http         *http.Client
	tokenInfoURL string
	clientID     string
	now          func() time.Time
}

func NewGoogleVerifier(clientID, tokenInfoURL string, httpClient *http.Client) *GoogleVerifier {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &GoogleVerifier{
		http:         httpClient,
		tokenInfoURL: tokenInfoURL,
		clientID:     clientID,
		now:          time.Now,
	}
}

type tokenInfo struct {
	Aud           string `json:"aud"`
	Sub           string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified string `json:"email_verified"`
	Name          string `json:"name"`
	Exp           string `json:"exp"`
	Iss           string `json:"iss"`
}

func (v *GoogleVerifier) Verify(ctx context.Context, idToken string) (Profile, error) {
	idToken = strings.TrimSpace(idToken)
	if idToken == "" {
		return Profile{}, ErrInvalidIdentity
	}

	u, err := url.Parse(v.tokenInfoURL)
	if err != nil {
		return Profile{}, fmt.Errorf("parse tokeninfo url: %w", err)
	}
	q := u.Query()
	q.Set("id_token", idToken)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return Profile{}, fmt.Errorf("build tokeninfo request: %w", err)
	}
	resp, err := v.http.Do(req)
	if err != nil {
		return Profile{}, fmt.Errorf("tokeninfo request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Profile{}, ErrInvalidIdentity
	}

	var info tokenInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return Profile{}, fmt.Errorf("decode tokeninfo: %w", err)
	}

	if v.clientID != "" && info.Aud != v.clientID {
		return Profile{}, fmt.Errorf("%w: audience mismatch", ErrInvalidIdentity)
	}
	if info.Iss != "" && info.Iss != "accounts.google.com" && info.Iss != "https://accounts.google.com" {
		return Profile{}, fmt.Errorf("%w: unexpected issuer", ErrInvalidIdentity)
	}
	if info.EmailVerified != "true" || info.Email == "" {
		return Profile{}, fmt.Errorf("%w: email not verified", ErrInvalidIdentity)
	}
	if exp, err := strconv.ParseInt(info.Exp, 10, 64); err == nil && time.Unix(exp, 0).Before(v.now()) {
		return Profile{}, fmt.Errorf("%w: expired", ErrInvalidIdentity)
	}

	return Profile{
		Subject: info.Sub,
		Email:   strings.ToLower(info.Email),
		Name:    info.Name,
	}, nil
}
