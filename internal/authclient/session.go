package authclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

const (
	refreshCookieName = "refresh_token"
	refreshPath       = "/auth/refresh-token"
	cookiePathPrefix  = "/auth/"
)

// ErrSessionExpired is terminal: the caller must sign in again.
var ErrSessionExpired = errors.New("session expired")

// Session owns the access token and the refresh cookie for one signed-in user.
// Concurrent refreshes collapse into a single call to the server.
type Session struct {
	baseURL string
	http    *http.Client
	store   TokenStore
	log     zerolog.Logger

	mu    sync.Mutex
	group singleflight.Group
}

func NewSession(baseURL string, store TokenStore, httpClient *http.Client, log zerolog.Logger) *Session {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Session{
		baseURL: baseURL,
		http:    httpClient,
		store:   store,
		log:     log,
	}
}

// AccessToken reads the current token from the store.
func (s *Session) AccessToken() (string, error) {
	tokens, err := s.store.Load()
	if err != nil {
		return "", err
	}
	return tokens.AccessToken, nil
}

// SetAccessToken records a token obtained from a sign-in response.
func (s *Session) SetAccessToken(token string) error {
	return s.update(func(t *Tokens) { t.AccessToken = token })
}

// Clear forgets both tokens.
func (s *Session) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Clear()
}

func (s *Session) update(fn func(t *Tokens)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tokens, err := s.store.Load()
	if err != nil {
		return err
	}
	fn(&tokens)
	return s.store.Save(tokens)
}

// attachCookie sends the refresh cookie on /auth/ requests, as a browser would.
func (s *Session) attachCookie(req *http.Request, path string) error {
	if !strings.HasPrefix(path, cookiePathPrefix) {
		return nil
	}
	tokens, err := s.store.Load()
	if err != nil {
		return err
	}
	if tokens.RefreshToken != "" {
		req.AddCookie(&http.Cookie{Name: refreshCookieName, Value: tokens.RefreshToken})
	}
	return nil
}

// captureCookie stores a rotated or cleared refresh cookie.
func (s *Session) captureCookie(resp *http.Response) error {
	for _, c := range resp.Cookies() {
		if c.Name != refreshCookieName {
			continue
		}
		value := c.Value
		if c.MaxAge < 0 {
			value = ""
		}
		return s.update(func(t *Tokens) { t.RefreshToken = value })
	}
	return nil
}

// Refresh obtains a new access token. stale is the token that was just rejected;
// if the store already holds a different one, another caller refreshed first and
// that token is returned without contacting the server.
func (s *Session) Refresh(ctx context.Context, stale string) (string, error) {
	v, err, shared := s.group.Do("refresh", func() (any, error) {
		current, err := s.AccessToken()
		if err != nil {
			return "", err
		}
		if current != "" && current != stale {
			return current, nil
		}
		return s.refresh(context.WithoutCancel(ctx))
	})
	if shared {
		s.log.Debug().Msg("joined in-flight token refresh")
	}
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (s *Session) refresh(ctx context.Context) (string, error) {
	tokens, err := s.store.Load()
	if err != nil {
		return "", err
	}
	if tokens.RefreshToken == "" {
		return "", ErrSessionExpired
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+refreshPath, nil)
	if err != nil {
		return "", err
	}
	req.AddCookie(&http.Cookie{Name: refreshCookieName, Value: tokens.RefreshToken})

	resp, err := s.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: refresh request: %v", ErrSessionExpired, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		s.log.Debug().Int("status", resp.StatusCode).Msg("token refresh rejected")
		if resp.StatusCode == http.StatusUnauthorized {
			if err := s.Clear(); err != nil {
				s.log.Warn().Err(err).Msg("clear rejected session failed")
			}
		}
		return "", ErrSessionExpired
	}

	var body struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || body.AccessToken == "" {
		return "", fmt.Errorf("%w: malformed refresh response", ErrSessionExpired)
	}

	if err := s.captureCookie(resp); err != nil {
		return "", err
	}
	if err := s.SetAccessToken(body.AccessToken); err != nil {
		return "", err
	}
	s.log.Debug().Msg("access token refreshed")
	return body.AccessToken, nil
}
