package authclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

// fakeAPI accepts bearer "fresh" on /auth/me and rotates "r1" -> "r2" on refresh.
type fakeAPI struct {
	refreshStatus int
	refreshDelay  time.Duration
	alwaysReject  bool
	retryStatus   int

	meCalls      atomic.Int32
	refreshCalls atomic.Int32
	mu           sync.Mutex
	tokensSeen   []string
}

func (f *fakeAPI) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/me", func(w http.ResponseWriter, r *http.Request) {
		f.meCalls.Add(1)
		token := r.Header.Get("Authorization")
		f.mu.Lock()
		f.tokensSeen = append(f.tokensSeen, token)
		f.mu.Unlock()

		if f.alwaysReject || token != "Bearer fresh" {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"detail": "Invalid or expired token"})
			return
		}
		if f.retryStatus != 0 {
			w.WriteHeader(f.retryStatus)
			json.NewEncoder(w).Encode(map[string]string{"detail": "upstream unavailable"})
			return
		}
		json.NewEncoder(w).Encode(User{Email: "ann@example.com", Name: "Ann", Role: "user"})
	})
	mux.HandleFunc("/auth/refresh-token", func(w http.ResponseWriter, r *http.Request) {
		f.refreshCalls.Add(1)
		time.Sleep(f.refreshDelay)
		cookie, err := r.Cookie(refreshCookieName)
		if f.refreshStatus != 0 || err != nil || cookie.Value != "r1" {
			status := f.refreshStatus
			if status == 0 {
				status = http.StatusUnauthorized
			}
			w.WriteHeader(status)
			return
		}
		http.SetCookie(w, &http.Cookie{Name: refreshCookieName, Value: "r2", Path: "/auth", HttpOnly: true})
		json.NewEncoder(w).Encode(map[string]string{"access_token": "fresh"})
	})
	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: refreshCookieName, Value: "r1", Path: "/auth", HttpOnly: true})
		json.NewEncoder(w).Encode(map[string]string{"access_token": "stale", "redirect_url": "/dashboard"})
	})
	mux.HandleFunc("/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(refreshCookieName)
		assert.NoError(t, err)
		assert.Equal(t, "r1", cookie.Value)
		http.SetCookie(w, &http.Cookie{Name: refreshCookieName, Value: "", Path: "/auth", MaxAge: -1})
		json.NewEncoder(w).Encode(map[string]string{"message": "Logged out"})
	})
	mux.HandleFunc("/auth/register", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]any{"detail": "Invalid input", "fields": map[string]string{"agree": "terms must be accepted"}})
	})
	return mux
}

func newTestClient(t *testing.T, api *fakeAPI, tokens Tokens) (*Client, *MemoryTokenStore) {
	t.Helper()
	srv := httptest.NewServer(api.handler(t))
	t.Cleanup(srv.Close)
	store := NewMemoryTokenStore(tokens)
	return New(srv.URL, store, srv.Client(), zerolog.Nop()), store
}

func TestDoRefreshesOnceAndRetries(t *testing.T) {
	t.Cleanup(func() { goleak.VerifyNone(t) })

	api := &fakeAPI{}
	client, store := newTestClient(t, api, Tokens{AccessToken: "stale", RefreshToken: "r1"})

	user, err := client.Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ann@example.com", user.Email)

	assert.EqualValues(t, 2, api.meCalls.Load())
	assert.EqualValues(t, 1, api.refreshCalls.Load())
	assert.Equal(t, []string{"Bearer stale", "Bearer fresh"}, api.tokensSeen)

	tokens, _ := store.Load()
	assert.Equal(t, Tokens{AccessToken: "fresh", RefreshToken: "r2"}, tokens)
}

func TestDoRefreshFailureIsTerminal(t *testing.T) {
	t.Cleanup(func() { goleak.VerifyNone(t) })

	api := &fakeAPI{}
	client, store := newTestClient(t, api, Tokens{AccessToken: "stale", RefreshToken: "revoked"})

	_, err := client.Me(context.Background())
	assert.ErrorIs(t, err, ErrSessionExpired)
	assert.EqualValues(t, 1, api.meCalls.Load())
	assert.EqualValues(t, 1, api.refreshCalls.Load())

	tokens, _ := store.Load()
	assert.Empty(t, tokens.AccessToken)
}

func TestDoRefreshServerErrorKeepsTokens(t *testing.T) {
	t.Cleanup(func() { goleak.VerifyNone(t) })

	api := &fakeAPI{refreshStatus: http.StatusInternalServerError}
	client, store := newTestClient(t, api, Tokens{AccessToken: "stale", RefreshToken: "r1"})

	_, err := client.Me(context.Background())
	assert.ErrorIs(t, err, ErrSessionExpired)
	assert.EqualValues(t, 1, api.meCalls.Load())

	tokens, _ := store.Load()
	assert.Equal(t, "stale", tokens.AccessToken)
}

func TestDoSecondUnauthorizedExpires(t *testing.T) {
	t.Cleanup(func() { goleak.VerifyNone(t) })

	api := &fakeAPI{alwaysReject: true}
	client, _ := newTestClient(t, api, Tokens{AccessToken: "stale", RefreshToken: "r1"})

	_, err := client.Me(context.Background())
	assert.ErrorIs(t, err, ErrSessionExpired)
	assert.EqualValues(t, 2, api.meCalls.Load())
	assert.EqualValues(t, 1, api.refreshCalls.Load())
}

func TestDoFailedRetryAfterRefreshExpires(t *testing.T) {
	t.Cleanup(func() { goleak.VerifyNone(t) })

	api := &fakeAPI{retryStatus: http.StatusInternalServerError}
	client, _ := newTestClient(t, api, Tokens{AccessToken: "stale", RefreshToken: "r1"})

	_, err := client.Me(context.Background())
	assert.ErrorIs(t, err, ErrSessionExpired)
	assert.EqualValues(t, 2, api.meCalls.Load())
	assert.EqualValues(t, 1, api.refreshCalls.Load())

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.Status)
	assert.Equal(t, "upstream unavailable", apiErr.Detail)
}

func TestConcurrentUnauthorizedShareOneRefresh(t *testing.T) {
	t.Cleanup(func() { goleak.VerifyNone(t) })

	api := &fakeAPI{refreshDelay: 50 * time.Millisecond}
	client, _ := newTestClient(t, api, Tokens{AccessToken: "stale", RefreshToken: "r1"})

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = client.Me(context.Background())
		}()
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	assert.EqualValues(t, 1, api.refreshCalls.Load())
}

func TestAPIErrorCarriesDetail(t *testing.T) {
	t.Cleanup(func() { goleak.VerifyNone(t) })

	client, _ := newTestClient(t, &fakeAPI{}, Tokens{})
	_, err := client.Register(context.Background(), SignUp{Email: "a@example.com"})

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "Invalid input", apiErr.Detail)
	assert.Equal(t, "terms must be accepted", apiErr.Fields["agree"])
}

func TestLoginPersistsAndLogoutClears(t *testing.T) {
	t.Cleanup(func() { goleak.VerifyNone(t) })

	client, store := newTestClient(t, &fakeAPI{}, Tokens{})

	redirect, err := client.Login(context.Background(), "ann@example.com", "pw", false)
	require.NoError(t, err)
	assert.Equal(t, "/dashboard", redirect)
	tokens, _ := store.Load()
	assert.Equal(t, Tokens{AccessToken: "stale", RefreshToken: "r1"}, tokens)

	require.NoError(t, client.Logout(context.Background()))
	tokens, _ = store.Load()
	assert.Equal(t, Tokens{}, tokens)
}

func TestFileTokenStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	store := NewFileTokenStore(path)

	tokens, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, Tokens{}, tokens)

	require.NoError(t, store.Save(Tokens{AccessToken: "a", RefreshToken: "r"}))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	tokens, err = store.Load()
	require.NoError(t, err)
	assert.Equal(t, Tokens{AccessToken: "a", RefreshToken: "r"}, tokens)

	require.NoError(t, store.Clear())
	require.NoError(t, store.Clear())
	_, err = os.Stat(path)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
