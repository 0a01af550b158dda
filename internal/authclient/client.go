package authclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// APIError is a non-2xx answer other than an unrecoverable 401.
type APIError struct {
	Status int
	Detail string
	Fields map[string]string
}

func (e *APIError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("api error %d", e.Status)
	}
	return e.Detail
}

// Client calls the dashboard API with the session's bearer token, refreshing it once on 401.
type Client struct {
	baseURL string
	http    *http.Client
	session *Session
	log     zerolog.Logger
}

func New(baseURL string, store TokenStore, httpClient *http.Client, log zerolog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	baseURL = strings.TrimSuffix(baseURL, "/")
	return &Client{
		baseURL: baseURL,
		http:    httpClient,
		session: NewSession(baseURL, store, httpClient, log),
		log:     log,
	}
}

func (c *Client) Session() *Session { return c.session }

// Do performs an authenticated request. A 401 triggers one refresh and one retry;
// a failed refresh or a failed retry yields ErrSessionExpired. A retry that got
// a non-2xx answer also wraps its *APIError.
func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	payload, err := encodeBody(body)
	if err != nil {
		return err
	}

	token, err := c.session.AccessToken()
	if err != nil {
		return err
	}
	resp, err := c.send(ctx, method, path, payload, token)
	if err != nil {
		return err
	}

	if resp.StatusCode == http.StatusUnauthorized {
		drain(resp)
		if _, err := c.session.Refresh(ctx, token); err != nil {
			if errors.Is(err, ErrSessionExpired) {
				return ErrSessionExpired
			}
			return fmt.Errorf("%w: %v", ErrSessionExpired, err)
		}

		token, err = c.session.AccessToken()
		if err != nil {
			return err
		}
		resp, err = c.send(ctx, method, path, payload, token)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrSessionExpired, err)
		}
		if resp.StatusCode == http.StatusUnauthorized {
			drain(resp)
			return ErrSessionExpired
		}
		// The call already spent its refresh; any failure now is terminal.
		var apiErr *APIError
		if err := decode(resp, out); errors.As(err, &apiErr) {
			return fmt.Errorf("%w: %w", ErrSessionExpired, apiErr)
		} else if err != nil {
			return err
		}
		return nil
	}

	return decode(resp, out)
}

// DoAnonymous performs a request without a bearer token.
func (c *Client) DoAnonymous(ctx context.Context, method, path string, body, out any) error {
	payload, err := encodeBody(body)
	if err != nil {
		return err
	}
	resp, err := c.send(ctx, method, path, payload, "")
	if err != nil {
		return err
	}
	return decode(resp, out)
}

func (c *Client) send(ctx context.Context, method, path string, payload []byte, token string) (*http.Response, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if err := c.session.attachCookie(req, path); err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	if err := c.session.captureCookie(resp); err != nil {
		resp.Body.Close()
		return nil, err
	}
	c.log.Debug().Str("method", method).Str("path", path).Int("status", resp.StatusCode).Msg("api call")
	return resp, nil
}

func encodeBody(body any) ([]byte, error) {
	if body == nil {
		return nil, nil
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	return payload, nil
}

func decode(resp *http.Response, out any) error {
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		var body struct {
			Detail string            `json:"detail"`
			Fields map[string]string `json:"fields"`
		}
		if raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20)); err == nil {
			if json.Unmarshal(raw, &body) == nil {
				apiErr.Detail = body.Detail
				apiErr.Fields = body.Fields
			} else {
				apiErr.Detail = strings.TrimSpace(string(raw))
			}
		}
		return apiErr
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}
