// Package dashboard holds the client-side state of the campaign dashboard:
// session bootstrap, metric views, the campaign table, the admin panel and
// the sign-in/sign-up form. Rendering lives in render.go.
package dashboard

import (
	"context"
	"errors"
	"strings"

	"campaigndash/internal/authclient"
)

type Route string

const (
	RouteSignIn       Route = "/users/signin"
	RouteUnauthorized Route = "/unauthorized"
	RouteDashboard    Route = "/dashboard"
	RouteAdmin        Route = "/admin"
)

// SessionReader exposes the stored access token.
type SessionReader interface {
	AccessToken() (string, error)
}

type Identity interface {
	Me(ctx context.Context) (authclient.User, error)
}

// Bootstrap decides which page to show for the requested one. Any failure to
// identify the user sends them to sign in; admin pages need the admin role.
func Bootstrap(ctx context.Context, session SessionReader, identity Identity, page Route) (authclient.User, Route) {
	token, err := session.AccessToken()
	if err != nil || token == "" {
		return authclient.User{}, RouteSignIn
	}

	user, err := identity.Me(ctx)
	if err != nil {
		return authclient.User{}, RouteSignIn
	}

	if IsAdminRoute(page) && !user.IsAdmin() {
		return user, RouteUnauthorized
	}
	return user, page
}

func IsAdminRoute(page Route) bool {
	return page == RouteAdmin || strings.HasPrefix(string(page), string(RouteAdmin)+"/")
}

// Message turns a client error into the single line a page displays.
func Message(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, authclient.ErrSessionExpired) {
		return "Your session has expired. Please sign in again."
	}
	var apiErr *authclient.APIError
	if errors.As(err, &apiErr) && apiErr.Detail != "" {
		return apiErr.Detail
	}
	return err.Error()
}
