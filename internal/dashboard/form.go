package dashboard

import (
	"context"
	"strings"

	"campaigndash/internal/authclient"
	"campaigndash/internal/security"
)

type FormMode string

const (
	ModeSignIn FormMode = "signin"
	ModeSignUp FormMode = "signup"
)

type Authenticator interface {
	Login(ctx context.Context, email, password string, remember bool) (string, error)
	Register(ctx context.Context, form authclient.SignUp) (string, error)
}

// AuthForm backs both the sign-in and the sign-up page.
type AuthForm struct {
	Mode            FormMode
	Name            string
	Email           string
	Password        string
	ConfirmPassword string
	Agree           bool
	Remember        bool
}

// FieldErrors maps a form field to the message shown under it.
type FieldErrors map[string]string

// Checklist is the live password rule list shown while signing up.
func (f AuthForm) Checklist() security.PasswordChecks {
	return security.CheckPassword(f.Password)
}

func (f AuthForm) Validate() FieldErrors {
	errs := FieldErrors{}
	email := strings.TrimSpace(f.Email)
	switch {
	case email == "":
		errs["email"] = "Email is required"
	case !security.ValidEmail(email):
		errs["email"] = "Enter a valid email address"
	}
	if f.Password == "" {
		errs["password"] = "Password is required"
	}

	if f.Mode == ModeSignUp {
		if strings.TrimSpace(f.Name) == "" {
			errs["name"] = "Name is required"
		}
		if f.Password != "" {
			if unmet := f.Checklist().Unmet(); len(unmet) > 0 {
				errs["password"] = "Password needs " + strings.Join(unmet, ", ")
			}
		}
		if f.ConfirmPassword != f.Password {
			errs["confirm_password"] = "Passwords do not match"
		}
		if !f.Agree {
			errs["agree"] = "You must accept the terms"
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

// SubmitResult is where the page goes after a successful submit, plus any
// message the server returned.
type SubmitResult struct {
	Redirect Route
	Message  string
}

// Submit validates and sends the form. Server-side field errors are returned
// as *authclient.APIError so callers can merge them with local ones.
func (f AuthForm) Submit(ctx context.Context, api Authenticator) (SubmitResult, error) {
	if errs := f.Validate(); errs != nil {
		return SubmitResult{}, &authclient.APIError{Detail: "Please fix the highlighted fields", Fields: errs}
	}

	email := strings.ToLower(strings.TrimSpace(f.Email))
	if f.Mode == ModeSignUp {
		msg, err := api.Register(ctx, authclient.SignUp{
			Name:            strings.TrimSpace(f.Name),
			Email:           email,
			Password:        f.Password,
			ConfirmPassword: f.ConfirmPassword,
			Agree:           f.Agree,
		})
		if err != nil {
			return SubmitResult{}, err
		}
		return SubmitResult{Redirect: RouteSignIn, Message: msg}, nil
	}

	redirect, err := api.Login(ctx, email, f.Password, f.Remember)
	if err != nil {
		return SubmitResult{}, err
	}
	if redirect == "" {
		redirect = string(RouteDashboard)
	}
	return SubmitResult{Redirect: Route(redirect)}, nil
}
