package dashboard

import (
	"context"
	"errors"
	"fmt"

	"campaigndash/internal/authclient"
)

var ErrNoPendingDelete = errors.New("no user selected for deletion")

type UserAdmin interface {
	Users(ctx context.Context) ([]authclient.User, error)
	DeleteUser(ctx context.Context, email string) error
}

// AdminPanel is the user list with a confirm-before-delete step.
// Failures are kept as display strings in Error.
type AdminPanel struct {
	api     UserAdmin
	Users   []authclient.User
	Pending string
	Error   string
	Notice  string
}

func NewAdminPanel(api UserAdmin) *AdminPanel {
	return &AdminPanel{api: api}
}

func (p *AdminPanel) Load(ctx context.Context) error {
	users, err := p.api.Users(ctx)
	if err != nil {
		p.Error = Message(err)
		return err
	}
	p.Users = users
	p.Error = ""
	return nil
}

// RequestDelete opens the confirmation for email.
func (p *AdminPanel) RequestDelete(email string) {
	p.Pending = email
	p.Notice = ""
}

func (p *AdminPanel) Cancel() {
	p.Pending = ""
}

// Confirm deletes the pending user and drops them from the local list.
func (p *AdminPanel) Confirm(ctx context.Context) error {
	email := p.Pending
	if email == "" {
		return ErrNoPendingDelete
	}
	p.Pending = ""

	if err := p.api.DeleteUser(ctx, email); err != nil {
		p.Error = Message(err)
		return fmt.Errorf("delete %s: %w", email, err)
	}

	kept := p.Users[:0]
	for _, u := range p.Users {
		if u.Email != email {
			kept = append(kept, u)
		}
	}
	p.Users = kept
	p.Error = ""
	p.Notice = "User " + email + " deleted"
	return nil
}
