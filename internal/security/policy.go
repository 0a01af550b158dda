package security

import (
	"net/mail"
	"strings"
	"unicode"
)

const MinPasswordLength = 8

// PasswordChecks is the per-rule result shown next to a password field.
type PasswordChecks struct {
	MinLength bool `json:"min_length"`
	Uppercase bool `json:"uppercase"`
	Lowercase bool `json:"lowercase"`
	Number    bool `json:"number"`
	Special   bool `json:"special"`
}

func CheckPassword(password string) PasswordChecks {
	checks := PasswordChecks{
		MinLength: len([]rune(password)) >= MinPasswordLength,
	}
	for _, r := range password {
		switch {
		case r >= 'A' && r <= 'Z':
			checks.Uppercase = true
		case r >= 'a' && r <= 'z':
			checks.Lowercase = true
		case r >= '0' && r <= '9':
			checks.Number = true
		case !unicode.IsSpace(r):
			checks.Special = true
		}
	}
	return checks
}

func (c PasswordChecks) OK() bool {
	return c.MinLength && c.Uppercase && c.Lowercase && c.Number && c.Special
}

// Unmet lists the human-readable rules that still fail, in display order.
func (c PasswordChecks) Unmet() []string {
	var out []string
	if !c.MinLength {
		out = append(out, "8 characters minimum")
	}
	if !c.Uppercase {
		out = append(out, "one uppercase character")
	}
	if !c.Lowercase {
		out = append(out, "one lowercase character")
	}
	if !c.Number {
		out = append(out, "one number")
	}
	if !c.Special {
		out = append(out, "one special character")
	}
	return out
}

// ValidEmail accepts a bare address (no display name) whose domain has a dot.
// Clients and the server share this rule.
func ValidEmail(email string) bool {
	email = strings.TrimSpace(email)
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return false
	}
	_, domain, _ := strings.Cut(email, "@")
	return strings.Contains(domain, ".") && !strings.HasSuffix(domain, ".")
}
