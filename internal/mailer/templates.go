package mailer

import (
	"bytes"
	"net/url"
	"strings"
	"text/template"
)

var verificationTmpl = template.Must(template.New("verify").Parse(`Hi {{.Name}},

Confirm your email address to start using the campaign dashboard:

{{.Link}}

The link expires in {{.Expires}}. If you did not sign up, ignore this message.
`))

// VerificationLink points the browser at the frontend verification page.
func VerificationLink(frontendURL, token string) string {
	return strings.TrimSuffix(frontendURL, "/") + "/verify-email?token=" + url.QueryEscape(token)
}

// Verification renders the message sent after registration.
func Verification(to, name, link, expires string) (Message, error) {
	if name == "" {
		name = "there"
	}
	var body bytes.Buffer
	err := verificationTmpl.Execute(&body, struct {
		Name, Link, Expires string
	}{name, link, expires})
	if err != nil {
		return Message{}, err
	}
	return Message{
		To:      to,
		Subject: "Verify your email",
		Body:    body.String(),
	}, nil
}
