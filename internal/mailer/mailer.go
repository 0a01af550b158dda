package mailer

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"campaigndash/internal/config"
)

// Message is a plain-text email.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Provider delivers messages.
type Provider interface {
	Send(ctx context.Context, msg Message) error
}

// New picks the provider named in cfg; unknown names fall back to logging.
func New(cfg config.MailConfig, log zerolog.Logger) Provider {
	switch strings.ToLower(cfg.Provider) {
	case "noop":
		return NoopProvider{}
	case "smtp":
		if cfg.SMTPHost == "" {
			log.Warn().Msg("smtp provider selected without host, logging mail instead")
			return LogProvider{log: log}
		}
		return &SMTPProvider{
			addr: net.JoinHostPort(cfg.SMTPHost, strconv.Itoa(cfg.SMTPPort)),
			host: cfg.SMTPHost,
			user: cfg.SMTPUser,
			pass: cfg.SMTPPass,
			from: cfg.From,
			send: smtp.SendMail,
		}
	default:
		return LogProvider{log: log}
	}
}

type LogProvider struct {
	log zerolog.Logger
}

func NewLogProvider(log zerolog.Logger) LogProvider {
	return LogProvider{log: log}
}

func (p LogProvider) Send(ctx context.Context, msg Message) error {
	p.log.Info().
		Str("to", msg.To).
		Str("subject", msg.Subject).
		Msg(msg.Body)
	return nil
}

type NoopProvider struct{}

func (NoopProvider) Send(ctx context.Context, msg Message) error { return nil }

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

type SMTPProvider struct {
	addr string
	host string
	user string
	pass string
	from string
	send sendFunc
}

func (p *SMTPProvider) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var auth smtp.Auth
	if p.user != "" {
		auth = smtp.PlainAuth("", p.user, p.pass, p.host)
	}
	if err := p.send(p.addr, auth, p.from, []string{msg.To}, p.encode(msg)); err != nil {
		return fmt.Errorf("smtp send to %s: %w", msg.To, err)
	}
	return nil
}

func (p *SMTPProvider) encode(msg Message) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", p.from)
	fmt.Fprintf(&b, "To: %s\r\n", msg.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
	b.WriteString(strings.ReplaceAll(msg.Body, "\n", "\r\n"))
	return []byte(b.String())
}
