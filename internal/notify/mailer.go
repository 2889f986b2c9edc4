package notify

import (
	"context"
	"strings"

	"github.com/chetan13062004/agromate/config"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

// Message is a plain-text notification email
type Message struct {
	To      string
	Subject string
	Body    string
}

// Mailer delivers messages
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPMailer sends through an SMTP relay
type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPMailer(cfg config.MailConfig) *SMTPMailer {
	return &SMTPMailer{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	gm := gomail.NewMessage()
	gm.SetHeader("From", m.from)
	gm.SetHeader("To", msg.To)
	gm.SetHeader("Subject", msg.Subject)
	gm.SetBody("text/plain", msg.Body)
	return m.dialer.DialAndSend(gm)
}

// LogMailer only logs, used when SMTP is disabled
type LogMailer struct{}

func (LogMailer) Send(_ context.Context, msg Message) error {
	zap.L().Info("mail disabled, notification dropped",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.Int("body_len", len(msg.Body)))
	return nil
}

// NewMailer picks the SMTP mailer when mail is enabled and configured
func NewMailer(cfg config.MailConfig) Mailer {
	if !cfg.Enabled || strings.TrimSpace(cfg.Host) == "" {
		return LogMailer{}
	}
	return NewSMTPMailer(cfg)
}
