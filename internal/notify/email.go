package notify

import (
	"context"
	"fmt"
	"log"
	"net/smtp"
	"time"

	"github.com/mailgun/mailgun-go/v4"
)

// SMTPSender delivers mail through a plain SMTP relay.
type SMTPSender struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

func (s *SMTPSender) SendMail(ctx context.Context, to, subject, body string) error {
	var auth smtp.Auth
	if s.Username != "" {
		auth = smtp.PlainAuth("", s.Username, s.Password, s.Host)
	}
	msg := []byte(fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s", s.From, to, subject, body))
	if err := smtp.SendMail(s.Host+":"+s.Port, auth, s.From, []string{to}, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

// MailgunSender delivers mail through the Mailgun API.
type MailgunSender struct {
	Domain string
	APIKey string
	From   string
}

func (s *MailgunSender) SendMail(ctx context.Context, to, subject, body string) error {
	mg := mailgun.NewMailgun(s.Domain, s.APIKey)

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	message := mg.NewMessage(s.From, subject, body, to)
	_, id, err := mg.Send(ctx, message)
	if err != nil {
		return fmt.Errorf("mailgun send: %w", err)
	}
	log.Printf("Email queued: %s", id)
	return nil
}

// LogSender writes the message to the server log instead of sending it.
// Dev/test provider; OTP codes end up in local logs, so never use it in
// production.
type LogSender struct{}

func (LogSender) SendMail(ctx context.Context, to, subject, body string) error {
	log.Printf("email (log provider) to=%s subject=%q\n%s", to, subject, body)
	return nil
}
