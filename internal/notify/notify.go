// Package notify delivers one-time codes and SOS alerts over email or SMS.
// Channels are constructed explicitly and injected into the services that
// dispatch through them; nothing here is lazily initialized.
package notify

import (
	"context"
	"fmt"
	"regexp"
)

// ChannelKind classifies a contact identifier by shape.
type ChannelKind int

const (
	ChannelUnknown ChannelKind = iota
	ChannelEmail
	ChannelSMS
)

var (
	emailPattern = regexp.MustCompile(`^[\w.-]+@[\w.-]+\.\w{2,}$`)
	phonePattern = regexp.MustCompile(`^\+?\d{10,15}$`)
)

// DetectChannel reports whether the destination looks like an email
// address or a phone number. Phone shape wins when both could match.
func DetectChannel(destination string) ChannelKind {
	if phonePattern.MatchString(destination) {
		return ChannelSMS
	}
	if emailPattern.MatchString(destination) {
		return ChannelEmail
	}
	return ChannelUnknown
}

// EmailSender sends a single plain-text message.
type EmailSender interface {
	SendMail(ctx context.Context, to, subject, body string) error
}

// SMSSender sends a single text message.
type SMSSender interface {
	SendSMS(ctx context.Context, to, text string) error
}

// Dispatcher routes outbound notifications to the right transport based on
// the destination's shape.
type Dispatcher struct {
	email EmailSender
	sms   SMSSender
}

// NewDispatcher wires the configured transports together. sms may be nil
// when no SMS provider is configured; dispatch to a phone-shaped
// destination then fails.
func NewDispatcher(email EmailSender, sms SMSSender) *Dispatcher {
	return &Dispatcher{email: email, sms: sms}
}

func greeting(name string) string {
	if name == "" {
		return "Hello,"
	}
	return fmt.Sprintf("Hello %s,", name)
}

// SendOTP delivers a registration code through whichever channel the
// destination resembles.
func (d *Dispatcher) SendOTP(ctx context.Context, destination, code, name string) error {
	body := fmt.Sprintf("%s\n\nYour OTP code for registration is: %s. This code will expire in 10 minutes.", greeting(name), code)
	switch DetectChannel(destination) {
	case ChannelSMS:
		if d.sms == nil {
			return fmt.Errorf("sms channel is not configured")
		}
		return d.sms.SendSMS(ctx, destination, body)
	case ChannelEmail:
		return d.email.SendMail(ctx, destination, "Your Registration OTP Code", body)
	default:
		return fmt.Errorf("destination is neither an email address nor a phone number")
	}
}

// SendPasswordReset delivers a reset code; resets are always email-based.
func (d *Dispatcher) SendPasswordReset(ctx context.Context, email, code, name string) error {
	body := fmt.Sprintf("%s\n\nYour OTP code for password reset is: %s. This code will expire in 10 minutes.\n\nIf you didn't request a password reset, please ignore this email.", greeting(name), code)
	return d.email.SendMail(ctx, email, "Password Reset Request", body)
}

// SendSOS emails a distress alert with the sender's resolved address.
func (d *Dispatcher) SendSOS(ctx context.Context, recipient, address, userName, userEmail string) error {
	body := fmt.Sprintf(
		"Emergency alert from %s (%s).\n\nTheir last reported location is:\n%s\n\nPlease respond immediately.",
		userName, userEmail, address,
	)
	return d.email.SendMail(ctx, recipient, "SOS Alert: "+userName+" needs help", body)
}
