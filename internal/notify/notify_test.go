package notify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectChannel(t *testing.T) {
	cases := []struct {
		destination string
		want        ChannelKind
	}{
		{"user@example.com", ChannelEmail},
		{"first.last@sub.example.co", ChannelEmail},
		{"+4915123456789", ChannelSMS},
		{"4915123456789", ChannelSMS},
		{"+123", ChannelUnknown}, // too short for a phone number
		{"not-an-address", ChannelUnknown},
		{"", ChannelUnknown},
		{"user@", ChannelUnknown},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, DetectChannel(tc.destination), "destination %q", tc.destination)
	}
}

type captureEmail struct {
	to      string
	subject string
	body    string
	calls   int
}

func (c *captureEmail) SendMail(_ context.Context, to, subject, body string) error {
	c.to, c.subject, c.body = to, subject, body
	c.calls++
	return nil
}

type captureSMS struct {
	to    string
	text  string
	calls int
}

func (c *captureSMS) SendSMS(_ context.Context, to, text string) error {
	c.to, c.text = to, text
	c.calls++
	return nil
}

func TestDispatcher_SendOTP_routesEmail(t *testing.T) {
	email := &captureEmail{}
	sms := &captureSMS{}
	d := NewDispatcher(email, sms)

	require.NoError(t, d.SendOTP(context.Background(), "user@example.com", "12345", "Ada"))
	assert.Equal(t, 1, email.calls)
	assert.Equal(t, 0, sms.calls)
	assert.Equal(t, "user@example.com", email.to)
	assert.Contains(t, email.body, "12345")
	assert.Contains(t, email.body, "Ada")
}

func TestDispatcher_SendOTP_routesSMS(t *testing.T) {
	email := &captureEmail{}
	sms := &captureSMS{}
	d := NewDispatcher(email, sms)

	require.NoError(t, d.SendOTP(context.Background(), "+4915123456789", "54321", "Ada"))
	assert.Equal(t, 0, email.calls)
	assert.Equal(t, 1, sms.calls)
	assert.Equal(t, "+4915123456789", sms.to)
	assert.Contains(t, sms.text, "54321")
}

func TestDispatcher_SendOTP_noSMSChannel(t *testing.T) {
	d := NewDispatcher(&captureEmail{}, nil)
	err := d.SendOTP(context.Background(), "+4915123456789", "12345", "Ada")
	assert.Error(t, err, "phone destination without an SMS channel must fail")
}

func TestDispatcher_SendOTP_unknownDestination(t *testing.T) {
	d := NewDispatcher(&captureEmail{}, &captureSMS{})
	err := d.SendOTP(context.Background(), "neither", "12345", "Ada")
	assert.Error(t, err)
}

func TestDispatcher_SendPasswordReset(t *testing.T) {
	email := &captureEmail{}
	d := NewDispatcher(email, nil)

	require.NoError(t, d.SendPasswordReset(context.Background(), "user@example.com", "11111", "Ada"))
	assert.Equal(t, 1, email.calls)
	assert.Contains(t, email.body, "11111")
}

func TestDispatcher_SendSOS(t *testing.T) {
	email := &captureEmail{}
	d := NewDispatcher(email, nil)

	require.NoError(t, d.SendSOS(context.Background(), "help@example.com", "1 Main St", "Ada Lovelace", "ada@example.com"))
	assert.Equal(t, "help@example.com", email.to)
	assert.Contains(t, email.body, "1 Main St")
	assert.Contains(t, email.body, "Ada Lovelace")
}
