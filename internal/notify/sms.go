package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const vonageSMSEndpoint = "https://rest.nexmo.com/sms/json"

// VonageSender sends SMS through the Vonage REST API.
type VonageSender struct {
	APIKey    string
	APISecret string
	From      string

	// HTTPClient overrides the default client; used by tests.
	HTTPClient *http.Client
	// Endpoint overrides the API URL; used by tests.
	Endpoint string
}

type vonageResponse struct {
	Messages []struct {
		Status    string `json:"status"`
		ErrorText string `json:"error-text"`
	} `json:"messages"`
}

func (s *VonageSender) SendSMS(ctx context.Context, to, text string) error {
	endpoint := s.Endpoint
	if endpoint == "" {
		endpoint = vonageSMSEndpoint
	}
	client := s.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}

	form := url.Values{}
	form.Set("api_key", s.APIKey)
	form.Set("api_secret", s.APISecret)
	form.Set("from", s.From)
	form.Set("to", strings.TrimPrefix(to, "+"))
	form.Set("text", text)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build sms request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("send sms: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("send sms: unexpected status %d", resp.StatusCode)
	}

	var vr vonageResponse
	if err := json.NewDecoder(resp.Body).Decode(&vr); err != nil {
		return fmt.Errorf("decode sms response: %w", err)
	}
	if len(vr.Messages) == 0 {
		return fmt.Errorf("send sms: empty response")
	}
	// Status "0" means accepted.
	if vr.Messages[0].Status != "0" {
		return fmt.Errorf("send sms: provider error: %s", vr.Messages[0].ErrorText)
	}
	return nil
}
