package notify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVonageSender_accepted(t *testing.T) {
	var gotForm map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		gotForm = map[string]string{
			"api_key": r.PostFormValue("api_key"),
			"from":    r.PostFormValue("from"),
			"to":      r.PostFormValue("to"),
			"text":    r.PostFormValue("text"),
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"messages":[{"status":"0"}]}`))
	}))
	defer server.Close()

	s := &VonageSender{
		APIKey:    "key",
		APISecret: "secret",
		From:      "SOS support",
		Endpoint:  server.URL,
	}
	err := s.SendSMS(context.Background(), "+4915123456789", "Your code is 12345")
	require.NoError(t, err)

	assert.Equal(t, "key", gotForm["api_key"])
	assert.Equal(t, "SOS support", gotForm["from"])
	assert.Equal(t, "4915123456789", gotForm["to"], "leading + must be stripped")
	assert.Equal(t, "Your code is 12345", gotForm["text"])
}

func TestVonageSender_providerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"messages":[{"status":"4","error-text":"Bad Credentials"}]}`))
	}))
	defer server.Close()

	s := &VonageSender{Endpoint: server.URL}
	err := s.SendSMS(context.Background(), "+4915123456789", "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Bad Credentials")
}

func TestVonageSender_httpError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	s := &VonageSender{Endpoint: server.URL}
	assert.Error(t, s.SendSMS(context.Background(), "+4915123456789", "hi"))
}
