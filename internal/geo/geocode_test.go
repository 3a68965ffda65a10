package geo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGoogleGeocoder_ok(t *testing.T) {
	var gotLatLng, gotKey string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotLatLng = r.URL.Query().Get("latlng")
		gotKey = r.URL.Query().Get("key")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"OK","results":[{"formatted_address":"1 Main St, Springfield"}]}`))
	}))
	defer server.Close()

	g := &GoogleGeocoder{APIKey: "maps-key", Endpoint: server.URL}
	address, err := g.ReverseGeocode(context.Background(), 52.52, 13.405)
	require.NoError(t, err)
	assert.Equal(t, "1 Main St, Springfield", address)
	assert.Equal(t, "52.520000,13.405000", gotLatLng)
	assert.Equal(t, "maps-key", gotKey)
}

func TestGoogleGeocoder_zeroResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ZERO_RESULTS","results":[]}`))
	}))
	defer server.Close()

	g := &GoogleGeocoder{Endpoint: server.URL}
	_, err := g.ReverseGeocode(context.Background(), 0, 0)
	assert.Error(t, err)
}

func TestGoogleGeocoder_httpError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	g := &GoogleGeocoder{Endpoint: server.URL}
	_, err := g.ReverseGeocode(context.Background(), 1, 2)
	assert.Error(t, err)
}
