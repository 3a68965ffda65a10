// Package geo resolves coordinates to a human-readable address through the
// Google Maps Geocoding API.
package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

const geocodeEndpoint = "https://maps.googleapis.com/maps/api/geocode/json"

// Geocoder reverse-geocodes a lat/lng pair.
type Geocoder interface {
	ReverseGeocode(ctx context.Context, lat, lng float64) (string, error)
}

// GoogleGeocoder calls the Google Maps Geocoding API.
type GoogleGeocoder struct {
	APIKey string

	// HTTPClient and Endpoint override defaults; used by tests.
	HTTPClient *http.Client
	Endpoint   string
}

type geocodeResponse struct {
	Status  string `json:"status"`
	Results []struct {
		FormattedAddress string `json:"formatted_address"`
	} `json:"results"`
}

// ReverseGeocode returns the formatted address of the first result.
func (g *GoogleGeocoder) ReverseGeocode(ctx context.Context, lat, lng float64) (string, error) {
	endpoint := g.Endpoint
	if endpoint == "" {
		endpoint = geocodeEndpoint
	}
	client := g.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	q := url.Values{}
	q.Set("latlng", fmt.Sprintf("%f,%f", lat, lng))
	q.Set("key", g.APIKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("build geocode request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("geocode request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("geocode: unexpected status %d", resp.StatusCode)
	}

	var gr geocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&gr); err != nil {
		return "", fmt.Errorf("decode geocode response: %w", err)
	}
	if gr.Status != "OK" || len(gr.Results) == 0 {
		return "", fmt.Errorf("geocode: no result for %f,%f (status %s)", lat, lng, gr.Status)
	}
	return gr.Results[0].FormattedAddress, nil
}
