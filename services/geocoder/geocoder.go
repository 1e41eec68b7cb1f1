package geocoder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"fixhive/models"
)

// ErrNoResults is returned when the provider cannot resolve the address.
var ErrNoResults = errors.New("no geocoding results for address")

// Geocoder resolves a street address to coordinates.
type Geocoder interface {
	Resolve(ctx context.Context, address string) (models.GeoPoint, error)
}

// GoogleGeocoder calls the Google Maps Geocoding API.
type GoogleGeocoder struct {
	APIKey     string
	HTTPClient *http.Client
	BaseURL    string
}

func NewGoogleGeocoder(apiKey string) *GoogleGeocoder {
	return &GoogleGeocoder{
		APIKey:     apiKey,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
		BaseURL:    "https://maps.googleapis.com/maps/api/geocode/json",
	}
}

type geocodeResponse struct {
	Status  string `json:"status"`
	Results []struct {
		Geometry struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

func (g *GoogleGeocoder) Resolve(ctx context.Context, address string) (models.GeoPoint, error) {
	params := url.Values{}
	params.Set("address", address)
	params.Set("key", g.APIKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.BaseURL+"?"+params.Encode(), nil)
	if err != nil {
		return models.GeoPoint{}, fmt.Errorf("failed to build geocode request: %w", err)
	}
	resp, err := g.HTTPClient.Do(req)
	if err != nil {
		return models.GeoPoint{}, fmt.Errorf("geocode request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return models.GeoPoint{}, fmt.Errorf("geocode request returned status %d", resp.StatusCode)
	}

	var parsed geocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return models.GeoPoint{}, fmt.Errorf("failed to decode geocode response: %w", err)
	}
	if parsed.Status != "OK" || len(parsed.Results) == 0 {
		return models.GeoPoint{}, ErrNoResults
	}

	loc := parsed.Results[0].Geometry.Location
	return models.NewGeoPoint(loc.Lat, loc.Lng), nil
}
