package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Place is a human-readable label for a coordinate pair.
type Place struct {
	Label        string
	Neighborhood string
	City         string
}

// Geocoder maps coordinates to a place.
type Geocoder interface {
	ReverseGeocode(ctx context.Context, c Coordinates) (Place, error)
}

// GeocoderFunc adapts a function to the Geocoder interface.
type GeocoderFunc func(ctx context.Context, c Coordinates) (Place, error)

// ReverseGeocode implements Geocoder.
func (f GeocoderFunc) ReverseGeocode(ctx context.Context, c Coordinates) (Place, error) {
	return f(ctx, c)
}

// Fallback tries each geocoder in order and returns the first result. Only
// the last error is reported; earlier failures are the reason the next
// geocoder runs at all.
func Fallback(geocoders ...Geocoder) Geocoder {
	return GeocoderFunc(func(ctx context.Context, c Coordinates) (Place, error) {
		var err error
		for _, g := range geocoders {
			var p Place
			p, err = g.ReverseGeocode(ctx, c)
			if err == nil {
				return p, nil
			}
			if ctx.Err() != nil {
				break
			}
		}
		if err == nil {
			err = ErrUnavailable
		}
		return Place{}, err
	})
}

const publicGeocodeURL = "https://api.bigdatacloud.net/data/reverse-geocode-client"

// PublicGeocoder queries BigDataCloud's client reverse-geocoding endpoint,
// which serves anonymous requests without an API key. It backs the primary
// geocoder when the backend preview endpoint is down.
type PublicGeocoder struct {
	httpClient *http.Client
	baseURL    string
}

// NewPublicGeocoder builds a public geocoder. A nil client gets a 10s default.
func NewPublicGeocoder(client *http.Client) *PublicGeocoder {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &PublicGeocoder{httpClient: client, baseURL: publicGeocodeURL}
}

type publicGeocodeResponse struct {
	Locality string `json:"locality"`
	City     string `json:"city"`
}

// ReverseGeocode implements Geocoder.
func (g *PublicGeocoder) ReverseGeocode(ctx context.Context, c Coordinates) (Place, error) {
	q := url.Values{}
	q.Set("latitude", fmt.Sprintf("%.6f", c.Lat))
	q.Set("longitude", fmt.Sprintf("%.6f", c.Lng))
	q.Set("localityLanguage", "en")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return Place{}, err
	}
	resp, err := g.httpClient.Do(req)
	if err != nil {
		return Place{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Place{}, fmt.Errorf("geo: public geocoder returned %d", resp.StatusCode)
	}
	var body publicGeocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Place{}, err
	}
	return Place{
		Label:        joinPlace(body.Locality, body.City),
		Neighborhood: body.Locality,
		City:         body.City,
	}, nil
}

func joinPlace(parts ...string) string {
	kept := parts[:0]
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, ", ")
}
