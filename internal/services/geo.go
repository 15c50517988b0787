package services

import (
	"context"
	"fmt"
	"net/url"

	"stoop/internal/transport"
)

// Geo wraps the backend's geocoding preview endpoint.
type Geo struct {
	api *transport.Client
}

// Place is a reverse-geocoding result.
type Place struct {
	Label        string `json:"label"`
	Neighborhood string `json:"neighborhood"`
	City         string `json:"city"`
}

// ReverseGeocode asks the backend to label a coordinate pair. Callers fall
// back to the public geocoding service when this endpoint is unavailable.
func (g *Geo) ReverseGeocode(ctx context.Context, lat, lng float64) (*Place, error) {
	q := url.Values{}
	q.Set("lat", fmt.Sprintf("%.6f", lat))
	q.Set("lng", fmt.Sprintf("%.6f", lng))
	var p Place
	if err := g.api.Get(ctx, "/geo/reverse", q, &p); err != nil {
		return nil, err
	}
	return &p, nil
}
