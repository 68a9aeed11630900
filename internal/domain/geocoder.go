package domain

import "context"

// GeocodingResult contains location data returned by a reverse geocoding provider.
type GeocodingResult struct {
	Country     string // English country name as reported by the provider
	CountryCode string // ISO 3166-1 alpha-2, lowercase, when available
	DisplayName string
}

// Geocoder resolves coordinates to place details.
type Geocoder interface {
	// ReverseGeocode converts coordinates to place details. A location with no
	// country (open sea, for instance) yields an empty result and a nil error.
	ReverseGeocode(ctx context.Context, lat, lon float64) (GeocodingResult, error)
}
